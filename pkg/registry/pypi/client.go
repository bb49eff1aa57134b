// Package pypi provides access to the PyPI package index: the PEP 503
// simple index (catalog and per-package file listings), the JSON metadata
// API, and the grayskull PyPI→conda name-mapping document.
//
// All methods are safe for concurrent use.
package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/wheelforge/wheelforge/pkg/cache"
	"github.com/wheelforge/wheelforge/pkg/mapping"
	"github.com/wheelforge/wheelforge/pkg/registry"
	"github.com/wheelforge/wheelforge/pkg/wheel"
)

const (
	// DefaultBaseURL is the public PyPI instance.
	DefaultBaseURL = "https://pypi.org"

	// DefaultMappingURL is the grayskull PyPI→conda name mapping maintained
	// by the conda-forge graph.
	DefaultMappingURL = "https://raw.githubusercontent.com/regro/cf-graph-countyfair/master/mappings/pypi/grayskull_pypi_mapping.json"
)

var simpleHrefRE = regexp.MustCompile(`href="[^"]*/simple/([^/"]+)/"`)

// Client talks to a PyPI-compatible index with caching and retries.
type Client struct {
	*registry.Client
	baseURL    string
	mappingURL string
}

// NewClient creates a PyPI client backed by the given cache.
// Responses are cached under the "pypi:" namespace for ttl.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:     registry.NewClient(backend, "pypi:", ttl, nil),
		baseURL:    DefaultBaseURL,
		mappingURL: DefaultMappingURL,
	}
}

// SetBaseURL points the client at a different index (mirrors, tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SetMappingURL overrides the name-mapping document location.
func (c *Client) SetMappingURL(u string) { c.mappingURL = u }

// simpleIndex is the PEP 691 JSON form of the simple index root.
type simpleIndex struct {
	Projects []struct {
		Name string `json:"name"`
	} `json:"projects"`
}

// ListProjects returns every project name in the index, normalized, unique
// and sorted. It prefers the JSON simple-index content type and falls back
// to scraping the HTML listing when the body isn't JSON.
func (c *Client) ListProjects(ctx context.Context, refresh bool) ([]string, error) {
	var names []string
	err := c.Cached(ctx, "simple", refresh, &names, func() error {
		body, err := c.GetText(ctx, c.baseURL+"/simple/", map[string]string{
			"Accept": "application/vnd.pypi.simple.v1+json",
		})
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		var idx simpleIndex
		if jsonErr := json.Unmarshal([]byte(body), &idx); jsonErr == nil {
			for _, p := range idx.Projects {
				if p.Name != "" {
					seen[mapping.Normalize(p.Name)] = true
				}
			}
		} else {
			for _, m := range simpleHrefRE.FindAllStringSubmatch(body, -1) {
				seen[mapping.Normalize(m[1])] = true
			}
		}

		names = names[:0]
		for n := range seen {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// FileListing returns the distribution filenames published for a package,
// scraped from its simple-index page. Returns [registry.ErrNotFound] if the
// package has no page.
func (c *Client) FileListing(ctx context.Context, name string, refresh bool) ([]string, error) {
	name = mapping.Normalize(name)

	var files []string
	err := c.Cached(ctx, "simple:"+name, refresh, &files, func() error {
		body, err := c.GetText(ctx, fmt.Sprintf("%s/simple/%s/", c.baseURL, name), map[string]string{
			"Accept": "text/html",
		})
		if err != nil {
			return err
		}
		files = wheel.ScanFilenames(body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Release is the JSON API document for one package release.
type Release struct {
	Info struct {
		Name           string   `json:"name"`
		Version        string   `json:"version"`
		RequiresDist   []string `json:"requires_dist"`
		RequiresPython string   `json:"requires_python"`
	} `json:"info"`
	URLs []File `json:"urls"`
}

// File is one distribution file within a release.
type File struct {
	PackageType string `json:"packagetype"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	Digests     struct {
		SHA256 string `json:"sha256"`
	} `json:"digests"`
}

// Wheel returns the first built-wheel file of the release, or nil if the
// release ships no wheel.
func (r *Release) Wheel() *File {
	for i := range r.URLs {
		if r.URLs[i].PackageType == "bdist_wheel" {
			return &r.URLs[i]
		}
	}
	return nil
}

// FetchRelease retrieves the metadata document for name at version.
// An empty version fetches the latest release. Returns
// [registry.ErrNotFound] if the package or version doesn't exist.
func (c *Client) FetchRelease(ctx context.Context, name, version string, refresh bool) (*Release, error) {
	name = mapping.Normalize(name)

	url := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, name)
	key := "release:" + name
	if version != "" {
		url = fmt.Sprintf("%s/pypi/%s/%s/json", c.baseURL, name, version)
		key += ":" + version
	}

	var rel Release
	err := c.Cached(ctx, key, refresh, &rel, func() error {
		return c.GetJSONWithHeaders(ctx, url, map[string]string{"Accept": "application/json"}, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FetchMapping downloads the grayskull name-mapping document and returns it
// keyed by normalized PyPI name with normalized conda names as values.
// The document is large and changes rarely, so it is cached like any other
// response.
func (c *Client) FetchMapping(ctx context.Context) (map[string]string, error) {
	raw := make(map[string]struct {
		CondaName string `json:"conda_name"`
	})
	err := c.Cached(ctx, "grayskull-mapping", false, &raw, func() error {
		return c.GetJSON(ctx, c.mappingURL, &raw)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for name, entry := range raw {
		if entry.CondaName != "" {
			out[mapping.Normalize(name)] = mapping.Normalize(entry.CondaName)
		}
	}
	return out, nil
}
