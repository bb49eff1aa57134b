// Package resolve turns package requests into repository-ready metadata.
//
// The Resolver answers "does a usable wheel exist for this package, and what
// is its metadata" for one request at a time; the Pool drives many Resolver
// calls concurrently under an admission gate and aggregates the outcomes.
package resolve

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/mapping"
	"github.com/wheelforge/wheelforge/pkg/registry"
	"github.com/wheelforge/wheelforge/pkg/registry/pypi"
	"github.com/wheelforge/wheelforge/pkg/wheel"
)

// Request identifies one unit of resolution work. Version may be empty, in
// which case the best published version is discovered first. Two requests
// are distinct whenever their raw strings differ; the pipeline never
// coalesces them.
type Request struct {
	Name    string
	Version string
}

// String renders the request in requirements format.
func (r Request) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "==" + r.Version
}

// Wheel describes the built-wheel artifact selected for a package.
type Wheel struct {
	Filename string
	URL      string
	SHA256   string
	Size     int64
	Pure     bool
}

// Package is a successfully resolved package. Immutable once built.
type Package struct {
	SourceName     string   // name as requested
	Name           string   // conda name after mapping
	Version        string
	Wheel          Wheel
	Depends        []string // mapped dependency specifiers, python constraint last
	PythonRequires string
}

// Resolver resolves single package requests against a PyPI-compatible index.
// It holds no mutable state of its own; the mapping table is read-only after
// load, so one Resolver may serve any number of concurrent workers.
type Resolver struct {
	Client   *pypi.Client
	Table    *mapping.Table
	PureOnly bool // require an interpreter/platform-independent wheel
	Refresh  bool // bypass the response cache
}

// Resolve performs the remote lookups for one request and builds the
// package metadata. Failures are classified: PACKAGE_NOT_FOUND and NO_WHEEL
// are terminal per-package outcomes, MALFORMED_RESPONSE covers unparseable
// metadata, and transient network failures surface after the retry budget
// inside the registry client is exhausted.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Package, error) {
	name := mapping.Normalize(req.Name)
	version := req.Version

	// Fast path: the simple-index file listing decides the best version and
	// whether the wheel policy can be satisfied without the full document.
	// When the listing is unavailable or yields nothing usable, the JSON
	// API below decides, using the latest release.
	if version == "" {
		if files, err := r.Client.FileListing(ctx, name, r.Refresh); err == nil {
			if v, ok := wheel.Select(files, r.PureOnly); ok {
				version = v
			}
		}
	}

	rel, err := r.Client.FetchRelease(ctx, name, version, r.Refresh)
	if err != nil {
		return nil, r.classify(req, err)
	}
	if rel.Info.Name == "" || rel.Info.Version == "" {
		return nil, apperrors.New(apperrors.ErrCodeMalformed, "%s: metadata document missing name or version", req)
	}
	if version == "" {
		version = rel.Info.Version
	}

	file := rel.Wheel()
	if file == nil {
		return nil, apperrors.New(apperrors.ErrCodeNoWheel, "%s: release ships no wheel", req)
	}

	parsed, ok := wheel.Parse(file.Filename)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeMalformed, "%s: unparseable wheel filename %q", req, file.Filename)
	}
	if r.PureOnly && !parsed.Pure() {
		return nil, apperrors.New(apperrors.ErrCodeNoWheel, "%s: no pure wheel (best is %s)", req, file.Filename)
	}

	return &Package{
		SourceName: req.Name,
		Name:       r.Table.Resolve(rel.Info.Name),
		Version:    version,
		Wheel: Wheel{
			Filename: file.Filename,
			URL:      file.URL,
			SHA256:   file.Digests.SHA256,
			Size:     file.Size,
			Pure:     parsed.Pure(),
		},
		Depends:        r.depends(rel),
		PythonRequires: rel.Info.RequiresPython,
	}, nil
}

// depends extracts runtime dependency specifiers: extras are dropped,
// environment markers stripped at the first semicolon, leading names mapped
// through the table. A python interpreter constraint is appended last when
// the metadata declares one.
func (r *Resolver) depends(rel *pypi.Release) []string {
	var out []string
	for _, dep := range rel.Info.RequiresDist {
		spec, marker, _ := strings.Cut(dep, ";")
		if strings.Contains(marker, "extra") {
			continue
		}
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		out = append(out, r.Table.MapSpecifier(spec))
	}
	if rel.Info.RequiresPython != "" {
		out = append(out, fmt.Sprintf("python %s", rel.Info.RequiresPython))
	}
	return out
}

func (r *Resolver) classify(req Request, err error) error {
	if stderrors.Is(err, registry.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodePackageNotFound, err, "%s: not in index", req)
	}
	if stderrors.Is(err, registry.ErrNetwork) || stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "%s: fetch failed", req)
	}
	return apperrors.Wrap(apperrors.ErrCodeMalformed, err, "%s: unreadable metadata", req)
}
