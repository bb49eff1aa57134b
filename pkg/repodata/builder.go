// Package repodata builds the static conda channel artifacts: the
// repodata.json document, its compressed variants, channeldata.json, and an
// HTML directory listing.
//
// The document is deterministic: entries are keyed and sorted ascending, and
// the compressed artifacts are derived from the one serialized bytestream,
// so identical input always yields byte-identical output.
package repodata

import (
	"fmt"
	"sort"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/resolve"
)

const (
	// Subdir is the platform-independent channel subdirectory.
	Subdir = "noarch"

	// BuildTag is the synthetic conda build string for pure-Python wheels.
	BuildTag = "py3_none_any_0"

	// RecordVersion is the packages.whl record format version.
	RecordVersion = 3

	// RepodataVersion is the repodata.json format version.
	RepodataVersion = 1
)

// Entry is one packages.whl record.
type Entry struct {
	URL           string   `json:"url"`
	RecordVersion int      `json:"record_version"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Build         string   `json:"build"`
	BuildNumber   int      `json:"build_number"`
	Depends       []string `json:"depends"`
	Fn            string   `json:"fn"`
	SHA256        string   `json:"sha256"`
	Size          int64    `json:"size"`
	Subdir        string   `json:"subdir"`
	Noarch        string   `json:"noarch"`
}

// Info holds the document's fixed channel metadata.
type Info struct {
	Subdir string `json:"subdir"`
}

// Document is the repodata.json structure. The legacy packages maps stay
// empty; wheel entries live under packages.whl.
type Document struct {
	Info            Info             `json:"info"`
	Packages        map[string]Entry `json:"packages"`
	PackagesConda   map[string]Entry `json:"packages.conda"`
	Removed         []string         `json:"removed"`
	RepodataVersion int              `json:"repodata_version"`
	Signatures      map[string]any   `json:"signatures"`
	Wheels          map[string]Entry `json:"packages.whl"`
}

// EntryKey synthesizes the unique index key for a resolved package.
func EntryKey(pkg *resolve.Package) string {
	return fmt.Sprintf("%s-%s-%s", pkg.Name, pkg.Version, BuildTag)
}

// Build folds resolved packages into a repository document.
//
// The caller is responsible for the all-succeed invariant: Build must only
// be given a complete result set with zero failures. Build itself enforces
// key uniqueness; two packages collapsing to the same entry key abort the
// build with a DUPLICATE_KEY error rather than silently overwriting.
func Build(resolved []*resolve.Package) (*Document, error) {
	wheels := make(map[string]Entry, len(resolved))
	sources := make(map[string]string, len(resolved))

	for _, pkg := range resolved {
		key := EntryKey(pkg)
		if prev, exists := sources[key]; exists {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateKey,
				"entry key %q produced by both %q and %q", key, prev, pkg.SourceName)
		}
		sources[key] = pkg.SourceName
		wheels[key] = Entry{
			URL:           pkg.Wheel.URL,
			RecordVersion: RecordVersion,
			Name:          pkg.Name,
			Version:       pkg.Version,
			Build:         BuildTag,
			BuildNumber:   0,
			Depends:       append([]string{}, pkg.Depends...),
			Fn:            pkg.Wheel.Filename,
			SHA256:        pkg.Wheel.SHA256,
			Size:          pkg.Wheel.Size,
			Subdir:        Subdir,
			Noarch:        "python",
		}
	}

	return &Document{
		Info:            Info{Subdir: Subdir},
		Packages:        map[string]Entry{},
		PackagesConda:   map[string]Entry{},
		Removed:         []string{},
		RepodataVersion: RepodataVersion,
		Signatures:      map[string]any{},
		Wheels:          wheels,
	}, nil
}

// Keys returns the wheel entry keys in ascending order, the order they
// appear in the serialized document.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Wheels))
	for k := range d.Wheels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
