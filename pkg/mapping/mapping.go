// Package mapping translates PyPI package names into conda package names.
//
// Normalization follows PEP 503 (lowercase, underscores→hyphens). The
// PyPI→conda correspondences come from a remote mapping document loaded at
// most once per process; when the document is unreachable the table degrades
// to identity mapping and the run continues.
package mapping

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Normalize converts a package name to its canonical comparison form:
// lowercase with underscores replaced by hyphens. Total and idempotent.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// specNameRE matches the leading package-name token of a dependency
// specifier like "charset-normalizer<4,>=2".
var specNameRE = regexp.MustCompile(`^([a-zA-Z0-9._-]+)`)

// FetchFunc retrieves the mapping document: normalized PyPI name →
// normalized conda name.
type FetchFunc func(ctx context.Context) (map[string]string, error)

// Table is the process-wide PyPI→conda name table. It is constructed once,
// loaded at most once, and read-only afterwards, so Resolve and MapSpecifier
// are safe to call from any number of workers without locking.
type Table struct {
	fetch  FetchFunc
	logger *log.Logger

	once    sync.Once
	entries map[string]string
}

// New creates an unloaded Table. A nil fetch or a nil logger fall back to an
// empty table and the default logger.
func New(fetch FetchFunc, logger *log.Logger) *Table {
	if logger == nil {
		logger = log.Default()
	}
	return &Table{fetch: fetch, logger: logger}
}

// Static creates a pre-loaded Table from fixed entries. Keys and values are
// normalized. Mainly for tests and offline runs.
func Static(entries map[string]string) *Table {
	t := &Table{}
	t.once.Do(func() {})
	t.entries = make(map[string]string, len(entries))
	for k, v := range entries {
		t.entries[Normalize(k)] = Normalize(v)
	}
	return t
}

// Load fetches the mapping document. The first call wins; subsequent calls
// are no-ops. On any fetch failure the table stays empty and a degraded-mode
// warning is logged; Load never fails the run.
func (t *Table) Load(ctx context.Context) {
	t.once.Do(func() {
		if t.fetch == nil {
			t.entries = map[string]string{}
			return
		}
		entries, err := t.fetch(ctx)
		if err != nil {
			t.logger.Warn("could not load name mapping, using normalization only", "err", err)
			t.entries = map[string]string{}
			return
		}
		t.entries = entries
		t.logger.Debug("loaded name mapping", "entries", len(entries))
	})
}

// Resolve maps a PyPI name to its conda name. Absent entries fall back to
// the normalized input unchanged. Calling Resolve before Load behaves as if
// the table were empty.
func (t *Table) Resolve(name string) string {
	normalized := Normalize(name)
	if mapped, ok := t.entries[normalized]; ok && mapped != "" {
		return mapped
	}
	return normalized
}

// MapSpecifier rewrites the leading package-name token of a dependency
// specifier through the table, preserving the remainder (version
// constraints, spacing) unchanged.
func (t *Table) MapSpecifier(spec string) string {
	m := specNameRE.FindStringSubmatch(spec)
	if m == nil {
		return spec
	}
	name := m[1]
	return t.Resolve(name) + spec[len(name):]
}
