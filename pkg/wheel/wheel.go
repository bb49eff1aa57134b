// Package wheel parses built-wheel filenames and implements the version
// ordering used to pick a package's best release.
//
// Wheel filenames follow the 5-component hyphen-delimited grammar
// name-version[-build]-pythonTag-abiTag-platformTag.whl. A wheel is "pure"
// when it is interpreter- and platform-independent, marked by the tags
// none/any.
package wheel

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// filenameRE matches wheel filenames embedded in simple-index HTML.
var filenameRE = regexp.MustCompile(`[a-zA-Z0-9_.-]+-\d+[\w.]*-[a-zA-Z0-9_.-]+-[a-zA-Z0-9_.-]+-[a-zA-Z0-9_.-]+\.whl`)

// Filename holds the parsed components of a wheel filename.
type Filename struct {
	Name        string
	Version     string
	PythonTag   string
	ABITag      string
	PlatformTag string
}

// Pure reports whether the wheel is interpreter- and platform-independent.
func (f Filename) Pure() bool {
	return f.ABITag == "none" && f.PlatformTag == "any"
}

// Parse splits a wheel filename into its components. The tags are taken from
// the right; the fourth-from-last component is the version. Returns ok=false
// for names with fewer than five components or without the .whl suffix.
func Parse(fn string) (Filename, bool) {
	stem, found := strings.CutSuffix(fn, ".whl")
	if !found {
		return Filename{}, false
	}
	parts := strings.Split(stem, "-")
	n := len(parts)
	if n < 5 {
		return Filename{}, false
	}
	return Filename{
		Name:        strings.Join(parts[:n-4], "-"),
		Version:     parts[n-4],
		PythonTag:   parts[n-3],
		ABITag:      parts[n-2],
		PlatformTag: parts[n-1],
	}, true
}

// ScanFilenames extracts the unique wheel filenames embedded in an HTML page,
// in order of first appearance.
func ScanFilenames(html string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, fn := range filenameRE.FindAllString(html, -1) {
		if !seen[fn] {
			seen[fn] = true
			out = append(out, fn)
		}
	}
	return out
}

// Availability summarizes the wheels published for one version.
type Availability struct {
	Pure bool // at least one pure wheel
	Any  bool // at least one wheel of any kind
}

// GroupByVersion buckets wheel filenames by their version component.
func GroupByVersion(filenames []string) map[string]Availability {
	byVersion := make(map[string]Availability)
	for _, fn := range filenames {
		parsed, ok := Parse(fn)
		if !ok {
			continue
		}
		a := byVersion[parsed.Version]
		a.Any = true
		a.Pure = a.Pure || parsed.Pure()
		byVersion[parsed.Version] = a
	}
	return byVersion
}

// Select picks the best version among the given wheel filenames and reports
// whether it satisfies the wheel policy (pure-only or any wheel).
// Returns ok=false when no version qualifies.
func Select(filenames []string, pureOnly bool) (version string, ok bool) {
	byVersion := GroupByVersion(filenames)
	if len(byVersion) == 0 {
		return "", false
	}

	versions := make([]string, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	best := BestVersion(versions)

	a := byVersion[best]
	if pureOnly {
		return best, a.Pure
	}
	return best, a.Any
}

var numericPrefixRE = regexp.MustCompile(`^(\d+(?:\.\d+)*)`)

// versionKey parses the leading dot-separated integer run of a version
// string. Content after the first non-numeric break is ignored; this is an
// approximation, not full version-specifier precedence.
func versionKey(v string) []int {
	m := numericPrefixRE.FindStringSubmatch(v)
	if m == nil {
		return []int{0}
	}
	parts := strings.Split(m[1], ".")
	key := make([]int, len(parts))
	for i, p := range parts {
		key[i], _ = strconv.Atoi(p)
	}
	return key
}

// Compare orders two version strings by their numeric-prefix tuples
// ("1.10" > "1.9"). Equal tuples fall back to the raw string so ordering
// stays deterministic.
func Compare(a, b string) int {
	ka, kb := versionKey(a), versionKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
	}
	if len(ka) != len(kb) {
		if len(ka) < len(kb) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// BestVersion returns the greatest version under [Compare].
// Returns "" for an empty input.
func BestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool { return Compare(sorted[i], sorted[j]) < 0 })
	return sorted[len(sorted)-1]
}
