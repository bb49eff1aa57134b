// Package listfile reads and writes the plain-text package lists the CLI
// exchanges between its discovery and generation stages. One entry per line,
// either a bare name or name==version; blank lines and #-comments are
// skipped.
package listfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/resolve"
)

// ReadRequests parses a list file into resolution requests.
func ReadRequests(path string) ([]resolve.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening list %s: %w", path, err)
	}
	defer f.Close()
	return ParseRequests(f)
}

// ParseRequests reads requests from r. Lines with more than one == are
// rejected; a trailing == with no version is an error too.
func ParseRequests(r io.Reader) ([]resolve.Request, error) {
	var out []resolve.Request
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, version, pinned := strings.Cut(text, "==")
		name = strings.TrimSpace(name)
		version = strings.TrimSpace(version)
		if name == "" || (pinned && version == "") || strings.Contains(version, "==") {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "line %d: malformed entry %q", line, text)
		}
		out = append(out, resolve.Request{Name: name, Version: version})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading list: %w", err)
	}
	return out, nil
}

// ReadNames reads a list file and returns just the package names.
func ReadNames(path string) ([]string, error) {
	reqs, err := ReadRequests(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}
	return names, nil
}

// WriteNames writes one name per line, sorted, to path.
func WriteNames(path string, names []string) error {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return writeFile(path, b.String())
}

// WriteRequests writes requests in requirements format, sorted, with a
// header comment documenting the format.
func WriteRequests(path string, reqs []resolve.Request) error {
	lines := make([]string, len(reqs))
	for i, req := range reqs {
		lines[i] = req.String()
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString("# Format: package-name==version\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return writeFile(path, b.String())
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing list %s: %w", path, err)
	}
	return nil
}
