package repodata

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: monospace; margin: 2em; }
    table { border-collapse: collapse; }
    td, th { padding: 0.2em 1.5em 0.2em 0; text-align: left; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <table>
    <tr><th>File</th><th>Size</th></tr>
{{- range .Files}}
    <tr><td><a href="{{.Name}}">{{.Name}}</a></td><td>{{.HumanSize}}</td></tr>
{{- end}}
  </table>
  <p>Updated {{.Updated}}</p>
</body>
</html>
`))

type indexFile struct {
	Name      string
	HumanSize string
}

type indexData struct {
	Title   string
	Files   []indexFile
	Updated string
}

// WriteIndexHTML renders a minimal directory listing for the artifacts in a
// subdir so the channel can be browsed over plain static hosting.
func WriteIndexHTML(dir, title string, artifacts []Artifact) error {
	data := indexData{
		Title:   title,
		Updated: time.Now().UTC().Format(time.RFC3339),
	}
	for _, a := range artifacts {
		data.Files = append(data.Files, indexFile{Name: a.Name, HumanSize: HumanSize(a.Size)})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// HumanSize renders a byte count with a binary-ish 1024 divisor and one
// decimal place, the way package index listings usually do.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(n)/float64(div), []string{"KB", "MB", "GB", "TB"}[exp])
}
