package listfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/resolve"
)

func TestParseRequests(t *testing.T) {
	input := `# Format: package-name==version
requests==2.32.5

idna
  click==8.1.7
# trailing comment
`
	reqs, err := ParseRequests(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseRequests: %v", err)
	}
	want := []resolve.Request{
		{Name: "requests", Version: "2.32.5"},
		{Name: "idna"},
		{Name: "click", Version: "8.1.7"},
	}
	if len(reqs) != len(want) {
		t.Fatalf("requests = %v, want %v", reqs, want)
	}
	for i, w := range want {
		if reqs[i] != w {
			t.Errorf("requests[%d] = %v, want %v", i, reqs[i], w)
		}
	}
}

func TestParseRequestsRejectsMalformedLines(t *testing.T) {
	for _, input := range []string{"requests==", "==1.0", "a==b==c"} {
		_, err := ParseRequests(strings.NewReader(input))
		if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("input %q: error = %v, want INVALID_INPUT", input, err)
		}
	}
}

func TestWriteRequestsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.txt")
	reqs := []resolve.Request{
		{Name: "zope-interface", Version: "6.0"},
		{Name: "attrs", Version: "23.1.0"},
		{Name: "idna"},
	}
	if err := WriteRequests(path, reqs); err != nil {
		t.Fatalf("WriteRequests: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Format: package-name==version\n") {
		t.Errorf("missing header: %q", data)
	}

	back, err := ReadRequests(path)
	if err != nil {
		t.Fatalf("ReadRequests: %v", err)
	}
	if len(back) != 3 {
		t.Fatalf("round trip = %v", back)
	}
	// Sorted output: attrs, idna, zope-interface.
	if back[0].Name != "attrs" || back[1].Name != "idna" || back[2].Name != "zope-interface" {
		t.Errorf("order = %v", back)
	}
}

func TestWriteNamesSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	if err := WriteNames(path, []string{"zlib", "attrs", "idna"}); err != nil {
		t.Fatalf("WriteNames: %v", err)
	}
	names, err := ReadNames(path)
	if err != nil {
		t.Fatalf("ReadNames: %v", err)
	}
	if len(names) != 3 || names[0] != "attrs" || names[2] != "zlib" {
		t.Errorf("names = %v", names)
	}
}
