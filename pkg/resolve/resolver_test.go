package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wheelforge/wheelforge/pkg/cache"
	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/mapping"
	"github.com/wheelforge/wheelforge/pkg/registry/pypi"
)

const requestsJSON = `{
  "info": {
    "name": "requests",
    "version": "2.32.5",
    "requires_dist": [
      "charset-normalizer<4,>=2",
      "idna<4,>=2.5",
      "pytest>=7 ; extra == 'test'"
    ],
    "requires_python": ">=3.8"
  },
  "urls": [
    {
      "packagetype": "bdist_wheel",
      "filename": "requests-2.32.5-py3-none-any.whl",
      "url": "https://files.pythonhosted.org/packages/xx/requests-2.32.5-py3-none-any.whl",
      "size": 64928,
      "digests": {"sha256": "abc123"}
    }
  ]
}`

func newTestResolver(t *testing.T, handler http.Handler, table *mapping.Table) (*Resolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := pypi.NewClient(cache.NewNullCache(), time.Hour)
	client.SetBaseURL(srv.URL)

	if table == nil {
		table = mapping.Static(nil)
	}
	return &Resolver{Client: client, Table: table, PureOnly: true}, srv
}

func TestResolvePinnedVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/requests/2.32.5/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, requestsJSON)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	pkg, err := resolver.Resolve(context.Background(), Request{Name: "requests", Version: "2.32.5"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if pkg.Name != "requests" || pkg.Version != "2.32.5" {
		t.Errorf("resolved %s==%s", pkg.Name, pkg.Version)
	}
	// Two runtime deps plus the python constraint; the extra is dropped.
	want := []string{"charset-normalizer<4,>=2", "idna<4,>=2.5", "python >=3.8"}
	if len(pkg.Depends) != len(want) {
		t.Fatalf("depends = %v, want %v", pkg.Depends, want)
	}
	for i, d := range want {
		if pkg.Depends[i] != d {
			t.Errorf("depends[%d] = %q, want %q", i, pkg.Depends[i], d)
		}
	}
	if pkg.Wheel.Filename != "requests-2.32.5-py3-none-any.whl" {
		t.Errorf("wheel filename = %q", pkg.Wheel.Filename)
	}
	if pkg.Wheel.SHA256 != "abc123" || pkg.Wheel.Size != 64928 {
		t.Errorf("wheel digest/size = %q/%d", pkg.Wheel.SHA256, pkg.Wheel.Size)
	}
	if !pkg.Wheel.Pure {
		t.Error("wheel not marked pure")
	}
}

func TestResolveMapsDependencyNames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/foo/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "info": {"name": "foo", "version": "1.0", "requires_dist": ["docker>=5.0"], "requires_python": ""},
  "urls": [{"packagetype": "bdist_wheel", "filename": "foo-1.0-py3-none-any.whl",
            "url": "https://example.invalid/foo-1.0-py3-none-any.whl", "size": 10,
            "digests": {"sha256": "d"}}]
}`)
	})
	table := mapping.Static(map[string]string{"docker": "docker-py", "foo": "conda-foo"})
	resolver, _ := newTestResolver(t, mux, table)

	pkg, err := resolver.Resolve(context.Background(), Request{Name: "foo", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pkg.Name != "conda-foo" {
		t.Errorf("mapped name = %q, want conda-foo", pkg.Name)
	}
	if pkg.SourceName != "foo" {
		t.Errorf("source name = %q, want foo", pkg.SourceName)
	}
	if len(pkg.Depends) != 1 || pkg.Depends[0] != "docker-py>=5.0" {
		t.Errorf("depends = %v, want [docker-py>=5.0]", pkg.Depends)
	}
}

func TestResolveDiscoversVersionFromSimpleListing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/foo/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/p/foo-1.0-py3-none-any.whl">foo-1.0-py3-none-any.whl</a>
<a href="/p/foo-1.9-py3-none-any.whl">foo-1.9-py3-none-any.whl</a>
<a href="/p/foo-1.10-py3-none-any.whl">foo-1.10-py3-none-any.whl</a>`)
	})
	mux.HandleFunc("/pypi/foo/1.10/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "info": {"name": "foo", "version": "1.10", "requires_dist": [], "requires_python": ">=3.9"},
  "urls": [{"packagetype": "bdist_wheel", "filename": "foo-1.10-py3-none-any.whl",
            "url": "https://example.invalid/foo-1.10-py3-none-any.whl", "size": 5,
            "digests": {"sha256": "e"}}]
}`)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	pkg, err := resolver.Resolve(context.Background(), Request{Name: "foo"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Numeric-tuple ordering picks 1.10, not the lexically-greatest 1.9.
	if pkg.Version != "1.10" {
		t.Errorf("version = %q, want 1.10", pkg.Version)
	}
	if len(pkg.Depends) != 1 || pkg.Depends[0] != "python >=3.9" {
		t.Errorf("depends = %v, want [python >=3.9]", pkg.Depends)
	}
}

func TestResolveFallsBackToLatestWhenListingUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	// No /simple/ route: listing 404s, resolver falls back to the JSON API.
	mux.HandleFunc("/pypi/foo/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "info": {"name": "foo", "version": "2.1", "requires_dist": [], "requires_python": ""},
  "urls": [{"packagetype": "bdist_wheel", "filename": "foo-2.1-py3-none-any.whl",
            "url": "https://example.invalid/foo-2.1-py3-none-any.whl", "size": 5,
            "digests": {"sha256": "f"}}]
}`)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	pkg, err := resolver.Resolve(context.Background(), Request{Name: "foo"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pkg.Version != "2.1" {
		t.Errorf("version = %q, want 2.1", pkg.Version)
	}
}

func TestResolvePackageNotFound(t *testing.T) {
	resolver, _ := newTestResolver(t, http.NotFoundHandler(), nil)

	_, err := resolver.Resolve(context.Background(), Request{Name: "no-such-package", Version: "1.0"})
	if !apperrors.Is(err, apperrors.ErrCodePackageNotFound) {
		t.Fatalf("error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestResolveNoWheel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/src-only/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "info": {"name": "src-only", "version": "1.0", "requires_dist": [], "requires_python": ""},
  "urls": [{"packagetype": "sdist", "filename": "src-only-1.0.tar.gz",
            "url": "https://example.invalid/src-only-1.0.tar.gz", "size": 9, "digests": {"sha256": "g"}}]
}`)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	_, err := resolver.Resolve(context.Background(), Request{Name: "src-only", Version: "1.0"})
	if !apperrors.Is(err, apperrors.ErrCodeNoWheel) {
		t.Fatalf("error = %v, want NO_WHEEL", err)
	}
}

func TestResolvePureOnlyRejectsPlatformWheel(t *testing.T) {
	payload := `{
  "info": {"name": "native", "version": "1.0", "requires_dist": [], "requires_python": ""},
  "urls": [{"packagetype": "bdist_wheel", "filename": "native-1.0-cp311-cp311-manylinux_x86_64.whl",
            "url": "https://example.invalid/native.whl", "size": 9, "digests": {"sha256": "h"}}]
}`
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/native/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	resolver, _ := newTestResolver(t, mux, nil)
	if _, err := resolver.Resolve(context.Background(), Request{Name: "native", Version: "1.0"}); !apperrors.Is(err, apperrors.ErrCodeNoWheel) {
		t.Fatalf("pure-only error = %v, want NO_WHEEL", err)
	}

	resolver.PureOnly = false
	pkg, err := resolver.Resolve(context.Background(), Request{Name: "native", Version: "1.0"})
	if err != nil {
		t.Fatalf("any-wheel Resolve: %v", err)
	}
	if pkg.Wheel.Pure {
		t.Error("platform wheel marked pure")
	}
}

func TestResolveMalformedMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/broken/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"info": {`)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	_, err := resolver.Resolve(context.Background(), Request{Name: "broken", Version: "1.0"})
	if !apperrors.Is(err, apperrors.ErrCodeMalformed) {
		t.Fatalf("error = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestResolveRetriesTransientErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for several seconds")
	}

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/flaky/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{
  "info": {"name": "flaky", "version": "1.0", "requires_dist": [], "requires_python": ""},
  "urls": [{"packagetype": "bdist_wheel", "filename": "flaky-1.0-py3-none-any.whl",
            "url": "https://example.invalid/flaky.whl", "size": 3, "digests": {"sha256": "i"}}]
}`)
	})
	resolver, _ := newTestResolver(t, mux, nil)

	start := time.Now()
	pkg, err := resolver.Resolve(context.Background(), Request{Name: "flaky", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve after transient failures: %v", err)
	}
	if pkg.Version != "1.0" {
		t.Errorf("version = %q", pkg.Version)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if elapsed := time.Since(start); elapsed < 3*time.Second {
		t.Errorf("elapsed = %v, want >= 3s (1s + 2s backoff)", elapsed)
	}
}
