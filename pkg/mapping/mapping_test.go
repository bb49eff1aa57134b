package mapping

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"requests", "requests"},
		{"Foo_Bar", "foo-bar"},
		{"foo-bar", "foo-bar"},
		{"  PyYAML ", "pyyaml"},
		{"typing_extensions", "typing-extensions"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"Foo_Bar", "requests", "A_b_C-d"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestResolveUsesTable(t *testing.T) {
	table := Static(map[string]string{"docker": "docker-py"})

	if got := table.Resolve("docker"); got != "docker-py" {
		t.Errorf("Resolve(docker) = %q, want docker-py", got)
	}
	if got := table.Resolve("Docker"); got != "docker-py" {
		t.Errorf("Resolve is not case-insensitive: %q", got)
	}
	// Absent entries fall back to the normalized input.
	if got := table.Resolve("Charset_Normalizer"); got != "charset-normalizer" {
		t.Errorf("Resolve fallback = %q, want charset-normalizer", got)
	}
}

func TestLoadIsMemoized(t *testing.T) {
	calls := 0
	table := New(func(ctx context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"foo": "conda-foo"}, nil
	}, log.New(io.Discard))

	ctx := context.Background()
	table.Load(ctx)
	table.Load(ctx)
	table.Load(ctx)

	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
	if got := table.Resolve("foo"); got != "conda-foo" {
		t.Errorf("Resolve after load = %q", got)
	}
}

func TestLoadDegradesOnFailure(t *testing.T) {
	table := New(func(ctx context.Context) (map[string]string, error) {
		return nil, errors.New("mapping source unreachable")
	}, log.New(io.Discard))

	table.Load(context.Background())

	// Degraded table is identity mapping, never an error.
	if got := table.Resolve("Foo_Bar"); got != "foo-bar" {
		t.Errorf("degraded Resolve = %q, want foo-bar", got)
	}
}

func TestResolveBeforeLoad(t *testing.T) {
	table := New(nil, log.New(io.Discard))
	if got := table.Resolve("Foo_Bar"); got != "foo-bar" {
		t.Errorf("Resolve before Load = %q, want foo-bar", got)
	}
}

func TestMapSpecifier(t *testing.T) {
	table := Static(map[string]string{"docker": "docker-py"})

	tests := []struct {
		in   string
		want string
	}{
		{"docker>=5.0", "docker-py>=5.0"},
		{"docker <7,>=5.0", "docker-py <7,>=5.0"},
		{"charset_normalizer<4,>=2", "charset-normalizer<4,>=2"},
		{"idna<4,>=2.5", "idna<4,>=2.5"},
		{">=weird", ">=weird"}, // no leading name token: untouched
	}
	for _, tt := range tests {
		if got := table.MapSpecifier(tt.in); got != tt.want {
			t.Errorf("MapSpecifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
