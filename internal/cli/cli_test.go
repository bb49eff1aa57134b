package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := testCLI().RootCommand()

	want := []string{"discover", "generate", "store", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestCacheDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", "wheelforge") {
		t.Errorf("cacheDir = %q", dir)
	}
}

func TestCacheDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".cache", "wheelforge")) {
		t.Errorf("cacheDir = %q", dir)
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestGenerateRejectsMissingListFile(t *testing.T) {
	chdirTemp(t)
	root := testCLI().RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "no-such-list.txt"})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("generate with a missing list file succeeded")
	}
}

func TestServeRejectsMissingChannelDir(t *testing.T) {
	chdirTemp(t)
	root := testCLI().RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"serve", "no-such-channel"})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("serve with a missing channel dir succeeded")
	}
}

func TestCachePathPrintsConfiguredDir(t *testing.T) {
	chdirTemp(t)
	cfgPath := "wheelforge.toml"
	if err := os.WriteFile(cfgPath, []byte("cache_dir = \"/tmp/custom-cache\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := testCLI()
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if c.Config.CacheDir != "/tmp/custom-cache" {
		t.Errorf("config cache_dir = %q", c.Config.CacheDir)
	}
}
