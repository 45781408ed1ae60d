package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[loop]
fps = 30
max_delta = "100ms"

[run]
scenario = "race"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("want %s, got %s", filepath.Join(root, FileName), path)
	}
	if cfg.Loop.FPS != 30 || cfg.Loop.MaxDelta != 100*time.Millisecond || cfg.Run.Scenario != "race" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Loop.Mode != "virtual" || cfg.Run.Tasks != Default().Run.Tasks {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, path, err := Discover(t.TempDir())
	if err != nil || path != "" {
		t.Fatalf("path=%q err=%v", path, err)
	}
	if cfg != Default() {
		t.Fatalf("want defaults, got %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "syntax", body: "[loop\n", want: "failed to parse TOML"},
		{name: "unknown key", body: "[loop]\nspeed = 2\n", want: "unknown keys: loop.speed"},
		{name: "mode", body: "[loop]\nmode = \"turbo\"\n", want: "[loop].mode"},
		{name: "fps", body: "[loop]\nfps = 0\n", want: "[loop].fps"},
		{name: "frames", body: "[loop]\nframes = -1\n", want: "[loop].frames"},
		{name: "scenario", body: "[run]\nscenario = \" \"\n", want: "[run].scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error containing %q, got %v", tt.want, err)
			}
		})
	}
}
