package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "  "
	if got := String(); got != "dev" {
		t.Errorf("String() = %q, want %q", got, "dev")
	}
	Version = "1.2.3"
	if got := String(); got != "1.2.3" {
		t.Errorf("String() = %q, want %q", got, "1.2.3")
	}
}

func TestColoredWithoutColor(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = true

	tests := []string{"0.1.0-dev", "1.2.3", "1.0.0-beta.1", "1.2.3-rc.1+build.123", "nightly"}
	for _, v := range tests {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() with %q = %q", v, got)
		}
	}
}

func TestColoredKeepsSuffixPlain(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = false

	Version = "1.2.3-dev"
	got := Colored()
	if got == Version {
		t.Fatalf("expected color codes in %q", got)
	}
	if got[len(got)-4:] != "-dev" {
		t.Errorf("suffix must stay plain, got %q", got)
	}
}
