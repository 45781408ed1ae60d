// Package config loads steprt.toml, the optional project file that sets
// defaults for the host loop, tracing and the scenario to run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// FileName is the name searched for by Find.
const FileName = "steprt.toml"

// Config mirrors steprt.toml.
type Config struct {
	Loop  LoopConfig  `toml:"loop"`
	Trace TraceConfig `toml:"trace"`
	Run   RunConfig   `toml:"run"`
}

// LoopConfig is the [loop] table.
type LoopConfig struct {
	// Mode is "virtual" (fixed dt, no sleeping) or "real" (wall clock).
	Mode     string        `toml:"mode"`
	FPS      int64         `toml:"fps"`
	Frames   int64         `toml:"frames"`
	MaxDelta time.Duration `toml:"max_delta"`
	// PollBudget caps polls per step; 0 disables the cap.
	PollBudget int64 `toml:"poll_budget"`
}

// TraceConfig is the [trace] table.
type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int64  `toml:"ring_size"`
}

// RunConfig is the [run] table.
type RunConfig struct {
	Scenario string `toml:"scenario"`
	Tasks    int64  `toml:"tasks"`
	Workers  int64  `toml:"workers"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Loop: LoopConfig{
			Mode:     "virtual",
			FPS:      60,
			Frames:   600,
			MaxDelta: 250 * time.Millisecond,
		},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Output:   "stderr",
			RingSize: 1024,
		},
		Run: RunConfig{
			Scenario: "delay",
			Tasks:    8,
			Workers:  4,
		},
	}
}

// Find walks up from startDir looking for steprt.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("run", "scenario") && strings.TrimSpace(cfg.Run.Scenario) == "" {
		return Config{}, fmt.Errorf("%s: [run].scenario must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads steprt.toml starting at startDir. Without a file
// it returns Default and an empty path.
func Discover(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Loop.Mode {
	case "virtual", "real":
	default:
		return fmt.Errorf("[loop].mode must be \"virtual\" or \"real\", got %q", c.Loop.Mode)
	}
	if _, err := c.FPS(); err != nil {
		return err
	}
	if c.Loop.Frames < 0 {
		return fmt.Errorf("[loop].frames must not be negative")
	}
	if c.Loop.MaxDelta < 0 {
		return fmt.Errorf("[loop].max_delta must not be negative")
	}
	if c.Loop.PollBudget < 0 {
		return fmt.Errorf("[loop].poll_budget must not be negative")
	}
	if c.Run.Tasks < 0 || c.Run.Workers < 0 {
		return fmt.Errorf("[run].tasks and [run].workers must not be negative")
	}
	for _, v := range []int64{c.Loop.Frames, c.Loop.PollBudget, c.Run.Tasks, c.Run.Workers, c.Trace.RingSize} {
		if _, err := safecast.Conv[int](v); err != nil {
			return fmt.Errorf("value %d out of range: %w", v, err)
		}
	}
	return nil
}

// FPS returns [loop].fps as an int.
func (c Config) FPS() (int, error) {
	if c.Loop.FPS <= 0 || c.Loop.FPS > 1000 {
		return 0, fmt.Errorf("[loop].fps must be in 1..1000, got %d", c.Loop.FPS)
	}
	return safecast.Conv[int](c.Loop.FPS)
}

// Int narrows a validated int64 field.
func Int(v int64) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0
	}
	return n
}
