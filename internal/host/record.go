package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version; bump when the Recording layout changes.
const recordingSchemaVersion uint16 = 1

// ErrRecordingSchema reports a recording written by an incompatible version.
var ErrRecordingSchema = errors.New("host: unsupported recording schema")

// Recording captures the per-frame deltas a loop fed into the runtime, so a
// run can be replayed with identical timing.
type Recording struct {
	Schema   uint16
	Scenario string
	FPS      int
	// Per-frame deltas in microseconds.
	DeltasUS []uint32
}

// NewRecording returns an empty recording for scenario.
func NewRecording(scenario string, fps int) *Recording {
	return &Recording{Schema: recordingSchemaVersion, Scenario: scenario, FPS: fps}
}

// Append stores one frame delta. Deltas longer than about 71 minutes do not
// fit the encoding and are rejected.
func (r *Recording) Append(dt time.Duration) error {
	us, err := safecast.Conv[uint32](dt.Microseconds())
	if err != nil {
		return fmt.Errorf("host: frame delta %s: %w", dt, err)
	}
	r.DeltasUS = append(r.DeltasUS, us)
	return nil
}

// Len returns the number of recorded frames.
func (r *Recording) Len() int {
	return len(r.DeltasUS)
}

// Deltas returns the recorded frame deltas.
func (r *Recording) Deltas() []time.Duration {
	out := make([]time.Duration, len(r.DeltasUS))
	for i, us := range r.DeltasUS {
		out[i] = time.Duration(us) * time.Microsecond
	}
	return out
}

// Save writes the recording to path. The file is replaced atomically.
func (r *Recording) Save(path string) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".steprt-rec-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(r); err != nil {
		return fmt.Errorf("host: encode recording: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// LoadRecording reads a recording written by Save.
func LoadRecording(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rec Recording
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("host: decode recording %s: %w", path, err)
	}
	if rec.Schema != recordingSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrRecordingSchema, rec.Schema)
	}
	return &rec, nil
}
