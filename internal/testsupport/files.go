package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// obsNameLayout is the default OBS "%CCYY-%MM-%DD %hh-%mm-%ss" file name.
const obsNameLayout = "2006-01-02 15-04-05"

// RecordingName returns the OBS-style file name for a capture started at
// start, rendered in start's location.
func RecordingName(start time.Time, ext string) string {
	return start.Format(obsNameLayout) + ext
}

// WriteFile creates path (and its parent) holding size bytes of filler. A
// size <= 0 writes a single byte so the file counts as non-empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
