package fileutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrFileMissing reports a watched file that vanished for longer than the
// configured grace period.
var ErrFileMissing = errors.New("file missing")

// StabilityPolicy controls WaitForStable.
type StabilityPolicy struct {
	// StableFor is how long the size must stay unchanged (and non-zero).
	StableFor time.Duration
	// Interval is the polling period.
	Interval time.Duration
	// MissingGrace bounds how long the file may be absent before giving up.
	MissingGrace time.Duration
}

// WaitForStable polls path until its size is non-zero and unchanged for
// policy.StableFor, returning the final size. It returns ctx.Err() on
// cancellation and ErrFileMissing when the file stays absent past
// policy.MissingGrace.
func WaitForStable(ctx context.Context, path string, policy StabilityPolicy) (int64, error) {
	interval := policy.Interval
	if interval <= 0 {
		interval = time.Second
	}
	lastSize := int64(-1)
	var stableSince, missingSince time.Time

	for {
		now := time.Now()
		info, err := os.Stat(path)
		switch {
		case err == nil:
			missingSince = time.Time{}
			size := info.Size()
			if size > 0 && size == lastSize {
				if now.Sub(stableSince) >= policy.StableFor {
					return size, nil
				}
			} else {
				lastSize = size
				stableSince = now
			}
		case errors.Is(err, fs.ErrNotExist):
			if missingSince.IsZero() {
				missingSince = now
			}
			if now.Sub(missingSince) > policy.MissingGrace {
				return 0, fmt.Errorf("%w: %s absent for %s", ErrFileMissing, path, now.Sub(missingSince).Round(time.Second))
			}
			lastSize = -1
		default:
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
}

// WriteFileAtomic writes data to a temporary sibling and renames it over path,
// so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
