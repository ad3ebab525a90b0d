package recording_test

import (
	"errors"
	"testing"
	"time"

	"matchreel/internal/recording"
	"matchreel/internal/services"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestParseStartTimeRecoversLiteralFields(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	tests := []struct {
		name string
		want time.Time
	}{
		{"2024-05-01_20-15-30.mkv", time.Date(2024, 5, 2, 0, 15, 30, 0, time.UTC)},
		{"2024-05-01 20-15-30.mp4", time.Date(2024, 5, 2, 0, 15, 30, 0, time.UTC)},
		{"Replay 2024_01_15-08_00_05 ranked.mkv", time.Date(2024, 1, 15, 13, 0, 5, 0, time.UTC)},
		{"2023-12-31_23-59-59.mkv", time.Date(2024, 1, 1, 4, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := recording.ParseStartTime(tt.name, ny)
			if err != nil {
				t.Fatalf("ParseStartTime returned error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s want %s", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", got.Location())
			}
		})
	}
}

func TestParseStartTimeDSTPolicy(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// 02:30 does not exist on 2024-03-10; read with the pre-transition EST offset.
	gap, err := recording.ParseStartTime("2024-03-10_02-30-00.mkv", ny)
	if err != nil {
		t.Fatalf("gap: %v", err)
	}
	if want := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC); !gap.Equal(want) {
		t.Fatalf("gap: got %s want %s", gap, want)
	}

	// 01:30 occurs twice on 2024-11-03; the first (EDT) occurrence wins.
	ambiguous, err := recording.ParseStartTime("2024-11-03_01-30-00.mkv", ny)
	if err != nil {
		t.Fatalf("ambiguous: %v", err)
	}
	if want := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC); !ambiguous.Equal(want) {
		t.Fatalf("ambiguous: got %s want %s", ambiguous, want)
	}

	// Either side of the gap keeps its own offset.
	before, _ := recording.ParseStartTime("2024-03-10_01-59-59.mkv", ny)
	after, _ := recording.ParseStartTime("2024-03-10_03-00-00.mkv", ny)
	if want := time.Date(2024, 3, 10, 6, 59, 59, 0, time.UTC); !before.Equal(want) {
		t.Fatalf("before gap: got %s want %s", before, want)
	}
	if want := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC); !after.Equal(want) {
		t.Fatalf("after gap: got %s want %s", after, want)
	}
}

func TestParseStartTimeRejectsBadNames(t *testing.T) {
	for _, name := range []string{
		"gameplay.mkv",
		"2024-05-01.mkv",
		"2024-13-01_10-00-00.mkv",
		"2024-02-30_10-00-00.mkv",
		"2024-05-01_25-00-00.mkv",
		"2024-05-01_10-00-60.mkv",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := recording.ParseStartTime(name, time.UTC)
			if err == nil {
				t.Fatal("expected parse error")
			}
			var parseErr *recording.NameParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected NameParseError, got %T", err)
			}
			if !errors.Is(err, services.ErrNameParse) {
				t.Fatalf("expected ErrNameParse marker, got %v", err)
			}
		})
	}
}

func TestStartTimeFromPath(t *testing.T) {
	mustLoad(t, "Europe/Berlin")
	got, err := recording.StartTimeFromPath("/videos/obs/2024-07-04 12-00-00.mkv", "Europe/Berlin")
	if err != nil {
		t.Fatalf("StartTimeFromPath returned error: %v", err)
	}
	if want := time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}

	_, err = recording.StartTimeFromPath("/videos/2024-07-04 12-00-00.mkv", "Nowhere/Special")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for bad zone, got %v", err)
	}
}
