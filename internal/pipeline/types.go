package pipeline

import (
	"context"
	"time"

	"matchreel/internal/catalog"
	"matchreel/internal/history"
	"matchreel/internal/matching"
	"matchreel/internal/opendota"
	"matchreel/internal/youtube"
)

// State is a pipeline run's position in the stage sequence.
type State string

const (
	StateStabilizing State = "stabilizing"
	StateResolving   State = "resolving"
	StateEnriching   State = "enriching"
	StateUploading   State = "uploading"
	StateNotifying   State = "notifying"
	StateDone        State = "done"
	StateFailed      State = "failed"
	// StateAborted marks a run cancelled before its file stabilized. Aborted
	// runs send no notification and leave no history.
	StateAborted State = "aborted"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateAborted
}

// Run records one pass of a recording through the pipeline.
type Run struct {
	ID              string
	Path            string
	StartedAt       time.Time
	FinishedAt      time.Time
	RecordingStart  *time.Time
	MatchID         *int64
	MatchPass       string
	VideoID         *string
	DescriptionPath *string
	DryRun          bool
	State           State
	FailedStage     string
	Err             error
}

// Succeeded reports whether the run reached done.
func (r *Run) Succeeded() bool {
	return r != nil && r.State == StateDone
}

func (r *Run) setMatchID(id int64) {
	if r.MatchID != nil {
		return
	}
	r.MatchID = &id
}

// Resolver maps a recording instant to a match.
type Resolver interface {
	Resolve(ctx context.Context, playerID int64, instant time.Time, window matching.Window) (matching.Resolution, error)
}

// MatchFetcher loads a full match record.
type MatchFetcher interface {
	Match(ctx context.Context, matchID int64) (*opendota.Match, error)
}

// CatalogLoader returns the memoized reference catalogs.
type CatalogLoader interface {
	Load(ctx context.Context) (catalog.Catalogs, error)
}

// Uploader hands a finished recording to the video host.
type Uploader interface {
	Upload(ctx context.Context, v youtube.Video) (string, error)
}

// Recorder appends finished runs to the history log.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}
