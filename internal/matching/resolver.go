package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"matchreel/internal/logging"
	"matchreel/internal/opendota"
	"matchreel/internal/services"
)

// History is the slice of the OpenDota client the resolver needs.
type History interface {
	RecentMatches(ctx context.Context, playerID int64) ([]opendota.MatchSummary, error)
	PlayerMatches(ctx context.Context, playerID int64, days, limit int) ([]opendota.MatchSummary, error)
}

// Pass identifies which query produced a resolution.
type Pass int

const (
	PassRecent Pass = iota + 1
	PassHistory
)

func (p Pass) String() string {
	switch p {
	case PassRecent:
		return "recent"
	case PassHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Resolution describes the selected match.
type Resolution struct {
	MatchID      int64
	MatchStart   time.Time
	Pass         Pass
	Distance     time.Duration
	LookbackDays int
}

// NoMatchFoundError reports that neither pass produced a qualifying match.
type NoMatchFoundError struct {
	Instant           time.Time
	Before            time.Duration
	After             time.Duration
	LookbackDays      int
	RecentCandidates  int
	HistoryCandidates int
}

func (e *NoMatchFoundError) Error() string {
	return fmt.Sprintf(
		"no match found near recording time %s (window start-%ds/end+%ds; tried recentMatches (%d rows) and players/matches?date=%d (%d rows))",
		e.Instant.UTC().Format(time.RFC3339),
		int64(e.Before/time.Second), int64(e.After/time.Second),
		e.RecentCandidates, e.LookbackDays, e.HistoryCandidates,
	)
}

func (e *NoMatchFoundError) Unwrap() error { return services.ErrNoMatch }

// Resolver runs the two-pass match search.
type Resolver struct {
	history      History
	now          func() time.Time
	historyLimit int
	logger       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the wall clock used for the lookback computation.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithHistoryLimit caps the rows requested in the escalated pass.
func WithHistoryLimit(limit int) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a Resolver over history.
func NewResolver(history History, opts ...Option) *Resolver {
	r := &Resolver{
		history:      history,
		now:          time.Now,
		historyLimit: opendota.MaxHistoryLimit,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the match whose widened span contains instant. Provider
// failures are returned as-is; exhausting both passes yields
// *NoMatchFoundError.
func (r *Resolver) Resolve(ctx context.Context, playerID int64, instant time.Time, window Window) (Resolution, error) {
	logger := logging.WithContext(ctx, r.logger)

	recent, err := r.history.RecentMatches(ctx, playerID)
	if err != nil {
		return Resolution{}, err
	}
	if match, distance, ok := Select(recent, instant, window); ok {
		logger.Debug("match selected from recent matches",
			logging.Int64(logging.FieldMatchID, match.MatchID),
			logging.Duration("distance", distance),
			logging.Int("candidates", len(recent)),
		)
		return Resolution{MatchID: match.MatchID, MatchStart: match.Start(), Pass: PassRecent, Distance: distance}, nil
	}

	days := LookbackDays(r.now(), instant)
	logger.Info("no recent match qualified; widening search",
		logging.Int("recent_candidates", len(recent)),
		logging.Int("lookback_days", days),
		logging.String(logging.FieldEventType, "match_search_escalated"),
	)
	older, err := r.history.PlayerMatches(ctx, playerID, days, r.historyLimit)
	if err != nil {
		return Resolution{}, err
	}
	if match, distance, ok := Select(older, instant, window); ok {
		return Resolution{
			MatchID:      match.MatchID,
			MatchStart:   match.Start(),
			Pass:         PassHistory,
			Distance:     distance,
			LookbackDays: days,
		}, nil
	}

	return Resolution{}, &NoMatchFoundError{
		Instant:           instant,
		Before:            window.Before,
		After:             window.After,
		LookbackDays:      days,
		RecentCandidates:  len(recent),
		HistoryCandidates: len(older),
	}
}
