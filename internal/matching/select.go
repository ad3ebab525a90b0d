package matching

import (
	"math"
	"sort"
	"time"

	"matchreel/internal/opendota"
)

const (
	lookbackPadDays = 2
	minLookbackDays = 1
	maxLookbackDays = 3650
)

// Window widens each candidate's span before the containment test.
type Window struct {
	Before time.Duration
	After  time.Duration
}

// Qualifies reports whether instant falls inside m's span widened by w.
// Both bounds are inclusive.
func (w Window) Qualifies(m opendota.MatchSummary, instant time.Time) bool {
	lower := m.Start().Add(-w.Before)
	upper := m.End().Add(w.After)
	return !instant.Before(lower) && !instant.After(upper)
}

// Distance is the gap between instant and the nearer of m's start and end.
func Distance(m opendota.MatchSummary, instant time.Time) time.Duration {
	return min(absDuration(instant.Sub(m.Start())), absDuration(instant.Sub(m.End())))
}

// Select returns the qualifying candidate closest to instant.
func Select(candidates []opendota.MatchSummary, instant time.Time, window Window) (opendota.MatchSummary, time.Duration, bool) {
	type ranked struct {
		match    opendota.MatchSummary
		distance time.Duration
	}
	var qualifying []ranked
	for _, candidate := range candidates {
		if !window.Qualifies(candidate, instant) {
			continue
		}
		qualifying = append(qualifying, ranked{match: candidate, distance: Distance(candidate, instant)})
	}
	if len(qualifying) == 0 {
		return opendota.MatchSummary{}, 0, false
	}
	sort.Slice(qualifying, func(i, j int) bool {
		if qualifying[i].distance != qualifying[j].distance {
			return qualifying[i].distance < qualifying[j].distance
		}
		return qualifying[i].match.MatchID < qualifying[j].match.MatchID
	})
	return qualifying[0].match, qualifying[0].distance, true
}

// LookbackDays is the day count for the escalated history query: the whole
// days between instant and now rounded up, plus two, clamped to [1, 3650].
func LookbackDays(now, instant time.Time) int {
	elapsed := now.Sub(instant)
	days := int(math.Ceil(elapsed.Hours()/24)) + lookbackPadDays
	return max(minLookbackDays, min(days, maxLookbackDays))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
