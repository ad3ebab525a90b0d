// Package matching correlates a recording instant with the player's OpenDota
// match history.
//
// Resolution runs in two passes. The first asks for the provider's recent
// matches; only if none qualify does the second query the dated history with
// a lookback derived from how long ago the recording started. A match
// qualifies when its [start, end] span, widened by the configured window,
// contains the instant. Qualifying matches rank by the distance from the
// instant to the nearer of start and end, ties going to the smaller match id.
package matching
