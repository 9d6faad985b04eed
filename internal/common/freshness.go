// Package common provides shared utilities for pkgjobs.
package common

import "time"

// StatsLast90Window is the lookback window the statistics aggregator
// uses to bucket jobs into the "last90" snapshot (spec.md §4.11).
const StatsLast90Window = 90 * 24 * time.Hour

// Within reports whether the given timestamp is within window of now.
// A zero timestamp is never within any window.
func Within(ts time.Time, window time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return time.Since(ts) < window
}
