package scheduler

import "math"

// computePriority implements spec.md §3's priority function:
// priority ← round(basePriority − α·popularity). Lower is more urgent, so
// a more popular package (closer to 1) yields a lower number.
func (s *Scheduler) computePriority(packageName string) int {
	popularity := 0.0
	if s.popularity != nil {
		popularity = s.popularity.Popularity(packageName)
	}
	return int(math.Round(float64(s.cfg.PriorityBase) - s.cfg.PriorityAlpha*popularity))
}

// fixPriority applies an optional caller-supplied override: the stored
// value becomes min(computed, fixed) — lower wins (spec.md §3).
func fixPriority(computed int, fixed *int) int {
	if fixed != nil && *fixed < computed {
		return *fixed
	}
	return computed
}
