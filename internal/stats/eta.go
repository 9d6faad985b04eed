package stats

import (
	"fmt"
	"time"
)

// ETAKind classifies the outcome of ComputeETA.
type ETAKind int

const (
	// ETAUnknown means there is no prior snapshot to compare against yet,
	// or the prior snapshot was not taken before the current one.
	ETAUnknown ETAKind = iota
	// ETAIncreasing means the queue grew since the prior snapshot.
	ETAIncreasing
	// ETANoChange means the queue depth is unchanged.
	ETANoChange
	// ETAEstimated means a jobs-per-minute rate and remaining-time
	// estimate were computed.
	ETAEstimated
)

// ETA is the result of comparing two consecutive snapshots' available
// counts, per spec.md §4.11.
type ETA struct {
	Kind          ETAKind
	JobsPerMinute float64
	Remaining     time.Duration
	Text          string
}

// ComputeETA implements spec.md §4.11's three-way ETA rule:
//   - doneCount = prev.availableCount - current.availableCount < 0 → "increasing"
//   - doneCount == 0 → "no change"
//   - otherwise → jobsPerMinute = 60*doneCount/Δseconds, remaining = timePerJob*current.availableCount
func ComputeETA(prev Snapshot, hasPrev bool, current Snapshot) ETA {
	if !hasPrev {
		return ETA{Kind: ETAUnknown, Text: "no prior snapshot"}
	}

	deltaSeconds := current.Taken.Sub(prev.Taken).Seconds()
	if deltaSeconds <= 0 {
		return ETA{Kind: ETAUnknown, Text: "prior snapshot not older than current"}
	}

	doneCount := prev.All.AvailableCount() - current.All.AvailableCount()
	switch {
	case doneCount < 0:
		return ETA{Kind: ETAIncreasing, Text: "increasing"}
	case doneCount == 0:
		return ETA{Kind: ETANoChange, Text: "no change"}
	default:
		jobsPerMinute := 60 * float64(doneCount) / deltaSeconds
		timePerJob := time.Duration(deltaSeconds/float64(doneCount)*1000) * time.Millisecond
		remaining := timePerJob * time.Duration(current.All.AvailableCount())
		return ETA{
			Kind:          ETAEstimated,
			JobsPerMinute: jobsPerMinute,
			Remaining:     remaining,
			Text:          fmt.Sprintf("%.2f jobs/min, ~%s remaining", jobsPerMinute, remaining.Round(time.Second)),
		}
	}
}
