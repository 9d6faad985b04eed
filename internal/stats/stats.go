// Package stats implements the scheduler's statistics aggregator
// (spec.md §4.11): a per-service rolling snapshot over the job table
// producing counts per state/status and an ETA derived from consecutive
// snapshots.
package stats

import (
	"time"

	"github.com/bobmcallan/pkgjobs/internal/models"
)

// Bucket holds the per-state and per-status counts for one slice of the
// job table (all jobs, latest-stable-only, or last-90-days).
type Bucket struct {
	Total    int
	ByState  map[models.State]int
	ByStatus map[models.Status]int
	// FailedPackages is only populated on the last90 bucket: the set of
	// distinct package names whose lastStatus is failed within the window.
	FailedPackages []string
}

func newBucket() Bucket {
	return Bucket{
		ByState:  make(map[models.State]int),
		ByStatus: make(map[models.Status]int),
	}
}

func (b *Bucket) add(j *models.Job) {
	b.Total++
	b.ByState[j.State]++
	b.ByStatus[j.LastStatus]++
}

// AvailableCount is the queue depth used to drive ETA computation —
// jobs sitting in the available state of this bucket.
func (b Bucket) AvailableCount() int {
	return b.ByState[models.StateAvailable]
}

// Snapshot is one point-in-time scan of a service's job table.
type Snapshot struct {
	Service models.Service
	Taken   time.Time
	All     Bucket
	Latest  Bucket
	Last90  Bucket
}
