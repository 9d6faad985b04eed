package stats

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// Aggregator scans the job table and produces bucketed snapshots, per
// service, keeping enough history to compute an ETA (spec.md §4.11).
// It holds no per-job state between calls — all bucketing is derived
// fresh from a full scan each time Take runs.
type Aggregator struct {
	ds             interfaces.Datastore
	runtimeVersion func() string
	history        *History
}

// NewAggregator constructs an Aggregator backed by ds, keeping a rolling
// window of prior snapshots via history.
func NewAggregator(ds interfaces.Datastore, runtimeVersion func() string, history *History) *Aggregator {
	return &Aggregator{ds: ds, runtimeVersion: runtimeVersion, history: history}
}

// Take scans every job for service at the current runtime version,
// buckets it into all/latest/last90, records the snapshot in history,
// and returns it alongside the ETA computed against the prior snapshot
// (if any).
func (a *Aggregator) Take(ctx context.Context, service models.Service) (Snapshot, ETA, error) {
	snap := Snapshot{
		Service: service,
		Taken:   time.Now(),
		All:     newBucket(),
		Latest:  newBucket(),
		Last90:  newBucket(),
	}

	failed := make(map[string]struct{})

	err := a.ds.ForEachJob(ctx, interfaces.JobQuery{
		RuntimeVersion: a.runtimeVersion(),
		Service:        service,
	}, func(j *models.Job) error {
		snap.All.add(j)
		if j.IsLatestStable {
			snap.Latest.add(j)
		}
		if common.Within(j.PackageVersionUpdated, common.StatsLast90Window) {
			snap.Last90.add(j)
			if j.LastStatus == models.StatusFailed {
				failed[j.PackageName] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, ETA{}, err
	}

	snap.Last90.FailedPackages = make([]string, 0, len(failed))
	for name := range failed {
		snap.Last90.FailedPackages = append(snap.Last90.FailedPackages, name)
	}

	prev, hasPrev := a.history.Last(service)
	eta := ComputeETA(prev, hasPrev, snap)
	a.history.Record(snap)

	return snap, eta, nil
}
