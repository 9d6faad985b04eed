// Package scheduler implements the job lifecycle state machine: trigger,
// createOrUpdate, lockAvailable, unlockStaleProcessing, checkIdle,
// complete, and deleteOldEntries (spec.md §4). Every state-mutating
// operation runs inside datastore.RetryTx so a write conflict from a
// concurrent worker is retried rather than surfaced to the caller.
package scheduler

import (
	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
)

// Scheduler owns the job table for one runtime version and drives its
// lifecycle operations. It holds no per-job state between calls; all
// fencing is done against the datastore on each operation.
type Scheduler struct {
	ds         interfaces.Datastore
	packages   interfaces.PackageStore
	popularity interfaces.PopularityOracle
	logger     *common.Logger
	cfg        common.SchedulerConfig
	retryCfg   datastore.RetryConfig

	// runtimeVersion returns the current worker-code version every query
	// and write is partitioned by (spec.md §2.6). A func rather than a
	// plain field so tests can swap versions without rebuilding the
	// scheduler.
	runtimeVersion func() string
}

// New constructs a Scheduler. popularity and packages may be nil only in
// tests that never exercise Trigger/CreateOrUpdate.
func New(
	ds interfaces.Datastore,
	packages interfaces.PackageStore,
	popularity interfaces.PopularityOracle,
	logger *common.Logger,
	cfg common.SchedulerConfig,
	runtimeVersion func() string,
) *Scheduler {
	return &Scheduler{
		ds:             ds,
		packages:       packages,
		popularity:     popularity,
		logger:         logger,
		cfg:            cfg,
		retryCfg:       datastore.DefaultRetryConfig(),
		runtimeVersion: runtimeVersion,
	}
}
