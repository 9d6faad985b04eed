package scheduler

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// UnlockStaleProcessing implements spec.md §4.6: sweeps jobs whose lease
// has expired and returns each to idle with backoff, fencing on the
// lockedUntil observed at scan time so a lease that was extended (or
// completed) between the scan and the fencing re-read is left untouched.
func (s *Scheduler) UnlockStaleProcessing(ctx context.Context, service models.Service) error {
	now := time.Now()

	type stale struct {
		id          string
		lockedUntil time.Time
	}
	var candidates []stale

	err := s.ds.ForEachJob(ctx, interfaces.JobQuery{
		RuntimeVersion: s.runtimeVersion(),
		Service:        service,
		State:          models.StateProcessing,
		LockedBefore:   now,
	}, func(j *models.Job) error {
		candidates = append(candidates, stale{id: j.ID, lockedUntil: j.LockedUntil})
		return nil
	})
	if err != nil {
		return err
	}

	for _, c := range candidates {
		if err := s.unlockOne(ctx, c.id, c.lockedUntil); err != nil {
			s.logger.Warn().Str("job_id", c.id).Err(err).Msg("failed to unlock stale processing job")
		}
	}
	return nil
}

func (s *Scheduler) unlockOne(ctx context.Context, id string, observedLockedUntil time.Time) error {
	return datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		job, found, err := tx.GetJob(ctx, id)
		if err != nil {
			return err
		}
		if !found || job.State != models.StateProcessing || !job.LockedUntil.Equal(observedLockedUntil) {
			// Lease was extended, completed, or the job was reassigned
			// since the scan — a legitimate concurrent transition, not
			// an error (spec.md §7).
			return nil
		}

		now := time.Now()
		job.ErrorCount++
		job.State = models.StateIdle
		job.LastStatus = models.StatusAborted
		job.ProcessingKey = ""
		job.LockedUntil = extendLock(s.cfg, now, job.ErrorCount)
		job.Priority = fixPriority(s.computePriority(job.PackageName), nil)
		return tx.PutJob(ctx, job)
	})
}
