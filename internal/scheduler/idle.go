package scheduler

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// CheckIdle implements spec.md §4.7: for every idle job whose cooldown
// has elapsed, asks the injected predicate whether the package is still
// fresh and promotes it to available or extends its cooldown
// accordingly. A predicate error is logged and the job is skipped — it
// will be retried on the next sweep.
func (s *Scheduler) CheckIdle(ctx context.Context, service models.Service, shouldProcess interfaces.ShouldProcessFunc) error {
	now := time.Now()

	var candidates []*models.Job
	err := s.ds.ForEachJob(ctx, interfaces.JobQuery{
		RuntimeVersion: s.runtimeVersion(),
		Service:        service,
		State:          models.StateIdle,
		LockedBefore:   now,
	}, func(j *models.Job) error {
		candidates = append(candidates, j.Clone())
		return nil
	})
	if err != nil {
		return err
	}

	for _, job := range candidates {
		proceed, err := shouldProcess(ctx, job.PackageName, job.PackageVersion, job.PackageVersionUpdated)
		if err != nil {
			s.logger.Warn().Str("job_id", job.ID).Err(err).Msg("checkIdle predicate failed")
			continue
		}
		if err := s.checkIdleOne(ctx, job.ID, job.LockedUntil, proceed); err != nil {
			s.logger.Warn().Str("job_id", job.ID).Err(err).Msg("checkIdle transition failed")
		}
	}
	return nil
}

func (s *Scheduler) checkIdleOne(ctx context.Context, id string, observedLockedUntil time.Time, proceed bool) error {
	return datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		job, found, err := tx.GetJob(ctx, id)
		if err != nil {
			return err
		}
		if !found || job.State != models.StateIdle || !job.LockedUntil.Equal(observedLockedUntil) {
			return nil
		}

		if proceed {
			job.State = models.StateAvailable
			job.ProcessingKey = ""
			job.LockedUntil = time.Time{}
		} else {
			// Priority is not recomputed on extension (spec.md §4.7).
			job.LockedUntil = time.Now().Add(s.cfg.GetShortExtend())
		}
		return tx.PutJob(ctx, job)
	})
}
