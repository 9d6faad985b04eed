package scheduler

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// Complete implements spec.md §4.8. job is the caller's snapshot — most
// often the one LockAvailable returned — and may be stale if the lease
// was stolen by a re-trigger; that is exactly what the processingKey
// fence is for. A success is accepted even if the key no longer matches
// (the "status override" rule), preserving completed work over strict
// fencing (spec.md §9, Open Question 2).
func (s *Scheduler) Complete(ctx context.Context, job *models.Job, status models.Status) error {
	return datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		stored, found, err := tx.GetJob(ctx, job.ID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if stored.ProcessingKey != job.ProcessingKey && status != models.StatusSuccess {
			s.logger.Debug().
				Str("job_id", job.ID).
				Str("status", string(status)).
				Msg("complete: processingKey mismatch, dropping")
			return nil
		}

		isError := status == models.StatusFailed || status == models.StatusAborted
		if isError {
			stored.ErrorCount++
		} else {
			stored.ErrorCount = 0
		}

		stored.State = models.StateIdle
		stored.LastStatus = status
		stored.ProcessingKey = ""
		stored.LockedUntil = extendLock(s.cfg, time.Now(), stored.ErrorCount)
		stored.Priority = fixPriority(s.computePriority(stored.PackageName), nil)
		return tx.PutJob(ctx, stored)
	})
}
