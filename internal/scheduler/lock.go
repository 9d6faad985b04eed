package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// LockAvailable implements spec.md §4.5: picks a head-biased candidate
// from up to LockCandidateLimit available jobs for service, leases it to
// the caller, and returns the locked job. Returns (nil, nil) when there
// is nothing to pick, or when the chosen candidate lost the race to
// another worker between the scan and the fencing re-read.
func (s *Scheduler) LockAvailable(ctx context.Context, service models.Service) (*models.Job, error) {
	candidates, err := s.ds.QueryJobs(ctx, interfaces.JobQuery{
		RuntimeVersion:     s.runtimeVersion(),
		Service:            service,
		State:              models.StateAvailable,
		OrderByPriorityAsc: true,
		Limit:              s.cfg.LockCandidateLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	idx := pickHeadBiased(len(candidates), s.cfg.HeadBiasWindow)
	candidateID := candidates[idx].ID

	var locked *models.Job
	err = datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		locked = nil
		job, found, err := tx.GetJob(ctx, candidateID)
		if err != nil {
			return err
		}
		if !found || job.State != models.StateAvailable || job.RuntimeVersion != s.runtimeVersion() {
			return nil
		}

		job.State = models.StateProcessing
		job.ProcessingKey = uuid.NewString()
		job.LockedUntil = time.Now().Add(s.cfg.GetDefaultLock())
		if err := tx.PutJob(ctx, job); err != nil {
			return err
		}
		locked = job.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if locked != nil {
		s.logger.Debug().
			Str("job_id", locked.ID).
			Str("service", string(service)).
			Int("priority", locked.Priority).
			Msg("locked job")
	}
	return locked, nil
}
