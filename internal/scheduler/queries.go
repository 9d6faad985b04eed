package scheduler

import (
	"context"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// ListPending returns up to limit available jobs for service, ordered by
// priority. Operator tooling and tests use it to inspect queue depth
// without reaching into the datastore directly.
func (s *Scheduler) ListPending(ctx context.Context, service models.Service, limit int) ([]*models.Job, error) {
	return s.ds.QueryJobs(ctx, interfaces.JobQuery{
		RuntimeVersion:     s.runtimeVersion(),
		Service:            service,
		State:              models.StateAvailable,
		OrderByPriorityAsc: true,
		Limit:              limit,
	})
}

// ListByService returns every job for service regardless of state,
// capped at limit (0 = unlimited).
func (s *Scheduler) ListByService(ctx context.Context, service models.Service, limit int) ([]*models.Job, error) {
	return s.ds.QueryJobs(ctx, interfaces.JobQuery{
		RuntimeVersion: s.runtimeVersion(),
		Service:        service,
		Limit:          limit,
	})
}

// ListByPackage returns every job (any service, any state) for the
// current runtime version whose package matches packageName.
func (s *Scheduler) ListByPackage(ctx context.Context, packageName string) ([]*models.Job, error) {
	var matches []*models.Job
	err := s.ds.ForEachJob(ctx, interfaces.JobQuery{
		RuntimeVersion: s.runtimeVersion(),
	}, func(j *models.Job) error {
		if j.PackageName == packageName {
			matches = append(matches, j.Clone())
		}
		return nil
	})
	return matches, err
}

// CancelByPackage removes every pending (available or idle) job for
// packageName, e.g. when an administrator deletes the package. Jobs
// currently processing are left alone, so an in-flight lease keeps its
// row and its Complete still finds the job. (DeleteOldEntries, by
// contrast, deletes old-version jobs whatever their state.)
func (s *Scheduler) CancelByPackage(ctx context.Context, packageName string) (int, error) {
	var targets []string
	err := s.ds.ForEachJob(ctx, interfaces.JobQuery{
		RuntimeVersion: s.runtimeVersion(),
	}, func(j *models.Job) error {
		if j.PackageName == packageName && j.State != models.StateProcessing {
			targets = append(targets, j.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, nil
	}

	batchSize := s.cfg.GCBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	deleted := 0
	for start := 0; start < len(targets); start += batchSize {
		end := start + batchSize
		if end > len(targets) {
			end = len(targets)
		}
		n, err := s.deleteBatch(ctx, targets[start:end])
		deleted += n
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}
