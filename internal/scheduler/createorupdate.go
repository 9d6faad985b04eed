package scheduler

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// createOrUpdate implements spec.md §4.3, the core write path behind
// Trigger. It is idempotent and monotone in data freshness: re-triggering
// with unchanged inputs never mutates the stored job (spec.md §8).
func (s *Scheduler) createOrUpdate(
	ctx context.Context,
	service models.Service,
	packageName, packageVersion string,
	isLatestStable bool,
	packageVersionUpdated time.Time,
	shouldProcess bool,
	fixedPriority *int,
) error {
	id := models.DeriveID(s.runtimeVersion(), service, packageName, packageVersion)

	return datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		existing, found, err := tx.GetJob(ctx, id)
		if err != nil {
			return err
		}

		priority := fixPriority(s.computePriority(packageName), fixedPriority)

		if !found {
			job := &models.Job{
				ID:                    id,
				RuntimeVersion:        s.runtimeVersion(),
				Service:               service,
				PackageName:           packageName,
				PackageVersion:        packageVersion,
				IsLatestStable:        isLatestStable,
				PackageVersionUpdated: packageVersionUpdated,
				LastStatus:            models.StatusNone,
				ErrorCount:            0,
				Priority:              priority,
			}
			applyProcessingDecision(job, shouldProcess, s.cfg.GetShortExtend())
			return tx.PutJob(ctx, job)
		}

		// hasNotChanged treats equal packageVersionUpdated timestamps as
		// "not changed" (storedPackageVersionUpdated ≥ new), preserved
		// literally per spec.md §9's open question.
		hasNotChanged := existing.IsLatestStable == isLatestStable &&
			!existing.PackageVersionUpdated.Before(packageVersionUpdated) &&
			(fixedPriority == nil || existing.Priority <= *fixedPriority)

		if hasNotChanged && !shouldProcess {
			return nil
		}
		if hasNotChanged && shouldProcess && existing.State == models.StateAvailable && existing.LockedUntil.IsZero() {
			return nil
		}

		existing.IsLatestStable = isLatestStable
		existing.PackageVersionUpdated = packageVersionUpdated
		existing.ProcessingKey = "" // abandons any in-flight lease
		existing.Priority = priority
		applyProcessingDecision(existing, shouldProcess, s.cfg.GetShortExtend())
		return tx.PutJob(ctx, existing)
	})
}

// applyProcessingDecision sets state/lockedUntil per the "absent" rules
// shared by the insert and overwrite branches of createOrUpdate.
func applyProcessingDecision(job *models.Job, shouldProcess bool, shortExtend time.Duration) {
	if shouldProcess {
		job.State = models.StateAvailable
		job.LockedUntil = time.Time{}
		return
	}
	job.State = models.StateIdle
	job.LockedUntil = time.Now().Add(shortExtend)
}
