package scheduler

import (
	"context"

	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
)

// DeleteOldEntries implements spec.md §4.10: removes every job whose
// RuntimeVersion sorts strictly before gcBeforeRuntimeVersion, in
// batches of cfg.GCBatchSize so a large backlog never holds one
// transaction open across the whole table. It returns the total number
// of jobs deleted.
func (s *Scheduler) DeleteOldEntries(ctx context.Context, gcBeforeRuntimeVersion string) (int, error) {
	batchSize := s.cfg.GCBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	total := 0
	for {
		ids, err := s.nextGCBatch(ctx, gcBeforeRuntimeVersion, batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		deleted, err := s.deleteBatch(ctx, ids)
		total += deleted
		if err != nil {
			return total, err
		}
		if deleted < len(ids) {
			// Some IDs vanished between scan and delete (already GC'd by
			// a concurrent run; deleteBatch only counts rows it found);
			// that's fine, but stop to avoid spinning on a batch that can
			// no longer make progress.
			return total, nil
		}
	}
}

func (s *Scheduler) nextGCBatch(ctx context.Context, before string, limit int) ([]string, error) {
	candidates, err := s.ds.QueryJobs(ctx, interfaces.JobQuery{
		RuntimeVersionLessThan: before,
		Limit:                  limit,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids, nil
}

func (s *Scheduler) deleteBatch(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	err := datastore.RetryTx(ctx, s.ds, s.retryCfg, func(ctx context.Context, tx interfaces.Tx) error {
		deleted = 0
		for _, id := range ids {
			_, found, err := tx.GetJob(ctx, id)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := tx.DeleteJob(ctx, id); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}
