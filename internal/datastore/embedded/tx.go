package embedded

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// tx adapts one BadgerDB transaction to interfaces.Tx. Every GetJob reads
// through the transaction, which is what registers the row as a read
// conflict key for Badger's commit-time conflict detection.
type tx struct {
	store *badgerhold.Store
	btx   *badger.Txn
}

func (t *tx) GetJob(ctx context.Context, id string) (*models.Job, bool, error) {
	var job models.Job
	if err := t.store.TxGet(t.btx, id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, true, nil
}

func (t *tx) PutJob(ctx context.Context, job *models.Job) error {
	if err := t.store.TxUpsert(t.btx, job.ID, job); err != nil {
		return fmt.Errorf("put job %s: %w", job.ID, err)
	}
	return nil
}

func (t *tx) DeleteJob(ctx context.Context, id string) error {
	if err := t.store.TxDelete(t.btx, id, models.Job{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

var _ interfaces.Tx = (*tx)(nil)
