// Package embedded implements interfaces.Datastore on top of BadgerHold,
// for single-process deployments and for tests that need a real ACID
// datastore without a live SurrealDB server (spec.md §8, Open Questions).
package embedded

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// Store wraps a BadgerHold database holding the job table.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// New opens (creating if necessary) a BadgerHold store at path.
func New(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("embedded job datastore opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, bool, error) {
	var job models.Job
	if err := s.db.Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, true, nil
}

func (s *Store) QueryJobs(ctx context.Context, q interfaces.JobQuery) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.db.Find(&jobs, buildQuery(q)); err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	out := make([]*models.Job, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out, nil
}

func (s *Store) ForEachJob(ctx context.Context, q interfaces.JobQuery, fn func(*models.Job) error) error {
	jobs, err := s.QueryJobs(ctx, q)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := fn(j); err != nil {
			return err
		}
	}
	return nil
}

// RunTx runs fn inside one BadgerDB transaction. Every TxGet a caller does
// through the returned Tx registers a read conflict key; if any of those
// rows are written by another transaction that commits first, Badger
// fails this commit with badger.ErrConflict (spec.md §4.1, §7).
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	err := s.db.Badger().Update(func(btx *badger.Txn) error {
		t := &tx{store: s.db, btx: btx}
		return fn(ctx, t)
	})
	if err == badger.ErrConflict {
		return fmt.Errorf("%w: %v", datastore.ErrConflict, err)
	}
	return err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ interfaces.Datastore = (*Store)(nil)
