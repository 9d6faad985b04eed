// Package surreal implements interfaces.Datastore against SurrealDB, the
// networked backend the scheduler uses when many stateless worker
// processes share one job table (spec.md §8: "many stateless worker
// processes... sharing a central datastore").
package surreal

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/datastore"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

const table = "job"

// Store implements interfaces.Datastore on top of a SurrealDB connection.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// New connects to SurrealDB, signs in, selects the namespace/database and
// ensures the job table exists.
func New(ctx context.Context, cfg common.SurrealConfig, logger *common.Logger) (*Store, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("sign in to surrealdb: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("select namespace/database: %w", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table), nil); err != nil {
		return nil, fmt.Errorf("define table %s: %w", table, err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("surrealdb datastore connected")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, bool, error) {
	job, err := selectJob(ctx, s.db, id)
	if err != nil {
		return nil, false, err
	}
	if job == nil {
		return nil, false, nil
	}
	return job, true, nil
}

func (s *Store) QueryJobs(ctx context.Context, q interfaces.JobQuery) ([]*models.Job, error) {
	sql, vars := buildSelect(q)
	return queryJobs(ctx, s.db, sql, vars)
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

// RunTx executes fn against a tx that buffers writes and replays them as one
// SurrealQL multi-statement transaction. Every buffered write carries a
// THROW-guarded precondition on the row's state as it was last observed by
// this tx's own GetJob/PutJob calls; a precondition failure aborts the
// whole SurrealDB transaction and surfaces as a conflict error (spec.md
// §4.1, §7).
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	t := &tx{ctx: ctx, db: s.db, seen: make(map[string]*seenJob), vars: make(map[string]any)}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return t.commit(ctx)
}

func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

// classifyErr wraps a raw SurrealDB error with datastore.ErrConflict when
// the message carries the THROW marker our guarded writes use.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if datastore.IsConflict(err) {
		return fmt.Errorf("%w: %v", datastore.ErrConflict, err)
	}
	return err
}

var _ interfaces.Datastore = (*Store)(nil)
