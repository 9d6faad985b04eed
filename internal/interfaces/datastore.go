package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/models"
)

// JobQuery describes an equality/range query over the job table's
// indexed attributes (spec.md §6: "equality and range queries on
// indexed attributes (runtimeVersion, service, state, lockedUntil,
// priority)"). Zero-valued fields are treated as "no filter" except
// where noted.
type JobQuery struct {
	RuntimeVersion         string // exact match; "" = any
	RuntimeVersionLessThan string // range match on RuntimeVersion < this; "" = no filter
	Service                models.Service
	State                  models.State
	LockedBefore           time.Time // filters LockedUntil < this; zero = no filter
	OrderByPriorityAsc     bool
	Limit                  int // 0 = unlimited
}

// Tx is a handle scoped to one optimistic transaction. Every read through
// a Tx observes the transaction's snapshot; every write through a Tx is
// staged until the enclosing Datastore.RunTx call commits, at which
// point the whole transaction succeeds or is aborted as a unit and
// surfaced as a conflict error to the retry harness.
type Tx interface {
	GetJob(ctx context.Context, id string) (*models.Job, bool, error)
	PutJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id string) error
}

// Datastore is the ordered, indexed entity store the scheduler core is
// built against (spec.md §2.1, §6). Implementations must support keyed
// lookup, equality/range queries, streaming iteration over large result
// sets, and optimistic multi-entity transactions whose conflict errors
// are distinguishable (via IsConflict, see internal/datastore) from
// fatal ones.
type Datastore interface {
	// GetJob performs a keyed lookup outside of any transaction.
	GetJob(ctx context.Context, id string) (job *models.Job, found bool, err error)

	// QueryJobs materializes up to q.Limit matches. Used by LockAvailable's
	// top-N candidate scan.
	QueryJobs(ctx context.Context, q JobQuery) ([]*models.Job, error)

	// ForEachJob calls fn for every match of q, stopping and returning fn's
	// error if it returns one. Both backends in this module load the whole
	// result set (via QueryJobs) before the first call to fn; results are
	// not streamed. Used by the statistics aggregator and by maintenance
	// sweeps (UnlockStaleProcessing, CheckIdle) that scan the whole table
	// for a runtime version.
	ForEachJob(ctx context.Context, q JobQuery, fn func(*models.Job) error) error

	// RunTx executes fn inside one optimistic transaction. On a write
	// conflict detected at commit, RunTx returns an error for which
	// IsConflict reports true; the caller (normally the retry harness)
	// is expected to retry the whole fn.
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Close() error
}
