package surreal

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

// conflictMarker is what a guard THROWs; classifyErr looks for it via
// datastore.IsConflict's "conflict" substring fallback.
const conflictMarker = "pkgjobs: conflict"

// seenJob records what a tx last observed for a row, so a later write in
// the same tx can guard on the value actually read rather than trusting
// the caller's copy.
type seenJob struct {
	job   *models.Job // nil means confirmed absent
	known bool
}

// tx buffers writes against one Store.RunTx call and replays them as a
// single guarded SurrealQL transaction on commit (see store.go RunTx).
type tx struct {
	ctx   context.Context
	db    *surrealdb.DB
	seen  map[string]*seenJob
	stmts []string
	vars  map[string]any
	n     int
}

func (t *tx) nextVar(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, t.n)
	t.n++
	return name
}

func (t *tx) GetJob(ctx context.Context, id string) (*models.Job, bool, error) {
	if s, ok := t.seen[id]; ok {
		if s.job == nil {
			return nil, false, nil
		}
		return s.job.Clone(), true, nil
	}
	job, err := selectJob(ctx, t.db, id)
	if err != nil {
		return nil, false, err
	}
	t.seen[id] = &seenJob{job: job, known: true}
	if job == nil {
		return nil, false, nil
	}
	return job.Clone(), true, nil
}

// PutJob buffers a guarded write. If this tx has already observed the row
// (via GetJob or an earlier PutJob), the write is fenced on that
// observation: an UPDATE guards on state+locked_until matching what was
// read, an insert guards on the row still being absent. A PutJob with no
// prior observation in this tx is an unfenced blind write — callers that
// need fencing must GetJob first, which every scheduler operation does.
func (t *tx) PutJob(ctx context.Context, job *models.Job) error {
	rid := t.nextVar("rid")
	data := t.nextVar("data")
	t.vars[rid] = recordID(job.ID)
	t.vars[data] = job

	prior, known := t.seen[job.ID]

	switch {
	case known && prior.job != nil:
		state := t.nextVar("st")
		locked := t.nextVar("lu")
		t.vars[state] = prior.job.State
		t.vars[locked] = prior.job.LockedUntil
		t.stmts = append(t.stmts, fmt.Sprintf(
			"IF (SELECT VALUE state FROM ONLY $%s) != $%s OR (SELECT VALUE locked_until FROM ONLY $%s) != $%s { THROW %q; };",
			rid, state, rid, locked, conflictMarker))
		t.stmts = append(t.stmts, fmt.Sprintf("UPDATE $%s CONTENT $%s;", rid, data))
	case known && prior.job == nil:
		t.stmts = append(t.stmts, fmt.Sprintf(
			"IF (SELECT VALUE id FROM ONLY $%s) != NONE { THROW %q; };", rid, conflictMarker))
		t.stmts = append(t.stmts, fmt.Sprintf("CREATE $%s CONTENT $%s;", rid, data))
	default:
		t.stmts = append(t.stmts, fmt.Sprintf("UPSERT $%s CONTENT $%s;", rid, data))
	}

	t.seen[job.ID] = &seenJob{job: job.Clone(), known: true}
	return nil
}

func (t *tx) DeleteJob(ctx context.Context, id string) error {
	rid := t.nextVar("rid")
	t.vars[rid] = recordID(id)

	if prior, known := t.seen[id]; known && prior.job != nil {
		state := t.nextVar("st")
		t.vars[state] = prior.job.State
		t.stmts = append(t.stmts, fmt.Sprintf(
			"IF (SELECT VALUE state FROM ONLY $%s) != $%s { THROW %q; };", rid, state, conflictMarker))
	}
	t.stmts = append(t.stmts, fmt.Sprintf("DELETE $%s;", rid))
	t.seen[id] = &seenJob{job: nil, known: true}
	return nil
}

func (t *tx) commit(ctx context.Context) error {
	if len(t.stmts) == 0 {
		return nil
	}
	script := "BEGIN TRANSACTION;\n" + strings.Join(t.stmts, "\n") + "\nCOMMIT TRANSACTION;"
	_, err := surrealdb.Query[any](ctx, t.db, script, t.vars)
	return classifyErr(err)
}

var _ interfaces.Tx = (*tx)(nil)
