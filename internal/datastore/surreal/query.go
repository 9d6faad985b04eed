package surreal

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

func recordID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(table, id)
}

// buildSelect translates a JobQuery into a parameterized SELECT.
func buildSelect(q interfaces.JobQuery) (string, map[string]any) {
	var where []string
	vars := map[string]any{}

	if q.RuntimeVersion != "" {
		where = append(where, "runtime_version = $runtime_version")
		vars["runtime_version"] = q.RuntimeVersion
	}
	if q.RuntimeVersionLessThan != "" {
		where = append(where, "runtime_version < $runtime_version_lt")
		vars["runtime_version_lt"] = q.RuntimeVersionLessThan
	}
	if q.Service != "" {
		where = append(where, "service = $service")
		vars["service"] = q.Service
	}
	if q.State != "" {
		where = append(where, "state = $state")
		vars["state"] = q.State
	}
	if !q.LockedBefore.IsZero() {
		where = append(where, "locked_until < $locked_before")
		vars["locked_before"] = q.LockedBefore
	}

	sql := "SELECT * FROM " + table
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	if q.OrderByPriorityAsc {
		sql += " ORDER BY priority ASC"
	}
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return sql, vars
}

func queryJobs(ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]*models.Job, error) {
	results, err := surrealdb.Query[[]models.Job](ctx, db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	var jobs []*models.Job
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			jobs = append(jobs, &(*results)[0].Result[i])
		}
	}
	return jobs, nil
}

func selectJob(ctx context.Context, db *surrealdb.DB, id string) (*models.Job, error) {
	sql := "SELECT * FROM $rid"
	vars := map[string]any{"rid": recordID(id)}
	results, err := surrealdb.Query[[]models.Job](ctx, db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("select job %s: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	job := (*results)[0].Result[0]
	return &job, nil
}
