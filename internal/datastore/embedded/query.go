package embedded

import (
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
)

// buildQuery translates a JobQuery into BadgerHold's criteria chain against
// the indexed struct tags on models.Job (RuntimeVersion, Service, State,
// LockedUntil, Priority — see internal/models/job.go).
func buildQuery(q interfaces.JobQuery) *badgerhold.Query {
	query := badgerhold.Where("ID").Ne("")

	if q.RuntimeVersion != "" {
		query = query.And("RuntimeVersion").Eq(q.RuntimeVersion)
	}
	if q.RuntimeVersionLessThan != "" {
		query = query.And("RuntimeVersion").Lt(q.RuntimeVersionLessThan)
	}
	if q.Service != "" {
		query = query.And("Service").Eq(q.Service)
	}
	if q.State != "" {
		query = query.And("State").Eq(q.State)
	}
	if !q.LockedBefore.IsZero() {
		query = query.And("LockedUntil").Lt(q.LockedBefore)
	}
	if q.OrderByPriorityAsc {
		query = query.SortBy("Priority")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}
