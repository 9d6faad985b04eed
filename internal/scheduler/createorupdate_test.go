package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

func TestCreateOrUpdate_InsertsNewJob(t *testing.T) {
	s, ds := newTestScheduler(t, nil, newFakePopularity())
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.createOrUpdate(context.Background(), models.ServiceAnalyzer, "foo", "1.0.0", true, created, true, nil)
	if err != nil {
		t.Fatalf("createOrUpdate: %v", err)
	}

	id := models.DeriveID("v1", models.ServiceAnalyzer, "foo", "1.0.0")
	job, found, err := ds.GetJob(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("expected job to exist, found=%v err=%v", found, err)
	}
	if job.State != models.StateAvailable {
		t.Errorf("expected state available, got %s", job.State)
	}
	if job.LastStatus != models.StatusNone {
		t.Errorf("expected fresh job lastStatus none, got %s", job.LastStatus)
	}
}

func TestCreateOrUpdate_NotChangedAndNotShouldProcess_IsNoOp(t *testing.T) {
	s, ds := newTestScheduler(t, nil, newFakePopularity())
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("first createOrUpdate: %v", err)
	}
	id := models.DeriveID("v1", models.ServiceAnalyzer, "foo", "1.0.0")
	first, _, _ := ds.GetJob(ctx, id)

	// Re-trigger with identical inputs: hasNotChanged && !shouldProcess is a no-op.
	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("second createOrUpdate: %v", err)
	}
	second, _, _ := ds.GetJob(ctx, id)

	if !first.LockedUntil.Equal(second.LockedUntil) {
		t.Errorf("expected no-op to leave LockedUntil untouched: before %v, after %v", first.LockedUntil, second.LockedUntil)
	}
}

func TestCreateOrUpdate_EqualPackageVersionUpdated_TreatedAsNotChanged(t *testing.T) {
	// spec.md's Open Question 1: equal timestamps count as "not changed"
	// (>=, not >).
	s, ds := newTestScheduler(t, nil, newFakePopularity())
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("first createOrUpdate: %v", err)
	}
	id := models.DeriveID("v1", models.ServiceAnalyzer, "foo", "1.0.0")
	first, _, _ := ds.GetJob(ctx, id)

	// Same packageVersionUpdated timestamp exactly, still not shouldProcess.
	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("second createOrUpdate: %v", err)
	}
	second, _, _ := ds.GetJob(ctx, id)

	if !first.LockedUntil.Equal(second.LockedUntil) {
		t.Error("expected equal packageVersionUpdated to be treated as not-changed")
	}
}

func TestCreateOrUpdate_ShouldProcess_PromotesToAvailableAndClearsLease(t *testing.T) {
	s, ds := newTestScheduler(t, nil, newFakePopularity())
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("first createOrUpdate: %v", err)
	}
	id := models.DeriveID("v1", models.ServiceAnalyzer, "foo", "1.0.0")
	job, _, _ := ds.GetJob(ctx, id)
	job.State = models.StateProcessing
	job.ProcessingKey = "in-flight"
	if err := ds.RunTx(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		return tx.PutJob(ctx, job)
	}); err != nil {
		t.Fatalf("seeding processing state: %v", err)
	}

	newUpdated := created.Add(time.Hour)
	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, newUpdated, true, nil); err != nil {
		t.Fatalf("createOrUpdate with shouldProcess: %v", err)
	}

	got, _, _ := ds.GetJob(ctx, id)
	if got.State != models.StateAvailable {
		t.Errorf("expected state available, got %s", got.State)
	}
	if got.ProcessingKey != "" {
		t.Error("expected a fresh trigger to abandon any in-flight lease")
	}
}

func TestCreateOrUpdate_FixedPriorityOverride_TriggersUpdateEvenIfUnchanged(t *testing.T) {
	s, ds := newTestScheduler(t, nil, newFakePopularity())
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, false, nil); err != nil {
		t.Fatalf("first createOrUpdate: %v", err)
	}
	id := models.DeriveID("v1", models.ServiceAnalyzer, "foo", "1.0.0")
	before, _, _ := ds.GetJob(ctx, id)
	if before.Priority <= 0 {
		t.Fatalf("expected default priority > 0 as a baseline, got %d", before.Priority)
	}

	zero := 0
	if err := s.createOrUpdate(ctx, models.ServiceAnalyzer, "foo", "1.0.0", true, created, true, &zero); err != nil {
		t.Fatalf("second createOrUpdate with fixedPriority override: %v", err)
	}

	after, _, _ := ds.GetJob(ctx, id)
	if after.Priority != 0 {
		t.Errorf("expected fixedPriority override to win, got %d", after.Priority)
	}
	if after.State != models.StateAvailable {
		t.Errorf("expected state available, got %s", after.State)
	}
}
