package stats

import (
	"testing"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/models"
)

func TestHistory_LastReturnsFalseWhenEmpty(t *testing.T) {
	h := NewHistory()
	_, ok := h.Last(models.ServiceAnalyzer)
	if ok {
		t.Error("expected no prior snapshot for an empty history")
	}
}

func TestHistory_RecordThenLast(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	snap := snapshotWithAvailable(models.ServiceAnalyzer, now, 10)
	h.Record(snap)

	got, ok := h.Last(models.ServiceAnalyzer)
	if !ok {
		t.Fatal("expected a recorded snapshot")
	}
	if got.All.AvailableCount() != 10 {
		t.Errorf("expected availableCount 10, got %d", got.All.AvailableCount())
	}
}

func TestHistory_EvictsOlderThanRetentionWindow(t *testing.T) {
	h := NewHistory()
	old := snapshotWithAvailable(models.ServiceAnalyzer, time.Now().Add(-2*retentionWindow), 5)
	h.Record(old)

	fresh := snapshotWithAvailable(models.ServiceAnalyzer, time.Now(), 7)
	h.Record(fresh)

	got, ok := h.Last(models.ServiceAnalyzer)
	if !ok {
		t.Fatal("expected the fresh snapshot to remain")
	}
	if got.All.AvailableCount() != 7 {
		t.Errorf("expected the fresh snapshot to be the last one, got availableCount %d", got.All.AvailableCount())
	}
	if n := len(h.byService[models.ServiceAnalyzer]); n != 1 {
		t.Errorf("expected the stale snapshot to be evicted, ring holds %d snapshots", n)
	}
}

func TestHistory_IsolatedByService(t *testing.T) {
	h := NewHistory()
	h.Record(snapshotWithAvailable(models.ServiceAnalyzer, time.Now(), 1))

	_, ok := h.Last(models.ServiceDartdoc)
	if ok {
		t.Error("expected a different service to have no recorded history")
	}
}
