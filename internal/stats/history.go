package stats

import (
	"sync"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/models"
)

// retentionWindow bounds how long History keeps snapshots per service
// (spec.md §4.11: "keeps the last 60-90 minutes"). 90 minutes is the
// generous end of that range so ETA computation always has a baseline
// to compare against even if Take is called on a slow or irregular poll.
const retentionWindow = 90 * time.Minute

// History is a per-service, mutex-protected ring of recent snapshots.
// Concurrent Take calls across services (or a maintenance loop and an
// operator-triggered stats call for the same service) are safe.
type History struct {
	mu      sync.Mutex
	byService map[models.Service][]Snapshot
}

// NewHistory constructs an empty History.
func NewHistory() *History {
	return &History{byService: make(map[models.Service][]Snapshot)}
}

// Record appends snap to its service's ring and evicts anything older
// than retentionWindow.
func (h *History) Record(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := snap.Taken.Add(-retentionWindow)
	kept := h.byService[snap.Service][:0]
	for _, s := range h.byService[snap.Service] {
		if s.Taken.After(cutoff) {
			kept = append(kept, s)
		}
	}
	h.byService[snap.Service] = append(kept, snap)
}

// Last returns the most recent snapshot recorded for service before the
// one currently being taken, or (Snapshot{}, false) if there is none yet.
func (h *History) Last(service models.Service) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ring := h.byService[service]
	if len(ring) == 0 {
		return Snapshot{}, false
	}
	return ring[len(ring)-1], true
}
