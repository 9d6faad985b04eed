// Package datastore hosts the transaction-retry harness and the
// conflict-classification helper shared by every Datastore backend
// (spec.md §4.1). Concrete backends live in its subpackages.
package datastore

import (
	"errors"
	"strings"
)

// ErrConflict is the sentinel every backend wraps its native conflict
// signal in (badger.ErrConflict for the embedded backend, a SurrealDB
// transaction-abort error for the networked backend), so callers never
// need to import a backend package just to classify an error.
var ErrConflict = errors.New("datastore: write conflict")

// IsConflict reports whether err represents a transient optimistic-
// transaction conflict that the retry harness should retry, as opposed
// to a permanent/fatal datastore error that must propagate (spec.md §7).
// Backends are expected to wrap their native conflict error with
// ErrConflict; the substring fallback below only guards against a
// backend error that slipped through unwrapped.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "conflict") || strings.Contains(msg, "retry")
}
