package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	id := DeriveID("2024.1.0", ServiceAnalyzer, "retry", "2.0.0")
	assert.Equal(t, "2024.1.0/analyzer/retry/2.0.0", id)
}

func TestDeriveID_Uniqueness(t *testing.T) {
	a := DeriveID("v1", ServiceAnalyzer, "foo", "1.0.0")
	b := DeriveID("v1", ServiceDartdoc, "foo", "1.0.0")
	c := DeriveID("v2", ServiceAnalyzer, "foo", "1.0.0")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestJob_Clone_Independent(t *testing.T) {
	j := &Job{ID: "x", ErrorCount: 1}
	cp := j.Clone()
	cp.ErrorCount = 5
	assert.Equal(t, 1, j.ErrorCount)
	assert.Equal(t, 5, cp.ErrorCount)
}

func TestJob_IsLeaseLive(t *testing.T) {
	now := time.Now()
	live := &Job{State: StateProcessing, ProcessingKey: "k", LockedUntil: now.Add(time.Hour)}
	assert.True(t, live.IsLeaseLive(now))

	expired := &Job{State: StateProcessing, ProcessingKey: "k", LockedUntil: now.Add(-time.Minute)}
	assert.False(t, expired.IsLeaseLive(now))

	noKey := &Job{State: StateProcessing, LockedUntil: now.Add(time.Hour)}
	assert.False(t, noKey.IsLeaseLive(now))

	available := &Job{State: StateAvailable}
	assert.False(t, available.IsLeaseLive(now))
}
