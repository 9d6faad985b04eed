package scheduler

import (
	"testing"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/common"
)

func TestExtendLock_Formula(t *testing.T) {
	cfg := common.SchedulerConfig{ShortExtend: "12h", LongExtend: "72h"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		errorCount int
		want       time.Duration // expected offset from now
	}{
		{"clean success, errorCount 0 uses longExtend", 0, 72 * time.Hour},
		{"first failure uses shortExtend", 1, 12*time.Hour + time.Hour},
		{"second failure uses shortExtend", 2, 12*time.Hour + 2*time.Hour},
		{"third failure uses shortExtend", 3, 12*time.Hour + 3*time.Hour},
		{"chronic failure (4) switches to longExtend", 4, 72*time.Hour + 4*time.Hour},
		{"chronic failure (10) switches to longExtend", 10, 72*time.Hour + 10*time.Hour},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := extendLock(cfg, now, c.errorCount)
			want := now.Add(c.want)
			if !got.Equal(want) {
				t.Errorf("extendLock(errorCount=%d) = %v, want %v", c.errorCount, got, want)
			}
		})
	}
}

func TestExtendLock_ClampsHourlyBumpAt168(t *testing.T) {
	cfg := common.SchedulerConfig{ShortExtend: "12h", LongExtend: "72h"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := extendLock(cfg, now, 500)
	want := now.Add(72 * time.Hour).Add(168 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("extendLock(errorCount=500) = %v, want %v (clamped bump)", got, want)
	}
}
