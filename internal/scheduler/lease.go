package scheduler

import (
	"time"

	"github.com/bobmcallan/pkgjobs/internal/common"
)

// maxBackoffHours caps the hourly bump extendLock adds for chronic
// failures (spec.md §4.9, §8: "errorCount > 168 clamps the hourly bump").
const maxBackoffHours = 168

// extendLock implements spec.md §4.9's backoff formula:
//
//	extendLock(errorCount) = now + baseExtend + min(errorCount, 168) hours
//
// baseExtend is longExtend (3 days) when errorCount is 0 (a clean success)
// or greater than 3 (a chronically failing job); otherwise it's
// shortExtend (12 hours). Healthy jobs cool down for days, flaky jobs
// retry soon with a small hourly bump, and chronically broken jobs back
// off aggressively.
func extendLock(cfg common.SchedulerConfig, now time.Time, errorCount int) time.Time {
	baseExtend := cfg.GetShortExtend()
	if errorCount == 0 || errorCount > 3 {
		baseExtend = cfg.GetLongExtend()
	}

	bump := errorCount
	if bump > maxBackoffHours {
		bump = maxBackoffHours
	}

	return now.Add(baseExtend).Add(time.Duration(bump) * time.Hour)
}
