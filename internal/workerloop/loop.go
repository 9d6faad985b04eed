// Package workerloop wires the scheduler core into the running process:
// one worker-pool loop per service calling lockAvailable/complete, one
// maintenance loop per service calling unlockStaleProcessing, checkIdle
// and stats, and one process-wide loop calling deleteOldEntries
// (spec.md §2, §5).
package workerloop

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
	"github.com/bobmcallan/pkgjobs/internal/scheduler"
	"github.com/bobmcallan/pkgjobs/internal/stats"
)

// Processor executes the actual work for a locked job (spec.md §1's "the
// scheduler ensures each item is processed" — the processing itself is
// the out-of-scope analyzer/dartdoc/search-reindex work this core only
// coordinates).
type Processor func(ctx context.Context, job *models.Job) error

// ShouldProcess is forwarded to Scheduler.CheckIdle per service.
type ShouldProcess = interfaces.ShouldProcessFunc

// Runner owns one worker pool and one maintenance loop per configured
// service. Safe to Start once; Stop cancels every loop and waits for
// them to exit.
type Runner struct {
	sched      *scheduler.Scheduler
	aggregator *stats.Aggregator
	logger     *common.Logger
	cfg        common.WorkerConfig
	poll       time.Duration

	services  []models.Service
	process   Processor
	predicate ShouldProcess

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Runner. process handles a locked job; predicate is
// the freshness check CheckIdle injects per spec.md §4.7.
func New(
	sched *scheduler.Scheduler,
	aggregator *stats.Aggregator,
	logger *common.Logger,
	cfg common.WorkerConfig,
	poll time.Duration,
	services []models.Service,
	process Processor,
	predicate ShouldProcess,
) *Runner {
	return &Runner{
		sched:      sched,
		aggregator: aggregator,
		logger:     logger,
		cfg:        cfg,
		poll:       poll,
		services:   services,
		process:    process,
		predicate:  predicate,
	}
}

// safeGo launches a goroutine with panic recovery and logging, so a bug
// in one service's loop never brings down the whole process.
func (r *Runner) safeGo(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", rec)).
					Str("stack", string(debug.Stack())).
					Msg("recovered from panic in worker loop goroutine")
			}
		}()
		fn()
	}()
}

// Start launches, per service, one maintenance loop and cfg.Concurrency
// worker loops. Safe to call multiple times — stops any existing loops
// before starting.
func (r *Runner) Start() {
	if r.cancel != nil {
		r.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	concurrency := r.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	for _, service := range r.services {
		service := service
		r.safeGo("maintenance-"+string(service), func() { r.maintenanceLoop(ctx, service) })

		for i := 0; i < concurrency; i++ {
			name := fmt.Sprintf("worker-%s-%d", service, i)
			r.safeGo(name, func() { r.workLoop(ctx, service) })
		}
	}

	if r.cfg.GCBeforeVersion != "" {
		r.safeGo("gc", func() { r.gcLoop(ctx) })
	}

	r.logger.Info().
		Int("services", len(r.services)).
		Int("concurrency", concurrency).
		Dur("poll", r.poll).
		Msg("worker loops started")
}

// Stop cancels every loop and waits for them to exit.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.wg.Wait()
	r.logger.Info().Msg("worker loops stopped")
}

// workLoop repeatedly locks, processes, and completes jobs for service.
func (r *Runner) workLoop(ctx context.Context, service models.Service) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := r.sched.LockAvailable(ctx, service)
		if err != nil {
			r.logger.Warn().Str("service", string(service)).Err(err).Msg("lockAvailable failed")
			if !sleepOrDone(ctx, time.Second) {
				return
			}
			continue
		}
		if job == nil {
			if !sleepOrDone(ctx, time.Second) {
				return
			}
			continue
		}

		status := models.StatusSuccess
		if err := r.process(ctx, job); err != nil {
			r.logger.Warn().
				Str("job_id", job.ID).
				Str("package", job.PackageName).
				Err(err).
				Msg("job processing failed")
			status = models.StatusFailed
		}

		if err := r.sched.Complete(ctx, job, status); err != nil {
			r.logger.Warn().Str("job_id", job.ID).Err(err).Msg("complete failed")
		}
	}
}

// maintenanceLoop periodically recovers stale leases, re-activates idle
// jobs, and refreshes statistics for service; garbage collection of stale
// runtime versions runs separately in gcLoop. Its poll cadence is bounded
// by a rate.Limiter
// rather than a bare ticker, so a slow sweep never causes bursts of
// queued ticks to fire back-to-back once it catches up.
func (r *Runner) maintenanceLoop(ctx context.Context, service models.Service) {
	limiter := rate.NewLimiter(rate.Every(r.poll), 1)

	sweep := func() {
		if err := r.sched.UnlockStaleProcessing(ctx, service); err != nil {
			r.logger.Warn().Str("service", string(service)).Err(err).Msg("unlockStaleProcessing failed")
		}
		if r.predicate != nil {
			if err := r.sched.CheckIdle(ctx, service, r.predicate); err != nil {
				r.logger.Warn().Str("service", string(service)).Err(err).Msg("checkIdle failed")
			}
		}
		if r.aggregator != nil {
			if _, eta, err := r.aggregator.Take(ctx, service); err != nil {
				r.logger.Warn().Str("service", string(service)).Err(err).Msg("stats Take failed")
			} else {
				r.logger.Debug().Str("service", string(service)).Str("eta", eta.Text).Msg("stats refreshed")
			}
		}
	}

	sweep()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		sweep()
	}
}

// gcLoop periodically deletes jobs whose runtimeVersion is older than
// cfg.GCBeforeVersion (spec.md §4.10). It runs once for the whole
// process, not per service — the job table it scans isn't partitioned
// by service.
func (r *Runner) gcLoop(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(r.poll), 1)

	sweep := func() {
		n, err := r.sched.DeleteOldEntries(ctx, r.cfg.GCBeforeVersion)
		if err != nil {
			r.logger.Warn().Err(err).Msg("deleteOldEntries failed")
		} else if n > 0 {
			r.logger.Info().Int("deleted", n).Msg("garbage-collected stale runtime-version jobs")
		}
	}

	sweep()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		sweep()
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
