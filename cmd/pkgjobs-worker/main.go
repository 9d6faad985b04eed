package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/datastore/embedded"
	"github.com/bobmcallan/pkgjobs/internal/datastore/surreal"
	"github.com/bobmcallan/pkgjobs/internal/external"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
	"github.com/bobmcallan/pkgjobs/internal/scheduler"
	"github.com/bobmcallan/pkgjobs/internal/stats"
	"github.com/bobmcallan/pkgjobs/internal/workerloop"
)

func main() {
	configPath := os.Getenv("PKGJOBS_CONFIG")

	cfg, err := common.LoadConfig(configPath, "pkgjobs.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	common.LoadVersionFromFile()
	logger := common.NewLogger(cfg.Logging.Level)

	catalog, err := external.LoadCatalog(cfg.Worker.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Worker.CatalogPath).Msg("failed to load package catalog")
	}

	ds, err := openDatastore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open datastore")
	}

	sched := scheduler.New(ds, catalog, catalog, logger, cfg.Scheduler, common.CurrentRuntimeVersion)
	aggregator := stats.NewAggregator(ds, common.CurrentRuntimeVersion, stats.NewHistory())

	services := make([]models.Service, 0, len(cfg.Worker.Services))
	for _, s := range cfg.Worker.Services {
		services = append(services, models.Service(s))
	}

	runner := workerloop.New(
		sched,
		aggregator,
		logger,
		cfg.Worker,
		cfg.Scheduler.GetMaintenancePoll(),
		services,
		processJob,
		staleAfter(cfg.Scheduler.GetLongExtend()),
	)

	common.PrintBanner(cfg, logger)
	runner.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	common.PrintShutdownBanner(logger)
	runner.Stop()

	if err := ds.Close(); err != nil {
		logger.Warn().Err(err).Msg("datastore close failed")
	}
}

// openDatastore constructs the configured Datastore backend.
func openDatastore(cfg *common.Config, logger *common.Logger) (interfaces.Datastore, error) {
	switch cfg.Datastore.Backend {
	case "surreal":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return surreal.New(ctx, cfg.Datastore.Surreal, logger)
	default:
		return embedded.New(logger, cfg.Datastore.EmbeddedPath)
	}
}

// processJob stands in for the out-of-scope analyzer/dartdoc/search-reindex
// workers (spec.md §1): it does no work and returns nil, so every locked
// job is completed as a success. A real deployment swaps this for the
// actual per-service work.
func processJob(_ context.Context, job *models.Job) error {
	return nil
}

// staleAfter builds a CheckIdle predicate that treats a package version as
// still fresh for the given window, mirroring the longExtend backoff so an
// idle job isn't re-activated faster than a worker could plausibly notice
// a new release (spec.md §4.7).
func staleAfter(window time.Duration) interfaces.ShouldProcessFunc {
	return func(_ context.Context, _ string, _ string, packageVersionUpdated time.Time) (bool, error) {
		return time.Since(packageVersionUpdated) < window, nil
	}
}
