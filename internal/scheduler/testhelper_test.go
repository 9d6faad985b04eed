package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/pkgjobs/internal/common"
	"github.com/bobmcallan/pkgjobs/internal/datastore/embedded"
	"github.com/bobmcallan/pkgjobs/internal/interfaces"
	"github.com/bobmcallan/pkgjobs/internal/models"
)

func testLogger() *common.Logger {
	return common.NewLogger("error")
}

func newTestDatastore(t *testing.T) *embedded.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := embedded.New(testLogger(), filepath.Join(dir, "jobs"))
	if err != nil {
		t.Fatalf("embedded.New failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSchedulerConfig() common.SchedulerConfig {
	cfg := common.NewDefaultConfig().Scheduler
	cfg.LockCandidateLimit = 100
	cfg.HeadBiasWindow = 20
	cfg.PriorityBase = 1000
	cfg.PriorityAlpha = 500
	cfg.GCBatchSize = 20
	return cfg
}

// fakePackageStore is an in-memory stand-in for the out-of-scope package
// metadata collaborator (spec.md §6).
type fakePackageStore struct {
	packages map[string]*interfaces.Package
	versions map[string]*interfaces.PackageVersion
}

func newFakePackageStore() *fakePackageStore {
	return &fakePackageStore{
		packages: make(map[string]*interfaces.Package),
		versions: make(map[string]*interfaces.PackageVersion),
	}
}

func (f *fakePackageStore) GetPackage(_ context.Context, name string) (*interfaces.Package, error) {
	return f.packages[name], nil
}

func (f *fakePackageStore) GetPackageVersion(_ context.Context, name, version string) (*interfaces.PackageVersion, error) {
	return f.versions[name+"@"+version], nil
}

func (f *fakePackageStore) putPackage(name, latest string, notVisible bool) {
	f.packages[name] = &interfaces.Package{Name: name, LatestVersion: latest, IsNotVisible: notVisible}
}

func (f *fakePackageStore) putVersion(name, version string, created interfaces.PackageVersion) {
	f.versions[name+"@"+version] = &created
}

// fakePopularity returns a fixed score per package, 0 for anything unset.
type fakePopularity struct {
	scores map[string]float64
}

func newFakePopularity() *fakePopularity {
	return &fakePopularity{scores: make(map[string]float64)}
}

func (f *fakePopularity) Popularity(name string) float64 {
	return f.scores[name]
}

func newTestScheduler(t *testing.T, packages interfaces.PackageStore, popularity interfaces.PopularityOracle) (*Scheduler, *embedded.Store) {
	t.Helper()
	ds := newTestDatastore(t)
	s := New(ds, packages, popularity, testLogger(), testSchedulerConfig(), func() string { return "v1" })
	return s, ds
}

func putTestJob(t *testing.T, ds interfaces.Datastore, job *models.Job) {
	t.Helper()
	err := ds.RunTx(context.Background(), func(ctx context.Context, tx interfaces.Tx) error {
		return tx.PutJob(ctx, job)
	})
	if err != nil {
		t.Fatalf("seeding job %s: %v", job.ID, err)
	}
}
