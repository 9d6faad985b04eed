// Package external provides minimal, file-backed implementations of the
// scheduler's out-of-scope collaborators (spec.md §1, §6): the package
// metadata store and the popularity oracle. Production deployments are
// expected to swap these for real services behind the same interfaces;
// this package exists so cmd/pkgjobs-worker can run standalone against
// a local catalog snapshot.
package external

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
)

// catalogEntry is the on-disk shape of one package's metadata.
type catalogEntry struct {
	LatestVersion string             `json:"latest_version"`
	IsNotVisible  bool               `json:"is_not_visible"`
	Popularity    float64            `json:"popularity"`
	Versions      map[string]version `json:"versions"`
}

type version struct {
	Created time.Time `json:"created"`
}

// Catalog is a read-only, in-memory snapshot of package metadata loaded
// from a JSON file, implementing both interfaces.PackageStore and
// interfaces.PopularityOracle.
type Catalog struct {
	entries map[string]catalogEntry
}

// LoadCatalog reads a JSON catalog file of the shape
// {"package_name": {"latest_version": "...", "versions": {"1.0.0": {"created": "..."}}}}.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return &Catalog{entries: entries}, nil
}

// GetPackage implements interfaces.PackageStore.
func (c *Catalog) GetPackage(_ context.Context, name string) (*interfaces.Package, error) {
	entry, ok := c.entries[name]
	if !ok {
		return nil, nil
	}
	return &interfaces.Package{
		Name:          name,
		LatestVersion: entry.LatestVersion,
		IsNotVisible:  entry.IsNotVisible,
	}, nil
}

// GetPackageVersion implements interfaces.PackageStore.
func (c *Catalog) GetPackageVersion(_ context.Context, name, ver string) (*interfaces.PackageVersion, error) {
	entry, ok := c.entries[name]
	if !ok {
		return nil, nil
	}
	v, ok := entry.Versions[ver]
	if !ok {
		return nil, nil
	}
	return &interfaces.PackageVersion{Created: v.Created}, nil
}

// Popularity implements interfaces.PopularityOracle: never errors, missing
// packages resolve to 0 (spec.md §6).
func (c *Catalog) Popularity(name string) float64 {
	entry, ok := c.entries[name]
	if !ok {
		return 0
	}
	return entry.Popularity
}

var (
	_ interfaces.PackageStore    = (*Catalog)(nil)
	_ interfaces.PopularityOracle = (*Catalog)(nil)
)
