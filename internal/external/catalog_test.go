package external

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	contents := `{
		"widely_used": {
			"latest_version": "2.0.0",
			"popularity": 0.9,
			"versions": {
				"2.0.0": {"created": "2026-01-01T00:00:00Z"},
				"1.0.0": {"created": "2025-01-01T00:00:00Z"}
			}
		},
		"hidden_pkg": {
			"latest_version": "1.0.0",
			"is_not_visible": true,
			"versions": {"1.0.0": {"created": "2025-01-01T00:00:00Z"}}
		}
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCatalog_GetPackage(t *testing.T) {
	path := writeTestCatalog(t)
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	pkg, err := cat.GetPackage(context.Background(), "widely_used")
	if err != nil {
		t.Fatalf("GetPackage: %v", err)
	}
	if pkg == nil || pkg.LatestVersion != "2.0.0" {
		t.Fatalf("expected latest_version 2.0.0, got %+v", pkg)
	}

	hidden, _ := cat.GetPackage(context.Background(), "hidden_pkg")
	if hidden == nil || !hidden.IsNotVisible {
		t.Errorf("expected hidden_pkg to be not-visible, got %+v", hidden)
	}

	missing, _ := cat.GetPackage(context.Background(), "ghost")
	if missing != nil {
		t.Errorf("expected nil for a package absent from the catalog, got %+v", missing)
	}
}

func TestCatalog_GetPackageVersion(t *testing.T) {
	path := writeTestCatalog(t)
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	pv, err := cat.GetPackageVersion(context.Background(), "widely_used", "1.0.0")
	if err != nil {
		t.Fatalf("GetPackageVersion: %v", err)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if pv == nil || !pv.Created.Equal(want) {
		t.Errorf("expected created %v, got %+v", want, pv)
	}

	missing, _ := cat.GetPackageVersion(context.Background(), "widely_used", "9.9.9")
	if missing != nil {
		t.Errorf("expected nil for an absent version, got %+v", missing)
	}
}

func TestCatalog_Popularity_MissingPackageIsZero(t *testing.T) {
	path := writeTestCatalog(t)
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if got := cat.Popularity("widely_used"); got != 0.9 {
		t.Errorf("expected popularity 0.9, got %f", got)
	}
	if got := cat.Popularity("ghost"); got != 0 {
		t.Errorf("expected popularity 0 for an unknown package, got %f", got)
	}
}
