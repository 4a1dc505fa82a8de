package sde

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/sudorandom/telescope/pkg/mapengine"
	"github.com/sudorandom/telescope/pkg/utils"
)

func TestSourceUsesCache(t *testing.T) {
	path := newFixture(t)
	cache, err := utils.OpenDatasetCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	defer cache.Close()

	src := &Source{Path: path, Correction: Correction{Factor: 1000, Invert: true}, Cache: cache}
	first, err := src.UniverseLoader()(context.Background())
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	keys, _ := cache.Keys()
	if len(keys) != 1 {
		t.Fatalf("cache keys = %v; want one entry", keys)
	}

	// Empty the export but keep its version; the second load must not need it.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`DELETE FROM mapSolarSystems`); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	second, err := src.UniverseLoader()(context.Background())
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if len(second.Points) != len(first.Points) || len(second.Edges) != len(first.Edges) {
		t.Errorf("cached load = %d points %d edges; want %d and %d",
			len(second.Points), len(second.Edges), len(first.Points), len(first.Edges))
	}

	// A different correction is a different key.
	other := &Source{Path: path, Correction: Identity, Cache: cache}
	ds, err := other.UniverseLoader()(context.Background())
	if err != nil {
		t.Fatalf("load with new correction failed: %v", err)
	}
	if len(ds.Points) != 0 {
		t.Errorf("load with new correction returned %d points from a stale entry", len(ds.Points))
	}
}

func TestSourceWithoutCache(t *testing.T) {
	src := &Source{Path: newFixture(t), Correction: Identity, Region: Correction{Factor: DefaultRegionFactor}}
	ds, err := src.RegionLoader(10000043)(context.Background())
	if err != nil {
		t.Fatalf("RegionLoader failed: %v", err)
	}
	if len(ds.Points) != 1 || ds.Points[0].Name != "Amarr" || ds.Points[0].Pos != (mapengine.Vec2{X: 80, Y: 80}) {
		t.Errorf("RegionLoader(Domain) = %+v; want Amarr at (80,80)", ds.Points)
	}

	missing := &Source{Path: filepath.Join(t.TempDir(), "nope.sqlite")}
	if _, err := missing.UniverseLoader()(context.Background()); err == nil {
		t.Error("expected an error for a missing export")
	}
}

func TestSourceCacheKeyUsesRegionCorrection(t *testing.T) {
	path := newFixture(t)
	a := &Source{Path: path, Correction: Identity, Region: Correction{Factor: -2}}
	b := &Source{Path: path, Correction: Identity, Region: Correction{Factor: -4}}

	ka, err := a.cacheKey("region:10000002")
	if err != nil {
		t.Fatalf("cacheKey failed: %v", err)
	}
	kb, _ := b.cacheKey("region:10000002")
	if ka == kb {
		t.Errorf("region keys %q and %q should differ by region factor", ka, kb)
	}
	ua, _ := a.cacheKey("universe")
	ub, _ := b.cacheKey("universe")
	if ua != ub {
		t.Errorf("universe keys %q and %q should not depend on the region factor", ua, ub)
	}
}
