package sde

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sudorandom/telescope/pkg/mapengine"
	"github.com/sudorandom/telescope/pkg/utils"
)

// Source loads datasets from the export, going through the dataset cache
// when one is configured.
type Source struct {
	Path       string
	Correction Correction
	// Region corrects the schematic regional layout.
	Region Correction
	Cache      *utils.DatasetCache
}

// UniverseLoader returns a mapengine.LoadFunc for the whole universe.
func (s *Source) UniverseLoader() mapengine.LoadFunc {
	return func(ctx context.Context) (mapengine.Dataset, error) {
		return s.load(ctx, "universe", func(r *Reader) (mapengine.Dataset, error) {
			return r.Universe(ctx)
		})
	}
}

// RegionLoader returns a mapengine.LoadFunc for the schematic layout of the
// given regions.
func (s *Source) RegionLoader(regionIDs ...int64) mapengine.LoadFunc {
	ids := append([]int64(nil), regionIDs...)
	return func(ctx context.Context) (mapengine.Dataset, error) {
		return s.load(ctx, "region:"+joinIDs(ids), func(r *Reader) (mapengine.Dataset, error) {
			return r.Region(ctx, ids...)
		})
	}
}

func (s *Source) load(ctx context.Context, kind string, read func(*Reader) (mapengine.Dataset, error)) (mapengine.Dataset, error) {
	key, err := s.cacheKey(kind)
	if err != nil {
		return mapengine.Dataset{}, err
	}
	if s.Cache != nil {
		ds, ok, err := s.Cache.Get(key)
		if err != nil {
			log.Printf("[SDE] Ignoring unreadable cache entry %s: %v", key, err)
		} else if ok {
			log.Printf("[SDE] Using cached dataset %s", key)
			return ds, nil
		}
	}

	r, err := Open(s.Path, s.Correction, s.Region)
	if err != nil {
		return mapengine.Dataset{}, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("[SDE] Error closing export: %v", err)
		}
	}()
	ds, err := read(r)
	if err != nil {
		return mapengine.Dataset{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.Put(key, ds); err != nil {
			log.Printf("[SDE] Failed to cache %s: %v", key, err)
		}
	}
	return ds, nil
}

// cacheKey ties a cache entry to the export file version and the correction
// that produced it.
func (s *Source) cacheKey(kind string) (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("reading sde: %w", err)
	}
	c := s.Correction
	if strings.HasPrefix(kind, "region:") {
		c = s.Region
	}
	return fmt.Sprintf("%s:%d:%d:%t", kind, info.ModTime().Unix(), c.Factor, c.Invert), nil
}
