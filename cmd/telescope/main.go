package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"
	"github.com/sudorandom/telescope/pkg/config"
	"github.com/sudorandom/telescope/pkg/intel"
	"github.com/sudorandom/telescope/pkg/location"
	"github.com/sudorandom/telescope/pkg/mapengine"
	"github.com/sudorandom/telescope/pkg/sde"
	"github.com/sudorandom/telescope/pkg/sources"
	"github.com/sudorandom/telescope/pkg/utils"
	"github.com/sudorandom/telescope/pkg/viewer"
	"golang.org/x/sync/errgroup"
)

var cli struct {
	Config       string  `help:"Config file." type:"path"`
	SDE          string  `name:"sde" help:"SQLite static data export, downloaded if missing." type:"path"`
	Width        int     `help:"Initial window width." default:"1280"`
	Height       int     `help:"Initial window height." default:"800"`
	TPS          int     `name:"tps" help:"Ticks per second (engine updates)." default:"60"`
	Panes        int     `help:"Number of map panes to open." default:"1"`
	Region       []int64 `help:"Open the schematic layout of these regions instead of the universe."`
	RegionFactor int64   `help:"Scale of the schematic regional layout; negative multiplies. Overrides region_factor."`
	Labels       string  `help:"GeoJSON file of labels in map coordinates, replacing the region labels." type:"existingfile"`
	Follow       bool    `help:"Center the map on the tracked character when it moves."`
	NoCache      bool    `help:"Read the export directly, skipping the dataset cache."`
	ClearCache   bool    `help:"Drop every cached dataset before starting."`
	Update       bool    `help:"Download the export again if a newer one was published."`
	Debug        bool    `help:"Show the stats overlay."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("telescope"),
		kong.Description("Star map with live intel and character tracking."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	path := cli.Config
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cli.SDE != "" {
		cfg.SDEPath = cli.SDE
	}
	if cli.Follow {
		cfg.Location.Follow = true
	}
	if cli.RegionFactor != 0 {
		cfg.RegionFactor = cli.RegionFactor
	}

	if err := utils.EnsureFile(cfg.SDEURL, cfg.SDEPath); err != nil {
		log.Fatalf("Failed to fetch static data export: %v", err)
	}
	if cli.Update {
		if _, err := sources.Update(context.Background(), cfg.SDEURL, cfg.SDEURL+".md5", cfg.SDEPath); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	src := &sde.Source{
		Path:       cfg.SDEPath,
		Correction: cfg.Correction(),
		Region:     cfg.RegionCorrection(),
	}
	if !cli.NoCache {
		cache, err := utils.OpenDatasetCache(cfg.CacheDir)
		if err != nil {
			log.Printf("Warning: dataset cache disabled: %v", err)
		} else {
			defer cache.Close()
			src.Cache = cache
			if cli.ClearCache {
				clearCache(cache)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var alert *viewer.Alert
	if cfg.AlertSound != "" {
		if alert, err = viewer.LoadAlert(cfg.AlertSound); err != nil {
			log.Printf("Warning: no alert sound: %v", err)
		}
	}

	initial := src.UniverseLoader()
	if len(cli.Region) > 0 {
		initial = src.RegionLoader(cli.Region...)
	}
	if cli.Labels != "" {
		initial = withLabels(initial, cli.Labels)
	}

	broadcaster := mapengine.NewBroadcaster(mapengine.DefaultCommandBuffer)
	v := viewer.New(ctx, viewer.Options{
		Width:       cli.Width,
		Height:      cli.Height,
		Broadcaster: broadcaster,
		Universe:    initial,
		Region:      src.RegionLoader,
		Alert:       alert,
		Debug:       cli.Debug,
		Engine: mapengine.Options{
			MinZoom:       cfg.MinZoom,
			MaxZoom:       cfg.MaxZoom,
			PulseDuration: cfg.PulseDuration,
		},
	})
	for i := 1; i < cli.Panes; i++ {
		v.AddPane()
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Intel.Dir != "" {
		g.Go(func() error {
			names, err := systemNames(gctx, src)
			if err != nil {
				log.Printf("[INTEL] Disabled: %v", err)
				return nil
			}
			t := intel.NewTailer(cfg.Intel.Dir, cfg.Intel.Channels, intel.NewMatcher(names), broadcaster)
			t.Interval = cfg.Intel.PollInterval
			return t.Run(gctx)
		})
	}
	if cfg.Location.URL != "" {
		g.Go(func() error {
			return location.NewClient(cfg.Location.URL, cfg.Location.Follow, broadcaster).Run(gctx)
		})
	}

	ebiten.SetWindowSize(cli.Width, cli.Height)
	ebiten.SetWindowTitle("Telescope")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cli.TPS)
	runErr := ebiten.RunGame(v)
	stop()
	if err := g.Wait(); err != nil {
		log.Printf("Worker error: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func systemNames(ctx context.Context, src *sde.Source) (map[string]int64, error) {
	r, err := sde.Open(src.Path, src.Correction, src.Region)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.SystemNames(ctx)
}

func clearCache(cache *utils.DatasetCache) {
	keys, err := cache.Keys()
	if err != nil {
		log.Printf("[CACHE] Failed to list datasets: %v", err)
	}
	if err := cache.Delete(""); err != nil {
		log.Printf("[CACHE] Failed to clear: %v", err)
		return
	}
	log.Printf("[CACHE] Dropped %d cached datasets", len(keys))
}

// withLabels swaps the labels of a loaded dataset for those in a GeoJSON
// file, as written by sde-search --export-labels.
func withLabels(fn mapengine.LoadFunc, path string) mapengine.LoadFunc {
	return func(ctx context.Context) (mapengine.Dataset, error) {
		ds, err := fn(ctx)
		if err != nil {
			return ds, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ds, fmt.Errorf("reading labels: %w", err)
		}
		labels, err := sde.LoadLabelsGeoJSON(data, sde.Identity)
		if err != nil {
			return ds, err
		}
		ds.Labels = labels
		return ds, nil
	}
}
