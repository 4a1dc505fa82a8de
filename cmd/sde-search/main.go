package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/sudorandom/telescope/pkg/config"
	"github.com/sudorandom/telescope/pkg/sde"
)

var (
	title  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
)

var cli struct {
	Config       string `help:"Config file." type:"path"`
	SDE          string `name:"sde" help:"SQLite static data export." type:"path"`
	Limit        int    `help:"Maximum number of results." default:"25"`
	ExportLabels string `help:"Write region labels as GeoJSON to this file." type:"path"`
	Query        string `arg:"" optional:"" help:"Part of a system name."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("sde-search"),
		kong.Description("Look up solar systems in the static data export."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	path := cli.Config
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	ctx.FatalIfErrorf(err)
	if cli.SDE != "" {
		cfg.SDEPath = cli.SDE
	}

	r, err := sde.Open(cfg.SDEPath, cfg.Correction(), cfg.RegionCorrection())
	ctx.FatalIfErrorf(err)
	defer r.Close()

	if cli.ExportLabels != "" {
		ctx.FatalIfErrorf(exportLabels(r, cli.ExportLabels))
	}
	if cli.Query == "" {
		return
	}

	results, err := r.Search(context.Background(), cli.Query, cli.Limit)
	ctx.FatalIfErrorf(err)
	if len(results) == 0 {
		warn.Printf("No systems matching %q\n", cli.Query)
		return
	}

	title.Printf("%d systems matching %q\n\n", len(results), cli.Query)
	nameW := len("System")
	for _, res := range results {
		nameW = max(nameW, len(res.SystemName))
	}
	subtle.Printf("  %-*s  %-10s  %-20s  %s\n", nameW, "System", "ID", "Map position", "Region")
	subtle.Printf("  %s  %s  %s  %s\n", strings.Repeat("─", nameW), strings.Repeat("─", 10), strings.Repeat("─", 20), strings.Repeat("─", 16))
	for _, res := range results {
		pos, err := r.SystemCoords(context.Background(), res.SystemID)
		coords := "-"
		if err == nil {
			coords = fmt.Sprintf("%.2f, %.2f", pos.X, pos.Y)
		}
		fmt.Printf("  %-*s  %-10d  %-20s  %s\n", nameW, res.SystemName, res.SystemID, coords, res.RegionName)
	}
}

func exportLabels(r *sde.Reader, path string) error {
	labels, err := r.RegionLabels(context.Background())
	if err != nil {
		return err
	}
	data, err := sde.LabelsToGeoJSON(labels)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing labels: %w", err)
	}
	log.Printf("[SDE] Wrote %d region labels to %s", len(labels), path)
	return nil
}
