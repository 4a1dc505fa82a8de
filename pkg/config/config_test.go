package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/telescope/config.yml"; got != want {
		t.Errorf("Path() = %q; want %q", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load on a missing file failed: %v", err)
	}
	if s.Factor != 50000000000000 || s.RegionFactor != -2 || !s.Invert() {
		t.Errorf("defaults: factor %d region factor %d invert %v", s.Factor, s.RegionFactor, s.Invert())
	}
	if c := s.RegionCorrection(); c.Factor != -2 || c.Invert {
		t.Errorf("RegionCorrection() = %+v; want factor -2 without inversion", c)
	}
	if s.MinZoom != 0.01 || s.MaxZoom != 50 {
		t.Errorf("defaults: zoom %v..%v; want 0.01..50", s.MinZoom, s.MaxZoom)
	}
	if s.PulseDuration != 5*time.Second || s.Intel.PollInterval != time.Second {
		t.Errorf("defaults: pulse %v poll %v", s.PulseDuration, s.Intel.PollInterval)
	}
	if s.SDEURL != DefaultSDEURL || s.SDEPath == "" || s.CacheDir == "" {
		t.Errorf("defaults: %+v", s)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `sde_path: /data/sde.sqlite
factor: 1000
region_factor: -3
invert_coordinates: false
max_zoom: 10
pulse_duration: 2s
alert_sound: /sounds/alert.mp3
intel:
  dir: /logs/Chatlogs
  channels: [delve.imperium, Standing Fleet]
location:
  url: ws://localhost:8182/location
  follow: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.SDEPath != "/data/sde.sqlite" || s.Factor != 1000 || s.Invert() {
		t.Errorf("Load = %+v", s)
	}
	if c := s.Correction(); c.Factor != 1000 || c.Invert {
		t.Errorf("Correction() = %+v", c)
	}
	if s.RegionFactor != -3 || s.RegionCorrection().Factor != -3 {
		t.Errorf("RegionFactor = %d", s.RegionFactor)
	}
	if s.MinZoom != 0.01 || s.MaxZoom != 10 || s.PulseDuration != 2*time.Second {
		t.Errorf("zoom %v..%v pulse %v", s.MinZoom, s.MaxZoom, s.PulseDuration)
	}
	if len(s.Intel.Channels) != 2 || s.Intel.Channels[1] != "Standing Fleet" || s.Intel.Dir != "/logs/Chatlogs" {
		t.Errorf("Intel = %+v", s.Intel)
	}
	if s.Location.URL != "ws://localhost:8182/location" || !s.Location.Follow {
		t.Errorf("Location = %+v", s.Location)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("factor: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct{ in, want string }{
		{"~/sde.sqlite", filepath.Join(home, "sde.sqlite")},
		{"/abs/path", "/abs/path"},
		{"~other", "~other"},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
