// Package config loads the telescope settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sudorandom/telescope/pkg/sde"
	"github.com/sudorandom/telescope/pkg/sources"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "telescope"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	DefaultSDEURL = sources.SDEURL
)

// Settings is the content of ~/.config/telescope/config.yml.
type Settings struct {
	SDEPath           string        `yaml:"sde_path,omitempty"`
	SDEURL            string        `yaml:"sde_url,omitempty"`
	CacheDir          string        `yaml:"cache_dir,omitempty"`
	Factor            int64         `yaml:"factor,omitempty"`
	RegionFactor      int64         `yaml:"region_factor,omitempty"`
	InvertCoordinates *bool         `yaml:"invert_coordinates,omitempty"`
	MinZoom           float64       `yaml:"min_zoom,omitempty"`
	MaxZoom           float64       `yaml:"max_zoom,omitempty"`
	PulseDuration     time.Duration `yaml:"pulse_duration,omitempty"`
	AlertSound        string        `yaml:"alert_sound,omitempty"`
	Intel             Intel         `yaml:"intel,omitempty"`
	Location          Location      `yaml:"location,omitempty"`
}

// Intel configures chat log tailing.
type Intel struct {
	Dir          string        `yaml:"dir,omitempty"`
	Channels     []string      `yaml:"channels,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// Location configures the live character location feed.
type Location struct {
	URL    string `yaml:"url,omitempty"`
	Follow bool   `yaml:"follow,omitempty"`
}

// Path returns the path to the config file. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/telescope/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// Load reads the config file at path. A missing file yields the defaults,
// not an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	s.applyDefaults()
	return &s, nil
}

// Invert reports whether coordinates are sign-flipped at ingestion.
func (s *Settings) Invert() bool {
	return s.InvertCoordinates == nil || *s.InvertCoordinates
}

// Correction is applied to universe coordinates.
func (s *Settings) Correction() sde.Correction {
	return sde.Correction{Factor: s.Factor, Invert: s.Invert()}
}

// RegionCorrection is applied to the schematic regional layout. It scales
// only.
func (s *Settings) RegionCorrection() sde.Correction {
	return sde.Correction{Factor: s.RegionFactor}
}

func (s *Settings) applyDefaults() {
	dataDir := defaultDataDir()
	if s.SDEURL == "" {
		s.SDEURL = DefaultSDEURL
	}
	if s.SDEPath == "" {
		s.SDEPath = filepath.Join(dataDir, "sde.sqlite")
	}
	if s.CacheDir == "" {
		s.CacheDir = filepath.Join(dataDir, "cache")
	}
	if s.Factor == 0 {
		s.Factor = sde.DefaultFactor
	}
	if s.RegionFactor == 0 {
		s.RegionFactor = sde.DefaultRegionFactor
	}
	if s.MinZoom <= 0 {
		s.MinZoom = 0.01
	}
	if s.MaxZoom <= 0 {
		s.MaxZoom = 50
	}
	if s.PulseDuration <= 0 {
		s.PulseDuration = 5 * time.Second
	}
	if s.Intel.PollInterval <= 0 {
		s.Intel.PollInterval = time.Second
	}
	s.SDEPath = ExpandTilde(s.SDEPath)
	s.CacheDir = ExpandTilde(s.CacheDir)
	s.AlertSound = ExpandTilde(s.AlertSound)
	s.Intel.Dir = ExpandTilde(s.Intel.Dir)
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, ConfigDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigDir
	}
	return filepath.Join(home, ".local", "share", ConfigDir)
}

// ExpandTilde replaces a leading ~ with the home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
