package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"dayview/internal/grid"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
)

// Defaults mirror the mobile day view the layout was tuned for.
const (
	DefaultListen         = "127.0.0.1:8080"
	DefaultRefreshCron    = "*/15 * * * *"
	DefaultWidth          = 390
	DefaultLeftMargin     = 59
	DefaultHourHeight     = grid.DefaultHourHeight
	DefaultMinEventHeight = layout.DefaultMinEventHeight
	DefaultCacheDir       = "~/.cache/dayview"
)

// SourceConfig describes one event source. Exactly one of URL or Path is
// expected; URL wins when both are set.
type SourceConfig struct {
	// ID is an internal identifier used for logging and event attribution.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// URL is an ICS subscription endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Path is a local .ics, .yaml/.yml or .csv file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Color overrides the color of every event from this source.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web service.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of `dayview serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Window is the visible hour range.
	Window grid.Window `yaml:"window" json:"window"`

	// HourHeight is the vertical scale in pixels per hour.
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`

	// Width is the viewport width; LeftMargin is reserved for hour labels,
	// so blocks get Width - LeftMargin.
	Width      float64 `yaml:"width" json:"width"`
	LeftMargin float64 `yaml:"left_margin" json:"left_margin"`

	// MinEventHeight floors block height so short events stay legible.
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height"`

	// Format24h selects "13:00" over "1 PM" hour labels.
	Format24h bool `yaml:"format_24h" json:"format_24h"`

	// RefreshCron is the cron schedule (5 fields) for reloading sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the ICS HTTP cache and the layout cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         DefaultListen,
		Window:         grid.FullDay,
		HourHeight:     DefaultHourHeight,
		Width:          DefaultWidth,
		LeftMargin:     DefaultLeftMargin,
		MinEventHeight: DefaultMinEventHeight,
		Format24h:      true,
		RefreshCron:    DefaultRefreshCron,
		CacheDir:       DefaultCacheDir,
		LogLevel:       "info",
		Sources:        []SourceConfig{},
	}
}

// Normalize fills in missing/zero values and repairs out-of-range ones so
// that partially-filled configs still produce a usable view.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Window == (grid.Window{}) {
		c.Window = grid.FullDay
	}
	c.Window = c.Window.Normalize()
	if c.HourHeight <= 0 {
		c.HourHeight = DefaultHourHeight
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.LeftMargin < 0 || c.LeftMargin >= c.Width {
		c.LeftMargin = DefaultLeftMargin
		if c.LeftMargin >= c.Width {
			c.LeftMargin = 0
		}
	}
	if c.MinEventHeight < 0 {
		c.MinEventHeight = DefaultMinEventHeight
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		appLog.Error("invalid refresh schedule; using default", err, "refresh", c.RefreshCron)
		c.RefreshCron = DefaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.ID == "" {
			switch {
			case s.Name != "":
				s.ID = s.Name
			case s.URL != "":
				s.ID = s.URL
			default:
				s.ID = s.Path
			}
		}
	}
}

// EventWidth is the horizontal space available to event blocks.
func (c *Config) EventWidth() float64 {
	return c.Width - c.LeftMargin
}

// LayoutParams returns the layout parameters for the configured view.
func (c *Config) LayoutParams() layout.Params {
	return layout.Params{
		StartHour:      c.Window.StartHour,
		EndHour:        c.Window.EndHour,
		Width:          c.EventWidth(),
		MinEventHeight: c.MinEventHeight,
		HourHeight:     c.HourHeight,
	}
}

// ResolvedCacheDir expands a leading "~" in CacheDir.
func (c *Config) ResolvedCacheDir() string {
	dir, err := homedir.Expand(c.CacheDir)
	if err != nil {
		appLog.Error("cannot expand cache dir; using as-is", err, "cache_dir", c.CacheDir)
		return c.CacheDir
	}
	return dir
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
