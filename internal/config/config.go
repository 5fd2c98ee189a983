package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clan-battles/internal/constants"
	"clan-battles/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	UpstreamURL     string
	ServerPort      string
	LogLevel        string
	ViewerOffset    int
	CollisionPolicy schedule.CollisionPolicy
	ActiveGrace     time.Duration
	PrimeWindow     time.Duration
	Layout          schedule.Layout
	FeaturedClans   []string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
type fileConfig struct {
	Layout struct {
		ScaleMsPerPx    float64 `yaml:"scale_ms_per_px"`
		CellWidth       int     `yaml:"cell_width"`
		BorderAllowance int     `yaml:"border_allowance"`
		HeaderWidth     int     `yaml:"header_width"`
	} `yaml:"layout"`
	FeaturedClans []string `yaml:"featured_clans"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	policy, err := schedule.ParseCollisionPolicy(getEnv("COLLISION_POLICY", string(schedule.LastWins)))
	if err != nil {
		return nil, err
	}

	offset, err := strconv.Atoi(getEnv("VIEWER_OFFSET_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid VIEWER_OFFSET_MINUTES: %w", err)
	}

	grace, err := time.ParseDuration(getEnv("ACTIVE_GRACE", constants.ActiveSlotGrace.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVE_GRACE: %w", err)
	}

	window, err := time.ParseDuration(getEnv("PRIME_WINDOW", constants.PrimeWindow.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid PRIME_WINDOW: %w", err)
	}

	cfg := &Config{
		UpstreamURL:     strings.TrimRight(getEnv("UPSTREAM_URL", "http://localhost:8000"), "/"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ViewerOffset:    offset,
		CollisionPolicy: policy,
		ActiveGrace:     grace,
		PrimeWindow:     window,
		Layout:          schedule.DefaultLayout(),
		FeaturedClans:   splitList(getEnv("FEATURED_CLANS", "")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("upstream_url", cfg.UpstreamURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("collision_policy", string(cfg.CollisionPolicy)).
		Int("viewer_offset", cfg.ViewerOffset).
		Dur("active_grace", cfg.ActiveGrace).
		Strs("featured_clans", cfg.FeaturedClans).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Layout.ScaleMsPerPx > 0 {
		c.Layout.Scale = fc.Layout.ScaleMsPerPx
	}
	if fc.Layout.CellWidth > 0 {
		c.Layout.CellWidth = fc.Layout.CellWidth
	}
	if fc.Layout.BorderAllowance > 0 {
		c.Layout.BorderAllowance = fc.Layout.BorderAllowance
	}
	if fc.Layout.HeaderWidth > 0 {
		c.Layout.HeaderWidth = fc.Layout.HeaderWidth
	}
	if len(fc.FeaturedClans) > 0 {
		c.FeaturedClans = normalizeTags(fc.FeaturedClans)
	}
	return nil
}

func (c *Config) validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	if c.ViewerOffset < -14*60 || c.ViewerOffset > 14*60 {
		return fmt.Errorf("VIEWER_OFFSET_MINUTES out of range: %d", c.ViewerOffset)
	}
	// zero is the unset value in schedule.Options
	if c.ActiveGrace <= 0 {
		return fmt.Errorf("ACTIVE_GRACE must be positive, got %s", c.ActiveGrace)
	}
	if c.PrimeWindow <= 0 {
		return fmt.Errorf("PRIME_WINDOW must be positive, got %s", c.PrimeWindow)
	}
	return nil
}

// ScheduleOptions maps the config onto model build options.
func (c *Config) ScheduleOptions() schedule.Options {
	return schedule.Options{
		ViewerOffset: c.ViewerOffset,
		Policy:       c.CollisionPolicy,
		Grace:        c.ActiveGrace,
		PrimeWindow:  c.PrimeWindow,
		Layout:       c.Layout,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return normalizeTags(strings.Split(s, ","))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var Module = fx.Provide(Load)
