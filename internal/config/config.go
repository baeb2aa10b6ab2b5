// Package config loads taskboard settings from defaults, an optional config file,
// TASKBOARD_* environment variables and command-line flags (highest precedence).
package config

import "time"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultPrimaryURL  = "http://localhost:3000/tasks"
	DefaultFallbackURL = "https://69068a3cb1879c890ed787f3.mockapi.io/tasks/tasks"
)

type Config struct {
	Environment string       `mapstructure:"environment" validate:"required,oneof=development production"`
	API         APIConfig    `mapstructure:"api"`
	Board       BoardConfig  `mapstructure:"board"`
	Log         LogConfig    `mapstructure:"log"`
	TUI         TUIConfig    `mapstructure:"tui"`
	Server      ServerConfig `mapstructure:"server"`
}

// APIConfig describes the remote task collection.
type APIConfig struct {
	// URL replaces endpoint selection entirely when set.
	URL         string        `mapstructure:"url" validate:"omitempty,url"`
	PrimaryURL  string        `mapstructure:"primary_url" validate:"required,url"`
	FallbackURL string        `mapstructure:"fallback_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type BoardConfig struct {
	PageSize             int  `mapstructure:"page_size" validate:"gte=1,lte=100"`
	AlwaysShowPagination bool `mapstructure:"always_show_pagination"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
	// File is where the TUI writes logs; empty selects the per-user state dir.
	File string `mapstructure:"file"`
}

type TUIConfig struct {
	Glyphs          string        `mapstructure:"glyphs" validate:"omitempty,oneof=unicode ascii"`
	Mouse           bool          `mapstructure:"mouse"`
	DragThreshold   int           `mapstructure:"drag_threshold" validate:"gte=1"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
}

// ServerConfig configures `taskboard serve`, the local development task server.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required,hostname_port"`
	DBPath         string        `mapstructure:"db_path" validate:"required"`
	RedisAddr      string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl" validate:"gte=0"`
	StringIDs      bool          `mapstructure:"string_ids"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// Endpoints is the resolved pair of collection URLs. Fallback is empty when no
// fallback may be attempted.
type Endpoints struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback,omitempty"`
}

func (c Config) Production() bool { return c.Environment == EnvProduction }

// Endpoints selects the collection URLs:
//   - an explicit api.url wins;
//   - production uses the fallback service as the sole target;
//   - otherwise the local primary is tried first with the fallback behind it.
//
// A fallback is only attached outside production and only when the selected URL is the
// configured local primary.
func (c Config) Endpoints() Endpoints {
	selected := c.API.PrimaryURL
	switch {
	case c.API.URL != "":
		selected = c.API.URL
	case c.Production() && c.API.FallbackURL != "":
		selected = c.API.FallbackURL
	}

	ep := Endpoints{Primary: selected}
	if !c.Production() && selected == c.API.PrimaryURL && c.API.FallbackURL != "" && c.API.FallbackURL != selected {
		ep.Fallback = c.API.FallbackURL
	}
	return ep
}
