package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TASKBOARD"

// flagKeys maps config keys to the command-line flags that may override them.
var flagKeys = map[string]string{
	"environment":       "env",
	"api.url":           "api-url",
	"api.timeout":       "timeout",
	"log.level":         "log-level",
	"log.format":        "log-format",
	"log.file":          "log-file",
	"board.page_size":   "page-size",
	"tui.mouse":         "mouse",
	"server.addr":       "addr",
	"server.db_path":    "db",
	"server.redis_addr": "redis",
	"server.string_ids": "string-ids",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)

	v.SetDefault("api.url", "")
	v.SetDefault("api.primary_url", DefaultPrimaryURL)
	v.SetDefault("api.fallback_url", DefaultFallbackURL)
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("board.page_size", 5)
	v.SetDefault("board.always_show_pagination", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("tui.glyphs", "")
	v.SetDefault("tui.mouse", true)
	v.SetDefault("tui.drag_threshold", 2)
	v.SetDefault("tui.refresh_interval", time.Duration(0))

	v.SetDefault("server.addr", "localhost:3000")
	v.SetDefault("server.db_path", "taskboard.sqlite")
	v.SetDefault("server.redis_addr", "")
	v.SetDefault("server.redis_ttl", 30*time.Second)
	v.SetDefault("server.string_ids", false)
	v.SetDefault("server.request_timeout", 5*time.Second)
}

// Load builds a validated Config. configFile may be empty, in which case the per-user
// config file is read when present. Flags that were explicitly set override every other
// source.
func Load(configFile string, flags ...*pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = defaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", configFile, err)
			}
		}
	}

	for key, name := range flagKeys {
		for _, fs := range flags {
			if fs == nil {
				continue
			}
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
				break
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "prod" {
		cfg.Environment = EnvProduction
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and reports the first failing field by its config key.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "taskboard", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// Default returns the built-in configuration without consulting files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
