// Package config loads queryquest configuration.
//
// Precedence (highest to lowest): flags > QUERYQUEST_* env vars > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix         = "QUERYQUEST_"
	DefaultConfigFile = "queryquest.yaml"

	// DefaultSandboxRole is provisioned by the schema migrations.
	DefaultSandboxRole = "queryquest_sandbox"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Store    string         `koanf:"store"`
	Missions MissionsConfig `koanf:"missions"`
	Sandbox  SandboxConfig  `koanf:"sandbox"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	Rankings RankingsConfig `koanf:"rankings"`
}

type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// QueryRateLimit is the number of /api/query requests allowed per client per
	// minute. Zero disables limiting.
	QueryRateLimit int `koanf:"query_rate_limit"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
	Migrate  bool   `koanf:"migrate"`
}

type MissionsConfig struct {
	// Dir overrides the embedded mission set when non-empty.
	Dir string `koanf:"dir"`
}

type SandboxConfig struct {
	StatementTimeout time.Duration `koanf:"statement_timeout"`
	// Role is the Postgres role player SQL runs as. Empty runs it as the
	// connecting user.
	Role             string        `koanf:"role"`
	MaxConns         int32         `koanf:"max_conns"`
}

type AuthConfig struct {
	Key      string        `koanf:"key"`
	BlockKey string        `koanf:"block_key"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type RankingsConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":                ":3001",
		"server.read_header_timeout": 5 * time.Second,
		"server.shutdown_timeout":    10 * time.Second,
		"server.query_rate_limit":    30,
		"database.url":               "",
		"database.max_conns":         10,
		"database.migrate":           true,
		"store":                      StorePostgres,
		"missions.dir":               "",
		"sandbox.statement_timeout":  5 * time.Second,
		"sandbox.role":               DefaultSandboxRole,
		"sandbox.max_conns":          5,
		"auth.key":                   "",
		"auth.block_key":             "",
		"auth.token_ttl":             7 * 24 * time.Hour,
		"log.level":                  "info",
		"log.format":                 "console",
		"rankings.cache_ttl":         30 * time.Second,
	}
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"addr":              "server.addr",
	"database-url":      "database.url",
	"store":             "store",
	"missions-dir":      "missions.dir",
	"statement-timeout": "sandbox.statement_timeout",
	"sandbox-role":      "sandbox.role",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"migrate":           "database.migrate",
}

// Load builds a Config. cfgFile may be empty, in which case queryquest.yaml in
// the working directory is used when present. flags may be nil; only flags
// the user actually set are applied.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// QUERYQUEST_DATABASE__URL -> database.url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return &cfg, nil
}

// Validate checks the settings serve depends on.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("store must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	// The sandbox runs player SQL against Postgres whichever store holds progress.
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.QueryRateLimit < 0 {
		return fmt.Errorf("server.query_rate_limit must not be negative")
	}
	if c.Sandbox.StatementTimeout <= 0 {
		return fmt.Errorf("sandbox.statement_timeout must be positive")
	}
	if c.Sandbox.MaxConns < 0 {
		return fmt.Errorf("sandbox.max_conns must not be negative")
	}
	if c.Auth.Key != "" && len(c.Auth.Key) < 32 {
		return fmt.Errorf("auth.key must be at least 32 bytes")
	}
	switch len(c.Auth.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("auth.block_key must be 16, 24 or 32 bytes")
	}
	return nil
}
