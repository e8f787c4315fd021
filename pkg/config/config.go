// Package config loads forkview settings from a TOML file.
//
// Every section is optional; missing keys keep the values from [Default].
//
//	[layout]
//	block_spacing = 200
//	branch_spacing = 150
//
//	[rules.main]
//	name = "Standard"
//	block_size = 1
//	consensus = "Proof of Work"
//	validation_rules = ["Standard validation"]
//
//	[rules.fork]
//	name = "Modified"
//	block_size = 2
//	consensus = "Proof of Stake"
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "file"   # file, redis or none
//	ttl = "24h"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/layout"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// FileName is the name of the config file inside the user config dir.
const FileName = "config.toml"

// Config is the complete application configuration.
type Config struct {
	Layout layout.Options `toml:"layout"`
	Rules  Rules          `toml:"rules"`
	Server Server         `toml:"server"`
	Cache  Cache          `toml:"cache"`
}

// Rules holds the protocol rules for the main chain and for new forks.
type Rules struct {
	Main chain.ProtocolRules `toml:"main"`
	Fork chain.ProtocolRules `toml:"fork"`
}

// Server configures the HTTP explorer.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Cache selects and configures the artifact cache.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"` // empty uses the user cache dir
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultOptions(),
		Rules: Rules{
			Main: cloneRules(chain.StandardRules),
			Fork: cloneRules(chain.AlternateRules),
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Cache: Cache{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
	}
}

// DefaultPath returns the per-user config file location for app.
func DefaultPath(app string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, app, FileName), nil
}

// Load reads path on top of [Default] and validates the result.
// Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns [Default] otherwise.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := validateRules("rules.main", c.Rules.Main); err != nil {
		return err
	}
	if err := validateRules("rules.fork", c.Rules.Fork); err != nil {
		return err
	}
	if c.Rules.Main.Equal(c.Rules.Fork) {
		return errors.New(errors.ErrCodeInvalidConfig, "rules.fork must differ from rules.main")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q must be one of: file, redis, none", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

func validateRules(section string, r chain.ProtocolRules) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s.name is required", section)
	}
	if r.BlockSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s.block_size must be positive", section)
	}
	return nil
}

func cloneRules(r chain.ProtocolRules) chain.ProtocolRules {
	r.ValidationRules = slices.Clone(r.ValidationRules)
	return r
}
