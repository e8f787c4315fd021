package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if !cfg.Rules.Main.Equal(chain.StandardRules) || !cfg.Rules.Fork.Equal(chain.AlternateRules) {
		t.Error("default rules should match the presets")
	}

	// Mutating the copy must not leak into the presets.
	cfg.Rules.Main.ValidationRules[0] = "changed"
	if chain.StandardRules.ValidationRules[0] == "changed" {
		t.Error("Default shares slices with StandardRules")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layout]
block_spacing = 240

[rules.fork]
name = "Experimental"
block_size = 4
consensus = "Proof of Authority"
validation_rules = ["Relaxed"]

[server]
addr = "127.0.0.1:9090"
read_timeout = "3s"

[cache]
backend = "redis"
redis_addr = "redis:6379"
ttl = "1h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.BlockSpacing != 240 || cfg.Layout.BranchSpacing != 150 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Rules.Fork.Name != "Experimental" || cfg.Rules.Fork.BlockSize != 4 {
		t.Errorf("fork rules = %+v", cfg.Rules.Fork)
	}
	if !cfg.Rules.Main.Equal(chain.StandardRules) {
		t.Errorf("main rules should keep defaults, got %+v", cfg.Rules.Main)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("unset server key lost its default: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax error", "[layout\n", errors.ErrCodeInvalidConfig},
		{"unknown key", "[layout]\nblok_spacing = 1\n", errors.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", errors.ErrCodeInvalidConfig},
		{"same rules", "[rules.fork]\nname = \"Standard\"\nblock_size = 1\nconsensus = \"Proof of Work\"\nvalidation_rules = [\"Standard validation\"]\n", errors.ErrCodeInvalidConfig},
		{"overlapping blocks", "[layout]\nblock_width = 500\n", errors.ErrCodeInvalidConfig},
		{"empty rule name", "[rules.main]\nname = \"\"\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want code %s", err, tt.code)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.IsNotFound(err) {
		t.Errorf("missing file error = %v, want not found", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault(missing): %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Error("missing file should yield defaults")
	}
	if _, err := LoadOrDefault(""); err != nil {
		t.Errorf("LoadOrDefault(\"\"): %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = BackendRedis
	cfg.Cache.RedisAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("redis backend without address should fail")
	}

	cfg = Default()
	cfg.Server.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty server addr should fail")
	}

	cfg = Default()
	cfg.Cache.Backend = BackendNone
	if err := cfg.Validate(); err != nil {
		t.Errorf("none backend should be valid: %v", err)
	}
}
