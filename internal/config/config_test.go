package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Errorf("Expected port 4000, got %q", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverMongoDB {
		t.Errorf("Expected driver %q, got %q", DriverMongoDB, cfg.Store.Driver)
	}
	if cfg.Claims.MaxWinners != 3 || !cfg.Claims.AutoRetire {
		t.Errorf("Expected cap 3 with auto retire, got %+v", cfg.Claims)
	}
	if cfg.Assets.VisibleDir != "img" || cfg.Assets.ObscuredDir != "hidden_img" {
		t.Errorf("Expected img and hidden_img, got %+v", cfg.Assets)
	}
	if cfg.Broadcast.Interval != time.Hour {
		t.Errorf("Expected a 1h broadcast interval, got %v", cfg.Broadcast.Interval)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := "claims:\n  maxwinners: 5\nassets:\n  visibledir: prizes\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("JWT_SECRET=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BROADCAST_INTERVAL", "90s")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Claims.MaxWinners != 5 {
		t.Errorf("Expected max winners 5 from yaml, got %d", cfg.Claims.MaxWinners)
	}
	if cfg.Assets.VisibleDir != "prizes" {
		t.Errorf("Expected visible dir prizes, got %q", cfg.Assets.VisibleDir)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Expected driver memory from env, got %q", cfg.Store.Driver)
	}
	if cfg.JWT.Secret != "from-dotenv" {
		t.Errorf("Expected the jwt secret from .env, got %q", cfg.JWT.Secret)
	}
	if cfg.Broadcast.Interval != 90*time.Second {
		t.Errorf("Expected interval 90s, got %v", cfg.Broadcast.Interval)
	}
}

func TestLoadWithoutSecret(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Expected tools to load a config without a JWT secret, got %v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("Expected the server to require a JWT secret")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:  StoreConfig{Driver: DriverMemory},
			JWT:    JWTConfig{Secret: "x"},
			Claims: ClaimsConfig{MaxWinners: 3},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		ok       bool
		serverOK bool
	}{
		{"valid", func(*Config) {}, true, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, false, false},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, false, false},
		{"zero cap", func(c *Config) { c.Claims.MaxWinners = 0 }, false, false},
		{"no secret", func(c *Config) { c.JWT.Secret = "" }, true, false},
		{"broadcast without interval", func(c *Config) { c.Broadcast.Enabled = true }, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Expected Validate ok=%v, got %v", tt.ok, err)
			}
			if err := c.ValidateServer(); (err == nil) != tt.serverOK {
				t.Errorf("Expected ValidateServer ok=%v, got %v", tt.serverOK, err)
			}
		})
	}
}
