package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	want := DefaultConfig()
	if cfg.LogLevel != want.LogLevel || cfg.DefaultTarget != want.DefaultTarget || cfg.TickLimit != want.TickLimit {
		t.Fatalf("cfg %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fable.toml")
	data := `
log_level = "debug"
default_target = "lua"
seed = 42
tick_limit = 50

[storage]
enabled = true
driver = "sqlite3"
dsn = ":memory:"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level %q", cfg.LogLevel)
	}
	if cfg.DefaultTarget != "lua" {
		t.Errorf("default_target %q", cfg.DefaultTarget)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed %d", cfg.Seed)
	}
	if cfg.TickLimit != 50 {
		t.Errorf("tick_limit %d", cfg.TickLimit)
	}
	if !cfg.Storage.Enabled || cfg.Storage.Driver != "sqlite3" || cfg.Storage.DSN != ":memory:" {
		t.Errorf("storage %+v", cfg.Storage)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fable.toml")
	if err := os.WriteFile(path, []byte("seed = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 {
		t.Errorf("seed %d", cfg.Seed)
	}
	// unset keys keep their defaults
	if cfg.TickLimit != DefaultConfig().TickLimit {
		t.Errorf("tick_limit %d, want default", cfg.TickLimit)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fable.toml")
	if err := os.WriteFile(path, []byte("log_level = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed config should be an error")
	}
}
