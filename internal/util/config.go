package util

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Configuration is the host-side config, loaded from fable.toml when
// present. Version fields are stamped at build time by the driver.
type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	LogLevel      string  `toml:"log_level"`
	DefaultTarget string  `toml:"default_target"`
	Seed          int64   `toml:"seed"`
	TickLimit     int     `toml:"tick_limit"`
	Storage       Storage `toml:"storage"`
}

// Storage configures the opt-in database natives.
type Storage struct {
	Enabled bool   `toml:"enabled"`
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
}

func DefaultConfig() Configuration {
	return Configuration{
		LogLevel:      "error",
		DefaultTarget: "js",
		TickLimit:     1000,
	}
}

// LoadConfig reads path as TOML over the defaults. A missing file is not an
// error; the defaults are returned.
func LoadConfig(path string) (Configuration, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
