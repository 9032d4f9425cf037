// Package config loads the CLI's optional YAML configuration file: where
// relations live by default, whether they are kept in memory, and the
// placeholder `stats` prints for an absent overflow link. Nothing
// below the relation engine itself reads this package; it exists purely for
// the command-line front end.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the CLI's user-editable configuration.
type Config struct {
	Relation struct {
		// Dir is where bare relation names (without a path separator) are
		// resolved against.
		Dir string `mapstructure:"dir"`
		// Memory backs every relation the CLI creates or opens with an
		// in-memory store instead of touching disk. Nothing survives between
		// invocations, so only create succeeds in this mode: insert, select,
		// stats and repl open a relation with no stored descriptor and fail
		// with a corruption error.
		Memory bool `mapstructure:"memory"`
	} `mapstructure:"relation"`
	Display struct {
		// NullValue is printed by `stats` in place of a page's absent
		// overflow link.
		NullValue string `mapstructure:"null_value"`
	} `mapstructure:"display"`
}

// Default returns the configuration the CLI falls back to when no config
// file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Relation.Dir = "."
	cfg.Relation.Memory = false
	cfg.Display.NullValue = "NULL"
	return cfg
}

// Load reads a YAML config file at path, falling back to Default() when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
