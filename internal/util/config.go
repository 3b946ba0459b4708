package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	AssignDeclare = "declare" // write the nearest binding, declare locally when absent
	AssignStrict  = "strict"  // the name must already be bound somewhere in the chain
)

type Configuration struct {
	Version   string `toml:"-" yaml:"-"`
	BuildDate string `toml:"-" yaml:"-"`
	Commit    string `toml:"-" yaml:"-"`

	// AssignPolicy decides what `:=` does with a name bound nowhere in the chain.
	AssignPolicy string `toml:"assign_policy" yaml:"assign_policy"`
	// NoBootstrap skips the embedded core library.
	NoBootstrap bool `toml:"no_bootstrap" yaml:"no_bootstrap"`
	// Bootstrap names an extra library file evaluated into the root after the core library.
	Bootstrap string `toml:"bootstrap" yaml:"bootstrap"`
	// Parallel bounds how many script files run at once.
	Parallel int `toml:"parallel" yaml:"parallel"`

	Log LogConfiguration `toml:"log" yaml:"log"`
}

type LogConfiguration struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		AssignPolicy: AssignDeclare,
		Parallel:     1,
		Log:          LogConfiguration{Level: "none"},
	}
}

// LoadConfiguration reads a TOML (.toml) or YAML (.yaml, .yml) file on top of the defaults.
func LoadConfiguration(path string) (Configuration, error) {
	config := DefaultConfiguration()
	if path == "" {
		return config, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return config, fmt.Errorf("reading config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("reading config %s: %w", path, err)
		}
	default:
		return config, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	return config, config.Validate()
}

func (c Configuration) Validate() error {
	switch c.AssignPolicy {
	case AssignDeclare, AssignStrict:
	default:
		return fmt.Errorf("assign_policy must be %q or %q, got %q", AssignDeclare, AssignStrict, c.AssignPolicy)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	return nil
}
