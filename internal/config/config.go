// Package config loads xargs-groupby's on-disk defaults, overlaying a
// user-scoped config file with an optional repo-local override, the way
// the surrounding toolkit locates other user-scoped roots.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jlrickert/xargs-groupby/appctx"
	"github.com/jlrickert/xargs-groupby/internal/command"
	"github.com/jlrickert/xargs-groupby/toolkit"
	"gopkg.in/yaml.v3"
)

// FileName is the config file basename looked up under both the user config
// root and the repo-local override root.
const FileName = "config.yaml"

// SwitchSpec is the YAML-friendly mirror of command.Switch.
type SwitchSpec struct {
	Kind  string `yaml:"kind"`
	Key   string `yaml:"key"`
	Value string `yaml:"value,omitempty"`
	Bool  bool   `yaml:"bool,omitempty"`
}

func (s SwitchSpec) toSwitch() (command.Switch, error) {
	var kind command.SwitchKind
	switch s.Kind {
	case "", "long":
		kind = command.SwitchLong
	case "short":
		kind = command.SwitchShort
	case "bool":
		kind = command.SwitchBool
	default:
		return command.Switch{}, fmt.Errorf("config: unknown switch kind %q", s.Kind)
	}
	return command.Switch{Kind: kind, Key: s.Key, Value: s.Value, Bool: s.Bool}, nil
}

// Config holds the defaults applied when a corresponding CLI flag is absent.
type Config struct {
	MaxProcs      int          `yaml:"max_procs"`
	Placeholder   string       `yaml:"placeholder"`
	Delimiter     string       `yaml:"delimiter"`
	XargsSwitches []SwitchSpec `yaml:"xargs_switches"`
}

// Default returns the built-in fallback, used when no config file exists
// anywhere in the lookup chain.
func Default() Config {
	return Config{
		MaxProcs:    1,
		Placeholder: "{}",
	}
}

// Switches decodes XargsSwitches into command.Switch values.
func (c Config) Switches() ([]command.Switch, error) {
	out := make([]command.Switch, 0, len(c.XargsSwitches))
	for _, s := range c.XargsSwitches {
		sw, err := s.toSwitch()
		if err != nil {
			return nil, err
		}
		out = append(out, sw)
	}
	return out, nil
}

// Load reads the user-scoped config file, then overlays a repo-local
// override from appctx's LocalConfigRoot when one is present. A missing
// file at either layer is not an error; a malformed one is.
func Load(rt *toolkit.Runtime, ac *appctx.AppContext) (Config, error) {
	cfg := Default()

	if ac == nil {
		return cfg, nil
	}

	userPath := filepath.Join(ac.ConfigRoot, FileName)
	if err := mergeFile(rt, userPath, &cfg); err != nil {
		return Config{}, err
	}

	localPath := filepath.Join(ac.LocalConfigRoot, FileName)
	if err := mergeFile(rt, localPath, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeFile(rt *toolkit.Runtime, path string, cfg *Config) error {
	data, err := rt.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if overlay.MaxProcs != 0 {
		cfg.MaxProcs = overlay.MaxProcs
	}
	if overlay.Placeholder != "" {
		cfg.Placeholder = overlay.Placeholder
	}
	if overlay.Delimiter != "" {
		cfg.Delimiter = overlay.Delimiter
	}
	if len(overlay.XargsSwitches) > 0 {
		cfg.XargsSwitches = overlay.XargsSwitches
	}
	return nil
}
