package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// InputPrefix is the prefix GitHub Actions gives action inputs.
const InputPrefix = "INPUT_"

// LoadOptions selects the layers above the defaults.
type LoadOptions struct {
	// File is an optional YAML or TOML config file.
	File string
	// Overrides are applied last, typically from command-line flags.
	Overrides map[string]any
}

// Load merges, in increasing precedence: defaults, File, GITHUB_* context
// variables, INPUT_* action inputs and Overrides. Empty environment values
// are ignored so an unset action input keeps its default.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, terrors.Config("load defaults", err)
	}

	if opts.File != "" {
		parser, err := parserFor(opts.File)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(opts.File); err != nil {
			return nil, terrors.Config("load config file", err)
		}
		if err := k.Load(file.Provider(opts.File), parser); err != nil {
			return nil, terrors.Config("load config file", fmt.Errorf("%s: %w", opts.File, err))
		}
	}

	if err := loadEnv(k, "GITHUB_", func(s string) string {
		if s == "GITHUB_REPOSITORY" {
			return "repository"
		}
		if s == "GITHUB_TOKEN" {
			return "github_token"
		}
		return ""
	}); err != nil {
		return nil, err
	}

	if err := loadEnv(k, InputPrefix, func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, InputPrefix))
	}); err != nil {
		return nil, err
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, terrors.Config("load overrides", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, terrors.Config("decode config", err)
	}

	cfg.normalize()
	return &cfg, nil
}

// loadEnv loads prefixed variables through a scratch instance so blank
// values can be dropped before merging.
func loadEnv(k *koanf.Koanf, prefix string, cb func(string) string) error {
	tmp := koanf.New(".")
	if err := tmp.Load(env.Provider(prefix, ".", cb), nil); err != nil {
		return terrors.Config("load environment", err)
	}
	values := make(map[string]any)
	for key, v := range tmp.All() {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		values[key] = v
	}
	if len(values) == 0 {
		return nil
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return terrors.Config("load environment", err)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, terrors.Config("load config file", fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path)))
	}
}

func (c *Config) normalize() {
	c.Repository = strings.Trim(strings.TrimSpace(c.Repository), "/")
	c.HomebrewOwner = strings.TrimSpace(c.HomebrewOwner)
	c.HomebrewTap = strings.TrimSpace(c.HomebrewTap)
	c.FormulaFolder = strings.Trim(strings.TrimSpace(c.FormulaFolder), "/")
	c.GitHubToken = strings.TrimSpace(c.GitHubToken)
	c.CustomTarball = strings.TrimSpace(c.CustomTarball)
	c.ReleaseTag = strings.TrimSpace(c.ReleaseTag)
	c.Version = strings.TrimSpace(c.Version)
	if c.FormulaFolder == "" {
		c.FormulaFolder = DefaultFormulaFolder
	}
	if c.Parallelism == 0 {
		c.Parallelism = DefaultParallelism
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}
