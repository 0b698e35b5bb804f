package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/propdoc/pkg/util"
)

const (
	defaultProjectConfig = ".propdoc/config.yaml"
	defaultWidgetsConfig = "widgets.yaml"
	defaultCatalogPath   = "propdoc.json"
	envPrefix            = "PROPDOC_"
)

// ProjectConfig holds the contents of .propdoc/config.yaml. The same keys
// are read from PROPDOC_* environment variables and command flags.
type ProjectConfig struct {
	Widgets   string `yaml:"widgets"`
	Root      string `yaml:"root"`
	TSConfig  string `yaml:"tsconfig"`
	Output    string `yaml:"output"`
	Catalog   string `yaml:"catalog"`
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Workers   int    `yaml:"workers"`
	CallLog   string `yaml:"call_log"`
}

// settingKeys maps each setting to its yaml key, env suffix and flag name.
var settingKeys = []struct {
	key  string
	flag string
	set  func(*ProjectConfig, string) error
}{
	{"widgets", "widgets", func(c *ProjectConfig, v string) error { c.Widgets = v; return nil }},
	{"root", "root", func(c *ProjectConfig, v string) error { c.Root = v; return nil }},
	{"tsconfig", "tsconfig", func(c *ProjectConfig, v string) error { c.TSConfig = v; return nil }},
	{"output", "out", func(c *ProjectConfig, v string) error { c.Output = v; return nil }},
	{"catalog", "catalog", func(c *ProjectConfig, v string) error { c.Catalog = v; return nil }},
	{"name", "name", func(c *ProjectConfig, v string) error { c.Name = v; return nil }},
	{"log_level", "log-level", func(c *ProjectConfig, v string) error { c.LogLevel = v; return nil }},
	{"log_format", "log-format", func(c *ProjectConfig, v string) error { c.LogFormat = v; return nil }},
	{"workers", "workers", setWorkers},
	{"call_log", "log-file", func(c *ProjectConfig, v string) error { c.CallLog = v; return nil }},
}

func setWorkers(c *ProjectConfig, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return fmt.Errorf("workers must be a non-negative integer, got %q", v)
	}
	c.Workers = n
	return nil
}

func defaultConfig() ProjectConfig {
	return ProjectConfig{
		Widgets:   defaultWidgetsConfig,
		LogLevel:  string(util.LevelInfo),
		LogFormat: string(util.FormatText),
	}
}

// loadProjectConfig reads a project config file. Returns nil (no error) if
// the file does not exist.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("parse %s: workers must not be negative", path)
	}
	return &cfg, nil
}

// loadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// envConfig reads PROPDOC_* settings through getenv.
func envConfig(getenv func(string) string) (ProjectConfig, error) {
	var cfg ProjectConfig
	for _, k := range settingKeys {
		v := getenv(envPrefix + strings.ToUpper(k.key))
		if v == "" {
			continue
		}
		if err := k.set(&cfg, v); err != nil {
			return ProjectConfig{}, fmt.Errorf("%s%s: %w", envPrefix, strings.ToUpper(k.key), err)
		}
	}
	return cfg, nil
}

// flagConfig collects the flags the user set explicitly on cmd.
func flagConfig(cmd *cobra.Command) (ProjectConfig, error) {
	var cfg ProjectConfig
	for _, k := range settingKeys {
		f := cmd.Flags().Lookup(k.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := k.set(&cfg, f.Value.String()); err != nil {
			return ProjectConfig{}, fmt.Errorf("--%s: %w", k.flag, err)
		}
	}
	return cfg, nil
}

// overlay returns c with every non-zero field of o applied on top.
func (c ProjectConfig) overlay(o ProjectConfig) ProjectConfig {
	if o.Widgets != "" {
		c.Widgets = o.Widgets
	}
	if o.Root != "" {
		c.Root = o.Root
	}
	if o.TSConfig != "" {
		c.TSConfig = o.TSConfig
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Catalog != "" {
		c.Catalog = o.Catalog
	}
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.CallLog != "" {
		c.CallLog = o.CallLog
	}
	return c
}

// CatalogPath returns the catalog to read, applying the fallback chain:
//  1. catalog (flag, config or env)
//  2. output, so serve and inspect find what generate wrote
//  3. propdoc.json
func (c ProjectConfig) CatalogPath() string {
	switch {
	case c.Catalog != "":
		return c.Catalog
	case c.Output != "":
		return c.Output
	default:
		return defaultCatalogPath
	}
}

// resolveConfig merges defaults, env, the project config file and flags,
// later sources winning.
func resolveConfig(cmd *cobra.Command, getenv func(string) string) (ProjectConfig, error) {
	cfg := defaultConfig()

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return ProjectConfig{}, err
	}
	env, err := envConfig(getenv)
	if err != nil {
		return ProjectConfig{}, err
	}
	cfg = cfg.overlay(env)

	path, _ := cmd.Flags().GetString("config")
	file, err := loadProjectConfig(path)
	if err != nil {
		return ProjectConfig{}, err
	}
	if file != nil {
		cfg = cfg.overlay(*file)
	}

	flags, err := flagConfig(cmd)
	if err != nil {
		return ProjectConfig{}, err
	}
	cfg = cfg.overlay(flags)

	if _, err := util.ParseLogLevel(cfg.LogLevel); err != nil {
		return ProjectConfig{}, err
	}
	if _, err := util.ParseLogFormat(cfg.LogFormat); err != nil {
		return ProjectConfig{}, err
	}
	return cfg, nil
}
