// Package config loads graft settings from a project file and GRAFT_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/graft/internal/gateway"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "GRAFT"

// FileNames lists the project config names searched for, in preference order.
var FileNames = []string{"graft.yaml", "graft.yml", "graft.toml"}

// Config holds graft settings.
type Config struct {
	Cwd             string    `mapstructure:"cwd"`
	DependencyRoots []string  `mapstructure:"dependency_roots"`
	EntryFile       string    `mapstructure:"entry_file"`
	Journal         string    `mapstructure:"journal"` // sqlite path; empty disables the override journal
	Log             LogConfig `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

// SetDefaults registers every key with its default so environment
// overrides apply even when no file sets the key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cwd", "")
	v.SetDefault("dependency_roots", []string{"modules"})
	v.SetDefault("entry_file", gateway.DefaultEntryFile)
	v.SetDefault("journal", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An explicit path must exist; with no path the
// nearest project file from the working directory upward is used, and
// defaults apply when there is none.
func Load(path string) (*Config, error) {
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = Discover(wd)
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path, or defaults and environment only
// when path is empty.
func LoadFile(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Cwd = relativeToFile(v, "cwd", cfg.Cwd)
	cfg.Journal = relativeToFile(v, "journal", cfg.Journal)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// relativeToFile anchors a relative path read from the config file at the
// file's directory. Values from the environment are left as given.
func relativeToFile(v *viper.Viper, key, value string) string {
	if value == "" || filepath.IsAbs(value) || !v.InConfig(key) {
		return value
	}
	if _, ok := os.LookupEnv(envName(key)); ok {
		return value
	}
	return filepath.Join(filepath.Dir(v.ConfigFileUsed()), value)
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Discover walks up from dir and returns the first project config file
// found, or "" when none exists.
func Discover(dir string) string {
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.EntryFile == "" {
		return fmt.Errorf("entry_file must not be empty")
	}
	return nil
}

// GatewayOptions translates the settings into gateway options.
// Relative dependency roots are resolved against Cwd by the gateway, and a
// relative Cwd against the process working directory.
func (c *Config) GatewayOptions() []gateway.Option {
	var opts []gateway.Option
	if c.Cwd != "" {
		opts = append(opts, gateway.WithCwd(c.Cwd))
	}
	if len(c.DependencyRoots) > 0 {
		opts = append(opts, gateway.WithDependencyRoots(c.DependencyRoots...))
	}
	opts = append(opts, gateway.WithEntryFile(c.EntryFile))
	return opts
}
