package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath     string `mapstructure:"dataset_path" yaml:"dataset_path"`
	Delimiter       string `mapstructure:"delimiter" yaml:"delimiter"`
	SheetName       string `mapstructure:"sheet_name" yaml:"sheet_name"`
	ExportFilename  string `mapstructure:"export_filename" yaml:"export_filename"`
	ChatScope       string `mapstructure:"chat_scope" yaml:"chat_scope"`
	ListTitlesLimit int    `mapstructure:"list_titles_limit" yaml:"list_titles_limit"`
	DefaultTopN     int    `mapstructure:"default_top_n" yaml:"default_top_n"`
	CacheTTLMin     int    `mapstructure:"cache_ttl_min" yaml:"cache_ttl_min"`

	// HTTP server
	ServerAddr    string `mapstructure:"server_addr" yaml:"server_addr"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`

	// Logging
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
}

// Default values, also used by `config show` to mark overrides.
const (
	DefaultDatasetPath    = "dimensions_publications.csv"
	DefaultExportFilename = "dimensions_filtered_results.csv"
	DefaultServerAddr     = "127.0.0.1:8080"
)

func defaults(v *viper.Viper) {
	v.SetDefault("dataset_path", DefaultDatasetPath)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("export_filename", DefaultExportFilename)
	v.SetDefault("chat_scope", "all")
	v.SetDefault("list_titles_limit", 200)
	v.SetDefault("default_top_n", 10)
	v.SetDefault("cache_ttl_min", 0)
	v.SetDefault("server_addr", DefaultServerAddr)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	defaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Dir returns ~/.pubsift.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pubsift"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.pubsift/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; a real environment variable wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PUBSIFT")
	v.AutomaticEnv()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values that would make commands misbehave.
func (c *Global) Validate() error {
	switch strings.ToLower(c.ChatScope) {
	case "", "all", "filtered":
	default:
		return fmt.Errorf("invalid chat_scope: %s (use all or filtered)", c.ChatScope)
	}
	if c.ListTitlesLimit < 0 {
		return fmt.Errorf("invalid list_titles_limit: %d", c.ListTitlesLimit)
	}
	if c.DefaultTopN < 0 {
		return fmt.Errorf("invalid default_top_n: %d", c.DefaultTopN)
	}
	return nil
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, val string) error{
	"dataset_path":    func(c *Global, v string) error { c.DatasetPath = v; return nil },
	"delimiter":       func(c *Global, v string) error { c.Delimiter = v; return nil },
	"sheet_name":      func(c *Global, v string) error { c.SheetName = v; return nil },
	"export_filename": func(c *Global, v string) error { c.ExportFilename = v; return nil },
	"chat_scope": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "all", "filtered":
			c.ChatScope = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid chat_scope: %s (use all or filtered)", v)
	},
	"list_titles_limit": intSetter(func(c *Global, i int) { c.ListTitlesLimit = i }),
	"default_top_n":     intSetter(func(c *Global, i int) { c.DefaultTopN = i }),
	"cache_ttl_min":     intSetter(func(c *Global, i int) { c.CacheTTLMin = i }),
	"server_addr":       func(c *Global, v string) error { c.ServerAddr = v; return nil },
	"session_ttl_min":   intSetter(func(c *Global, i int) { c.SessionTTLMin = i }),
	"log_level": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", v)
	},
	"log_file":        func(c *Global, v string) error { c.LogFile = v; return nil },
	"log_max_size_mb": intSetter(func(c *Global, i int) { c.LogMaxSizeMB = i }),
}

func intSetter(apply func(c *Global, i int)) func(c *Global, val string) error {
	return func(c *Global, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int: %v", val)
		}
		apply(c, i)
		return nil
	}
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := fn(c, val); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
