// Package config loads img2pdf settings from defaults, an optional YAML file,
// IMG2PDF_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. IMG2PDF_SERVE_ADDR.
const EnvPrefix = "IMG2PDF"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Preview PreviewConfig `mapstructure:"preview"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServeConfig struct {
	Addr            string `mapstructure:"addr"`
	MaxUploadMemory int64  `mapstructure:"max_upload_memory"`
}

type PreviewConfig struct {
	MaxEdge int `mapstructure:"max_edge"`
}

type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("output.dir", ".")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.max_upload_memory", int64(32<<20))
	v.SetDefault("preview.max_edge", 256)
	v.SetDefault("fetch.timeout", 30*time.Second)
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up. cfgFile, when not empty, replaces the
// search.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("img2pdf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "img2pdf"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if there is one and decodes v. A missing file
// is fine unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	} else {
		slog.Debug("Using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command could work with.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.Log.Format)
	}
	if c.Preview.MaxEdge <= 0 {
		return fmt.Errorf("preview.max_edge must be positive, got %d", c.Preview.MaxEdge)
	}
	if c.Serve.MaxUploadMemory <= 0 {
		return fmt.Errorf("serve.max_upload_memory must be positive, got %d", c.Serve.MaxUploadMemory)
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// NewLogger builds the process logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
