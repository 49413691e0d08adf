package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the checker configuration.
type Settings struct {
	// Verbose renders regions as '_#Nr.
	Verbose bool `mapstructure:"verbose"`

	// AnnotatedOnly prints notes only for #[regions] functions.
	AnnotatedOnly bool `mapstructure:"annotated_only"`

	// Color is auto, always or never.
	Color string `mapstructure:"color"`

	// Snippets prints source lines under locations.
	Snippets bool `mapstructure:"snippets"`

	// Format is text or yaml.
	Format string `mapstructure:"format"`

	// Jobs bounds parallel work; 0 means one per CPU.
	Jobs int `mapstructure:"jobs"`

	Cache   CacheSettings   `mapstructure:"cache"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// CacheSettings configures the report cache. An empty Path keeps the cache
// in memory only.
type CacheSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Size    int    `mapstructure:"size"`
}

type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Color:    "auto",
		Snippets: true,
		Format:   "text",
		Jobs:     runtime.GOMAXPROCS(0),
		Cache: CacheSettings{
			Enabled: false,
			Size:    256,
		},
		Logging: LoggingSettings{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads regionck.yaml (from configPath, or the working directory and
// ~/.regionck) and REGIONCK_* environment variables. A missing config file
// is not an error.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+ConfigFileName))
		}
		v.AddConfigPath(".")
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("annotated_only", d.AnnotatedOnly)
	v.SetDefault("color", d.Color)
	v.SetDefault("snippets", d.Snippets)
	v.SetDefault("format", d.Format)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate rejects values the driver cannot act on.
func (s *Settings) Validate() error {
	switch s.Format {
	case "text", "yaml":
	default:
		return fmt.Errorf("invalid format %q (want text or yaml)", s.Format)
	}
	switch s.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (want text or json)", s.Logging.Format)
	}
	if s.Jobs < 0 {
		return fmt.Errorf("invalid jobs %d", s.Jobs)
	}
	if s.Cache.Size <= 0 {
		return fmt.Errorf("invalid cache.size %d", s.Cache.Size)
	}
	return nil
}
