// Package config loads the settings of the BDD runner from an optional
// configuration file and MOCK_BDD_* environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joomcode/errorx"
	"github.com/spf13/viper"

	"github.com/RedHatInsights/mockbdd"
)

const (
	EnvPrefix             = "MOCK_BDD"
	ConfigFileEnvVariable = "MOCK_BDD_CONFIG_FILE"

	ProviderLocal  = "local"
	ProviderPodman = "podman"

	DefaultTimeout = time.Minute
)

var (
	ErrNamespace  = errorx.NewNamespace("config")
	NotFoundError = ErrNamespace.NewType("not_found", errorx.NotFound())
	InvalidError  = ErrNamespace.NewType("invalid")
)

type PodmanConfig struct {
	CLI     string   `mapstructure:"cli" yaml:"cli" toml:"cli"`
	Image   string   `mapstructure:"image" yaml:"image" toml:"image"`
	Network string   `mapstructure:"network" yaml:"network" toml:"network"`
	Volumes []string `mapstructure:"volumes" yaml:"volumes" toml:"volumes"`
}

type Config struct {
	Executable         string        `mapstructure:"executable" yaml:"executable" toml:"executable"`
	ExpectedReturnCode int           `mapstructure:"expected_return_code" yaml:"expected_return_code" toml:"expected_return_code"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout" toml:"timeout"`
	Provider           string        `mapstructure:"provider" yaml:"provider" toml:"provider"`
	Format             string        `mapstructure:"format" yaml:"format" toml:"format"`
	Tags               string        `mapstructure:"tags" yaml:"tags" toml:"tags"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level" toml:"log_level"`
	Podman             PodmanConfig  `mapstructure:"podman" yaml:"podman" toml:"podman"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("executable", mockbdd.ExecutableName)
	v.SetDefault("expected_return_code", mockbdd.DefaultReturnCode)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("provider", ProviderLocal)
	v.SetDefault("format", "pretty")
	v.SetDefault("tags", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("podman.cli", "podman")
	v.SetDefault("podman.image", "")
	v.SetDefault("podman.network", "")
	v.SetDefault("podman.volumes", []string{})
}

// Load reads path, or the file named by MOCK_BDD_CONFIG_FILE when path is
// empty. Without a file only defaults and environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(ConfigFileEnvVariable)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
			WithProperty(errorx.PropertyPayload(), path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Executable == "" {
		return InvalidError.New("executable must not be empty")
	}
	if c.Timeout < 0 {
		return InvalidError.New("timeout must not be negative: %s", c.Timeout)
	}
	switch c.Provider {
	case ProviderLocal:
	case ProviderPodman:
		if c.Podman.Image == "" {
			return InvalidError.New("podman provider requires podman.image")
		}
	default:
		return InvalidError.New("unknown provider %q", c.Provider)
	}
	return nil
}
