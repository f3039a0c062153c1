package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/session"
)

const (
	envPrefix      = "SCENESCANNER"
	configName     = ".scenescanner"
	defaultEnvFile = ".env"
)

// Config holds every runtime option of the client.
type Config struct {
	APIURL      string `mapstructure:"api_url"`
	Model       string `mapstructure:"model"`
	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	Transcript  string `mapstructure:"transcript"`
	NoAltScreen bool   `mapstructure:"no_alt_screen"`
}

// Options points Load at its sources. Zero values fall back to the defaults.
type Options struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"api-url":       "api_url",
	"model":         "model",
	"log-file":      "log_file",
	"log-level":     "log_level",
	"transcript":    "transcript",
	"no-alt-screen": "no_alt_screen",
}

// Load resolves configuration with precedence flags > environment > config
// file > .env file > defaults.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetDefault("api_url", api.DefaultBaseURL)
	v.SetDefault("model", string(session.DefaultModel))
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("transcript", "")
	v.SetDefault("no_alt_screen", false)

	if err := applyEnvFile(v, opts.EnvFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := session.ParseModel(c.Model); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("api_url cannot be empty")
	}
	return nil
}

// SelectedModel returns the validated catalog entry.
func (c *Config) SelectedModel() session.Model {
	model, err := session.ParseModel(c.Model)
	if err != nil {
		return session.DefaultModel
	}
	return model
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(configName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// applyEnvFile feeds SCENESCANNER_* entries of a dotenv file in as defaults,
// leaving the process environment untouched.
func applyEnvFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file: %w", err)
	}
	prefix := envPrefix + "_"
	for name, value := range values {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		v.SetDefault(strings.ToLower(strings.TrimPrefix(name, prefix)), value)
	}
	return nil
}
