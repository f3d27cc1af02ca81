// Package config loads tweetmix settings from config.yml, .env files and
// TWEETMIX_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "TWEETMIX_"
	ConfigFileName = "config.yml"
	EnvFileName    = ".env"
	DefaultDirName = "tweetmix"
	DefaultAPIURL  = "https://api.twitter.com/1.1"
)

// Poll holds the refresh interval of each feed. Zero disables a feed.
type Poll struct {
	Home      time.Duration `yaml:"home"`
	Mentions  time.Duration `yaml:"mentions"`
	Messages  time.Duration `yaml:"messages"`
	Favorites time.Duration `yaml:"favorites"`
	TimeAgo   time.Duration `yaml:"time_ago"`
}

// Config contains YAML-serializable configuration settings. Access tokens
// are never written to config.yml; they live in the token store or the
// environment.
type Config struct {
	APIURL            string  `yaml:"api_url"`
	ConsumerKey       string  `yaml:"consumer_key,omitempty"`
	ConsumerSecret    string  `yaml:"consumer_secret,omitempty"`
	ScreenName        string  `yaml:"screen_name,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	MaxTextLen        int     `yaml:"max_text_len,omitempty"`
	LogFile           string  `yaml:"log_file,omitempty"`
	Poll              Poll    `yaml:"poll"`

	AccessToken       string `yaml:"-"`
	AccessTokenSecret string `yaml:"-"`

	// Dir is the directory the config was loaded from.
	Dir string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:            DefaultAPIURL,
		RequestsPerSecond: 1,
		Burst:             3,
		Poll: Poll{
			Home:      70 * time.Second,
			Mentions:  2 * time.Minute,
			Messages:  2 * time.Minute,
			Favorites: 5 * time.Minute,
			TimeAgo:   30 * time.Second,
		},
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", DefaultDirName)
	}
	return filepath.Join(userConfigDir, DefaultDirName)
}

// Load reads the configuration from dir. A missing config.yml or .env is
// not an error.
func Load(dir string) (*Config, error) {
	for _, envFile := range []string{EnvFileName, filepath.Join(dir, EnvFileName)} {
		if err := loadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	fileCfg, err := loadConfigFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		// fileCfg starts from the defaults, so its zero values were written
		// explicitly and must win.
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return nil, fmt.Errorf("config.Load: error merging config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return cfg, nil
}

// loadEnvFile sets variables from path without overriding the environment.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config.Load: failed to read %s: %w", path, err)
	}
	return nil
}

func loadConfigFile(path string) (*Config, error) {
	rawData, err := os.ReadFile(path) // #nosec G304 -- path built from the config dir
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config.loadConfigFile: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(rawData, cfg); err != nil {
		return nil, fmt.Errorf("config.loadConfigFile: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	vars := map[string]*string{
		"API_URL":             &c.APIURL,
		"CONSUMER_KEY":        &c.ConsumerKey,
		"CONSUMER_SECRET":     &c.ConsumerSecret,
		"SCREEN_NAME":         &c.ScreenName,
		"ACCESS_TOKEN":        &c.AccessToken,
		"ACCESS_TOKEN_SECRET": &c.AccessTokenSecret,
		"LOG_FILE":            &c.LogFile,
	}
	for key, field := range vars {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*field = v
		}
	}

	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sREQUESTS_PER_SECOND %q: %w", EnvPrefix, v, err)
		}
		c.RequestsPerSecond = rps
	}
	return nil
}

// Write saves the YAML-serializable settings to dir/config.yml.
func (c *Config) Write(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config.Write: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config.Write: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600); err != nil {
		return fmt.Errorf("config.Write: %w", err)
	}
	return nil
}

// String renders the effective settings with secrets masked.
func (c *Config) String() string {
	masked := *c
	masked.ConsumerSecret = mask(c.ConsumerSecret)
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
