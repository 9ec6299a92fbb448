package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	viper *viper.Viper
}

func (c *Config) GetAPIBaseURL() string {
	return strings.TrimRight(c.viper.GetString("api.base_url"), "/")
}

func (c *Config) GetAPITimeout() time.Duration {
	return c.viper.GetDuration("api.timeout")
}

func (c *Config) GetSessionPath() string {
	return c.viper.GetString("session.path")
}

func (c *Config) GetSlackWebhookURL() string {
	return c.viper.GetString("slack.webhook_url")
}

func (c *Config) GetSlackVerificationToken() string {
	return c.viper.GetString("slack.verification_token")
}

func (c *Config) GetSlackListenAddress() string {
	return c.viper.GetString("slack.listen")
}

func (c *Config) GetChartOutput() string {
	return c.viper.GetString("chart.output")
}

func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.viper.GetString("log.level"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"api-url":   "api.base_url",
	"timeout":   "api.timeout",
	"session":   "session.path",
	"log-level": "log.level",
	"listen":    "slack.listen",
}

// LoadConfig reads, by increasing priority: defaults, the optional config
// file, a .env file, PARTYVOTE_* environment variables and changed flags.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	config := Config{
		viper: v,
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("chart.output", "results.html")
	v.SetDefault("log.level", "info")
	v.SetDefault("slack.listen", ":3000")

	v.SetEnvPrefix("PARTYVOTE")

	_ = v.BindEnv("api.base_url", "PARTYVOTE_API_URL")
	_ = v.BindEnv("api.timeout", "PARTYVOTE_API_TIMEOUT")
	_ = v.BindEnv("session.path", "PARTYVOTE_SESSION_PATH")
	_ = v.BindEnv("slack.webhook_url", "PARTYVOTE_SLACK_WEBHOOK_URL")
	_ = v.BindEnv("slack.verification_token", "PARTYVOTE_SLACK_VERIFICATION_TOKEN")
	_ = v.BindEnv("slack.listen", "PARTYVOTE_SLACK_LISTEN")
	_ = v.BindEnv("chart.output", "PARTYVOTE_CHART_OUTPUT")
	_ = v.BindEnv("log.level", "PARTYVOTE_LOG_LEVEL")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	return &config, nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".partyvote", "session.db")
	}
	return filepath.Join(home, ".partyvote", "session.db")
}
