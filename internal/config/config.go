package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int    `mapstructure:"port"`
		Mode string `mapstructure:"mode"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Data struct {
		Dir         string `mapstructure:"dir"`
		AlertsFile  string `mapstructure:"alerts_file"`
		CatalogFile string `mapstructure:"catalog_file"`
	} `mapstructure:"data"`

	Session struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`

	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenTTL      time.Duration `mapstructure:"token_ttl"`
		AdminUsername string        `mapstructure:"admin_username"`
		AdminPassword string        `mapstructure:"admin_password"`
	} `mapstructure:"auth"`

	Dashboard struct {
		TotalBorrowerMultiplier float64 `mapstructure:"total_borrower_multiplier"`
		TopBorrowers            int     `mapstructure:"top_borrowers"`
	} `mapstructure:"dashboard"`

	Notify struct {
		Slack struct {
			WebhookURL string `mapstructure:"webhook_url"`
			Token      string `mapstructure:"token"`
			Channel    string `mapstructure:"channel"`
			Username   string `mapstructure:"username"`
		} `mapstructure:"slack"`

		Email struct {
			SMTPHost  string   `mapstructure:"smtp_host"`
			SMTPPort  int      `mapstructure:"smtp_port"`
			Username  string   `mapstructure:"username"`
			Password  string   `mapstructure:"password"`
			From      string   `mapstructure:"from"`
			Receivers []string `mapstructure:"receivers"`
		} `mapstructure:"email"`
	} `mapstructure:"notify"`

	Monitor struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"monitor"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	// File is the config file that was read or written, empty when none.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/loaneye.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.alerts_file", "alerts_set_updated.csv")
	v.SetDefault("data.catalog_file", "")
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin123")
	v.SetDefault("dashboard.total_borrower_multiplier", 2.5)
	v.SetDefault("dashboard.top_borrowers", 10)
	v.SetDefault("notify.slack.webhook_url", "")
	v.SetDefault("notify.slack.token", "")
	v.SetDefault("notify.slack.channel", "")
	v.SetDefault("notify.slack.username", "loaneye")
	v.SetDefault("notify.email.smtp_host", "")
	v.SetDefault("notify.email.smtp_port", 587)
	v.SetDefault("notify.email.username", "")
	v.SetDefault("notify.email.password", "")
	v.SetDefault("notify.email.from", "")
	v.SetDefault("notify.email.receivers", []string{})
	v.SetDefault("monitor.interval", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configFile, or config.yaml from the working directory and
// $HOME/.loaneye when configFile is empty. LOANEYE_* environment variables
// override file values. When no file exists a default one is written.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOANEYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".loaneye"))
		}
	}

	var file string
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if werr := v.SafeWriteConfig(); werr == nil {
				file = "config.yaml"
			}
		case configFile != "" && errors.Is(err, os.ErrNotExist):
			if werr := v.SafeWriteConfigAs(configFile); werr == nil {
				file = configFile
			}
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		file = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Dashboard.TotalBorrowerMultiplier <= 0 {
		return fmt.Errorf("dashboard.total_borrower_multiplier must be positive")
	}
	if c.Dashboard.TopBorrowers <= 0 {
		return fmt.Errorf("dashboard.top_borrowers must be positive")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	return nil
}

// DataPath resolves name against the data directory.
func (c *Config) DataPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}
