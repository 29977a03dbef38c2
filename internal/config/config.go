package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig
	Telegram TelegramConfig
	Session  SessionConfig
	DB       DBConfig
}

type HTTPConfig struct {
	Addr     string
	BasePath string
}

type TelegramConfig struct {
	BotToken    string
	EmailDomain string
	Redirect    string
}

type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type DBConfig struct {
	// EnsureTables runs the CREATE TABLE IF NOT EXISTS helpers on startup.
	EnsureTables bool
}

// Load reads configuration from AUTH_* environment variables and an optional
// config file. With path empty it looks for ./configs/config.yaml and
// carries on without one.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return &Config{
		HTTP: HTTPConfig{
			Addr:     v.GetString("http.addr"),
			BasePath: strings.TrimRight(v.GetString("http.base_path"), "/"),
		},
		Telegram: TelegramConfig{
			BotToken:    v.GetString("telegram.bot_token"),
			EmailDomain: v.GetString("telegram.email_domain"),
			Redirect:    v.GetString("telegram.redirect"),
		},
		Session: SessionConfig{
			Secret:     v.GetString("session.secret"),
			CookieName: v.GetString("session.cookie"),
			TTL:        v.GetDuration("session.ttl"),
			Secure:     v.GetBool("session.secure"),
		},
		DB: DBConfig{
			EnsureTables: v.GetBool("db.ensure_tables"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8431")
	v.SetDefault("http.base_path", "/api/auth")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.email_domain", "telegram.local")
	v.SetDefault("telegram.redirect", "")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie", "session_token")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("db.ensure_tables", false)
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "AUTH_TELEGRAM_BOT_TOKEN")
	}
	if c.Session.Secret == "" {
		missing = append(missing, "AUTH_SESSION_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}
