package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultJWTExpiresIn  = "24h"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "chatbridge"
	DefaultPGSSLMode     = "disable"
	DefaultStorageDriver = StorageDriverPostgres
	DefaultTypingDelayMs = 1000
	DefaultDedupWindow   = "10m"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Slack    SlackConfig    `toml:"slack"`
	Telegram TelegramConfig `toml:"telegram"`
	Bots     []BotConfig    `toml:"bots" validate:"dive"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
	// StrictChannels aborts startup when a channel fails setup instead of
	// leaving it unconfigured.
	StrictChannels bool `toml:"strict_channels"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret" validate:"required"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN returns a postgres connection URL using the given scheme
// ("postgres" for pgx, "pgx5" for migrations).
func (c PostgresConfig) DSN(scheme string) string {
	if scheme == "" {
		scheme = "postgres"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	return u.String()
}

type StorageConfig struct {
	Driver string `toml:"driver" validate:"oneof=postgres memory"`
}

type SlackConfig struct {
	// TypingDelayMs is the pause applied for typing indicators when the
	// payload does not carry its own delay.
	TypingDelayMs int    `toml:"typing_delay_ms" validate:"gte=0"`
	DedupWindow   string `toml:"dedup_window"`
	APIURL        string `toml:"api_url" validate:"omitempty,url"`
}

type TelegramConfig struct {
	TypingDelayMs int    `toml:"typing_delay_ms" validate:"gte=0"`
	APIEndpoint   string `toml:"api_endpoint"`
	// WebhookBaseURL is the public address of this server. When set, the
	// webhook of every Telegram bot is registered at startup.
	WebhookBaseURL string `toml:"webhook_base_url" validate:"omitempty,url"`
}

// BotConfig declares one tenant. Channels maps a channel type ("slack",
// "telegram") to its raw credentials; each adapter validates its own section.
type BotConfig struct {
	ID          string                    `toml:"id" validate:"required"`
	DisplayName string                    `toml:"display_name"`
	Disabled    bool                      `toml:"disabled"`
	Channels    map[string]map[string]any `toml:"channels"`
}

func defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			Driver: DefaultStorageDriver,
		},
		Slack: SlackConfig{
			TypingDelayMs: DefaultTypingDelayMs,
			DedupWindow:   DefaultDedupWindow,
		},
		Telegram: TelegramConfig{
			TypingDelayMs: DefaultTypingDelayMs,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file yields the
// defaults, which still have to pass Validate before use.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	seen := make(map[string]struct{}, len(c.Bots))
	for _, bot := range c.Bots {
		if _, ok := seen[bot.ID]; ok {
			return fmt.Errorf("%w: duplicate bot id %q", ErrInvalid, bot.ID)
		}
		seen[bot.ID] = struct{}{}
	}
	return nil
}
