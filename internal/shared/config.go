package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	PropertiesURL string
	ComplaintsURL string
	APIKey        string
	APIKeyHeader  string
	APIKeyPrefix  string
	FetchTimeout  time.Duration
	FetchRPS      int

	TelegramToken string
	MaxMessageLen int
	PollTimeout   time.Duration
	Workers       int

	RedisAddr string
	RedisPass string
	RedisDB   int
}

// ConfigError reports a setting the process cannot start without.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Load reads .env (if present) and the environment. The result is never mutated afterwards.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("invalid integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      envRaw("HTTP_ADDR", ":8080"),
		PropertiesURL: env("PROPERTIES_URL", os.Getenv("MOCKAPI_URL")),
		ComplaintsURL: env("COMPLAINTS_URL", ""),
		APIKey:        env("MOCKAPI_KEY", ""),
		APIKeyHeader:  env("MOCKAPI_KEY_HEADER", "Authorization"),
		APIKeyPrefix:  envRaw("MOCKAPI_KEY_PREFIX", "Bearer"),
		FetchTimeout:  time.Duration(atoi("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchRPS:      atoi("FETCH_RPS", 5),
		TelegramToken: env("TELEGRAM_TOKEN", ""),
		MaxMessageLen: atoi("TELEGRAM_MAX_LEN", 4000),
		PollTimeout:   time.Duration(atoi("TELEGRAM_POLL_SECONDS", 30)) * time.Second,
		Workers:       atoi("BOT_WORKERS", 8),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
	}
	if c.PropertiesURL == "" {
		return c, &ConfigError{Key: "PROPERTIES_URL", Reason: "set PROPERTIES_URL or MOCKAPI_URL"}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.APIKey == "" {
		log.Info().Msg("MOCKAPI_KEY is empty, sending unauthenticated requests")
	}
	return c, nil
}

// APIKeyValue is the header value sent with every remote request, or "" when no key is configured.
func (c Config) APIKeyValue() string {
	if c.APIKey == "" {
		return ""
	}
	if c.APIKeyPrefix == "" {
		return c.APIKey
	}
	return c.APIKeyPrefix + " " + c.APIKey
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// envRaw distinguishes "set to empty" from "unset".
func envRaw(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return strings.TrimSpace(v)
	}
	return def
}
