package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const zapiURLFormat = "https://api.z-api.io/instances/%s/token/%s/send-text"

const (
	GatewayModeFixed = "fixed"
	GatewayModeProbe = "probe"

	DedupBackendMemory   = "memory"
	DedupBackendPostgres = "postgres"
	DedupBackendRedis    = "redis"
)

type Config struct {
	Port           int    `env:"PORT" envDefault:"10000"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv         string `env:"APP_ENV" envDefault:"production"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"paginatto"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`

	GatewayProvider     string        `env:"GATEWAY_PROVIDER" envDefault:"zapi"`
	GatewayMode         string        `env:"GATEWAY_MODE" envDefault:"fixed"`
	GatewayURL          string        `env:"GATEWAY_URL"`
	GatewayToken        string        `env:"GATEWAY_TOKEN"`
	GatewayAuthHeader   string        `env:"GATEWAY_AUTH_HEADER" envDefault:"Client-Token"`
	GatewayAuthScheme   string        `env:"GATEWAY_AUTH_SCHEME"`
	GatewayPhoneField   string        `env:"GATEWAY_PHONE_FIELD" envDefault:"phone"`
	GatewayMessageField string        `env:"GATEWAY_MESSAGE_FIELD" envDefault:"message"`
	GatewayProbeFile    string        `env:"GATEWAY_PROBE_FILE"`
	GatewayTimeout      time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`

	ZAPIInstance    string `env:"ZAPI_INSTANCE"`
	ZAPIToken       string `env:"ZAPI_TOKEN"`
	ZAPIClientToken string `env:"ZAPI_CLIENT_TOKEN"`

	SenderName      string `env:"WHATSAPP_SENDER_NAME" envDefault:"Paginatto"`
	MessageTemplate string `env:"MSG_TEMPLATE"`

	DedupEnabled bool   `env:"DEDUP_ENABLED" envDefault:"true"`
	DedupBackend string `env:"DEDUP_BACKEND" envDefault:"memory"`
	DedupMaxSize int    `env:"DEDUP_MAX_SIZE" envDefault:"10000"`

	DatabaseURL        string `env:"DATABASE_URL"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	RedisURL      string `env:"REDIS_URL"`
	RedisDedupKey string `env:"REDIS_DEDUP_KEY" envDefault:"paginatto:sent_orders"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: dotenv: %w", err)
	}
	return parse()
}

func parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.GatewayMode = strings.ToLower(strings.TrimSpace(c.GatewayMode))
	switch c.GatewayMode {
	case GatewayModeFixed, GatewayModeProbe:
	default:
		return fmt.Errorf("GATEWAY_MODE must be %q or %q, got %q", GatewayModeFixed, GatewayModeProbe, c.GatewayMode)
	}

	c.DedupBackend = strings.ToLower(strings.TrimSpace(c.DedupBackend))
	switch c.DedupBackend {
	case DedupBackendMemory, DedupBackendPostgres, DedupBackendRedis:
	default:
		return fmt.Errorf("DEDUP_BACKEND must be one of memory, postgres, redis, got %q", c.DedupBackend)
	}

	if c.DedupMaxSize < 0 {
		return fmt.Errorf("DEDUP_MAX_SIZE must not be negative")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.GatewayAuthHeader) == "" {
		return fmt.Errorf("GATEWAY_AUTH_HEADER must not be empty")
	}
	return nil
}

// GatewayBaseURL returns GATEWAY_URL, or the Z-API send-text URL when only
// the instance credentials are set. Empty means not configured.
func (c *Config) GatewayBaseURL() string {
	if u := strings.TrimSpace(c.GatewayURL); u != "" {
		return u
	}
	if c.ZAPIInstance != "" && c.ZAPIToken != "" {
		return fmt.Sprintf(zapiURLFormat, c.ZAPIInstance, c.ZAPIToken)
	}
	return ""
}

func (c *Config) GatewayCredential() string {
	if t := strings.TrimSpace(c.GatewayToken); t != "" {
		return t
	}
	return strings.TrimSpace(c.ZAPIClientToken)
}
