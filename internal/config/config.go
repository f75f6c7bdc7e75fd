// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds configuration shared by the pairing server, the bot and the worker.
type Config struct {
	// Port is the port the pairing server listens on (e.g. 4260).
	Port int `mapstructure:"PORT"`
	// DataDir holds the pairing record (auto-pair.json) and the QR image (auto-pair-qr.png).
	DataDir string `mapstructure:"DATA_DIR"`
	// PairServer is the pairing authority base URL the bot talks to.
	PairServer string `mapstructure:"PAIR_SERVER"`
	// BotPhone is the local phone identity the bot binds the pairing code to.
	BotPhone string `mapstructure:"BOT_PHONE"`

	// PairCodePrefix is prepended to the 4-digit code body (e.g. "JagX").
	PairCodePrefix string `mapstructure:"PAIR_CODE_PREFIX"`
	// PairCodeTTL is the code lifetime (e.g. "24h").
	PairCodeTTL string `mapstructure:"PAIR_CODE_TTL"`
	// PairQRURL is the fmt template of the URL encoded in the QR image; %s is the code.
	PairQRURL string `mapstructure:"PAIR_QR_URL"`
	// PairQRSize is the QR image width in pixels.
	PairQRSize int `mapstructure:"PAIR_QR_SIZE"`
	// PairSingleUse rejects verification of an already consumed code when true.
	PairSingleUse bool `mapstructure:"PAIR_SINGLE_USE"`

	// HTTPClientTimeout bounds each bot -> authority request (e.g. "15s").
	HTTPClientTimeout string `mapstructure:"HTTP_CLIENT_TIMEOUT"`

	// DatabaseURL is the Postgres DSN; empty keeps XP in memory and audits to the log only.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// AssetsDir holds the meme/sticker templates and the AI placeholder image.
	AssetsDir string `mapstructure:"ASSETS_DIR"`
	// OutboxDir is where the console transport writes media replies.
	OutboxDir string `mapstructure:"OUTBOX_DIR"`
	// QuizFile is an optional YAML trivia bank replacing the embedded one.
	QuizFile string `mapstructure:"QUIZ_FILE"`
	// AdminPolicyFile is an optional Rego policy gating admin commands.
	AdminPolicyFile string `mapstructure:"ADMIN_POLICY_FILE"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; enables pairing session tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// PairTokenTTL is the pairing session token lifetime (e.g. "24h").
	PairTokenTTL string `mapstructure:"PAIR_TOKEN_TTL"`

	// OTLPEndpoint is the OTLP gRPC collector; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events (default jagx-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", 4260)
	v.SetDefault("DATA_DIR", "/data")
	v.SetDefault("PAIR_SERVER", "http://localhost:4260")
	v.SetDefault("BOT_PHONE", "1234567890")
	v.SetDefault("PAIR_CODE_PREFIX", "JagX")
	v.SetDefault("PAIR_CODE_TTL", "24h")
	v.SetDefault("PAIR_QR_URL", "https://katabump.com/pair?code=%s")
	v.SetDefault("PAIR_QR_SIZE", 300)
	v.SetDefault("PAIR_SINGLE_USE", false)
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ASSETS_DIR", "assets")
	v.SetDefault("OUTBOX_DIR", "outbox")
	v.SetDefault("QUIZ_FILE", "")
	v.SetDefault("ADMIN_POLICY_FILE", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "jagx-pair")
	v.SetDefault("JWT_AUDIENCE", "jagx-bot")
	v.SetDefault("PAIR_TOKEN_TTL", "24h")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "jagx-telemetry")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "jagx-telemetry-worker")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, errors.New("config: DATA_DIR must be set")
	}
	if strings.TrimSpace(cfg.PairCodePrefix) == "" {
		return nil, errors.New("config: PAIR_CODE_PREFIX must be set")
	}
	if strings.Count(cfg.PairQRURL, "%s") != 1 {
		return nil, errors.New("config: PAIR_QR_URL must contain exactly one %s")
	}
	if cfg.PairQRSize <= 0 {
		cfg.PairQRSize = 300
	}
	if (cfg.JWTPrivateKey == "") != (cfg.JWTPublicKey == "") && cfg.Env == "production" {
		return nil, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together when APP_ENV=production")
	}
	cfg.PairServer = strings.TrimSuffix(strings.TrimSpace(cfg.PairServer), "/")

	return &cfg, nil
}

// Addr returns the pairing server listen address (e.g. ":4260").
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PairFile is the path of the persisted pairing record.
func (c *Config) PairFile() string {
	return filepath.Join(c.DataDir, "auto-pair.json")
}

// PairQRFile is the path of the persisted QR image.
func (c *Config) PairQRFile() string {
	return filepath.Join(c.DataDir, "auto-pair-qr.png")
}

// CodeTTL parses PairCodeTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) CodeTTL() time.Duration {
	return parseDuration(c.PairCodeTTL, 24*time.Hour)
}

// ClientTimeout parses HTTPClientTimeout as a time.Duration. Returns 15s if unset or invalid.
func (c *Config) ClientTimeout() time.Duration {
	return parseDuration(c.HTTPClientTimeout, 15*time.Second)
}

// TokenTTL parses PairTokenTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.PairTokenTTL, 24*time.Hour)
}

// TokensEnabled reports whether both halves of the signing key pair are configured.
func (c *Config) TokensEnabled() bool {
	return c.JWTPrivateKey != "" && c.JWTPublicKey != ""
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka event pipeline is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
