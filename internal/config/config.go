package config

import (
	"fmt"
	"time"

	commoncfg "shethrive-data/internal/common/config"

	"github.com/caarlos0/env/v11"
)

// Config shethrive-data settings. Every field has a default so a bare
// `shethrive-data seed` works against the in-memory store.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"shethrive-data"`

	Store struct {
		// memory | redis | postgres | badger
		Backend    string `env:"STORE_BACKEND" envDefault:"memory"`
		BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`
	}
	Database commoncfg.DatabaseConfig `envPrefix:"DB_"`
	Redis    commoncfg.RedisConfig    `envPrefix:"REDIS_"`
	MQTT     commoncfg.MQTTConfig     `envPrefix:"MQTT_"`

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}

	Cipher struct {
		// aead | salt. salt is the legacy obfuscation format and must not be used outside demos.
		Mode      string `env:"CIPHER_MODE" envDefault:"aead"`
		MasterKey string `env:"CIPHER_MASTER_KEY"` // base64, 32 bytes
	}

	Auth struct {
		SigningKey string        `env:"AUTH_SIGNING_KEY" envDefault:"dev-signing-key-change-me"`
		Issuer     string        `env:"AUTH_ISSUER" envDefault:"shethrive"`
		AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
		RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"720h"`
		RoomTTL    time.Duration `env:"AUTH_ROOM_TTL" envDefault:"2h"`
	}

	Payments struct {
		AuthorizeTimeout time.Duration `env:"PAYMENT_AUTHORIZE_TIMEOUT" envDefault:"10s"`
		MaxAttempts      uint          `env:"PAYMENT_MAX_ATTEMPTS" envDefault:"3"`
		// simulated gateway latency
		Latency time.Duration `env:"PAYMENT_LATENCY" envDefault:"0s"`
	}

	Insight struct {
		// gemini | openai | none
		Provider      string        `env:"INSIGHT_PROVIDER" envDefault:"none"`
		GeminiBaseURL string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
		GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
		GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
		OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
		OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
		Timeout       time.Duration `env:"INSIGHT_TIMEOUT" envDefault:"30s"`
		PerMinute     float64       `env:"INSIGHT_RATE_PER_MINUTE" envDefault:"1"`
		Burst         int           `env:"INSIGHT_BURST" envDefault:"3"`
	}

	Audit struct {
		MQTTEnabled   bool   `env:"AUDIT_MQTT_ENABLED" envDefault:"false"`
		MQTTTopic     string `env:"AUDIT_MQTT_TOPIC" envDefault:"shethrive/audit"`
		StreamEnabled bool   `env:"AUDIT_STREAM_ENABLED" envDefault:"false"`
		StreamName    string `env:"AUDIT_STREAM_NAME" envDefault:"shethrive:audit"`
		StreamMaxLen  int64  `env:"AUDIT_STREAM_MAXLEN" envDefault:"10000"`
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Store.Backend {
	case "memory", "redis", "postgres", "badger":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	switch cfg.Cipher.Mode {
	case "aead", "salt":
	default:
		return nil, fmt.Errorf("unknown CIPHER_MODE %q", cfg.Cipher.Mode)
	}
	return cfg, nil
}
