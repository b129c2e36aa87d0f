package config

import (
	"fmt"
	"time"
)

// DatabaseConfig Postgres connection settings
type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Database string `env:"NAME" envDefault:"shethrive"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	MaxConns int    `env:"MAX_CONNS" envDefault:"10"`
	MaxIdle  int    `env:"MAX_IDLE" envDefault:"5"`
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// MQTTConfig MQTT broker settings
type MQTTConfig struct {
	Broker         string        `env:"BROKER" envDefault:"tcp://localhost:1883"`
	ClientID       string        `env:"CLIENT_ID" envDefault:"shethrive-data"`
	Username       string        `env:"USERNAME"`
	Password       string        `env:"PASSWORD"`
	QoS            byte          `env:"QOS" envDefault:"1"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
