// Package config loads service configuration from defaults, an optional YAML
// file and CONSENT_-prefixed environment variables, in that order of
// precedence (last wins).
package config

import (
	"time"
	// Trial sites run in zones the host image may not ship.
	_ "time/tzdata"
)

// Config holds all configuration for the consent service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Kafka      KafkaConfig      `koanf:"kafka"`
	Auth       AuthConfig       `koanf:"auth"`
	Trial      TrialConfig      `koanf:"trial"`
	Validation ValidationConfig `koanf:"validation"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig selects Postgres persistence. An empty URL keeps every store
// in memory.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// RedisConfig configures the eligibility read-through cache. An empty URL
// disables caching.
type RedisConfig struct {
	URL            string        `koanf:"url"`
	PoolSize       int           `koanf:"pool_size"`
	MinIdleConns   int           `koanf:"min_idle_conns"`
	DialTimeout    time.Duration `koanf:"dial_timeout"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	EligibilityTTL time.Duration `koanf:"eligibility_ttl"`
	// KeyPrefix namespaces every cache key so environments can share a server.
	KeyPrefix string `koanf:"key_prefix"`
}

// KafkaConfig configures the audit outbox relay. No brokers means audit
// events stay in the outbox table.
type KafkaConfig struct {
	Brokers       []string      `koanf:"brokers"`
	AuditTopic    string        `koanf:"audit_topic"`
	RelayInterval time.Duration `koanf:"relay_interval"`
	RelayBatch    int           `koanf:"relay_batch"`
}

type AuthConfig struct {
	JWTSigningKey string `koanf:"jwt_signing_key"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
}

// TrialConfig holds study-wide settings.
type TrialConfig struct {
	// TimeZone is the IANA zone used to take the calendar date of a
	// consent datetime when deriving age from date of birth.
	TimeZone string `koanf:"time_zone"`
}

// Location resolves TimeZone. Validate has already rejected unknown zones.
func (t TrialConfig) Location() *time.Location {
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidationConfig selects how many problems a submission reports.
// "first" stops at the first failing rule, "all" collects every failure.
type ValidationConfig struct {
	Mode string `koanf:"mode"`
}
