package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Database.validate(),
		c.Redis.validate(),
		c.Kafka.validate(),
		c.Auth.validate(),
		c.Trial.validate(),
		c.Validation.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error
	if s.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("server.read_header_timeout must be positive"))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}
	switch l.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}
	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d.URL == "" {
		return nil
	}
	if d.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be >= 1, got %d", d.MaxOpenConns)
	}
	return nil
}

func (r *RedisConfig) validate() error {
	if r.URL == "" {
		return nil
	}
	var errs []error
	if r.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("redis.pool_size must be >= 1, got %d", r.PoolSize))
	}
	if r.EligibilityTTL <= 0 {
		errs = append(errs, errors.New("redis.eligibility_ttl must be positive"))
	}
	if strings.ContainsAny(r.KeyPrefix, " :") {
		errs = append(errs, fmt.Errorf("redis.key_prefix must not contain spaces or colons, got %q", r.KeyPrefix))
	}
	return errors.Join(errs...)
}

func (k *KafkaConfig) validate() error {
	if len(k.Brokers) == 0 {
		return nil
	}
	var errs []error
	if k.AuditTopic == "" {
		errs = append(errs, errors.New("kafka.audit_topic must not be empty when brokers are set"))
	}
	if k.RelayInterval <= 0 {
		errs = append(errs, errors.New("kafka.relay_interval must be positive"))
	}
	if k.RelayBatch < 1 {
		errs = append(errs, fmt.Errorf("kafka.relay_batch must be >= 1, got %d", k.RelayBatch))
	}
	return errors.Join(errs...)
}

func (a *AuthConfig) validate() error {
	if a.JWTSigningKey == "" {
		return errors.New("auth.jwt_signing_key must not be empty")
	}
	return nil
}

func (t *TrialConfig) validate() error {
	if _, err := time.LoadLocation(t.TimeZone); err != nil || t.TimeZone == "" {
		return fmt.Errorf("trial.time_zone must be an IANA zone name, got %q", t.TimeZone)
	}
	return nil
}

func (v *ValidationConfig) validate() error {
	switch v.Mode {
	case "first", "all":
		return nil
	default:
		return fmt.Errorf("validation.mode must be one of: first, all; got %q", v.Mode)
	}
}
