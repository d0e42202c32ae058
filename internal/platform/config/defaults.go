package config

const (
	defaultDBMaxOpenConns = 10
	defaultDBMaxIdleConns = 5
	defaultRedisPoolSize  = 10
	defaultRelayBatch     = 100
)

// defaults returns the default configuration values. They are loaded first
// and can be overridden by the YAML file and environment variables.
func defaults() map[string]any {
	return map[string]any{
		"server.addr":                ":8080",
		"server.read_header_timeout": "5s",
		"server.shutdown_timeout":    "15s",

		"log.level":  "info",
		"log.format": "json",

		"database.url":               "",
		"database.max_open_conns":    defaultDBMaxOpenConns,
		"database.max_idle_conns":    defaultDBMaxIdleConns,
		"database.conn_max_lifetime": "30m",

		"redis.url":             "",
		"redis.pool_size":       defaultRedisPoolSize,
		"redis.min_idle_conns":  2,
		"redis.dial_timeout":    "5s",
		"redis.read_timeout":    "3s",
		"redis.write_timeout":   "3s",
		"redis.eligibility_ttl": "10m",
		"redis.key_prefix":      "trialconsent",

		"kafka.brokers":        "",
		"kafka.audit_topic":    "consent.audit",
		"kafka.relay_interval": "2s",
		"kafka.relay_batch":    defaultRelayBatch,

		// Development default; deployments override it.
		"auth.jwt_signing_key": "dev-secret-key-change-in-production",
		"auth.issuer":          "trialconsent",
		"auth.audience":        "edc",

		"trial.time_zone": "Africa/Gaborone",

		"validation.mode": "first",
	}
}
