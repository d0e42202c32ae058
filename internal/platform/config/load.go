package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	liststrings "trialconsent/pkg/platform/strings"
)

const (
	envPrefix  = "CONSENT_"
	envFileVar = "CONSENT_CONFIG_FILE"
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	file string
}

// WithFile reads the given YAML file between defaults and environment.
// It overrides CONSENT_CONFIG_FILE.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// Load builds the configuration:
//
//  1. defaults
//  2. YAML file (WithFile or CONSENT_CONFIG_FILE), when set
//  3. environment variables with the CONSENT_ prefix
//
// Environment keys are matched against known keys so field-internal
// underscores survive:
//
//	CONSENT_DATABASE_MAX_OPEN_CONNS -> database.max_open_conns
//	CONSENT_TRIAL_TIME_ZONE         -> trial.time_zone
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{file: os.Getenv(envFileVar)}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", o.file, err)
		}
	}

	envLookup := buildEnvLookup(k.Keys())
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			koanfKey, ok := envLookup[key]
			if !ok {
				koanfKey = strings.ReplaceAll(key, "_", ".")
			}
			if listKeys[koanfKey] {
				return koanfKey, strings.Split(value, ",")
			}
			return koanfKey, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Kafka.Brokers = liststrings.Compact(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// listKeys are read from the environment as comma-separated lists.
var listKeys = map[string]bool{
	"kafka.brokers": true,
}

// buildEnvLookup maps env-style keys ("redis_eligibility_ttl") to koanf keys
// ("redis.eligibility_ttl").
func buildEnvLookup(keys []string) map[string]string {
	lookup := make(map[string]string, len(keys))
	for _, key := range keys {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}
	return lookup
}
