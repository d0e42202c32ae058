//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"trialconsent/internal/platform/config"
	redisclient "trialconsent/internal/platform/redis"
)

// testKeyPrefix keeps integration keys apart from anything else in the server.
const testKeyPrefix = "trialconsent-test"

// RedisContainer backs the eligibility cache in integration tests.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	// Client is built the same way the server builds its cache client.
	Client *redisclient.Client
}

// NewRedisContainer starts redis:7-alpine and connects to it through the
// platform client.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	client, err := redisclient.New(ctx, config.RedisConfig{
		URL:            url,
		PoolSize:       4,
		DialTimeout:    5 * time.Second,
		EligibilityTTL: time.Minute,
		KeyPrefix:      testKeyPrefix,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to redis: %v", err)
	}

	// No t.Cleanup: the Manager shares this container across suites and
	// Ryuk removes it when the test binary exits.
	return &RedisContainer{
		Container: container,
		URL:       url,
		Client:    client,
	}
}

// FlushAll drops every cached eligibility record between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
