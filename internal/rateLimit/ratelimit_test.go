package rateLimit

import (
	"context"
	"testing"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/travel-agency/internal/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container tests are skipped in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redisclient.NewClient(&redisclient.Options{Addr: endpoint})
	defer client.Close()

	rl := NewRateLimiter(redisadapter.NewCache(client))
	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "ip:10.0.0.2", 3, time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	require.Eventually(t, func() bool {
		ok, err := rl.Allow(ctx, "ip:10.0.0.1", 3, time.Second)
		return err == nil && ok
	}, 5*time.Second, 200*time.Millisecond)
}

func TestRateLimiter_ReportsRedisFailure(t *testing.T) {
	client := redisclient.NewClient(&redisclient.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	_, err := NewRateLimiter(redisadapter.NewCache(client)).Allow(context.Background(), "ip:x", 1, time.Second)
	assert.Error(t, err)
}
