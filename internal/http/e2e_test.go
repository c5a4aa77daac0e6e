package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/travel-agency/internal/adapters/mongo"
	"github.com/robertarktes/travel-agency/internal/adapters/postgres"
	"github.com/robertarktes/travel-agency/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/travel-agency/internal/adapters/redis"
	"github.com/robertarktes/travel-agency/internal/audit"
	"github.com/robertarktes/travel-agency/internal/config"
	"github.com/robertarktes/travel-agency/internal/domain"
	httphandler "github.com/robertarktes/travel-agency/internal/http"
	"github.com/robertarktes/travel-agency/internal/idempotency"
	"github.com/robertarktes/travel-agency/internal/observability"
	"github.com/robertarktes/travel-agency/internal/outbox"
	"github.com/robertarktes/travel-agency/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Terminate(ctx) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

type apiClient struct {
	t    *testing.T
	base string
}

func (c apiClient) call(method, path string, body interface{}, headers map[string]string) (int, []byte, http.Header) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out.Bytes(), resp.Header
}

func TestEndToEnd_BookingFlowReachesAuditLog(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end container test is skipped in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env:          map[string]string{"POSTGRES_USER": "travel", "POSTGRES_PASSWORD": "travel", "POSTGRES_DB": "travel"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	redisAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	})
	rabbitAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	})
	mongoAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections"),
	})

	cfg := &config.Config{
		DatabaseURL:      "postgres://travel:travel@" + pgAddr + "/travel?sslmode=disable",
		FrontendURL:      "*",
		RedisAddr:        redisAddr,
		IdempotencyTTL:   time.Hour,
		RateLimit:        1000,
		AuthRateLimit:    1000,
		RabbitURL:        "amqp://guest:guest@" + rabbitAddr + "/",
		RabbitExchange:   "travel.events",
		AuditQueue:       "travel.audit.q",
		MongoURI:         "mongodb://" + mongoAddr,
		MongoDatabase:    "travel",
		OutboxBatchSize:  50,
		StaffPhoneRegion: "US",
	}
	logger := observability.NewNopLogger()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, 1, 10)
	require.NoError(t, err)
	defer pool.Close()
	repo := postgres.NewRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), redisCache, cfg.IdempotencyTTL)

	stores := httphandler.Stores{Users: repo, Packages: repo, Bookings: repo, Reviews: repo, Staff: repo, Dashboard: repo, Health: repo}
	h := httphandler.NewHandlers(cfg, stores, idemp, logger)
	srv := httptest.NewServer(httphandler.SetupRouter(h, logger, rateLimit.NewRateLimiter(redisCache), cfg))
	defer srv.Close()
	api := apiClient{t: t, base: srv.URL}

	status, body, _ := api.call(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var user domain.User
	require.NoError(t, json.Unmarshal(body, &user))

	status, body, _ = api.call(http.MethodPost, "/packages/", map[string]interface{}{
		"type": "Beach", "name": "Bali Escape", "price": 500, "slot": 5, "location": "Bali", "duration": 7,
	}, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var pkg domain.Package
	require.NoError(t, json.Unmarshal(body, &pkg))

	bookingReq := map[string]interface{}{"user_id": user.ID, "package_id": pkg.ID, "total_people": 3}
	key := map[string]string{"Idempotency-Key": "e2e-booking-0001-abcdef"}

	status, first, _ := api.call(http.MethodPost, "/bookings/", bookingReq, key)
	require.Equal(t, http.StatusCreated, status, string(first))
	status, replay, headers := api.call(http.MethodPost, "/bookings/", bookingReq, key)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "true", headers.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first), string(replay))

	var booking domain.Booking
	require.NoError(t, json.Unmarshal(first, &booking))
	packagePath := fmt.Sprintf("/packages/%d", pkg.ID)

	_, body, _ = api.call(http.MethodGet, packagePath, nil, nil)
	require.NoError(t, json.Unmarshal(body, &pkg))
	assert.Equal(t, 2, pkg.Slot)

	status, _, _ = api.call(http.MethodPost, "/bookings/", bookingReq, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = api.call(http.MethodDelete, packagePath, nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _, _ = api.call(http.MethodDelete, fmt.Sprintf("/bookings/%d", booking.ID), nil, nil)
	require.Equal(t, http.StatusOK, status)
	_, body, _ = api.call(http.MethodGet, packagePath, nil, nil)
	require.NoError(t, json.Unmarshal(body, &pkg))
	assert.Equal(t, 5, pkg.Slot)

	// relay the two ledger events through the broker into the audit trail
	conn, err := amqp.Dial(cfg.RabbitURL)
	require.NoError(t, err)
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, cfg.RabbitExchange, cfg.AuditQueue, []string{"booking.*"})
	require.NoError(t, err)
	defer consumer.Close()
	deliveries, err := consumer.Consume(ctx)
	require.NoError(t, err)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	require.NoError(t, err)
	defer mongoClient.Disconnect(context.Background())
	auditLog := mongoadapter.NewAuditLogger(mongoClient.Database(cfg.MongoDatabase), logger)
	require.NoError(t, auditLog.EnsureIndexes(ctx))
	go audit.NewWorker(auditLog, logger).Run(ctx, deliveries)

	pub, err := rabbit.NewPublisher(conn, cfg.RabbitExchange)
	require.NoError(t, err)
	defer pub.Close()
	relay := outbox.NewPublisher(repo, pub, logger, time.Second, cfg.OutboxBatchSize)

	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.Eventually(t, func() bool {
		logs, err := auditLog.ByBooking(ctx, booking.ID)
		return err == nil && len(logs) == 2
	}, 15*time.Second, 200*time.Millisecond)

	logs, err := auditLog.ByBooking(ctx, booking.ID)
	require.NoError(t, err)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{domain.EventBookingCreated, domain.EventBookingCancelled}, actions)
}
