// Package testkit starts throwaway Postgres and Redis containers for
// repository tests. Tests using it are skipped under -short or when no
// Docker provider is reachable.
package testkit

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const (
	startTimeout = 2 * time.Minute
	redisPort    = nat.Port("6379/tcp")
)

func skip(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// Redis returns a client connected to a fresh redis:7 container.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	skip(t)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, redisPort)
	if err != nil {
		t.Fatalf("redis mapped port: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Postgres returns a pool on a fresh postgres:16 container after running
// the given SQL files in order.
func Postgres(t *testing.T, scripts ...string) *pgxpool.Pool {
	t.Helper()
	skip(t)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("dinebook"),
		postgres.WithUsername("dinebook"),
		postgres.WithPassword("dinebook"),
		postgres.WithInitScripts(scripts...),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
