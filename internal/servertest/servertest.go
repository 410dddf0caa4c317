// Package servertest runs an in-process server on a loopback port for tests
// that talk to it over the network.
package servertest

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/server"
	"github.com/eternalApril/umbra/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Option adjusts the configuration before the server starts
type Option func(cfg *config.Config)

// Start launches a server with GC disabled and returns its address. The
// server is shut down when the test ends
func Start(t testing.TB, opts ...Option) string {
	t.Helper()

	cfg := &config.Config{
		Storage: config.StorageConfig{Shards: 8},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ks, err := storage.NewKeyspace(cfg.Storage.Shards)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	engine, err := server.NewEngine(ks, cfg, log)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.NewServer(engine, cfg.Server, log)
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(context.Background(), ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx) //nolint:errcheck
		if err := <-served; !errors.Is(err, server.ErrServerClosed) {
			t.Errorf("Serve returned %v", err)
		}
		engine.Shutdown()
	})

	return ln.Addr().String()
}

// NewClient connects a go-redis client to addr speaking RESP2
func NewClient(t testing.TB, addr string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() {
		client.Close() //nolint:errcheck
	})
	return client
}
