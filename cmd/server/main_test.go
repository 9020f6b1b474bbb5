package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"websocket-handshake/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Address:         "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}
}

func runAsync(ctx context.Context, cfg config.Config) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	return done
}

func TestRunStopsWhenParentIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, testConfig())

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.Address = busy.Addr().String()

	// The parent is never cancelled; run must still unwind every goroutine itself.
	select {
	case err := <-runAsync(context.Background(), cfg):
		assert.ErrorContains(t, err, "failed to listen")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}
}
