package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newGCEngine(t *testing.T, gc config.GCConfig) *Engine {
	t.Helper()

	ks, err := storage.NewKeyspace(4)
	require.NoError(t, err)

	e, err := NewEngine(ks, &config.Config{GC: gc}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestGCLoop_ReapsWithoutReads(t *testing.T) {
	e := newGCEngine(t, config.GCConfig{
		Enabled:         true,
		Interval:        10 * time.Millisecond,
		SamplesPerCheck: 20,
		MatchThreshold:  0.25,
		MaxRounds:       16,
	})

	for i := 0; i < 200; i++ {
		run(e, fmt.Sprintf("SET tmp:%d v PX 20", i))
	}
	run(e, "SET keep v")

	// DBSIZE counts entries that are expired but not yet reaped
	require.Eventually(t, func() bool {
		return run(e, "DBSIZE").Integer == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "v", run(e, "GET keep").Text())

	stopped := make(chan struct{})
	go func() {
		e.Shutdown()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not stop the GC loop")
	}

	// a second call is a no-op
	e.Shutdown()
}

func TestReapExpired_Rounds(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		maxRounds int
		want      int
	}{
		{"single round", 0.25, 1, 20},
		{"repeats while above threshold", 0.25, 3, 60},
		{"stops at threshold", 1, 3, 20},
		{"zero rounds still runs once", 0.25, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newGCEngine(t, config.GCConfig{
				SamplesPerCheck: 5,
				MatchThreshold:  tt.threshold,
				MaxRounds:       tt.maxRounds,
			})
			t.Cleanup(e.Shutdown)

			for i := 0; i < 400; i++ {
				run(e, fmt.Sprintf("SET tmp:%d v PX 1", i))
			}
			time.Sleep(5 * time.Millisecond)

			// every shard holds more than enough expired keys to fill its samples
			assert.Equal(t, tt.want, e.reapExpired(e.logger))
			assert.Equal(t, int64(400-tt.want), run(e, "DBSIZE").Integer)
		})
	}
}
