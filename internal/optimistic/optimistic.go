// Package optimistic retries WATCH/MULTI/EXEC transactions that lose a race
// against a concurrent writer.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrContention is returned when every attempt was aborted by a concurrent write
var ErrContention = errors.New("optimistic: too many conflicting writers")

// Policy bounds the retry loop
type Policy struct {
	MaxAttempts int           // 0 means retry until ctx is done
	BaseDelay   time.Duration // delay after the first abort, doubled on every retry
	MaxDelay    time.Duration // cap of a single delay
}

// DefaultPolicy suits short read-modify-write bodies on a local server
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 16,
		BaseDelay:   time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
	}
}

// Body reads the watched state through tx and queues its writes with
// tx.TxPipelined. Returning nil without queueing anything ends the loop
type Body func(ctx context.Context, tx *redis.Tx) error

// Run watches keys and runs body until its transaction commits. Aborted
// transactions are retried with jittered exponential backoff; any other
// error from body is returned as is
func Run(ctx context.Context, client *redis.Client, policy Policy, body Body, keys ...string) error {
	delay := policy.BaseDelay
	for attempt := 1; ; attempt++ {
		err := client.Watch(ctx, func(tx *redis.Tx) error {
			return body(ctx, tx)
		}, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return fmt.Errorf("%w: %d attempts on %v", ErrContention, attempt, keys)
		}

		if err := sleep(ctx, jitter(delay)); err != nil {
			return err
		}
		delay = min(delay*2, max(policy.MaxDelay, policy.BaseDelay))
	}
}

// jitter picks a delay in [d/2, d)
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(half)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
