package optimistic_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eternalApril/umbra/internal/optimistic"
	"github.com/eternalApril/umbra/internal/servertest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// purchase moves an item from the market to the buyer if the buyer can pay
func purchase(buyer, seller, item string, price int) optimistic.Body {
	return func(ctx context.Context, tx *redis.Tx) error {
		listed, err := tx.ZScore(ctx, "market:", item).Result()
		if errors.Is(err, redis.Nil) {
			return errSold
		}
		if err != nil {
			return err
		}
		funds, err := tx.HGet(ctx, buyer, "funds").Int()
		if err != nil {
			return err
		}
		if int(listed) != price || price > funds {
			return errTooExpensive
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, seller, "funds", int64(price))
			pipe.HIncrBy(ctx, buyer, "funds", int64(-price))
			pipe.SAdd(ctx, "inventory:"+buyer, item)
			pipe.ZRem(ctx, "market:", item)
			return nil
		})
		return err
	}
}

var (
	errSold         = errors.New("already sold")
	errTooExpensive = errors.New("too expensive")
)

func TestRun_Commits(t *testing.T) {
	addr := servertest.Start(t)
	rdb := servertest.NewClient(t, addr)
	ctx := context.Background()

	rdb.ZAdd(ctx, "market:", redis.Z{Score: 10, Member: "sword"})
	rdb.HSet(ctx, "users:1", "funds", 25)

	err := optimistic.Run(ctx, rdb, optimistic.DefaultPolicy(), purchase("users:1", "users:2", "sword", 10), "market:", "users:1")
	require.NoError(t, err)

	assert.Equal(t, "15", rdb.HGet(ctx, "users:1", "funds").Val())
	assert.Equal(t, "10", rdb.HGet(ctx, "users:2", "funds").Val())
	assert.True(t, rdb.SIsMember(ctx, "inventory:users:1", "sword").Val())

	// the body decides, errors are not retried
	err = optimistic.Run(ctx, rdb, optimistic.DefaultPolicy(), purchase("users:1", "users:2", "sword", 10), "market:", "users:1")
	assert.ErrorIs(t, err, errSold)
}

func TestRun_ConcurrentBuyers(t *testing.T) {
	addr := servertest.Start(t)
	rdb := servertest.NewClient(t, addr)
	ctx := context.Background()

	const buyers = 8
	for i := 0; i < 4; i++ {
		rdb.ZAdd(ctx, "market:", redis.Z{Score: 5, Member: fmt.Sprintf("item%d", i)})
	}
	for b := 0; b < buyers; b++ {
		rdb.HSet(ctx, fmt.Sprintf("users:%d", b), "funds", 100)
	}

	policy := optimistic.Policy{BaseDelay: time.Millisecond, MaxDelay: 20 * time.Millisecond}
	var wg sync.WaitGroup
	var mu sync.Mutex
	bought := 0

	for b := 0; b < buyers; b++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buyer := fmt.Sprintf("users:%d", b)
			for i := 0; i < 4; i++ {
				err := optimistic.Run(ctx, rdb, policy, purchase(buyer, "users:seller", fmt.Sprintf("item%d", i), 5), "market:", buyer)
				if err == nil {
					mu.Lock()
					bought++
					mu.Unlock()
					continue
				}
				assert.ErrorIs(t, err, errSold)
			}
		}()
	}
	wg.Wait()

	// every item was sold exactly once and money was conserved
	assert.Equal(t, 4, bought)
	assert.Equal(t, int64(0), rdb.ZCard(ctx, "market:").Val())
	assert.Equal(t, "20", rdb.HGet(ctx, "users:seller", "funds").Val())

	total := 0
	for b := 0; b < buyers; b++ {
		funds, err := rdb.HGet(ctx, fmt.Sprintf("users:%d", b), "funds").Int()
		require.NoError(t, err)
		total += funds
	}
	assert.Equal(t, buyers*100-20, total)
}

func TestRun_Contention(t *testing.T) {
	addr := servertest.Start(t)
	rdb := servertest.NewClient(t, addr)
	intruder := servertest.NewClient(t, addr)
	ctx := context.Background()

	attempts := 0
	body := func(ctx context.Context, tx *redis.Tx) error {
		attempts++
		n, err := tx.Get(ctx, "counter").Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		// another writer always wins the race
		intruder.Incr(ctx, "counter")

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, "counter", n+1, 0)
			return nil
		})
		return err
	}

	policy := optimistic.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	err := optimistic.Run(ctx, rdb, policy, body, "counter")
	assert.ErrorIs(t, err, optimistic.ErrContention)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "3", rdb.Get(ctx, "counter").Val())
}

func TestRun_ContextDeadline(t *testing.T) {
	addr := servertest.Start(t)
	rdb := servertest.NewClient(t, addr)
	intruder := servertest.NewClient(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	body := func(ctx context.Context, tx *redis.Tx) error {
		intruder.Incr(ctx, "counter")
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, "counter")
			return nil
		})
		return err
	}

	policy := optimistic.Policy{BaseDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond}
	err := optimistic.Run(ctx, rdb, policy, body, "counter")
	// the deadline may fire during a round trip or during the backoff
	assert.Error(t, err)
	assert.NotErrorIs(t, err, optimistic.ErrContention)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}
