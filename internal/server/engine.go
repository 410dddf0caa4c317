package server

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/pubsub"
	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
	"go.uber.org/zap"
)

// Engine coordinates the execution of commands and manages the background tasks of the repository
type Engine struct {
	commands map[string]*command // Registry of available commands (the key is the command name in uppercase)
	keyspace *storage.Keyspace   // The only owner of key/value state
	hub      *pubsub.Hub         // Channel and pattern subscriptions
	blocking *blockingManager    // Clients suspended on empty lists
	cfg      *config.Config      // Configuration engine
	stopGC   chan struct{}       // Channel for the background GC stop signal
	gcDone   chan struct{}       // Closed when the GC loop has returned
	stopOnce sync.Once           // Ensures that the stop happens only once
	logger   *zap.Logger
}

// NewEngine initializes the engine, registers the commands, and
// if enabled in the config, starts background cleanup of outdated keys
func NewEngine(ks *storage.Keyspace, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if ks == nil {
		return nil, errors.New("keyspace is required")
	}

	engine := &Engine{
		commands: make(map[string]*command),
		keyspace: ks,
		hub:      pubsub.NewHub(cfg.PubSub.MailboxLimit),
		blocking: newBlockingManager(ks),
		cfg:      cfg,
		stopGC:   make(chan struct{}),
		gcDone:   make(chan struct{}),
		logger:   logger,
	}
	engine.registerCommands()
	ks.OnListPush(engine.blocking.signal)

	if cfg.GC.Enabled {
		go engine.startGCLoop()
	} else {
		close(engine.gcDone)
	}

	return engine, nil
}

// startGCLoop triggers the active expiration mechanism
func (e *Engine) startGCLoop() {
	defer close(e.gcDone)

	log := e.logger.Named("gc")
	ticker := time.NewTicker(e.cfg.GC.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.reapExpired(log)
		case <-e.stopGC:
			log.Info("GC stopped")
			return
		}
	}
}

// reapExpired runs sampling rounds while the share of expired keys found stays
// above the threshold, at most MaxRounds times. Returns the number of deleted keys
func (e *Engine) reapExpired(log *zap.Logger) int {
	total := 0
	rounds := max(e.cfg.GC.MaxRounds, 1)

	for round := 0; round < rounds; round++ {
		ratio, expired := e.keyspace.DeleteExpired(e.cfg.GC.SamplesPerCheck)
		total += expired

		if ratio <= e.cfg.GC.MatchThreshold {
			break
		}
	}

	if total > 0 && log.Core().Enabled(zap.DebugLevel) {
		log.Debug("GC delete expired", zap.Int("deleted", total))
	}

	return total
}

// register adds a new command to the engine. Metadata comes from commandRegistry
func (e *Engine) register(name string, handler commandFunc, flags commandFlag) *command {
	meta, ok := commandRegistry[name]
	if !ok {
		panic("server: no metadata for command " + name)
	}

	cmd := &command{
		name:    name,
		handler: handler,
		meta:    meta,
		flags:   flags,
	}
	e.commands[strings.ToUpper(name)] = cmd
	return cmd
}

// registerCommands fills the registry with every supported command
func (e *Engine) registerCommands() {
	// connection
	e.register("PING", ping, flagPubSub)
	e.register("ECHO", echo, 0)
	e.register("QUIT", quit, flagPubSub|flagTxControl)
	e.register("COMMAND", commandCmd, 0)

	// generic
	e.register("DEL", del, 0)
	e.register("UNLINK", del, 0)
	e.register("EXISTS", exists, 0)
	e.register("TYPE", typeCmd, 0)
	e.register("EXPIRE", expireCmd("expire", time.Second, false), 0)
	e.register("PEXPIRE", expireCmd("pexpire", time.Millisecond, false), 0)
	e.register("EXPIREAT", expireCmd("expireat", time.Second, true), 0)
	e.register("PEXPIREAT", expireCmd("pexpireat", time.Millisecond, true), 0)
	e.register("TTL", ttl, 0)
	e.register("PTTL", pttl, 0)
	e.register("PERSIST", persist, 0)
	e.register("KEYS", keys, flagAllKeys)
	e.register("RENAME", rename, 0)
	e.register("RENAMENX", renamenx, 0)
	e.register("RANDOMKEY", randomkey, flagAllKeys)
	e.register("DBSIZE", dbsize, flagAllKeys)
	e.register("FLUSHDB", flushall, flagAllKeys)
	e.register("FLUSHALL", flushall, flagAllKeys)
	e.register("SORT", sortCmd, flagAllKeys)

	// strings
	e.register("GET", get, 0)
	e.register("SET", set, 0)
	e.register("SETNX", setnx, 0)
	e.register("SETEX", setex("setex", time.Second), 0)
	e.register("PSETEX", setex("psetex", time.Millisecond), 0)
	e.register("GETSET", getset, 0)
	e.register("GETDEL", getdel, 0)
	e.register("MGET", mget, 0)
	e.register("MSET", mset, 0)
	e.register("MSETNX", msetnx, 0)
	e.register("APPEND", appendCmd, 0)
	e.register("STRLEN", strlen, 0)
	e.register("INCR", incrBy(1, false), 0)
	e.register("DECR", incrBy(-1, false), 0)
	e.register("INCRBY", incrBy(1, true), 0)
	e.register("DECRBY", incrBy(-1, true), 0)
	e.register("INCRBYFLOAT", incrbyfloat, 0)
	e.register("GETRANGE", getrange, 0)
	e.register("SUBSTR", getrange, 0)
	e.register("SETRANGE", setrange, 0)

	// lists
	e.register("LPUSH", push(true, false), 0)
	e.register("RPUSH", push(false, false), 0)
	e.register("LPUSHX", push(true, true), 0)
	e.register("RPUSHX", push(false, true), 0)
	e.register("LPOP", pop(true), 0)
	e.register("RPOP", pop(false), 0)
	e.register("LLEN", llen, 0)
	e.register("LRANGE", lrange, 0)
	e.register("LINDEX", lindex, 0)
	e.register("LSET", lset, 0)
	e.register("LTRIM", ltrim, 0)
	e.register("LREM", lrem, 0)
	e.register("LINSERT", linsert, 0)
	e.register("RPOPLPUSH", rpoplpush, 0)
	e.register("LMOVE", lmove, 0)
	e.register("BLPOP", blockingPop(true), 0)
	e.register("BRPOP", blockingPop(false), 0)
	e.register("BRPOPLPUSH", brpoplpush, 0)
	e.register("BLMOVE", blmove, 0)

	// hashes
	e.register("HSET", hset, 0)
	e.register("HSETNX", hsetnx, 0)
	e.register("HMSET", hmset, 0)
	e.register("HGET", hget, 0)
	e.register("HMGET", hmget, 0)
	e.register("HGETALL", hgetall, 0)
	e.register("HDEL", hdel, 0)
	e.register("HEXISTS", hexists, 0)
	e.register("HLEN", hlen, 0)
	e.register("HKEYS", hkeys, 0)
	e.register("HVALS", hvals, 0)
	e.register("HINCRBY", hincrby, 0)
	e.register("HINCRBYFLOAT", hincrbyfloat, 0)

	// sets
	e.register("SADD", sadd, 0)
	e.register("SREM", srem, 0)
	e.register("SISMEMBER", sismember, 0)
	e.register("SMEMBERS", smembers, 0)
	e.register("SCARD", scard, 0)
	e.register("SPOP", spop, 0)
	e.register("SRANDMEMBER", srandmember, 0)
	e.register("SMOVE", smove, 0)
	e.register("SINTER", setCombine(storage.SetInter), 0)
	e.register("SUNION", setCombine(storage.SetUnion), 0)
	e.register("SDIFF", setCombine(storage.SetDiff), 0)
	e.register("SINTERSTORE", setStore(storage.SetInter), 0)
	e.register("SUNIONSTORE", setStore(storage.SetUnion), 0)
	e.register("SDIFFSTORE", setStore(storage.SetDiff), 0)

	// sorted sets
	e.register("ZADD", zadd, 0)
	e.register("ZREM", zrem, 0)
	e.register("ZSCORE", zscore, 0)
	e.register("ZMSCORE", zmscore, 0)
	e.register("ZINCRBY", zincrby, 0)
	e.register("ZCARD", zcard, 0)
	e.register("ZCOUNT", zcount, 0)
	e.register("ZRANK", zrank(false), 0)
	e.register("ZREVRANK", zrank(true), 0)
	e.register("ZRANGE", zrange, 0)
	e.register("ZREVRANGE", zrangeByRank(true), 0)
	e.register("ZRANGEBYSCORE", zrangeByScore(false), 0)
	e.register("ZREVRANGEBYSCORE", zrangeByScore(true), 0)
	e.register("ZREMRANGEBYRANK", zremrangebyrank, 0)
	e.register("ZREMRANGEBYSCORE", zremrangebyscore, 0)
	e.register("ZPOPMIN", zpop(false), 0)
	e.register("ZPOPMAX", zpop(true), 0)
	e.register("ZUNIONSTORE", zstore(storage.ZUnion), 0).keys = zstoreKeys
	e.register("ZINTERSTORE", zstore(storage.ZInter), 0).keys = zstoreKeys
	e.register("ZDIFFSTORE", zstore(storage.ZDiff), 0).keys = zstoreKeys

	// transactions
	e.register("WATCH", watch, flagTxControl)
	e.register("UNWATCH", unwatch, 0)
	e.register("MULTI", multi, flagTxControl)
	e.register("EXEC", exec, flagTxControl)
	e.register("DISCARD", discard, flagTxControl)

	// pub/sub
	e.register("PUBLISH", publish, 0)
	e.register("SUBSCRIBE", subscribe, flagPubSub|flagNoMulti)
	e.register("UNSUBSCRIBE", unsubscribe, flagPubSub|flagNoMulti)
	e.register("PSUBSCRIBE", psubscribe, flagPubSub|flagNoMulti)
	e.register("PUNSUBSCRIBE", punsubscribe, flagPubSub|flagNoMulti)
	e.register("PUBSUB", pubsubCmd, 0)
}

// Execute runs a single command outside of any connection state.
// If the command is not found, returns an error in the RESP format
func (e *Engine) Execute(name string, args []resp.Value) resp.Value {
	return e.NewSession(context.Background(), nil).Execute(name, args)
}

// Shutdown shuts down the engine and its background services correctly
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		if e.cfg.GC.Enabled {
			close(e.stopGC)
		}
		<-e.gcDone
		e.logger.Info("GC background process stopped")
	})
}
