package server

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupEngine creates a fresh engine with a clean keyspace for each test
func setupEngine(t *testing.T) *Engine {
	t.Helper()

	ks, err := storage.NewKeyspace(4)
	require.NoError(t, err)

	eng, err := NewEngine(ks, &config.Config{
		GC: config.GCConfig{Enabled: false},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(eng.Shutdown)
	return eng
}

// helper to construct a RESP command request
func makeCommand(_ string, args ...string) []resp.Value {
	vals := make([]resp.Value, len(args))
	for i, arg := range args {
		vals[i] = resp.MakeBulkString(arg)
	}
	return vals
}

// run executes a whitespace separated command line
func run(e *Engine, line string) resp.Value {
	parts := strings.Fields(line)
	return e.Execute(parts[0], makeCommand(parts[0], parts[1:]...))
}

// texts flattens an array reply of bulk strings, "<nil>" for nil elements
func texts(v resp.Value) []string {
	out := make([]string, len(v.Array))
	for i, item := range v.Array {
		if item.IsNull {
			out[i] = "<nil>"
			continue
		}
		out[i] = item.Text()
	}
	return out
}

func TestPing(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		name     string
		args     []string
		wantType byte
		wantStr  string
	}{
		{"Simple PING", []string{}, resp.TypeSimpleString, "PONG"},
		{"PING with message", []string{"Hello"}, resp.TypeBulkString, "Hello"},
		{"PING too many args", []string{"a", "b"}, resp.TypeError, string(resp.MakeErrorWrongNumberOfArguments("PING").String)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute("PING", makeCommand("PING", tt.args...))
			if res.Type != tt.wantType {
				t.Errorf("got type %v, want %v", res.Type, tt.wantType)
			}

			got := string(res.String)
			if got != tt.wantStr {
				t.Errorf("got %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	e := setupEngine(t)

	res := run(e, "NOPE a b")
	assert.Equal(t, "ERR unknown command 'nope', with args beginning with: 'a' 'b' ", res.Text())

	res = run(e, "get")
	assert.Equal(t, "ERR wrong number of arguments for 'get' command", res.Text())
}

func TestBasicSetGetDel(t *testing.T) {
	e := setupEngine(t)

	// GET missing key
	res := e.Execute("GET", makeCommand("GET", "mykey"))
	if res.IsNull != true {
		t.Errorf("expected null for missing key, got %v", res.Type)
	}

	// SET key
	res = e.Execute("SET", makeCommand("SET", "mykey", "myvalue"))
	if string(res.String) != "OK" {
		t.Errorf("expected OK, got %v", res.String)
	}

	// GET key
	res = e.Execute("GET", makeCommand("GET", "mykey"))
	if string(res.String) != "myvalue" {
		t.Errorf("expected myvalue, got %s", res.String)
	}

	// DEL key
	res = e.Execute("DEL", makeCommand("DEL", "mykey"))
	if res.Integer != 1 {
		t.Errorf("expected 1 deleted, got %d", res.Integer)
	}

	// GET key again
	res = e.Execute("GET", makeCommand("GET", "mykey"))
	if res.IsNull != true {
		t.Errorf("expected null after delete, got %v", res.Type)
	}
}

func TestSetNX_XX(t *testing.T) {
	e := setupEngine(t)

	// SET NX on new key -> OK
	res := e.Execute("SET", makeCommand("SET", "k1", "v1", "NX"))
	if string(res.String) != "OK" {
		t.Errorf("SET NX new key failed")
	}

	// SET NX on existing key -> Nil
	res = e.Execute("SET", makeCommand("SET", "k1", "v2", "NX"))
	if res.IsNull != true {
		t.Errorf("SET NX existing key should return nil, got %v", res.Type)
	}
	// Verify value didn't change
	val := e.Execute("GET", makeCommand("GET", "k1"))
	if string(val.String) != "v1" {
		t.Errorf("SET NX changed value despite failure")
	}

	// SET XX on missing key -> Nil
	res = e.Execute("SET", makeCommand("SET", "k2", "v2", "XX"))
	if res.IsNull != true {
		t.Errorf("SET XX missing key should return nil, got %v", res.Type)
	}

	// SET XX on existing key -> OK
	res = e.Execute("SET", makeCommand("SET", "k1", "v_updated", "XX"))
	if string(res.String) != "OK" {
		t.Errorf("SET XX existing key failed")
	}
	val = e.Execute("GET", makeCommand("GET", "k1"))
	if string(val.String) != "v_updated" {
		t.Errorf("SET XX failed to update value")
	}

	// SET GET returns the previous value
	res = e.Execute("SET", makeCommand("SET", "k1", "v3", "GET"))
	assert.Equal(t, "v_updated", res.Text())
}

func TestSetTTL(t *testing.T) {
	e := setupEngine(t)

	// SET EX (Seconds)
	e.Execute("SET", makeCommand("SET", "k_ex", "val", "EX", "1"))

	// Check immediately
	ttl := e.Execute("TTL", makeCommand("TTL", "k_ex"))
	if ttl.Integer != 1 {
		t.Errorf("expected TTL 1, got %d", ttl.Integer)
	}

	// SET PX (Milliseconds)
	e.Execute("SET", makeCommand("SET", "k_px", "val", "PX", "100"))

	pttl := e.Execute("PTTL", makeCommand("PTTL", "k_px"))
	if pttl.Integer <= 0 || pttl.Integer > 100 {
		t.Errorf("expected PTTL ~100ms, got %d", pttl.Integer)
	}

	time.Sleep(150 * time.Millisecond)
	res := e.Execute("GET", makeCommand("GET", "k_px"))
	if res.IsNull != true {
		t.Errorf("key should have expired (PX)")
	}
}

func TestSetKeepTTL(t *testing.T) {
	e := setupEngine(t)

	// Set key with TTL of 100 seconds
	e.Execute("SET", makeCommand("SET", "k_keep", "v1", "EX", "100"))

	// Update value but Keep TTL
	e.Execute("SET", makeCommand("SET", "k_keep", "v2", "KEEPTTL"))

	val := e.Execute("GET", makeCommand("GET", "k_keep"))
	if string(val.String) != "v2" {
		t.Errorf("KEEPTTL value not updated")
	}

	// Verify TTL is still approx 100
	ttl := e.Execute("TTL", makeCommand("TTL", "k_keep"))
	if ttl.Integer < 95 || ttl.Integer > 100 {
		t.Errorf("KEEPTTL removed the expiration, got %d", ttl.Integer)
	}

	// A plain SET drops the TTL
	e.Execute("SET", makeCommand("SET", "k_keep", "v3"))
	ttl = e.Execute("TTL", makeCommand("TTL", "k_keep"))
	assert.Equal(t, int64(-1), ttl.Integer)

	// Verify KEEPTTL on new key behaves like persistent key (no TTL)
	e.Execute("SET", makeCommand("SET", "k_new_keep", "v1", "KEEPTTL"))
	ttl = e.Execute("TTL", makeCommand("TTL", "k_new_keep"))
	if ttl.Integer != -1 {
		t.Errorf("KEEPTTL on new key should have -1 TTL, got %d", ttl.Integer)
	}
}

func TestSetTimestamps(t *testing.T) {
	e := setupEngine(t)

	// EXAT: expire 2 seconds in future
	future := time.Now().Add(2 * time.Second).Unix()
	futureStr := fmt.Sprintf("%d", future)

	e.Execute("SET", makeCommand("SET", "k_exat", "v", "EXAT", futureStr))

	ttl := e.Execute("TTL", makeCommand("TTL", "k_exat"))
	// Should be 1 or 2 depending on rounding
	if ttl.Integer < 1 || ttl.Integer > 2 {
		t.Errorf("EXAT failed, expected ~2s TTL, got %d", ttl.Integer)
	}
}

func TestTTL_PTTL_Codes(t *testing.T) {
	e := setupEngine(t)

	// Missing Key -> -2
	res := e.Execute("TTL", makeCommand("TTL", "missing"))
	if res.Integer != -2 {
		t.Errorf("expected -2 for missing key, got %d", res.Integer)
	}

	// Persistent Key -> -1
	e.Execute("SET", makeCommand("SET", "persistent", "val"))
	res = e.Execute("TTL", makeCommand("TTL", "persistent"))
	if res.Integer != -1 {
		t.Errorf("expected -1 for persistent key, got %d", res.Integer)
	}
	res = e.Execute("PTTL", makeCommand("PTTL", "persistent"))
	if res.Integer != -1 {
		t.Errorf("expected -1 for persistent key (PTTL), got %d", res.Integer)
	}
}

func TestExpire(t *testing.T) {
	e := setupEngine(t)

	run(e, "SET k v")

	assert.Equal(t, int64(0), run(e, "EXPIRE missing 10").Integer)
	assert.Equal(t, int64(0), run(e, "EXPIRE k 10 XX").Integer, "XX needs an existing TTL")
	assert.Equal(t, int64(1), run(e, "EXPIRE k 10 NX").Integer)
	assert.Equal(t, int64(0), run(e, "EXPIRE k 20 NX").Integer)
	assert.Equal(t, int64(0), run(e, "EXPIRE k 5 GT").Integer)
	assert.Equal(t, int64(1), run(e, "EXPIRE k 20 GT").Integer)
	assert.Equal(t, int64(1), run(e, "EXPIRE k 5 LT").Integer)
	assert.Equal(t, int64(5), run(e, "TTL k").Integer)

	assert.Equal(t, int64(1), run(e, "PERSIST k").Integer)
	assert.Equal(t, int64(0), run(e, "PERSIST k").Integer)
	assert.Equal(t, int64(-1), run(e, "TTL k").Integer)

	// a deadline in the past deletes the key right away
	assert.Equal(t, int64(1), run(e, "EXPIRE k 0").Integer)
	assert.Equal(t, int64(-2), run(e, "TTL k").Integer)
	assert.Equal(t, int64(0), run(e, "EXISTS k").Integer)

	assert.True(t, run(e, "EXPIRE k 10 NX XX").IsError())
	assert.True(t, run(e, "EXPIRE k ten").IsError())
}

func TestSetSyntaxErrors(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		name     string
		args     []string
		expected string // partial error string match
	}{
		{
			"NX and XX together",
			[]string{"k", "v", "NX", "XX"},
			"syntax error",
		},
		{
			"XX and NX together",
			[]string{"k", "v", "XX", "NX"},
			"syntax error",
		},
		{
			"EX without value",
			[]string{"k", "v", "EX"},
			"syntax error",
		},
		{
			"EX with non-integer",
			[]string{"k", "v", "EX", "abc"},
			"value is not an integer",
		},
		{
			"EX zero",
			[]string{"k", "v", "EX", "0"},
			"invalid expire time",
		},
		{
			"Double TTL (EX then PX)",
			[]string{"k", "v", "EX", "10", "PX", "100"},
			"syntax error",
		},
		{
			"KEEPTTL with EX",
			[]string{"k", "v", "KEEPTTL", "EX", "10"},
			"syntax error",
		},
		{
			"Unknown Argument",
			[]string{"k", "v", "FOOBAR"},
			"syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute("SET", makeCommand("SET", tt.args...))
			if res.Type != resp.TypeError {
				t.Errorf("expected error, got %v", res.Type)
			}
			if !strings.Contains(string(res.String), tt.expected) {
				t.Errorf("expected error containing %q, got %q", tt.expected, res.String)
			}
		})
	}
}

func TestStringCommands(t *testing.T) {
	e := setupEngine(t)

	tests := []struct {
		line string
		want string
	}{
		{"INCR n", "1"},
		{"INCRBY n 41", "42"},
		{"DECR n", "41"},
		{"DECRBY n 40", "1"},
		{"INCRBYFLOAT f 1.5", "1.5"},
		{"APPEND s hello", "5"},
		{"APPEND s _world", "11"},
		{"STRLEN s", "11"},
		{"GETRANGE s 0 4", "hello"},
		{"GETRANGE s -5 -1", "world"},
		{"SUBSTR s 0 4", "hello"},
		{"SETRANGE s 6 there", "11"},
		{"GET s", "hello_there"},
		{"GETSET s new", "hello_there"},
		{"GETDEL s", "new"},
		{"EXISTS s", "0"},
		{"MSET a 1 b 2", "OK"},
		{"MSETNX b 3 c 4", "0"},
		{"MSETNX c 3 d 4", "1"},
		{"SETNX a 9", "0"},
		{"SETEX e 100 v", "OK"},
		{"TYPE e", "string"},
		{"TYPE nothing", "none"},
	}

	for _, tt := range tests {
		res := run(e, tt.line)
		got := res.Text()
		if res.Type == resp.TypeInteger {
			got = fmt.Sprint(res.Integer)
		}
		assert.Equal(t, tt.want, got, tt.line)
	}

	assert.Equal(t, []string{"1", "2", "<nil>", "4"}, texts(run(e, "MGET a b zz d")))

	run(e, "SET str abc")
	assert.Equal(t, "ERR value is not an integer or out of range", run(e, "INCR str").Text())

	run(e, "SET big 9223372036854775807")
	assert.Equal(t, "ERR increment or decrement would overflow", run(e, "INCR big").Text())
}

func TestOversizedArguments(t *testing.T) {
	e := setupEngine(t)

	tooLong := "ERR string exceeds maximum allowed size (512MB)"
	assert.Equal(t, tooLong, run(e, "SETRANGE k 9223372036854775807 x").Text())
	assert.Equal(t, tooLong, run(e, "SETRANGE k 536870912 x").Text())
	assert.Equal(t, int64(0), run(e, "EXISTS k").Integer)

	run(e, "SADD s a b")
	outOfRange := "ERR value is out of range"
	assert.Equal(t, outOfRange, run(e, "SRANDMEMBER s -9223372036854775808").Text())
	assert.Equal(t, outOfRange, run(e, "SRANDMEMBER s -99999999999").Text())
	assert.Len(t, run(e, "SRANDMEMBER s 9223372036854775807").Array, 2)
}

func TestExpireOutOfClockRange(t *testing.T) {
	e := setupEngine(t)

	run(e, "SET long v")
	tests := []struct {
		line string
		want string
	}{
		{"EXPIRE long 9223372036", "ERR invalid expire time in 'expire' command"},
		{"PEXPIRE long 9223372036854775807", "ERR invalid expire time in 'pexpire' command"},
		{"EXPIREAT long 9223372036854775807", "ERR invalid expire time in 'expireat' command"},
		{"SET long2 v EX 9223372036", "ERR invalid expire time in 'set' command"},
		{"SETEX long2 9223372036 v", "ERR invalid expire time in 'setex' command"},
		{"PSETEX long2 9223372036854775807 v", "ERR invalid expire time in 'psetex' command"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, run(e, tt.line).Text(), tt.line)
	}

	// nothing was deleted or written
	assert.Equal(t, "v", run(e, "GET long").Text())
	assert.Equal(t, int64(-1), run(e, "TTL long").Integer)
	assert.True(t, run(e, "GET long2").IsNull)

	// a lifetime of decades still fits
	assert.Equal(t, int64(1), run(e, "EXPIRE long 1000000000").Integer)
	assert.InDelta(t, 1000000000, run(e, "TTL long").Integer, 1)
}

func TestCommandPanicIsContained(t *testing.T) {
	e := setupEngine(t)

	e.commands["BOOM"] = &command{
		name:    "BOOM",
		handler: func(*commandContext) resp.Value { panic("boom") },
		meta:    commandRegistry["GET"],
	}

	run(e, "SET k v")
	assert.Equal(t, "ERR internal error while executing 'boom'", run(e, "BOOM k").Text())

	// the shard lock was released
	assert.Equal(t, "v", run(e, "GET k").Text())

	s := e.NewSession(context.Background(), nil)
	s.Execute("MULTI", nil)
	s.Execute("BOOM", makeCommand("BOOM", "k"))
	s.Execute("SET", makeCommand("SET", "k", "after"))
	res := s.Execute("EXEC", nil)
	require.Len(t, res.Array, 2)
	assert.True(t, res.Array[0].IsError())
	assert.Equal(t, "OK", res.Array[1].Text())
	assert.Equal(t, "after", run(e, "GET k").Text())
}

func TestWrongType(t *testing.T) {
	e := setupEngine(t)

	run(e, "LPUSH l a")
	want := "WRONGTYPE Operation against a key holding the wrong kind of value"

	for _, line := range []string{"GET l", "INCR l", "HGET l f", "SADD l m", "ZADD l 1 m", "APPEND l x"} {
		assert.Equal(t, want, run(e, line).Text(), line)
	}
	assert.Equal(t, int64(1), run(e, "LLEN l").Integer)
}

func TestKeysAndRename(t *testing.T) {
	e := setupEngine(t)

	run(e, "MSET user:1 a user:2 b other c")

	assert.ElementsMatch(t, []string{"user:1", "user:2"}, texts(run(e, "KEYS user:*")))
	assert.Equal(t, int64(3), run(e, "DBSIZE").Integer)

	assert.Equal(t, "OK", run(e, "RENAME other moved").Text())
	assert.Equal(t, "c", run(e, "GET moved").Text())
	assert.Equal(t, "ERR no such key", run(e, "RENAME other x").Text())
	assert.Equal(t, int64(0), run(e, "RENAMENX moved user:1").Integer)

	assert.False(t, run(e, "RANDOMKEY").IsNull)
	assert.Equal(t, "OK", run(e, "FLUSHALL").Text())
	assert.True(t, run(e, "RANDOMKEY").IsNull)
	assert.Equal(t, int64(0), run(e, "DBSIZE").Integer)
}

func TestListCommands(t *testing.T) {
	e := setupEngine(t)

	assert.Equal(t, int64(3), run(e, "RPUSH l a b c").Integer)
	assert.Equal(t, int64(4), run(e, "LPUSH l z").Integer)
	assert.Equal(t, []string{"z", "a", "b", "c"}, texts(run(e, "LRANGE l 0 -1")))
	assert.Equal(t, []string{}, texts(run(e, "LRANGE l 5 10")))

	assert.Equal(t, "c", run(e, "LINDEX l -1").Text())
	assert.True(t, run(e, "LINDEX l 10").IsNull)
	assert.Equal(t, "OK", run(e, "LSET l 0 y").Text())
	assert.Equal(t, "ERR index out of range", run(e, "LSET l 10 y").Text())

	assert.Equal(t, int64(5), run(e, "LINSERT l BEFORE a x").Integer)
	assert.Equal(t, int64(-1), run(e, "LINSERT l AFTER nope x").Integer)
	assert.Equal(t, int64(1), run(e, "LREM l 0 x").Integer)

	assert.Equal(t, "y", run(e, "LPOP l").Text())
	assert.Equal(t, []string{"c", "b"}, texts(run(e, "RPOP l 2")))
	assert.Equal(t, int64(1), run(e, "LLEN l").Integer)

	assert.Equal(t, "a", run(e, "RPOPLPUSH l dst").Text())
	assert.Equal(t, int64(0), run(e, "EXISTS l").Integer, "an emptied list is deleted")
	assert.True(t, run(e, "LPOP l").IsNull)
	assert.True(t, run(e, "LPOP l 2").IsNull)

	assert.Equal(t, int64(0), run(e, "LPUSHX l a").Integer)
	run(e, "RPUSH dst b c")
	assert.Equal(t, "a", run(e, "LMOVE dst dst LEFT RIGHT").Text())
	assert.Equal(t, []string{"b", "c", "a"}, texts(run(e, "LRANGE dst 0 -1")))
	assert.True(t, run(e, "LMOVE dst dst UP DOWN").IsError())

	assert.Equal(t, "OK", run(e, "LTRIM dst 1 -1").Text())
	assert.Equal(t, []string{"c", "a"}, texts(run(e, "LRANGE dst 0 -1")))
}

func TestHashCommands(t *testing.T) {
	e := setupEngine(t)

	assert.Equal(t, int64(2), run(e, "HSET h name ann age 30").Integer)
	assert.Equal(t, int64(0), run(e, "HSET h age 31").Integer)
	assert.Equal(t, "OK", run(e, "HMSET h city rome").Text())
	assert.Equal(t, int64(0), run(e, "HSETNX h city oslo").Integer)

	assert.Equal(t, "31", run(e, "HGET h age").Text())
	assert.True(t, run(e, "HGET h missing").IsNull)
	assert.Equal(t, []string{"ann", "<nil>"}, texts(run(e, "HMGET h name missing")))
	assert.Equal(t, []string{"age", "31", "city", "rome", "name", "ann"}, texts(run(e, "HGETALL h")))
	assert.Equal(t, []string{"age", "city", "name"}, texts(run(e, "HKEYS h")))
	assert.Equal(t, int64(3), run(e, "HLEN h").Integer)

	assert.Equal(t, int64(32), run(e, "HINCRBY h age 1").Integer)
	assert.Equal(t, "0.5", run(e, "HINCRBYFLOAT h score 0.5").Text())
	assert.Equal(t, "ERR value is not an integer or out of range", run(e, "HINCRBY h name 1").Text())

	assert.Equal(t, int64(1), run(e, "HEXISTS h city").Integer)
	assert.Equal(t, int64(2), run(e, "HDEL h city nope score").Integer)
	assert.True(t, run(e, "HSET h odd").IsError())
}

func TestSetCommands(t *testing.T) {
	e := setupEngine(t)

	assert.Equal(t, int64(3), run(e, "SADD s1 a b c").Integer)
	assert.Equal(t, int64(0), run(e, "SADD s1 a").Integer)
	run(e, "SADD s2 b c d")

	assert.Equal(t, []string{"a", "b", "c"}, texts(run(e, "SMEMBERS s1")))
	assert.Equal(t, []string{"b", "c"}, texts(run(e, "SINTER s1 s2")))
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts(run(e, "SUNION s1 s2")))
	assert.Equal(t, []string{"a"}, texts(run(e, "SDIFF s1 s2")))

	assert.Equal(t, int64(2), run(e, "SINTERSTORE dst s1 s2").Integer)
	assert.Equal(t, int64(0), run(e, "SINTERSTORE dst s1 missing").Integer)
	assert.Equal(t, int64(0), run(e, "EXISTS dst").Integer, "empty result deletes the destination")

	assert.Equal(t, int64(1), run(e, "SMOVE s1 s2 a").Integer)
	assert.Equal(t, int64(1), run(e, "SISMEMBER s2 a").Integer)
	assert.Equal(t, int64(2), run(e, "SCARD s1").Integer)

	assert.Len(t, run(e, "SRANDMEMBER s2 -6").Array, 6)
	assert.Len(t, run(e, "SRANDMEMBER s2 10").Array, 4)
	assert.False(t, run(e, "SPOP s1").IsNull)
	assert.Len(t, run(e, "SPOP s1 5").Array, 1)
	assert.True(t, run(e, "SPOP s1").IsNull)
	assert.Equal(t, int64(1), run(e, "SREM s2 a").Integer)
}

func TestSortedSetCommands(t *testing.T) {
	e := setupEngine(t)

	run(e, "ZADD z 1 a")
	run(e, "ZADD z 2 b")
	assert.Equal(t, "6", run(e, "ZINCRBY z 5 a").Text())
	assert.Equal(t, []string{"b", "2", "a", "6"}, texts(run(e, "ZRANGE z 0 -1 WITHSCORES")))

	assert.Equal(t, int64(2), run(e, "ZADD z 3 c 4 d").Integer)
	assert.Equal(t, int64(0), run(e, "ZADD z NX 100 c").Integer)
	assert.Equal(t, int64(1), run(e, "ZADD z CH GT 10 c").Integer)
	assert.Equal(t, int64(0), run(e, "ZADD z LT 20 c").Integer)
	assert.True(t, run(e, "ZADD z XX INCR 1 nope").IsNull)
	assert.Equal(t, "11", run(e, "ZADD z INCR 1 c").Text())
	assert.True(t, run(e, "ZADD z NX XX 1 a").IsError())
	assert.True(t, run(e, "ZADD z 1 a 2").IsError())

	// b=2 d=4 a=6 c=11
	assert.Equal(t, int64(0), run(e, "ZRANK z b").Integer)
	assert.Equal(t, int64(0), run(e, "ZREVRANK z c").Integer)
	assert.True(t, run(e, "ZRANK z nope").IsNull)
	assert.Equal(t, "4", run(e, "ZSCORE z d").Text())
	assert.Equal(t, []string{"2", "<nil>"}, texts(run(e, "ZMSCORE z b nope")))
	assert.Equal(t, int64(4), run(e, "ZCARD z").Integer)
	assert.Equal(t, int64(2), run(e, "ZCOUNT z (2 6").Integer)

	assert.Equal(t, []string{"c", "a"}, texts(run(e, "ZREVRANGE z 0 1")))
	assert.Equal(t, []string{"d", "a"}, texts(run(e, "ZRANGEBYSCORE z (2 +inf LIMIT 0 2")))
	assert.Equal(t, []string{"a", "d"}, texts(run(e, "ZREVRANGEBYSCORE z 6 3")))
	assert.Equal(t, []string{"c", "a"}, texts(run(e, "ZRANGE z +inf 5 BYSCORE REV")))
	assert.Equal(t, []string{}, texts(run(e, "ZRANGE z 3 1")))
	assert.True(t, run(e, "ZRANGE z 0 1 LIMIT 0 1").IsError())
	assert.Equal(t, "ERR min or max is not a float", run(e, "ZCOUNT z x 1").Text())

	assert.Equal(t, []string{"b", "2"}, texts(run(e, "ZPOPMIN z")))
	assert.Equal(t, []string{"c", "11", "a", "6"}, texts(run(e, "ZPOPMAX z 2")))
	assert.Equal(t, int64(1), run(e, "ZREM z d nope").Integer)
	assert.Equal(t, int64(0), run(e, "EXISTS z").Integer)

	run(e, "ZADD r 1 a 2 b 3 c 4 d")
	assert.Equal(t, int64(2), run(e, "ZREMRANGEBYRANK r 0 1").Integer)
	assert.Equal(t, int64(1), run(e, "ZREMRANGEBYSCORE r 4 4").Integer)
	assert.Equal(t, []string{"c"}, texts(run(e, "ZRANGE r 0 -1")))
}

func TestSortedSetStore(t *testing.T) {
	e := setupEngine(t)

	run(e, "ZADD z1 1 a 2 b")
	run(e, "ZADD z2 10 b 20 c")
	run(e, "SADD ids a c")

	assert.Equal(t, int64(3), run(e, "ZUNIONSTORE out 2 z1 z2").Integer)
	assert.Equal(t, []string{"a", "1", "b", "12", "c", "20"}, texts(run(e, "ZRANGE out 0 -1 WITHSCORES")))

	assert.Equal(t, int64(1), run(e, "ZINTERSTORE out 2 z1 z2 WEIGHTS 2 1 AGGREGATE MAX").Integer)
	assert.Equal(t, []string{"b", "10"}, texts(run(e, "ZRANGE out 0 -1 WITHSCORES")))

	// plain sets contribute score 1
	assert.Equal(t, int64(1), run(e, "ZINTERSTORE out 2 z2 ids").Integer)
	assert.Equal(t, []string{"c", "21"}, texts(run(e, "ZRANGE out 0 -1 WITHSCORES")))

	assert.Equal(t, int64(1), run(e, "ZDIFFSTORE out 2 z1 z2").Integer)
	assert.Equal(t, []string{"a"}, texts(run(e, "ZRANGE out 0 -1")))

	assert.Equal(t, int64(0), run(e, "ZINTERSTORE out 2 z1 missing").Integer)
	assert.Equal(t, int64(0), run(e, "EXISTS out").Integer)

	assert.Equal(t, "ERR at least 1 input key is needed for 'zunionstore' command", run(e, "ZUNIONSTORE out 0 z1").Text())
	assert.Equal(t, "ERR syntax error", run(e, "ZUNIONSTORE out 3 z1 z2").Text())
	assert.Equal(t, "ERR syntax error", run(e, "ZDIFFSTORE out 1 z1 WEIGHTS 2").Text())
	assert.Equal(t, "ERR weight value is not a float", run(e, "ZUNIONSTORE out 1 z1 WEIGHTS x").Text())
}

func TestSortCommand(t *testing.T) {
	e := setupEngine(t)

	run(e, "RPUSH ids 3 1 2")
	run(e, "MSET w_1 30 w_2 10 w_3 20")
	run(e, "HSET obj_1 name one")
	run(e, "HSET obj_2 name two")

	assert.Equal(t, []string{"1", "2", "3"}, texts(run(e, "SORT ids")))
	assert.Equal(t, []string{"3", "2"}, texts(run(e, "SORT ids DESC LIMIT 0 2")))
	assert.Equal(t, []string{"2", "3", "1"}, texts(run(e, "SORT ids BY w_*")))
	assert.Equal(t, []string{"3", "1", "2"}, texts(run(e, "SORT ids BY nosort")))
	assert.Equal(t, []string{"one", "1", "two", "2", "<nil>", "3"}, texts(run(e, "SORT ids GET obj_*->name GET #")))

	assert.Equal(t, int64(3), run(e, "SORT ids DESC STORE sorted").Integer)
	assert.Equal(t, []string{"3", "2", "1"}, texts(run(e, "LRANGE sorted 0 -1")))

	run(e, "SADD names bob al")
	assert.Equal(t, "ERR one or more scores can't be converted into double", run(e, "SORT names").Text())
	assert.Equal(t, []string{"al", "bob"}, texts(run(e, "SORT names ALPHA")))
	assert.Equal(t, "ERR syntax error", run(e, "SORT names LIMIT 1").Text())
}

func TestCommandIntrospection(t *testing.T) {
	e := setupEngine(t)

	count := run(e, "COMMAND COUNT")
	assert.Equal(t, int64(len(commandRegistry)), count.Integer)

	// every registered command has metadata and every entry a handler
	assert.Len(t, e.commands, len(commandRegistry))

	info := run(e, "COMMAND INFO get nope")
	require.Len(t, info.Array, 2)
	assert.Equal(t, "get", info.Array[0].Array[0].Text())
	assert.True(t, info.Array[1].IsNull)
}
