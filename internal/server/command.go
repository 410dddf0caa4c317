package server

import (
	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

// commandContext is everything a handler may touch while the command runs
type commandContext struct {
	args    []resp.Value
	scope   *storage.Scope // shards owning the command keys, locked for the whole call
	session *Session
	engine  *Engine
	inExec  bool          // running inside EXEC, blocking commands must not wait
	block   *blockRequest // set by a blocking command that found no data
}

type commandFunc func(ctx *commandContext) resp.Value

// keysFunc extracts the keys of a command whose key positions depend on its arguments
type keysFunc func(args []resp.Value) []string

type commandFlag uint8

// flagAllKeys marks a dynamic key set that locks every shard. flagPubSub
// commands are the only ones accepted while subscribed. flagTxControl commands
// run immediately inside MULTI, flagNoMulti ones are refused there
const (
	flagAllKeys commandFlag = 1 << iota
	flagPubSub
	flagNoMulti
	flagTxControl
)

type command struct {
	name    string
	handler commandFunc
	meta    commandMetadata
	keys    keysFunc
	flags   commandFlag
}

func (c *command) has(f commandFlag) bool {
	return c.flags&f != 0
}

// checkArity validates the argument count; args excludes the command name
func (c *command) checkArity(args []resp.Value) bool {
	n := len(args) + 1
	if c.meta.arity >= 0 {
		return n == c.meta.arity
	}
	return n >= -c.meta.arity
}

// keysOf returns the keys the command touches, using its key spec unless a
// custom extractor is set
func (c *command) keysOf(args []resp.Value) []string {
	if c.keys != nil {
		return c.keys(args)
	}
	return keysFromSpec(c.meta, args)
}

func keysFromSpec(m commandMetadata, args []resp.Value) []string {
	if m.firstKey == 0 {
		return nil
	}

	// positions are 1-based over the full command, args starts at position 1
	last := m.lastKey
	if last < 0 {
		last = len(args) + 1 + last
	}
	step := max(m.step, 1)

	keys := make([]string, 0, (last-m.firstKey)/step+1)
	for pos := m.firstKey; pos <= last && pos <= len(args); pos += step {
		keys = append(keys, string(args[pos-1].String))
	}
	return keys
}
