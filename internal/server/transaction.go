package server

import (
	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
	"go.uber.org/zap"
)

// TxState is the optimistic transaction state of a session
type TxState int

const (
	TxIdle     TxState = iota // nothing watched
	TxWatching                // versions of watched keys are snapshotted
	TxQueueing                // inside MULTI, commands are buffered
)

type queuedCommand struct {
	cmd  *command
	args []resp.Value
}

type transaction struct {
	watched map[string]uint64 // key -> version at WATCH time
	queued  []queuedCommand
	multi   bool
	dirty   bool // a command was rejected while queueing, EXEC must abort
}

func (t *transaction) state() TxState {
	switch {
	case t.multi:
		return TxQueueing
	case len(t.watched) > 0:
		return TxWatching
	default:
		return TxIdle
	}
}

// fail flags the transaction when a command is rejected while queueing
func (t *transaction) fail() {
	if t.multi {
		t.dirty = true
	}
}

func (t *transaction) enqueue(cmd *command, args []resp.Value) {
	t.queued = append(t.queued, queuedCommand{cmd: cmd, args: args})
}

func (t *transaction) reset() {
	t.watched = nil
	t.queued = nil
	t.multi = false
	t.dirty = false
}

// TxState returns the transaction state of the session
func (s *Session) TxState() TxState {
	return s.tx.state()
}

func watch(ctx *commandContext) resp.Value {
	tx := &ctx.session.tx
	if tx.multi {
		return resp.MakeError("ERR WATCH inside MULTI is not allowed")
	}

	if tx.watched == nil {
		tx.watched = make(map[string]uint64, len(ctx.args))
	}
	for _, key := range argStrings(ctx.args) {
		if _, ok := tx.watched[key]; ok {
			continue
		}
		tx.watched[key] = ctx.scope.Version(key)
	}

	return resp.MakeOK()
}

func unwatch(ctx *commandContext) resp.Value {
	ctx.session.tx.watched = nil
	return resp.MakeOK()
}

func multi(ctx *commandContext) resp.Value {
	tx := &ctx.session.tx
	if tx.multi {
		return resp.MakeError("ERR MULTI calls can not be nested")
	}
	tx.multi = true
	return resp.MakeOK()
}

func discard(ctx *commandContext) resp.Value {
	tx := &ctx.session.tx
	if !tx.multi {
		return resp.MakeError("ERR DISCARD without MULTI")
	}
	tx.reset()
	return resp.MakeOK()
}

func exec(ctx *commandContext) resp.Value {
	tx := &ctx.session.tx
	if !tx.multi {
		return resp.MakeError("ERR EXEC without MULTI")
	}
	defer tx.reset()

	if tx.dirty {
		return resp.MakeError("EXECABORT Transaction discarded because of previous errors.")
	}

	return ctx.engine.commit(ctx.session, tx)
}

// commit verifies the watched versions and runs the queued commands under one
// scope covering both, so nothing can slip in between check and execution
func (e *Engine) commit(s *Session, tx *transaction) resp.Value {
	keys := make([]string, 0, len(tx.watched)+len(tx.queued))
	all := false
	for key := range tx.watched {
		keys = append(keys, key)
	}
	for _, q := range tx.queued {
		if q.cmd.has(flagAllKeys) {
			all = true
			break
		}
		keys = append(keys, q.cmd.keysOf(q.args)...)
	}

	var scope *storage.Scope
	if all {
		scope = e.keyspace.AcquireAll()
	} else {
		scope = e.keyspace.Acquire(keys...)
	}
	defer scope.Release()

	for key, version := range tx.watched {
		if scope.Version(key) != version {
			if e.logger.Core().Enabled(zap.DebugLevel) {
				e.logger.Debug("transaction aborted", zap.String("key", key))
			}
			return resp.MakeNilArray()
		}
	}

	results := make([]resp.Value, len(tx.queued))
	for i, q := range tx.queued {
		results[i] = e.call(q.cmd, &commandContext{
			args:    q.args,
			scope:   scope,
			session: s,
			engine:  e,
			inExec:  true,
		})
	}

	return resp.MakeArray(results)
}
