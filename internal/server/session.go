package server

import (
	"context"
	"strings"
	"sync"

	"github.com/eternalApril/umbra/internal/pubsub"
	"github.com/eternalApril/umbra/internal/resp"
	"go.uber.org/zap"
)

// Conn is the client side of a session, used for replies that do not follow
// the request/response rhythm (pub/sub deliveries and confirmations)
type Conn interface {
	Send(v resp.Value) error
	Flush() error
	Close() error
}

// closeNotifier is implemented by connections that can report a hang-up while
// the session is suspended in a blocking command
type closeNotifier interface {
	closeNotify(ctx context.Context) (context.Context, func())
}

// Session is the per-connection state: transaction, subscriptions and the
// QUIT flag. It is not safe for concurrent use except for the pub/sub pump
type Session struct {
	engine *Engine
	ctx    context.Context
	conn   Conn
	tx     transaction

	sub    *pubsub.Subscriber
	pumpMu sync.Mutex // orders subscription confirmations before deliveries

	quit bool
}

// NewSession creates the state of one client. conn may be nil when the caller
// never subscribes; ctx bounds blocking waits and the pub/sub pump
func (e *Engine) NewSession(ctx context.Context, conn Conn) *Session {
	return &Session{
		engine: e,
		ctx:    ctx,
		conn:   conn,
	}
}

// Execute runs or queues one command and returns its reply. A zero Value
// means the reply was already written to the connection
func (s *Session) Execute(name string, args []resp.Value) resp.Value {
	name = strings.ToUpper(name)
	e := s.engine

	if e.logger.Core().Enabled(zap.DebugLevel) {
		// Log the command name and number of args
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(args)),
		)
	}

	cmd, ok := e.commands[name]
	if !ok {
		s.tx.fail()
		return unknownCommand(name, args)
	}

	if !cmd.checkArity(args) {
		s.tx.fail()
		return resp.MakeErrorWrongNumberOfArguments(name)
	}

	if s.subscribed() && !cmd.has(flagPubSub) {
		return resp.MakeErrorf("ERR Can't execute '%s': only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT are allowed in this context", strings.ToLower(name))
	}

	if s.tx.multi && !cmd.has(flagTxControl) {
		if cmd.has(flagNoMulti) {
			s.tx.fail()
			return resp.MakeError("ERR Command not allowed inside a transaction")
		}
		s.tx.enqueue(cmd, args)
		return resp.MakeSimpleString("QUEUED")
	}

	return s.run(cmd, args)
}

// run executes cmd under a scope over its keys and, if it asked to block,
// suspends until it is served
func (s *Session) run(cmd *command, args []resp.Value) resp.Value {
	ctx := &commandContext{
		args:    args,
		session: s,
		engine:  s.engine,
	}

	res := s.invoke(cmd, ctx)
	if ctx.block == nil {
		return res
	}

	waitCtx := s.ctx
	if n, ok := s.conn.(closeNotifier); ok {
		var stop func()
		waitCtx, stop = n.closeNotify(waitCtx)
		defer stop()
	}
	return s.engine.blocking.wait(waitCtx, ctx.block)
}

func (s *Session) invoke(cmd *command, ctx *commandContext) resp.Value {
	ks := s.engine.keyspace
	if cmd.has(flagAllKeys) {
		ctx.scope = ks.AcquireAll()
	} else if keys := cmd.keysOf(ctx.args); len(keys) > 0 {
		ctx.scope = ks.Acquire(keys...)
	}
	if ctx.scope != nil {
		defer ctx.scope.Release()
	}

	return s.engine.call(cmd, ctx)
}

// call runs the handler of cmd. A panicking handler fails only its own
// command; the caller still releases the scope
func (e *Engine) call(cmd *command, ctx *commandContext) (res resp.Value) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked",
				zap.String("cmd", cmd.name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			ctx.block = nil
			res = resp.MakeErrorf("ERR internal error while executing '%s'", strings.ToLower(cmd.name))
		}
	}()

	return cmd.handler(ctx)
}

// Closed reports whether the client asked to end the connection
func (s *Session) Closed() bool {
	return s.quit
}

// Close drops every subscription and pending transaction state
func (s *Session) Close() {
	if s.sub != nil {
		s.sub.Close()
	}
	s.tx.reset()
}

func unknownCommand(name string, args []resp.Value) resp.Value {
	var b strings.Builder
	for _, a := range args {
		b.WriteString("'")
		b.Write(a.String)
		b.WriteString("' ")
	}
	return resp.MakeErrorf("ERR unknown command '%s', with args beginning with: %s", strings.ToLower(name), b.String())
}
