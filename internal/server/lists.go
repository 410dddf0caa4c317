package server

import (
	"math"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

// push builds LPUSH, RPUSH, LPUSHX and RPUSHX
func push(left, onlyIfExists bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		n, err := ctx.scope.Push(argString(ctx.args[0]), left, onlyIfExists, argBytes(ctx.args[1:])...)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeInteger(int64(n))
	}
}

// pop builds LPOP and RPOP. Without a count the reply is a single element
func pop(left bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		if len(ctx.args) > 2 {
			return resp.MakeError("ERR syntax error")
		}

		count := 1
		if len(ctx.args) == 2 {
			n, err := parseCount(ctx.args[1])
			if err != nil {
				return errorReply(err)
			}
			count = n
		}

		vals, err := ctx.scope.Pop(argString(ctx.args[0]), left, count)
		if err != nil {
			return errorReply(err)
		}

		if len(ctx.args) == 1 {
			if len(vals) == 0 {
				return resp.MakeNilBulkString()
			}
			return resp.MakeBulkBytes(vals[0])
		}
		if vals == nil {
			return resp.MakeNilArray()
		}
		return resp.MakeBulkArray(vals)
	}
}

func llen(ctx *commandContext) resp.Value {
	n, err := ctx.scope.LLen(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func lrange(ctx *commandContext) resp.Value {
	start, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	stop, err := parseInt(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}

	vals, err := ctx.scope.LRange(argString(ctx.args[0]), start, stop)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBulkArray(vals)
}

func lindex(ctx *commandContext) resp.Value {
	index, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}

	val, ok, err := ctx.scope.LIndex(argString(ctx.args[0]), index)
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(val)
}

func lset(ctx *commandContext) resp.Value {
	index, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	if err := ctx.scope.LSet(argString(ctx.args[0]), index, ctx.args[2].String); err != nil {
		return errorReply(err)
	}
	return resp.MakeOK()
}

func ltrim(ctx *commandContext) resp.Value {
	start, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	stop, err := parseInt(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	if err := ctx.scope.LTrim(argString(ctx.args[0]), start, stop); err != nil {
		return errorReply(err)
	}
	return resp.MakeOK()
}

func lrem(ctx *commandContext) resp.Value {
	count, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	n, err := ctx.scope.LRem(argString(ctx.args[0]), count, ctx.args[2].String)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func linsert(ctx *commandContext) resp.Value {
	var before bool
	switch argUpper(ctx.args[1]) {
	case "BEFORE":
		before = true
	case "AFTER":
	default:
		return resp.MakeError("ERR syntax error")
	}

	n, err := ctx.scope.LInsert(argString(ctx.args[0]), before, ctx.args[2].String, ctx.args[3].String)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

// parseDirection reads LEFT or RIGHT
func parseDirection(v resp.Value) (left bool, ok bool) {
	switch argUpper(v) {
	case "LEFT":
		return true, true
	case "RIGHT":
		return false, true
	default:
		return false, false
	}
}

func moveReply(val []byte, ok bool, err error) resp.Value {
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(val)
}

func rpoplpush(ctx *commandContext) resp.Value {
	return moveReply(ctx.scope.Move(argString(ctx.args[0]), argString(ctx.args[1]), false, true))
}

func lmove(ctx *commandContext) resp.Value {
	fromLeft, ok1 := parseDirection(ctx.args[2])
	toLeft, ok2 := parseDirection(ctx.args[3])
	if !ok1 || !ok2 {
		return resp.MakeError("ERR syntax error")
	}
	return moveReply(ctx.scope.Move(argString(ctx.args[0]), argString(ctx.args[1]), fromLeft, toLeft))
}

// timeoutDuration converts a blocking timeout; one too long for a Duration waits forever
func timeoutDuration(seconds float64) time.Duration {
	d := seconds * float64(time.Second)
	if d >= math.MaxInt64 {
		return 0
	}
	return time.Duration(d)
}

// blockingPop builds BLPOP and BRPOP. The keys are tried in order; when all
// are empty the client waits on every one of them
func blockingPop(left bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		last := len(ctx.args) - 1
		timeout, err := parseTimeout(ctx.args[last])
		if err != nil {
			return errorReply(err)
		}
		keys := argStrings(ctx.args[:last])

		for _, key := range keys {
			vals, err := ctx.scope.Pop(key, left, 1)
			if err != nil {
				return errorReply(err)
			}
			if len(vals) > 0 {
				return popReply(key, vals[0])
			}
		}

		if ctx.inExec {
			return resp.MakeNilArray()
		}

		ctx.block = &blockRequest{
			keys:    keys,
			timeout: timeoutDuration(timeout),
			serve: func(scope *storage.Scope, key string) (resp.Value, bool) {
				vals, err := scope.Pop(key, left, 1)
				if err != nil || len(vals) == 0 {
					return resp.Value{}, false
				}
				return popReply(key, vals[0]), true
			},
		}
		return resp.Value{}
	}
}

func popReply(key string, val []byte) resp.Value {
	return resp.MakeArray([]resp.Value{resp.MakeBulkString(key), resp.MakeBulkBytes(val)})
}

// blockingMove is the shared body of BRPOPLPUSH and BLMOVE
func blockingMove(ctx *commandContext, src, dst string, fromLeft, toLeft bool, timeout float64) resp.Value {
	val, ok, err := ctx.scope.Move(src, dst, fromLeft, toLeft)
	if err != nil || ok {
		return moveReply(val, ok, err)
	}

	if ctx.inExec {
		return resp.MakeNilArray()
	}

	ctx.block = &blockRequest{
		keys:    []string{src},
		extra:   []string{dst},
		timeout: timeoutDuration(timeout),
		serve: func(scope *storage.Scope, key string) (resp.Value, bool) {
			val, ok, err := scope.Move(key, dst, fromLeft, toLeft)
			if err != nil {
				return errorReply(err), true
			}
			if !ok {
				return resp.Value{}, false
			}
			return resp.MakeBulkBytes(val), true
		},
	}
	return resp.Value{}
}

func brpoplpush(ctx *commandContext) resp.Value {
	timeout, err := parseTimeout(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	return blockingMove(ctx, argString(ctx.args[0]), argString(ctx.args[1]), false, true, timeout)
}

func blmove(ctx *commandContext) resp.Value {
	fromLeft, ok1 := parseDirection(ctx.args[2])
	toLeft, ok2 := parseDirection(ctx.args[3])
	if !ok1 || !ok2 {
		return resp.MakeError("ERR syntax error")
	}
	timeout, err := parseTimeout(ctx.args[4])
	if err != nil {
		return errorReply(err)
	}
	return blockingMove(ctx, argString(ctx.args[0]), argString(ctx.args[1]), fromLeft, toLeft, timeout)
}
