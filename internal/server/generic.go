package server

import (
	"math"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

func ping(ctx *commandContext) resp.Value {
	if len(ctx.args) > 1 {
		return resp.MakeErrorWrongNumberOfArguments("PING")
	}

	if ctx.session.subscribed() {
		msg := resp.MakeBulkString("")
		if len(ctx.args) == 1 {
			msg = resp.MakeBulkBytes(ctx.args[0].String)
		}
		return resp.MakeArray([]resp.Value{resp.MakeBulkString("pong"), msg})
	}

	if len(ctx.args) == 1 {
		return resp.MakeBulkBytes(ctx.args[0].String)
	}
	return resp.MakeSimpleString("PONG")
}

func echo(ctx *commandContext) resp.Value {
	return resp.MakeBulkBytes(ctx.args[0].String)
}

func quit(ctx *commandContext) resp.Value {
	ctx.session.quit = true
	return resp.MakeOK()
}

func commandCmd(ctx *commandContext) resp.Value {
	if len(ctx.args) == 0 {
		return getAllCommands()
	}

	switch argUpper(ctx.args[0]) {
	case "COUNT":
		return resp.MakeInteger(int64(len(commandRegistry)))
	case "INFO":
		return getCommandsInfo(ctx.args[1:])
	case "DOCS":
		return getCommandsDocs(ctx.args[1:])
	default:
		return resp.MakeErrorf("ERR unknown subcommand '%s'. Try COMMAND HELP.", argString(ctx.args[0]))
	}
}

func del(ctx *commandContext) resp.Value {
	return resp.MakeInteger(int64(ctx.scope.Delete(argStrings(ctx.args)...)))
}

func exists(ctx *commandContext) resp.Value {
	n := 0
	for _, key := range argStrings(ctx.args) {
		if ctx.scope.Exists(key) {
			n++
		}
	}
	return resp.MakeInteger(int64(n))
}

func typeCmd(ctx *commandContext) resp.Value {
	return resp.MakeSimpleString(ctx.scope.Type(argString(ctx.args[0])).String())
}

// expireCmd builds EXPIRE and friends. unit scales the argument, absolute
// reads it as a Unix timestamp instead of a relative lifetime
func expireCmd(name string, unit time.Duration, absolute bool) commandFunc {
	invalid := resp.MakeErrorf("ERR invalid expire time in '%s' command", name)

	return func(ctx *commandContext) resp.Value {
		key := argString(ctx.args[0])
		n, err := parseInt(ctx.args[1])
		if err != nil {
			return errorReply(err)
		}

		var nx, xx, gt, lt bool
		for _, opt := range ctx.args[2:] {
			switch argUpper(opt) {
			case "NX":
				nx = true
			case "XX":
				xx = true
			case "GT":
				gt = true
			case "LT":
				lt = true
			default:
				return resp.MakeErrorf("ERR Unsupported option %s", argString(opt))
			}
		}
		if nx && (xx || gt || lt) {
			return resp.MakeError("ERR NX and XX, GT or LT options at the same time are not compatible")
		}
		if gt && lt {
			return resp.MakeError("ERR GT and LT options at the same time are not compatible")
		}

		var deadline time.Time
		if absolute {
			if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
				return invalid
			}
			deadline = time.Unix(0, n*int64(unit))
		} else {
			var ok bool
			if deadline, ok = deadlineAfter(ctx.scope.Now(), n, unit); !ok {
				return invalid
			}
		}

		remaining, status := ctx.scope.Expiry(key)
		if status == storage.ExpNotFound {
			return resp.MakeInteger(0)
		}
		current := ctx.scope.Now().Add(remaining)
		switch {
		case nx && status == storage.ExpActive,
			xx && status != storage.ExpActive,
			gt && (status != storage.ExpActive || !deadline.After(current)),
			lt && status == storage.ExpActive && !deadline.Before(current):
			return resp.MakeInteger(0)
		}

		return resp.MakeBool(ctx.scope.Expire(key, deadline))
	}
}

func ttl(ctx *commandContext) resp.Value {
	remaining, status := ctx.scope.Expiry(argString(ctx.args[0]))
	if status != storage.ExpActive {
		return resp.MakeInteger(int64(status))
	}
	return resp.MakeInteger(int64((remaining + 500*time.Millisecond) / time.Second))
}

func pttl(ctx *commandContext) resp.Value {
	remaining, status := ctx.scope.Expiry(argString(ctx.args[0]))
	if status != storage.ExpActive {
		return resp.MakeInteger(int64(status))
	}
	return resp.MakeInteger(remaining.Milliseconds())
}

func persist(ctx *commandContext) resp.Value {
	return resp.MakeBool(ctx.scope.Persist(argString(ctx.args[0])))
}

func keys(ctx *commandContext) resp.Value {
	return resp.MakeStringArray(ctx.scope.Keys(argString(ctx.args[0])))
}

func rename(ctx *commandContext) resp.Value {
	if _, err := ctx.scope.Rename(argString(ctx.args[0]), argString(ctx.args[1]), false); err != nil {
		return errorReply(err)
	}
	return resp.MakeOK()
}

func renamenx(ctx *commandContext) resp.Value {
	ok, err := ctx.scope.Rename(argString(ctx.args[0]), argString(ctx.args[1]), true)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(ok)
}

func randomkey(ctx *commandContext) resp.Value {
	key, ok := ctx.scope.RandomKey()
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(key)
}

func dbsize(ctx *commandContext) resp.Value {
	return resp.MakeInteger(int64(ctx.scope.Len()))
}

func flushall(ctx *commandContext) resp.Value {
	if len(ctx.args) > 1 {
		return resp.MakeError("ERR syntax error")
	}
	if len(ctx.args) == 1 {
		if mode := argUpper(ctx.args[0]); mode != "SYNC" && mode != "ASYNC" {
			return resp.MakeError("ERR syntax error")
		}
	}
	ctx.scope.Flush()
	return resp.MakeOK()
}
