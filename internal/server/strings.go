package server

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

var errInvalidExpire = errors.New("invalid expire time in 'set' command")

func get(ctx *commandContext) resp.Value {
	val, ok, err := ctx.scope.Get(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(val)
}

// parseSetOptions reads the SET modifiers that follow key and value. Relative
// lifetimes are checked against now
func parseSetOptions(args []resp.Value, now time.Time) (storage.SetOptions, error) {
	var opts storage.SetOptions
	ttlSet := false

	for i := 0; i < len(args); i++ {
		switch flag := argUpper(args[i]); flag {
		case "NX":
			if opts.XX {
				return opts, errSyntax
			}
			opts.NX = true
		case "XX":
			if opts.NX {
				return opts, errSyntax
			}
			opts.XX = true
		case "GET":
			opts.Get = true
		case "KEEPTTL":
			if ttlSet {
				return opts, errSyntax
			}
			ttlSet = true
			opts.KeepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			if ttlSet || i+1 >= len(args) {
				return opts, errSyntax
			}
			ttlSet = true
			i++

			n, err := parseInt(args[i])
			if err != nil {
				return opts, err
			}
			if n <= 0 {
				return opts, errInvalidExpire
			}

			unit := time.Second
			if flag == "PX" || flag == "PXAT" {
				unit = time.Millisecond
			}
			if flag == "EX" || flag == "PX" {
				if _, ok := deadlineAfter(now, n, unit); !ok {
					return opts, errInvalidExpire
				}
				opts.TTL = time.Duration(n) * unit
			} else {
				if n > math.MaxInt64/int64(unit) {
					return opts, errInvalidExpire
				}
				opts.ExpireAt = time.Unix(0, n*int64(unit))
			}
		default:
			return opts, errSyntax
		}
	}

	return opts, nil
}

func set(ctx *commandContext) resp.Value {
	opts, err := parseSetOptions(ctx.args[2:], ctx.scope.Now())
	if err != nil {
		return errorReply(err)
	}

	res, err := ctx.scope.Set(argString(ctx.args[0]), ctx.args[1].String, opts)
	if err != nil {
		return errorReply(err)
	}

	if opts.Get {
		if !res.HadOld {
			return resp.MakeNilBulkString()
		}
		return resp.MakeBulkBytes(res.Old)
	}
	if !res.Written {
		return resp.MakeNilBulkString()
	}
	return resp.MakeOK()
}

func setnx(ctx *commandContext) resp.Value {
	res, err := ctx.scope.Set(argString(ctx.args[0]), ctx.args[1].String, storage.SetOptions{NX: true})
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(res.Written)
}

// setex builds SETEX and PSETEX
func setex(name string, unit time.Duration) commandFunc {
	return func(ctx *commandContext) resp.Value {
		n, err := parseInt(ctx.args[1])
		if err != nil {
			return errorReply(err)
		}
		if _, ok := deadlineAfter(ctx.scope.Now(), n, unit); n <= 0 || !ok {
			return resp.MakeErrorf("ERR invalid expire time in '%s' command", name)
		}

		opts := storage.SetOptions{TTL: time.Duration(n) * unit}
		if _, err := ctx.scope.Set(argString(ctx.args[0]), ctx.args[2].String, opts); err != nil {
			return errorReply(err)
		}
		return resp.MakeOK()
	}
}

func getset(ctx *commandContext) resp.Value {
	res, err := ctx.scope.Set(argString(ctx.args[0]), ctx.args[1].String, storage.SetOptions{Get: true})
	if err != nil {
		return errorReply(err)
	}
	if !res.HadOld {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(res.Old)
}

func getdel(ctx *commandContext) resp.Value {
	val, ok, err := ctx.scope.GetDel(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(val)
}

func mget(ctx *commandContext) resp.Value {
	out := make([]resp.Value, len(ctx.args))
	for i, key := range argStrings(ctx.args) {
		val, ok, err := ctx.scope.Get(key)
		if err != nil || !ok {
			// wrong types read as missing
			out[i] = resp.MakeNilBulkString()
			continue
		}
		out[i] = resp.MakeBulkBytes(val)
	}
	return resp.MakeArray(out)
}

func mset(ctx *commandContext) resp.Value {
	if len(ctx.args)%2 != 0 {
		return resp.MakeErrorWrongNumberOfArguments("MSET")
	}
	for i := 0; i < len(ctx.args); i += 2 {
		ctx.scope.Set(argString(ctx.args[i]), ctx.args[i+1].String, storage.SetOptions{}) //nolint:errcheck
	}
	return resp.MakeOK()
}

func msetnx(ctx *commandContext) resp.Value {
	if len(ctx.args)%2 != 0 {
		return resp.MakeErrorWrongNumberOfArguments("MSETNX")
	}
	for i := 0; i < len(ctx.args); i += 2 {
		if ctx.scope.Exists(argString(ctx.args[i])) {
			return resp.MakeInteger(0)
		}
	}
	for i := 0; i < len(ctx.args); i += 2 {
		ctx.scope.Set(argString(ctx.args[i]), ctx.args[i+1].String, storage.SetOptions{}) //nolint:errcheck
	}
	return resp.MakeInteger(1)
}

func appendCmd(ctx *commandContext) resp.Value {
	n, err := ctx.scope.Append(argString(ctx.args[0]), ctx.args[1].String)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func strlen(ctx *commandContext) resp.Value {
	n, err := ctx.scope.StrLen(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

// incrBy builds INCR, DECR, INCRBY and DECRBY. sign negates the delta, withArg
// reads it from the second argument instead of using 1
func incrBy(sign int64, withArg bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		delta := int64(1)
		if withArg {
			n, err := parseInt(ctx.args[1])
			if err != nil {
				return errorReply(err)
			}
			if sign < 0 && n == math.MinInt64 {
				return resp.MakeError("ERR decrement would overflow")
			}
			delta = n
		}

		n, err := ctx.scope.IncrBy(argString(ctx.args[0]), sign*delta)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeInteger(n)
	}
}

func incrbyfloat(ctx *commandContext) resp.Value {
	delta, err := strconv.ParseFloat(argString(ctx.args[1]), 64)
	if err != nil || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return errorReply(errNotFloat)
	}

	f, err := ctx.scope.IncrByFloat(argString(ctx.args[0]), delta)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBulkString(strconv.FormatFloat(f, 'f', -1, 64))
}

func getrange(ctx *commandContext) resp.Value {
	start, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	end, err := parseInt(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}

	val, err := ctx.scope.GetRange(argString(ctx.args[0]), start, end)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBulkBytes(val)
}

func setrange(ctx *commandContext) resp.Value {
	offset, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	if offset < 0 {
		return resp.MakeError("ERR offset is out of range")
	}

	n, err := ctx.scope.SetRange(argString(ctx.args[0]), offset, ctx.args[2].String)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}
