package server

import (
	"strconv"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

func fieldPairs(args []resp.Value) ([]storage.FieldValue, bool) {
	if len(args)%2 != 0 {
		return nil, false
	}
	pairs := make([]storage.FieldValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, storage.FieldValue{Field: argString(args[i]), Value: args[i+1].String})
	}
	return pairs, true
}

func hset(ctx *commandContext) resp.Value {
	pairs, ok := fieldPairs(ctx.args[1:])
	if !ok {
		return resp.MakeErrorWrongNumberOfArguments("HSET")
	}
	n, err := ctx.scope.HSet(argString(ctx.args[0]), pairs...)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func hmset(ctx *commandContext) resp.Value {
	pairs, ok := fieldPairs(ctx.args[1:])
	if !ok {
		return resp.MakeErrorWrongNumberOfArguments("HMSET")
	}
	if _, err := ctx.scope.HSet(argString(ctx.args[0]), pairs...); err != nil {
		return errorReply(err)
	}
	return resp.MakeOK()
}

func hsetnx(ctx *commandContext) resp.Value {
	ok, err := ctx.scope.HSetNX(argString(ctx.args[0]), argString(ctx.args[1]), ctx.args[2].String)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(ok)
}

func hget(ctx *commandContext) resp.Value {
	val, ok, err := ctx.scope.HGet(argString(ctx.args[0]), argString(ctx.args[1]))
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkBytes(val)
}

func hmget(ctx *commandContext) resp.Value {
	vals, err := ctx.scope.HMGet(argString(ctx.args[0]), argStrings(ctx.args[1:])...)
	if err != nil {
		return errorReply(err)
	}
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = resp.MakeNilBulkString()
			continue
		}
		out[i] = resp.MakeBulkBytes(v)
	}
	return resp.MakeArray(out)
}

func hgetall(ctx *commandContext) resp.Value {
	pairs, err := ctx.scope.HGetAll(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	items := make([]resp.Value, 0, len(pairs)*2)
	for _, p := range pairs {
		items = append(items, resp.MakeBulkString(p.Field), resp.MakeBulkBytes(p.Value))
	}
	return resp.MakeArray(items)
}

func hdel(ctx *commandContext) resp.Value {
	n, err := ctx.scope.HDel(argString(ctx.args[0]), argStrings(ctx.args[1:])...)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func hexists(ctx *commandContext) resp.Value {
	ok, err := ctx.scope.HExists(argString(ctx.args[0]), argString(ctx.args[1]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(ok)
}

func hlen(ctx *commandContext) resp.Value {
	n, err := ctx.scope.HLen(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func hkeys(ctx *commandContext) resp.Value {
	fields, err := ctx.scope.HKeys(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeStringArray(fields)
}

func hvals(ctx *commandContext) resp.Value {
	vals, err := ctx.scope.HVals(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBulkArray(vals)
}

func hincrby(ctx *commandContext) resp.Value {
	delta, err := parseInt(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	n, err := ctx.scope.HIncrBy(argString(ctx.args[0]), argString(ctx.args[1]), delta)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(n)
}

func hincrbyfloat(ctx *commandContext) resp.Value {
	delta, err := parseFloat(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	f, err := ctx.scope.HIncrByFloat(argString(ctx.args[0]), argString(ctx.args[1]), delta)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBulkString(strconv.FormatFloat(f, 'f', -1, 64))
}
