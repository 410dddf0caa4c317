package server

import (
	"math"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

func sadd(ctx *commandContext) resp.Value {
	n, err := ctx.scope.SAdd(argString(ctx.args[0]), argStrings(ctx.args[1:])...)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func srem(ctx *commandContext) resp.Value {
	n, err := ctx.scope.SRem(argString(ctx.args[0]), argStrings(ctx.args[1:])...)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func sismember(ctx *commandContext) resp.Value {
	ok, err := ctx.scope.SIsMember(argString(ctx.args[0]), argString(ctx.args[1]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(ok)
}

func smembers(ctx *commandContext) resp.Value {
	members, err := ctx.scope.SMembers(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeStringArray(members)
}

func scard(ctx *commandContext) resp.Value {
	n, err := ctx.scope.SCard(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

// maxRandomRepeats bounds the reply of SRANDMEMBER with a negative count
const maxRandomRepeats = 1 << 24

// randomMembers is the shared shape of SPOP and SRANDMEMBER: a single bulk
// string without a count, an array with one
func randomMembers(ctx *commandContext, allowNegative bool, fetch func(key string, count int) ([]string, error)) resp.Value {
	if len(ctx.args) > 2 {
		return resp.MakeError("ERR syntax error")
	}
	key := argString(ctx.args[0])

	if len(ctx.args) == 1 {
		members, err := fetch(key, 1)
		if err != nil {
			return errorReply(err)
		}
		if len(members) == 0 {
			return resp.MakeNilBulkString()
		}
		return resp.MakeBulkString(members[0])
	}

	n, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	if n < 0 && !allowNegative {
		return errorReply(errNegativeCount)
	}
	if n == math.MinInt64 || n < -maxRandomRepeats {
		return errorReply(errOutOfRange)
	}
	members, err := fetch(key, int(n))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeStringArray(members)
}

func spop(ctx *commandContext) resp.Value {
	return randomMembers(ctx, false, ctx.scope.SPop)
}

func srandmember(ctx *commandContext) resp.Value {
	return randomMembers(ctx, true, ctx.scope.SRandMember)
}

func smove(ctx *commandContext) resp.Value {
	ok, err := ctx.scope.SMove(argString(ctx.args[0]), argString(ctx.args[1]), argString(ctx.args[2]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeBool(ok)
}

// setCombine builds SINTER, SUNION and SDIFF
func setCombine(op storage.SetOp) commandFunc {
	return func(ctx *commandContext) resp.Value {
		members, err := ctx.scope.SMembersOf(op, argStrings(ctx.args)...)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeStringArray(members)
	}
}

// setStore builds SINTERSTORE, SUNIONSTORE and SDIFFSTORE
func setStore(op storage.SetOp) commandFunc {
	return func(ctx *commandContext) resp.Value {
		n, err := ctx.scope.SStore(op, argString(ctx.args[0]), argStrings(ctx.args[1:])...)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeInteger(int64(n))
	}
}
