package server

import (
	"math"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
	"github.com/eternalApril/umbra/internal/zset"
)

func scoreReply(f float64) resp.Value {
	return resp.MakeBulkString(zset.FormatScore(f))
}

func elementsReply(elems []zset.Element, withScores bool) resp.Value {
	size := len(elems)
	if withScores {
		size *= 2
	}
	out := make([]resp.Value, 0, size)
	for _, e := range elems {
		out = append(out, resp.MakeBulkString(e.Member))
		if withScores {
			out = append(out, scoreReply(e.Score))
		}
	}
	return resp.MakeArray(out)
}

func parseRange(minArg, maxArg resp.Value) (zset.ScoreRange, error) {
	lo, err := zset.ParseBorder(argString(minArg))
	if err != nil {
		return zset.ScoreRange{}, err
	}
	hi, err := zset.ParseBorder(argString(maxArg))
	if err != nil {
		return zset.ScoreRange{}, err
	}
	return zset.ScoreRange{Min: lo, Max: hi}, nil
}

func zadd(ctx *commandContext) resp.Value {
	var opts storage.ZAddOptions
	i := 1
loop:
	for ; i < len(ctx.args); i++ {
		switch argUpper(ctx.args[i]) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "GT":
			opts.GT = true
		case "LT":
			opts.LT = true
		case "CH":
			opts.CH = true
		case "INCR":
			opts.Incr = true
		default:
			break loop
		}
	}

	rest := ctx.args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.MakeError("ERR syntax error")
	}
	if opts.NX && opts.XX {
		return resp.MakeError("ERR XX and NX options at the same time are not compatible")
	}
	if opts.Incr && len(rest) != 2 {
		return resp.MakeError("ERR INCR option supports a single increment-element pair")
	}

	members := make([]zset.Element, 0, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		score, err := parseFloat(rest[j])
		if err != nil {
			return errorReply(err)
		}
		members = append(members, zset.Element{Member: argString(rest[j+1]), Score: score})
	}

	res, err := ctx.scope.ZAdd(argString(ctx.args[0]), opts, members...)
	if err != nil {
		return errorReply(err)
	}
	if opts.Incr {
		if !res.Applied {
			return resp.MakeNilBulkString()
		}
		return scoreReply(res.Score)
	}
	return resp.MakeInteger(int64(res.Count))
}

func zrem(ctx *commandContext) resp.Value {
	n, err := ctx.scope.ZRem(argString(ctx.args[0]), argStrings(ctx.args[1:])...)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func zscore(ctx *commandContext) resp.Value {
	score, ok, err := ctx.scope.ZScore(argString(ctx.args[0]), argString(ctx.args[1]))
	if err != nil {
		return errorReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return scoreReply(score)
}

func zmscore(ctx *commandContext) resp.Value {
	key := argString(ctx.args[0])
	out := make([]resp.Value, 0, len(ctx.args)-1)
	for _, member := range argStrings(ctx.args[1:]) {
		score, ok, err := ctx.scope.ZScore(key, member)
		if err != nil {
			return errorReply(err)
		}
		if !ok {
			out = append(out, resp.MakeNilBulkString())
			continue
		}
		out = append(out, scoreReply(score))
	}
	return resp.MakeArray(out)
}

func zincrby(ctx *commandContext) resp.Value {
	delta, err := parseFloat(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	score, err := ctx.scope.ZIncrBy(argString(ctx.args[0]), argString(ctx.args[2]), delta)
	if err != nil {
		return errorReply(err)
	}
	return scoreReply(score)
}

func zcard(ctx *commandContext) resp.Value {
	n, err := ctx.scope.ZCard(argString(ctx.args[0]))
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(int64(n))
}

func zcount(ctx *commandContext) resp.Value {
	r, err := parseRange(ctx.args[1], ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	n, err := ctx.scope.ZCount(argString(ctx.args[0]), r)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(n)
}

// zrank builds ZRANK and ZREVRANK
func zrank(reverse bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		rank, ok, err := ctx.scope.ZRank(argString(ctx.args[0]), argString(ctx.args[1]), reverse)
		if err != nil {
			return errorReply(err)
		}
		if !ok {
			return resp.MakeNilBulkString()
		}
		return resp.MakeInteger(rank)
	}
}

// rangeQuery is a parsed ZRANGE family request
type rangeQuery struct {
	byScore    bool
	reverse    bool
	withScores bool
	limited    bool
	offset     int64
	count      int64
}

// parseRangeOptions reads the trailing modifiers. BYSCORE and REV are only
// accepted by ZRANGE itself
func parseRangeOptions(args []resp.Value, q *rangeQuery, allowFlags bool) error {
	for i := 0; i < len(args); i++ {
		switch opt := argUpper(args[i]); {
		case opt == "WITHSCORES":
			q.withScores = true
		case opt == "LIMIT" && i+2 < len(args):
			offset, err := parseInt(args[i+1])
			if err != nil {
				return err
			}
			count, err := parseInt(args[i+2])
			if err != nil {
				return err
			}
			q.limited, q.offset, q.count = true, offset, count
			i += 2
		case opt == "BYSCORE" && allowFlags:
			q.byScore = true
		case opt == "REV" && allowFlags:
			q.reverse = true
		default:
			return errSyntax
		}
	}
	return nil
}

func (q *rangeQuery) run(ctx *commandContext, start, stop resp.Value) resp.Value {
	key := argString(ctx.args[0])

	if !q.byScore {
		if q.limited {
			return resp.MakeError("ERR syntax error, LIMIT is only supported in combination with either BYSCORE or BYLEX")
		}
		lo, err := parseInt(start)
		if err != nil {
			return errorReply(err)
		}
		hi, err := parseInt(stop)
		if err != nil {
			return errorReply(err)
		}
		elems, err := ctx.scope.ZRangeByRank(key, lo, hi, q.reverse)
		if err != nil {
			return errorReply(err)
		}
		return elementsReply(elems, q.withScores)
	}

	// reversed score ranges are written max first
	if q.reverse {
		start, stop = stop, start
	}
	r, err := parseRange(start, stop)
	if err != nil {
		return errorReply(err)
	}
	offset, count := int64(0), int64(-1)
	if q.limited {
		offset, count = q.offset, q.count
	}
	elems, err := ctx.scope.ZRangeByScore(key, r, offset, count, q.reverse)
	if err != nil {
		return errorReply(err)
	}
	return elementsReply(elems, q.withScores)
}

func zrange(ctx *commandContext) resp.Value {
	var q rangeQuery
	if err := parseRangeOptions(ctx.args[3:], &q, true); err != nil {
		return errorReply(err)
	}
	return q.run(ctx, ctx.args[1], ctx.args[2])
}

// zrangeByRank builds ZREVRANGE
func zrangeByRank(reverse bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		q := rangeQuery{reverse: reverse}
		if len(ctx.args) > 4 || len(ctx.args) == 4 && argUpper(ctx.args[3]) != "WITHSCORES" {
			return resp.MakeError("ERR syntax error")
		}
		q.withScores = len(ctx.args) == 4
		return q.run(ctx, ctx.args[1], ctx.args[2])
	}
}

// zrangeByScore builds ZRANGEBYSCORE and ZREVRANGEBYSCORE
func zrangeByScore(reverse bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		q := rangeQuery{byScore: true, reverse: reverse}
		if err := parseRangeOptions(ctx.args[3:], &q, false); err != nil {
			return errorReply(err)
		}
		return q.run(ctx, ctx.args[1], ctx.args[2])
	}
}

func zremrangebyrank(ctx *commandContext) resp.Value {
	start, err := parseInt(ctx.args[1])
	if err != nil {
		return errorReply(err)
	}
	stop, err := parseInt(ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	n, err := ctx.scope.ZRemRangeByRank(argString(ctx.args[0]), start, stop)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(n)
}

func zremrangebyscore(ctx *commandContext) resp.Value {
	r, err := parseRange(ctx.args[1], ctx.args[2])
	if err != nil {
		return errorReply(err)
	}
	n, err := ctx.scope.ZRemRangeByScore(argString(ctx.args[0]), r)
	if err != nil {
		return errorReply(err)
	}
	return resp.MakeInteger(n)
}

// zpop builds ZPOPMIN and ZPOPMAX
func zpop(highest bool) commandFunc {
	return func(ctx *commandContext) resp.Value {
		if len(ctx.args) > 2 {
			return resp.MakeError("ERR syntax error")
		}
		count := int64(1)
		if len(ctx.args) == 2 {
			n, err := parseCount(ctx.args[1])
			if err != nil {
				return errorReply(err)
			}
			count = int64(n)
		}
		elems, err := ctx.scope.ZPop(argString(ctx.args[0]), count, highest)
		if err != nil {
			return errorReply(err)
		}
		return elementsReply(elems, true)
	}
}

// zstoreKeys returns the destination and the numkeys inputs of a store
// command. Malformed counts yield what is there; the handler reports the error
func zstoreKeys(args []resp.Value) []string {
	keys := []string{argString(args[0])}
	n, err := parseInt(args[1])
	if err != nil || n <= 0 {
		return keys
	}
	last := min(2+int(min(n, math.MaxInt32)), len(args))
	return append(keys, argStrings(args[2:last])...)
}

// zstore builds ZUNIONSTORE, ZINTERSTORE and ZDIFFSTORE
func zstore(op storage.ZStoreOp) commandFunc {
	return func(ctx *commandContext) resp.Value {
		name := [...]string{"zunionstore", "zinterstore", "zdiffstore"}[op]

		numKeys, err := parseInt(ctx.args[1])
		if err != nil {
			return errorReply(err)
		}
		if numKeys <= 0 {
			return resp.MakeErrorf("ERR at least 1 input key is needed for '%s' command", name)
		}
		if numKeys > int64(len(ctx.args)-2) {
			return resp.MakeError("ERR syntax error")
		}
		keys := argStrings(ctx.args[2 : 2+numKeys])

		var weights []float64
		agg := zset.AggregateSum
		opts := ctx.args[2+numKeys:]
		for i := 0; i < len(opts); i++ {
			switch opt := argUpper(opts[i]); {
			case opt == "WEIGHTS" && op != storage.ZDiff && i+len(keys) < len(opts):
				weights = make([]float64, len(keys))
				for j := range weights {
					w, err := parseFloat(opts[i+1+j])
					if err != nil {
						return resp.MakeError("ERR weight value is not a float")
					}
					weights[j] = w
				}
				i += len(keys)
			case opt == "AGGREGATE" && op != storage.ZDiff && i+1 < len(opts):
				agg, err = zset.ParseAggregate(argString(opts[i+1]))
				if err != nil {
					return resp.MakeError("ERR syntax error")
				}
				i++
			default:
				return resp.MakeError("ERR syntax error")
			}
		}

		n, err := ctx.scope.ZStore(op, argString(ctx.args[0]), keys, weights, agg)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeInteger(int64(n))
	}
}
