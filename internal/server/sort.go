package server

import (
	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

// sortCmd implements SORT key [BY pattern] [LIMIT offset count] [GET pattern ...]
// [ASC|DESC] [ALPHA] [STORE destination]
func sortCmd(ctx *commandContext) resp.Value {
	opts := storage.SortOptions{Count: -1}
	var store string

	args := ctx.args[1:]
	for i := 0; i < len(args); i++ {
		switch opt := argUpper(args[i]); {
		case opt == "ASC":
			opts.Desc = false
		case opt == "DESC":
			opts.Desc = true
		case opt == "ALPHA":
			opts.Alpha = true
		case opt == "BY" && i+1 < len(args):
			opts.By = argString(args[i+1])
			i++
		case opt == "GET" && i+1 < len(args):
			opts.Get = append(opts.Get, argString(args[i+1]))
			i++
		case opt == "STORE" && i+1 < len(args):
			store = argString(args[i+1])
			i++
		case opt == "LIMIT" && i+2 < len(args):
			offset, err := parseInt(args[i+1])
			if err != nil {
				return errorReply(err)
			}
			count, err := parseInt(args[i+2])
			if err != nil {
				return errorReply(err)
			}
			opts.Offset, opts.Count = offset, count
			i += 2
		default:
			return resp.MakeError("ERR syntax error")
		}
	}

	key := argString(ctx.args[0])
	if store != "" {
		n, err := ctx.scope.SortStore(key, store, opts)
		if err != nil {
			return errorReply(err)
		}
		return resp.MakeInteger(int64(n))
	}

	vals, err := ctx.scope.Sort(key, opts)
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
