package server

import (
	"errors"
	"strings"

	"github.com/eternalApril/umbra/internal/pubsub"
	"github.com/eternalApril/umbra/internal/resp"
	"go.uber.org/zap"
)

// subscribed reports whether the session is in subscriber mode
func (s *Session) subscribed() bool {
	return s.sub != nil && s.sub.Count() > 0
}

// subscriber returns the session subscriber, creating it and starting the
// delivery pump on first use
func (s *Session) subscriber() *pubsub.Subscriber {
	if s.sub == nil {
		s.sub = s.engine.hub.NewSubscriber()
		go s.pump(s.sub)
	}
	return s.sub
}

// pump forwards deliveries to the connection until the subscriber is closed
// or dropped. A dropped subscriber loses its connection
func (s *Session) pump(sub *pubsub.Subscriber) {
	for m := range sub.Messages(s.ctx) {
		s.pumpMu.Lock()
		err := s.conn.Send(messageReply(m))
		if err == nil {
			err = s.conn.Flush()
		}
		s.pumpMu.Unlock()

		if err != nil {
			return
		}
	}

	if err := sub.Err(); errors.Is(err, pubsub.ErrSlowSubscriber) {
		s.engine.logger.Warn("closing slow subscriber", zap.Error(err))
		s.conn.Close() //nolint:errcheck
	}
}

func messageReply(m pubsub.Message) resp.Value {
	if m.Pattern != "" {
		return resp.MakeArray([]resp.Value{
			resp.MakeBulkString("pmessage"),
			resp.MakeBulkString(m.Pattern),
			resp.MakeBulkString(m.Channel),
			resp.MakeBulkBytes(m.Payload),
		})
	}
	return resp.MakeArray([]resp.Value{
		resp.MakeBulkString("message"),
		resp.MakeBulkString(m.Channel),
		resp.MakeBulkBytes(m.Payload),
	})
}

// subscription builds the four (un)subscribe commands. Every change is
// confirmed with its own reply, written before any delivery it enables
func subscription(kind string, apply func(sub *pubsub.Subscriber, names ...string) []pubsub.Change) commandFunc {
	return func(ctx *commandContext) resp.Value {
		s := ctx.session
		if s.conn == nil {
			return resp.MakeErrorf("ERR %s requires a connection", strings.ToUpper(kind))
		}

		s.pumpMu.Lock()
		defer s.pumpMu.Unlock()

		changes := apply(s.subscriber(), argStrings(ctx.args)...)
		if len(changes) == 0 {
			// unsubscribing from nothing still gets one confirmation
			changes = []pubsub.Change{{}}
		}

		for _, c := range changes {
			name := resp.MakeNilBulkString()
			if c.Name != "" || len(ctx.args) > 0 {
				name = resp.MakeBulkString(c.Name)
			}
			reply := resp.MakeArray([]resp.Value{
				resp.MakeBulkString(kind),
				name,
				resp.MakeInteger(int64(c.Count)),
			})
			if err := s.conn.Send(reply); err != nil {
				return resp.Value{}
			}
		}
		s.conn.Flush() //nolint:errcheck
		return resp.Value{}
	}
}

var (
	subscribe    = subscription("subscribe", (*pubsub.Subscriber).Subscribe)
	psubscribe   = subscription("psubscribe", (*pubsub.Subscriber).PSubscribe)
	unsubscribe  = subscription("unsubscribe", (*pubsub.Subscriber).Unsubscribe)
	punsubscribe = subscription("punsubscribe", (*pubsub.Subscriber).PUnsubscribe)
)

func publish(ctx *commandContext) resp.Value {
	n := ctx.engine.hub.Publish(argString(ctx.args[0]), ctx.args[1].String)
	return resp.MakeInteger(int64(n))
}

// pubsubCmd implements PUBSUB CHANNELS, NUMSUB and NUMPAT
func pubsubCmd(ctx *commandContext) resp.Value {
	hub := ctx.engine.hub
	sub := argUpper(ctx.args[0])

	switch {
	case sub == "CHANNELS" && len(ctx.args) <= 2:
		pattern := ""
		if len(ctx.args) == 2 {
			pattern = argString(ctx.args[1])
		}
		return resp.MakeStringArray(hub.Channels(pattern))

	case sub == "NUMSUB":
		channels := argStrings(ctx.args[1:])
		counts := hub.NumSub(channels...)
		out := make([]resp.Value, 0, len(channels)*2)
		for i, ch := range channels {
			out = append(out, resp.MakeBulkString(ch), resp.MakeInteger(int64(counts[i])))
		}
		return resp.MakeArray(out)

	case sub == "NUMPAT" && len(ctx.args) == 1:
		return resp.MakeInteger(int64(hub.NumPat()))

	default:
		return resp.MakeErrorf("ERR unknown subcommand or wrong number of arguments for '%s'. Try PUBSUB HELP.", strings.ToLower(argString(ctx.args[0])))
	}
}
