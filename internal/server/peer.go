package server

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
)

// Peer represents a connected client.
// It wraps a network connection and provides synchronized methods for reading and writing RESP-encoded data
type Peer struct {
	conn   net.Conn
	reader *resp.Decoder
	writer *resp.Encoder
	mu     sync.Mutex

	deadline bool // a read deadline is armed on conn
}

// NewPeer initializes a new client peer from a network connection
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		conn:   conn,
		reader: resp.NewDecoder(conn),
		writer: resp.NewEncoder(conn),
	}
}

// Send encodes and writes a RESP value to the client.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(v)
}

// ReadCommand reads and decodes the next RESP value from the client's input stream.
// A positive idle limits how long the client may stay silent
func (p *Peer) ReadCommand(idle time.Duration) (resp.Value, error) {
	switch {
	case idle > 0:
		if err := p.conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			return resp.Value{}, err
		}
		p.deadline = true
	case p.deadline:
		if err := p.conn.SetReadDeadline(time.Time{}); err != nil {
			return resp.Value{}, err
		}
		p.deadline = false
	}
	return p.reader.Read()
}

// Close terminates the underlying network connection
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// InputBuffered returns the number of bytes that can be read from the current buffer
func (p *Peer) InputBuffered() int {
	return p.reader.Buffered()
}

// closeNotify returns a context canceled when the client hangs up. Pipelined
// input is left buffered. stop must be called before the next read
func (p *Peer) closeNotify(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	// a blocked client is not idle
	p.conn.SetReadDeadline(time.Time{}) //nolint:errcheck
	p.deadline = false

	go func() {
		defer close(done)
		err := p.reader.Peek()
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			cancel()
		}
	}()

	return ctx, func() {
		p.conn.SetReadDeadline(time.Now()) //nolint:errcheck
		<-done
		p.conn.SetReadDeadline(time.Time{}) //nolint:errcheck
		cancel()
	}
}
