package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/resp"
	"go.uber.org/zap"
)

// ErrServerClosed is returned by Serve after Shutdown
var ErrServerClosed = errors.New("server closed")

// Server accepts RESP clients and runs their commands on an Engine
type Server struct {
	engine *Engine
	cfg    config.ServerConfig
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Peer]struct{}
	closing  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server for engine
func NewServer(engine *Engine, cfg config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		cfg:    cfg,
		logger: logger,
		conns:  make(map[*Peer]struct{}),
	}
}

// Serve accepts connections on ln until Shutdown is called or ctx is done.
// Every connection runs in its own goroutine
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close() //nolint:errcheck
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				if s.isClosing() {
					return ErrServerClosed
				}
				return ctx.Err()
			}
			s.logger.Error("Accept error", zap.Error(err))
			continue
		}

		peer := NewPeer(conn)
		if !s.track(peer) {
			peer.Send(resp.MakeError("ERR max number of clients reached")) //nolint:errcheck
			peer.Flush()                                                   //nolint:errcheck
			peer.Close()                                                   //nolint:errcheck
			s.logger.Warn("rejecting client, max_clients reached", zap.Int("max_clients", s.cfg.MaxClients))
			continue
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(peer)
			s.handleConnection(ctx, peer)
		}()
	}
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) track(p *Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || s.cfg.MaxClients > 0 && len(s.conns) >= s.cfg.MaxClients {
		return false
	}
	s.conns[p] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(p *Peer) {
	s.mu.Lock()
	delete(s.conns, p)
	s.mu.Unlock()
}

// handleConnection handles a connection for a single user
func (s *Server) handleConnection(ctx context.Context, peer *Peer) {
	log := s.logger
	addr := peer.conn.RemoteAddr().String()
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("client connected", zap.String("addr", addr))
	}

	ctx, cancel := context.WithCancel(ctx)
	session := s.engine.NewSession(ctx, peer)
	defer func() {
		cancel()
		session.Close()
		peer.Close() //nolint:errcheck
		// log connection close
		if log.Core().Enabled(zap.DebugLevel) {
			log.Debug("client disconnected", zap.String("addr", addr))
		}
	}()

	for {
		idle := s.cfg.IdleTimeout
		if session.subscribed() {
			// subscribers are expected to stay silent
			idle = 0
		}

		cmdValue, err := peer.ReadCommand(idle)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.Is(err, os.ErrDeadlineExceeded):
				if log.Core().Enabled(zap.DebugLevel) {
					log.Debug("closing idle client", zap.String("addr", addr))
				}
			default:
				log.Warn("read command failed", zap.Error(err))
			}
			return
		}

		if cmdValue.Type != resp.TypeArray {
			log.Error("invalid request type")
			continue
		}

		if len(cmdValue.Array) == 0 {
			continue
		}

		result := session.Execute(string(cmdValue.Array[0].String), cmdValue.Array[1:])

		// an empty result was already written by the command
		if !result.IsEmpty() {
			if err = peer.Send(result); err != nil {
				log.Error("error writing response:", zap.Error(err))
				return
			}
		}

		if peer.InputBuffered() == 0 || session.Closed() {
			if err := peer.Flush(); err != nil {
				return
			}
		}

		if session.Closed() {
			return
		}
	}
}

// Shutdown stops accepting clients and waits for the open connections to
// finish until ctx is done, then closes the remaining ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	if s.listener != nil {
		s.listener.Close() //nolint:errcheck
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		// wakes blocked clients and subscriber pumps
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	for p := range s.conns {
		p.Close() //nolint:errcheck
	}
	s.mu.Unlock()
	<-done
	return ctx.Err()
}
