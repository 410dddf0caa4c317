package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eternalApril/umbra/internal/config"
	"github.com/eternalApril/umbra/internal/logger"
	"github.com/eternalApril/umbra/internal/server"
	"github.com/eternalApril/umbra/internal/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Umbra starting",
		zap.String("port", cfg.Server.Port),
		zap.Uint("shards", cfg.Storage.Shards),
	)

	ks, err := storage.NewKeyspace(cfg.Storage.Shards)
	if err != nil {
		log.Error("cant initialize storage", zap.Error(err))
		return
	}

	engine, err := server.NewEngine(ks, cfg, log)
	if err != nil {
		log.Error("cant initialize engine", zap.Error(err))
		return
	}

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return
	}
	log.Info("listening on", zap.String("address", address))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(engine, cfg.Server, log.Named("server"))
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(context.Background(), listener)
	}()

	select {
	case <-ctx.Done():
	case err := <-served:
		log.Error("server stopped unexpectedly", zap.Error(err))
		engine.Shutdown()
		return
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown timed out, forcing exit", zap.Duration("timeout", shutdownTimeout))
	} else {
		log.Info("All connections closed gracefully")
	}
	if err := <-served; !errors.Is(err, server.ErrServerClosed) {
		log.Warn("serve loop ended", zap.Error(err))
	}

	engine.Shutdown()
	log.Info("Umbra stopped")
}
