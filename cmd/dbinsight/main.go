// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Command dbinsight serves the MySQL monitoring dashboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Adityab4566/DB-Insight/client"
	"github.com/Adityab4566/DB-Insight/collector"
	"github.com/Adityab4566/DB-Insight/config"
	"github.com/Adityab4566/DB-Insight/logger"
	"github.com/Adityab4566/DB-Insight/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dbinsight:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := client.NewManager(cfg, log)
	if err != nil {
		return err
	}
	defer db.Disconnect()

	// Startup probe. A failure is not fatal; the dashboard reports DOWN
	// until the database comes back.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	if db.TestConnection(probeCtx) {
		log.Info("Database connection test successful",
			zap.String("target", cfg.Addr()),
			zap.String("database", cfg.DBName))
	} else {
		log.Warn("Database connection test failed, monitoring will report DOWN until it recovers",
			zap.String("target", cfg.Addr()))
	}
	cancelProbe()

	engine, err := collector.NewEngine(db, cfg, log)
	if err != nil {
		return err
	}

	srv, err := server.New(engine, cfg, log)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Dashboard API listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
