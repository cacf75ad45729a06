// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package main is the entry point for the Tunegraph server.
//
// Tunegraph serves personalized music recommendations by blending
// collaborative, content-based, location-based and popularity signals
// over an in-memory trained model.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: koanf v2 layering defaults, YAML file and
//     TUNEGRAPH_-prefixed environment variables
//  2. Logging: zerolog, JSON or console format
//  3. Engine: recommendation engine with the four scoring strategies
//  4. Record source: JSON catalog files, when configured
//  5. Supervision tree: suture root with engine and API layers
//  6. HTTP Server: chi REST API plus Prometheus /metrics
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests and the training scheduler stops.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunegraph/tunegraph/internal/api"
	"github.com/tunegraph/tunegraph/internal/config"
	"github.com/tunegraph/tunegraph/internal/logging"
	"github.com/tunegraph/tunegraph/internal/recommend"
	"github.com/tunegraph/tunegraph/internal/recommend/strategies"
	"github.com/tunegraph/tunegraph/internal/store"
	"github.com/tunegraph/tunegraph/internal/supervisor"
	"github.com/tunegraph/tunegraph/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Str("log_level", cfg.Logging.Level).
		Msg("starting tunegraph")

	engine, err := recommend.NewEngine(&cfg.Engine, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	strategies.Install(engine, &cfg.Engine)

	if cfg.Data.ItemsPath != "" {
		engine.SetSource(store.NewFileSource(cfg.Data.ItemsPath, cfg.Data.InteractionsPath, logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Snapshot.LoadOnStartup {
		if err := engine.LoadSnapshot(ctx, cfg.Snapshot.Dir); err != nil {
			logger.Warn().Err(err).Msg("snapshot restore failed, starting cold")
		}
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddEngineService(services.NewTrainingService(engine, services.TrainingServiceConfig{
		TrainOnStartup:        cfg.Training.OnStartup,
		TrainInterval:         cfg.Training.Interval,
		SnapshotDir:           cfg.Snapshot.Dir,
		SnapshotAfterTraining: cfg.Snapshot.SaveAfterTraining,
		SnapshotKeepVersions:  cfg.Snapshot.KeepVersions,
	}, logger))

	handler := api.NewHandler(engine, cfg.Snapshot.Dir, cfg.Snapshot.KeepVersions, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}

	logger.Info().Msg("tunegraph stopped")
	return nil
}
