// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TrainableEngine is the engine surface the training scheduler needs.
type TrainableEngine interface {
	// Train recomputes the embedding, clusters and similarity matrix.
	Train(ctx context.Context) error

	// SaveSnapshot persists the trained state, retaining at most
	// keepVersions snapshot versions when positive.
	SaveSnapshot(ctx context.Context, dir string, keepVersions int) error
}

// TrainingServiceConfig holds training scheduler configuration.
type TrainingServiceConfig struct {
	// TrainOnStartup triggers one training pass at service start.
	TrainOnStartup bool

	// TrainInterval between periodic retrains. Zero or negative
	// disables the timer.
	TrainInterval time.Duration

	// SnapshotDir, when non-empty with SnapshotAfterTraining set,
	// receives a snapshot after each successful pass.
	SnapshotDir           string
	SnapshotAfterTraining bool

	// SnapshotKeepVersions bounds retained snapshot versions per
	// section. Zero or negative keeps everything.
	SnapshotKeepVersions int

	// TrainTimeout bounds one training pass.
	TrainTimeout time.Duration
}

// TrainingService runs whole-batch retraining on startup and on a fixed
// interval. Retraining stays off the request path; failures are logged
// and retried on the next tick.
type TrainingService struct {
	engine TrainableEngine
	config TrainingServiceConfig
	logger zerolog.Logger
	name   string
}

// NewTrainingService creates the training scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(engine TrainableEngine, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Minute
	}
	return &TrainingService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "training").Logger(),
		name:   "training-scheduler",
	}
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("training scheduler starting")

	if s.config.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup training failed, will retry on schedule")
		}
	}

	if s.config.TrainInterval <= 0 {
		// No periodic retraining: idle until shutdown so the
		// supervisor does not restart-loop this service.
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

func (s *TrainingService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
	defer cancel()

	start := time.Now()
	if err := s.engine.Train(trainCtx); err != nil {
		return err
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("training pass finished")

	if s.config.SnapshotAfterTraining && s.config.SnapshotDir != "" {
		if err := s.engine.SaveSnapshot(trainCtx, s.config.SnapshotDir, s.config.SnapshotKeepVersions); err != nil {
			s.logger.Warn().Err(err).Msg("post-training snapshot failed")
		}
	}
	return nil
}

// String returns the service name for supervisor logging.
func (s *TrainingService) String() string {
	return s.name
}
