// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockEngine struct {
	trainCalls    atomic.Int64
	snapshotCalls atomic.Int64
	snapshotKeep  atomic.Int64
	trainErr      error
}

func (m *mockEngine) Train(context.Context) error {
	m.trainCalls.Add(1)
	return m.trainErr
}

func (m *mockEngine) SaveSnapshot(_ context.Context, _ string, keepVersions int) error {
	m.snapshotCalls.Add(1)
	m.snapshotKeep.Store(int64(keepVersions))
	return nil
}

func serveUntilCancel(t *testing.T, svc *TrainingService, runFor time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(runFor)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestTrainingService_StartupTraining(t *testing.T) {
	eng := &mockEngine{}
	svc := NewTrainingService(eng, TrainingServiceConfig{
		TrainOnStartup: true,
	}, zerolog.Nop())

	serveUntilCancel(t, svc, 50*time.Millisecond)

	if got := eng.trainCalls.Load(); got != 1 {
		t.Errorf("train calls = %d, want 1", got)
	}
	if got := eng.snapshotCalls.Load(); got != 0 {
		t.Errorf("snapshot calls = %d, want 0 without snapshot config", got)
	}
}

func TestTrainingService_PeriodicTraining(t *testing.T) {
	eng := &mockEngine{}
	svc := NewTrainingService(eng, TrainingServiceConfig{
		TrainInterval: 20 * time.Millisecond,
	}, zerolog.Nop())

	serveUntilCancel(t, svc, 110*time.Millisecond)

	if got := eng.trainCalls.Load(); got < 2 {
		t.Errorf("train calls = %d, want >= 2 over several intervals", got)
	}
}

func TestTrainingService_SnapshotAfterTraining(t *testing.T) {
	eng := &mockEngine{}
	svc := NewTrainingService(eng, TrainingServiceConfig{
		TrainOnStartup:        true,
		SnapshotAfterTraining: true,
		SnapshotDir:           t.TempDir(),
		SnapshotKeepVersions:  3,
	}, zerolog.Nop())

	serveUntilCancel(t, svc, 50*time.Millisecond)

	if got := eng.snapshotCalls.Load(); got != 1 {
		t.Errorf("snapshot calls = %d, want 1", got)
	}
	if got := eng.snapshotKeep.Load(); got != 3 {
		t.Errorf("snapshot keep versions = %d, want 3", got)
	}
}

func TestTrainingService_TrainingFailureKeepsServing(t *testing.T) {
	eng := &mockEngine{trainErr: errors.New("no data")}
	svc := NewTrainingService(eng, TrainingServiceConfig{
		TrainOnStartup: true,
		TrainInterval:  20 * time.Millisecond,
	}, zerolog.Nop())

	serveUntilCancel(t, svc, 70*time.Millisecond)

	// Failures are retried on later ticks instead of stopping the
	// service.
	if got := eng.trainCalls.Load(); got < 2 {
		t.Errorf("train calls = %d, want >= 2 despite failures", got)
	}
}

func TestTrainingService_String(t *testing.T) {
	svc := NewTrainingService(&mockEngine{}, TrainingServiceConfig{}, zerolog.Nop())
	if svc.String() != "training-scheduler" {
		t.Errorf("String() = %q, want training-scheduler", svc.String())
	}
}
