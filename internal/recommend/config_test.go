// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config fails validation: %v", err)
	}

	if cfg.Fusion.Collaborative != 0.4 || cfg.Fusion.Content != 0.3 ||
		cfg.Fusion.Location != 0.2 || cfg.Fusion.Popularity != 0.1 {
		t.Errorf("fusion weights = %+v, want 0.4/0.3/0.2/0.1", cfg.Fusion)
	}
	if cfg.Collaborative.Genre != 0.4 || cfg.Collaborative.Freshness != 0.1 {
		t.Errorf("collaborative weights = %+v", cfg.Collaborative)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults pass",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "negative fusion weight",
			mutate:  func(c *Config) { c.Fusion.Content = -0.1 },
			wantErr: true,
		},
		{
			name:    "zero freshness horizon",
			mutate:  func(c *Config) { c.Collaborative.FreshnessHorizonDays = 0 },
			wantErr: true,
		},
		{
			name:    "zero genre vector size",
			mutate:  func(c *Config) { c.Features.GenreVectorSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero reduce rank",
			mutate:  func(c *Config) { c.Reduce.Rank = 0 },
			wantErr: true,
		},
		{
			name:    "max count below default count",
			mutate:  func(c *Config) { c.Limits.MaxCount = 5 },
			wantErr: true,
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Limits.HistoryLimit = 0 },
			wantErr: true,
		},
		{
			name:    "zero cache capacity",
			mutate:  func(c *Config) { c.Cache.Capacity = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Fusion.Collaborative = 0.9
	clone.Limits.MaxCount = 7

	if cfg.Fusion.Collaborative != 0.4 {
		t.Errorf("original fusion weight changed: %f", cfg.Fusion.Collaborative)
	}
	if cfg.Limits.MaxCount != 100 {
		t.Errorf("original max count changed: %d", cfg.Limits.MaxCount)
	}
}
