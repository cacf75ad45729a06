// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package api exposes the recommendation engine over HTTP using the
// chi router. Authentication and rate limiting are intentionally out of
// scope; this surface is expected to sit behind the platform gateway.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter builds the full HTTP handler tree.
func NewRouter(h *Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics())

		r.Get("/health", h.Health)
		r.Get("/stats", h.Stats)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/personalized/{userID}", h.Personalized)
			r.Get("/collaborative/{userID}", h.Collaborative)
			r.Get("/content", h.ContentBased)
			r.Get("/location/{location}", h.LocationBased)
			r.Get("/popular", h.Popular)
		})

		r.Post("/interactions", h.PostInteraction)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/train", h.AdminTrain)
			r.Post("/snapshot/save", h.AdminSnapshotSave)
			r.Post("/snapshot/load", h.AdminSnapshotLoad)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
