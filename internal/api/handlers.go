// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// Handler serves the recommendation API over one shared engine.
type Handler struct {
	engine               *recommend.Engine
	snapshotDir          string
	snapshotKeepVersions int
	logger               zerolog.Logger
}

// NewHandler creates the API handler. snapshotDir may be empty when
// snapshot persistence is disabled; keepVersions bounds retained
// snapshot versions when positive.
func NewHandler(engine *recommend.Engine, snapshotDir string, keepVersions int, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:               engine,
		snapshotDir:          snapshotDir,
		snapshotKeepVersions: keepVersions,
		logger:               logger.With().Str("component", "api").Logger(),
	}
}

// Personalized handles GET /api/v1/recommendations/personalized/{userID}.
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	seed := r.URL.Query().Get("seed")
	location := r.URL.Query().Get("location")
	count := getIntParam(r, "k", 0)

	ids, err := h.engine.RecommendPersonalized(r.Context(), userID, seed, location, count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "personalized recommendation failed", err)
		return
	}
	respondSuccess(w, recommendationData{Strategy: recommend.StrategyPersonalized, ItemIDs: ids}, len(ids))
}

// Collaborative handles GET /api/v1/recommendations/collaborative/{userID}.
func (h *Handler) Collaborative(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	count := getIntParam(r, "k", 0)

	ids, err := h.engine.RecommendCollaborative(r.Context(), userID, count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "collaborative recommendation failed", err)
		return
	}
	respondSuccess(w, recommendationData{Strategy: recommend.StrategyCollaborative, ItemIDs: ids}, len(ids))
}

// ContentBased handles GET /api/v1/recommendations/content?seeds=a,b.
func (h *Handler) ContentBased(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("seeds")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SEEDS", "query parameter 'seeds' is required", nil)
		return
	}
	var seeds []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			seeds = append(seeds, s)
		}
	}
	count := getIntParam(r, "k", 0)

	ids, err := h.engine.RecommendContentBased(r.Context(), seeds, count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "content-based recommendation failed", err)
		return
	}
	respondSuccess(w, recommendationData{Strategy: recommend.StrategyContentBased, ItemIDs: ids}, len(ids))
}

// LocationBased handles GET /api/v1/recommendations/location/{location}.
func (h *Handler) LocationBased(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	count := getIntParam(r, "k", 0)

	ids, err := h.engine.RecommendLocationBased(r.Context(), location, count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "location-based recommendation failed", err)
		return
	}
	respondSuccess(w, recommendationData{Strategy: recommend.StrategyLocationBased, ItemIDs: ids}, len(ids))
}

// Popular handles GET /api/v1/recommendations/popular.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	count := getIntParam(r, "k", 0)

	ids, err := h.engine.RecommendPopular(r.Context(), count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMEND_FAILED", "popularity recommendation failed", err)
		return
	}
	respondSuccess(w, recommendationData{Strategy: recommend.StrategyPopularity, ItemIDs: ids}, len(ids))
}

// PostInteraction handles POST /api/v1/interactions. An interaction
// referencing an unknown item is accepted and reported as not applied.
func (h *Handler) PostInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON interaction", err)
		return
	}
	if err := requestValidator().Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			ts = parsed
		}
	}

	applied := h.engine.ApplyInteraction(req.UserID, req.TrackID, req.Type, ts)
	respondSuccess(w, interactionResponse{Applied: applied}, 0)
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.engine.Stats(), 0)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, healthData{
		Status:    "ok",
		ItemCount: h.engine.ItemCount(),
		Trained:   h.engine.Trained(),
	}, 0)
}

// AdminTrain handles POST /api/v1/admin/train. Retraining runs on the
// request goroutine; it is an explicit out-of-band operation.
func (h *Handler) AdminTrain(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Train(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "TRAIN_FAILED", "training pass failed", err)
		return
	}
	respondSuccess(w, map[string]bool{"trained": h.engine.Trained()}, 0)
}

// AdminSnapshotSave handles POST /api/v1/admin/snapshot/save.
func (h *Handler) AdminSnapshotSave(w http.ResponseWriter, r *http.Request) {
	if h.snapshotDir == "" {
		respondError(w, http.StatusConflict, "SNAPSHOT_DISABLED", "no snapshot directory configured", nil)
		return
	}
	if err := h.engine.SaveSnapshot(r.Context(), h.snapshotDir, h.snapshotKeepVersions); err != nil {
		respondError(w, http.StatusInternalServerError, "SNAPSHOT_FAILED", "snapshot save failed", err)
		return
	}
	respondSuccess(w, map[string]string{"dir": h.snapshotDir}, 0)
}

// AdminSnapshotLoad handles POST /api/v1/admin/snapshot/load.
func (h *Handler) AdminSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	if h.snapshotDir == "" {
		respondError(w, http.StatusConflict, "SNAPSHOT_DISABLED", "no snapshot directory configured", nil)
		return
	}
	if err := h.engine.LoadSnapshot(r.Context(), h.snapshotDir); err != nil {
		respondError(w, http.StatusInternalServerError, "SNAPSHOT_FAILED", "snapshot load failed", err)
		return
	}
	respondSuccess(w, map[string]string{"dir": h.snapshotDir}, 0)
}
