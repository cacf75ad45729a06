// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package api

import "time"

// APIResponse is the standardized response wrapper used by all
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`

	// Count is the number of returned list elements, when applicable.
	Count int `json:"count,omitempty"`
}

// APIError carries a machine-readable code and human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// recommendationData is the payload for recommendation endpoints.
type recommendationData struct {
	Strategy string   `json:"strategy"`
	ItemIDs  []string `json:"itemIds"`
}

// interactionRequest is the POST /interactions body.
type interactionRequest struct {
	UserID    string `json:"userId" validate:"required,min=1,max=256"`
	TrackID   string `json:"trackId" validate:"required,min=1,max=256"`
	Type      string `json:"type" validate:"required,min=1,max=64"`
	Timestamp string `json:"timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// interactionResponse reports whether the interaction mutated a profile.
type interactionResponse struct {
	Applied bool `json:"applied"`
}

// healthData is the GET /health payload.
type healthData struct {
	Status    string `json:"status"`
	ItemCount int    `json:"itemCount"`
	Trained   bool   `json:"trained"`
}
