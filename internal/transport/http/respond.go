// Copyright 2026 The Backplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/observability/logger"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps a domain error to its HTTP status. The three
// access failure kinds are disjoint: who-are-you (401), not-allowed (403)
// and bad-input (400) never blur into each other.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrAuthentication):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errors.ErrAuthorization):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errors.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errors.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "internal error",
			logger.Error(err),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
