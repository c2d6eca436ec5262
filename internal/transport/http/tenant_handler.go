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
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateTenantRequest carries a new backend name.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenant provisions a new backend. Operator-only.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tenantService.Create(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// ListTenants lists all backends. Operator-only.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	all, err := h.tenantService.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}

// DeactivateTenant marks a backend inactive. Operator-only.
func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenantService.Deactivate(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "tenant deactivated",
	})
}

// RotateTenantAPIKey replaces a backend's API key. Operator-only.
func (h *Handler) RotateTenantAPIKey(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenantService.RotateAPIKey(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}
