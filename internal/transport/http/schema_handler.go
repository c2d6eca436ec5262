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

// DeclareSchemaRequest carries a resource type declaration.
type DeclareSchemaRequest struct {
	Type       string          `json:"type"`
	Definition json.RawMessage `json:"definition"`
}

// DeclareSchema registers a resource type and seeds its default ACL.
func (h *Handler) DeclareSchema(w http.ResponseWriter, r *http.Request) {
	var req DeclareSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sc, err := h.schemaService.Declare(r.Context(), GetCredentials(r.Context()), req.Type, req.Definition)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sc)
}

// GetSchema retrieves one declaration.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	sc, err := h.schemaService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "typeName"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sc)
}

// ListSchemas lists the tenant's declarations.
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	all, err := h.schemaService.List(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}

// DeleteSchema removes a declaration. The type's ACL entry survives.
func (h *Handler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	if err := h.schemaService.Delete(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "schema deleted",
	})
}
