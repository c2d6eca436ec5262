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

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/go-chi/chi/v5"
)

// GetSettings reads one settings document.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.settingsService.Get(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "settingsID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// PutSettings creates or replaces one settings document.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.settingsService.Put(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "settingsID"), body)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// DeleteSettings removes one settings document.
func (h *Handler) DeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.Delete(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "settingsID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "settings deleted",
	})
}

// GetDataACL returns the grant table of a resource type.
func (h *Handler) GetDataACL(w http.ResponseWriter, r *http.Request) {
	rp, ok, err := h.settingsService.ReadACL(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "typeName"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "no acl entry for resource")
		return
	}
	respondJSON(w, http.StatusOK, rp)
}

// PutDataACL replaces the grant table of a resource type. Admin-only.
func (h *Handler) PutDataACL(w http.ResponseWriter, r *http.Request) {
	var rp acl.RolePermissions
	if err := json.NewDecoder(r.Body).Decode(&rp); err != nil {
		respondError(w, http.StatusBadRequest, "invalid acl document")
		return
	}

	if err := h.settingsService.WriteACL(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"), rp); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "acl updated",
	})
}

// GetFileACL returns the grant table of a file bucket.
func (h *Handler) GetFileACL(w http.ResponseWriter, r *http.Request) {
	rp, ok, err := h.settingsService.ReadFileACL(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "bucket"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "no acl entry for bucket")
		return
	}
	respondJSON(w, http.StatusOK, rp)
}

// PutFileACL replaces the grant table of a file bucket. Admin-only.
func (h *Handler) PutFileACL(w http.ResponseWriter, r *http.Request) {
	var rp acl.RolePermissions
	if err := json.NewDecoder(r.Body).Decode(&rp); err != nil {
		respondError(w, http.StatusBadRequest, "invalid acl document")
		return
	}

	if err := h.settingsService.WriteFileACL(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "bucket"), rp); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "acl updated",
	})
}

// GetPasswordPolicy returns the tenant's credential policy.
func (h *Handler) GetPasswordPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.settingsService.PasswordPolicy(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PutPasswordPolicy stores the tenant's credential policy.
func (h *Handler) PutPasswordPolicy(w http.ResponseWriter, r *http.Request) {
	var p identity.PasswordPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid policy document")
		return
	}

	if err := h.settingsService.SetPasswordPolicy(r.Context(), GetCredentials(r.Context()), p); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password policy updated",
	})
}
