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

	"github.com/backplane-io/backplane/internal/identity"
	"github.com/go-chi/chi/v5"
)

// CreateIdentityRequest represents provisioning data. An empty password
// creates the identity reset-pending; the returned reset code must
// accompany the first password.
type CreateIdentityRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Level    string   `json:"level"`
	Roles    []string `json:"roles"`
	Group    string   `json:"group"`
	Password string   `json:"password"`
}

func identityResponse(creds *identity.Credentials) map[string]any {
	return map[string]any{
		"credentials_id": creds.ID,
		"username":       creds.Username,
		"email":          creds.Email,
		"level":          creds.Level.String(),
		"roles":          creds.EffectiveRoles(),
		"group":          creds.Group,
		"active":         creds.HashedPassword != "",
	}
}

// CreateIdentity provisions a new identity. Admin-only, and never above the
// caller's own level.
func (h *Handler) CreateIdentity(w http.ResponseWriter, r *http.Request) {
	caller := GetCredentials(r.Context())
	if !caller.IsAtLeastAdmin() {
		respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	var req CreateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level, err := identity.ParseLevel(req.Level)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid level")
		return
	}
	if !caller.Level.AtLeast(level) {
		respondError(w, http.StatusForbidden, "cannot create an identity above your own level")
		return
	}

	creds, err := h.identityService.Create(r.Context(), identity.CreateParams{
		TenantID: GetTenantID(r.Context()),
		Username: req.Username,
		Email:    req.Email,
		Level:    level,
		Roles:    req.Roles,
		Group:    req.Group,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := identityResponse(creds)
	if creds.PasswordResetCode != "" {
		resp["reset_code"] = creds.PasswordResetCode
	}
	respondJSON(w, http.StatusCreated, resp)
}

// GetIdentity retrieves one identity. Admins see everyone; others only
// themselves.
func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	caller := GetCredentials(r.Context())
	credsID := chi.URLParam(r, "credentialsID")

	if !caller.IsAtLeastAdmin() && caller.ID != credsID {
		respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	creds, err := h.identityService.Lookup(r.Context(), credsID)
	if err != nil || creds.TenantID != GetTenantID(r.Context()) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, identityResponse(creds))
}

// ListIdentities lists the tenant's identities. Admin-only.
func (h *Handler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	caller := GetCredentials(r.Context())
	if !caller.IsAtLeastAdmin() {
		respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	all, err := h.identityService.List(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(all))
	for _, creds := range all {
		out = append(out, identityResponse(creds))
	}
	respondJSON(w, http.StatusOK, out)
}

// DeleteIdentity removes an identity. Admin-only.
func (h *Handler) DeleteIdentity(w http.ResponseWriter, r *http.Request) {
	caller := GetCredentials(r.Context())
	if !caller.IsAtLeastAdmin() {
		respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	credsID := chi.URLParam(r, "credentialsID")
	target, err := h.identityService.Lookup(r.Context(), credsID)
	if err != nil || target.TenantID != GetTenantID(r.Context()) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	if err := h.identityService.Delete(r.Context(), credsID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "identity deleted",
	})
}

// ResetPassword moves an identity into reset-pending state and returns the
// one-time code for out-of-band delivery. Admin-only, or self.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller := GetCredentials(r.Context())
	credsID := chi.URLParam(r, "credentialsID")

	if !caller.IsAtLeastAdmin() && caller.ID != credsID {
		respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	target, err := h.identityService.Lookup(r.Context(), credsID)
	if err != nil || target.TenantID != GetTenantID(r.Context()) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}

	code, err := h.identityService.ResetPassword(r.Context(), credsID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"reset_code": code,
	})
}
