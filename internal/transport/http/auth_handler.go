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
	"time"

	"github.com/go-chi/chi/v5"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a password challenge and mints a bearer token. Any
// previous session of the identity is replaced.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID := GetTenantID(r.Context())
	creds, err := h.identityService.Login(r.Context(), tenantID, req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"credentials_id": creds.ID,
		"access_token":   creds.AccessToken,
		"expires_in":     int64(creds.AccessTokenExpiresIn(time.Now()).Seconds()),
	})
}

// Logout destroys the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	creds := GetCredentials(r.Context())
	if err := h.identityService.Logout(r.Context(), creds.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentIdentity returns the authenticated caller.
func (h *Handler) GetCurrentIdentity(w http.ResponseWriter, r *http.Request) {
	creds := GetCredentials(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"credentials_id": creds.ID,
		"username":       creds.Username,
		"email":          creds.Email,
		"level":          creds.Level.String(),
		"roles":          creds.EffectiveRoles(),
		"group":          creds.Group,
		"expires_in":     int64(creds.AccessTokenExpiresIn(time.Now()).Seconds()),
	})
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword verifies the old password and stores the new one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	creds := GetCredentials(r.Context())

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.identityService.ChangePassword(r.Context(), creds.ID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}

// CompleteResetRequest carries the one-time reset code and the new password.
type CompleteResetRequest struct {
	Password  string `json:"password"`
	ResetCode string `json:"reset_code"`
}

// CompletePasswordReset consumes a reset code and activates the identity.
// Reachable without a session: the code is the proof.
func (h *Handler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	credsID := chi.URLParam(r, "credentialsID")

	var req CompleteResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	creds, err := h.identityService.CompletePasswordReset(r.Context(), credsID, req.Password, req.ResetCode)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"credentials_id": creds.ID,
		"access_token":   creds.AccessToken,
		"expires_in":     int64(creds.AccessTokenExpiresIn(time.Now()).Seconds()),
	})
}
