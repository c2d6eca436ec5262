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
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/observability/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// Tenant context resolution:
// - X-API-Key resolves the tenant through its key. The key alone grants
//   KEY-level guest access; an Authorization header on top of it upgrades
//   the caller to a named identity.
// - X-Tenant-ID names the tenant directly and requires an Authorization
//   header: without the key there is no guest access.
// Inactive tenants fail closed for everyone.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// TenantMiddleware resolves the tenant context from X-API-Key or
// X-Tenant-ID. The resolved tenant ID lands in the request context; whether
// the caller used the API key is remembered for the guest path.
func (h *Handler) TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			t, err := h.tenantService.GetByAPIKey(r.Context(), apiKey)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			ctx := context.WithValue(r.Context(), tenantIDKey, t.ID)
			ctx = context.WithValue(ctx, apiKeyPresentedKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if tenantID := r.Header.Get("X-Tenant-ID"); tenantID != "" {
			t, err := h.tenantService.Get(r.Context(), tenantID)
			if err != nil || !t.IsActive() {
				respondError(w, http.StatusUnauthorized, "unknown or inactive tenant")
				return
			}
			ctx := context.WithValue(r.Context(), tenantIDKey, t.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireTenant enforces that a tenant context is present.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetTenantID(r.Context()) == "" {
			respondError(w, http.StatusUnauthorized, "X-API-Key or X-Tenant-ID header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

const apiKeyPresentedKey contextKey = "api_key_presented"

func apiKeyPresented(ctx context.Context) bool {
	v, _ := ctx.Value(apiKeyPresentedKey).(bool)
	return v
}

// AuthMiddleware establishes the caller's credentials. An Authorization
// header resolves to a named identity (Basic or Bearer); without one, a
// presented API key yields the synthetic KEY-level guest. Anything else is
// rejected before reaching a handler.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := GetTenantID(r.Context())
		if tenantID == "" {
			respondError(w, http.StatusUnauthorized, "tenant context is required")
			return
		}

		var creds *identity.Credentials
		if headerValue := r.Header.Get("Authorization"); headerValue != "" {
			var err error
			creds, err = h.authenticator.Authenticate(r.Context(), tenantID, headerValue)
			if err != nil {
				respondServiceError(w, r, err)
				return
			}
		} else if apiKeyPresented(r.Context()) {
			creds = identity.GuestCredentials(tenantID)
		} else {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), credentialsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperAdmin gates the operator surface.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := GetCredentials(r.Context())
		if creds == nil || !creds.IsAtLeastSuperAdmin() {
			respondError(w, http.StatusForbidden, "operator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
