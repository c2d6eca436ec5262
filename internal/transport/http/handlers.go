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
	"net/http"
	"time"

	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/authn"
	"github.com/backplane-io/backplane/internal/data"
	"github.com/backplane-io/backplane/internal/file"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/schema"
	"github.com/backplane-io/backplane/internal/settings"
	"github.com/backplane-io/backplane/internal/tenant"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	tenantService   *tenant.Service
	settingsService *settings.Service
	schemaService   *schema.Service
	dataService     *data.Service
	fileService     *file.Service
	authenticator   *authn.Authenticator
	auditLogger     audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tenantService *tenant.Service,
	settingsService *settings.Service,
	schemaService *schema.Service,
	dataService *data.Service,
	fileService *file.Service,
	authenticator *authn.Authenticator,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		identityService: identityService,
		tenantService:   tenantService,
		settingsService: settingsService,
		schemaService:   schemaService,
		dataService:     dataService,
		fileService:     fileService,
		authenticator:   authenticator,
		auditLogger:     auditLogger,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if rateLimiter != nil {
		r.Use(RateLimitMiddleware(rateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.TenantMiddleware)
		r.Use(RequireTenant)

		// Login trades Basic credentials for a bearer token; it is the one
		// endpoint reachable with an Authorization header but no session.
		r.Post("/auth/login", h.Login)
		r.Post("/auth/reset/{credentialsID}", h.CompletePasswordReset)

		// Authenticated routes (named identity or API-key guest)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentIdentity)
			r.Post("/auth/logout", h.Logout)
			r.Post("/auth/change-password", h.ChangePassword)

			// Identity administration
			r.Route("/identities", func(r chi.Router) {
				r.Post("/", h.CreateIdentity)
				r.Get("/", h.ListIdentities)
				r.Get("/{credentialsID}", h.GetIdentity)
				r.Delete("/{credentialsID}", h.DeleteIdentity)
				r.Post("/{credentialsID}/reset-password", h.ResetPassword)
			})

			// Resource type declarations
			r.Route("/schemas", func(r chi.Router) {
				r.Post("/", h.DeclareSchema)
				r.Get("/", h.ListSchemas)
				r.Get("/{typeName}", h.GetSchema)
				r.Delete("/{typeName}", h.DeleteSchema)
			})

			// Generic documents
			r.Route("/data/{typeName}", func(r chi.Router) {
				r.Post("/", h.CreateDocument)
				r.Get("/", h.SearchDocuments)
				r.Get("/{docID}", h.GetDocument)
				r.Put("/{docID}", h.UpdateDocument)
				r.Delete("/{docID}", h.DeleteDocument)
			})

			// Settings and access control
			r.Route("/settings", func(r chi.Router) {
				r.Get("/{settingsID}", h.GetSettings)
				r.Put("/{settingsID}", h.PutSettings)
				r.Delete("/{settingsID}", h.DeleteSettings)
			})
			r.Get("/acl/data/{typeName}", h.GetDataACL)
			r.Put("/acl/data/{typeName}", h.PutDataACL)
			r.Get("/acl/files/{bucket}", h.GetFileACL)
			r.Put("/acl/files/{bucket}", h.PutFileACL)
			r.Get("/password-policy", h.GetPasswordPolicy)
			r.Put("/password-policy", h.PutPasswordPolicy)

			// File buckets
			r.Route("/files/{bucket}", func(r chi.Router) {
				r.Get("/", h.ListFiles)
				r.Put("/*", h.StoreFile)
				r.Get("/*", h.DownloadFile)
				r.Delete("/*", h.DeleteFile)
			})

			// Operator surface
			r.Route("/tenants", func(r chi.Router) {
				r.Use(RequireSuperAdmin)
				r.Post("/", h.CreateTenant)
				r.Get("/", h.ListTenants)
				r.Post("/{tenantID}/deactivate", h.DeactivateTenant)
				r.Post("/{tenantID}/rotate-key", h.RotateTenantAPIKey)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "backplane",
	})
}
