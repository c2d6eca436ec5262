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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/authn"
	"github.com/backplane-io/backplane/internal/config"
	"github.com/backplane-io/backplane/internal/data"
	"github.com/backplane-io/backplane/internal/file"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/observability/logger"
	"github.com/backplane-io/backplane/internal/observability/metrics"
	"github.com/backplane-io/backplane/internal/observability/tracing"
	"github.com/backplane-io/backplane/internal/policy"
	"github.com/backplane-io/backplane/internal/schema"
	"github.com/backplane-io/backplane/internal/settings"
	"github.com/backplane-io/backplane/internal/store/postgres"
	"github.com/backplane-io/backplane/internal/tenant"
	transportHTTP "github.com/backplane-io/backplane/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting backplane server")

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	credentialsRepo := postgres.NewCredentialsRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	schemaRepo := postgres.NewSchemaRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	fileRepo := postgres.NewFileRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher()
	challengeCounter := identity.NewMemoryChallengeCounter(cfg.Auth.LockoutDuration)

	// Initialize services
	settingsService := settings.NewService(settingsRepo, auditLogger)
	identityService := identity.NewService(
		credentialsRepo,
		passwordHasher,
		settingsService,
		challengeCounter,
		auditLogger,
	)
	tenantService := tenant.NewService(tenantRepo)
	schemaService := schema.NewService(schemaRepo, settingsService, auditLogger)

	// The data and file services gate through separate engine instances:
	// the resource key spaces (type names vs bucket names) never mix.
	dataEngine := policy.NewEngine(settingsService)
	fileEngine := policy.NewEngine(policy.ACLSourceFunc(settingsService.ReadFileACL))
	dataService := data.NewService(documentRepo, dataEngine, auditLogger)
	fileService := file.NewService(fileRepo, fileEngine, auditLogger, cfg.File.MaxSize)

	authenticator := authn.NewAuthenticator(identityService)

	// Rate Limiter
	var rateLimiter *transportHTTP.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		tenantService,
		settingsService,
		schemaService,
		dataService,
		fileService,
		authenticator,
		auditLogger,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the expired-token sweep, stopped during graceful shutdown.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		ticker := time.NewTicker(cfg.Auth.TokenCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
			}
			n, err := credentialsRepo.DeleteExpiredTokens(sweepCtx, time.Now())
			if err != nil {
				slog.ErrorContext(sweepCtx, "failed to cleanup expired tokens", logger.Error(err))
				continue
			}
			if n > 0 {
				slog.InfoContext(sweepCtx, "cleaned up expired tokens", logger.RowsAffected(n))
			}
		}
	}()

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	stopSweep()
	<-sweepDone

	slog.Info("server stopped")
}
