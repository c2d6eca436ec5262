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

package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/backplane-io/backplane/internal/id"
)

// Service provides tenant management business logic.
type Service struct {
	repo Repository
}

// NewService creates a new tenant service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions a new backend. The generated API key is what KEY-level
// guest callers present to reach the tenant at all.
func (s *Service) Create(ctx context.Context, name string) (*Tenant, error) {
	if existing, err := s.repo.GetByName(ctx, name); err == nil && existing != nil {
		return nil, ErrTenantAlreadyExists
	}

	now := time.Now()
	t := &Tenant{
		ID:        id.NewUUIDv7(),
		Name:      name,
		APIKey:    id.NewOpaqueToken(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// Get retrieves an active tenant by ID.
func (s *Service) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// GetByAPIKey resolves an API key to its active tenant. Inactive tenants
// reject all access, key-holders included.
func (s *Service) GetByAPIKey(ctx context.Context, apiKey string) (*Tenant, error) {
	t, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil || !t.IsActive() {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

// List retrieves all tenants. Operator-only surface.
func (s *Service) List(ctx context.Context) ([]*Tenant, error) {
	return s.repo.List(ctx)
}

// Deactivate marks a tenant inactive without deleting its data.
func (s *Service) Deactivate(ctx context.Context, tenantID string) error {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return ErrTenantNotFound
	}
	t.Status = StatusInactive
	t.UpdatedAt = time.Now()
	return s.repo.Update(ctx, t)
}

// RotateAPIKey replaces the tenant key, invalidating guest access granted
// through the old one.
func (s *Service) RotateAPIKey(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, ErrTenantNotFound
	}
	t.APIKey = id.NewOpaqueToken()
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("rotate api key: %w", err)
	}
	return t, nil
}
