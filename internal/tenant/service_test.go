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
	"testing"

	"github.com/backplane-io/backplane/internal/errors"
)

// MockRepository is a simple in-memory implementation of Repository
type MockRepository struct {
	tenants map[string]*Tenant
}

func NewMockRepository() *MockRepository {
	return &MockRepository{tenants: make(map[string]*Tenant)}
}

func (m *MockRepository) Create(_ context.Context, t *Tenant) error {
	m.tenants[t.ID] = t
	return nil
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func (m *MockRepository) GetByName(_ context.Context, name string) (*Tenant, error) {
	for _, t := range m.tenants {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (m *MockRepository) GetByAPIKey(_ context.Context, apiKey string) (*Tenant, error) {
	for _, t := range m.tenants {
		if t.APIKey == apiKey {
			return t, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (m *MockRepository) Update(_ context.Context, t *Tenant) error {
	m.tenants[t.ID] = t
	return nil
}

func (m *MockRepository) List(_ context.Context) ([]*Tenant, error) {
	out := make([]*Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

// TestPurpose: Validates tenant provisioning: a new tenant is active with a
// generated API key, and names are unique.
// Scope: Unit Test
// Security: Backend isolation bootstrap
// Expected: Fresh tenant is active and resolvable by key; a duplicate name
// is a conflict.
// Test Case ID: TNT-01
func TestTenant_Create(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	created, err := s.Create(ctx, "acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.APIKey == "" || !created.IsActive() {
		t.Errorf("tenant = %+v", created)
	}

	if _, err := s.Create(ctx, "acme"); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict for duplicate name, got %v", err)
	}

	resolved, err := s.GetByAPIKey(ctx, created.APIKey)
	if err != nil || resolved.ID != created.ID {
		t.Errorf("GetByAPIKey = %v, %v", resolved, err)
	}
}

// TestPurpose: Validates that deactivation closes all key-based access
// while leaving the tenant and its data in place.
// Scope: Unit Test
// Security: Tenant kill switch
// Expected: A deactivated tenant no longer resolves through its API key
// but is still retrievable by ID.
// Test Case ID: TNT-02
func TestTenant_Deactivate(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	created, _ := s.Create(ctx, "acme")
	if err := s.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if _, err := s.GetByAPIKey(ctx, created.APIKey); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("inactive tenant resolved by key: %v", err)
	}
	got, err := s.Get(ctx, created.ID)
	if err != nil || got.IsActive() {
		t.Errorf("Get = %+v, %v", got, err)
	}

	if err := s.Deactivate(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestTenant_RotateAPIKey(t *testing.T) {
	s := NewService(NewMockRepository())
	ctx := context.Background()

	created, _ := s.Create(ctx, "acme")
	oldKey := created.APIKey

	rotated, err := s.RotateAPIKey(ctx, created.ID)
	if err != nil {
		t.Fatalf("RotateAPIKey: %v", err)
	}
	if rotated.APIKey == oldKey || rotated.APIKey == "" {
		t.Errorf("key not rotated: %q", rotated.APIKey)
	}

	if _, err := s.GetByAPIKey(ctx, oldKey); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("old key still resolves: %v", err)
	}
	if _, err := s.GetByAPIKey(ctx, rotated.APIKey); err != nil {
		t.Errorf("new key does not resolve: %v", err)
	}
}
