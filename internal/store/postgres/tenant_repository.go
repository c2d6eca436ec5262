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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/backplane-io/backplane/internal/tenant"
	"github.com/jackc/pgx/v5"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create stores a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, api_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Name, t.APIKey, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.get(ctx, "id = $1", id)
}

// GetByName retrieves a tenant by name
func (r *TenantRepository) GetByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	return r.get(ctx, "name = $1", name)
}

// GetByAPIKey retrieves a tenant by its API key
func (r *TenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*tenant.Tenant, error) {
	return r.get(ctx, "api_key = $1", apiKey)
}

func (r *TenantRepository) get(ctx context.Context, where string, arg any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, api_key, status, created_at, updated_at
		FROM tenants
		WHERE `+where,
		arg,
	).Scan(&t.ID, &t.Name, &t.APIKey, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// Update updates tenant information
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET name = $2, api_key = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Name, t.APIKey, t.Status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// List retrieves all tenants
func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, api_key, status, created_at, updated_at
		FROM tenants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.APIKey, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
