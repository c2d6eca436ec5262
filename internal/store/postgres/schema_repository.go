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

	"github.com/backplane-io/backplane/internal/schema"
	"github.com/jackc/pgx/v5"
)

// SchemaRepository implements schema.Repository
type SchemaRepository struct {
	db *DB
}

// NewSchemaRepository creates a new schema repository
func NewSchemaRepository(db *DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Put creates or replaces a schema declaration
func (r *SchemaRepository) Put(ctx context.Context, sc *schema.Schema) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO schemas (tenant_id, type_name, definition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, type_name) DO UPDATE SET
			definition = EXCLUDED.definition,
			updated_at = EXCLUDED.updated_at
	`, sc.TenantID, sc.Type, sc.Definition, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put schema: %w", err)
	}
	return nil
}

// Get retrieves a schema declaration
func (r *SchemaRepository) Get(ctx context.Context, tenantID, typeName string) (*schema.Schema, error) {
	var sc schema.Schema
	err := r.db.pool.QueryRow(ctx, `
		SELECT tenant_id, type_name, definition, created_at, updated_at
		FROM schemas
		WHERE tenant_id = $1 AND type_name = $2
	`, tenantID, typeName).Scan(&sc.TenantID, &sc.Type, &sc.Definition, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, schema.ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	return &sc, nil
}

// Delete removes a schema declaration
func (r *SchemaRepository) Delete(ctx context.Context, tenantID, typeName string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM schemas WHERE tenant_id = $1 AND type_name = $2
	`, tenantID, typeName)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	if result.RowsAffected() == 0 {
		return schema.ErrSchemaNotFound
	}
	return nil
}

// List retrieves all schema declarations of a tenant
func (r *SchemaRepository) List(ctx context.Context, tenantID string) ([]*schema.Schema, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT tenant_id, type_name, definition, created_at, updated_at
		FROM schemas
		WHERE tenant_id = $1
		ORDER BY type_name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	var out []*schema.Schema
	for rows.Next() {
		var sc schema.Schema
		if err := rows.Scan(&sc.TenantID, &sc.Type, &sc.Definition, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}
