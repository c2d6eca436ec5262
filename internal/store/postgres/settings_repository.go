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

	"github.com/backplane-io/backplane/internal/policy"
	"github.com/backplane-io/backplane/internal/settings"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository implements settings.Repository
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a settings document
func (r *SettingsRepository) Get(ctx context.Context, tenantID, settingsID string) (*settings.Document, error) {
	doc := settings.Document{Meta: &policy.Meta{}}
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, body, owner_id, group_id, created_at, updated_at
		FROM settings
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, settingsID).Scan(
		&doc.ID, &doc.TenantID, &doc.Body,
		&doc.Meta.OwnerID, &doc.Meta.GroupID, &doc.Meta.Created, &doc.Meta.Updated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, settings.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &doc, nil
}

// Put creates or replaces a settings document
func (r *SettingsRepository) Put(ctx context.Context, doc *settings.Document) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO settings (tenant_id, id, body, owner_id, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, id) DO UPDATE SET
			body = EXCLUDED.body,
			owner_id = EXCLUDED.owner_id,
			group_id = EXCLUDED.group_id,
			updated_at = EXCLUDED.updated_at
	`,
		doc.TenantID, doc.ID, doc.Body,
		doc.Meta.OwnerID, doc.Meta.GroupID, doc.Meta.Created, doc.Meta.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to put settings: %w", err)
	}
	return nil
}

// Delete removes a settings document
func (r *SettingsRepository) Delete(ctx context.Context, tenantID, settingsID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM settings WHERE tenant_id = $1 AND id = $2
	`, tenantID, settingsID)
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return settings.ErrSettingsNotFound
	}
	return nil
}

// List retrieves all settings documents of a tenant
func (r *SettingsRepository) List(ctx context.Context, tenantID string) ([]*settings.Document, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, body, owner_id, group_id, created_at, updated_at
		FROM settings
		WHERE tenant_id = $1
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []*settings.Document
	for rows.Next() {
		doc := settings.Document{Meta: &policy.Meta{}}
		if err := rows.Scan(
			&doc.ID, &doc.TenantID, &doc.Body,
			&doc.Meta.OwnerID, &doc.Meta.GroupID, &doc.Meta.Created, &doc.Meta.Updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settings: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}
