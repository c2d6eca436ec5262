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

	"github.com/backplane-io/backplane/internal/data"
	"github.com/backplane-io/backplane/internal/policy"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository implements data.Repository
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert stores a new document
func (r *DocumentRepository) Insert(ctx context.Context, doc *data.Document) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO documents (id, tenant_id, type_name, body, owner_id, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		doc.ID, doc.TenantID, doc.Type, doc.Body,
		doc.Meta.OwnerID, doc.Meta.GroupID, doc.Meta.Created, doc.Meta.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get retrieves a document by type and ID
func (r *DocumentRepository) Get(ctx context.Context, tenantID, typeName, docID string) (*data.Document, error) {
	doc := data.Document{Meta: &policy.Meta{}}
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, type_name, body, owner_id, group_id, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1 AND type_name = $2 AND id = $3
	`, tenantID, typeName, docID).Scan(
		&doc.ID, &doc.TenantID, &doc.Type, &doc.Body,
		&doc.Meta.OwnerID, &doc.Meta.GroupID, &doc.Meta.Created, &doc.Meta.Updated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, data.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// Update replaces a document's body and metadata
func (r *DocumentRepository) Update(ctx context.Context, doc *data.Document) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE documents SET
			body = $4,
			owner_id = $5,
			group_id = $6,
			created_at = $7,
			updated_at = $8
		WHERE tenant_id = $1 AND type_name = $2 AND id = $3
	`,
		doc.TenantID, doc.Type, doc.ID, doc.Body,
		doc.Meta.OwnerID, doc.Meta.GroupID, doc.Meta.Created, doc.Meta.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return data.ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, tenantID, typeName, docID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM documents WHERE tenant_id = $1 AND type_name = $2 AND id = $3
	`, tenantID, typeName, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return data.ErrDocumentNotFound
	}
	return nil
}

// Search retrieves all documents of a type
func (r *DocumentRepository) Search(ctx context.Context, tenantID, typeName string) ([]*data.Document, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, type_name, body, owner_id, group_id, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1 AND type_name = $2
		ORDER BY created_at
	`, tenantID, typeName)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var out []*data.Document
	for rows.Next() {
		doc := data.Document{Meta: &policy.Meta{}}
		if err := rows.Scan(
			&doc.ID, &doc.TenantID, &doc.Type, &doc.Body,
			&doc.Meta.OwnerID, &doc.Meta.GroupID, &doc.Meta.Created, &doc.Meta.Updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}
