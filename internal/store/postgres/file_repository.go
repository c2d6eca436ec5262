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

	"github.com/backplane-io/backplane/internal/file"
	"github.com/backplane-io/backplane/internal/policy"
	"github.com/jackc/pgx/v5"
)

// FileRepository implements file.Repository
type FileRepository struct {
	db *DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

// Put stores a file's metadata and content together
func (r *FileRepository) Put(ctx context.Context, f *file.File, content []byte) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO files (tenant_id, bucket, key, content_type, size, content, owner_id, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, bucket, key) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			size = EXCLUDED.size,
			content = EXCLUDED.content,
			owner_id = EXCLUDED.owner_id,
			group_id = EXCLUDED.group_id,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`,
		f.TenantID, f.Bucket, f.Key, f.ContentType, f.Size, content,
		f.Meta.OwnerID, f.Meta.GroupID, f.Meta.Created, f.Meta.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to put file: %w", err)
	}
	return nil
}

// Stat retrieves a file's metadata without its content
func (r *FileRepository) Stat(ctx context.Context, tenantID, bucket, key string) (*file.File, error) {
	f := file.File{Meta: &policy.Meta{}}
	err := r.db.pool.QueryRow(ctx, `
		SELECT tenant_id, bucket, key, content_type, size, owner_id, group_id, created_at, updated_at
		FROM files
		WHERE tenant_id = $1 AND bucket = $2 AND key = $3
	`, tenantID, bucket, key).Scan(
		&f.TenantID, &f.Bucket, &f.Key, &f.ContentType, &f.Size,
		&f.Meta.OwnerID, &f.Meta.GroupID, &f.Meta.Created, &f.Meta.Updated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, file.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &f, nil
}

// Open retrieves a file's metadata and content
func (r *FileRepository) Open(ctx context.Context, tenantID, bucket, key string) (*file.File, []byte, error) {
	f := file.File{Meta: &policy.Meta{}}
	var content []byte
	err := r.db.pool.QueryRow(ctx, `
		SELECT tenant_id, bucket, key, content_type, size, content, owner_id, group_id, created_at, updated_at
		FROM files
		WHERE tenant_id = $1 AND bucket = $2 AND key = $3
	`, tenantID, bucket, key).Scan(
		&f.TenantID, &f.Bucket, &f.Key, &f.ContentType, &f.Size, &content,
		&f.Meta.OwnerID, &f.Meta.GroupID, &f.Meta.Created, &f.Meta.Updated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, file.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &f, content, nil
}

// Delete removes a file
func (r *FileRepository) Delete(ctx context.Context, tenantID, bucket, key string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM files WHERE tenant_id = $1 AND bucket = $2 AND key = $3
	`, tenantID, bucket, key)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return file.ErrFileNotFound
	}
	return nil
}

// List retrieves the metadata of all files in a bucket
func (r *FileRepository) List(ctx context.Context, tenantID, bucket string) ([]*file.File, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT tenant_id, bucket, key, content_type, size, owner_id, group_id, created_at, updated_at
		FROM files
		WHERE tenant_id = $1 AND bucket = $2
		ORDER BY key
	`, tenantID, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var out []*file.File
	for rows.Next() {
		f := file.File{Meta: &policy.Meta{}}
		if err := rows.Scan(
			&f.TenantID, &f.Bucket, &f.Key, &f.ContentType, &f.Size,
			&f.Meta.OwnerID, &f.Meta.GroupID, &f.Meta.Created, &f.Meta.Updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
