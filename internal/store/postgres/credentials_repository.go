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
	"database/sql"
	"fmt"
	"time"

	"github.com/backplane-io/backplane/internal/identity"
	"github.com/jackc/pgx/v5"
)

// CredentialsRepository implements identity.Repository
type CredentialsRepository struct {
	db *DB
}

// NewCredentialsRepository creates a new credentials repository
func NewCredentialsRepository(db *DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

const credentialsColumns = `
	id, tenant_id, username, email, level, roles, group_id,
	hashed_password, password_reset_code,
	access_token, access_token_expires_at,
	created_at, updated_at
`

// Create stores a new credentials record
func (r *CredentialsRepository) Create(ctx context.Context, creds *identity.Credentials) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO credentials (
			id, tenant_id, username, email, level, roles, group_id,
			hashed_password, password_reset_code,
			access_token, access_token_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		creds.ID, creds.TenantID, creds.Username, creds.Email,
		int(creds.Level), creds.Roles, creds.Group,
		creds.HashedPassword, creds.PasswordResetCode,
		creds.AccessToken, nullableTime(creds.AccessTokenExpiresAt),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert credentials: %w", err)
	}

	creds.CreatedAt = now
	creds.UpdatedAt = now

	return nil
}

// GetByID retrieves credentials by ID
func (r *CredentialsRepository) GetByID(ctx context.Context, credsID string) (*identity.Credentials, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+credentialsColumns+`
		FROM credentials
		WHERE id = $1
	`, credsID)
	return scanCredentials(row)
}

// GetByUsername retrieves credentials by username within a tenant
func (r *CredentialsRepository) GetByUsername(ctx context.Context, tenantID, username string) (*identity.Credentials, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+credentialsColumns+`
		FROM credentials
		WHERE tenant_id = $1 AND username = $2
	`, tenantID, username)
	return scanCredentials(row)
}

// GetByAccessToken retrieves credentials by access token within a tenant
func (r *CredentialsRepository) GetByAccessToken(ctx context.Context, tenantID, token string) (*identity.Credentials, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+credentialsColumns+`
		FROM credentials
		WHERE tenant_id = $1 AND access_token = $2 AND access_token <> ''
	`, tenantID, token)
	return scanCredentials(row)
}

// Update persists changed secret/session/profile state
func (r *CredentialsRepository) Update(ctx context.Context, creds *identity.Credentials) error {
	now := time.Now()
	result, err := r.db.pool.Exec(ctx, `
		UPDATE credentials SET
			email = $2,
			level = $3,
			roles = $4,
			group_id = $5,
			hashed_password = $6,
			password_reset_code = $7,
			access_token = $8,
			access_token_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		creds.ID, creds.Email, int(creds.Level), creds.Roles, creds.Group,
		creds.HashedPassword, creds.PasswordResetCode,
		creds.AccessToken, nullableTime(creds.AccessTokenExpiresAt),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrCredentialsNotFound
	}

	creds.UpdatedAt = now

	return nil
}

// Delete removes a credentials record
func (r *CredentialsRepository) Delete(ctx context.Context, credsID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM credentials WHERE id = $1
	`, credsID)
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrCredentialsNotFound
	}
	return nil
}

// ListByTenant retrieves all credentials of a tenant
func (r *CredentialsRepository) ListByTenant(ctx context.Context, tenantID string) ([]*identity.Credentials, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+credentialsColumns+`
		FROM credentials
		WHERE tenant_id = $1
		ORDER BY username
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var out []*identity.Credentials
	for rows.Next() {
		creds, err := scanCredentials(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, creds)
	}
	return out, rows.Err()
}

// DeleteExpiredTokens clears access tokens that expired before now. Used by
// the cleanup job.
func (r *CredentialsRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE credentials
		SET access_token = '', access_token_expires_at = NULL
		WHERE access_token <> '' AND access_token_expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanCredentials(row pgx.Row) (*identity.Credentials, error) {
	var creds identity.Credentials
	var level int
	var expiresAt sql.NullTime

	err := row.Scan(
		&creds.ID, &creds.TenantID, &creds.Username, &creds.Email,
		&level, &creds.Roles, &creds.Group,
		&creds.HashedPassword, &creds.PasswordResetCode,
		&creds.AccessToken, &expiresAt,
		&creds.CreatedAt, &creds.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	creds.Level = identity.Level(level)
	if expiresAt.Valid {
		creds.AccessTokenExpiresAt = expiresAt.Time
	}

	return &creds, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
