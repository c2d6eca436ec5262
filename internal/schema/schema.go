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

// Package schema manages the resource-type declarations of a tenant.
// Declaring a type seeds its default ACL entry; deleting a declaration
// leaves the ACL entry untouched, so re-declared types keep their grants.
package schema

import (
	"context"
	"encoding/json"
	"time"

	"github.com/backplane-io/backplane/internal/errors"
)

// Domain errors
var (
	ErrSchemaNotFound      = errors.Wrap(errors.ErrNotFound, "schema not found")
	ErrSchemaAlreadyExists = errors.Wrap(errors.ErrConflict, "schema already declared")
	ErrInvalidTypeName     = errors.Wrap(errors.ErrValidation, "invalid resource type name")
)

// Schema is the declaration of one resource type. The definition is kept
// opaque here; translating it to storage mappings is the storage engine's
// concern.
type Schema struct {
	TenantID   string          `json:"-"`
	Type       string          `json:"type"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Repository defines the interface for schema persistence.
type Repository interface {
	// Put creates or replaces a schema declaration.
	Put(ctx context.Context, sc *Schema) error

	// Get retrieves a schema declaration.
	Get(ctx context.Context, tenantID, typeName string) (*Schema, error)

	// Delete removes a schema declaration.
	Delete(ctx context.Context, tenantID, typeName string) error

	// List retrieves all schema declarations of a tenant.
	List(ctx context.Context, tenantID string) ([]*Schema, error)
}
