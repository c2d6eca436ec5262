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

// Package data is the generic document store. Every operation passes
// through the policy engine before touching storage.
package data

import (
	"context"
	"encoding/json"

	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/policy"
)

// Domain errors
var ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

// Document is one stored object of a declared resource type.
type Document struct {
	ID       string          `json:"id"`
	TenantID string          `json:"-"`
	Type     string          `json:"type"`
	Body     json.RawMessage `json:"body"`
	*policy.Meta
}

// Repository defines the interface for document persistence.
type Repository interface {
	// Insert stores a new document.
	Insert(ctx context.Context, doc *Document) error

	// Get retrieves a document by type and ID.
	Get(ctx context.Context, tenantID, typeName, docID string) (*Document, error)

	// Update replaces a document's body and metadata.
	Update(ctx context.Context, doc *Document) error

	// Delete removes a document.
	Delete(ctx context.Context, tenantID, typeName, docID string) error

	// Search retrieves all documents of a type.
	Search(ctx context.Context, tenantID, typeName string) ([]*Document, error)
}
