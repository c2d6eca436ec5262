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

// Package settings is the per-tenant settings store. Besides free-form
// settings documents it persists the access control lists of the data
// types and file buckets, and the tenant password policy. ACL entries live
// here deliberately: they must survive the deletion of the schema they
// gate.
package settings

import (
	"context"
	"encoding/json"

	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/policy"
)

// Domain errors
var (
	ErrSettingsNotFound = errors.Wrap(errors.ErrNotFound, "settings document not found")
	ErrBadDocument      = errors.Wrap(errors.ErrValidation, "malformed settings document")
)

// Well-known settings ids and ACL key prefixes.
const (
	PasswordPolicyID = "passwordPolicy"

	// SettingsACLID holds the grant tables over the settings namespace
	// itself: which roles may read or update which settings id.
	SettingsACLID = "settingsAcl"

	dataACLPrefix = "acl:"
	fileACLPrefix = "fileAcl:"
)

// Document is a tenant-scoped settings object with ownership metadata.
type Document struct {
	ID       string          `json:"id"`
	TenantID string          `json:"-"`
	Body     json.RawMessage `json:"body"`
	*policy.Meta
}

// Repository defines the interface for settings persistence.
type Repository interface {
	// Get retrieves a settings document.
	Get(ctx context.Context, tenantID, settingsID string) (*Document, error)

	// Put creates or replaces a settings document.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a settings document.
	Delete(ctx context.Context, tenantID, settingsID string) error

	// List retrieves all settings documents of a tenant.
	List(ctx context.Context, tenantID string) ([]*Document, error)
}
