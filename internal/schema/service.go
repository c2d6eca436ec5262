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

package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/policy"
	"github.com/backplane-io/backplane/internal/settings"
)

var typeNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// Service provides schema management. Declaration and deletion are
// admin-only operations.
type Service struct {
	repo        Repository
	settings    *settings.Service
	auditLogger audit.Logger
}

// NewService creates a new schema service.
func NewService(repo Repository, settingsService *settings.Service, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, settings: settingsService, auditLogger: auditLogger}
}

func (s *Service) requireAdmin(creds *identity.Credentials, typeName string, perm acl.Permission) error {
	if creds.IsAtLeastAdmin() {
		return nil
	}
	return &policy.DeniedError{
		CredentialsID: creds.ID,
		Roles:         creds.EffectiveRoles(),
		Resource:      typeName,
		Permission:    perm,
	}
}

// Declare registers a resource type and seeds its default ACL entry. A
// type that already has an ACL entry (for example one that was deleted and
// re-declared) keeps its existing grants.
func (s *Service) Declare(ctx context.Context, creds *identity.Credentials, typeName string, definition json.RawMessage) (*Schema, error) {
	if err := s.requireAdmin(creds, typeName, acl.PermCreate); err != nil {
		return nil, err
	}
	if !typeNamePattern.MatchString(typeName) {
		return nil, ErrInvalidTypeName
	}
	if existing, err := s.repo.Get(ctx, creds.TenantID, typeName); err == nil && existing != nil {
		return nil, ErrSchemaAlreadyExists
	}

	now := time.Now()
	sc := &Schema{
		TenantID:   creds.TenantID,
		Type:       typeName,
		Definition: definition,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, sc); err != nil {
		return nil, fmt.Errorf("put schema %s: %w", typeName, err)
	}
	if err := s.settings.EnsureACL(ctx, creds.TenantID, creds.ID, typeName); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSchemaDeclared,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: typeName,
	})
	return sc, nil
}

// Delete removes a schema declaration. The type's ACL entry is left in
// place on purpose: grants outlive the shape they gate.
func (s *Service) Delete(ctx context.Context, creds *identity.Credentials, typeName string) error {
	if err := s.requireAdmin(creds, typeName, acl.PermDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, creds.TenantID, typeName); err != nil {
		return ErrSchemaNotFound
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSchemaDeleted,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: typeName,
	})
	return nil
}

// Get retrieves one schema declaration.
func (s *Service) Get(ctx context.Context, tenantID, typeName string) (*Schema, error) {
	sc, err := s.repo.Get(ctx, tenantID, typeName)
	if err != nil {
		return nil, ErrSchemaNotFound
	}
	return sc, nil
}

// List retrieves all schema declarations of a tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]*Schema, error) {
	return s.repo.List(ctx, tenantID)
}
