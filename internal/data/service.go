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

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/id"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/policy"
)

// Service provides document CRUD gated by the policy engine.
type Service struct {
	repo        Repository
	engine      *policy.Engine
	auditLogger audit.Logger
}

// NewService creates a new data service. The engine's ACL source is the
// settings store's data ACL table.
func NewService(repo Repository, engine *policy.Engine, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, engine: engine, auditLogger: auditLogger}
}

// WriteMeta carries caller-supplied ownership metadata for administrative
// backfills. Accepting it requires the forceMeta grant.
type WriteMeta struct {
	Owner     string
	Group     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) denyAudit(ctx context.Context, creds *identity.Credentials, typeName string, perm acl.Permission) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePermissionDenied,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: typeName,
		Metadata: map[string]any{
			audit.AttrPermission: string(perm),
			audit.AttrRoles:      creds.EffectiveRoles(),
		},
	})
}

// Create stores a new document. The caller becomes the owner and the
// document joins the caller's sharing group, unless an explicit meta is
// supplied under the forceMeta grant.
func (s *Service) Create(ctx context.Context, creds *identity.Credentials, typeName string, body json.RawMessage, meta *WriteMeta) (*Document, error) {
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermCreate, nil); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermCreate)
		return nil, err
	}

	now := time.Now()
	doc := &Document{
		ID:       id.NewUUIDv7(),
		TenantID: creds.TenantID,
		Type:     typeName,
		Body:     body,
		Meta:     &policy.Meta{},
	}
	doc.Stamp(creds.ID, creds.Group, now)

	if meta != nil {
		if err := s.applyForcedMeta(ctx, creds, typeName, doc, meta); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert %s document: %w", typeName, err)
	}
	return doc, nil
}

// Get retrieves a document, enforcing the read grant against its owner and
// group.
func (s *Service) Get(ctx context.Context, creds *identity.Credentials, typeName, docID string) (*Document, error) {
	doc, err := s.repo.Get(ctx, creds.TenantID, typeName, docID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermRead, doc); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermRead)
		return nil, err
	}
	return doc, nil
}

// Update replaces a document's body, enforcing the update grant.
func (s *Service) Update(ctx context.Context, creds *identity.Credentials, typeName, docID string, body json.RawMessage, meta *WriteMeta) (*Document, error) {
	doc, err := s.repo.Get(ctx, creds.TenantID, typeName, docID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermUpdate, doc); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermUpdate)
		return nil, err
	}

	doc.Body = body
	doc.Updated = time.Now()
	if meta != nil {
		if err := s.applyForcedMeta(ctx, creds, typeName, doc, meta); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update %s document: %w", typeName, err)
	}
	return doc, nil
}

// Delete removes a document, enforcing the delete grant.
func (s *Service) Delete(ctx context.Context, creds *identity.Credentials, typeName, docID string) error {
	doc, err := s.repo.Get(ctx, creds.TenantID, typeName, docID)
	if err != nil {
		return ErrDocumentNotFound
	}
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermDelete, doc); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermDelete)
		return err
	}
	return s.repo.Delete(ctx, creds.TenantID, typeName, docID)
}

// Search lists the documents of a type the caller may read. The search
// grant gates the operation; each hit is then filtered through the
// object-level read check, so a Mine-scoped reader only sees their own.
func (s *Service) Search(ctx context.Context, creds *identity.Credentials, typeName string) ([]*Document, error) {
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermSearch, nil); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermSearch)
		return nil, err
	}

	docs, err := s.repo.Search(ctx, creds.TenantID, typeName)
	if err != nil {
		return nil, fmt.Errorf("search %s documents: %w", typeName, err)
	}
	visible := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if err := s.engine.Authorize(ctx, creds, typeName, acl.PermRead, doc); err == nil {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}

// applyForcedMeta writes caller-supplied ownership metadata. Requires the
// forceMeta grant on the type.
func (s *Service) applyForcedMeta(ctx context.Context, creds *identity.Credentials, typeName string, doc *Document, meta *WriteMeta) error {
	if err := s.engine.Authorize(ctx, creds, typeName, acl.PermForceMeta, nil); err != nil {
		s.denyAudit(ctx, creds, typeName, acl.PermForceMeta)
		return err
	}
	if meta.Owner != "" {
		doc.SetOwner(meta.Owner)
	}
	if meta.Group != "" {
		doc.SetGroup(meta.Group)
	}
	if !meta.CreatedAt.IsZero() {
		doc.SetCreatedAt(meta.CreatedAt)
	}
	if !meta.UpdatedAt.IsZero() {
		doc.SetUpdatedAt(meta.UpdatedAt)
	}
	return nil
}
