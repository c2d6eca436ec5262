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

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/policy"
)

// Service provides the settings store and the ACL read/write contracts
// consumed by the resource services. It is also the PolicyProvider for the
// identity service.
type Service struct {
	repo        Repository
	gate        *policy.Engine
	auditLogger audit.Logger
}

// NewService creates a new settings service. The service gates access to
// the settings namespace with its own policy engine instance, reading
// grants from the tenant's settingsAcl document.
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	s := &Service{repo: repo, auditLogger: auditLogger}
	s.gate = policy.NewEngine(&namespaceACLSource{repo: repo})
	return s
}

// namespaceACLSource reads the grant table for a settings id out of the
// settingsAcl document. Resource key = settings id.
type namespaceACLSource struct {
	repo Repository
}

func (n *namespaceACLSource) ReadACL(ctx context.Context, tenantID, settingsID string) (acl.RolePermissions, bool, error) {
	doc, err := n.repo.Get(ctx, tenantID, SettingsACLID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return acl.RolePermissions{}, false, nil
		}
		return acl.RolePermissions{}, false, fmt.Errorf("read settings acl: %w", err)
	}
	var table map[string]acl.RolePermissions
	if err := json.Unmarshal(doc.Body, &table); err != nil {
		return acl.RolePermissions{}, false, fmt.Errorf("decode settings acl: %w", err)
	}
	rp, ok := table[settingsID]
	return rp, ok, nil
}

// authorize gates a settings operation. ADMIN and above always pass; below
// that the namespace ACL decides.
func (s *Service) authorize(ctx context.Context, creds *identity.Credentials, settingsID string, perm acl.Permission, target policy.Ownable) error {
	if creds.IsAtLeastAdmin() {
		return nil
	}
	return s.gate.Authorize(ctx, creds, settingsID, perm, target)
}

// Get reads a settings document on behalf of creds.
func (s *Service) Get(ctx context.Context, creds *identity.Credentials, settingsID string) (*Document, error) {
	doc, err := s.repo.Get(ctx, creds.TenantID, settingsID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("get settings %s: %w", settingsID, err)
	}
	if err := s.authorize(ctx, creds, settingsID, acl.PermRead, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Put creates or replaces a settings document on behalf of creds.
func (s *Service) Put(ctx context.Context, creds *identity.Credentials, settingsID string, body json.RawMessage) (*Document, error) {
	existing, err := s.repo.Get(ctx, creds.TenantID, settingsID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, fmt.Errorf("get settings %s: %w", settingsID, err)
	}

	var target policy.Ownable
	if existing != nil {
		target = existing
	}
	if err := s.authorize(ctx, creds, settingsID, acl.PermUpdate, target); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &Document{ID: settingsID, TenantID: creds.TenantID, Body: body, Meta: &policy.Meta{}}
	if existing != nil {
		*doc.Meta = *existing.Meta
		doc.Updated = now
	} else {
		doc.Stamp(creds.ID, creds.Group, now)
	}
	if err := s.repo.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("put settings %s: %w", settingsID, err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSettingsUpdated,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: settingsID,
	})
	return doc, nil
}

// Delete removes a settings document on behalf of creds.
func (s *Service) Delete(ctx context.Context, creds *identity.Credentials, settingsID string) error {
	doc, err := s.repo.Get(ctx, creds.TenantID, settingsID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return ErrSettingsNotFound
		}
		return fmt.Errorf("get settings %s: %w", settingsID, err)
	}
	if err := s.authorize(ctx, creds, settingsID, acl.PermDelete, doc); err != nil {
		return err
	}
	return s.repo.Delete(ctx, creds.TenantID, settingsID)
}

// ---------------------------------------------------------------------------
// ACL contracts consumed by the policy engines of the resource services.
// ---------------------------------------------------------------------------

// ReadACL returns the grant table of a data resource type. Implements
// policy.ACLSource for the data/schema engine.
func (s *Service) ReadACL(ctx context.Context, tenantID, resource string) (acl.RolePermissions, bool, error) {
	return s.readACL(ctx, tenantID, dataACLPrefix+resource)
}

// ReadFileACL returns the grant table of a file bucket.
func (s *Service) ReadFileACL(ctx context.Context, tenantID, bucket string) (acl.RolePermissions, bool, error) {
	return s.readACL(ctx, tenantID, fileACLPrefix+bucket)
}

func (s *Service) readACL(ctx context.Context, tenantID, key string) (acl.RolePermissions, bool, error) {
	doc, err := s.repo.Get(ctx, tenantID, key)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return acl.RolePermissions{}, false, nil
		}
		return acl.RolePermissions{}, false, fmt.Errorf("read acl %s: %w", key, err)
	}
	var rp acl.RolePermissions
	if err := json.Unmarshal(doc.Body, &rp); err != nil {
		return acl.RolePermissions{}, false, fmt.Errorf("decode acl %s: %w", key, err)
	}
	return rp, true, nil
}

// WriteACL replaces the grant table of a data resource type. Only ADMIN
// and above may mutate ACL entries.
func (s *Service) WriteACL(ctx context.Context, creds *identity.Credentials, resource string, rp acl.RolePermissions) error {
	return s.writeACL(ctx, creds, dataACLPrefix+resource, resource, rp)
}

// WriteFileACL replaces the grant table of a file bucket.
func (s *Service) WriteFileACL(ctx context.Context, creds *identity.Credentials, bucket string, rp acl.RolePermissions) error {
	return s.writeACL(ctx, creds, fileACLPrefix+bucket, bucket, rp)
}

func (s *Service) writeACL(ctx context.Context, creds *identity.Credentials, key, resource string, rp acl.RolePermissions) error {
	if !creds.IsAtLeastAdmin() {
		return &policy.DeniedError{
			CredentialsID: creds.ID,
			Roles:         creds.EffectiveRoles(),
			Resource:      resource,
			Permission:    acl.PermUpdate,
		}
	}

	body, err := json.Marshal(rp)
	if err != nil {
		return fmt.Errorf("encode acl %s: %w", key, err)
	}

	existing, err := s.repo.Get(ctx, creds.TenantID, key)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return fmt.Errorf("get acl %s: %w", key, err)
	}

	now := time.Now()
	doc := &Document{ID: key, TenantID: creds.TenantID, Body: body, Meta: &policy.Meta{}}
	if existing != nil {
		*doc.Meta = *existing.Meta
		doc.Updated = now
	} else {
		doc.Stamp(creds.ID, creds.Group, now)
	}
	if err := s.repo.Put(ctx, doc); err != nil {
		return fmt.Errorf("put acl %s: %w", key, err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeACLUpdated,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: resource,
	})
	return nil
}

// EnsureACL seeds the default grant table for a freshly declared resource
// type. An existing entry is never overwritten: only a confirmed missing
// entry may be seeded, a failing read must not pass for absence.
func (s *Service) EnsureACL(ctx context.Context, tenantID, ownerID, resource string) error {
	key := dataACLPrefix + resource
	_, err := s.repo.Get(ctx, tenantID, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return fmt.Errorf("probe acl %s: %w", key, err)
	}
	body, err := json.Marshal(acl.DefaultPolicy())
	if err != nil {
		return fmt.Errorf("encode default acl: %w", err)
	}
	doc := &Document{ID: key, TenantID: tenantID, Body: body, Meta: &policy.Meta{}}
	doc.Stamp(ownerID, "", time.Now())
	if err := s.repo.Put(ctx, doc); err != nil {
		return fmt.Errorf("seed acl %s: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Password policy
// ---------------------------------------------------------------------------

// PasswordPolicy returns the tenant's credential policy, falling back to
// the shipped default when none is stored. Implements
// identity.PolicyProvider.
func (s *Service) PasswordPolicy(ctx context.Context, tenantID string) (identity.PasswordPolicy, error) {
	doc, err := s.repo.Get(ctx, tenantID, PasswordPolicyID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return identity.DefaultPasswordPolicy(), nil
		}
		return identity.PasswordPolicy{}, fmt.Errorf("read password policy: %w", err)
	}
	var p identity.PasswordPolicy
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		return identity.PasswordPolicy{}, fmt.Errorf("decode password policy: %w", err)
	}
	return p, nil
}

// SetPasswordPolicy stores the tenant's credential policy. ADMIN-gated
// through Put's namespace authorization.
func (s *Service) SetPasswordPolicy(ctx context.Context, creds *identity.Credentials, p identity.PasswordPolicy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadDocument, err)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode password policy: %w", err)
	}
	_, err = s.Put(ctx, creds, PasswordPolicyID, body)
	return err
}
