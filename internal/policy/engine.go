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

// Package policy implements the permission evaluation every data, file and
// settings operation passes through. The engine is a pure decision
// function over an ACL snapshot; all mutation happens in the calling
// resource service after an allow.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/identity"
)

// ACLSource supplies the grant table for a resource in a tenant. The
// second return value is false when no entry exists, which the engine
// treats as deny-all below super-admin level.
type ACLSource interface {
	ReadACL(ctx context.Context, tenantID, resource string) (acl.RolePermissions, bool, error)
}

// DeniedError is the typed authorization denial. It carries enough context
// for an audit entry but nothing about other tenants.
type DeniedError struct {
	CredentialsID string
	Roles         []string
	Resource      string
	Permission    acl.Permission
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("insufficient-credentials: %s may not %s on %s (roles: %s)",
		e.CredentialsID, e.Permission, e.Resource, strings.Join(e.Roles, ","))
}

// Unwrap ties the denial to the authorization error kind so handlers map
// it to a 403 and never to a 401.
func (e *DeniedError) Unwrap() error { return errors.ErrAuthorization }

// Engine evaluates permissions against one ACL source. The same engine
// type gates data types, the settings namespace and file buckets; only the
// source and the resource key differ between the three instances. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	source ACLSource
}

// NewEngine creates a policy engine reading grants from source.
func NewEngine(source ACLSource) *Engine {
	return &Engine{source: source}
}

// Authorize decides whether creds may perform perm on the given resource,
// optionally against a concrete target object. It returns nil on allow and
// a *DeniedError on deny.
//
// The caller must already hold an authenticated identity: a missing or
// expired credential is an authentication failure raised earlier, never a
// denial from here.
//
// perm is the base action (create, search, read, update, delete,
// forceMeta); the scope variants are grant-side vocabulary. A bare scoped
// grant (read without suffix) is unconditional, equivalent to its All
// variant — one policy everywhere, matching the seeded default ACL.
func (e *Engine) Authorize(ctx context.Context, creds *identity.Credentials, resource string, perm acl.Permission, target Ownable) error {
	// Super-admin escape hatch. Must precede the ACL lookup: an absent
	// entry denies everyone else but never an operator.
	if creds.IsAtLeastSuperAdmin() {
		return nil
	}

	grants, ok, err := e.source.ReadACL(ctx, creds.TenantID, resource)
	if err != nil {
		return fmt.Errorf("read acl for %s: %w", resource, err)
	}

	roles := append(creds.EffectiveRoles(), acl.RoleAll)
	if ok {
		for _, role := range roles {
			set, found := grants.Permissions(role)
			if !found {
				continue
			}
			if granted(set, perm, creds, target) {
				return nil
			}
		}
	}

	return &DeniedError{
		CredentialsID: creds.ID,
		Roles:         roles,
		Resource:      resource,
		Permission:    perm,
	}
}

// granted implements the single shared grant check: unscoped permissions
// need a literal match; scoped ones match through their All, Group or Mine
// variants or through the unconditional bare form.
func granted(set acl.PermissionSet, perm acl.Permission, creds *identity.Credentials, target Ownable) bool {
	if !perm.Scoped() {
		return set.Has(perm)
	}

	base := perm.Base()
	if set.Has(base.WithScope(acl.ScopeAll)) || set.Has(base) {
		return true
	}
	if target == nil {
		return false
	}
	if set.Has(base.WithScope(acl.ScopeGroup)) && target.Group() != "" && target.Group() == creds.Group {
		return true
	}
	if set.Has(base.WithScope(acl.ScopeMine)) && target.Owner() == creds.ID {
		return true
	}
	return false
}

// ACLSourceFunc adapts a function to the ACLSource interface.
type ACLSourceFunc func(ctx context.Context, tenantID, resource string) (acl.RolePermissions, bool, error)

// ReadACL implements ACLSource.
func (f ACLSourceFunc) ReadACL(ctx context.Context, tenantID, resource string) (acl.RolePermissions, bool, error) {
	return f(ctx, tenantID, resource)
}

// StaticSource is an in-memory ACLSource keyed by tenant. Used by tests
// and by callers evaluating against an ACL snapshot they already hold.
type StaticSource map[string]acl.AccessControlList

// ReadACL implements ACLSource.
func (s StaticSource) ReadACL(_ context.Context, tenantID, resource string) (acl.RolePermissions, bool, error) {
	list, ok := s[tenantID]
	if !ok {
		return acl.RolePermissions{}, false, nil
	}
	rp, ok := list.Entry(resource)
	return rp, ok, nil
}
