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

package policy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/identity"
)

func testEngine(entries map[string]acl.RolePermissions) *Engine {
	return NewEngine(StaticSource{
		"t-1": acl.NewAccessControlList(entries),
	})
}

func ownedBy(owner, group string) *Meta {
	m := &Meta{}
	m.Stamp(owner, group, time.Now())
	return m
}

// TestPurpose: Validates the super-admin bypass: SUPER_ADMIN and SUPERDOG
// pass every check before the ACL is even consulted, including on
// resources with no ACL entry at all.
// Scope: Unit Test
// Security: Operator escape hatch ordering
// Expected: Super-admin is allowed on a missing entry; an admin with no
// matching grant is denied on the same entry.
// Test Case ID: POL-01
func TestEngine_SuperAdminBypass(t *testing.T) {
	e := testEngine(nil)
	ctx := context.Background()

	for _, level := range []identity.Level{identity.LevelSuperAdmin, identity.LevelSuperdog} {
		creds := &identity.Credentials{ID: "op-1", TenantID: "t-1", Level: level}
		if err := e.Authorize(ctx, creds, "orders", acl.PermDelete, nil); err != nil {
			t.Errorf("level %s denied on missing entry: %v", level, err)
		}
	}

	// Plain admin does not bypass; a missing entry denies it.
	admin := &identity.Credentials{ID: "a-1", TenantID: "t-1", Level: identity.LevelAdmin}
	if err := e.Authorize(ctx, admin, "orders", acl.PermRead, nil); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("expected denial for admin on missing entry, got %v", err)
	}
}

func TestEngine_MissingEntryDeniesAll(t *testing.T) {
	e := testEngine(map[string]acl.RolePermissions{
		"orders": acl.DefaultPolicy(),
	})
	ctx := context.Background()
	user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser}

	if err := e.Authorize(ctx, user, "invoices", acl.PermRead, nil); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("expected denial on undeclared resource, got %v", err)
	}
	// Unknown tenant behaves the same way.
	stranger := &identity.Credentials{ID: "u-2", TenantID: "t-9", Level: identity.LevelUser}
	if err := e.Authorize(ctx, stranger, "orders", acl.PermRead, nil); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("expected denial for unknown tenant, got %v", err)
	}
}

// TestPurpose: Validates scope resolution on object-level checks: Mine
// matches the owner, Group matches a shared non-empty group, All and the
// bare base form match unconditionally.
// Scope: Unit Test
// Security: Object-level access confinement
// Expected: Grants resolve exactly per their scope; an empty group never
// matches another empty group.
// Test Case ID: POL-02
func TestEngine_ScopeResolution(t *testing.T) {
	e := testEngine(map[string]acl.RolePermissions{
		"mine-only":  acl.NewRolePermissions(map[string][]acl.Permission{"user": {acl.PermReadMine}}),
		"group-only": acl.NewRolePermissions(map[string][]acl.Permission{"user": {acl.PermReadGroup}}),
		"all":        acl.NewRolePermissions(map[string][]acl.Permission{"user": {acl.PermReadAll}}),
		"bare":       acl.NewRolePermissions(map[string][]acl.Permission{"user": {acl.PermRead}}),
	})
	ctx := context.Background()
	user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser, Group: "g-1"}

	cases := []struct {
		name     string
		resource string
		target   Ownable
		allowed  bool
	}{
		{"mine, own object", "mine-only", ownedBy("u-1", "g-1"), true},
		{"mine, foreign object", "mine-only", ownedBy("u-2", "g-1"), false},
		{"mine, no target", "mine-only", nil, false},
		{"group, shared group", "group-only", ownedBy("u-2", "g-1"), true},
		{"group, other group", "group-only", ownedBy("u-2", "g-2"), false},
		{"group, empty groups never match", "group-only", ownedBy("u-2", ""), false},
		{"all, foreign object", "all", ownedBy("u-2", "g-2"), true},
		{"all, no target", "all", nil, true},
		{"bare grant is unconditional", "bare", ownedBy("u-2", "g-2"), true},
		{"bare grant, no target", "bare", nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := e.Authorize(ctx, user, c.resource, acl.PermRead, c.target)
			if c.allowed && err != nil {
				t.Errorf("expected allow, got %v", err)
			}
			if !c.allowed && !errors.Is(err, errors.ErrAuthorization) {
				t.Errorf("expected denial, got %v", err)
			}
		})
	}

	emptyGroupUser := &identity.Credentials{ID: "u-3", TenantID: "t-1", Level: identity.LevelUser}
	if err := e.Authorize(ctx, emptyGroupUser, "group-only", acl.PermRead, ownedBy("u-2", "")); err == nil {
		t.Error("two empty groups matched each other")
	}
}

func TestEngine_RoleMatching(t *testing.T) {
	e := testEngine(map[string]acl.RolePermissions{
		"orders": acl.NewRolePermissions(map[string][]acl.Permission{
			acl.RoleAll: {acl.PermReadAll},
			"editor":    {acl.PermCreate},
			"admin":     {acl.PermDeleteAll},
		}),
	})
	ctx := context.Background()

	// The all role reaches even a guest holding only the tenant key.
	guest := identity.GuestCredentials("t-1")
	if err := e.Authorize(ctx, guest, "orders", acl.PermRead, nil); err != nil {
		t.Errorf("guest denied through the all role: %v", err)
	}
	if err := e.Authorize(ctx, guest, "orders", acl.PermCreate, nil); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("guest create should be denied, got %v", err)
	}

	// Stored roles grant beyond the level's default role.
	editor := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser, Roles: []string{"editor"}}
	if err := e.Authorize(ctx, editor, "orders", acl.PermCreate, nil); err != nil {
		t.Errorf("editor denied create: %v", err)
	}

	// The admin default role matches the admin grant without being stored.
	admin := &identity.Credentials{ID: "a-1", TenantID: "t-1", Level: identity.LevelAdmin}
	if err := e.Authorize(ctx, admin, "orders", acl.PermDelete, ownedBy("u-1", "")); err != nil {
		t.Errorf("admin denied delete: %v", err)
	}
}

func TestEngine_UnscopedPermissionsNeedLiteralGrant(t *testing.T) {
	e := testEngine(map[string]acl.RolePermissions{
		"orders": acl.NewRolePermissions(map[string][]acl.Permission{
			"user": {acl.PermReadAll, acl.PermUpdateAll, acl.PermDeleteAll},
		}),
	})
	ctx := context.Background()
	user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser}

	// Holding every scoped grant does not imply create, search or forceMeta.
	for _, p := range []acl.Permission{acl.PermCreate, acl.PermSearch, acl.PermForceMeta} {
		if err := e.Authorize(ctx, user, "orders", p, nil); !errors.Is(err, errors.ErrAuthorization) {
			t.Errorf("expected denial for %s, got %v", p, err)
		}
	}
}

func TestDeniedError(t *testing.T) {
	e := testEngine(nil)
	user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser, Roles: []string{"editor"}}

	err := e.Authorize(context.Background(), user, "orders", acl.PermUpdate, nil)
	if err == nil {
		t.Fatal("expected denial")
	}

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected *DeniedError, got %T", err)
	}
	if denied.CredentialsID != "u-1" || denied.Resource != "orders" || denied.Permission != acl.PermUpdate {
		t.Errorf("denial context wrong: %+v", denied)
	}
	if !errors.Is(err, errors.ErrAuthorization) {
		t.Error("denial does not unwrap to the authorization kind")
	}
	if errors.Is(err, errors.ErrAuthentication) {
		t.Error("denial must never look like an authentication failure")
	}
}

func TestEngine_ConcurrentAuthorize(t *testing.T) {
	e := testEngine(map[string]acl.RolePermissions{
		"orders": acl.DefaultPolicy(),
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser}
			for j := 0; j < 100; j++ {
				if err := e.Authorize(ctx, user, "orders", acl.PermSearch, nil); err != nil {
					t.Errorf("worker %d: %v", n, err)
					return
				}
				if err := e.Authorize(ctx, user, "orders", acl.PermForceMeta, nil); !errors.Is(err, errors.ErrAuthorization) {
					t.Errorf("worker %d: expected denial, got %v", n, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestACLSourceFunc(t *testing.T) {
	called := false
	src := ACLSourceFunc(func(_ context.Context, tenantID, resource string) (acl.RolePermissions, bool, error) {
		called = true
		if tenantID != "t-1" || resource != "orders" {
			t.Errorf("unexpected lookup %s/%s", tenantID, resource)
		}
		return acl.NewRolePermissions(map[string][]acl.Permission{"user": {acl.PermReadAll}}), true, nil
	})

	e := NewEngine(src)
	user := &identity.Credentials{ID: "u-1", TenantID: "t-1", Level: identity.LevelUser}
	if err := e.Authorize(context.Background(), user, "orders", acl.PermRead, nil); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !called {
		t.Error("source func not consulted")
	}
}
