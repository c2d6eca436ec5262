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

// Package acl defines the permission vocabulary and the per-tenant access
// control lists consulted by the policy engine. The list types are value
// types: mutation returns a copy, so a stored ACL can never be altered
// structurally behind the engine's back.
package acl

import (
	"fmt"
	"strings"
)

// Permission identifies an action on a resource type. create, search and
// forceMeta apply to the type as a whole; read, update and delete come in
// scope variants qualifying whose objects they cover.
type Permission string

const (
	PermCreate Permission = "create"
	PermSearch Permission = "search"

	PermRead      Permission = "read"
	PermReadMine  Permission = "readMine"
	PermReadGroup Permission = "readGroup"
	PermReadAll   Permission = "readAll"

	PermUpdate      Permission = "update"
	PermUpdateMine  Permission = "updateMine"
	PermUpdateGroup Permission = "updateGroup"
	PermUpdateAll   Permission = "updateAll"

	PermDelete      Permission = "delete"
	PermDeleteMine  Permission = "deleteMine"
	PermDeleteGroup Permission = "deleteGroup"
	PermDeleteAll   Permission = "deleteAll"

	// PermForceMeta is the operator override: an identity holding it may
	// write arbitrary owner/group/timestamps on objects it does not own.
	// Used for administrative backfills.
	PermForceMeta Permission = "forceMeta"
)

// Scope qualifies a permission by whose objects it applies to.
type Scope string

const (
	// ScopeNone marks unscoped permissions (create, search, forceMeta).
	ScopeNone Scope = ""

	// ScopeMine covers objects owned by the caller.
	ScopeMine Scope = "Mine"

	// ScopeGroup covers objects whose group equals the caller's group.
	ScopeGroup Scope = "Group"

	// ScopeAll covers every object unconditionally.
	ScopeAll Scope = "All"
)

var permissions = map[Permission]struct{}{
	PermCreate: {}, PermSearch: {},
	PermRead: {}, PermReadMine: {}, PermReadGroup: {}, PermReadAll: {},
	PermUpdate: {}, PermUpdateMine: {}, PermUpdateGroup: {}, PermUpdateAll: {},
	PermDelete: {}, PermDeleteMine: {}, PermDeleteGroup: {}, PermDeleteAll: {},
	PermForceMeta: {},
}

// ParsePermission validates a stored permission name.
func ParsePermission(name string) (Permission, error) {
	p := Permission(name)
	if _, ok := permissions[p]; !ok {
		return "", fmt.Errorf("unknown permission %q", name)
	}
	return p, nil
}

// Base strips the scope suffix: readGroup -> read, deleteAll -> delete.
// Unscoped permissions are their own base.
func (p Permission) Base() Permission {
	s := string(p)
	for _, suffix := range []string{"Mine", "Group", "All"} {
		if strings.HasSuffix(s, suffix) {
			return Permission(strings.TrimSuffix(s, suffix))
		}
	}
	return p
}

// Scope returns the scope variant of the permission.
func (p Permission) Scope() Scope {
	s := string(p)
	switch {
	case strings.HasSuffix(s, "Mine"):
		return ScopeMine
	case strings.HasSuffix(s, "Group"):
		return ScopeGroup
	case strings.HasSuffix(s, "All"):
		return ScopeAll
	default:
		return ScopeNone
	}
}

// Scoped reports whether the permission is a read/update/delete variant,
// as opposed to create/search/forceMeta which apply to the type itself.
func (p Permission) Scoped() bool {
	switch p.Base() {
	case PermRead, PermUpdate, PermDelete:
		return true
	default:
		return false
	}
}

// WithScope attaches a scope variant to a base permission.
func (p Permission) WithScope(scope Scope) Permission {
	return Permission(string(p.Base()) + string(scope))
}
