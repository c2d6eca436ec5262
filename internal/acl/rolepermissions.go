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

package acl

import (
	"encoding/json"
	"fmt"
	"sort"
)

// RoleAll matches every caller regardless of their own roles, including
// anonymous callers holding only a tenant key.
const RoleAll = "all"

// PermissionSet is an immutable set of permissions.
type PermissionSet struct {
	perms map[Permission]struct{}
}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return PermissionSet{perms: m}
}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.perms[p]
	return ok
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int { return len(s.perms) }

// List returns the permissions in stable order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s.perms))
	for p := range s.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted string array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes and validates a stored permission array.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	m := make(map[Permission]struct{}, len(names))
	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return fmt.Errorf("permission set: %w", err)
		}
		m[p] = struct{}{}
	}
	s.perms = m
	return nil
}

// RolePermissions maps role names to granted permissions for one resource
// type. The zero value is an empty grant table. All mutation returns a
// copy; a RolePermissions handed to the policy engine never changes under
// it.
type RolePermissions struct {
	grants map[string]PermissionSet
}

// NewRolePermissions builds a grant table from a role -> permissions map.
func NewRolePermissions(grants map[string][]Permission) RolePermissions {
	m := make(map[string]PermissionSet, len(grants))
	for role, perms := range grants {
		m[role] = NewPermissionSet(perms...)
	}
	return RolePermissions{grants: m}
}

// WithGrant returns a copy with perms added to role's set.
func (rp RolePermissions) WithGrant(role string, perms ...Permission) RolePermissions {
	m := make(map[string]PermissionSet, len(rp.grants)+1)
	for r, s := range rp.grants {
		m[r] = s
	}
	merged := append(m[role].List(), perms...)
	m[role] = NewPermissionSet(merged...)
	return RolePermissions{grants: m}
}

// WithoutRole returns a copy with the role's grants removed.
func (rp RolePermissions) WithoutRole(role string) RolePermissions {
	m := make(map[string]PermissionSet, len(rp.grants))
	for r, s := range rp.grants {
		if r != role {
			m[r] = s
		}
	}
	return RolePermissions{grants: m}
}

// Permissions returns the permission set granted to role.
func (rp RolePermissions) Permissions(role string) (PermissionSet, bool) {
	s, ok := rp.grants[role]
	return s, ok
}

// Roles returns all granted role names in stable order.
func (rp RolePermissions) Roles() []string {
	out := make([]string, 0, len(rp.grants))
	for r := range rp.grants {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether no role holds any grant.
func (rp RolePermissions) IsEmpty() bool { return len(rp.grants) == 0 }

// MarshalJSON encodes the grant table as role -> permission array.
func (rp RolePermissions) MarshalJSON() ([]byte, error) {
	out := make(map[string]PermissionSet, len(rp.grants))
	for r, s := range rp.grants {
		out[r] = s
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a stored grant table.
func (rp *RolePermissions) UnmarshalJSON(data []byte) error {
	var raw map[string]PermissionSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rp.grants = raw
	return nil
}

// AccessControlList maps resource names (data types, settings ids or file
// buckets) to their grant tables, scoped to one tenant. Like
// RolePermissions it is immutable by construction.
type AccessControlList struct {
	entries map[string]RolePermissions
}

// NewAccessControlList builds an ACL from resource -> grants.
func NewAccessControlList(entries map[string]RolePermissions) AccessControlList {
	m := make(map[string]RolePermissions, len(entries))
	for name, rp := range entries {
		m[name] = rp
	}
	return AccessControlList{entries: m}
}

// Entry returns the grant table for a resource. A missing entry means deny
// for everyone below super-admin level.
func (a AccessControlList) Entry(resource string) (RolePermissions, bool) {
	rp, ok := a.entries[resource]
	return rp, ok
}

// WithEntry returns a copy with the resource's grant table replaced.
func (a AccessControlList) WithEntry(resource string, rp RolePermissions) AccessControlList {
	m := make(map[string]RolePermissions, len(a.entries)+1)
	for name, e := range a.entries {
		m[name] = e
	}
	m[resource] = rp
	return AccessControlList{entries: m}
}

// Names returns all resource names with an entry, in stable order.
func (a AccessControlList) Names() []string {
	out := make([]string, 0, len(a.entries))
	for name := range a.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
