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

// DefaultPolicy is the grant table seeded when a resource type is first
// declared. Everyone may read, users manage what the object-level check
// lets them reach, admins manage everything. A bare update/delete grant is
// unconditional (equivalent to the All variant); the object-level ownership
// check is what confines regular users in practice.
func DefaultPolicy() RolePermissions {
	return NewRolePermissions(map[string][]Permission{
		RoleAll: {PermReadAll},
		"user":  {PermCreate, PermUpdate, PermSearch, PermDelete},
		"admin": {PermCreate, PermUpdateAll, PermSearch, PermDeleteAll},
	})
}
