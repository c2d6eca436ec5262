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

import "time"

// Ownable is the capability every storable shape exposes to the policy
// engine: who owns the object, which sharing group it belongs to and when
// it was touched. The engine depends only on this interface, never on
// concrete shapes.
type Ownable interface {
	Owner() string
	SetOwner(string)
	Group() string
	SetGroup(string)
	CreatedAt() time.Time
	SetCreatedAt(time.Time)
	UpdatedAt() time.Time
	SetUpdatedAt(time.Time)
}

// Meta is the canonical Ownable implementation. Storable shapes embed a
// *Meta to satisfy the interface.
type Meta struct {
	OwnerID string    `json:"owner"`
	GroupID string    `json:"group"`
	Created time.Time `json:"createdAt"`
	Updated time.Time `json:"updatedAt"`
}

func (m *Meta) Owner() string            { return m.OwnerID }
func (m *Meta) SetOwner(owner string)    { m.OwnerID = owner }
func (m *Meta) Group() string            { return m.GroupID }
func (m *Meta) SetGroup(group string)    { m.GroupID = group }
func (m *Meta) CreatedAt() time.Time     { return m.Created }
func (m *Meta) SetCreatedAt(t time.Time) { m.Created = t }
func (m *Meta) UpdatedAt() time.Time     { return m.Updated }
func (m *Meta) SetUpdatedAt(t time.Time) { m.Updated = t }

// Stamp initializes the metadata for a freshly created object owned by the
// given identity.
func (m *Meta) Stamp(owner, group string, now time.Time) {
	m.OwnerID = owner
	m.GroupID = group
	m.Created = now
	m.Updated = now
}
