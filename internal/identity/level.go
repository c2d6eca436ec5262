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

package identity

import "fmt"

// Level is the coarse rank of an identity. The ordering is load-bearing:
// every IsAtLeast/IsAtMost predicate compares ordinals, and SuperAdmin and
// above bypass per-resource ACL checks entirely.
type Level int

const (
	// LevelKey is an anonymous caller holding only a tenant API key.
	LevelKey Level = iota

	// LevelUser is a regular registered identity.
	LevelUser

	// LevelAdmin may manage identities and ACLs within its tenant.
	LevelAdmin

	// LevelSuperAdmin bypasses all per-resource ACL checks in its tenant.
	LevelSuperAdmin

	// LevelSuperdog is the cross-tenant operator level.
	LevelSuperdog
)

// Default role names derived from levels. An identity always carries its
// level's default role even when its stored role set is empty.
const (
	RoleKey   = "key"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var levelNames = map[Level]string{
	LevelKey:        "key",
	LevelUser:       "user",
	LevelAdmin:      "admin",
	LevelSuperAdmin: "super_admin",
	LevelSuperdog:   "superdog",
}

// ParseLevel converts a stored level name back to a Level.
func ParseLevel(name string) (Level, error) {
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return LevelKey, fmt.Errorf("unknown level %q", name)
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// AtLeast reports whether l ranks at or above other.
func (l Level) AtLeast(other Level) bool { return l >= other }

// AtMost reports whether l ranks at or below other.
func (l Level) AtMost(other Level) bool { return l <= other }

// DefaultRole returns the role implicitly held by every identity of this
// level: key for Key, user for User, admin for Admin and above.
func (l Level) DefaultRole() string {
	switch {
	case l >= LevelAdmin:
		return RoleAdmin
	case l == LevelUser:
		return RoleUser
	default:
		return RoleKey
	}
}
