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

// Package id generates identifiers for all persisted entities.
package id

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID. Time ordering keeps primary key
// indexes append-mostly under insert load.
func NewUUIDv7() string {
	v, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is broken; fall back to v4.
		return uuid.NewString()
	}
	return v.String()
}

// NewOpaqueToken returns an unguessable opaque value for access tokens and
// password reset codes. The value carries no structure a client could parse.
func NewOpaqueToken() string {
	return uuid.NewString() + uuid.NewString()
}
