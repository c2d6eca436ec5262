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

package tenant

import "context"

// Repository defines the interface for tenant persistence.
type Repository interface {
	// Create stores a new tenant.
	Create(ctx context.Context, t *Tenant) error

	// GetByID retrieves a tenant by ID.
	GetByID(ctx context.Context, id string) (*Tenant, error)

	// GetByName retrieves a tenant by name.
	GetByName(ctx context.Context, name string) (*Tenant, error)

	// GetByAPIKey retrieves a tenant by its API key.
	GetByAPIKey(ctx context.Context, apiKey string) (*Tenant, error)

	// Update updates tenant information.
	Update(ctx context.Context, t *Tenant) error

	// List retrieves all tenants.
	List(ctx context.Context) ([]*Tenant, error)
}
