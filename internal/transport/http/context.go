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

package http

import (
	"context"

	"github.com/backplane-io/backplane/internal/identity"
)

type contextKey string

const (
	tenantIDKey    contextKey = "tenant_id"
	credentialsKey contextKey = "credentials"
)

// GetTenantID retrieves the resolved tenant ID from context.
func GetTenantID(ctx context.Context) string {
	if val, ok := ctx.Value(tenantIDKey).(string); ok {
		return val
	}
	return ""
}

// GetCredentials retrieves the authenticated caller from context.
func GetCredentials(ctx context.Context) *identity.Credentials {
	if val, ok := ctx.Value(credentialsKey).(*identity.Credentials); ok {
		return val
	}
	return nil
}
