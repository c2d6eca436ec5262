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

package authn

import (
	"context"

	"github.com/backplane-io/backplane/internal/identity"
)

// IdentityResolver is the slice of the identity service the authenticator
// needs: password verification and bearer token resolution.
type IdentityResolver interface {
	VerifyPassword(ctx context.Context, tenantID, username, password string) (*identity.Credentials, error)
	LookupByToken(ctx context.Context, tenantID, token string) (*identity.Credentials, error)
}

// Authenticator resolves a parsed Authorization header to credentials.
type Authenticator struct {
	identities IdentityResolver
}

// NewAuthenticator creates an authenticator backed by the identity service.
func NewAuthenticator(identities IdentityResolver) *Authenticator {
	return &Authenticator{identities: identities}
}

// Authenticate establishes the caller's identity within a tenant from the
// raw Authorization header value. Every failure path wraps
// errors.ErrAuthentication; a caller failing here must never reach the
// policy engine.
func (a *Authenticator) Authenticate(ctx context.Context, tenantID, headerValue string) (*identity.Credentials, error) {
	h, err := ParseHeader(headerValue)
	if err != nil {
		return nil, err
	}

	if h.IsBearer() {
		return a.identities.LookupByToken(ctx, tenantID, h.Token)
	}

	username, err := h.Username()
	if err != nil {
		return nil, err
	}
	password, err := h.Password()
	if err != nil {
		return nil, err
	}
	return a.identities.VerifyPassword(ctx, tenantID, username, password)
}
