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

import (
	"time"

	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/id"
)

// Domain errors
var (
	ErrCredentialsNotFound = errors.Wrap(errors.ErrNotFound, "credentials not found")
	ErrUsernameTaken       = errors.Wrap(errors.ErrConflict, "username already taken")

	ErrPasswordPolicy   = errors.Wrap(errors.ErrValidation, "password does not match policy")
	ErrUsernamePolicy   = errors.Wrap(errors.ErrValidation, "username does not match policy")
	ErrInvalidResetCode = errors.Wrap(errors.ErrValidation, "invalid password reset code")
	ErrNotResetPending  = errors.Wrap(errors.ErrValidation, "no password reset is pending")
	ErrNotActive        = errors.Wrap(errors.ErrValidation, "no active password to reset")

	ErrBadCredentials    = errors.Wrap(errors.ErrAuthentication, "invalid username or password")
	ErrUnknownToken      = errors.Wrap(errors.ErrAuthentication, "unknown access token")
	ErrTokenExpired      = errors.Wrap(errors.ErrAuthentication, "access token expired")
	ErrTooManyChallenges = errors.Wrap(errors.ErrAuthentication, "too many failed login attempts")
)

// Credentials is a tenant-scoped identity: its rank, roles, sharing group
// and secret state. An identity is either active (password hash set) or
// reset-pending (one-time reset code set); the two secret fields are never
// both set and never both empty while the identity is usable.
type Credentials struct {
	ID       string
	TenantID string
	Username string
	Email    string
	Level    Level
	Roles    []string
	Group    string

	// Secret state. Exactly one of the two is set.
	HashedPassword    string
	PasswordResetCode string

	// Session state. A zero AccessTokenExpiresAt means no token.
	AccessToken          string
	AccessTokenExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// passwordChecked records that this instance verified a password during
	// the current request. It is never persisted; the authentication layer
	// uses it to tell password logins from bearer-token calls.
	passwordChecked bool
}

// GuestCredentials is the synthetic KEY-level identity for callers
// presenting only the tenant API key. It holds no secrets and matches ACL
// entries through the "all" role and the "key" default role.
func GuestCredentials(tenantID string) *Credentials {
	return &Credentials{
		ID:       "guest:" + tenantID,
		TenantID: tenantID,
		Username: "guest",
		Level:    LevelKey,
	}
}

// EffectiveRoles returns the stored role set plus the default role derived
// from the level. The default role is present even when the stored set is
// empty, so ACL entries keyed by "user"/"admin"/"key" always match.
func (c *Credentials) EffectiveRoles() []string {
	def := c.Level.DefaultRole()
	roles := make([]string, 0, len(c.Roles)+1)
	roles = append(roles, def)
	for _, r := range c.Roles {
		if r != def {
			roles = append(roles, r)
		}
	}
	return roles
}

// Level predicates. All are pure ordinal comparisons.

func (c *Credentials) IsAtLeastUser() bool       { return c.Level.AtLeast(LevelUser) }
func (c *Credentials) IsAtLeastAdmin() bool      { return c.Level.AtLeast(LevelAdmin) }
func (c *Credentials) IsAtLeastSuperAdmin() bool { return c.Level.AtLeast(LevelSuperAdmin) }
func (c *Credentials) IsAtMostKey() bool         { return c.Level.AtMost(LevelKey) }
func (c *Credentials) IsAtMostUser() bool        { return c.Level.AtMost(LevelUser) }
func (c *Credentials) IsAtMostAdmin() bool       { return c.Level.AtMost(LevelAdmin) }

// SetPassword validates the password against the tenant policy, stores its
// digest, clears any pending reset code and mints a fresh access token.
// The identity is active afterwards.
func (c *Credentials) SetPassword(hasher *PasswordHasher, policy PasswordPolicy, password string) error {
	digest, err := hasher.CheckAndHash(password, policy.passwordPattern())
	if err != nil {
		return err
	}
	c.HashedPassword = digest
	c.PasswordResetCode = ""
	c.NewAccessToken(policy.SessionLifetime())
	return nil
}

// CompletePasswordReset finishes a pending reset. It fails when no reset is
// pending or when the presented code does not match the stored one; on
// success it behaves exactly like SetPassword, consuming the code.
func (c *Credentials) CompletePasswordReset(hasher *PasswordHasher, policy PasswordPolicy, password, code string) error {
	if c.PasswordResetCode == "" {
		return ErrNotResetPending
	}
	if code != c.PasswordResetCode {
		return ErrInvalidResetCode
	}
	return c.SetPassword(hasher, policy, password)
}

// ResetPassword clears the stored hash, generates a fresh one-time reset
// code and deletes the current access token (forced logout). Only callable
// while the identity is active.
func (c *Credentials) ResetPassword() error {
	if c.HashedPassword == "" {
		return ErrNotActive
	}
	c.HashedPassword = ""
	c.PasswordResetCode = id.NewOpaqueToken()
	c.DeleteAccessToken()
	return nil
}

// CheckPassword verifies a candidate password. It never fails: a missing
// hash (reset pending) simply yields false. A successful check marks this
// instance as password-authenticated for the current request.
func (c *Credentials) CheckPassword(hasher *PasswordHasher, candidate string) bool {
	if c.HashedPassword == "" {
		return false
	}
	if !hasher.Verify(candidate, c.HashedPassword) {
		return false
	}
	c.passwordChecked = true
	return true
}

// PasswordChecked reports whether this instance verified a password during
// the current request.
func (c *Credentials) PasswordChecked() bool { return c.passwordChecked }

// NewAccessToken mints a new opaque token expiring after lifetime. Any
// existing token is overwritten: an identity holds at most one session.
func (c *Credentials) NewAccessToken(lifetime time.Duration) string {
	c.AccessToken = id.NewOpaqueToken()
	c.AccessTokenExpiresAt = time.Now().Add(lifetime)
	return c.AccessToken
}

// DeleteAccessToken clears the token and its expiry (logout).
func (c *Credentials) DeleteAccessToken() {
	c.AccessToken = ""
	c.AccessTokenExpiresAt = time.Time{}
}

// HasValidAccessToken reports whether a token is present and unexpired.
func (c *Credentials) HasValidAccessToken(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.AccessTokenExpiresAt)
}

// AccessTokenExpiresIn returns the remaining token lifetime, clamped to
// zero for an expired or absent token. Never negative.
func (c *Credentials) AccessTokenExpiresIn(now time.Time) time.Duration {
	if c.AccessToken == "" || c.AccessTokenExpiresAt.IsZero() {
		return 0
	}
	remaining := c.AccessTokenExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
