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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/id"
)

// Repository defines the interface for credentials persistence.
type Repository interface {
	// Create stores a new credentials record.
	Create(ctx context.Context, creds *Credentials) error

	// GetByID retrieves credentials by ID.
	GetByID(ctx context.Context, credsID string) (*Credentials, error)

	// GetByUsername retrieves credentials by username within a tenant.
	GetByUsername(ctx context.Context, tenantID, username string) (*Credentials, error)

	// GetByAccessToken retrieves credentials by access token within a tenant.
	GetByAccessToken(ctx context.Context, tenantID, token string) (*Credentials, error)

	// Update persists changed secret/session/profile state.
	Update(ctx context.Context, creds *Credentials) error

	// Delete removes a credentials record.
	Delete(ctx context.Context, credsID string) error

	// ListByTenant retrieves all credentials of a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*Credentials, error)
}

// PolicyProvider supplies the per-tenant password policy. Implemented by
// the settings service; the default policy is used when none is stored.
type PolicyProvider interface {
	PasswordPolicy(ctx context.Context, tenantID string) (PasswordPolicy, error)
}

// ChallengeCounter tracks failed login attempts per identity. The storage
// is the host's concern; an in-memory implementation ships for single-node
// deployments and tests.
type ChallengeCounter interface {
	// Increment records a failed challenge and returns the new count.
	Increment(ctx context.Context, credsID string) (int, error)

	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, credsID string) error

	// Count returns the current number of failed challenges.
	Count(ctx context.Context, credsID string) (int, error)
}

// MemoryChallengeCounter is a process-local ChallengeCounter. Counts decay
// after the configured window, implementing the login cooldown.
type MemoryChallengeCounter struct {
	mu     sync.Mutex
	window time.Duration
	counts map[string]challengeEntry
}

type challengeEntry struct {
	count int
	first time.Time
}

// NewMemoryChallengeCounter creates a counter whose entries reset after
// window has elapsed since the first failure.
func NewMemoryChallengeCounter(window time.Duration) *MemoryChallengeCounter {
	return &MemoryChallengeCounter{
		window: window,
		counts: make(map[string]challengeEntry),
	}
}

func (m *MemoryChallengeCounter) Increment(_ context.Context, credsID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.counts[credsID]
	if e.count == 0 || time.Since(e.first) > m.window {
		e = challengeEntry{first: time.Now()}
	}
	e.count++
	m.counts[credsID] = e
	return e.count, nil
}

func (m *MemoryChallengeCounter) Reset(_ context.Context, credsID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, credsID)
	return nil
}

func (m *MemoryChallengeCounter) Count(_ context.Context, credsID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.counts[credsID]
	if !ok || time.Since(e.first) > m.window {
		return 0, nil
	}
	return e.count, nil
}

// Service provides credentials lifecycle business logic.
type Service struct {
	repo        Repository
	hasher      *PasswordHasher
	policies    PolicyProvider
	challenges  ChallengeCounter
	auditLogger audit.Logger
}

// NewService creates a new identity service.
func NewService(
	repo Repository,
	hasher *PasswordHasher,
	policies PolicyProvider,
	challenges ChallengeCounter,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		policies:    policies,
		challenges:  challenges,
		auditLogger: auditLogger,
	}
}

// CreateParams describes a new identity. When Password is empty the
// identity is created reset-pending: a one-time reset code is generated and
// must accompany the first password.
type CreateParams struct {
	TenantID string
	Username string
	Email    string
	Level    Level
	Roles    []string
	Group    string
	Password string
}

// Create provisions a new identity in its tenant. The identity comes out
// active (password set, session minted) or reset-pending.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Credentials, error) {
	policy, err := s.policies.PasswordPolicy(ctx, p.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load password policy: %w", err)
	}
	if !policy.usernamePattern().MatchString(p.Username) {
		return nil, ErrUsernamePolicy
	}
	if existing, err := s.repo.GetByUsername(ctx, p.TenantID, p.Username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	creds := &Credentials{
		ID:       id.NewUUIDv7(),
		TenantID: p.TenantID,
		Username: p.Username,
		Email:    p.Email,
		Level:    p.Level,
		Roles:    p.Roles,
		Group:    p.Group,
	}
	if creds.Group == "" {
		creds.Group = creds.ID
	}

	if p.Password != "" {
		if err := creds.SetPassword(s.hasher, policy, p.Password); err != nil {
			return nil, err
		}
	} else {
		creds.PasswordResetCode = id.NewOpaqueToken()
	}

	if err := s.repo.Create(ctx, creds); err != nil {
		return nil, fmt.Errorf("create credentials: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCredentialsCreated,
		TenantID: p.TenantID,
		ActorID:  creds.ID,
		Resource: p.Username,
	})
	return creds, nil
}

// Lookup retrieves credentials by ID.
func (s *Service) Lookup(ctx context.Context, credsID string) (*Credentials, error) {
	creds, err := s.repo.GetByID(ctx, credsID)
	if err != nil {
		return nil, ErrCredentialsNotFound
	}
	return creds, nil
}

// LookupByUsername retrieves credentials by username within a tenant.
func (s *Service) LookupByUsername(ctx context.Context, tenantID, username string) (*Credentials, error) {
	creds, err := s.repo.GetByUsername(ctx, tenantID, username)
	if err != nil {
		return nil, ErrCredentialsNotFound
	}
	return creds, nil
}

// LookupByToken resolves a bearer token to its credentials. An unknown
// token and an expired one are both authentication failures, reported
// distinctly for diagnostics.
func (s *Service) LookupByToken(ctx context.Context, tenantID, token string) (*Credentials, error) {
	creds, err := s.repo.GetByAccessToken(ctx, tenantID, token)
	if err != nil {
		return nil, ErrUnknownToken
	}
	if !creds.HasValidAccessToken(time.Now()) {
		return nil, ErrTokenExpired
	}
	return creds, nil
}

// Login verifies a password challenge and mints a fresh access token,
// replacing any existing session.
func (s *Service) Login(ctx context.Context, tenantID, username, password string) (*Credentials, error) {
	creds, err := s.VerifyPassword(ctx, tenantID, username, password)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.PasswordPolicy(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load password policy: %w", err)
	}
	creds.NewAccessToken(policy.SessionLifetime())
	if err := s.repo.Update(ctx, creds); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTokenIssued,
		TenantID: tenantID,
		ActorID:  creds.ID,
		Resource: username,
	})
	return creds, nil
}

// VerifyPassword checks a password challenge without touching session
// state. Too many failed challenges within the cooldown window block
// further attempts until the window elapses.
func (s *Service) VerifyPassword(ctx context.Context, tenantID, username, password string) (*Credentials, error) {
	creds, err := s.repo.GetByUsername(ctx, tenantID, username)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			Resource: username,
			Metadata: map[string]any{audit.AttrReason: "unknown_username"},
		})
		return nil, ErrBadCredentials
	}

	policy, err := s.policies.PasswordPolicy(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load password policy: %w", err)
	}

	if policy.MaximumInvalidChallenges > 0 {
		count, err := s.challenges.Count(ctx, creds.ID)
		if err != nil {
			return nil, fmt.Errorf("read challenge counter: %w", err)
		}
		if count >= policy.MaximumInvalidChallenges {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeLoginFailed,
				TenantID: tenantID,
				ActorID:  creds.ID,
				Resource: username,
				Metadata: map[string]any{audit.AttrReason: "challenge_cooldown"},
			})
			return nil, ErrTooManyChallenges
		}
	}

	if !creds.CheckPassword(s.hasher, password) {
		attempts, _ := s.challenges.Increment(ctx, creds.ID)
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			ActorID:  creds.ID,
			Resource: username,
			Metadata: map[string]any{
				audit.AttrReason:   "invalid_password",
				audit.AttrAttempts: attempts,
			},
		})
		return nil, ErrBadCredentials
	}

	_ = s.challenges.Reset(ctx, creds.ID)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: tenantID,
		ActorID:  creds.ID,
		Resource: username,
	})
	return creds, nil
}

// Logout deletes the current access token.
func (s *Service) Logout(ctx context.Context, credsID string) error {
	creds, err := s.repo.GetByID(ctx, credsID)
	if err != nil {
		return ErrCredentialsNotFound
	}
	creds.DeleteAccessToken()
	if err := s.repo.Update(ctx, creds); err != nil {
		return fmt.Errorf("persist logout: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLogout,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
	})
	return nil
}

// ResetPassword moves an active identity into reset-pending state and
// returns the one-time reset code for out-of-band delivery.
func (s *Service) ResetPassword(ctx context.Context, credsID string) (string, error) {
	creds, err := s.repo.GetByID(ctx, credsID)
	if err != nil {
		return "", ErrCredentialsNotFound
	}
	if err := creds.ResetPassword(); err != nil {
		return "", err
	}
	if err := s.repo.Update(ctx, creds); err != nil {
		return "", fmt.Errorf("persist reset: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordReset,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
	})
	return creds.PasswordResetCode, nil
}

// CompletePasswordReset consumes a reset code and activates the identity
// with the new password.
func (s *Service) CompletePasswordReset(ctx context.Context, credsID, password, code string) (*Credentials, error) {
	creds, err := s.repo.GetByID(ctx, credsID)
	if err != nil {
		return nil, ErrCredentialsNotFound
	}
	policy, err := s.policies.PasswordPolicy(ctx, creds.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load password policy: %w", err)
	}
	if err := creds.CompletePasswordReset(s.hasher, policy, password, code); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, creds); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Metadata: map[string]any{audit.AttrReason: "reset_completed"},
	})
	return creds, nil
}

// ChangePassword verifies the old password and stores the new one. The old
// session is replaced by the token minted with the new password.
func (s *Service) ChangePassword(ctx context.Context, credsID, oldPassword, newPassword string) error {
	creds, err := s.repo.GetByID(ctx, credsID)
	if err != nil {
		return ErrCredentialsNotFound
	}
	if !creds.CheckPassword(s.hasher, oldPassword) {
		return ErrBadCredentials
	}
	policy, err := s.policies.PasswordPolicy(ctx, creds.TenantID)
	if err != nil {
		return fmt.Errorf("load password policy: %w", err)
	}
	if err := creds.SetPassword(s.hasher, policy, newPassword); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, creds); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
	})
	return nil
}

// Delete removes an identity from its tenant.
func (s *Service) Delete(ctx context.Context, credsID string) error {
	if err := s.repo.Delete(ctx, credsID); err != nil {
		return ErrCredentialsNotFound
	}
	return nil
}

// List retrieves all identities of a tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]*Credentials, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}
