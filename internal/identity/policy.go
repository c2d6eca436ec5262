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
	"regexp"
	"time"

	validation "github.com/jellydator/validation"
)

// Password policy defaults.
const (
	DefaultUsernameRegex     = "^[a-zA-Z0-9]{4,}$"
	DefaultPasswordRegex     = "^.{6,}$"
	DefaultSessionLifetime   = 86400 // seconds
	DefaultMaxChallenges     = 5
	DefaultChallengeResetMin = 15
)

// PasswordPolicy is the per-tenant credential policy. It is stored as a
// settings document and loaded by the identity service on demand.
type PasswordPolicy struct {
	UsernameRegex              string `json:"usernameRegex"`
	PasswordRegex              string `json:"passwordRegex"`
	SessionMaximumLifetimeSecs int    `json:"sessionMaximumLifetime"`
	MaximumInvalidChallenges   int    `json:"maximumInvalidChallenges"`
	ChallengeResetAfterMinutes int    `json:"challengeResetAfterMinutes"`
}

// DefaultPasswordPolicy returns the policy applied when a tenant has not
// stored its own.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		UsernameRegex:              DefaultUsernameRegex,
		PasswordRegex:              DefaultPasswordRegex,
		SessionMaximumLifetimeSecs: DefaultSessionLifetime,
		MaximumInvalidChallenges:   DefaultMaxChallenges,
		ChallengeResetAfterMinutes: DefaultChallengeResetMin,
	}
}

// Validate checks that a stored policy document is usable.
func (p PasswordPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.UsernameRegex, validation.Required, validation.By(compilable)),
		validation.Field(&p.PasswordRegex, validation.Required, validation.By(compilable)),
		validation.Field(&p.SessionMaximumLifetimeSecs, validation.Required, validation.Min(1)),
		validation.Field(&p.MaximumInvalidChallenges, validation.Min(0)),
		validation.Field(&p.ChallengeResetAfterMinutes, validation.Min(0)),
	)
}

func compilable(value any) error {
	s, _ := value.(string)
	if _, err := regexp.Compile(s); err != nil {
		return validation.NewError("validation_regexp", "must be a valid regular expression")
	}
	return nil
}

// SessionLifetime returns the configured maximum session lifetime.
func (p PasswordPolicy) SessionLifetime() time.Duration {
	secs := p.SessionMaximumLifetimeSecs
	if secs <= 0 {
		secs = DefaultSessionLifetime
	}
	return time.Duration(secs) * time.Second
}

// ChallengeWindow returns the cooldown after which the invalid-challenge
// counter resets.
func (p PasswordPolicy) ChallengeWindow() time.Duration {
	mins := p.ChallengeResetAfterMinutes
	if mins <= 0 {
		mins = DefaultChallengeResetMin
	}
	return time.Duration(mins) * time.Minute
}

func (p PasswordPolicy) passwordPattern() *regexp.Regexp {
	return compileOr(p.PasswordRegex, DefaultPasswordRegex)
}

func (p PasswordPolicy) usernamePattern() *regexp.Regexp {
	return compileOr(p.UsernameRegex, DefaultUsernameRegex)
}

// compileOr falls back to the shipped default when a stored pattern fails
// to compile; a tenant must not be able to lock itself out with a bad
// policy document.
func compileOr(pattern, fallback string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil || pattern == "" {
		return regexp.MustCompile(fallback)
	}
	return re
}
