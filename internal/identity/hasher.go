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
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"regexp"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Digest parameters for version v1. The salt and iteration count are fixed:
// the digest must be deterministic so stored hashes stay verifiable across
// releases. Changing either invalidates every stored hash, so any change
// must introduce a new version prefix and keep v1 verification alive.
const (
	hashVersionV1    = "v1"
	hashIterationsV1 = 10000
	hashKeyLenV1     = 32
)

var hashSaltV1 = []byte("backplane/credentials/v1")

// PasswordHasher produces deterministic, salted, one-way password digests.
// It is stateless and safe for concurrent use.
type PasswordHasher struct{}

// NewPasswordHasher creates a password hasher.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash returns the digest of password under the current algorithm version.
// Same input, same output.
func (h *PasswordHasher) Hash(password string) string {
	key := pbkdf2.Key([]byte(password), hashSaltV1, hashIterationsV1, hashKeyLenV1, sha256.New)
	return hashVersionV1 + "$" + base64.RawStdEncoding.EncodeToString(key)
}

// Verify reports whether password matches the stored digest. Unknown digest
// versions never match.
func (h *PasswordHasher) Verify(password, digest string) bool {
	version, _, ok := strings.Cut(digest, "$")
	if !ok || version != hashVersionV1 {
		return false
	}
	candidate := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

// CheckAndHash validates the password against the policy pattern before
// hashing. A password failing the pattern yields ErrPasswordPolicy.
func (h *PasswordHasher) CheckAndHash(password string, pattern *regexp.Regexp) (string, error) {
	if !pattern.MatchString(password) {
		return "", ErrPasswordPolicy
	}
	return h.Hash(password), nil
}
