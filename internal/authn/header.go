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

// Package authn decodes the inbound credential presentation and resolves
// it to an identity. Everything that fails here is an authentication
// failure (401), strictly separate from authorization denials (403).
package authn

import (
	"encoding/base64"
	"strings"

	"github.com/backplane-io/backplane/internal/errors"
)

// Supported authorization schemes.
const (
	SchemeBasic  = "Basic"
	SchemeBearer = "Bearer"
)

// Header decode errors. All wrap the authentication kind.
var (
	ErrMissingHeader     = errors.Wrap(errors.ErrAuthentication, "missing authorization header")
	ErrMalformedHeader   = errors.Wrap(errors.ErrAuthentication, "malformed authorization header")
	ErrUnsupportedScheme = errors.Wrap(errors.ErrAuthentication, "unsupported authorization scheme")
	ErrBadEncoding       = errors.Wrap(errors.ErrAuthentication, "basic credentials are not valid base64")
	ErrMissingSeparator  = errors.Wrap(errors.ErrAuthentication, "basic credentials missing ':' separator")
	ErrEmptyUsername     = errors.Wrap(errors.ErrAuthentication, "empty username")
	ErrEmptyPassword     = errors.Wrap(errors.ErrAuthentication, "empty password")
)

// Header is a parsed Authorization header value. It performs syntactic
// decoding only; verifying the password or resolving the bearer token is
// the Authenticator's job.
type Header struct {
	Scheme string
	Token  string

	// Basic credentials, decoded lazily on first access and cached.
	decoded   bool
	username  string
	password  string
	decodeErr error
}

// ParseHeader splits a "<scheme> <token>" header value. Only Basic and
// Bearer schemes are accepted.
func ParseHeader(value string) (*Header, error) {
	if value == "" {
		return nil, ErrMissingHeader
	}
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || token == "" || strings.ContainsAny(token, " ") {
		return nil, ErrMalformedHeader
	}
	switch {
	case strings.EqualFold(scheme, SchemeBasic):
		scheme = SchemeBasic
	case strings.EqualFold(scheme, SchemeBearer):
		scheme = SchemeBearer
	default:
		return nil, ErrUnsupportedScheme
	}
	return &Header{Scheme: scheme, Token: token}, nil
}

// IsBasic reports whether the header carries basic credentials.
func (h *Header) IsBasic() bool { return h.Scheme == SchemeBasic }

// IsBearer reports whether the header carries a bearer token.
func (h *Header) IsBearer() bool { return h.Scheme == SchemeBearer }

// Username returns the decoded basic username.
func (h *Header) Username() (string, error) {
	h.decode()
	return h.username, h.decodeErr
}

// Password returns the decoded basic password.
func (h *Header) Password() (string, error) {
	h.decode()
	return h.password, h.decodeErr
}

func (h *Header) decode() {
	if h.decoded {
		return
	}
	h.decoded = true

	raw, err := base64.StdEncoding.DecodeString(h.Token)
	if err != nil {
		h.decodeErr = ErrBadEncoding
		return
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		h.decodeErr = ErrMissingSeparator
		return
	}
	if username == "" {
		h.decodeErr = ErrEmptyUsername
		return
	}
	if password == "" {
		h.decodeErr = ErrEmptyPassword
		return
	}
	h.username = username
	h.password = password
}
