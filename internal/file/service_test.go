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

package file

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/policy"
)

// MockRepository is a simple in-memory implementation of Repository
type MockRepository struct {
	files    map[string]*File
	contents map[string][]byte
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		files:    make(map[string]*File),
		contents: make(map[string][]byte),
	}
}

func fileKey(tenantID, bucket, key string) string {
	return tenantID + "/" + bucket + "/" + key
}

func (m *MockRepository) Put(_ context.Context, f *File, content []byte) error {
	k := fileKey(f.TenantID, f.Bucket, f.Key)
	m.files[k] = f
	m.contents[k] = content
	return nil
}

func (m *MockRepository) Stat(_ context.Context, tenantID, bucket, key string) (*File, error) {
	f, ok := m.files[fileKey(tenantID, bucket, key)]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

func (m *MockRepository) Open(_ context.Context, tenantID, bucket, key string) (*File, []byte, error) {
	f, ok := m.files[fileKey(tenantID, bucket, key)]
	if !ok {
		return nil, nil, ErrFileNotFound
	}
	return f, m.contents[fileKey(tenantID, bucket, key)], nil
}

func (m *MockRepository) Delete(_ context.Context, tenantID, bucket, key string) error {
	k := fileKey(tenantID, bucket, key)
	if _, ok := m.files[k]; !ok {
		return ErrFileNotFound
	}
	delete(m.files, k)
	delete(m.contents, k)
	return nil
}

func (m *MockRepository) List(_ context.Context, tenantID, bucket string) ([]*File, error) {
	var out []*File
	for _, f := range m.files {
		if f.TenantID == tenantID && f.Bucket == bucket {
			out = append(out, f)
		}
	}
	return out, nil
}

func newTestService(grants map[string]acl.RolePermissions, maxSize int64) (*Service, *MockRepository) {
	repo := NewMockRepository()
	engine := policy.NewEngine(policy.StaticSource{
		"t-1": acl.NewAccessControlList(grants),
	})
	return NewService(repo, engine, audit.NopLogger{}, maxSize), repo
}

func user(id, group string) *identity.Credentials {
	return &identity.Credentials{ID: id, TenantID: "t-1", Level: identity.LevelUser, Group: group}
}

func TestFile_StoreValidation(t *testing.T) {
	s, _ := newTestService(map[string]acl.RolePermissions{
		"uploads": acl.DefaultPolicy(),
	}, 16)
	ctx := context.Background()
	alice := user("u-alice", "")
	content := []byte("hello")

	cases := []struct {
		name   string
		bucket string
		key    string
		body   []byte
		want   error
	}{
		{"bad bucket", "9uploads", "a.txt", content, ErrInvalidBucket},
		{"bucket with slash", "up/loads", "a.txt", content, ErrInvalidBucket},
		{"empty key", "uploads", "", content, ErrInvalidFileKey},
		{"key with leading slash", "uploads", "/a.txt", content, ErrInvalidFileKey},
		{"key with NUL", "uploads", "a\x00b", content, ErrInvalidFileKey},
		{"empty content", "uploads", "a.txt", nil, ErrEmptyFile},
		{"oversized content", "uploads", "a.txt", []byte(strings.Repeat("x", 17)), ErrFileTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := s.Store(ctx, alice, c.bucket, c.key, "text/plain", c.body, nil); !errors.Is(err, c.want) {
				t.Errorf("Store error = %v, want %v", err, c.want)
			}
		})
	}

	// Nested keys are allowed; only a leading slash is rejected.
	if _, err := s.Store(ctx, alice, "uploads", "2026/08/report.txt", "text/plain", content, nil); err != nil {
		t.Errorf("nested key rejected: %v", err)
	}
}

// TestPurpose: Validates the store/open cycle and the overwrite semantics:
// a new key is a create, an existing key is an update checked against the
// stored owner, and the original ownership survives the overwrite.
// Scope: Unit Test
// Security: Bucket write confinement
// Expected: Owner ownership and creation time persist across overwrites;
// an Update-Mine-scoped foreign writer is denied.
// Test Case ID: FIL-01
func TestFile_StoreAndOpen(t *testing.T) {
	s, _ := newTestService(map[string]acl.RolePermissions{
		"uploads": acl.NewRolePermissions(map[string][]acl.Permission{
			"user": {acl.PermCreate, acl.PermReadMine, acl.PermUpdateMine},
		}),
	}, 0)
	ctx := context.Background()
	alice := user("u-alice", "")
	bob := user("u-bob", "")

	stored, err := s.Store(ctx, alice, "uploads", "report.pdf", "application/pdf", []byte("v1"), nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if stored.Owner() != "u-alice" || stored.Size != 2 {
		t.Errorf("stored = %+v", stored)
	}

	f, content, err := s.Open(ctx, alice, "uploads", "report.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(content, []byte("v1")) || f.ContentType != "application/pdf" {
		t.Errorf("content = %q, type = %q", content, f.ContentType)
	}

	// Foreign overwrite is an update against the stored owner.
	if _, err := s.Store(ctx, bob, "uploads", "report.pdf", "application/pdf", []byte("evil"), nil); !errors.Is(err, errors.ErrAuthorization) {
		t.Fatalf("expected denial for foreign overwrite, got %v", err)
	}

	overwritten, err := s.Store(ctx, alice, "uploads", "report.pdf", "application/pdf", []byte("v2 longer"), nil)
	if err != nil {
		t.Fatalf("owner overwrite: %v", err)
	}
	if overwritten.Owner() != "u-alice" {
		t.Errorf("overwrite changed the owner to %s", overwritten.Owner())
	}
	if !overwritten.CreatedAt().Equal(stored.CreatedAt()) {
		t.Error("overwrite changed the creation timestamp")
	}
	if overwritten.Size != int64(len("v2 longer")) {
		t.Errorf("size = %d", overwritten.Size)
	}

	if _, _, err := s.Open(ctx, bob, "uploads", "report.pdf"); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("expected denial for foreign read, got %v", err)
	}
	if _, _, err := s.Open(ctx, alice, "uploads", "missing.pdf"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFile_DeleteAndList(t *testing.T) {
	s, _ := newTestService(map[string]acl.RolePermissions{
		"uploads": acl.NewRolePermissions(map[string][]acl.Permission{
			"user": {acl.PermCreate, acl.PermSearch, acl.PermReadMine, acl.PermDeleteMine},
		}),
	}, 0)
	ctx := context.Background()
	alice := user("u-alice", "")
	bob := user("u-bob", "")

	s.Store(ctx, alice, "uploads", "a.txt", "text/plain", []byte("a"), nil)
	s.Store(ctx, alice, "uploads", "b.txt", "text/plain", []byte("b"), nil)
	s.Store(ctx, bob, "uploads", "c.txt", "text/plain", []byte("c"), nil)

	mine, err := s.List(ctx, alice, "uploads")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("alice sees %d files, want 2", len(mine))
	}

	if err := s.Delete(ctx, bob, "uploads", "a.txt"); !errors.Is(err, errors.ErrAuthorization) {
		t.Errorf("expected denial for foreign delete, got %v", err)
	}
	if err := s.Delete(ctx, alice, "uploads", "a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, alice, "uploads", "a.txt"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete: %v", err)
	}
}

func TestFile_ForceMeta(t *testing.T) {
	s, _ := newTestService(map[string]acl.RolePermissions{
		"uploads": acl.NewRolePermissions(map[string][]acl.Permission{
			"user":     {acl.PermCreate},
			"importer": {acl.PermCreate, acl.PermForceMeta},
		}),
	}, 0)
	ctx := context.Background()

	meta := &StoreMeta{Owner: "u-legacy", Group: "g-legacy"}
	if _, err := s.Store(ctx, user("u-alice", ""), "uploads", "a.txt", "text/plain", []byte("a"), meta); !errors.Is(err, errors.ErrAuthorization) {
		t.Fatalf("expected denial without forceMeta, got %v", err)
	}

	importer := &identity.Credentials{ID: "u-imp", TenantID: "t-1", Level: identity.LevelUser, Roles: []string{"importer"}}
	f, err := s.Store(ctx, importer, "uploads", "a.txt", "text/plain", []byte("a"), meta)
	if err != nil {
		t.Fatalf("Store with forceMeta: %v", err)
	}
	if f.Owner() != "u-legacy" || f.Group() != "g-legacy" {
		t.Errorf("ownership = %s/%s", f.Owner(), f.Group())
	}
}

func TestFile_SuperAdminSeesAll(t *testing.T) {
	s, _ := newTestService(map[string]acl.RolePermissions{
		"uploads": acl.NewRolePermissions(map[string][]acl.Permission{
			"user": {acl.PermCreate},
		}),
	}, 0)
	ctx := context.Background()

	s.Store(ctx, user("u-alice", ""), "uploads", "a.txt", "text/plain", []byte("a"), nil)

	op := &identity.Credentials{ID: "op-1", TenantID: "t-1", Level: identity.LevelSuperAdmin}
	files, err := s.List(ctx, op, "uploads")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("operator sees %d files, want 1", len(files))
	}
	if _, _, err := s.Open(ctx, op, "uploads", "a.txt"); err != nil {
		t.Errorf("operator open: %v", err)
	}
}
