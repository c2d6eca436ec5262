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
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/backplane-io/backplane/internal/acl"
	"github.com/backplane-io/backplane/internal/audit"
	"github.com/backplane-io/backplane/internal/identity"
	"github.com/backplane-io/backplane/internal/policy"
)

// DefaultMaxFileSize caps uploads when no limit is configured.
const DefaultMaxFileSize = 32 << 20 // 32 MiB

var (
	bucketPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)
	keyPattern    = regexp.MustCompile(`^[^/\x00][^\x00]{0,511}$`)
)

// Service provides bucket-scoped file storage gated by the policy engine.
// Buckets resolve their grants through the file ACL table, so the engine
// here is a distinct instance from the data engine.
type Service struct {
	repo        Repository
	engine      *policy.Engine
	auditLogger audit.Logger
	maxSize     int64
}

// NewService creates a new file service. maxSize <= 0 selects
// DefaultMaxFileSize.
func NewService(repo Repository, engine *policy.Engine, auditLogger audit.Logger, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Service{repo: repo, engine: engine, auditLogger: auditLogger, maxSize: maxSize}
}

// StoreMeta carries caller-supplied ownership metadata for administrative
// imports. Accepting it requires the forceMeta grant on the bucket.
type StoreMeta struct {
	Owner     string
	Group     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) denyAudit(ctx context.Context, creds *identity.Credentials, bucket string, perm acl.Permission) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePermissionDenied,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: bucket,
		Metadata: map[string]any{
			audit.AttrPermission: string(perm),
			audit.AttrRoles:      creds.EffectiveRoles(),
		},
	})
}

// Store uploads a file. A new key gets create semantics; overwriting an
// existing key is checked as an update against the stored owner.
func (s *Service) Store(ctx context.Context, creds *identity.Credentials, bucket, key, contentType string, content []byte, meta *StoreMeta) (*File, error) {
	if !bucketPattern.MatchString(bucket) {
		return nil, ErrInvalidBucket
	}
	if !keyPattern.MatchString(key) {
		return nil, ErrInvalidFileKey
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(content)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	existing, _ := s.repo.Stat(ctx, creds.TenantID, bucket, key)
	if existing != nil {
		if err := s.engine.Authorize(ctx, creds, bucket, acl.PermUpdate, existing); err != nil {
			s.denyAudit(ctx, creds, bucket, acl.PermUpdate)
			return nil, err
		}
	} else if err := s.engine.Authorize(ctx, creds, bucket, acl.PermCreate, nil); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermCreate)
		return nil, err
	}

	now := time.Now()
	f := &File{
		TenantID:    creds.TenantID,
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(content)),
		Meta:        &policy.Meta{},
	}
	if existing != nil {
		*f.Meta = *existing.Meta
		f.Updated = now
	} else {
		f.Stamp(creds.ID, creds.Group, now)
	}
	if meta != nil {
		if err := s.applyForcedMeta(ctx, creds, bucket, f, meta); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Put(ctx, f, content); err != nil {
		return nil, fmt.Errorf("store %s/%s: %w", bucket, key, err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeFileStored,
		TenantID: creds.TenantID,
		ActorID:  creds.ID,
		Resource: bucket + "/" + key,
	})
	return f, nil
}

// Open retrieves a file's metadata and content, enforcing the read grant
// against its owner and group.
func (s *Service) Open(ctx context.Context, creds *identity.Credentials, bucket, key string) (*File, []byte, error) {
	f, content, err := s.repo.Open(ctx, creds.TenantID, bucket, key)
	if err != nil {
		return nil, nil, ErrFileNotFound
	}
	if err := s.engine.Authorize(ctx, creds, bucket, acl.PermRead, f); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermRead)
		return nil, nil, err
	}
	return f, content, nil
}

// Stat retrieves a file's metadata, enforcing the read grant.
func (s *Service) Stat(ctx context.Context, creds *identity.Credentials, bucket, key string) (*File, error) {
	f, err := s.repo.Stat(ctx, creds.TenantID, bucket, key)
	if err != nil {
		return nil, ErrFileNotFound
	}
	if err := s.engine.Authorize(ctx, creds, bucket, acl.PermRead, f); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermRead)
		return nil, err
	}
	return f, nil
}

// Delete removes a file, enforcing the delete grant.
func (s *Service) Delete(ctx context.Context, creds *identity.Credentials, bucket, key string) error {
	f, err := s.repo.Stat(ctx, creds.TenantID, bucket, key)
	if err != nil {
		return ErrFileNotFound
	}
	if err := s.engine.Authorize(ctx, creds, bucket, acl.PermDelete, f); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermDelete)
		return err
	}
	return s.repo.Delete(ctx, creds.TenantID, bucket, key)
}

// List returns the metadata of the files in a bucket the caller may read.
// Like data search, each entry is filtered through the object-level read
// check.
func (s *Service) List(ctx context.Context, creds *identity.Credentials, bucket string) ([]*File, error) {
	if err := s.engine.Authorize(ctx, creds, bucket, acl.PermSearch, nil); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermSearch)
		return nil, err
	}

	files, err := s.repo.List(ctx, creds.TenantID, bucket)
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", bucket, err)
	}
	visible := make([]*File, 0, len(files))
	for _, f := range files {
		if err := s.engine.Authorize(ctx, creds, bucket, acl.PermRead, f); err == nil {
			visible = append(visible, f)
		}
	}
	return visible, nil
}

func (s *Service) applyForcedMeta(ctx context.Context, creds *identity.Credentials, bucket string, f *File, meta *StoreMeta) error {
	if err := s.engine.Authorize(ctx, creds, bucket, acl.PermForceMeta, nil); err != nil {
		s.denyAudit(ctx, creds, bucket, acl.PermForceMeta)
		return err
	}
	if meta.Owner != "" {
		f.SetOwner(meta.Owner)
	}
	if meta.Group != "" {
		f.SetGroup(meta.Group)
	}
	if !meta.CreatedAt.IsZero() {
		f.SetCreatedAt(meta.CreatedAt)
	}
	if !meta.UpdatedAt.IsZero() {
		f.SetUpdatedAt(meta.UpdatedAt)
	}
	return nil
}
