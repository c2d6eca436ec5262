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

// Package file stores binary blobs in named buckets. Buckets carry their
// own grant tables, separate from the data resource ACLs.
package file

import (
	"context"

	"github.com/backplane-io/backplane/internal/errors"
	"github.com/backplane-io/backplane/internal/policy"
)

// Domain errors
var (
	ErrFileNotFound   = errors.Wrap(errors.ErrNotFound, "file not found")
	ErrInvalidBucket  = errors.Wrap(errors.ErrValidation, "invalid bucket name")
	ErrEmptyFile      = errors.Wrap(errors.ErrValidation, "file is empty")
	ErrFileTooLarge   = errors.Wrap(errors.ErrValidation, "file exceeds the size limit")
	ErrInvalidFileKey = errors.Wrap(errors.ErrValidation, "invalid file key")
)

// File is the metadata record of one stored blob. The bytes live next to
// it in the repository but are loaded separately.
type File struct {
	TenantID    string `json:"-"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	*policy.Meta
}

// Repository defines the interface for file persistence.
type Repository interface {
	// Put stores a file's metadata and content together.
	Put(ctx context.Context, f *File, content []byte) error

	// Stat retrieves a file's metadata without its content.
	Stat(ctx context.Context, tenantID, bucket, key string) (*File, error)

	// Open retrieves a file's metadata and content.
	Open(ctx context.Context, tenantID, bucket, key string) (*File, []byte, error)

	// Delete removes a file.
	Delete(ctx context.Context, tenantID, bucket, key string) error

	// List retrieves the metadata of all files in a bucket.
	List(ctx context.Context, tenantID, bucket string) ([]*File, error)
}
