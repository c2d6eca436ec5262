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
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/backplane-io/backplane/internal/file"
	"github.com/go-chi/chi/v5"
)

// StoreFile uploads a blob to a bucket. The key is the wildcard remainder
// of the path. Forced ownership metadata arrives in X-Meta-* headers and
// requires the forceMeta grant.
func (h *Handler) StoreFile(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	content, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f, err := h.fileService.Store(r.Context(), GetCredentials(r.Context()), bucket, key, contentType, content, storeMetaFromHeaders(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

// DownloadFile streams a blob back to the caller.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	f, content, err := h.fileService.Open(r.Context(), GetCredentials(r.Context()), bucket, key)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// DeleteFile removes a blob.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	if err := h.fileService.Delete(r.Context(), GetCredentials(r.Context()), bucket, key); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "file deleted",
	})
}

// ListFiles returns the readable metadata entries of a bucket.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.List(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "bucket"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, files)
}

func storeMetaFromHeaders(r *http.Request) *file.StoreMeta {
	owner := r.Header.Get("X-Meta-Owner")
	group := r.Header.Get("X-Meta-Group")
	createdAt := r.Header.Get("X-Meta-Created-At")
	updatedAt := r.Header.Get("X-Meta-Updated-At")
	if owner == "" && group == "" && createdAt == "" && updatedAt == "" {
		return nil
	}

	meta := &file.StoreMeta{Owner: owner, Group: group}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		meta.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		meta.UpdatedAt = t
	}
	return meta
}
