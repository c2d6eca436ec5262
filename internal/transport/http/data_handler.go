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
	"encoding/json"
	"net/http"
	"time"

	"github.com/backplane-io/backplane/internal/data"
	"github.com/go-chi/chi/v5"
)

// WriteDocumentRequest carries a document body plus optional forced
// ownership metadata. Meta fields require the forceMeta grant.
type WriteDocumentRequest struct {
	Body json.RawMessage `json:"body"`
	Meta *struct {
		Owner     string    `json:"owner"`
		Group     string    `json:"group"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	} `json:"meta,omitempty"`
}

func (req *WriteDocumentRequest) writeMeta() *data.WriteMeta {
	if req.Meta == nil {
		return nil
	}
	return &data.WriteMeta{
		Owner:     req.Meta.Owner,
		Group:     req.Meta.Group,
		CreatedAt: req.Meta.CreatedAt,
		UpdatedAt: req.Meta.UpdatedAt,
	}
}

// CreateDocument stores a new document of a declared type.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req WriteDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.dataService.Create(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"), req.Body, req.writeMeta())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves one document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.dataService.Get(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"), chi.URLParam(r, "docID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// UpdateDocument replaces a document's body.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req WriteDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.dataService.Update(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"), chi.URLParam(r, "docID"), req.Body, req.writeMeta())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes a document.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.dataService.Delete(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"), chi.URLParam(r, "docID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "document deleted",
	})
}

// SearchDocuments lists the readable documents of a type.
func (h *Handler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.dataService.Search(r.Context(), GetCredentials(r.Context()), chi.URLParam(r, "typeName"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}
