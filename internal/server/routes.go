// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package server

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/raglet-dev/raglet/internal/rag"
	"github.com/raglet-dev/raglet/internal/store"
)

func (s *Server) registerRoutes() {
	// Document endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents",
		Summary:     "Ingest a document",
		Tags:        []string{"documents"},
	}, s.handleIngest)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "Index statistics",
		Tags:        []string{"documents"},
	}, s.handleStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "clear-documents",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents",
		Summary:     "Clear the index",
		Tags:        []string{"documents"},
	}, s.handleClear)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Delete one document",
		Tags:        []string{"documents"},
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "load-sample-documents",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/sample",
		Summary:     "Ingest the bundled sample documents",
		Tags:        []string{"documents"},
	}, s.handleLoadSamples)

	// Chat endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat",
		Summary:     "Ask a question",
		Tags:        []string{"chat"},
	}, s.handleChat)

	// System endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "system-info",
		Method:      http.MethodGet,
		Path:        "/api/v1/system",
		Summary:     "System configuration and statistics",
		Tags:        []string{"system"},
	}, s.handleSystemInfo)
}

// --- Request/Response types for huma ---

type ingestInput struct {
	Body struct {
		ID          string `json:"id,omitempty" doc:"Document id; generated when empty"`
		Name        string `json:"name,omitempty"`
		ContentType string `json:"content_type,omitempty" doc:"Defaults to text/plain"`
		Source      string `json:"source,omitempty"`
		Content     string `json:"content" doc:"Already-extracted document text"`
	}
}

type ingestOutput struct {
	Body struct {
		DocumentID string `json:"document_id"`
		ChunkCount int    `json:"chunk_count"`
	}
}

type statsOutput struct {
	Body store.Stats
}

type clearOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type deleteDocumentInput struct {
	ID string `path:"id"`
}

type deleteDocumentOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type loadSamplesOutput struct {
	Body struct {
		Count   int    `json:"count"`
		Message string `json:"message"`
	}
}

type chatInput struct {
	Body struct {
		Question string `json:"question"`
		K        int    `json:"k,omitempty" doc:"Top-k override; 0 selects the configured default"`
	}
}

// ChatSource is one cited chunk in a chat response.
type ChatSource struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source,omitempty"`
	Similarity float64 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

type chatOutput struct {
	Body struct {
		Answer     string       `json:"answer"`
		Sources    []ChatSource `json:"sources"`
		NumSources int          `json:"num_sources"`
		Provider   string       `json:"provider"`
		Model      string       `json:"model"`
	}
}

type systemInfoOutput struct {
	Body rag.SystemInfo
}
