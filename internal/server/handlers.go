// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package server

import (
	"context"
	"fmt"

	"github.com/raglet-dev/raglet/internal/loader"
	"github.com/raglet-dev/raglet/internal/store"
)

const snippetLen = 200

func (s *Server) handleIngest(ctx context.Context, input *ingestInput) (*ingestOutput, error) {
	contentType := input.Body.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	res, err := s.pipeline.Ingest(ctx, store.Document{
		ID:          input.Body.ID,
		Name:        input.Body.Name,
		ContentType: contentType,
		Source:      input.Body.Source,
		Content:     input.Body.Content,
	})
	if err != nil {
		s.logger.Error("ingest failed", "document_id", input.Body.ID, "error", err)
		return nil, apiError(err)
	}

	out := &ingestOutput{}
	out.Body.DocumentID = res.DocumentID
	out.Body.ChunkCount = res.ChunkCount
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	stats, err := s.pipeline.Stats(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &statsOutput{Body: stats}, nil
}

func (s *Server) handleClear(ctx context.Context, _ *struct{}) (*clearOutput, error) {
	if err := s.pipeline.ClearIndex(ctx); err != nil {
		return nil, apiError(err)
	}
	out := &clearOutput{}
	out.Body.Status = "cleared"
	return out, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *deleteDocumentInput) (*deleteDocumentOutput, error) {
	if err := s.pipeline.DeleteDocument(ctx, input.ID); err != nil {
		return nil, apiError(err)
	}
	out := &deleteDocumentOutput{}
	out.Body.Status = "deleted"
	return out, nil
}

func (s *Server) handleLoadSamples(ctx context.Context, _ *struct{}) (*loadSamplesOutput, error) {
	docs := loader.SampleDocuments()
	for _, doc := range docs {
		if _, err := s.pipeline.Ingest(ctx, doc); err != nil {
			s.logger.Error("sample ingest failed", "document_id", doc.ID, "error", err)
			return nil, apiError(err)
		}
	}

	out := &loadSamplesOutput{}
	out.Body.Count = len(docs)
	out.Body.Message = fmt.Sprintf("Loaded %d sample documents", len(docs))
	return out, nil
}

func (s *Server) handleChat(ctx context.Context, input *chatInput) (*chatOutput, error) {
	answer, err := s.pipeline.Ask(ctx, input.Body.Question, input.Body.K)
	if err != nil {
		s.logger.Error("chat failed", "error", err)
		return nil, apiError(err)
	}

	out := &chatOutput{}
	out.Body.Answer = answer.Text
	out.Body.Provider = answer.Provider
	out.Body.Model = answer.Model
	out.Body.Sources = make([]ChatSource, len(answer.Sources))
	for i, sc := range answer.Sources {
		out.Body.Sources[i] = ChatSource{
			ChunkID:    sc.Chunk.ID,
			DocumentID: sc.Chunk.DocumentID,
			Source:     sc.Chunk.Metadata["source"],
			Similarity: sc.Similarity,
			Snippet:    snippet(sc.Chunk.Text),
		}
	}
	out.Body.NumSources = len(out.Body.Sources)
	return out, nil
}

func (s *Server) handleSystemInfo(ctx context.Context, _ *struct{}) (*systemInfoOutput, error) {
	info, err := s.pipeline.SystemInfo(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &systemInfoOutput{Body: info}, nil
}

// snippet truncates chunk text for citation payloads.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "..."
}
