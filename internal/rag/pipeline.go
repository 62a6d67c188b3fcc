// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

// Package rag wires chunking, embedding, retrieval, prompt assembly,
// and generation into the two request flows: ingest and ask.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raglet-dev/raglet/internal/chunk"
	"github.com/raglet-dev/raglet/internal/embed"
	"github.com/raglet-dev/raglet/internal/prompt"
	"github.com/raglet-dev/raglet/internal/provider"
	"github.com/raglet-dev/raglet/internal/retrieve"
	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// Options carries the tunables the pipeline consumes. ChunkOverlap and
// Temperature are taken as given: zero is a valid setting for both
// (no overlap, deterministic sampling), so their defaults live in the
// config layer only. The remaining fields treat zero as unset and fall
// back to the package defaults.
type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	Temperature     float64
	MaxContextChars int
	MaxTokens       int
	GenerateTimeout time.Duration
}

// Defaults for Options fields where zero means unset.
const (
	DefaultChunkSize       = 1000
	DefaultTopK            = 3
	DefaultGenerateTimeout = 2 * time.Minute
)

func (o *Options) applyDefaults() {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.MaxContextChars == 0 {
		o.MaxContextChars = prompt.DefaultMaxContextChars
	}
	if o.GenerateTimeout == 0 {
		o.GenerateTimeout = DefaultGenerateTimeout
	}
}

// IngestResult reports what a completed ingestion produced.
type IngestResult struct {
	DocumentID string
	ChunkCount int
}

// Answer is the ask flow's output: the generated text plus the chunks
// that backed it and the backend that produced it.
type Answer struct {
	Text     string
	Sources  []store.ScoredChunk
	Provider string
	Model    string
}

// SystemInfo is a point-in-time description of the pipeline's
// configuration and store state.
type SystemInfo struct {
	DefaultProvider  string                    `json:"default_provider"`
	Providers        []string                  `json:"providers"`
	ProviderHealth   map[string]health.Metrics `json:"provider_health"`
	EmbeddingBackend string                    `json:"embedding_backend"`
	Dimensions       int                       `json:"dimensions"`
	ChunkSize        int                       `json:"chunk_size"`
	ChunkOverlap     int                       `json:"chunk_overlap"`
	TopK             int                       `json:"top_k"`
	Temperature      float64                   `json:"temperature"`
	DocumentCount    int64                     `json:"document_count"`
	ChunkCount       int64                     `json:"chunk_count"`
}

// Pipeline is the RAG entry point. Each method is safe for concurrent
// use; the index is the only shared mutable state.
type Pipeline struct {
	splitter  *chunk.Splitter
	embedder  embed.Embedder
	index     store.Index
	retriever *retrieve.Retriever
	assembler *prompt.Assembler
	registry  *provider.Registry
	opts      Options
	logger    *slog.Logger
}

// New builds a Pipeline from its collaborators.
func New(embedder embed.Embedder, index store.Index, registry *provider.Registry, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()

	splitter, err := chunk.NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	assembler, err := prompt.NewAssembler(opts.MaxContextChars)
	if err != nil {
		return nil, err
	}
	if opts.TopK < 1 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "top-k must be >= 1, got %d", opts.TopK)
	}

	return &Pipeline{
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		retriever: retrieve.NewRetriever(embedder, index, logger),
		assembler: assembler,
		registry:  registry,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Ingest chunks, embeds, and indexes one document. The operation is
// all-or-nothing: a failure at any stage leaves the index unchanged,
// and re-ingesting an existing document id replaces its prior chunks
// atomically. A document without an id is assigned one.
func (p *Pipeline) Ingest(ctx context.Context, doc store.Document) (IngestResult, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	chunks, err := p.splitter.Split(doc)
	if err != nil {
		return IngestResult{}, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return IngestResult{}, err
	}
	if len(vectors) != len(chunks) {
		return IngestResult{}, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
			"got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]store.Entry, len(chunks))
	for i := range chunks {
		entries[i] = store.Entry{Chunk: chunks[i], Vector: vectors[i]}
	}

	// Single atomic swap: concurrent queries see either the prior
	// version of the document or the new one, and a failed replace
	// keeps the prior chunks intact.
	if err := p.index.ReplaceDocument(ctx, doc.ID, entries); err != nil {
		return IngestResult{}, err
	}

	p.logger.Info("ingested document",
		"document_id", doc.ID,
		"source", doc.Source,
		"chunks", len(entries))

	return IngestResult{DocumentID: doc.ID, ChunkCount: len(entries)}, nil
}

// Ask answers a question from indexed content. k == 0 selects the
// configured top-k; a negative k is rejected as an invalid argument.
// Zero retrieved chunks is not an error: generation proceeds with an
// empty context and the model is instructed to state that it has no
// relevant information.
func (p *Pipeline) Ask(ctx context.Context, question string, k int) (Answer, error) {
	if k == 0 {
		k = p.opts.TopK
	}

	scored, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return Answer{}, err
	}

	assembled := p.assembler.Assemble(question, scored)

	resp, backendName, err := p.generate(ctx, provider.Request{
		System:      assembled.System,
		Prompt:      assembled.User,
		Temperature: &p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	})
	if err != nil {
		return Answer{}, err
	}

	p.logger.Info("answered question",
		"provider", backendName,
		"model", resp.Model,
		"sources", len(assembled.Used))

	return Answer{
		Text:     resp.Text,
		Sources:  assembled.Used,
		Provider: backendName,
		Model:    resp.Model,
	}, nil
}

// Summarize produces a concise summary of the given text, capped at
// roughly maxWords words. maxWords <= 0 selects 200.
func (p *Pipeline) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ragerr.New(ragerr.CodeRequestInvalidArgument, "text must not be blank")
	}
	if maxWords <= 0 {
		maxWords = 200
	}

	req := provider.Request{
		Prompt: fmt.Sprintf(
			"Please provide a concise summary of the following text in %d words or less:\n\n%s\n\nSummary:",
			maxWords, text),
		Temperature: &p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	}

	resp, _, err := p.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// GenerateQuestions asks the backend for n questions about the given
// text and parses them from numbered or bulleted lines. n <= 0
// selects 3.
func (p *Pipeline) GenerateQuestions(ctx context.Context, text string, n int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ragerr.New(ragerr.CodeRequestInvalidArgument, "text must not be blank")
	}
	if n <= 0 {
		n = 3
	}

	req := provider.Request{
		Prompt: fmt.Sprintf(
			"Based on the following text, generate %d interesting questions that someone might ask:\n\n%s\n\nQuestions:\n1.",
			n, text),
		Temperature: &p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	}

	resp, _, err := p.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	questions := ParseQuestions(resp.Text)
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions, nil
}

// ClearIndex removes every document and vector from the index.
func (p *Pipeline) ClearIndex(ctx context.Context) error {
	if err := p.index.DeleteAll(ctx); err != nil {
		return err
	}
	p.logger.Info("cleared index")
	return nil
}

// DeleteDocument removes one document's chunks from the index.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ragerr.New(ragerr.CodeRequestInvalidArgument, "document id must not be empty")
	}
	return p.index.DeleteDocument(ctx, documentID)
}

// Stats reports the index's document and chunk counts.
func (p *Pipeline) Stats(ctx context.Context) (store.Stats, error) {
	return p.index.Stats(ctx)
}

// SystemInfo reports the pipeline configuration and store state.
func (p *Pipeline) SystemInfo(ctx context.Context) (SystemInfo, error) {
	stats, err := p.index.Stats(ctx)
	if err != nil {
		return SystemInfo{}, err
	}
	return SystemInfo{
		DefaultProvider:  p.registry.DefaultRef(),
		Providers:        p.registry.Names(),
		ProviderHealth:   p.registry.Metrics(),
		EmbeddingBackend: p.embedder.Name(),
		Dimensions:       p.embedder.Dimensions(),
		ChunkSize:        p.opts.ChunkSize,
		ChunkOverlap:     p.opts.ChunkOverlap,
		TopK:             p.opts.TopK,
		Temperature:      p.opts.Temperature,
		DocumentCount:    stats.DocumentCount,
		ChunkCount:       stats.ChunkCount,
	}, nil
}

// generate routes through the registry's failover chain, applying the
// configured timeout to each attempt. Timeouts and caller cancellation
// surface immediately; transport and backend failures advance to the
// next candidate. The backends themselves never retry.
func (p *Pipeline) generate(ctx context.Context, req provider.Request) (provider.Response, string, error) {
	var lastErr error
	var tried []string

	for attempt := 0; attempt < p.registry.MaxAttempts(); attempt++ {
		g, model, err := p.registry.Route(ctx, req.Model, tried)
		if err != nil {
			if lastErr != nil {
				return provider.Response{}, "", lastErr
			}
			return provider.Response{}, "", err
		}
		tried = append(tried, g.Name())

		attemptReq := req
		attemptReq.Model = model

		genCtx, cancel := context.WithTimeout(ctx, p.opts.GenerateTimeout)
		resp, err := g.Generate(genCtx, attemptReq)
		cancel()
		p.registry.RecordOutcome(g, err)
		if err == nil {
			return resp, g.Name(), nil
		}

		// Neither a timeout nor a caller cancellation is worth
		// retrying on another backend.
		if ragerr.IsTimeout(err) || ragerr.IsCanceled(err) {
			return provider.Response{}, "", err
		}

		p.logger.Warn("generation attempt failed",
			"provider", g.Name(),
			"model", model,
			"error", err)
		lastErr = err
	}

	if lastErr != nil {
		return provider.Response{}, "", lastErr
	}
	return provider.Response{}, "", ragerr.New(ragerr.CodeGenerateAllUnavailable,
		"all providers unavailable: no healthy backend found")
}

// ParseQuestions extracts question lines from a model response,
// accepting "1." style numbering and "-"/"*" bullets.
func ParseQuestions(response string) []string {
	var questions []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			if q := strings.TrimSpace(line[1:]); q != "" {
				questions = append(questions, q)
			}
		case startsNumbered(line):
			_, rest, _ := strings.Cut(line, ".")
			if q := strings.TrimSpace(rest); q != "" {
				questions = append(questions, q)
			}
		}
	}
	return questions
}

// startsNumbered reports whether the line begins with digits followed
// by a dot.
func startsNumbered(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && line[i] == '.'
}
