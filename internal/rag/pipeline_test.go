// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package rag_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/raglet-dev/raglet/internal/provider"
	"github.com/raglet-dev/raglet/internal/rag"
	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder produces deterministic 3-dimensional vectors derived
// from the text so similar inputs stay distinguishable in tests.
// Setting width emits vectors of another dimensionality, for tests
// that need the index to reject the batch.
type hashEmbedder struct {
	err   error
	width int
}

func (h *hashEmbedder) Name() string    { return "hash" }
func (h *hashEmbedder) Dimensions() int { return 3 }

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if h.err != nil {
		return nil, h.err
	}
	width := h.width
	if width == 0 {
		width = 3
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var sum float32
		for _, r := range text {
			sum += float32(r % 13)
		}
		vec := make([]float32, width)
		vec[0] = 1
		if width > 1 {
			vec[1] = sum / 100
		}
		if width > 2 {
			vec[2] = float32(len(text) % 7)
		}
		out[i] = vec
	}
	return out, nil
}

// scriptedGenerator is a Generator whose reply and error are fixed.
type scriptedGenerator struct {
	mu        sync.Mutex
	name      string
	reply     string
	err       error
	available bool
	calls     int
	lastReq   provider.Request
}

func (s *scriptedGenerator) Name() string { return s.name }

func (s *scriptedGenerator) Available(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *scriptedGenerator) Generate(_ context.Context, req provider.Request) (provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return provider.Response{}, s.err
	}
	return provider.Response{Text: s.reply, Model: req.Model}, nil
}

func (s *scriptedGenerator) RecordSuccess() {}

func (s *scriptedGenerator) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = false
}

func (s *scriptedGenerator) Close() error { return nil }

func newPipeline(t *testing.T, gens ...*scriptedGenerator) (*rag.Pipeline, *provider.Registry) {
	t.Helper()

	idx, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	reg := provider.NewRegistry()
	var failover []string
	for i, g := range gens {
		reg.Register(g.name, g)
		ref := g.name + "/" + g.name + "-model"
		if i == 0 {
			require.NoError(t, reg.SetDefault(ref))
		} else {
			failover = append(failover, ref)
		}
	}
	if len(failover) > 0 {
		require.NoError(t, reg.SetFailover(failover))
	}

	p, err := rag.New(&hashEmbedder{}, idx, reg, rag.Options{
		ChunkSize:    100,
		ChunkOverlap: 20,
	}, nil)
	require.NoError(t, err)
	return p, reg
}

func primary() *scriptedGenerator {
	return &scriptedGenerator{name: "primary", reply: "the answer", available: true}
}

func TestPipeline_IngestAndAsk(t *testing.T) {
	gen := primary()
	p, _ := newPipeline(t, gen)
	ctx := context.Background()

	res, err := p.Ingest(ctx, store.Document{
		ID:      "handbook",
		Source:  "handbook.md",
		Content: strings.Repeat("raglet answers questions from your documents. ", 8),
	})
	require.NoError(t, err)
	assert.Equal(t, "handbook", res.DocumentID)
	assert.Greater(t, res.ChunkCount, 1)

	answer, err := p.Ask(ctx, "what does raglet do?", 2)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer.Text)
	assert.Equal(t, "primary", answer.Provider)
	assert.NotEmpty(t, answer.Sources)
	assert.LessOrEqual(t, len(answer.Sources), 2)

	// The retrieved context reaches the backend.
	assert.Contains(t, gen.lastReq.Prompt, "raglet answers questions")
	assert.Contains(t, gen.lastReq.System, "only the provided context")
}

func TestPipeline_IngestAssignsDocumentID(t *testing.T) {
	p, _ := newPipeline(t, primary())

	res, err := p.Ingest(context.Background(), store.Document{Content: "some content here"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.DocumentID)
}

func TestPipeline_ReingestReplacesChunks(t *testing.T) {
	p, _ := newPipeline(t, primary())
	ctx := context.Background()

	_, err := p.Ingest(ctx, store.Document{ID: "doc", Content: strings.Repeat("old content. ", 20)})
	require.NoError(t, err)

	res, err := p.Ingest(ctx, store.Document{ID: "doc", Content: "new content"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunkCount)

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.DocumentCount)
	assert.EqualValues(t, 1, stats.ChunkCount)
}

func TestPipeline_ReingestFailureKeepsPriorChunks(t *testing.T) {
	idx, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	reg := provider.NewRegistry()
	gen := primary()
	reg.Register(gen.name, gen)
	require.NoError(t, reg.SetDefault("primary/primary-model"))

	emb := &hashEmbedder{}
	p, err := rag.New(emb, idx, reg, rag.Options{ChunkSize: 100}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Ingest(ctx, store.Document{ID: "doc", Content: "original content"})
	require.NoError(t, err)

	// The replacement batch is rejected by the index, so the prior
	// version must remain queryable.
	emb.width = 2
	_, err = p.Ingest(ctx, store.Document{ID: "doc", Content: "changed content"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexDimensionMismatch))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Chunk.Text, "original")
}

func TestPipeline_ZeroChunkOverlapIsRespected(t *testing.T) {
	idx, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	reg := provider.NewRegistry()
	gen := primary()
	reg.Register(gen.name, gen)
	require.NoError(t, reg.SetDefault("primary/primary-model"))

	p, err := rag.New(&hashEmbedder{}, idx, reg, rag.Options{ChunkSize: 100, ChunkOverlap: 0}, nil)
	require.NoError(t, err)

	res, err := p.Ingest(context.Background(), store.Document{ID: "doc", Content: strings.Repeat("a", 200)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunkCount)

	info, err := p.SystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, info.ChunkOverlap)
}

func TestPipeline_ZeroTemperatureReachesBackend(t *testing.T) {
	gen := primary()
	p, _ := newPipeline(t, gen)

	_, err := p.Ask(context.Background(), "how deterministic is this?", 1)
	require.NoError(t, err)
	require.NotNil(t, gen.lastReq.Temperature)
	assert.Equal(t, 0.0, *gen.lastReq.Temperature)
}

func TestPipeline_IngestEmptyDocumentFails(t *testing.T) {
	p, _ := newPipeline(t, primary())

	_, err := p.Ingest(context.Background(), store.Document{ID: "doc", Content: "   "})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestEmptyDocument))

	stats, statsErr := p.Stats(context.Background())
	require.NoError(t, statsErr)
	assert.EqualValues(t, 0, stats.ChunkCount)
}

func TestPipeline_IngestEmbedFailureLeavesIndexUnchanged(t *testing.T) {
	idx, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	reg := provider.NewRegistry()
	gen := primary()
	reg.Register(gen.name, gen)
	require.NoError(t, reg.SetDefault("primary/primary-model"))

	embedErr := ragerr.New(ragerr.CodeEmbedBackendFailure, "backend down")
	p, err := rag.New(&hashEmbedder{err: embedErr}, idx, reg, rag.Options{}, nil)
	require.NoError(t, err)

	_, err = p.Ingest(context.Background(), store.Document{ID: "doc", Content: "content"})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeEmbedBackendFailure))

	count, countErr := idx.Count(context.Background())
	require.NoError(t, countErr)
	assert.EqualValues(t, 0, count)
}

func TestPipeline_AskEmptyIndexStillGenerates(t *testing.T) {
	gen := primary()
	gen.reply = "I have no relevant information."
	p, _ := newPipeline(t, gen)

	answer, err := p.Ask(context.Background(), "anything?", 3)
	require.NoError(t, err)
	assert.Equal(t, "I have no relevant information.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, gen.lastReq.Prompt, "no relevant context")
}

func TestPipeline_AskFailsOverToNextBackend(t *testing.T) {
	broken := &scriptedGenerator{
		name:      "broken",
		err:       ragerr.New(ragerr.CodeGenerateBackendFailure, "upstream 500"),
		available: true,
	}
	backup := &scriptedGenerator{name: "backup", reply: "from backup", available: true}
	p, _ := newPipeline(t, broken, backup)

	answer, err := p.Ask(context.Background(), "question?", 1)
	require.NoError(t, err)
	assert.Equal(t, "from backup", answer.Text)
	assert.Equal(t, "backup", answer.Provider)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestPipeline_AskTimeoutSurfacesImmediately(t *testing.T) {
	stalled := &scriptedGenerator{
		name:      "stalled",
		err:       ragerr.New(ragerr.CodeGenerateTimeout, "deadline exceeded"),
		available: true,
	}
	backup := &scriptedGenerator{name: "backup", reply: "never used", available: true}
	p, _ := newPipeline(t, stalled, backup)

	_, err := p.Ask(context.Background(), "question?", 1)
	require.Error(t, err)
	assert.True(t, ragerr.IsTimeout(err))
	assert.Equal(t, 0, backup.calls)
}

func TestPipeline_AskCanceledSurfacesImmediately(t *testing.T) {
	abandoned := &scriptedGenerator{
		name:      "abandoned",
		err:       ragerr.New(ragerr.CodeGenerateCanceled, "caller gone"),
		available: true,
	}
	backup := &scriptedGenerator{name: "backup", reply: "never used", available: true}
	p, _ := newPipeline(t, abandoned, backup)

	_, err := p.Ask(context.Background(), "question?", 1)
	require.Error(t, err)
	assert.True(t, ragerr.IsCanceled(err))
	assert.Equal(t, 0, backup.calls)
}

func TestPipeline_AskNegativeKIsRejected(t *testing.T) {
	gen := primary()
	p, _ := newPipeline(t, gen)

	_, err := p.Ask(context.Background(), "question?", -1)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRequestInvalidArgument))
	assert.Equal(t, 0, gen.calls)
}

func TestPipeline_AskAllBackendsFail(t *testing.T) {
	a := &scriptedGenerator{name: "a", err: ragerr.New(ragerr.CodeGenerateBackendFailure, "down"), available: true}
	b := &scriptedGenerator{name: "b", err: ragerr.New(ragerr.CodeGenerateTransportFailure, "refused"), available: true}
	p, _ := newPipeline(t, a, b)

	_, err := p.Ask(context.Background(), "question?", 1)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeGenerateTransportFailure))
}

func TestPipeline_AskInvalidQuestion(t *testing.T) {
	p, _ := newPipeline(t, primary())

	_, err := p.Ask(context.Background(), "  ", 3)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRequestInvalidArgument))
}

func TestPipeline_ClearIndex(t *testing.T) {
	p, _ := newPipeline(t, primary())
	ctx := context.Background()

	_, err := p.Ingest(ctx, store.Document{ID: "doc", Content: "content to forget"})
	require.NoError(t, err)

	require.NoError(t, p.ClearIndex(ctx))

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.DocumentCount)
	assert.EqualValues(t, 0, stats.ChunkCount)
}

func TestPipeline_Summarize(t *testing.T) {
	gen := primary()
	gen.reply = "  a short summary \n"
	p, _ := newPipeline(t, gen)

	summary, err := p.Summarize(context.Background(), "long text to compress", 50)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary)
	assert.Contains(t, gen.lastReq.Prompt, "50 words or less")

	_, err = p.Summarize(context.Background(), "  ", 50)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeRequestInvalidArgument))
}

func TestPipeline_GenerateQuestions(t *testing.T) {
	gen := primary()
	gen.reply = "1. What is raglet?\n2. How does chunking work?\n3. Why sqlite?\n4. Extra question?"
	p, _ := newPipeline(t, gen)

	questions, err := p.GenerateQuestions(context.Background(), "some text", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"What is raglet?",
		"How does chunking work?",
		"Why sqlite?",
	}, questions)
}

func TestPipeline_SystemInfo(t *testing.T) {
	p, _ := newPipeline(t, primary())
	ctx := context.Background()

	_, err := p.Ingest(ctx, store.Document{ID: "doc", Content: "content"})
	require.NoError(t, err)

	info, err := p.SystemInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary"}, info.Providers)
	assert.Equal(t, "hash", info.EmbeddingBackend)
	assert.Equal(t, 3, info.Dimensions)
	assert.Equal(t, 100, info.ChunkSize)
	assert.Equal(t, 20, info.ChunkOverlap)
	assert.Equal(t, rag.DefaultTopK, info.TopK)
	assert.EqualValues(t, 1, info.DocumentCount)
	assert.EqualValues(t, 1, info.ChunkCount)
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "numbered",
			response: "1. First?\n2. Second?\n10. Tenth?",
			want:     []string{"First?", "Second?", "Tenth?"},
		},
		{
			name:     "bulleted",
			response: "- First?\n* Second?",
			want:     []string{"First?", "Second?"},
		},
		{
			name:     "mixed with prose",
			response: "Here are some questions:\n\n1. First?\n- Second?\nnot a question line",
			want:     []string{"First?", "Second?"},
		},
		{
			name:     "empty",
			response: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rag.ParseQuestions(tt.response))
		})
	}
}
