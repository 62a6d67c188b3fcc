// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package embed

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// openaiMaxBatch caps how many inputs go into one embeddings request.
const openaiMaxBatch = 96

// OpenAIConfig holds configuration for the OpenAI-compatible embedding
// backend. BaseURL may point at any compatible endpoint.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// OpenAI embeds text through the OpenAI embeddings API.
type OpenAI struct {
	client openaisdk.Client
	config OpenAIConfig
}

// Compile-time interface check.
var _ Embedder = (*OpenAI)(nil)

// NewOpenAI creates the backend. Dimensions must match the model's
// output dimensionality; it fixes the index dimensionality downstream.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "openai embedder: missing api key", ragerr.FieldBackend("openai"))
	}
	if cfg.Model == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "openai embedder: missing model", ragerr.FieldBackend("openai"))
	}
	if cfg.Dimensions < 1 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "openai embedder: dimensions must be >= 1, got %d", cfg.Dimensions)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (e *OpenAI) Name() string { return "openai" }

func (e *OpenAI) Dimensions() int { return e.config.Dimensions }

func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openaiMaxBatch {
		end := start + openaiMaxBatch
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *OpenAI) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.config.Model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: batch,
		},
	})
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeEmbedBackendFailure, "openai embeddings request", ragerr.FieldBackend("openai"))
	}

	if len(resp.Data) != len(batch) {
		return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
			"openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
	}

	vectors := make([][]float32, len(batch))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(batch) {
			return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid, "openai embeddings: index %d out of range", idx)
		}
		if len(item.Embedding) != e.config.Dimensions {
			return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
				"openai embeddings: vector has %d dimensions, expected %d", len(item.Embedding), e.config.Dimensions)
		}
		vec := make([]float32, len(item.Embedding))
		for i, f := range item.Embedding {
			vec[i] = float32(f)
		}
		vectors[idx] = vec
	}
	return vectors, nil
}
