// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/raglet-dev/raglet/internal/provider"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// Config holds Google generator configuration.
type Config struct {
	APIKey string
}

// Generator produces answers through the Google Gemini API.
type Generator struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new Google generator. Returns an error if the API key
// is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "google: missing api_key in config", ragerr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeGenerateBackendFailure, "google: creating client")
	}

	tracker, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		config: cfg,
		health: tracker,
	}, nil
}

func (g *Generator) Name() string { return "google" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) RecordFailure() { g.health.RecordFailure() }
func (g *Generator) RecordSuccess() { g.health.RecordSuccess() }

// Metrics exposes the health tracker snapshot.
func (g *Generator) Metrics() health.Metrics { return g.health.Metrics() }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		g.health.RecordFailure()
		return provider.Response{}, provider.ClassifyGenerateErr(err, "google")
	}

	text := resp.Text()
	if text == "" {
		g.health.RecordFailure()
		return provider.Response{}, ragerr.New(ragerr.CodeGenerateResponseInvalid,
			"google: response has no text content", ragerr.FieldProvider("google"))
	}

	g.health.RecordSuccess()
	out := provider.Response{Text: text, Model: req.Model}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

func (g *Generator) Close() error { return nil }
