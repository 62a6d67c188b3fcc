// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package ollama

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	ollamallm "github.com/tmc/langchaingo/llms/ollama"

	"github.com/raglet-dev/raglet/internal/provider"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// Config holds Ollama generator configuration. Model is the default
// model used when a request does not name one.
type Config struct {
	ServerURL string
	Model     string
}

// Generator produces answers through a locally served Ollama model.
type Generator struct {
	llm    *ollamallm.LLM
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new Ollama generator. Returns an error if the default
// model is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.Model == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "ollama: missing model in config", ragerr.FieldProvider("ollama"))
	}

	opts := []ollamallm.Option{ollamallm.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollamallm.WithServerURL(cfg.ServerURL))
	}

	llm, err := ollamallm.New(opts...)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeGenerateBackendFailure, "ollama: creating client", ragerr.FieldProvider("ollama"))
	}

	tracker, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Generator{
		llm:    llm,
		config: cfg,
		health: tracker,
	}, nil
}

func (g *Generator) Name() string { return "ollama" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) RecordFailure() { g.health.RecordFailure() }
func (g *Generator) RecordSuccess() { g.health.RecordSuccess() }

// Metrics exposes the health tracker snapshot.
func (g *Generator) Metrics() health.Metrics { return g.health.Metrics() }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	opts := []llms.CallOption{}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := g.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		g.health.RecordFailure()
		return provider.Response{}, provider.ClassifyGenerateErr(err, "ollama")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		g.health.RecordFailure()
		return provider.Response{}, ragerr.New(ragerr.CodeGenerateResponseInvalid,
			"ollama: response has no content", ragerr.FieldProvider("ollama"))
	}

	g.health.RecordSuccess()
	model := req.Model
	if model == "" {
		model = g.config.Model
	}
	return provider.Response{
		Text:  resp.Choices[0].Content,
		Model: model,
	}, nil
}

func (g *Generator) Close() error { return nil }
