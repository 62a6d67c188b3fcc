// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/raglet-dev/raglet/internal/provider"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// Config holds OpenAI generator configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator produces answers through the OpenAI Chat Completions API.
type Generator struct {
	client openaisdk.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new OpenAI generator. Returns an error if the API key
// is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "openai: missing api_key in config", ragerr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	tracker, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) RecordFailure() { g.health.RecordFailure() }
func (g *Generator) RecordSuccess() { g.health.RecordSuccess() }

// Metrics exposes the health tracker snapshot.
func (g *Generator) Metrics() health.Metrics { return g.health.Metrics() }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	params := buildParams(req)

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return provider.Response{}, provider.ClassifyGenerateErr(err, "openai")
	}

	if len(resp.Choices) == 0 {
		g.health.RecordFailure()
		return provider.Response{}, ragerr.New(ragerr.CodeGenerateResponseInvalid,
			"openai: response has no choices", ragerr.FieldProvider("openai"))
	}

	g.health.RecordSuccess()
	return provider.Response{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: provider.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (g *Generator) Close() error { return nil }

// buildParams converts a provider.Request into OpenAI SDK ChatCompletionNewParams.
func buildParams(req provider.Request) openaisdk.ChatCompletionNewParams {
	var msgs []openaisdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.System))
	}
	msgs = append(msgs, openaisdk.UserMessage(req.Prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	return params
}
