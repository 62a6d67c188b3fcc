// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/raglet-dev/raglet/internal/provider"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/raglet-dev/raglet/pkg/health"
)

// defaultMaxTokens is used when the request does not cap output length;
// the Messages API requires an explicit limit.
const defaultMaxTokens = 4096

// Config holds Anthropic generator configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator produces answers through the Anthropic Messages API.
type Generator struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new Anthropic generator. Returns an error if the API
// key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "anthropic: missing api_key in config", ragerr.FieldProvider("anthropic"))
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
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

func (g *Generator) Name() string { return "anthropic" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) RecordFailure() { g.health.RecordFailure() }
func (g *Generator) RecordSuccess() { g.health.RecordSuccess() }

// Metrics exposes the health tracker snapshot.
func (g *Generator) Metrics() health.Metrics { return g.health.Metrics() }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	params := buildParams(req)

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return provider.Response{}, provider.ClassifyGenerateErr(err, "anthropic")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		g.health.RecordFailure()
		return provider.Response{}, ragerr.New(ragerr.CodeGenerateResponseInvalid,
			"anthropic: response has no text content", ragerr.FieldProvider("anthropic"))
	}

	g.health.RecordSuccess()
	return provider.Response{
		Text:  sb.String(),
		Model: string(msg.Model),
		Usage: provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func (g *Generator) Close() error { return nil }

// buildParams converts a provider.Request into Anthropic SDK MessageNewParams.
func buildParams(req provider.Request) anthropicsdk.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	}

	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.System},
		}
	}
	if req.Temperature != nil {
		params.Temperature = anthropicsdk.Float(*req.Temperature)
	}

	return params
}
