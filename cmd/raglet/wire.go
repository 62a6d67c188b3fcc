// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/raglet-dev/raglet/internal/config"
	"github.com/raglet-dev/raglet/internal/embed"
	"github.com/raglet-dev/raglet/internal/provider"
	"github.com/raglet-dev/raglet/internal/provider/anthropic"
	"github.com/raglet-dev/raglet/internal/provider/google"
	"github.com/raglet-dev/raglet/internal/provider/ollama"
	"github.com/raglet-dev/raglet/internal/provider/openai"
	"github.com/raglet-dev/raglet/internal/rag"
	"github.com/raglet-dev/raglet/internal/store"
	"github.com/raglet-dev/raglet/internal/store/sqlite"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// buildPipeline assembles the embedder, index, and provider registry
// from configuration. The returned cleanup closes the index and the
// registered providers.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*rag.Pipeline, func(), error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		_ = index.Close()
		return nil, nil, err
	}

	pipeline, err := rag.New(embedder, index, registry, rag.Options{
		ChunkSize:       cfg.Chunking.Size,
		ChunkOverlap:    cfg.Chunking.Overlap,
		TopK:            cfg.Ask.TopK,
		Temperature:     cfg.Ask.Temperature,
		MaxContextChars: cfg.Ask.MaxContextChars,
		MaxTokens:       cfg.Ask.MaxTokens,
		GenerateTimeout: time.Duration(cfg.Ask.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		_ = index.Close()
		_ = registry.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := registry.Close(); err != nil {
			logger.Error("closing providers", "error", err)
		}
		if err := index.Close(); err != nil {
			logger.Error("closing index", "error", err)
		}
	}
	return pipeline, cleanup, nil
}

func buildEmbedder(cfg *config.Config) (embed.Embedder, error) {
	switch cfg.Embedding.Backend {
	case "ollama":
		return embed.NewOllama(embed.OllamaConfig{
			ServerURL:  cfg.Embedding.Endpoint,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "openai":
		return embed.NewOpenAI(embed.OpenAIConfig{
			APIKey:     cfg.Providers["openai"].APIKey,
			BaseURL:    cfg.Embedding.Endpoint,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"unknown embedding backend %q", cfg.Embedding.Backend)
	}
}

func buildIndex(cfg *config.Config) (store.Index, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return sqlite.Open(cfg.Storage.DataDir, cfg.Embedding.Dimensions)
	case "memory":
		return store.NewMemoryIndex(cfg.Embedding.Dimensions)
	default:
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildRegistry instantiates every provider the default and failover
// refs name and wires the routing order.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*provider.Registry, error) {
	reg := provider.NewRegistry()

	for _, name := range referencedProviders(cfg) {
		g, err := buildGenerator(name, cfg.Providers[name])
		if err != nil {
			_ = reg.Close()
			return nil, err
		}
		reg.Register(name, g)
		logger.Info("registered provider", "provider", name)
	}

	if err := reg.SetDefault(cfg.Models.Default); err != nil {
		_ = reg.Close()
		return nil, err
	}
	if len(cfg.Models.Failover) > 0 {
		if err := reg.SetFailover(cfg.Models.Failover); err != nil {
			_ = reg.Close()
			return nil, err
		}
	}

	return reg, nil
}

// referencedProviders lists the distinct provider names appearing in
// the default ref and the failover chain, in first-seen order.
func referencedProviders(cfg *config.Config) []string {
	var names []string
	seen := make(map[string]bool)

	for _, ref := range append([]string{cfg.Models.Default}, cfg.Models.Failover...) {
		name, _, _ := strings.Cut(ref, "/")
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func buildGenerator(name string, pcfg config.ProviderConfig) (provider.Generator, error) {
	switch name {
	case "ollama":
		model := pcfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return ollama.New(ollama.Config{ServerURL: pcfg.Endpoint, Model: model})
	case "openai":
		return openai.New(openai.Config{APIKey: pcfg.APIKey, BaseURL: pcfg.Endpoint})
	case "anthropic":
		return anthropic.New(anthropic.Config{APIKey: pcfg.APIKey, BaseURL: pcfg.Endpoint})
	case "google":
		return google.New(google.Config{APIKey: pcfg.APIKey})
	default:
		return nil, ragerr.Errorf(ragerr.CodeGenerateProviderNotFound, "unknown provider %q", name)
	}
}
