// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// Config is the top-level Raglet configuration.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Chunking  ChunkingConfig            `mapstructure:"chunking"`
	Embedding EmbeddingConfig           `mapstructure:"embedding"`
	Models    ModelsConfig              `mapstructure:"models"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Ask       AskConfig                 `mapstructure:"ask"`
}

// ServerConfig controls how the HTTP API listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StorageConfig selects the vector index backend and its location.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Backend    string `mapstructure:"backend"`
	Model      string `mapstructure:"model"`
	Endpoint   string `mapstructure:"endpoint"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ModelsConfig controls generation model selection and failover.
type ModelsConfig struct {
	Default  string   `mapstructure:"default"`
	Failover []string `mapstructure:"failover"`
}

// ProviderConfig holds credentials and endpoint for one generation
// provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// AskConfig controls the query flow.
type AskConfig struct {
	TopK            int     `mapstructure:"top_k"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxContextChars int     `mapstructure:"max_context_chars"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
}

// generationProviders is the closed set of provider names the registry
// can instantiate.
var generationProviders = map[string]bool{
	"ollama":    true,
	"openai":    true,
	"anthropic": true,
	"google":    true,
}

// embeddingBackends is the closed set of embedding backend names.
var embeddingBackends = map[string]bool{
	"ollama": true,
	"openai": true,
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix RAGLET_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("embedding.backend", "ollama")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("models.default", "ollama/llama3.2")
	v.SetDefault("ask.top_k", 3)
	v.SetDefault("ask.temperature", 0.7)
	v.SetDefault("ask.max_context_chars", 8000)
	v.SetDefault("ask.timeout_seconds", 120)

	// Environment
	v.SetEnvPrefix("RAGLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ragerr.Errorf(ragerr.CodeConfigLoadReadFailure, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateChunking()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateAsk()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w", c.Server.Listen, err))
		return errs
	}
	if port, err := strconv.Atoi(portStr); err != nil || port < 1 || port > 65535 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be 1-65535, got %q", portStr))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.DataDir == "" {
			errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
				"config: storage.data_dir must not be empty when storage.backend is sqlite"))
		}
	case "memory":
	default:
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite, memory], got %q", c.Storage.Backend))
	}

	return errs
}

func (c *Config) validateChunking() []error {
	var errs []error

	if c.Chunking.Size < 1 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: chunking.size must be >= 1, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || (c.Chunking.Size >= 1 && c.Chunking.Overlap >= c.Chunking.Size) {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: chunking.overlap must be in [0, size), got %d with size %d", c.Chunking.Overlap, c.Chunking.Size))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	if !embeddingBackends[c.Embedding.Backend] {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: embedding.backend must be one of [ollama, openai], got %q", c.Embedding.Backend))
	}
	if c.Embedding.Model == "" {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: embedding.model must not be empty"))
	}
	if c.Embedding.Dimensions < 1 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be >= 1, got %d", c.Embedding.Dimensions))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if err := validateModelRef("models.default", c.Models.Default); err != nil {
		errs = append(errs, err)
	}
	for i, ref := range c.Models.Failover {
		if err := validateModelRef("models.failover["+strconv.Itoa(i)+"]", ref); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (c *Config) validateAsk() []error {
	var errs []error

	if c.Ask.TopK < 1 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: ask.top_k must be >= 1, got %d", c.Ask.TopK))
	}
	if c.Ask.Temperature < 0 || c.Ask.Temperature > 2 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: ask.temperature must be in [0, 2], got %g", c.Ask.Temperature))
	}
	if c.Ask.MaxContextChars < 1 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: ask.max_context_chars must be >= 1, got %d", c.Ask.MaxContextChars))
	}
	if c.Ask.TimeoutSeconds < 1 {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: ask.timeout_seconds must be >= 1, got %d", c.Ask.TimeoutSeconds))
	}

	return errs
}

// validateModelRef requires "provider/model" with a known provider
// name on the left.
func validateModelRef(field, ref string) error {
	provName, model, ok := strings.Cut(ref, "/")
	if !ok || model == "" {
		return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: %s must use provider/model format, got %q", field, ref)
	}
	if !generationProviders[provName] {
		return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"config: %s names unknown provider %q (known: ollama, openai, anthropic, google)", field, provName)
	}
	return nil
}
