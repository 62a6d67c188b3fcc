// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package config

import (
	"os"

	"gopkg.in/yaml.v3"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// WriteDefault writes a commented-free starter config file to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return ragerr.Errorf(ragerr.CodeCLIInputInvalid, "config file already exists: %s", path)
	}

	defaults := map[string]any{
		"server": map[string]any{
			"listen":       "127.0.0.1:8080",
			"cors_origins": []string{"*"},
		},
		"storage": map[string]any{
			"backend":  "sqlite",
			"data_dir": "./data",
		},
		"chunking": map[string]any{
			"size":    1000,
			"overlap": 200,
		},
		"embedding": map[string]any{
			"backend":    "ollama",
			"model":      "nomic-embed-text",
			"dimensions": 768,
		},
		"models": map[string]any{
			"default":  "ollama/llama3.2",
			"failover": []string{},
		},
		"providers": map[string]any{
			"ollama": map[string]any{
				"endpoint": "http://localhost:11434",
				"model":    "llama3.2",
			},
		},
		"ask": map[string]any{
			"top_k":             3,
			"temperature":       0.7,
			"max_context_chars": 8000,
			"timeout_seconds":   120,
		},
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "marshalling default config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "writing %s", path)
	}
	return nil
}
