// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

// Package provider defines the generation backend abstraction and the
// registry that routes answer-generation requests across a closed set
// of configured backends.
package provider

import (
	"context"
)

// Generator is the core interface for answer-generation backends.
// Implementations must honor ctx cancellation and deadlines, and must
// classify transport, timeout, and upstream failures through the
// package error taxonomy so callers can react per class.
type Generator interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, req Request) (Response, error)
	Close() error
}

// HealthReporter is implemented by generators that track their own
// failure state. The registry uses it to record routing outcomes.
type HealthReporter interface {
	RecordSuccess()
	RecordFailure()
}

// Request is a single non-streaming completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float64
	MaxTokens   int
}

// Response carries the generated text plus token accounting where the
// backend reports it.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
