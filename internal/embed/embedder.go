// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package embed

import "context"

// Embedder maps text to fixed-dimension vectors. Local on-device
// backends and remote API backends are interchangeable behind this
// contract. For a fixed backend and input the vector is reproducible;
// callers rely on that for idempotent re-ingestion.
//
// Implementations batch internally to respect backend request-size
// limits. Backend unavailability surfaces as an embed.* error; retry
// policy belongs to the caller.
type Embedder interface {
	Name() string
	Dimensions() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
