// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package provider

import (
	"context"
	"errors"
	"net"
	"net/url"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// ClassifyGenerateErr maps a raw SDK or transport error from a
// generation call to the taxonomy. Deadline expiry becomes a timeout,
// caller cancellation its own canceled code (the remedy differs: a
// timed-out request may be retried, a canceled one had its caller walk
// away), connection-level trouble a transport failure, and everything
// else an upstream backend failure. Errors already carrying a code
// pass through unchanged.
func ClassifyGenerateErr(err error, backend string) error {
	if err == nil {
		return nil
	}
	if ragerr.CodeOf(err) != "" {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ragerr.Wrap(err, ragerr.CodeGenerateTimeout, "generation deadline exceeded", ragerr.FieldBackend(backend))
	}
	if errors.Is(err, context.Canceled) {
		return ragerr.Wrap(err, ragerr.CodeGenerateCanceled, "generation canceled by caller", ragerr.FieldBackend(backend))
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ragerr.Wrap(err, ragerr.CodeGenerateTimeout, "generation request timed out", ragerr.FieldBackend(backend))
	}

	var opErr *net.OpError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return ragerr.Wrap(err, ragerr.CodeGenerateTransportFailure, "generation transport failure", ragerr.FieldBackend(backend))
	}

	return ragerr.Wrap(err, ragerr.CodeGenerateBackendFailure, "generation backend failure", ragerr.FieldBackend(backend))
}
