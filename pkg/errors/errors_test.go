// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := ragerr.New(
		ragerr.CodeIndexDuplicateID,
		"chunk id already present",
		ragerr.FieldDocumentID("doc-1"),
		ragerr.FieldChunkID("doc-1:3"),
	)

	require.Error(t, err)
	assert.Equal(t, ragerr.CodeIndexDuplicateID, ragerr.CodeOf(err))
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexDuplicateID))

	fields := ragerr.FieldsOf(err)
	assert.Equal(t, "doc-1", fields["document_id"])
	assert.Equal(t, "doc-1:3", fields["chunk_id"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := ragerr.Errorf(ragerr.CodeEmbedBackendFailure, "embedding %d texts via %s", 4, "ollama")
	require.Error(t, err)
	assert.Equal(t, ragerr.CodeEmbedBackendFailure, ragerr.CodeOf(err))
	assert.Contains(t, err.Error(), "embedding 4 texts via ollama")
}

func TestWrapPreservesInnerError(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := ragerr.Wrap(inner, ragerr.CodeGenerateTransportFailure, "calling backend", ragerr.FieldProvider("openai"))
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ragerr.CodeGenerateTransportFailure, ragerr.CodeOf(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, ragerr.Wrap(nil, ragerr.CodeIndexDatabaseFailure, "ignored"))
	assert.NoError(t, ragerr.Wrapf(nil, ragerr.CodeIndexDatabaseFailure, "ignored %d", 1))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ragerr.Code(""), ragerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, ragerr.Code(""), ragerr.CodeOf(nil))
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"timeout", ragerr.New(ragerr.CodeGenerateTimeout, "deadline exceeded"), ragerr.IsTimeout, true},
		{"timeout negative", ragerr.New(ragerr.CodeGenerateBackendFailure, "rejected"), ragerr.IsTimeout, false},
		{"canceled", ragerr.New(ragerr.CodeGenerateCanceled, "caller gone"), ragerr.IsCanceled, true},
		{"canceled is not timeout", ragerr.New(ragerr.CodeGenerateCanceled, "caller gone"), ragerr.IsTimeout, false},
		{"duplicate", ragerr.New(ragerr.CodeIndexDuplicateID, "dup"), ragerr.IsDuplicateID, true},
		{"invalid k", ragerr.New(ragerr.CodeRequestInvalidArgument, "k must be >= 1"), ragerr.IsInvalidArgument, true},
		{"empty input", ragerr.New(ragerr.CodeIngestEmptyDocument, "empty"), ragerr.IsInvalidArgument, true},
		{"upstream generate", ragerr.New(ragerr.CodeGenerateBackendFailure, "500"), ragerr.IsUpstreamFailure, true},
		{"upstream embed", ragerr.New(ragerr.CodeEmbedBackendFailure, "503"), ragerr.IsUpstreamFailure, true},
		{"not upstream", ragerr.New(ragerr.CodeIndexDatabaseFailure, "db"), ragerr.IsUpstreamFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", ragerr.New(ragerr.CodeRequestInvalidArgument, "bad k"), http.StatusBadRequest},
		{"duplicate id", ragerr.New(ragerr.CodeIndexDuplicateID, "dup"), http.StatusConflict},
		{"timeout", ragerr.New(ragerr.CodeGenerateTimeout, "slow"), http.StatusGatewayTimeout},
		{"canceled", ragerr.New(ragerr.CodeGenerateCanceled, "caller gone"), 499},
		{"backend failure", ragerr.New(ragerr.CodeGenerateBackendFailure, "reject"), http.StatusBadGateway},
		{"not found", ragerr.New(ragerr.CodeIndexEntryNotFound, "missing"), http.StatusNotFound},
		{"internal", ragerr.New(ragerr.CodeServerInternalFailure, "boom"), http.StatusInternalServerError},
		{"plain error", stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ragerr.HTTPStatus(tt.err))
		})
	}
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	err := ragerr.Join(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}
