// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeIngestEmptyDocument   Code = "ingest.input.empty"
	CodeIngestUnsupportedType Code = "ingest.input.unsupported_type"
	CodeIngestLoadFailure     Code = "ingest.load.failure"

	CodeEmbedBackendFailure  Code = "embed.backend.failure"
	CodeEmbedResponseInvalid Code = "embed.response.invalid"

	CodeIndexDuplicateID       Code = "index.entry.duplicate_id"
	CodeIndexDimensionMismatch Code = "index.entry.dimension_mismatch"
	CodeIndexDatabaseFailure   Code = "index.database.failure"
	CodeIndexEntryNotFound     Code = "index.entry.not_found"

	CodeRequestInvalidArgument Code = "request.invalid_argument"

	CodeGenerateTimeout          Code = "generate.backend.timeout"
	CodeGenerateCanceled         Code = "generate.request.canceled"
	CodeGenerateTransportFailure Code = "generate.transport.failure"
	CodeGenerateBackendFailure   Code = "generate.backend.failure"
	CodeGenerateResponseInvalid  Code = "generate.response.invalid"
	CodeGenerateProviderNotFound Code = "generate.provider.not_found"
	CodeGenerateAllUnavailable   Code = "generate.routing.all_unavailable"
	CodeGenerateNoDefault        Code = "generate.routing.no_default"
	CodeGenerateInvalidModelRef  Code = "generate.routing.invalid_model_ref"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDocumentID(value string) Attr {
	return Field("document_id", value)
}

func FieldChunkID(value string) Attr {
	return Field("chunk_id", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsCanceled(err error) bool {
	return reason(CodeOf(err)) == "canceled"
}

func IsDuplicateID(err error) bool {
	return reason(CodeOf(err)) == "duplicate_id"
}

func IsInvalidArgument(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid_argument" || r == "invalid" || r == "invalid_value" ||
		r == "invalid_model_ref" || r == "empty" || r == "unsupported_type"
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsUpstreamFailure(err error) bool {
	code := string(CodeOf(err))
	return (strings.HasPrefix(code, "generate.") || strings.HasPrefix(code, "embed.")) &&
		reason(Code(code)) == "failure"
}

// HTTPStatus maps an error code to the status the API edge should return.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsDuplicateID(err):
		return http.StatusConflict
	case IsInvalidArgument(err):
		return http.StatusBadRequest
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsCanceled(err):
		// Nginx's non-standard "client closed request": the caller is
		// gone, the status is for logs and middleware only.
		return 499
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
