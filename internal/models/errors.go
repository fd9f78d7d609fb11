package models

import (
	"errors"
	"fmt"
)

// Application-specific error codes surfaced in API responses.
const (
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeNormalization = "NORMALIZATION_ERROR"
	ErrorCodeApply         = "APPLY_ERROR"
	ErrorCodePreview       = "PREVIEW_ERROR"
	ErrorCodeNotFound      = "NOT_FOUND"
)

// ErrNotFound marks lookups for projects, extractions or uploads that do not
// exist. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a malformed or inconsistent entity graph payload.
// Subject names the offending entity, attribute or relationship.
type ValidationError struct {
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.Subject, e.Message)
	}
	return "validation failed: " + e.Message
}

// NormalizationError means the entity graph cannot be mapped to a satisfiable
// relational schema. It is fatal for the extraction and never retried.
type NormalizationError struct {
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (e *NormalizationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("normalization failed for %q: %s", e.Subject, e.Message)
	}
	return "normalization failed: " + e.Message
}

// ApplyError reports a DDL execution or schema-drift conflict. The project
// database is left unchanged when it is returned.
type ApplyError struct {
	Table  string `json:"table,omitempty"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e *ApplyError) Error() string {
	msg := "apply failed"
	if e.Table != "" {
		msg += fmt.Sprintf(" for table %q", e.Table)
	}
	msg += ": " + e.Reason
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// PreviewError flags an introspection failure. Preview responses carry it as
// an error field next to an empty table list instead of failing the request.
type PreviewError struct {
	Detail string `json:"detail"`
}

func (e *PreviewError) Error() string {
	return "preview failed: " + e.Detail
}
