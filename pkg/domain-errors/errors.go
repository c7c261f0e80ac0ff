// Package domainerrors provides coded errors for the audit service.
//
// Services attach a Code so the transport layer can pick an HTTP status and a
// machine-readable error string without inspecting error text. Wrapped causes
// stay reachable through errors.Is/errors.As for callers that need the
// underlying infrastructure fact.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for propagation policy and HTTP mapping.
type Code string

const (
	// CodeInvalidInput marks request validation failures: bad category,
	// missing fields, oversized or empty documents. Pipeline never starts.
	CodeInvalidInput Code = "invalid_input"

	// CodeExtractionFailed marks a declared extraction failure from the
	// document-extraction collaborator: corrupt, empty, or encrypted input.
	CodeExtractionFailed Code = "extraction_failed"

	// CodeDocumentRejected marks a Gatekeeper rejection: the upload is not a
	// legitimate instance of its declared category. Distinct from input
	// errors so callers can present it differently.
	CodeDocumentRejected Code = "document_rejected"

	// CodeNotFound marks a missing audit or report artifact.
	CodeNotFound Code = "not_found"

	// CodeTimeout marks an external call that exceeded its deadline where
	// the failure could not be absorbed by a stage fallback.
	CodeTimeout Code = "timeout"

	// CodeInternal marks everything else. Descriptions are never shown to
	// callers for this code.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err returns
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or empty when the error
// carries none. Transport uses this for caller-visible descriptions.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
