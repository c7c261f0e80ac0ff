// Package domain holds the identifier and enum types shared across the
// audit service. Parse functions enforce format invariants at trust
// boundaries; internal code passes the typed values around.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "finaudit/pkg/domain-errors"
)

// AuditID identifies one completed pipeline run. The format is "aud_"
// followed by the first eight hex characters of a v4 UUID, assigned once at
// pipeline start and never reused, even when a request is retried.
type AuditID string

var auditIDPattern = regexp.MustCompile(`^aud_[0-9a-f]{8}$`)

// NewAuditID generates a fresh audit identifier.
func NewAuditID() AuditID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return AuditID("aud_" + raw[:8])
}

// ParseAuditID validates an externally supplied audit id.
func ParseAuditID(s string) (AuditID, error) {
	if !auditIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "malformed audit id")
	}
	return AuditID(s), nil
}

func (a AuditID) String() string { return string(a) }

// IsZero reports whether the id is unset.
func (a AuditID) IsZero() bool { return a == "" }

// RequesterID identifies who asked for an audit. It is opaque to the core:
// callers supply a chat-platform user id, a web session id, or a JWT subject.
type RequesterID string

const maxRequesterIDLen = 128

// ParseRequesterID validates an externally supplied requester id.
func ParseRequesterID(s string) (RequesterID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "requester id is required")
	}
	if len(trimmed) > maxRequesterIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "requester id too long")
	}
	return RequesterID(trimmed), nil
}

func (r RequesterID) String() string { return string(r) }

// IsZero reports whether the id is unset.
func (r RequesterID) IsZero() bool { return r == "" }
