package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "finaudit/pkg/domain-errors"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{"canonical SOX 404", "SOX 404", CategorySOX404, false},
		{"lowercase sox 404", "sox 404", CategorySOX404, false},
		{"canonical 10-K", "10-K", CategoryTenK, false},
		{"lowercase 10-k", "10-k", CategoryTenK, false},
		{"canonical 8-K", "8-K", CategoryEightK, false},
		{"invoice mixed case", "InVoIcE", CategoryInvoice, false},
		{"surrounding whitespace", "  Invoice  ", CategoryInvoice, false},
		{"unknown type", "W-2", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAuditID(t *testing.T) {
	t.Run("has the expected shape", func(t *testing.T) {
		auditID := NewAuditID()
		assert.Regexp(t, `^aud_[0-9a-f]{8}$`, auditID.String())
	})

	t.Run("consecutive ids differ", func(t *testing.T) {
		seen := map[AuditID]struct{}{}
		for range 100 {
			auditID := NewAuditID()
			_, dup := seen[auditID]
			require.False(t, dup, "duplicate audit id %s", auditID)
			seen[auditID] = struct{}{}
		}
	})
}

func TestParseAuditID(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		generated := NewAuditID()
		parsed, err := ParseAuditID(generated.String())
		require.NoError(t, err)
		assert.Equal(t, generated, parsed)
	})

	invalid := []string{
		"",
		"aud_",
		"aud_XYZ12345",
		"aud_1234567",                // too short
		"aud_123456789",              // too long
		"report_abcd1234",            // wrong prefix
		"aud_abcd1234/../../passwd",  // traversal attempt
		"aud_ABCD1234",               // uppercase hex not minted
	}
	for _, input := range invalid {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := ParseAuditID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseRequesterID(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		got, err := ParseRequesterID("  discord:123456  ")
		require.NoError(t, err)
		assert.Equal(t, RequesterID("discord:123456"), got)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseRequesterID("   ")
		require.Error(t, err)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := ParseRequesterID(strings.Repeat("a", 200))
		require.Error(t, err)
	})
}

func TestValidGapSeverity(t *testing.T) {
	assert.True(t, ValidGapSeverity(SeverityCritical))
	assert.True(t, ValidGapSeverity(SeverityHigh))
	assert.True(t, ValidGapSeverity(SeverityMedium))
	assert.False(t, ValidGapSeverity(SeverityLow))
	assert.False(t, ValidGapSeverity(Severity("severe")))
}
