package domain

import (
	"fmt"
	"strings"

	dErrors "finaudit/pkg/domain-errors"
)

// Category is the declared financial-document type driving which compliance
// rule set applies to an audit.
type Category string

const (
	CategorySOX404  Category = "SOX 404"
	CategoryTenK    Category = "10-K"
	CategoryEightK  Category = "8-K"
	CategoryInvoice Category = "Invoice"
)

// Categories lists every supported document category in display order.
func Categories() []Category {
	return []Category{CategorySOX404, CategoryTenK, CategoryEightK, CategoryInvoice}
}

// ParseCategory normalizes a caller-supplied category. Matching is
// case-insensitive; the canonical spelling is returned.
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if normalized == strings.ToLower(string(c)) {
			return c, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput,
		fmt.Sprintf("unsupported category %q, expected one of: %s", s, joinCategories()))
}

func (c Category) String() string { return string(c) }

// IsValid reports whether the category is one of the supported four.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func joinCategories() string {
	names := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
