// Package errors provides the sentinel errors shared by the storefront packages.
package errors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidProductID  = errors.New("invalid product ID")
	ErrDeleteNotVerified = errors.New("product still exists after delete")

	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrUnknownSection   = errors.New("unknown settings section")

	ErrOrderNotFound = errors.New("order not found")
	ErrEmailMismatch = errors.New("email does not match order")
	ErrEmptyCart     = errors.New("cart is empty")
)

// ValidationError reports input rejected before any gateway round trip.
// Fields maps the offending field to the rule it failed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(" ")
		b.WriteString(e.Fields[k])
		b.WriteString(";")
	}
	return b.String()
}
