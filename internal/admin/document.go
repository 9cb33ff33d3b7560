// Package admin holds the back-office configuration documents: categories,
// store settings and newsletter subscribers.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
)

const (
	CategoriesKey = "custom_categories"
	SettingsKey   = "store_settings"
	NewsletterKey = "newsletter_subscribers"
)

// load reads the document at key. A missing key yields def() and written reports false.
func load[T any](ctx context.Context, store kv.Store, key string, def func() T) (doc T, written bool, err error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return def(), false, nil
	}
	if err != nil {
		return doc, false, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return doc, true, nil
}

func save[T any](ctx context.Context, store kv.Store, key string, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Put(ctx, key, data)
}

func validationError(validate *validator.Validate, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if fields, ok := web.FieldErrors(err); ok {
		return &serrors.ValidationError{Fields: fields}
	}
	return err
}
