package admin

import (
	"context"
	"testing"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_GetDefaults(t *testing.T) {
	s := NewSettingsService(kv.NewMemoryStore())
	settings, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	assert.Equal(t, 7.5, settings.Tax.TaxRate)
}

func TestSettings_Save(t *testing.T) {
	testCases := []struct {
		name      string
		section   string
		payload   string
		expectErr error
		check     func(t *testing.T, s Settings)
	}{
		{
			name:    "partial store update keeps other fields",
			section: SectionStore,
			payload: `{"storeName":"Gadget Hub"}`,
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, "Gadget Hub", s.Store.StoreName)
				assert.Equal(t, "contact@fashionstore.com", s.Store.StoreEmail)
			},
		},
		{
			name:    "toggle email flag",
			section: SectionEmail,
			payload: `{"enableAbandonedCart":true}`,
			check: func(t *testing.T, s Settings) {
				assert.True(t, s.Email.EnableAbandonedCart)
				assert.True(t, s.Email.AdminEmailCopy)
			},
		},
		{
			name:    "tax rate",
			section: SectionTax,
			payload: `{"taxRate":20}`,
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, 20.0, s.Tax.TaxRate)
			},
		},
		{name: "tax rate out of range", section: SectionTax, payload: `{"taxRate":120}`, expectErr: &serrors.ValidationError{}},
		{name: "bad email", section: SectionStore, payload: `{"storeEmail":"nope"}`, expectErr: &serrors.ValidationError{}},
		{name: "unknown field", section: SectionTax, payload: `{"vat":1}`, expectErr: &serrors.ValidationError{}},
		{name: "unknown section", section: "shipping", payload: `{}`, expectErr: serrors.ErrUnknownSection},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			s := NewSettingsService(kv.NewMemoryStore())
			ctx := context.Background()
			// when
			saved, err := s.Save(ctx, tc.section, []byte(tc.payload))
			// then
			if tc.expectErr != nil {
				if _, ok := tc.expectErr.(*serrors.ValidationError); ok {
					var vErr *serrors.ValidationError
					assert.ErrorAs(t, err, &vErr)
				} else {
					assert.ErrorIs(t, err, tc.expectErr)
				}
				stored, _ := s.Get(ctx)
				assert.Equal(t, DefaultSettings(), stored, "rejected saves leave the document untouched")
				return
			}
			require.NoError(t, err)
			tc.check(t, saved)
			stored, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, saved, stored)
		})
	}
}
