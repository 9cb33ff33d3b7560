package admin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	testCases := map[string]string{
		"Home Decor":        "home-decor",
		"  Garden   Tools ": "garden-tools",
		"Books":             "books",
		"Medicine & Health": "medicine-and-health",
		"Café Crème":        "cafe-creme",
	}
	for in, expected := range testCases {
		assert.Equal(t, expected, Slug(in), in)
	}
}

func TestCategories_ListSeedsDefaults(t *testing.T) {
	// given
	store := kv.NewMemoryStore()
	c := NewCategories(store)
	// when
	categories, err := c.List(context.Background())
	// then
	require.NoError(t, err)
	require.Len(t, categories, 6)
	assert.Equal(t, "books", categories[0].ID)

	raw, err := store.Get(context.Background(), CategoriesKey)
	require.NoError(t, err, "defaults are persisted on first read")
	var stored []Category
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 6)
}

func TestCategories_Save(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		input     Category
		expectID  string
		expectErr error
		expectLen int
	}{
		{name: "create derives slug", input: Category{Name: "Home Decor", ProductCount: 3}, expectID: "home-decor", expectLen: 7},
		{name: "edit keeps id", id: "books", input: Category{Name: "Rare Books"}, expectID: "books", expectLen: 6},
		{name: "edit missing", id: "nope", input: Category{Name: "X"}, expectErr: serrors.ErrCategoryNotFound},
		{name: "blank name", input: Category{Name: "   "}, expectErr: serrors.ErrInvalidCategory},
		{name: "duplicate slug", input: Category{Name: "Books"}, expectErr: serrors.ErrInvalidCategory},
		{name: "negative count", input: Category{Name: "Toys", ProductCount: -1}, expectErr: serrors.ErrInvalidCategory},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := NewCategories(kv.NewMemoryStore())
			ctx := context.Background()
			// when
			saved, err := c.Save(ctx, tc.id, tc.input)
			// then
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectID, saved.ID)
			all, err := c.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, tc.expectLen)
			assert.Equal(t, tc.input.Name, all[indexOf(all, tc.expectID)].Name)
		})
	}
}

func TestCategories_BlankNameCarriesFieldErrors(t *testing.T) {
	c := NewCategories(kv.NewMemoryStore())
	_, err := c.Save(context.Background(), "", Category{})
	var vErr *serrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
}

func TestCategories_Delete(t *testing.T) {
	// given
	c := NewCategories(kv.NewMemoryStore())
	ctx := context.Background()
	// when
	err := c.Delete(ctx, "health")
	// then
	require.NoError(t, err)
	all, _ := c.List(ctx)
	assert.Len(t, all, 5)
	assert.Negative(t, indexOf(all, "health"))
	assert.ErrorIs(t, c.Delete(ctx, "health"), serrors.ErrCategoryNotFound)
}

func TestCategories_DeletingEverythingDoesNotReseed(t *testing.T) {
	c := NewCategories(kv.NewMemoryStore())
	ctx := context.Background()
	for _, cat := range DefaultCategories() {
		require.NoError(t, c.Delete(ctx, cat.ID))
	}
	all, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}
