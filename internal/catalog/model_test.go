package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFromRows_PreservesOrderAndFields(t *testing.T) {
	// given
	rows := []Row{
		{ID: "b", Name: "Lamp", Price: 19.5, OldPrice: ptr(25.0), Category: "Home", Sale: true, Rating: ptr(4.5), ReviewCount: ptr(int32(12)), CreatedAt: time.Now()},
		{ID: "a", Name: "Book", Price: 9, Category: "Books", New: true},
	}
	// when
	products := FromRows(rows)
	// then
	require.Len(t, products, 2)
	assert.Equal(t, "b", products[0].ID)
	assert.Equal(t, "a", products[1].ID)
	assert.Equal(t, 25.0, *products[0].OldPrice)
	assert.Equal(t, int32(12), *products[0].ReviewCount)
	assert.True(t, products[0].Sale)
	assert.True(t, products[1].New)
	assert.Nil(t, products[1].OldPrice)
}

func TestFromRows_EmptyIsNotNil(t *testing.T) {
	products := FromRows(nil)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestProduct_JSONShape(t *testing.T) {
	// given
	p := FromRow(Row{ID: "x", Name: "Mug", Price: 12.99, OldPrice: ptr(15.0), ReviewCount: ptr(int32(3))})
	// when
	data, err := json.Marshal(p)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	// then
	assert.Equal(t, 12.99, doc["price"], "price must be a JSON number")
	assert.Equal(t, 15.0, doc["oldPrice"])
	assert.Equal(t, 3.0, doc["reviewCount"])
	assert.NotContains(t, doc, "old_price")
	assert.NotContains(t, doc, "rating")
}

func TestInput_Normalize(t *testing.T) {
	// given
	in := Input{Name: "  Chair ", Category: " Home", OldPrice: ptr(0.0)}
	// when
	out := in.Normalize()
	// then
	assert.Equal(t, "Chair", out.Name)
	assert.Equal(t, "Home", out.Category)
	assert.Nil(t, out.OldPrice)
	require.NotNil(t, out.Rating)
	require.NotNil(t, out.ReviewCount)
	assert.Zero(t, *out.Rating)
	assert.Zero(t, *out.ReviewCount)
}

func TestFilter_Match(t *testing.T) {
	p := Product{Name: "Wireless Headphones", Description: "Noise cancelling", Category: "Electronics", Featured: true}
	testCases := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{name: "empty filter", filter: Filter{}, expected: true},
		{name: "category case-insensitive", filter: Filter{Category: "electronics"}, expected: true},
		{name: "other category", filter: Filter{Category: "Books"}, expected: false},
		{name: "featured", filter: Filter{Featured: ptr(true)}, expected: true},
		{name: "not on sale", filter: Filter{Sale: ptr(true)}, expected: false},
		{name: "query in name", filter: Filter{Query: "HEADPHONES"}, expected: true},
		{name: "query in description", filter: Filter{Query: "noise"}, expected: true},
		{name: "query miss", filter: Filter{Query: "kettle"}, expected: false},
		{name: "combined", filter: Filter{Category: "Electronics", New: ptr(false), Query: "wireless"}, expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter.Match(p))
		})
	}
}
