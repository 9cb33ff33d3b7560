package events

import (
	"testing"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProductChanged(t *testing.T) {
	testCases := []struct {
		name      string
		data      []byte
		expected  ChangeKind
		expectErr bool
	}{
		{name: "valid payload", data: mustPayload(t, ProductChangedEvent{Kind: ChangeDelete, ProductID: "a"}), expected: ChangeDelete},
		{name: "missing kind", data: []byte(`{"product_id":"a"}`), expected: ChangeUnknown},
		{name: "garbage", data: []byte("not json"), expected: ChangeUnknown, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			e, err := DecodeProductChanged(tc.data)
			// then
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, e.Kind)
		})
	}
}

func TestProductChangedEvent_Subject(t *testing.T) {
	assert.Equal(t, messaging.ProductsChangedSubject, ProductChangedEvent{}.Subject())
	assert.Equal(t, messaging.OrdersPlacedSubject, OrderPlacedEvent{CreatedAt: time.Now()}.Subject())
}

func mustPayload(t *testing.T, e ProductChangedEvent) []byte {
	t.Helper()
	data, err := e.Payload()
	require.NoError(t, err)
	return data
}
