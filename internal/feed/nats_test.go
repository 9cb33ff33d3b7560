package feed

import (
	"context"
	"testing"

	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	return "products.changed"
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	n := &NatsSubscriber{logger: discardLogger}
	testCases := []struct {
		name       string
		payload    []byte
		ctx        func() context.Context
		expectKind events.ChangeKind
		expectCall bool
	}{
		{
			name:       "valid message",
			payload:    []byte(`{"kind":"UPDATE","product_id":"p1"}`),
			ctx:        context.Background,
			expectKind: events.ChangeUpdate,
			expectCall: true,
		},
		{
			name:       "invalid message is still a change signal",
			payload:    []byte("invalid data"),
			ctx:        context.Background,
			expectKind: events.ChangeUnknown,
			expectCall: true,
		},
		{
			name:    "cancelled subscription acks without delivering",
			payload: []byte(`{"kind":"INSERT"}`),
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			msg := new(mockAckableMsg)
			msg.On("Data").Return(tc.payload).Once()
			msg.On("Ack").Return(nil).Once()
			var got []events.ProductChangedEvent

			// when
			n.handleMessage(tc.ctx(), msg, func(_ context.Context, e events.ProductChangedEvent) {
				got = append(got, e)
			})

			// then
			msg.AssertExpectations(t)
			if !tc.expectCall {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tc.expectKind, got[0].Kind)
		})
	}
}
