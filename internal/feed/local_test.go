package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type rawEvent struct {
	subject string
	data    []byte
	err     error
}

func (r rawEvent) Subject() string          { return r.subject }
func (r rawEvent) Payload() ([]byte, error) { return r.data, r.err }

func TestLocal_DeliversToEverySubscriber(t *testing.T) {
	// given
	l := NewLocal(discardLogger)
	got := make(chan events.ProductChangedEvent, 2)
	handler := func(_ context.Context, e events.ProductChangedEvent) { got <- e }
	s1, err := l.Subscribe(context.Background(), handler)
	require.NoError(t, err)
	defer s1.Unsubscribe()
	s2, err := l.Subscribe(context.Background(), handler)
	require.NoError(t, err)
	defer s2.Unsubscribe()

	// when
	err = l.Publish(context.Background(), events.ProductChangedEvent{Kind: events.ChangeInsert, ProductID: "p1"})

	// then
	require.NoError(t, err)
	for range 2 {
		select {
		case e := <-got:
			assert.Equal(t, events.ChangeInsert, e.Kind)
			assert.Equal(t, "p1", e.ProductID)
		case <-time.After(time.Second):
			t.Fatal("change not delivered")
		}
	}
}

func TestLocal_UndecodablePayloadIsGenericSignal(t *testing.T) {
	// given
	l := NewLocal(discardLogger)
	got := make(chan events.ProductChangedEvent, 1)
	sub, _ := l.Subscribe(context.Background(), func(_ context.Context, e events.ProductChangedEvent) { got <- e })
	defer sub.Unsubscribe()
	// when
	require.NoError(t, l.Publish(context.Background(), rawEvent{subject: messaging.ProductsChangedSubject, data: []byte("garbage")}))
	// then
	select {
	case e := <-got:
		assert.Equal(t, events.ChangeUnknown, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("signal not delivered")
	}
}

func TestLocal_IgnoresOtherSubjects(t *testing.T) {
	// given
	l := NewLocal(discardLogger)
	var calls atomic.Int32
	sub, _ := l.Subscribe(context.Background(), func(context.Context, events.ProductChangedEvent) { calls.Add(1) })
	// when
	require.NoError(t, l.Publish(context.Background(), events.OrderPlacedEvent{}))
	sub.Unsubscribe()
	// then
	assert.Zero(t, calls.Load())
}

func TestLocal_PayloadErrorIsReturned(t *testing.T) {
	l := NewLocal(discardLogger)
	boom := errors.New("boom")
	err := l.Publish(context.Background(), rawEvent{subject: messaging.ProductsChangedSubject, err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestLocal_UnsubscribeStopsDelivery(t *testing.T) {
	// given
	l := NewLocal(discardLogger)
	var calls atomic.Int32
	sub, _ := l.Subscribe(context.Background(), func(context.Context, events.ProductChangedEvent) { calls.Add(1) })
	require.Equal(t, 1, l.Subscribers())
	// when
	sub.Unsubscribe()
	sub.Unsubscribe()
	_ = l.Publish(context.Background(), events.ProductChangedEvent{Kind: events.ChangeDelete})
	// then
	assert.Zero(t, l.Subscribers())
	assert.Zero(t, calls.Load())
}

func TestLocal_ContextCancelEndsSubscription(t *testing.T) {
	l := NewLocal(discardLogger)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := l.Subscribe(ctx, func(context.Context, events.ProductChangedEvent) {})
	require.NoError(t, err)
	cancel()
	assert.Eventually(t, func() bool { return l.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
