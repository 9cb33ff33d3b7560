package productsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/feed"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSubscriber records the handler so tests can inject change notifications.
type fakeSubscriber struct {
	mu           sync.Mutex
	ctx          context.Context
	handler      feed.Handler
	subscribes   int
	unsubscribed bool
	err          error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, h feed.Handler) (feed.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.err != nil {
		return nil, f.err
	}
	f.ctx, f.handler = ctx, h
	return f, nil
}

func (f *fakeSubscriber) Unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = true
}

func (f *fakeSubscriber) trigger() {
	f.mu.Lock()
	ctx, h := f.ctx, f.handler
	f.mu.Unlock()
	h(ctx, events.ProductChangedEvent{Kind: events.ChangeUpdate})
}

// recorder collects published snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []catalog.Snapshot
}

func (r *recorder) listen(s catalog.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []catalog.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]catalog.Snapshot(nil), r.snaps...)
}

func products(ids ...string) []catalog.Product {
	out := make([]catalog.Product, len(ids))
	for i, id := range ids {
		out[i] = catalog.Product{ID: id, Name: "product " + id}
	}
	return out
}

func ids(s catalog.Snapshot) []string {
	out := make([]string, len(s.Products))
	for i, p := range s.Products {
		out[i] = p.ID
	}
	return out
}

func TestSyncer_StartPublishesLoadingThenProducts(t *testing.T) {
	// given
	sub := &fakeSubscriber{}
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		return products("2", "1"), nil
	}), sub, rec.listen, nil, discardLogger)

	// when
	err := s.Start(context.Background())

	// then
	require.NoError(t, err)
	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Loading)
	assert.False(t, snaps[1].Loading)
	assert.Empty(t, snaps[1].Error)
	assert.Equal(t, []string{"2", "1"}, ids(snaps[1]))
	assert.Equal(t, snaps[1], s.Snapshot())
	assert.Equal(t, 1, sub.subscribes)
}

func TestSyncer_SecondStartIsRejected(t *testing.T) {
	// given
	sub := &fakeSubscriber{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) { return nil, nil }), sub, nil, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))
	// when
	err := s.Start(context.Background())
	// then
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, 1, sub.subscribes, "exactly one subscription per syncer")
}

func TestSyncer_InitialFailureIsReportedWithoutRetry(t *testing.T) {
	// given
	var calls atomic.Int32
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		calls.Add(1)
		return nil, errors.New("gateway unreachable")
	}), &fakeSubscriber{}, rec.listen, nil, discardLogger)

	// when
	require.NoError(t, s.Start(context.Background()))

	// then
	snap := s.Snapshot()
	assert.Equal(t, LoadFailedMessage, snap.Error)
	assert.False(t, snap.Loading)
	assert.NotNil(t, snap.Products)
	assert.Empty(t, snap.Products)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, rec.all(), 2)
}

func TestSyncer_StartsEvenWhenSubscribeFails(t *testing.T) {
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		return products("1"), nil
	}), &fakeSubscriber{err: errors.New("no stream")}, nil, nil, discardLogger)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"1"}, ids(s.Snapshot()))
}

func TestSyncer_ChangeTriggersFullRefetch(t *testing.T) {
	// given
	var calls atomic.Int32
	sub := &fakeSubscriber{}
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		if calls.Add(1) == 1 {
			return products("1"), nil
		}
		return products("2", "1"), nil
	}), sub, rec.listen, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))

	// when
	sub.trigger()
	s.Wait()

	// then
	assert.Equal(t, []string{"2", "1"}, ids(s.Snapshot()))
	assert.Len(t, rec.all(), 3)
}

func TestSyncer_RefetchFailureKeepsPreviousSnapshot(t *testing.T) {
	// given
	var calls atomic.Int32
	sub := &fakeSubscriber{}
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		if calls.Add(1) == 1 {
			return products("1"), nil
		}
		return nil, errors.New("timeout")
	}), sub, rec.listen, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))

	// when
	sub.trigger()
	s.Wait()

	// then
	snap := s.Snapshot()
	assert.Equal(t, []string{"1"}, ids(snap))
	assert.Empty(t, snap.Error, "re-fetch failures are not surfaced")
	assert.Len(t, rec.all(), 2)
}

func TestSyncer_StaleResponseIsDiscarded(t *testing.T) {
	// given
	gate := make(chan struct{})
	var calls atomic.Int32
	sub := &fakeSubscriber{}
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		switch calls.Add(1) {
		case 1:
			return products("1"), nil
		case 2:
			<-gate
			return products("old"), nil
		default:
			return products("new", "1"), nil
		}
	}), sub, rec.listen, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))

	// when
	sub.trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	sub.trigger()
	require.Eventually(t, func() bool { return len(rec.all()) == 3 }, time.Second, 5*time.Millisecond)
	close(gate)
	s.Wait()

	// then
	snaps := rec.all()
	require.Len(t, snaps, 3, "the older response must not be published")
	assert.Equal(t, []string{"new", "1"}, ids(snaps[2]))
	assert.Equal(t, []string{"new", "1"}, ids(s.Snapshot()))
}

func TestSyncer_NothingPublishedAfterStop(t *testing.T) {
	// given
	gate := make(chan struct{})
	var calls atomic.Int32
	var cancelled atomic.Bool
	sub := &fakeSubscriber{}
	rec := &recorder{}
	s := NewSyncer(FetcherFunc(func(ctx context.Context) ([]catalog.Product, error) {
		if calls.Add(1) == 1 {
			return products("1"), nil
		}
		<-gate
		cancelled.Store(ctx.Err() != nil)
		return products("late"), nil
	}), sub, rec.listen, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))
	sub.trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	// when
	s.Stop()
	close(gate)
	s.Wait()

	// then
	assert.True(t, sub.unsubscribed)
	assert.True(t, cancelled.Load(), "in-flight fetch context must be cancelled")
	assert.Len(t, rec.all(), 2)
	assert.Equal(t, []string{"1"}, ids(s.Snapshot()))

	// notifications after stop are ignored
	sub.trigger()
	s.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestSyncer_StopIsIdempotent(t *testing.T) {
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) { return nil, nil }), &fakeSubscriber{}, nil, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
	s.Wait()
}

func TestSyncer_LocalFeedEndToEnd(t *testing.T) {
	// given
	local := feed.NewLocal(discardLogger)
	var calls atomic.Int32
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) {
		if calls.Add(1) == 1 {
			return products("1"), nil
		}
		return products("2", "1"), nil
	}), local, nil, nil, discardLogger)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// when
	require.NoError(t, local.Publish(context.Background(), events.ProductChangedEvent{Kind: events.ChangeInsert, ProductID: "2"}))

	// then
	assert.Eventually(t, func() bool { return len(s.Snapshot().Products) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSyncer_Metrics(t *testing.T) {
	// given
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	s := NewSyncer(FetcherFunc(func(context.Context) ([]catalog.Product, error) { return products("1"), nil }), &fakeSubscriber{}, nil, m, discardLogger)

	// when
	require.NoError(t, s.Start(context.Background()))

	// then
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "storefront_sync_refreshes" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}
