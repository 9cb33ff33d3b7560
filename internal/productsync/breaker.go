package productsync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// BreakerFetcher guards a Fetcher with a circuit breaker so that a burst of
// change notifications does not hammer a failing gateway.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[[]catalog.Product]
}

var _ Fetcher = (*BreakerFetcher)(nil)

// NewBreakerFetcher wraps next. The breaker opens after cfg.ConsecutiveFailures
// consecutive failures and half-opens after cfg.OpenTimeout.
func NewBreakerFetcher(next Fetcher, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerFetcher {
	st := gobreaker.Settings{
		Name:        "product-gateway-cb",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled fetch says nothing about the gateway
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerFetcher{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]catalog.Product](st),
	}
}

// Fetch calls the wrapped fetcher unless the breaker is open.
func (b *BreakerFetcher) Fetch(ctx context.Context) ([]catalog.Product, error) {
	return b.cb.Execute(func() ([]catalog.Product, error) {
		return b.next.Fetch(ctx)
	})
}

// State reports the breaker state.
func (b *BreakerFetcher) State() gobreaker.State {
	return b.cb.State()
}
