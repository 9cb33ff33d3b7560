package productsync

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomePublished = "published"
	outcomeStale     = "stale"
	outcomeFailed    = "failed"
	outcomeUnmounted = "unmounted"
)

// Metrics counts sync refreshes by outcome. A nil *Metrics records nothing.
type Metrics struct {
	refreshes metric.Int64Counter
}

// NewMetrics registers the sync instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	refreshes, err := meter.Int64Counter("storefront_sync_refreshes",
		metric.WithDescription("Product list fetches by outcome"),
		metric.WithUnit("{refresh}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh counter: %w", err)
	}
	return &Metrics{refreshes: refreshes}, nil
}

func (m *Metrics) refresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.refreshes.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
