package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedEvent announces a completed checkout. Carrier holds the trace context of the request.
type OrderPlacedEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	OrderID   uuid.UUID         `json:"order_id"`
	Number    string            `json:"number"`
	Email     string            `json:"email"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
	CreatedAt time.Time         `json:"created_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
