package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
)

// ChangeKind names the row operation that triggered a product change.
type ChangeKind string

const (
	ChangeInsert  ChangeKind = "INSERT"
	ChangeUpdate  ChangeKind = "UPDATE"
	ChangeDelete  ChangeKind = "DELETE"
	ChangeUnknown ChangeKind = "UNKNOWN"
)

// ProductChangedEvent signals that the products table changed.
// Consumers treat it as a hint to re-query; the row itself is not carried.
type ProductChangedEvent struct {
	Kind       ChangeKind `json:"kind"`
	ProductID  string     `json:"product_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func (e ProductChangedEvent) Subject() string {
	return messaging.ProductsChangedSubject
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeProductChanged parses a change payload. Undecodable payloads still
// yield a usable signal of kind ChangeUnknown together with the decode error.
func DecodeProductChanged(data []byte) (ProductChangedEvent, error) {
	var e ProductChangedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ProductChangedEvent{Kind: ChangeUnknown}, err
	}
	if e.Kind == "" {
		e.Kind = ChangeUnknown
	}
	return e, nil
}
