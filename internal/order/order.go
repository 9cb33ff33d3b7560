// Package order defines placed orders.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
)

const StatusPlaced = "PLACED"

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Order struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Address   string          `json:"address"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ItemCount is the sum of item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewNumber returns a customer-facing order number such as ORD-7K2M9QXA.
func NewNumber() (string, error) {
	id, err := gonanoid.Generate(numberAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return "ORD-" + id, nil
}

// NormalizeNumber upper-cases and trims a number typed by a customer.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
