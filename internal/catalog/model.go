// Package catalog holds the storefront's product representation and its read-mostly cache.
package catalog

import (
	"strings"
	"time"
)

// Row is a product as the gateway stores it.
type Row struct {
	ID          string    `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	Description string    `db:"description"  json:"description"`
	Price       float64   `db:"price"        json:"price"`
	OldPrice    *float64  `db:"old_price"    json:"old_price"`
	Image       string    `db:"image"        json:"image"`
	Category    string    `db:"category"     json:"category"`
	Featured    bool      `db:"featured"     json:"featured"`
	New         bool      `db:"new"          json:"new"`
	Sale        bool      `db:"sale"         json:"sale"`
	Rating      *float64  `db:"rating"       json:"rating"`
	ReviewCount *int32    `db:"review_count" json:"review_count"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// Product is the application's view of a product row.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"oldPrice,omitempty"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Featured    bool     `json:"featured"`
	New         bool     `json:"new"`
	Sale        bool     `json:"sale"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int32   `json:"reviewCount,omitempty"`
}

// FromRow maps a gateway row to a Product.
func FromRow(r Row) Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		OldPrice:    r.OldPrice,
		Image:       r.Image,
		Category:    r.Category,
		Featured:    r.Featured,
		New:         r.New,
		Sale:        r.Sale,
		Rating:      r.Rating,
		ReviewCount: r.ReviewCount,
	}
}

// FromRows maps rows in order. The result is never nil.
func FromRows(rows []Row) []Product {
	products := make([]Product, len(rows))
	for i, r := range rows {
		products[i] = FromRow(r)
	}
	return products
}

// Input is the payload of the admin create and update commands.
type Input struct {
	Name        string   `json:"name"        validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       float64  `json:"price"       validate:"gt=0"`
	OldPrice    *float64 `json:"oldPrice"    validate:"omitempty,gte=0"`
	Image       string   `json:"image"       validate:"max=2048"`
	Category    string   `json:"category"    validate:"required,max=100"`
	Featured    bool     `json:"featured"`
	New         bool     `json:"new"`
	Sale        bool     `json:"sale"`
	Rating      *float64 `json:"rating"      validate:"omitempty,gte=0,lte=5"`
	ReviewCount *int32   `json:"reviewCount" validate:"omitempty,gte=0"`
}

// Normalize trims text fields and applies the gateway defaults:
// a zero old price means "no previous price", missing rating and review count become zero.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	if in.OldPrice != nil && *in.OldPrice == 0 {
		in.OldPrice = nil
	}
	if in.Rating == nil {
		zero := 0.0
		in.Rating = &zero
	}
	if in.ReviewCount == nil {
		var zero int32
		in.ReviewCount = &zero
	}
	return in
}

// Filter selects products for storefront listings. Nil flags match everything.
type Filter struct {
	Category string
	Query    string
	Featured *bool
	New      *bool
	Sale     *bool
}

// Match reports whether p satisfies every populated criterion of f.
func (f Filter) Match(p Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.Featured != nil && *f.Featured != p.Featured {
		return false
	}
	if f.New != nil && *f.New != p.New {
		return false
	}
	if f.Sale != nil && *f.Sale != p.Sale {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	}
	return true
}
