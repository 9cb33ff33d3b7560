package admin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

// Category is a storefront category. ProductCount is maintained by hand in the
// back office and is not derived from the product table.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"         validate:"required,max=100"`
	Image        string `json:"image"        validate:"max=2048"`
	ProductCount int    `json:"productCount" validate:"gte=0"`
}

// DefaultCategories seeds the document on first read.
func DefaultCategories() []Category {
	return []Category{
		{ID: "books", Name: "Books", Image: "/lovable-uploads/f0f5ef17-cb9c-48ad-8afb-ec6c2747ac34.png", ProductCount: 120},
		{ID: "digital", Name: "Digital Products", Image: "https://images.unsplash.com/photo-1565849904461-04a58ad377e0", ProductCount: 85},
		{ID: "lights", Name: "Decor LED Lights", Image: "https://images.unsplash.com/photo-1558002038-1055e2e095a1", ProductCount: 95},
		{ID: "handmade", Name: "Handmade", Image: "https://images.unsplash.com/photo-1602143407151-7111542de6e8", ProductCount: 70},
		{ID: "electronics", Name: "Electronic Devices", Image: "https://images.unsplash.com/photo-1581091226825-a6a2a5aee158", ProductCount: 150},
		{ID: "health", Name: "Medicine & Health", Image: "https://images.unsplash.com/photo-1576678927484-cc907957088c", ProductCount: 110},
	}
}

// Slug derives a category id from its name, e.g. "Home & Garden" becomes "home-and-garden".
// Product category labels go through the same function when matched against categories.
func Slug(name string) string {
	return slug.Make(name)
}

// Categories manages the category document.
type Categories struct {
	mu       sync.Mutex
	store    kv.Store
	validate *validator.Validate
}

func NewCategories(store kv.Store) *Categories {
	return &Categories{store: store, validate: web.NewValidator()}
}

// List returns all categories, writing the defaults if the document does not exist yet.
func (c *Categories) List(ctx context.Context) ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list(ctx)
}

// Save creates a category when id is empty, deriving the id from the name;
// otherwise it replaces the category with that id, keeping the id.
func (c *Categories) Save(ctx context.Context, id string, in Category) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	if err := validationError(c.validate, in); err != nil {
		return Category{}, fmt.Errorf("%w: %w", serrors.ErrInvalidCategory, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	categories, err := c.list(ctx)
	if err != nil {
		return Category{}, err
	}

	if id == "" {
		in.ID = Slug(in.Name)
		if in.ID == "" {
			return Category{}, fmt.Errorf("%w: name %q yields an empty id", serrors.ErrInvalidCategory, in.Name)
		}
		if indexOf(categories, in.ID) >= 0 {
			return Category{}, fmt.Errorf("%w: category %q already exists", serrors.ErrInvalidCategory, in.ID)
		}
		categories = append(categories, in)
	} else {
		i := indexOf(categories, id)
		if i < 0 {
			return Category{}, serrors.ErrCategoryNotFound
		}
		in.ID = id
		categories[i] = in
	}
	if err := save(ctx, c.store, CategoriesKey, categories); err != nil {
		return Category{}, err
	}
	return in, nil
}

// Delete removes the category with the given id.
func (c *Categories) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	categories, err := c.list(ctx)
	if err != nil {
		return err
	}
	i := indexOf(categories, id)
	if i < 0 {
		return serrors.ErrCategoryNotFound
	}
	categories = append(categories[:i], categories[i+1:]...)
	return save(ctx, c.store, CategoriesKey, categories)
}

func (c *Categories) list(ctx context.Context) ([]Category, error) {
	categories, written, err := load(ctx, c.store, CategoriesKey, DefaultCategories)
	if err != nil {
		return nil, err
	}
	if !written {
		if err := save(ctx, c.store, CategoriesKey, categories); err != nil {
			return nil, err
		}
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

func indexOf(categories []Category, id string) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
