package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/abgdnv/storefront/internal/admin/kv"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
)

type StoreSettings struct {
	StoreName      string `json:"storeName"      validate:"required,max=200"`
	StoreEmail     string `json:"storeEmail"     validate:"required,email"`
	StorePhone     string `json:"storePhone"     validate:"max=50"`
	StoreAddress   string `json:"storeAddress"   validate:"max=500"`
	CurrencySymbol string `json:"currencySymbol" validate:"required,max=5"`
	Logo           string `json:"logo"           validate:"max=2048"`
}

type EmailSettings struct {
	EnableOrderConfirmation       bool `json:"enableOrderConfirmation"`
	EnableShippingNotifications   bool `json:"enableShippingNotifications"`
	EnableAbandonedCart           bool `json:"enableAbandonedCart"`
	EnableNewProductNotifications bool `json:"enableNewProductNotifications"`
	AdminEmailCopy                bool `json:"adminEmailCopy"`
}

type TaxSettings struct {
	EnableTax             bool    `json:"enableTax"`
	TaxRate               float64 `json:"taxRate"               validate:"gte=0,lte=100"`
	EnableFreeShipping    bool    `json:"enableFreeShipping"`
	FreeShippingThreshold float64 `json:"freeShippingThreshold" validate:"gte=0"`
	DefaultShippingRate   float64 `json:"defaultShippingRate"   validate:"gte=0"`
}

// Settings is the store settings document.
type Settings struct {
	Store StoreSettings `json:"store"`
	Email EmailSettings `json:"email"`
	Tax   TaxSettings   `json:"tax"`
}

const (
	SectionStore = "store"
	SectionEmail = "email"
	SectionTax   = "tax"
)

func DefaultSettings() Settings {
	return Settings{
		Store: StoreSettings{
			StoreName:      "Fashion Store",
			StoreEmail:     "contact@fashionstore.com",
			StorePhone:     "+1 (555) 123-4567",
			StoreAddress:   "123 Fashion Street, Style City, SC 12345",
			CurrencySymbol: "$",
			Logo:           "https://placehold.co/200x60",
		},
		Email: EmailSettings{
			EnableOrderConfirmation:       true,
			EnableShippingNotifications:   true,
			EnableNewProductNotifications: true,
			AdminEmailCopy:                true,
		},
		Tax: TaxSettings{
			EnableTax:             true,
			TaxRate:               7.5,
			EnableFreeShipping:    true,
			FreeShippingThreshold: 100,
			DefaultShippingRate:   9.99,
		},
	}
}

// SettingsService manages the settings document.
type SettingsService struct {
	mu       sync.Mutex
	store    kv.Store
	validate *validator.Validate
}

func NewSettingsService(store kv.Store) *SettingsService {
	return &SettingsService{store: store, validate: web.NewValidator()}
}

// Get returns the stored settings, or the defaults if nothing was saved yet.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	settings, _, err := load(ctx, s.store, SettingsKey, DefaultSettings)
	return settings, err
}

// Save merges payload into one section and stores the whole document.
// Fields absent from payload keep their current value.
func (s *SettingsService) Save(ctx context.Context, section string, payload []byte) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, _, err := load(ctx, s.store, SettingsKey, DefaultSettings)
	if err != nil {
		return Settings{}, err
	}

	var target any
	switch section {
	case SectionStore:
		target = &settings.Store
	case SectionEmail:
		target = &settings.Email
	case SectionTax:
		target = &settings.Tax
	default:
		return Settings{}, fmt.Errorf("%w: %s", serrors.ErrUnknownSection, section)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return Settings{}, &serrors.ValidationError{Fields: map[string]string{section: "invalid document: " + err.Error()}}
	}
	if err := validationError(s.validate, target); err != nil {
		return Settings{}, err
	}
	if err := save(ctx, s.store, SettingsKey, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
