package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/storefront/internal/admin"
	"github.com/abgdnv/storefront/internal/catalog"
	serrors "github.com/abgdnv/storefront/internal/errors"
	orderservice "github.com/abgdnv/storefront/internal/order/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/internal/state"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type productRef struct {
	ProductID string `json:"productId" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type cartView struct {
	Items     []state.CartItem `json:"items"`
	ItemCount int              `json:"itemCount"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	IsOpen    bool             `json:"isOpen"`
}

type wishlistView struct {
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

type categoryView struct {
	admin.Category
	LiveProductCount int `json:"liveProductCount"`
}

func newCartView(s state.State) cartView {
	return cartView{Items: s.Cart, ItemCount: s.CartItemCount(), Subtotal: s.Subtotal(), IsOpen: s.CartOpen}
}

func newWishlistView(s state.State) wishlistView {
	return wishlistView{Items: s.Wishlist, Count: s.WishlistCount()}
}

// StorefrontHandler serves the session scoped shopper API.
type StorefrontHandler struct {
	cache        *catalog.Cache
	sessions     *session.Registry
	orders       orderservice.OrderService
	categories   *admin.Categories
	newsletter   *admin.Newsletter
	cookieSecure bool
	validate     *validator.Validate
	logger       *slog.Logger
	cartActions  metric.Int64Counter
}

func NewStorefrontHandler(
	cache *catalog.Cache,
	sessions *session.Registry,
	orders orderservice.OrderService,
	categories *admin.Categories,
	newsletter *admin.Newsletter,
	cookieSecure bool,
	logger *slog.Logger,
) *StorefrontHandler {
	meter := otel.Meter("storefront/rest")
	cartActions, err := meter.Int64Counter("cart_actions", metric.WithDescription("Cart and wishlist actions by type"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_actions counter: %v", err))
	}
	return &StorefrontHandler{
		cache:        cache,
		sessions:     sessions,
		orders:       orders,
		categories:   categories,
		newsletter:   newsletter,
		cookieSecure: cookieSecure,
		validate:     web.NewValidator(),
		logger:       logger.With("component", "storefront_rest"),
		cartActions:  cartActions,
	}
}

// RegisterRoutes registers the storefront routes.
func (h *StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/stream", h.StreamProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/orders/track", h.TrackOrder)
		r.Post("/newsletter", h.SubscribeNewsletter)

		r.Group(func(r chi.Router) {
			r.Use(web.SessionInjector(h.cookieSecure))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddToCart)
				r.Delete("/items/{id}", h.RemoveFromCart)
				r.Post("/toggle", h.ToggleCart)
				r.Post("/checkout", h.Checkout)
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.GetWishlist)
				r.Post("/items", h.AddToWishlist)
				r.Delete("/items/{id}", h.RemoveFromWishlist)
			})
		})
	})
}

// ListProducts answers with the current snapshot narrowed by the query filters.
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	filter := catalog.Filter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}
	var ok bool
	if filter.Featured, ok = web.ParseOptionalBool(r, w, mLogger, "featured"); !ok {
		return
	}
	if filter.New, ok = web.ParseOptionalBool(r, w, mLogger, "new"); !ok {
		return
	}
	if filter.Sale, ok = web.ParseOptionalBool(r, w, mLogger, "sale"); !ok {
		return
	}

	snap := h.cache.Snapshot()
	snap.Products = h.cache.Search(filter)
	mLogger.DebugContext(r.Context(), "Listing products", "count", len(snap.Products), "loading", snap.Loading)
	web.RespondJSON(w, mLogger, http.StatusOK, snap)
}

func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	id := chi.URLParam(r, "id")
	p, ok := h.cache.FindByID(id)
	if !ok {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, p)
}

// ListCategories returns the configured categories with a product count recomputed from the catalog.
func (h *StorefrontHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch categories")
		return
	}
	counts := make(map[string]int)
	for label, n := range h.cache.CountByCategory() {
		counts[admin.Slug(label)] += n
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		live := counts[c.ID]
		// products may carry the category id or its display name
		if s := admin.Slug(c.Name); s != c.ID {
			live += counts[s]
		}
		views = append(views, categoryView{Category: c, LiveProductCount: live})
	}
	web.RespondJSON(w, mLogger, http.StatusOK, views)
}

func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	web.RespondJSON(w, mLogger, http.StatusOK, newCartView(h.store(r).State()))
}

func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	p, ok := h.decodeProductRef(w, r, mLogger)
	if !ok {
		return
	}
	s := h.store(r).AddToCart(p)
	h.countAction(r, "cart_add")
	mLogger.DebugContext(r.Context(), "Added to cart", "productID", p.ID, "items", s.CartItemCount())
	web.RespondJSON(w, mLogger, http.StatusOK, newCartView(s))
}

func (h *StorefrontHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	s := h.store(r).RemoveFromCart(chi.URLParam(r, "id"))
	h.countAction(r, "cart_remove")
	web.RespondJSON(w, mLogger, http.StatusOK, newCartView(s))
}

func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	s := h.store(r).ClearCart()
	h.countAction(r, "cart_clear")
	web.RespondJSON(w, mLogger, http.StatusOK, newCartView(s))
}

func (h *StorefrontHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	web.RespondJSON(w, mLogger, http.StatusOK, newCartView(h.store(r).ToggleCart()))
}

// Checkout places an order for the session cart and removes the ordered lines from the cart on success.
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	var in orderservice.CheckoutInput
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	store := h.store(r)
	placed, err := h.orders.Checkout(r.Context(), store.State(), in)
	if err != nil {
		if errors.Is(err, serrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Cart references a removed product", "error", err)
			web.RespondError(w, mLogger, http.StatusConflict, err.Error())
			return
		}
		respondServiceError(w, r, mLogger, err, "Failed to place order")
		return
	}
	ordered := make(map[string]int, len(placed.Items))
	for _, it := range placed.Items {
		ordered[it.ProductID] += it.Quantity
	}
	store.RemoveOrdered(ordered)
	h.countAction(r, "checkout")
	mLogger.InfoContext(r.Context(), "Order placed", "number", placed.Number)
	web.RespondJSON(w, mLogger, http.StatusCreated, placed)
}

func (h *StorefrontHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	web.RespondJSON(w, mLogger, http.StatusOK, newWishlistView(h.store(r).State()))
}

func (h *StorefrontHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	p, ok := h.decodeProductRef(w, r, mLogger)
	if !ok {
		return
	}
	s := h.store(r).AddToWishlist(p)
	h.countAction(r, "wishlist_add")
	web.RespondJSON(w, mLogger, http.StatusOK, newWishlistView(s))
}

func (h *StorefrontHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	s := h.store(r).RemoveFromWishlist(chi.URLParam(r, "id"))
	h.countAction(r, "wishlist_remove")
	web.RespondJSON(w, mLogger, http.StatusOK, newWishlistView(s))
}

func (h *StorefrontHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	q := r.URL.Query()
	found, err := h.orders.Track(r.Context(), q.Get("number"), q.Get("email"))
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to track order")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

func (h *StorefrontHandler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	var req emailRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	created, err := h.newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to subscribe")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	web.RespondJSON(w, mLogger, status, map[string]any{"subscribed": true, "created": created})
}

// decodeProductRef reads {"productId"} and resolves it against the catalog cache.
func (h *StorefrontHandler) decodeProductRef(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (catalog.Product, bool) {
	var ref productRef
	if !web.DecodeJSON(w, r, logger, &ref) {
		return catalog.Product{}, false
	}
	ref.ProductID = strings.TrimSpace(ref.ProductID)
	if err := h.validate.Struct(ref); err != nil {
		if fields, ok := web.FieldErrors(err); ok {
			web.RespondValidation(w, logger, fields)
			return catalog.Product{}, false
		}
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return catalog.Product{}, false
	}
	p, ok := h.cache.FindByID(ref.ProductID)
	if !ok {
		web.RespondError(w, logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", ref.ProductID))
		return catalog.Product{}, false
	}
	return p, true
}

func (h *StorefrontHandler) store(r *http.Request) *state.Store {
	id, _ := web.GetSessionID(r.Context())
	return h.sessions.Get(id)
}

func (h *StorefrontHandler) countAction(r *http.Request, action string) {
	h.cartActions.Add(r.Context(), 1, metric.WithAttributes(attribute.String("action", action)))
}
