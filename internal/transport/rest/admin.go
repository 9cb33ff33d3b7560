package rest

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/admin"
	"github.com/abgdnv/storefront/internal/catalog"
	catalogservice "github.com/abgdnv/storefront/internal/catalog/service"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
)

const maxSettingsBody = 64 << 10

// AdminHandler serves the back office API.
type AdminHandler struct {
	products   catalogservice.ProductService
	categories *admin.Categories
	settings   *admin.SettingsService
	newsletter *admin.Newsletter
	logger     *slog.Logger
}

func NewAdminHandler(
	products catalogservice.ProductService,
	categories *admin.Categories,
	settings *admin.SettingsService,
	newsletter *admin.Newsletter,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		products:   products,
		categories: categories,
		settings:   settings,
		newsletter: newsletter,
		logger:     logger.With("component", "admin_rest"),
	}
}

// RegisterRoutes registers the admin routes behind the given middlewares, e.g. bearer authentication.
func (h *AdminHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middlewares...)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
		r.Get("/settings", h.GetSettings)
		r.Put("/settings/{section}", h.SaveSettings)
		r.Get("/newsletter", h.ListSubscribers)
	})
}

// ListProducts reads straight from the gateway, bypassing the storefront cache.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	list, err := h.products.FindAll(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	var in catalog.Input
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	created, err := h.products.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	id := chi.URLParam(r, "id")
	var in catalog.Input
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	updated, err := h.products.Update(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	id := chi.URLParam(r, "id")
	if err := h.products.DeleteByID(r.Context(), id); err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to delete product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	list, err := h.categories.List(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, "", http.StatusCreated)
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *AdminHandler) saveCategory(w http.ResponseWriter, r *http.Request, id string, status int) {
	mLogger := loggerWithReqID(r, h.logger)
	var in admin.Category
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	saved, err := h.categories.Save(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to save category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category saved", "ID", saved.ID)
	web.RespondJSON(w, mLogger, status, saved)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	id := chi.URLParam(r, "id")
	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to delete category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch settings")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, settings)
}

// SaveSettings merges the JSON body into one settings section.
func (h *AdminHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error reading request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	section := chi.URLParam(r, "section")
	settings, err := h.settings.Save(r.Context(), section, payload)
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to save settings")
		return
	}
	mLogger.InfoContext(r.Context(), "Settings saved", "section", section)
	web.RespondJSON(w, mLogger, http.StatusOK, settings)
}

func (h *AdminHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, h.logger)
	list, err := h.newsletter.List(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, err, "Failed to fetch subscribers")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}
