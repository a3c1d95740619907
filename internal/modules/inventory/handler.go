package inventory

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

// Handler exposes the vendor product endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vendor/products", func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleVendor))
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Patch("/{id}/inventory", h.updateInventory)
		r.Get("/{id}/availability", h.availability) // ?date=YYYY-MM-DD
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	products, err := h.service.ListProducts(r.Context(), p.ID)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	httpx.Respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req CreateProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), p.ID, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, product)
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.Validation("invalid product id"))
		return
	}
	var req UpdateInventoryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	product, err := h.service.UpdateInventory(r.Context(), p.ID, id, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, product)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.Validation("invalid product id"))
		return
	}
	date := caldate.Of(time.Now())
	if v := r.URL.Query().Get("date"); v != "" {
		if date, err = caldate.Parse(v); err != nil {
			httpx.Fail(w, r, h.log, apperr.Validation("%v", err))
			return
		}
	}
	view, err := h.service.EffectiveAvailable(r.Context(), p.ID, id, date)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, view)
}
