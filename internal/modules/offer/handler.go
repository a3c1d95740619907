package offer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

// Handler exposes offer HTTP endpoints.
type Handler struct {
	service Service
	sweeper *Sweeper
	log     *zap.Logger
}

func NewHandler(service Service, sweeper *Sweeper, log *zap.Logger) *Handler {
	return &Handler{service: service, sweeper: sweeper, log: log}
}

// RegisterRoutes mounts the authenticated offer routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/offers", func(r chi.Router) {
		r.With(auth.RequireRole(auth.RoleVendor)).Post("/", h.createOffer)
		r.Get("/", h.listOffers) // ?status=pending
		r.Get("/{id}", h.getOffer)
		r.With(auth.RequireRole(auth.RoleCouple)).Post("/{id}/respond", h.respond)
	})
	r.With(auth.RequireRole(auth.RoleVendor)).Get("/vendor/offers", h.listOffers)
	r.With(auth.RequireRole(auth.RoleCouple)).Get("/couple/offers", h.listOffers)
	r.With(auth.RequireRole(auth.RoleCouple)).Post("/couple/offers/{id}/respond", h.respond)
}

// RegisterAdminRoutes mounts operator jobs; the caller applies the admin guard.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/jobs/expire-offers", h.expireOffers)
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	o, err := h.service.CreateOffer(r.Context(), p.ID, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, o)
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	offers, err := h.service.ListOffers(r.Context(), p, Status(r.URL.Query().Get("status")))
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	if offers == nil {
		offers = []*Offer{}
	}
	httpx.Respond(w, http.StatusOK, offers)
}

func (h *Handler) getOffer(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.NotFound("offer"))
		return
	}
	o, err := h.service.GetOffer(r.Context(), p, id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.NotFound("offer"))
		return
	}
	var req RespondRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	res, err := h.service.Respond(r.Context(), p.ID, id, req.Decision)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *Handler) expireOffers(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}
