package contract

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

// Handler exposes contract endpoints to both parties.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.updateStatus) // {"status": "cancelled" | "completed"}
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	contracts, err := h.service.ListContracts(r.Context(), p)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	if contracts == nil {
		contracts = []*Contract{}
	}
	httpx.Respond(w, http.StatusOK, contracts)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.NotFound("contract"))
		return
	}
	c, err := h.service.GetContract(r.Context(), p, id)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.NotFound("contract"))
		return
	}
	var req UpdateStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	c, err := h.service.UpdateStatus(r.Context(), p, id, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}
