package couple

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/couple/profile", func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleCouple))
		r.Get("/", h.getProfile)
		r.Patch("/", h.updateProfile)
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	c, err := h.service.GetCouple(r.Context(), p.ID)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req struct {
		WeddingDate *caldate.Date `json:"wedding_date"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	c, err := h.service.SetWeddingDate(r.Context(), p.ID, req.WeddingDate)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}
