package availability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

const defaultListDays = 90

// Handler exposes the vendor calendar endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vendor/availability", func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleVendor))
		r.Get("/", h.list)                    // ?from=YYYY-MM-DD&to=YYYY-MM-DD
		r.Post("/", h.set)                    // upsert one date
		r.Post("/bulk", h.bulkSet)            // same setting for many dates
		r.Delete("/date/{date}", h.remove)    // back to the implicit default
		r.Get("/{date}/bookings", h.bookings) // setting + accepted booking count
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	from := caldate.Of(time.Now())
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := caldate.Parse(v)
		if err != nil {
			httpx.Fail(w, r, h.log, apperr.Validation("%v", err))
			return
		}
		from = d
	}
	to := from.AddDays(defaultListDays)
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := caldate.Parse(v)
		if err != nil {
			httpx.Fail(w, r, h.log, apperr.Validation("%v", err))
			return
		}
		to = d
	}

	days, err := h.service.List(r.Context(), p.ID, from, to)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	if days == nil {
		days = []*Availability{}
	}
	httpx.Respond(w, http.StatusOK, days)
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req SetRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	a, err := h.service.Set(r.Context(), p.ID, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, a)
}

func (h *Handler) bulkSet(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var req BulkSetRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	days, err := h.service.BulkSet(r.Context(), p.ID, req)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, days)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), p.ID, date); err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	b, err := h.service.Bookings(r.Context(), p.ID, date)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, b)
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (caldate.Date, bool) {
	d, err := caldate.Parse(chi.URLParam(r, "date"))
	if err != nil {
		httpx.Fail(w, r, h.log, apperr.Validation("%v", err))
		return caldate.Date{}, false
	}
	return d, true
}
