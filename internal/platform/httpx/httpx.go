package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
)

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error     string      `json:"error"`
	Code      apperr.Code `json:"code"`
	Shortages interface{} `json:"shortages,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// Shortager is implemented by details payloads that render as "shortages".
type Shortager interface{ IsShortageList() }

// Fail maps err to its status and writes the error envelope. 5xx errors are
// logged with the underlying cause; the client only sees the coded message.
func Fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae := apperr.As(err)
	status := apperr.HTTPStatus(ae.Code)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("code", string(ae.Code)),
			zap.Error(err))
	}

	body := errorBody{Error: ae.Message, Code: ae.Code}
	if _, ok := ae.Details.(Shortager); ok {
		body.Shortages = ae.Details
	} else {
		body.Details = ae.Details
	}
	Respond(w, status, body)
}

// Decode reads a JSON body, rejecting unknown fields.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
