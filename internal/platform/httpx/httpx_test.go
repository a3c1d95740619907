package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
)

type shortages []string

func (shortages) IsShortageList() {}

func TestFailRendersCodeAndShortages(t *testing.T) {
	err := apperr.New(apperr.CodeInsufficientInventory, "insufficient inventory").
		WithDetails(shortages{"chairs"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/offers", nil)

	Fail(rec, req, zap.NewNop(), err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INSUFFICIENT_INVENTORY", body["code"])
	assert.Equal(t, []interface{}{"chairs"}, body["shortages"])
}

func TestFailHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)

	Fail(rec, req, zap.NewNop(), errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"decision":"accept","extra":1}`))
	var dst struct {
		Decision string `json:"decision"`
	}
	err := Decode(req, &dst)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
