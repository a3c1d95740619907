package availability_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/testutil"
)

var day = caldate.MustParse("2027-05-29")

func TestGetDefaultsToAvailable(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()

	a, err := e.Availability.Get(context.Background(), v, day)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, a.Status)
	assert.Nil(t, a.MaxBookings)
	assert.NoError(t, e.Availability.Check(context.Background(), v, day, false))
}

func TestSetIsLastWriteWins(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	two := 2

	first, err := e.Availability.Set(ctx, v, availability.SetRequest{Date: day, Status: availability.StatusBlocked})
	require.NoError(t, err)
	second, err := e.Availability.Set(ctx, v, availability.SetRequest{Date: day, Status: availability.StatusLimited, MaxBookings: &two})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := e.Availability.Get(ctx, v, day)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusLimited, got.Status)
	assert.Equal(t, 2, *got.MaxBookings)
}

func TestSetValidation(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	zero := 0

	for name, req := range map[string]availability.SetRequest{
		"no date":        {Status: availability.StatusAvailable},
		"unknown status": {Date: day, Status: "closed"},
		"zero bookings":  {Date: day, Status: availability.StatusLimited, MaxBookings: &zero},
	} {
		_, err := e.Availability.Set(context.Background(), v, req)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), name)
	}
}

func TestBulkSetDedupesAndLists(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	dates := []caldate.Date{day, day.AddDays(1), day, day.AddDays(7)}

	out, err := e.Availability.BulkSet(ctx, v, availability.BulkSetRequest{Dates: dates, Status: availability.StatusBlocked})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	list, err := e.Availability.List(ctx, v, day, day.AddDays(3))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, day, list[0].Date)
	assert.Equal(t, day.AddDays(1), list[1].Date)

	_, err = e.Availability.List(ctx, v, day, day.AddDays(-1))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	_, err = e.Availability.List(ctx, v, day, day.AddDays(401))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = e.Availability.BulkSet(ctx, v, availability.BulkSetRequest{Status: availability.StatusBlocked})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestDeleteRestoresDefault(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()

	_, err := e.Availability.Set(ctx, v, availability.SetRequest{Date: day, Status: availability.StatusBlocked})
	require.NoError(t, err)
	assert.True(t, apperr.Is(e.Availability.Check(ctx, v, day, false), apperr.CodeVendorBlocked))

	require.NoError(t, e.Availability.Delete(ctx, v, day))
	assert.NoError(t, e.Availability.Check(ctx, v, day, false))
	assert.True(t, apperr.Is(e.Availability.Delete(ctx, v, day), apperr.CodeNotFound))
}

func TestBookingsCountActiveContractsOnly(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	one := 1
	_, err := e.Availability.Set(ctx, v, availability.SetRequest{Date: day, Status: availability.StatusLimited, MaxBookings: &one})
	require.NoError(t, err)

	c := e.Couple(day.String())
	p := e.Product(t, v, 10, 0)
	o, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)

	// a pending offer does not hold a booking slot
	b, err := e.Availability.Bookings(ctx, v, day)
	require.NoError(t, err)
	assert.Equal(t, 0, b.AcceptedBookings)

	res, err := e.Offers.Respond(ctx, c, o.ID, offer.DecisionAccept)
	require.NoError(t, err)
	b, err = e.Availability.Bookings(ctx, v, day)
	require.NoError(t, err)
	assert.Equal(t, 1, b.AcceptedBookings)
	assert.True(t, apperr.Is(e.Availability.Check(ctx, v, day, true), apperr.CodeMaxBookingsReached))

	_, err = e.Contracts.Cancel(ctx, auth.Principal{Role: auth.RoleCouple, ID: c}, res.Contract.ID)
	require.NoError(t, err)
	b, err = e.Availability.Bookings(ctx, v, day)
	require.NoError(t, err)
	assert.Equal(t, 0, b.AcceptedBookings)
	assert.NoError(t, e.Availability.Check(ctx, v, day, true))
}

func TestAcceptRechecksCalendar(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	c := e.Couple(day.String())
	p := e.Product(t, v, 10, 0)
	o, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)

	_, err = e.Availability.Set(ctx, v, availability.SetRequest{Date: day, Status: availability.StatusBlocked})
	require.NoError(t, err)

	_, err = e.Offers.Respond(ctx, c, o.ID, offer.DecisionAccept)
	assert.True(t, apperr.Is(err, apperr.CodeVendorBlocked))
	assert.Equal(t, 10, e.Stock(t, p))
}

func TestHandlerCalendar(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	r := chi.NewRouter()
	r.Use(auth.Middleware(e.Tokens))
	availability.NewHandler(e.Availability, zaptest.NewLogger(t)).RegisterRoutes(r)
	token := e.Bearer(t, auth.RoleVendor, v)

	rec := testutil.Do(t, r, http.MethodPost, "/vendor/availability/bulk", token, map[string]interface{}{
		"dates":  []string{"2027-05-29", "2027-05-30"},
		"status": "blocked",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/availability?from=2027-05-01&to=2027-05-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var days []availability.Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	assert.Len(t, days, 2)

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/availability/2027-05-29/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted_bookings":0`)

	rec = testutil.Do(t, r, http.MethodDelete, "/vendor/availability/date/2027-05-29", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/availability/not-a-date/bookings", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/availability", e.Bearer(t, auth.RoleCouple, e.Couple("")), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
