package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/couple"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/storage/memory"
)

// Env is the full offer engine wired over the memory store.
type Env struct {
	Store        *memory.Store
	Sink         *messaging.Recorder
	Vendors      vendor.Service
	Couples      couple.Service
	Availability availability.Service
	Inventory    inventory.Service
	Contracts    contract.Service
	Offers       offer.Service
	Sweeper      *offer.Sweeper
	Tokens       *auth.JWTResolver

	// Now is the clock of the offer service and sweeper.
	Now time.Time
}

func NewEnv(t testing.TB) *Env {
	log := zaptest.NewLogger(t)
	store := memory.New()
	sink := messaging.NewRecorder()
	dispatch := messaging.NewDispatcher(sink, sink, log, time.Second)

	e := &Env{Store: store, Sink: sink, Tokens: auth.NewJWTResolver("test-secret"), Now: time.Now().UTC()}
	clock := func() time.Time { return e.Now }

	e.Vendors = vendor.NewService(store.Vendors())
	e.Couples = couple.NewService(store.Couples())
	e.Availability = availability.NewService(store.Availability(), store)
	e.Inventory = inventory.NewService(store.Products(), store)
	e.Contracts = contract.NewService(store.Contracts(), store.Offers(), e.Inventory, store, dispatch)
	e.Offers = offer.NewService(offer.Deps{
		Repo:         store.Offers(),
		Vendors:      e.Vendors,
		Couples:      e.Couples,
		Availability: e.Availability,
		Inventory:    e.Inventory,
		Contracts:    e.Contracts,
		Tx:           store,
		Dispatch:     dispatch,
		Log:          log,
		Clock:        clock,
	})
	e.Sweeper = offer.NewSweeper(store.Offers(), dispatch, log, 50, 4).WithClock(clock)
	return e
}

// Vendor seeds an approved vendor.
func (e *Env) Vendor() uuid.UUID {
	id := uuid.New()
	e.Store.AddVendor(vendor.Vendor{ID: id, BusinessName: "Fjord Florals", Category: "florist", Status: vendor.StatusApproved})
	return id
}

// Couple seeds a couple marrying on date, or without a date when date is empty.
func (e *Env) Couple(date string) uuid.UUID {
	id := uuid.New()
	c := couple.Couple{ID: id, DisplayName: "Ada & Ola"}
	if date != "" {
		d := caldate.MustParse(date)
		c.WeddingDate = &d
	}
	e.Store.AddCouple(c)
	return id
}

// Product creates a tracked product with qty in stock and the given buffer.
func (e *Env) Product(t testing.TB, vendorID uuid.UUID, qty, buffer int) uuid.UUID {
	p, err := e.Inventory.CreateProduct(context.Background(), vendorID, inventory.CreateProductRequest{
		Title:             "Chiavari chair",
		UnitPrice:         decimal.NewFromInt(45),
		TrackInventory:    true,
		AvailableQuantity: &qty,
		BookingBuffer:     buffer,
	})
	require.NoError(t, err)
	return p.ID
}

// Stock is the physical quantity of a tracked product.
func (e *Env) Stock(t testing.TB, productID uuid.UUID) int {
	p, ok := e.Store.Product(productID)
	require.True(t, ok)
	require.NotNil(t, p.AvailableQuantity)
	return *p.AvailableQuantity
}

// Offer sends one catalogue line of qty to the couple.
func (e *Env) Offer(vendorID, coupleID, productID uuid.UUID, qty int, validFor time.Duration) (*offer.Offer, error) {
	until := e.Now.Add(validFor)
	return e.Offers.CreateOffer(context.Background(), vendorID, offer.CreateRequest{
		CoupleID:   coupleID,
		Title:      "Ceremony seating",
		ValidUntil: &until,
		Items: []offer.ItemInput{
			{ProductID: &productID, Quantity: qty, UnitPrice: decimal.NewFromInt(45)},
		},
	})
}

// Bearer issues a token for the principal.
func (e *Env) Bearer(t testing.TB, role auth.Role, id uuid.UUID) string {
	token, err := e.Tokens.Issue(auth.Principal{Role: role, ID: id}, time.Hour)
	require.NoError(t, err)
	return token
}

// Do sends body as JSON to h and returns the recorded response.
func Do(t testing.TB, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
