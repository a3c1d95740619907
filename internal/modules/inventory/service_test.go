package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/testutil"
)

const wedding = "2027-09-04"

func TestAggregateMergesAndSorts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := inventory.Aggregate([]inventory.Demand{
		{ProductID: b, Quantity: 1},
		{ProductID: a, Quantity: 2},
		{ProductID: b, Quantity: 3},
	})
	require.Len(t, got, 2)
	assert.True(t, got[0].ProductID.String() < got[1].ProductID.String())
	total := map[string]int{}
	for _, d := range got {
		total[d.ProductID.String()] = d.Quantity
	}
	assert.Equal(t, 2, total[a.String()])
	assert.Equal(t, 4, total[b.String()])
}

func TestCreateProductValidation(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	neg := -1

	for name, req := range map[string]inventory.CreateProductRequest{
		"no title":         {TrackInventory: false},
		"negative price":   {Title: "Arch", UnitPrice: decimal.NewFromInt(-5)},
		"tracked no stock": {Title: "Arch", TrackInventory: true},
		"negative stock":   {Title: "Arch", TrackInventory: true, AvailableQuantity: &neg},
		"negative buffer":  {Title: "Arch", BookingBuffer: -2},
	} {
		_, err := e.Inventory.CreateProduct(context.Background(), v, req)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), name)
	}
}

func TestEffectiveAvailableSubtractsReservationsAndBuffer(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	p := e.Product(t, v, 10, 2)
	date := caldate.MustParse(wedding)

	_, err := e.Offer(v, e.Couple(wedding), p, 3, time.Hour)
	require.NoError(t, err)
	// another date does not compete for this one
	_, err = e.Offer(v, e.Couple("2027-09-11"), p, 8, time.Hour)
	require.NoError(t, err)

	view, err := e.Inventory.EffectiveAvailable(ctx, v, p, date)
	require.NoError(t, err)
	assert.True(t, view.Tracked)
	assert.Equal(t, 3, view.Reserved)
	assert.Equal(t, 5, *view.EffectiveAvailable)

	_, err = e.Offer(v, e.Couple(wedding), p, 6, time.Hour)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientInventory))
	_, err = e.Offer(v, e.Couple(wedding), p, 5, time.Hour)
	assert.NoError(t, err)

	_, err = e.Inventory.EffectiveAvailable(ctx, e.Vendor(), p, date)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestUntrackedProductsAreUnlimited(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	p, err := e.Inventory.CreateProduct(ctx, v, inventory.CreateProductRequest{Title: "Playlist", UnitPrice: decimal.NewFromInt(500)})
	require.NoError(t, err)

	_, err = e.Offer(v, e.Couple(wedding), p.ID, 1000, time.Hour)
	require.NoError(t, err)

	view, err := e.Inventory.EffectiveAvailable(ctx, v, p.ID, caldate.MustParse(wedding))
	require.NoError(t, err)
	assert.False(t, view.Tracked)
	assert.Nil(t, view.EffectiveAvailable)
}

func TestConsumeIsAllOrNothing(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	plenty, scarce := e.Product(t, v, 10, 0), e.Product(t, v, 1, 0)

	err := e.Store.WithinTx(ctx, func(ctx context.Context) error {
		return e.Inventory.Consume(ctx, []inventory.Demand{
			{ProductID: plenty, Quantity: 4},
			{ProductID: scarce, Quantity: 2},
		})
	})
	require.Error(t, err)
	shortages := apperr.As(err).Details.(inventory.Shortages)
	require.Len(t, shortages, 1)
	assert.Equal(t, scarce, shortages[0].ProductID)
	assert.Equal(t, 10, e.Stock(t, plenty))
	assert.Equal(t, 1, e.Stock(t, scarce))

	demands := []inventory.Demand{{ProductID: plenty, Quantity: 4}, {ProductID: scarce, Quantity: 1}}
	require.NoError(t, e.Store.WithinTx(ctx, func(ctx context.Context) error {
		return e.Inventory.Consume(ctx, demands)
	}))
	assert.Equal(t, 6, e.Stock(t, plenty))
	assert.Equal(t, 0, e.Stock(t, scarce))

	require.NoError(t, e.Store.WithinTx(ctx, func(ctx context.Context) error {
		return e.Inventory.Restore(ctx, demands)
	}))
	assert.Equal(t, 10, e.Stock(t, plenty))
	assert.Equal(t, 1, e.Stock(t, scarce))
}

func TestUpdateInventoryChecksOwnership(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	p := e.Product(t, v, 3, 0)
	qty, buffer := 12, 1

	got, err := e.Inventory.UpdateInventory(ctx, v, p, inventory.UpdateInventoryRequest{AvailableQuantity: &qty, BookingBuffer: &buffer})
	require.NoError(t, err)
	assert.Equal(t, 12, *got.AvailableQuantity)
	assert.Equal(t, 12, e.Stock(t, p))

	_, err = e.Inventory.UpdateInventory(ctx, e.Vendor(), p, inventory.UpdateInventoryRequest{AvailableQuantity: &qty})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidProduct))

	neg := -3
	_, err = e.Inventory.UpdateInventory(ctx, v, p, inventory.UpdateInventoryRequest{BookingBuffer: &neg})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestHandlerProducts(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	r := chi.NewRouter()
	r.Use(auth.Middleware(e.Tokens))
	inventory.NewHandler(e.Inventory, zaptest.NewLogger(t)).RegisterRoutes(r)
	token := e.Bearer(t, auth.RoleVendor, v)

	rec := testutil.Do(t, r, http.MethodPost, "/vendor/products", token, map[string]interface{}{
		"title":              "Lantern",
		"unit_price":         "80",
		"track_inventory":    true,
		"available_quantity": 30,
		"booking_buffer":     5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/products/"+created.ID.String()+"/availability?date="+wedding, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view inventory.ProductAvailability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.EffectiveAvailable)
	assert.Equal(t, 25, *view.EffectiveAvailable)

	rec = testutil.Do(t, r, http.MethodPatch, "/vendor/products/"+created.ID.String()+"/inventory", token,
		map[string]int{"available_quantity": 40})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 40, e.Stock(t, created.ID))

	rec = testutil.Do(t, r, http.MethodGet, "/vendor/products", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}
