package offer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/testutil"
)

const wedding = "2027-06-12"

func TestCreateOfferRejectsShortStock(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 1, 0)

	_, err := e.Offer(v, c, p, 2, time.Hour)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientInventory))

	shortages, ok := apperr.As(err).Details.(inventory.Shortages)
	require.True(t, ok)
	require.Len(t, shortages, 1)
	assert.Equal(t, inventory.Shortage{ProductID: p, Title: "Chiavari chair", Requested: 2, Available: 1}, shortages[0])
	assert.Zero(t, e.Store.OfferCount())
	assert.Empty(t, e.Sink.Notifications)
}

func TestCreateOfferListsEveryShortage(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	chairs := e.Product(t, v, 10, 2)
	arches := e.Product(t, v, 1, 0)

	_, err := e.Offers.CreateOffer(context.Background(), v, offer.CreateRequest{
		CoupleID: c,
		Title:    "Full ceremony",
		Items: []offer.ItemInput{
			{ProductID: &chairs, Quantity: 9, UnitPrice: decimal.NewFromInt(45)},
			{ProductID: &arches, Quantity: 2, UnitPrice: decimal.NewFromInt(900)},
			{Title: "Setup crew", Quantity: 1, UnitPrice: decimal.NewFromInt(1500)},
		},
	})
	require.Error(t, err)
	shortages := apperr.As(err).Details.(inventory.Shortages)
	assert.Len(t, shortages, 2)
	assert.Zero(t, e.Store.OfferCount())
}

func TestCreateOfferComputesTotals(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 10, 0)
	conv := uuid.New()

	o, err := e.Offers.CreateOffer(context.Background(), v, offer.CreateRequest{
		CoupleID:       c,
		ConversationID: &conv,
		Title:          "Ceremony seating",
		Items: []offer.ItemInput{
			{ProductID: &p, Quantity: 4, UnitPrice: decimal.RequireFromString("45.50")},
			{Title: "Delivery", Quantity: 1, UnitPrice: decimal.NewFromInt(300)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, offer.StatusPending, o.Status)
	assert.Equal(t, "NOK", o.Currency)
	assert.Equal(t, "482.00", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Chiavari chair", o.Items[0].Title)
	assert.Equal(t, "182.00", o.Items[0].LineTotal.StringFixed(2))
	assert.Nil(t, o.Items[1].ProductID)

	// stock is only reserved, never decremented, while pending
	assert.Equal(t, 10, e.Stock(t, p))
	view, err := e.Inventory.EffectiveAvailable(context.Background(), v, p, caldate.MustParse(wedding))
	require.NoError(t, err)
	assert.Equal(t, 4, view.Reserved)
	assert.Equal(t, 6, *view.EffectiveAvailable)

	assert.Equal(t, []string{messaging.TypeOfferReceived}, e.Sink.NotificationTypes())
	require.Len(t, e.Sink.Messages, 1)
	assert.Equal(t, conv, e.Sink.Messages[0].ConversationID)
	assert.Equal(t, 1, e.Sink.Unread[conv][messaging.PartyCouple])
}

func TestCreateOfferValidation(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 10, 0)
	past := e.Now.Add(-time.Minute)

	cases := map[string]offer.CreateRequest{
		"no title":      {CoupleID: c, Items: []offer.ItemInput{{ProductID: &p, Quantity: 1}}},
		"no couple":     {Title: "x", Items: []offer.ItemInput{{ProductID: &p, Quantity: 1}}},
		"no items":      {CoupleID: c, Title: "x"},
		"zero quantity": {CoupleID: c, Title: "x", Items: []offer.ItemInput{{ProductID: &p, Quantity: 0}}},
		"custom no title": {CoupleID: c, Title: "x", Items: []offer.ItemInput{
			{Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		}},
		"negative price": {CoupleID: c, Title: "x", Items: []offer.ItemInput{
			{ProductID: &p, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
		}},
		"expired validity": {CoupleID: c, Title: "x", ValidUntil: &past, Items: []offer.ItemInput{
			{ProductID: &p, Quantity: 1},
		}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Offers.CreateOffer(context.Background(), v, req)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
		})
	}
	assert.Zero(t, e.Store.OfferCount())
}

func TestCreateOfferRejectsForeignProduct(t *testing.T) {
	e := testutil.NewEnv(t)
	v, other, c := e.Vendor(), e.Vendor(), e.Couple(wedding)
	p := e.Product(t, other, 10, 0)

	_, err := e.Offer(v, c, p, 1, time.Hour)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidProduct))

	missing := uuid.New()
	_, err = e.Offer(v, c, missing, 1, time.Hour)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidProduct))
}

func TestCreateOfferRequiresApprovedVendor(t *testing.T) {
	e := testutil.NewEnv(t)
	id := uuid.New()
	e.Store.AddVendor(vendor.Vendor{ID: id, BusinessName: "New Co", Status: vendor.StatusPending})
	c := e.Couple(wedding)

	_, err := e.Offers.CreateOffer(context.Background(), id, offer.CreateRequest{
		CoupleID: c,
		Title:    "Quote",
		Items:    []offer.ItemInput{{Title: "Consultation", Quantity: 1}},
	})
	assert.True(t, apperr.Is(err, apperr.CodeVendorNotApproved))
}

func TestCreateOfferBlockedDate(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 10, 0)
	_, err := e.Availability.Set(context.Background(), v, availability.SetRequest{
		Date:   caldate.MustParse(wedding),
		Status: availability.StatusBlocked,
	})
	require.NoError(t, err)

	_, err = e.Offer(v, c, p, 1, time.Hour)
	assert.True(t, apperr.Is(err, apperr.CodeVendorBlocked))
	assert.Zero(t, e.Store.OfferCount())
}

func TestCreateOfferFullyBookedDate(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	first, second := e.Couple(wedding), e.Couple(wedding)
	one := 1
	_, err := e.Availability.Set(context.Background(), v, availability.SetRequest{
		Date:        caldate.MustParse(wedding),
		Status:      availability.StatusLimited,
		MaxBookings: &one,
	})
	require.NoError(t, err)

	o, err := e.Offers.CreateOffer(context.Background(), v, offer.CreateRequest{
		CoupleID: first,
		Title:    "Photography",
		Items:    []offer.ItemInput{{Title: "Full day", Quantity: 1, UnitPrice: decimal.NewFromInt(20000)}},
	})
	require.NoError(t, err)
	_, err = e.Offers.Respond(context.Background(), first, o.ID, offer.DecisionAccept)
	require.NoError(t, err)

	_, err = e.Offers.CreateOffer(context.Background(), v, offer.CreateRequest{
		CoupleID: second,
		Title:    "Photography",
		Items:    []offer.ItemInput{{Title: "Full day", Quantity: 1, UnitPrice: decimal.NewFromInt(20000)}},
	})
	assert.True(t, apperr.Is(err, apperr.CodeMaxBookingsReached))
}

func TestCreateOfferWithoutWeddingDateSkipsChecks(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple("")
	p := e.Product(t, v, 1, 0)

	o, err := e.Offer(v, c, p, 3, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusPending, o.Status)
}

func TestAcceptConsumesAndCancelRestores(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 5, 0)

	o, err := e.Offer(v, c, p, 3, time.Hour)
	require.NoError(t, err)

	res, err := e.Offers.Respond(ctx, c, o.ID, offer.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusAccepted, res.Offer.Status)
	assert.NotNil(t, res.Offer.AcceptedAt)
	require.NotNil(t, res.Contract)
	assert.Equal(t, contract.StatusActive, res.Contract.Status)
	assert.Equal(t, o.ID, res.Contract.OfferID)
	assert.Equal(t, 2, e.Stock(t, p))

	_, err = e.Contracts.Cancel(ctx, auth.Principal{Role: auth.RoleCouple, ID: c}, res.Contract.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, e.Stock(t, p))

	// the cancelled booking no longer reserves anything
	view, err := e.Inventory.EffectiveAvailable(ctx, v, p, caldate.MustParse(wedding))
	require.NoError(t, err)
	assert.Equal(t, 0, view.Reserved)
	assert.Equal(t, 5, *view.EffectiveAvailable)

	_, err = e.Contracts.Cancel(ctx, auth.Principal{Role: auth.RoleVendor, ID: v}, res.Contract.ID)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyProcessed))
	assert.Equal(t, 5, e.Stock(t, p))

	assert.Equal(t, []string{
		messaging.TypeOfferReceived,
		messaging.TypeOfferAccepted,
		messaging.TypeContractCancelled,
	}, e.Sink.NotificationTypes())
}

func TestDeclineLeavesStockAndFreesReservation(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 5, 0)

	o, err := e.Offer(v, c, p, 5, time.Hour)
	require.NoError(t, err)

	res, err := e.Offers.Respond(ctx, c, o.ID, offer.DecisionDecline)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusDeclined, res.Offer.Status)
	assert.Nil(t, res.Contract)
	assert.Equal(t, 5, e.Stock(t, p))

	_, err = e.Offer(v, e.Couple(wedding), p, 5, time.Hour)
	assert.NoError(t, err)
}

func TestRespondIsFinal(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 5, 0)

	o, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)
	_, err = e.Offers.Respond(ctx, c, o.ID, offer.DecisionDecline)
	require.NoError(t, err)

	for _, d := range []offer.Decision{offer.DecisionAccept, offer.DecisionDecline} {
		_, err = e.Offers.Respond(ctx, c, o.ID, d)
		assert.True(t, apperr.Is(err, apperr.CodeAlreadyProcessed), d)
	}
	assert.Equal(t, 5, e.Stock(t, p))
}

func TestRespondByOtherCoupleIsNotFound(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 5, 0)
	o, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)

	_, err = e.Offers.Respond(context.Background(), e.Couple(wedding), o.ID, offer.DecisionAccept)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = e.Offers.Respond(context.Background(), c, o.ID, offer.Decision("maybe"))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRespondAfterValidityFailsBeforeSweep(t *testing.T) {
	e := testutil.NewEnv(t)
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 5, 0)
	o, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)

	e.Now = e.Now.Add(2 * time.Hour)
	_, err = e.Offers.Respond(context.Background(), c, o.ID, offer.DecisionAccept)
	assert.True(t, apperr.Is(err, apperr.CodeOfferExpired))

	got, err := e.Offers.GetOffer(context.Background(), auth.Principal{Role: auth.RoleCouple, ID: c}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusPending, got.Status)
	assert.Equal(t, 5, e.Stock(t, p))
}

func TestAcceptRechecksPhysicalStock(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v := e.Vendor()
	p := e.Product(t, v, 4, 0)
	junes, julys := e.Couple("2027-06-12"), e.Couple("2027-07-03")

	first, err := e.Offer(v, junes, p, 3, time.Hour)
	require.NoError(t, err)
	second, err := e.Offer(v, julys, p, 3, time.Hour)
	require.NoError(t, err)

	_, err = e.Offers.Respond(ctx, junes, first.ID, offer.DecisionAccept)
	require.NoError(t, err)

	_, err = e.Offers.Respond(ctx, julys, second.ID, offer.DecisionAccept)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientInventory))
	assert.Equal(t, 1, e.Stock(t, p))

	got, err := e.Offers.GetOffer(ctx, auth.Principal{Role: auth.RoleVendor, ID: v}, second.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.StatusPending, got.Status)
}

func TestConcurrentAcceptsNeverOversell(t *testing.T) {
	e := testutil.NewEnv(t)
	v := e.Vendor()
	p := e.Product(t, v, 1, 0)

	const n = 8
	type pending struct{ couple, offer uuid.UUID }
	offers := make([]pending, n)
	for i := range offers {
		c := e.Couple(caldate.MustParse(wedding).AddDays(i).String())
		o, err := e.Offer(v, c, p, 1, time.Hour)
		require.NoError(t, err)
		offers[i] = pending{couple: c, offer: o.ID}
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, po := range offers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.Offers.Respond(context.Background(), po.couple, po.offer, offer.DecisionAccept)
		}()
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.CodeInsufficientInventory), "got %v", err)
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 0, e.Stock(t, p))

	contracts, err := e.Contracts.ListContracts(context.Background(), auth.Principal{Role: auth.RoleVendor, ID: v})
	require.NoError(t, err)
	assert.Len(t, contracts, 1)
}

func TestListOffersIsScopedToCaller(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	v, c := e.Vendor(), e.Couple(wedding)
	p := e.Product(t, v, 10, 0)

	o1, err := e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)
	_, err = e.Offer(v, c, p, 1, time.Hour)
	require.NoError(t, err)
	_, err = e.Offers.Respond(ctx, c, o1.ID, offer.DecisionDecline)
	require.NoError(t, err)

	mine, err := e.Offers.ListOffers(ctx, auth.Principal{Role: auth.RoleVendor, ID: v}, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pendingOnly, err := e.Offers.ListOffers(ctx, auth.Principal{Role: auth.RoleCouple, ID: c}, offer.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pendingOnly, 1)

	other, err := e.Offers.ListOffers(ctx, auth.Principal{Role: auth.RoleVendor, ID: e.Vendor()}, "")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = e.Offers.ListOffers(ctx, auth.Principal{Role: auth.RoleVendor, ID: v}, offer.Status("archived"))
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = e.Offers.GetOffer(ctx, auth.Principal{Role: auth.RoleCouple, ID: e.Couple(wedding)}, o1.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
