// Package memory is an in-process implementation of every repository and of
// the transaction manager. A transaction holds the store mutex from begin to
// end and restores a snapshot when it fails, which gives serializable
// behaviour. It backs tests and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/couple"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

type calendarKey struct {
	vendorID uuid.UUID
	date     caldate.Date
}

// state holds values only; updates replace map entries instead of mutating
// them, so a shallow copy of every map is a full snapshot.
type state struct {
	vendors   map[uuid.UUID]vendor.Vendor
	couples   map[uuid.UUID]couple.Couple
	calendar  map[calendarKey]availability.Availability
	products  map[uuid.UUID]inventory.Product
	offers    map[uuid.UUID]offer.Offer
	items     map[uuid.UUID][]offer.Item
	contracts map[uuid.UUID]contract.Contract
}

func newState() state {
	return state{
		vendors:   make(map[uuid.UUID]vendor.Vendor),
		couples:   make(map[uuid.UUID]couple.Couple),
		calendar:  make(map[calendarKey]availability.Availability),
		products:  make(map[uuid.UUID]inventory.Product),
		offers:    make(map[uuid.UUID]offer.Offer),
		items:     make(map[uuid.UUID][]offer.Item),
		contracts: make(map[uuid.UUID]contract.Contract),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		vendors:   cloneMap(s.vendors),
		couples:   cloneMap(s.couples),
		calendar:  cloneMap(s.calendar),
		products:  cloneMap(s.products),
		offers:    cloneMap(s.offers),
		items:     cloneMap(s.items),
		contracts: cloneMap(s.contracts),
	}
}

// Store is the shared in-memory database.
type Store struct {
	mu sync.Mutex
	st state
}

func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already runs inside one of this
// store's transactions. The returned func releases it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx implements database.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AddVendor seeds a vendor. Vendors are onboarded outside this service.
func (s *Store) AddVendor(v vendor.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt, v.UpdatedAt = now(), now()
	}
	s.st.vendors[v.ID] = v
}

// AddCouple seeds a couple profile.
func (s *Store) AddCouple(c couple.Couple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt, c.UpdatedAt = now(), now()
	}
	s.st.couples[c.ID] = c
}

// Product returns a copy of the stored product, for assertions.
func (s *Store) Product(id uuid.UUID) (inventory.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	p.AvailableQuantity = cloneInt(p.AvailableQuantity)
	return p, ok
}

// OfferCount is the number of stored offers.
func (s *Store) OfferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.offers)
}

func (s *Store) Vendors() vendor.Repository            { return vendorRepo{s} }
func (s *Store) Couples() couple.Repository            { return coupleRepo{s} }
func (s *Store) Availability() availability.Repository { return availabilityRepo{s} }
func (s *Store) Products() inventory.Repository        { return productRepo{s} }
func (s *Store) Offers() offer.Repository              { return offerRepo{s} }
func (s *Store) Contracts() contract.Repository        { return contractRepo{s} }
