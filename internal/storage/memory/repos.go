package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/couple"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// ---- vendors ----

type vendorRepo struct{ s *Store }

func (r vendorRepo) GetVendor(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	defer r.s.lock(ctx)()
	v, ok := r.s.st.vendors[id]
	if !ok {
		return nil, apperr.NotFound("vendor")
	}
	return &v, nil
}

// ---- couples ----

type coupleRepo struct{ s *Store }

func (r coupleRepo) GetCouple(ctx context.Context, id uuid.UUID) (*couple.Couple, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.couples[id]
	if !ok {
		return nil, apperr.NotFound("couple")
	}
	return &c, nil
}

func (r coupleRepo) UpdateWeddingDate(ctx context.Context, id uuid.UUID, date *caldate.Date) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.couples[id]
	if !ok {
		return apperr.NotFound("couple")
	}
	if date != nil {
		d := *date
		date = &d
	}
	c.WeddingDate, c.UpdatedAt = date, now()
	r.s.st.couples[id] = c
	return nil
}

// weddingOn reports whether the couple marries on date. Callers hold the lock.
func (s *Store) weddingOn(coupleID uuid.UUID, date caldate.Date) bool {
	c, ok := s.st.couples[coupleID]
	return ok && c.WeddingDate != nil && *c.WeddingDate == date
}

// ---- availability ----

type availabilityRepo struct{ s *Store }

func (r availabilityRepo) Upsert(ctx context.Context, a *availability.Availability) error {
	defer r.s.lock(ctx)()
	key := calendarKey{vendorID: a.VendorID, date: a.Date}
	ts := now()
	if existing, ok := r.s.st.calendar[key]; ok {
		a.ID, a.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts
	stored := *a
	stored.MaxBookings = cloneInt(a.MaxBookings)
	r.s.st.calendar[key] = stored
	return nil
}

func (r availabilityRepo) Find(ctx context.Context, vendorID uuid.UUID, date caldate.Date, _ bool) (*availability.Availability, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.st.calendar[calendarKey{vendorID: vendorID, date: date}]
	if !ok {
		return nil, nil
	}
	a.MaxBookings = cloneInt(a.MaxBookings)
	return &a, nil
}

func (r availabilityRepo) Delete(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (bool, error) {
	defer r.s.lock(ctx)()
	key := calendarKey{vendorID: vendorID, date: date}
	if _, ok := r.s.st.calendar[key]; !ok {
		return false, nil
	}
	delete(r.s.st.calendar, key)
	return true, nil
}

func (r availabilityRepo) ListRange(ctx context.Context, vendorID uuid.UUID, from, to caldate.Date) ([]*availability.Availability, error) {
	defer r.s.lock(ctx)()
	var out []*availability.Availability
	for key, a := range r.s.st.calendar {
		if key.vendorID != vendorID || key.date.Before(from) || key.date.After(to) {
			continue
		}
		a.MaxBookings = cloneInt(a.MaxBookings)
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r availabilityRepo) CountBookings(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, c := range r.s.st.contracts {
		if c.VendorID != vendorID || c.Status == contract.StatusCancelled {
			continue
		}
		if r.s.weddingOn(c.CoupleID, date) {
			n++
		}
	}
	return n, nil
}

// ---- products ----

type productRepo struct{ s *Store }

func copyProduct(p inventory.Product) *inventory.Product {
	p.AvailableQuantity = cloneInt(p.AvailableQuantity)
	return &p
}

func (r productRepo) CreateProduct(ctx context.Context, p *inventory.Product) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.products[p.ID]; ok {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	p.CreatedAt, p.UpdatedAt = now(), now()
	r.s.st.products[p.ID] = *copyProduct(*p)
	return nil
}

func (r productRepo) GetProduct(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, apperr.NotFound("product")
	}
	return copyProduct(p), nil
}

func (r productRepo) ListProducts(ctx context.Context, vendorID uuid.UUID) ([]*inventory.Product, error) {
	defer r.s.lock(ctx)()
	var out []*inventory.Product
	for _, p := range r.s.st.products {
		if p.VendorID == vendorID {
			out = append(out, copyProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r productRepo) UpdateInventory(ctx context.Context, p *inventory.Product) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.st.products[p.ID]
	if !ok {
		return apperr.NotFound("product")
	}
	stored.TrackInventory = p.TrackInventory
	stored.AvailableQuantity = cloneInt(p.AvailableQuantity)
	stored.BookingBuffer = p.BookingBuffer
	stored.UpdatedAt = now()
	p.UpdatedAt = stored.UpdatedAt
	r.s.st.products[p.ID] = stored
	return nil
}

func (r productRepo) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Product, error) {
	defer r.s.lock(ctx)()
	out := make(map[uuid.UUID]*inventory.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

func (r productRepo) ReservedForDate(ctx context.Context, ids []uuid.UUID, date caldate.Date) (map[uuid.UUID]int, error) {
	defer r.s.lock(ctx)()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	cancelled := make(map[uuid.UUID]bool)
	for _, c := range r.s.st.contracts {
		if c.Status == contract.StatusCancelled {
			cancelled[c.OfferID] = true
		}
	}

	out := make(map[uuid.UUID]int, len(ids))
	for _, o := range r.s.st.offers {
		switch {
		case o.Status == offer.StatusPending:
		case o.Status == offer.StatusAccepted && !cancelled[o.ID]:
		default:
			continue
		}
		if !r.s.weddingOn(o.CoupleID, date) {
			continue
		}
		for _, item := range r.s.st.items[o.ID] {
			if item.ProductID != nil && wanted[*item.ProductID] {
				out[*item.ProductID] += item.Quantity
			}
		}
	}
	return out, nil
}

func (r productRepo) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.st.products[id]
	if !ok || !p.TrackInventory || p.AvailableQuantity == nil {
		return nil
	}
	qty := *p.AvailableQuantity + delta
	if qty < 0 {
		// mirrors the CHECK constraint on vendor_products
		return fmt.Errorf("available_quantity of %s would become %d", id, qty)
	}
	p.AvailableQuantity, p.UpdatedAt = &qty, now()
	r.s.st.products[id] = p
	return nil
}

// ---- offers ----

type offerRepo struct{ s *Store }

func (s *Store) loadOffer(id uuid.UUID) (*offer.Offer, bool) {
	o, ok := s.st.offers[id]
	if !ok {
		return nil, false
	}
	items := s.st.items[id]
	o.Items = make([]*offer.Item, len(items))
	for i := range items {
		item := items[i]
		o.Items[i] = &item
	}
	return &o, true
}

func (r offerRepo) CreateOffer(ctx context.Context, o *offer.Offer) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.offers[o.ID]; ok {
		return fmt.Errorf("offer %s already exists", o.ID)
	}
	o.CreatedAt, o.UpdatedAt = now(), now()
	header := *o
	header.Items = nil
	items := make([]offer.Item, len(o.Items))
	for i, item := range o.Items {
		items[i] = *item
		items[i].OfferID = o.ID
	}
	r.s.st.offers[o.ID] = header
	r.s.st.items[o.ID] = items
	return nil
}

func (r offerRepo) GetOffer(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	defer r.s.lock(ctx)()
	o, ok := r.s.loadOffer(id)
	if !ok {
		return nil, apperr.NotFound("offer")
	}
	return o, nil
}

func (r offerRepo) GetOfferForUpdate(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	return r.GetOffer(ctx, id)
}

func (r offerRepo) list(ctx context.Context, match func(offer.Offer) bool, status offer.Status) []*offer.Offer {
	defer r.s.lock(ctx)()
	var out []*offer.Offer
	for id, o := range r.s.st.offers {
		if !match(o) || (status != "" && o.Status != status) {
			continue
		}
		loaded, _ := r.s.loadOffer(id)
		out = append(out, loaded)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r offerRepo) ListVendorOffers(ctx context.Context, vendorID uuid.UUID, status offer.Status) ([]*offer.Offer, error) {
	return r.list(ctx, func(o offer.Offer) bool { return o.VendorID == vendorID }, status), nil
}

func (r offerRepo) ListCoupleOffers(ctx context.Context, coupleID uuid.UUID, status offer.Status) ([]*offer.Offer, error) {
	return r.list(ctx, func(o offer.Offer) bool { return o.CoupleID == coupleID }, status), nil
}

func (r offerRepo) Transition(ctx context.Context, id uuid.UUID, from, to offer.Status, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	return r.s.transitionOffer(id, from, to, at)
}

func (s *Store) transitionOffer(id uuid.UUID, from, to offer.Status, at time.Time) (bool, error) {
	o, ok := s.st.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	ts := at
	switch to {
	case offer.StatusAccepted:
		o.AcceptedAt = &ts
	case offer.StatusDeclined:
		o.DeclinedAt = &ts
	case offer.StatusExpired:
		o.ExpiredAt = &ts
	default:
		return false, fmt.Errorf("no transition into %s", to)
	}
	o.Status, o.UpdatedAt = to, at
	s.st.offers[id] = o
	return true, nil
}

func stale(o offer.Offer, at time.Time) bool {
	return o.Status == offer.StatusPending && o.ValidUntil != nil && o.ValidUntil.Before(at)
}

func (r offerRepo) ListStale(ctx context.Context, at time.Time, limit int) ([]uuid.UUID, error) {
	defer r.s.lock(ctx)()
	var found []offer.Offer
	for _, o := range r.s.st.offers {
		if stale(o, at) {
			found = append(found, o)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ValidUntil.Before(*found[j].ValidUntil) })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	ids := make([]uuid.UUID, len(found))
	for i, o := range found {
		ids[i] = o.ID
	}
	return ids, nil
}

func (r offerRepo) ExpireIfStale(ctx context.Context, id uuid.UUID, at time.Time) (*offer.Offer, error) {
	defer r.s.lock(ctx)()
	o, ok := r.s.st.offers[id]
	if !ok || !stale(o, at) {
		return nil, nil
	}
	if _, err := r.s.transitionOffer(id, offer.StatusPending, offer.StatusExpired, at); err != nil {
		return nil, err
	}
	expired, _ := r.s.loadOffer(id)
	return expired, nil
}

func (r offerRepo) ReservedLines(ctx context.Context, offerID uuid.UUID) ([]inventory.Demand, error) {
	defer r.s.lock(ctx)()
	var lines []inventory.Demand
	for _, item := range r.s.st.items[offerID] {
		if item.ProductID != nil {
			lines = append(lines, inventory.Demand{ProductID: *item.ProductID, Quantity: item.Quantity})
		}
	}
	return inventory.Aggregate(lines), nil
}

// ---- contracts ----

type contractRepo struct{ s *Store }

func (r contractRepo) CreateContract(ctx context.Context, c *contract.Contract) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.st.contracts {
		if existing.OfferID == c.OfferID {
			// offer_id is unique in the schema
			return fmt.Errorf("offer %s already has a contract", c.OfferID)
		}
	}
	c.CreatedAt, c.UpdatedAt = now(), now()
	r.s.st.contracts[c.ID] = *c
	return nil
}

func (r contractRepo) GetContract(ctx context.Context, id uuid.UUID, _ bool) (*contract.Contract, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.contracts[id]
	if !ok {
		return nil, apperr.NotFound("contract")
	}
	return &c, nil
}

func (r contractRepo) listContracts(ctx context.Context, match func(contract.Contract) bool) []*contract.Contract {
	defer r.s.lock(ctx)()
	var out []*contract.Contract
	for _, c := range r.s.st.contracts {
		if match(c) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r contractRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*contract.Contract, error) {
	return r.listContracts(ctx, func(c contract.Contract) bool { return c.VendorID == vendorID }), nil
}

func (r contractRepo) ListByCouple(ctx context.Context, coupleID uuid.UUID) ([]*contract.Contract, error) {
	return r.listContracts(ctx, func(c contract.Contract) bool { return c.CoupleID == coupleID }), nil
}

func (r contractRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status contract.Status, at time.Time) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.contracts[id]
	if !ok {
		return apperr.NotFound("contract")
	}
	ts := at
	switch status {
	case contract.StatusCancelled:
		c.CancelledAt = &ts
	case contract.StatusCompleted:
		c.CompletedAt = &ts
	}
	c.Status, c.UpdatedAt = status, at
	r.s.st.contracts[id] = c
	return nil
}
