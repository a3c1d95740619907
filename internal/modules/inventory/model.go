package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Product is a rentable or sellable item in a vendor's catalogue.
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	VendorID          uuid.UUID       `json:"vendor_id" db:"vendor_id"`
	Title             string          `json:"title" db:"title"`
	Description       string          `json:"description" db:"description"`
	UnitPrice         decimal.Decimal `json:"unit_price" db:"unit_price"`
	TrackInventory    bool            `json:"track_inventory" db:"track_inventory"`
	AvailableQuantity *int            `json:"available_quantity" db:"available_quantity"` // physical stock, nil when untracked
	BookingBuffer     int             `json:"booking_buffer" db:"booking_buffer"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Tracked reports whether quantities of p are accounted for at all.
// Untracked products have unlimited effective availability.
func (p *Product) Tracked() bool {
	return p.TrackInventory && p.AvailableQuantity != nil
}

// Demand is a requested quantity of one product.
type Demand struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Aggregate merges demands on the same product and orders them by product id,
// which is also the order rows are locked in.
func Aggregate(demands []Demand) []Demand {
	byID := make(map[uuid.UUID]int, len(demands))
	for _, d := range demands {
		byID[d.ProductID] += d.Quantity
	}
	out := make([]Demand, 0, len(byID))
	for id, qty := range byID {
		out = append(out, Demand{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// IDs returns the product ids of sorted demands.
func IDs(demands []Demand) []uuid.UUID {
	ids := make([]uuid.UUID, len(demands))
	for i, d := range demands {
		ids[i] = d.ProductID
	}
	return ids
}

// Shortage describes one product that cannot cover the requested quantity.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Shortages is rendered as the "shortages" field of an error response.
type Shortages []Shortage

func (Shortages) IsShortageList() {}

// ProductAvailability is the ledger view of one product on one date.
type ProductAvailability struct {
	ProductID          uuid.UUID    `json:"product_id"`
	Date               caldate.Date `json:"date"`
	Tracked            bool         `json:"tracked"`
	AvailableQuantity  *int         `json:"available_quantity"`
	Reserved           int          `json:"reserved"`
	BookingBuffer      int          `json:"booking_buffer"`
	EffectiveAvailable *int         `json:"effective_available"` // nil means unlimited
}

// CreateProductRequest holds data for adding a product to a vendor catalogue.
type CreateProductRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TrackInventory    bool            `json:"track_inventory"`
	AvailableQuantity *int            `json:"available_quantity"`
	BookingBuffer     int             `json:"booking_buffer"`
}

// UpdateInventoryRequest changes the stock settings of a product.
type UpdateInventoryRequest struct {
	TrackInventory    *bool `json:"track_inventory"`
	AvailableQuantity *int  `json:"available_quantity"`
	BookingBuffer     *int  `json:"booking_buffer"`
}
