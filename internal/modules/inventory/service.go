package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

// Service is the vendor product catalogue plus the inventory ledger used by
// the offer and contract flows.
type Service interface {
	// Catalogue operations
	CreateProduct(ctx context.Context, vendorID uuid.UUID, req CreateProductRequest) (*Product, error)
	ListProducts(ctx context.Context, vendorID uuid.UUID) ([]*Product, error)
	UpdateInventory(ctx context.Context, vendorID, productID uuid.UUID, req UpdateInventoryRequest) (*Product, error)
	EffectiveAvailable(ctx context.Context, vendorID, productID uuid.UUID, date caldate.Date) (*ProductAvailability, error)

	// Ledger operations. Callers run these inside a transaction.

	// LockVendorProducts locks every product in ids and fails with
	// INVALID_PRODUCT unless all exist and belong to vendorID.
	LockVendorProducts(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	// CheckAdmission compares demands with effective availability on date and
	// fails with INSUFFICIENT_INVENTORY and the full shortage list.
	CheckAdmission(ctx context.Context, products map[uuid.UUID]*Product, demands []Demand, date caldate.Date) error
	// Consume rechecks physical stock and decrements it for tracked products.
	Consume(ctx context.Context, demands []Demand) error
	// Restore is the exact inverse of Consume.
	Restore(ctx context.Context, demands []Demand) error
}

type service struct {
	repo Repository
	tx   database.TxManager
}

// NewService creates the inventory service.
func NewService(repo Repository, tx database.TxManager) Service {
	return &service{repo: repo, tx: tx}
}

func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, req CreateProductRequest) (*Product, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperr.Validation("unit_price must not be negative")
	}
	if err := validateStock(req.TrackInventory, req.AvailableQuantity, req.BookingBuffer); err != nil {
		return nil, err
	}

	p := &Product{
		ID:                uuid.New(),
		VendorID:          vendorID,
		Title:             title,
		Description:       req.Description,
		UnitPrice:         req.UnitPrice.Round(2),
		TrackInventory:    req.TrackInventory,
		AvailableQuantity: req.AvailableQuantity,
		BookingBuffer:     req.BookingBuffer,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func validateStock(track bool, qty *int, buffer int) error {
	if track && qty == nil {
		return apperr.Validation("available_quantity is required when track_inventory is set")
	}
	if qty != nil && *qty < 0 {
		return apperr.Validation("available_quantity must not be negative")
	}
	if buffer < 0 {
		return apperr.Validation("booking_buffer must not be negative")
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, vendorID uuid.UUID) ([]*Product, error) {
	return s.repo.ListProducts(ctx, vendorID)
}

func (s *service) UpdateInventory(ctx context.Context, vendorID, productID uuid.UUID, req UpdateInventoryRequest) (*Product, error) {
	var out *Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		products, err := s.LockVendorProducts(ctx, vendorID, []uuid.UUID{productID})
		if err != nil {
			return err
		}
		p := products[productID]
		if req.TrackInventory != nil {
			p.TrackInventory = *req.TrackInventory
		}
		if req.AvailableQuantity != nil {
			qty := *req.AvailableQuantity
			p.AvailableQuantity = &qty
		}
		if req.BookingBuffer != nil {
			p.BookingBuffer = *req.BookingBuffer
		}
		if err := validateStock(p.TrackInventory, p.AvailableQuantity, p.BookingBuffer); err != nil {
			return err
		}
		if err := s.repo.UpdateInventory(ctx, p); err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}

func (s *service) EffectiveAvailable(ctx context.Context, vendorID, productID uuid.UUID, date caldate.Date) (*ProductAvailability, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.VendorID != vendorID {
		return nil, apperr.NotFound("product")
	}
	view := &ProductAvailability{
		ProductID:         p.ID,
		Date:              date,
		Tracked:           p.Tracked(),
		AvailableQuantity: p.AvailableQuantity,
		BookingBuffer:     p.BookingBuffer,
	}
	if !p.Tracked() {
		return view, nil
	}
	reserved, err := s.repo.ReservedForDate(ctx, []uuid.UUID{p.ID}, date)
	if err != nil {
		return nil, fmt.Errorf("reserved for date: %w", err)
	}
	view.Reserved = reserved[p.ID]
	effective := effectiveAvailable(p, view.Reserved)
	view.EffectiveAvailable = &effective
	return view, nil
}

// effectiveAvailable may be negative when the buffer or older reservations
// exceed stock. Only tracked products have one.
func effectiveAvailable(p *Product, reserved int) int {
	return *p.AvailableQuantity - reserved - p.BookingBuffer
}

func (s *service) LockVendorProducts(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	products, err := s.repo.LockProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	for _, id := range ids {
		p, ok := products[id]
		if !ok || p.VendorID != vendorID {
			return nil, apperr.New(apperr.CodeInvalidProduct, "product %s does not belong to this vendor", id)
		}
	}
	return products, nil
}

func (s *service) CheckAdmission(ctx context.Context, products map[uuid.UUID]*Product, demands []Demand, date caldate.Date) error {
	var tracked []uuid.UUID
	for _, d := range demands {
		if p := products[d.ProductID]; p != nil && p.Tracked() {
			tracked = append(tracked, d.ProductID)
		}
	}
	if len(tracked) == 0 {
		return nil
	}

	reserved, err := s.repo.ReservedForDate(ctx, tracked, date)
	if err != nil {
		return fmt.Errorf("reserved for date: %w", err)
	}

	var shortages Shortages
	for _, d := range demands {
		p := products[d.ProductID]
		if p == nil || !p.Tracked() {
			continue
		}
		if effective := effectiveAvailable(p, reserved[p.ID]); d.Quantity > effective {
			if effective < 0 {
				effective = 0
			}
			shortages = append(shortages, Shortage{
				ProductID: p.ID,
				Title:     p.Title,
				Requested: d.Quantity,
				Available: effective,
			})
		}
	}
	if len(shortages) > 0 {
		return apperr.New(apperr.CodeInsufficientInventory, "insufficient inventory for %d product(s)", len(shortages)).
			WithDetails(shortages)
	}
	return nil
}

func (s *service) Consume(ctx context.Context, demands []Demand) error {
	demands = Aggregate(demands)
	products, err := s.repo.LockProducts(ctx, IDs(demands))
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}

	var shortages Shortages
	for _, d := range demands {
		p := products[d.ProductID]
		if p == nil || !p.Tracked() {
			continue
		}
		if *p.AvailableQuantity < d.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: p.ID,
				Title:     p.Title,
				Requested: d.Quantity,
				Available: *p.AvailableQuantity,
			})
		}
	}
	if len(shortages) > 0 {
		return apperr.New(apperr.CodeInsufficientInventory, "insufficient stock for %d product(s)", len(shortages)).
			WithDetails(shortages)
	}

	for _, d := range demands {
		if p := products[d.ProductID]; p != nil && p.Tracked() {
			if err := s.repo.AdjustQuantity(ctx, p.ID, -d.Quantity); err != nil {
				return fmt.Errorf("decrement %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func (s *service) Restore(ctx context.Context, demands []Demand) error {
	demands = Aggregate(demands)
	products, err := s.repo.LockProducts(ctx, IDs(demands))
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	for _, d := range demands {
		if p := products[d.ProductID]; p != nil && p.Tracked() {
			if err := s.repo.AdjustQuantity(ctx, p.ID, d.Quantity); err != nil {
				return fmt.Errorf("increment %s: %w", p.ID, err)
			}
		}
	}
	return nil
}
