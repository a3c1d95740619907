package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

const (
	maxBulkDates = 366
	maxListDays  = 400
)

// Service manages vendor calendars and answers whether a date can take a booking.
type Service interface {
	// Set upserts one date. The last write wins.
	Set(ctx context.Context, vendorID uuid.UUID, req SetRequest) (*Availability, error)
	// BulkSet applies one setting to every date atomically.
	BulkSet(ctx context.Context, vendorID uuid.UUID, req BulkSetRequest) ([]*Availability, error)
	// Get returns the stored setting or the implicit available/unlimited default.
	Get(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (*Availability, error)
	Delete(ctx context.Context, vendorID uuid.UUID, date caldate.Date) error
	List(ctx context.Context, vendorID uuid.UUID, from, to caldate.Date) ([]*Availability, error)
	Bookings(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (*DayBookings, error)

	// Check fails with VENDOR_BLOCKED or MAX_BOOKINGS_REACHED when date cannot
	// take another booking. With lock the calendar row stays locked for the
	// rest of the caller's transaction.
	Check(ctx context.Context, vendorID uuid.UUID, date caldate.Date, lock bool) error
}

type service struct {
	repo Repository
	tx   database.TxManager
}

func NewService(repo Repository, tx database.TxManager) Service {
	return &service{repo: repo, tx: tx}
}

func validateSetting(status Status, maxBookings *int) error {
	if !status.Valid() {
		return apperr.Validation("status must be one of available, blocked, limited")
	}
	if maxBookings != nil && *maxBookings < 1 {
		return apperr.Validation("max_bookings must be at least 1")
	}
	return nil
}

func (s *service) Set(ctx context.Context, vendorID uuid.UUID, req SetRequest) (*Availability, error) {
	if req.Date.IsZero() {
		return nil, apperr.Validation("date is required")
	}
	if err := validateSetting(req.Status, req.MaxBookings); err != nil {
		return nil, err
	}
	a := &Availability{
		VendorID:    vendorID,
		Date:        req.Date,
		Status:      req.Status,
		MaxBookings: req.MaxBookings,
		Notes:       req.Notes,
	}
	if err := s.repo.Upsert(ctx, a); err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}
	return a, nil
}

func (s *service) BulkSet(ctx context.Context, vendorID uuid.UUID, req BulkSetRequest) ([]*Availability, error) {
	if len(req.Dates) == 0 {
		return nil, apperr.Validation("at least one date is required")
	}
	if len(req.Dates) > maxBulkDates {
		return nil, apperr.Validation("at most %d dates per request", maxBulkDates)
	}
	if err := validateSetting(req.Status, req.MaxBookings); err != nil {
		return nil, err
	}

	seen := make(map[caldate.Date]bool, len(req.Dates))
	var out []*Availability
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, d := range req.Dates {
			if d.IsZero() || seen[d] {
				continue
			}
			seen[d] = true
			a := &Availability{
				VendorID:    vendorID,
				Date:        d,
				Status:      req.Status,
				MaxBookings: req.MaxBookings,
				Notes:       req.Notes,
			}
			if err := s.repo.Upsert(ctx, a); err != nil {
				return fmt.Errorf("upsert availability %s: %w", d, err)
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (*Availability, error) {
	a, err := s.repo.Find(ctx, vendorID, date, false)
	if err != nil {
		return nil, fmt.Errorf("find availability: %w", err)
	}
	if a == nil {
		a = &Availability{VendorID: vendorID, Date: date, Status: StatusAvailable}
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, vendorID uuid.UUID, date caldate.Date) error {
	ok, err := s.repo.Delete(ctx, vendorID, date)
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if !ok {
		return apperr.NotFound("availability entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, vendorID uuid.UUID, from, to caldate.Date) ([]*Availability, error) {
	if to.Before(from) {
		return nil, apperr.Validation("to must not be before from")
	}
	if to.After(from.AddDays(maxListDays)) {
		return nil, apperr.Validation("range is limited to %d days", maxListDays)
	}
	return s.repo.ListRange(ctx, vendorID, from, to)
}

func (s *service) Bookings(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (*DayBookings, error) {
	a, err := s.Get(ctx, vendorID, date)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.CountBookings(ctx, vendorID, date)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	return &DayBookings{Date: date, Status: a.Status, MaxBookings: a.MaxBookings, AcceptedBookings: n}, nil
}

func (s *service) Check(ctx context.Context, vendorID uuid.UUID, date caldate.Date, lock bool) error {
	a, err := s.repo.Find(ctx, vendorID, date, lock)
	if err != nil {
		return fmt.Errorf("find availability: %w", err)
	}
	if a == nil {
		return nil
	}
	if a.Status == StatusBlocked {
		return apperr.New(apperr.CodeVendorBlocked, "vendor is not available on %s", date)
	}
	if a.MaxBookings == nil {
		return nil
	}
	n, err := s.repo.CountBookings(ctx, vendorID, date)
	if err != nil {
		return fmt.Errorf("count bookings: %w", err)
	}
	if !a.admits(n) {
		return apperr.New(apperr.CodeMaxBookingsReached,
			"vendor is fully booked on %s (%d of %d)", date, n, *a.MaxBookings)
	}
	return nil
}
