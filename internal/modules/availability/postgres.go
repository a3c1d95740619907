package availability

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Upsert(ctx context.Context, a *Availability) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return database.Conn(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO vendor_availability (id, vendor_id, date, status, max_bookings, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vendor_id, date) DO UPDATE
		   SET status = EXCLUDED.status,
		       max_bookings = EXCLUDED.max_bookings,
		       notes = EXCLUDED.notes,
		       updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		a.ID, a.VendorID, a.Date, a.Status, a.MaxBookings, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *postgresRepo) Find(ctx context.Context, vendorID uuid.UUID, date caldate.Date, lock bool) (*Availability, error) {
	query := `
		SELECT id, vendor_id, date, status, max_bookings, notes, created_at, updated_at
		FROM vendor_availability
		WHERE vendor_id = $1 AND date = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	a := &Availability{}
	err := database.Conn(ctx, r.db).GetContext(ctx, a, query, vendorID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Delete(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (bool, error) {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM vendor_availability WHERE vendor_id = $1 AND date = $2`, vendorID, date)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresRepo) ListRange(ctx context.Context, vendorID uuid.UUID, from, to caldate.Date) ([]*Availability, error) {
	var days []*Availability
	err := database.Conn(ctx, r.db).SelectContext(ctx, &days, `
		SELECT id, vendor_id, date, status, max_bookings, notes, created_at, updated_at
		FROM vendor_availability
		WHERE vendor_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`, vendorID, from, to)
	return days, err
}

func (r *postgresRepo) CountBookings(ctx context.Context, vendorID uuid.UUID, date caldate.Date) (int, error) {
	var n int
	err := database.Conn(ctx, r.db).GetContext(ctx, &n, `
		SELECT COUNT(*)
		FROM couple_vendor_contracts c
		JOIN couple_profiles cp ON cp.id = c.couple_id
		WHERE c.vendor_id = $1
		  AND cp.wedding_date = $2
		  AND c.status IN ('active', 'completed')`, vendorID, date)
	return n, err
}
