package contract

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

const contractColumns = `id, couple_id, vendor_id, offer_id, status, completed_at, cancelled_at, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateContract(ctx context.Context, c *Contract) error {
	return database.Conn(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO couple_vendor_contracts (id, couple_id, vendor_id, offer_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		c.ID, c.CoupleID, c.VendorID, c.OfferID, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresRepo) GetContract(ctx context.Context, id uuid.UUID, lock bool) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM couple_vendor_contracts WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	c := &Contract{}
	err := database.Conn(ctx, r.db).GetContext(ctx, c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("contract")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Contract, error) {
	var out []*Contract
	err := database.Conn(ctx, r.db).SelectContext(ctx, &out,
		`SELECT `+contractColumns+` FROM couple_vendor_contracts WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
	return out, err
}

func (r *postgresRepo) ListByCouple(ctx context.Context, coupleID uuid.UUID) ([]*Contract, error) {
	var out []*Contract
	err := database.Conn(ctx, r.db).SelectContext(ctx, &out,
		`SELECT `+contractColumns+` FROM couple_vendor_contracts WHERE couple_id = $1 ORDER BY created_at DESC`, coupleID)
	return out, err
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	var query string
	switch status {
	case StatusCancelled:
		query = `UPDATE couple_vendor_contracts SET status = $1, cancelled_at = $2, updated_at = $2 WHERE id = $3`
	case StatusCompleted:
		query = `UPDATE couple_vendor_contracts SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3`
	default:
		query = `UPDATE couple_vendor_contracts SET status = $1, updated_at = $2 WHERE id = $3`
	}
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, query, status, at, id)
	return err
}
