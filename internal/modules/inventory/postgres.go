package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

const productColumns = `id, vendor_id, title, description, unit_price, track_inventory,
	available_quantity, booking_buffer, created_at, updated_at`

type productPostgres struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &productPostgres{db: db} }

func (r *productPostgres) CreateProduct(ctx context.Context, p *Product) error {
	return database.Conn(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO vendor_products
		  (id, vendor_id, title, description, unit_price, track_inventory, available_quantity, booking_buffer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.VendorID, p.Title, p.Description, p.UnitPrice,
		p.TrackInventory, p.AvailableQuantity, p.BookingBuffer).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *productPostgres) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p := &Product{}
	err := database.Conn(ctx, r.db).GetContext(ctx, p,
		`SELECT `+productColumns+` FROM vendor_products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productPostgres) ListProducts(ctx context.Context, vendorID uuid.UUID) ([]*Product, error) {
	var products []*Product
	err := database.Conn(ctx, r.db).SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM vendor_products WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
	return products, err
}

func (r *productPostgres) UpdateInventory(ctx context.Context, p *Product) error {
	return database.Conn(ctx, r.db).QueryRowxContext(ctx, `
		UPDATE vendor_products
		   SET track_inventory = $1, available_quantity = $2, booking_buffer = $3, updated_at = NOW()
		 WHERE id = $4
		RETURNING updated_at`,
		p.TrackInventory, p.AvailableQuantity, p.BookingBuffer, p.ID).
		Scan(&p.UpdatedAt)
}

func (r *productPostgres) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	out := make(map[uuid.UUID]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []*Product
	err := database.Conn(ctx, r.db).SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM vendor_products
		  WHERE id = ANY($1::uuid[])
		  ORDER BY id
		  FOR UPDATE`, idArray(ids))
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productPostgres) ReservedForDate(ctx context.Context, ids []uuid.UUID, date caldate.Date) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ProductID uuid.UUID `db:"product_id"`
		Reserved  int       `db:"reserved"`
	}
	err := database.Conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT i.product_id, SUM(i.quantity) AS reserved
		FROM vendor_offer_items i
		JOIN vendor_offers o ON o.id = i.offer_id
		JOIN couple_profiles cp ON cp.id = o.couple_id
		LEFT JOIN couple_vendor_contracts c ON c.offer_id = o.id
		WHERE i.product_id = ANY($1::uuid[])
		  AND cp.wedding_date = $2
		  AND (o.status = 'pending'
		       OR (o.status = 'accepted' AND (c.id IS NULL OR c.status <> 'cancelled')))
		GROUP BY i.product_id`, idArray(ids), date)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row.Reserved
	}
	return out, nil
}

func (r *productPostgres) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE vendor_products
		   SET available_quantity = available_quantity + $1, updated_at = NOW()
		 WHERE id = $2 AND track_inventory AND available_quantity IS NOT NULL`, delta, id)
	return err
}

func idArray(ids []uuid.UUID) interface{} {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return pq.Array(s)
}
