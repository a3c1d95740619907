package offer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

const offerColumns = `id, vendor_id, couple_id, conversation_id, title, message, total_amount, currency,
	status, valid_until, accepted_at, declined_at, expired_at, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

// CreateOffer expects to run inside a transaction so header and items commit together.
func (r *postgresRepo) CreateOffer(ctx context.Context, o *Offer) error {
	q := database.Conn(ctx, r.db)
	err := q.QueryRowxContext(ctx, `
		INSERT INTO vendor_offers
		  (id, vendor_id, couple_id, conversation_id, title, message, total_amount, currency, status, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		o.ID, o.VendorID, o.CoupleID, o.ConversationID, o.Title, o.Message,
		o.TotalAmount, o.Currency, o.Status, o.ValidUntil).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}

	for _, item := range o.Items {
		_, err = q.ExecContext(ctx, `
			INSERT INTO vendor_offer_items
			  (id, offer_id, product_id, title, description, quantity, unit_price, line_total, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, o.ID, item.ProductID, item.Title, item.Description,
			item.Quantity, item.UnitPrice, item.LineTotal, item.SortOrder)
		if err != nil {
			return fmt.Errorf("insert offer item: %w", err)
		}
	}
	return nil
}

func (r *postgresRepo) GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error) {
	return r.getOffer(ctx, `SELECT `+offerColumns+` FROM vendor_offers WHERE id = $1`, id)
}

func (r *postgresRepo) GetOfferForUpdate(ctx context.Context, id uuid.UUID) (*Offer, error) {
	return r.getOffer(ctx, `SELECT `+offerColumns+` FROM vendor_offers WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) getOffer(ctx context.Context, query string, id uuid.UUID) (*Offer, error) {
	o := &Offer{}
	err := database.Conn(ctx, r.db).GetContext(ctx, o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("offer")
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Offer{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListVendorOffers(ctx context.Context, vendorID uuid.UUID, status Status) ([]*Offer, error) {
	return r.listOffers(ctx, "vendor_id", vendorID, status)
}

func (r *postgresRepo) ListCoupleOffers(ctx context.Context, coupleID uuid.UUID, status Status) ([]*Offer, error) {
	return r.listOffers(ctx, "couple_id", coupleID, status)
}

// listOffers filters on owner, a fixed column name chosen by the caller.
func (r *postgresRepo) listOffers(ctx context.Context, owner string, ownerID uuid.UUID, status Status) ([]*Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM vendor_offers WHERE ` + owner + ` = $1`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var offers []*Offer
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *postgresRepo) attachItems(ctx context.Context, offers []*Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ids := make([]string, len(offers))
	byID := make(map[uuid.UUID]*Offer, len(offers))
	for i, o := range offers {
		ids[i] = o.ID.String()
		o.Items = []*Item{}
		byID[o.ID] = o
	}
	var items []*Item
	err := database.Conn(ctx, r.db).SelectContext(ctx, &items, `
		SELECT id, offer_id, product_id, title, description, quantity, unit_price, line_total, sort_order
		FROM vendor_offer_items
		WHERE offer_id = ANY($1::uuid[])
		ORDER BY offer_id, sort_order`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list offer items: %w", err)
	}
	for _, item := range items {
		if o := byID[item.OfferID]; o != nil {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}

func (r *postgresRepo) Transition(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (bool, error) {
	var stamp string
	switch to {
	case StatusAccepted:
		stamp = "accepted_at"
	case StatusDeclined:
		stamp = "declined_at"
	case StatusExpired:
		stamp = "expired_at"
	default:
		return false, fmt.Errorf("no transition into %s", to)
	}
	res, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE vendor_offers SET status = $1, `+stamp+` = $2, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, at, id, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *postgresRepo) ListStale(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := database.Conn(ctx, r.db).SelectContext(ctx, &ids, `
		SELECT id FROM vendor_offers
		WHERE status = 'pending' AND valid_until < $1
		ORDER BY valid_until
		LIMIT $2`, now, limit)
	return ids, err
}

func (r *postgresRepo) ExpireIfStale(ctx context.Context, id uuid.UUID, now time.Time) (*Offer, error) {
	o := &Offer{}
	err := database.Conn(ctx, r.db).GetContext(ctx, o, `
		UPDATE vendor_offers
		   SET status = 'expired', expired_at = $2, updated_at = $2
		 WHERE id = $1 AND status = 'pending' AND valid_until < $2
		RETURNING `+offerColumns, id, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ReservedLines(ctx context.Context, offerID uuid.UUID) ([]inventory.Demand, error) {
	var rows []struct {
		ProductID uuid.UUID `db:"product_id"`
		Quantity  int       `db:"quantity"`
	}
	err := database.Conn(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT product_id, SUM(quantity) AS quantity
		FROM vendor_offer_items
		WHERE offer_id = $1 AND product_id IS NOT NULL
		GROUP BY product_id
		ORDER BY product_id`, offerID)
	if err != nil {
		return nil, err
	}
	out := make([]inventory.Demand, len(rows))
	for i, row := range rows {
		out[i] = inventory.Demand{ProductID: row.ProductID, Quantity: row.Quantity}
	}
	return out, nil
}
