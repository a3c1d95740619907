package couple

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL couple repository.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetCouple(ctx context.Context, id uuid.UUID) (*Couple, error) {
	c := &Couple{}
	err := database.Conn(ctx, r.db).GetContext(ctx, c, `
		SELECT id, display_name, wedding_date, created_at, updated_at
		FROM couple_profiles
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("couple")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepository) UpdateWeddingDate(ctx context.Context, id uuid.UUID, date *caldate.Date) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE couple_profiles SET wedding_date = $1, updated_at = NOW() WHERE id = $2`, date, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("couple")
	}
	return nil
}
