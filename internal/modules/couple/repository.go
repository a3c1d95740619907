package couple

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

type Repository interface {
	GetCouple(ctx context.Context, id uuid.UUID) (*Couple, error)
	UpdateWeddingDate(ctx context.Context, id uuid.UUID, date *caldate.Date) error
}
