package couple

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Service defines the couple profile operations used by the offer flow.
type Service interface {
	GetCouple(ctx context.Context, id uuid.UUID) (*Couple, error)
	SetWeddingDate(ctx context.Context, id uuid.UUID, date *caldate.Date) (*Couple, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCouple(ctx context.Context, id uuid.UUID) (*Couple, error) {
	return s.repo.GetCouple(ctx, id)
}

// SetWeddingDate moves or clears the date. Offers already sent keep reserving
// against whatever date the couple holds when the ledger is next read.
func (s *service) SetWeddingDate(ctx context.Context, id uuid.UUID, date *caldate.Date) (*Couple, error) {
	if err := s.repo.UpdateWeddingDate(ctx, id, date); err != nil {
		return nil, err
	}
	return s.repo.GetCouple(ctx, id)
}
