package offer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
)

// Sweeper expires pending offers whose valid_until has passed.
type Sweeper struct {
	repo        Repository
	dispatch    *messaging.Dispatcher
	log         *zap.Logger
	batchSize   int
	concurrency int
	now         func() time.Time
}

func NewSweeper(repo Repository, dispatch *messaging.Dispatcher, log *zap.Logger, batchSize, concurrency int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 200
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{
		repo:        repo,
		dispatch:    dispatch,
		log:         log.Named("sweeper"),
		batchSize:   batchSize,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// WithClock replaces the time source used to decide staleness.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep runs one pass. Every offer is expired by its own conditional update,
// so a failure on one is logged and counted without stopping the others, and
// an offer accepted or expired concurrently is skipped.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()
	ids, err := s.repo.ListStale(ctx, now, s.batchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale offers: %w", err)
	}

	var expired, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			ok, err := s.expire(gctx, id, now)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				s.log.Error("expire offer failed", zap.String("offer_id", id.String()), zap.Error(err))
			case ok:
				atomic.AddInt64(&expired, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := SweepResult{Scanned: len(ids), Expired: int(expired), Failed: int(failed)}
	if res.Scanned > 0 {
		s.log.Info("sweep finished",
			zap.Int("scanned", res.Scanned), zap.Int("expired", res.Expired), zap.Int("failed", res.Failed))
	}
	return res, nil
}

func (s *Sweeper) expire(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	o, err := s.repo.ExpireIfStale(ctx, id, now)
	if err != nil || o == nil {
		return false, err
	}
	s.dispatch.Message(ctx, o.ConversationID, fmt.Sprintf("Offer %q has expired", o.Title), messaging.PartyCouple)
	s.dispatch.Notify(ctx, messaging.Notification{
		RecipientType: messaging.PartyCouple,
		RecipientID:   o.CoupleID,
		Type:          messaging.TypeOfferExpired,
		Title:         "Offer expired",
		Body:          fmt.Sprintf("The offer %q is no longer valid", o.Title),
	})
	return true, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
