package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/storage/memory"
)

func seedProduct(t *testing.T, s *memory.Store, qty int) uuid.UUID {
	p := &inventory.Product{
		ID:                uuid.New(),
		VendorID:          uuid.New(),
		Title:             "Table linen",
		UnitPrice:         decimal.NewFromInt(20),
		TrackInventory:    true,
		AvailableQuantity: &qty,
	}
	require.NoError(t, s.Products().CreateProduct(context.Background(), p))
	return p.ID
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := memory.New()
	id := seedProduct(t, s, 5)
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, s.Products().AdjustQuantity(ctx, id, -3))
		// nested calls join the outer transaction
		return s.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Products().AdjustQuantity(ctx, id, -1))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	p, ok := s.Product(id)
	require.True(t, ok)
	assert.Equal(t, 5, *p.AvailableQuantity)
}

func TestWithinTxCommits(t *testing.T) {
	s := memory.New()
	id := seedProduct(t, s, 5)

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context) error {
		return s.Products().AdjustQuantity(ctx, id, -5)
	}))
	p, _ := s.Product(id)
	assert.Equal(t, 0, *p.AvailableQuantity)

	assert.Error(t, s.Products().AdjustQuantity(context.Background(), id, -1))
}

func TestReadsReturnCopies(t *testing.T) {
	s := memory.New()
	id := seedProduct(t, s, 5)

	p, err := s.Products().GetProduct(context.Background(), id)
	require.NoError(t, err)
	*p.AvailableQuantity = 99

	again, _ := s.Product(id)
	assert.Equal(t, 5, *again.AvailableQuantity)
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
