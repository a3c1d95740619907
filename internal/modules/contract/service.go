package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

// Service creates contracts from accepted offers and runs their lifecycle.
type Service interface {
	// Materialize consumes the offer's stock and creates an active contract.
	// It must run inside the accept transaction so both commit together.
	Materialize(ctx context.Context, req MaterializeRequest) (*Contract, error)

	GetContract(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error)
	ListContracts(ctx context.Context, caller auth.Principal) ([]*Contract, error)

	// Cancel returns the offer's stock to inventory. Only active contracts can
	// be cancelled, so stock is never refunded twice.
	Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error)
	// Complete closes an active contract without touching inventory.
	Complete(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error)
	UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, req UpdateStatusRequest) (*Contract, error)
}

type service struct {
	repo     Repository
	lines    LineSource
	ledger   inventory.Service
	tx       database.TxManager
	dispatch *messaging.Dispatcher
	now      func() time.Time
}

func NewService(repo Repository, lines LineSource, ledger inventory.Service, tx database.TxManager, dispatch *messaging.Dispatcher) Service {
	return &service{repo: repo, lines: lines, ledger: ledger, tx: tx, dispatch: dispatch, now: time.Now}
}

func (s *service) Materialize(ctx context.Context, req MaterializeRequest) (*Contract, error) {
	var c *Contract
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.Consume(ctx, req.Lines); err != nil {
			return err
		}
		c = &Contract{
			ID:       uuid.New(),
			CoupleID: req.CoupleID,
			VendorID: req.VendorID,
			OfferID:  req.OfferID,
			Status:   StatusActive,
		}
		if err := s.repo.CreateContract(ctx, c); err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func isParty(c *Contract, caller auth.Principal) bool {
	switch caller.Role {
	case auth.RoleVendor:
		return c.VendorID == caller.ID
	case auth.RoleCouple:
		return c.CoupleID == caller.ID
	}
	return false
}

func (s *service) GetContract(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.repo.GetContract(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !isParty(c, caller) {
		return nil, apperr.NotFound("contract")
	}
	return c, nil
}

func (s *service) ListContracts(ctx context.Context, caller auth.Principal) ([]*Contract, error) {
	switch caller.Role {
	case auth.RoleVendor:
		return s.repo.ListByVendor(ctx, caller.ID)
	case auth.RoleCouple:
		return s.repo.ListByCouple(ctx, caller.ID)
	}
	return nil, apperr.Forbidden("unknown role")
}

func (s *service) UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, req UpdateStatusRequest) (*Contract, error) {
	switch req.Status {
	case StatusCancelled:
		return s.Cancel(ctx, caller, id)
	case StatusCompleted:
		return s.Complete(ctx, caller, id)
	}
	return nil, apperr.Validation("status must be cancelled or completed")
}

func (s *service) Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.transition(ctx, caller, id, StatusCancelled, func(ctx context.Context, c *Contract) error {
		lines, err := s.lines.ReservedLines(ctx, c.OfferID)
		if err != nil {
			return fmt.Errorf("load offer lines: %w", err)
		}
		return s.ledger.Restore(ctx, lines)
	})
	if err != nil {
		return nil, err
	}
	s.notifyCounterpart(ctx, caller, c, messaging.TypeContractCancelled, "Booking cancelled",
		"A booking has been cancelled.")
	return c, nil
}

func (s *service) Complete(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.transition(ctx, caller, id, StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	s.notifyCounterpart(ctx, caller, c, messaging.TypeContractCompleted, "Booking completed",
		"A booking has been marked as completed.")
	return c, nil
}

// transition moves an active contract to status under a row lock, running
// effect first in the same transaction.
func (s *service) transition(ctx context.Context, caller auth.Principal, id uuid.UUID, status Status,
	effect func(ctx context.Context, c *Contract) error) (*Contract, error) {

	var out *Contract
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetContract(ctx, id, true)
		if err != nil {
			return err
		}
		if !isParty(c, caller) {
			return apperr.Forbidden("not a party to this contract")
		}
		if c.Status != StatusActive {
			return apperr.AlreadyProcessed("contract is already %s", c.Status)
		}
		if effect != nil {
			if err := effect(ctx, c); err != nil {
				return err
			}
		}
		at := s.now().UTC()
		if err := s.repo.UpdateStatus(ctx, c.ID, status, at); err != nil {
			return fmt.Errorf("update contract status: %w", err)
		}
		c.Status = status
		c.UpdatedAt = at
		switch status {
		case StatusCancelled:
			c.CancelledAt = &at
		case StatusCompleted:
			c.CompletedAt = &at
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) notifyCounterpart(ctx context.Context, caller auth.Principal, c *Contract, typ, title, body string) {
	n := messaging.Notification{Type: typ, Title: title, Body: body}
	if caller.Role == auth.RoleVendor {
		n.RecipientType, n.RecipientID = messaging.PartyCouple, c.CoupleID
	} else {
		n.RecipientType, n.RecipientID = messaging.PartyVendor, c.VendorID
	}
	s.dispatch.Notify(ctx, n)
}
