package offer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/couple"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
)

// Service defines the offer lifecycle.
type Service interface {
	// CreateOffer runs the admission check and stores a pending offer. Nothing
	// is written when any check fails.
	CreateOffer(ctx context.Context, vendorID uuid.UUID, req CreateRequest) (*Offer, error)

	// GetOffer returns the offer when caller is its vendor or couple.
	GetOffer(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Offer, error)

	// ListOffers returns the caller's offers, newest first, optionally by status.
	ListOffers(ctx context.Context, caller auth.Principal, status Status) ([]*Offer, error)

	// Respond applies the couple's decision. Accepting consumes stock and
	// creates the contract in the same transaction.
	Respond(ctx context.Context, coupleID, offerID uuid.UUID, decision Decision) (*RespondResult, error)
}

// Deps are the collaborators of the offer service.
type Deps struct {
	Repo         Repository
	Vendors      vendor.Service
	Couples      couple.Service
	Availability availability.Service
	Inventory    inventory.Service
	Contracts    contract.Service
	Tx           database.TxManager
	Dispatch     *messaging.Dispatcher
	Log          *zap.Logger
	Currency     string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) Service {
	if d.Currency == "" {
		d.Currency = "NOK"
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	return &service{Deps: d, now: now}
}

func (s *service) CreateOffer(ctx context.Context, vendorID uuid.UUID, req CreateRequest) (*Offer, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if req.CoupleID == uuid.Nil {
		return nil, apperr.Validation("couple_id is required")
	}
	now := s.now()
	if req.ValidUntil != nil && !req.ValidUntil.After(now) {
		return nil, apperr.Validation("valid_until must be in the future")
	}
	lines, err := parseLines(req.Items)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.Currency
	}

	if _, err := s.Vendors.RequireApproved(ctx, vendorID); err != nil {
		return nil, err
	}
	c, err := s.Couples.GetCouple(ctx, req.CoupleID)
	if err != nil {
		return nil, err
	}

	wanted := demands(lines)
	o := &Offer{
		ID:             uuid.New(),
		VendorID:       vendorID,
		CoupleID:       c.ID,
		ConversationID: req.ConversationID,
		Title:          title,
		Message:        req.Message,
		Currency:       currency,
		Status:         StatusPending,
		ValidUntil:     req.ValidUntil,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		products, err := s.Inventory.LockVendorProducts(ctx, vendorID, inventory.IDs(wanted))
		if err != nil {
			return err
		}
		// without a wedding date there is nothing to reserve against
		if c.WeddingDate != nil {
			if err := s.Availability.Check(ctx, vendorID, *c.WeddingDate, false); err != nil {
				return err
			}
			if err := s.Inventory.CheckAdmission(ctx, products, wanted, *c.WeddingDate); err != nil {
				return err
			}
		}
		o.Items, o.TotalAmount = buildItems(o.ID, lines, products)
		return s.Repo.CreateOffer(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("offer created",
		zap.String("offer_id", o.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.String("couple_id", c.ID.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)))

	s.Dispatch.Message(ctx, o.ConversationID,
		fmt.Sprintf("New offer: %s (%d items, %s %s)", o.Title, len(o.Items), o.TotalAmount.StringFixed(2), o.Currency),
		messaging.PartyCouple)
	s.Dispatch.Notify(ctx, messaging.Notification{
		RecipientType: messaging.PartyCouple,
		RecipientID:   o.CoupleID,
		Type:          messaging.TypeOfferReceived,
		Title:         "New offer",
		Body:          fmt.Sprintf("You received an offer: %s", o.Title),
	})
	return o, nil
}

func ownedBy(o *Offer, caller auth.Principal) bool {
	switch caller.Role {
	case auth.RoleVendor:
		return o.VendorID == caller.ID
	case auth.RoleCouple:
		return o.CoupleID == caller.ID
	}
	return false
}

func (s *service) GetOffer(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Offer, error) {
	o, err := s.Repo.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(o, caller) {
		return nil, apperr.NotFound("offer")
	}
	return o, nil
}

func (s *service) ListOffers(ctx context.Context, caller auth.Principal, status Status) ([]*Offer, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("unknown status %q", status)
	}
	switch caller.Role {
	case auth.RoleVendor:
		return s.Repo.ListVendorOffers(ctx, caller.ID, status)
	case auth.RoleCouple:
		return s.Repo.ListCoupleOffers(ctx, caller.ID, status)
	}
	return nil, apperr.Forbidden("unknown role")
}

func (s *service) Respond(ctx context.Context, coupleID, offerID uuid.UUID, decision Decision) (*RespondResult, error) {
	if decision != DecisionAccept && decision != DecisionDecline {
		return nil, apperr.Validation("decision must be accept or decline")
	}

	result := &RespondResult{}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.Repo.GetOfferForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if o.CoupleID != coupleID {
			return apperr.NotFound("offer")
		}
		if o.Status != StatusPending {
			return apperr.AlreadyProcessed("offer is already %s", o.Status)
		}
		now := s.now().UTC()
		if o.ValidUntil != nil && o.ValidUntil.Before(now) {
			return apperr.New(apperr.CodeOfferExpired, "offer expired at %s", o.ValidUntil.UTC().Format(time.RFC3339))
		}

		if decision == DecisionAccept {
			c, err := s.accept(ctx, o)
			if err != nil {
				return err
			}
			result.Contract = c
			o.Status, o.AcceptedAt = StatusAccepted, &now
		} else {
			o.Status, o.DeclinedAt = StatusDeclined, &now
		}

		ok, err := s.Repo.Transition(ctx, o.ID, StatusPending, o.Status, now)
		if err != nil {
			return fmt.Errorf("transition offer: %w", err)
		}
		if !ok {
			return apperr.AlreadyProcessed("offer is no longer pending")
		}
		o.UpdatedAt = now
		result.Offer = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	o := result.Offer
	s.Log.Info("offer answered",
		zap.String("offer_id", o.ID.String()),
		zap.String("status", string(o.Status)))

	verb, typ := "declined", messaging.TypeOfferDeclined
	if o.Status == StatusAccepted {
		verb, typ = "accepted", messaging.TypeOfferAccepted
	}
	s.Dispatch.Message(ctx, o.ConversationID, fmt.Sprintf("Offer %q was %s", o.Title, verb), messaging.PartyVendor)
	s.Dispatch.Notify(ctx, messaging.Notification{
		RecipientType: messaging.PartyVendor,
		RecipientID:   o.VendorID,
		Type:          typ,
		Title:         "Offer " + verb,
		Body:          fmt.Sprintf("Your offer %q was %s", o.Title, verb),
	})
	return result, nil
}

// accept rechecks the calendar under lock, then materializes the contract,
// which consumes stock. Runs inside the Respond transaction.
func (s *service) accept(ctx context.Context, o *Offer) (*contract.Contract, error) {
	c, err := s.Couples.GetCouple(ctx, o.CoupleID)
	if err != nil {
		return nil, err
	}
	if c.WeddingDate != nil {
		if err := s.Availability.Check(ctx, o.VendorID, *c.WeddingDate, true); err != nil {
			return nil, err
		}
	}
	lines, err := s.Repo.ReservedLines(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load offer lines: %w", err)
	}
	return s.Contracts.Materialize(ctx, contract.MaterializeRequest{
		OfferID:  o.ID,
		CoupleID: o.CoupleID,
		VendorID: o.VendorID,
		Lines:    lines,
	})
}
