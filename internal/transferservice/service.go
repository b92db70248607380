// Package transferservice manages business logic layer of the card ledger.
package transferservice

import (
	"context"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	TransferTx(ctx context.Context, fromID, toID int64, amount string) (domain.TransferResult, error)
}

// Cards provides the card lookups, lazy expiry step and masking needed by the
// ledger.
type Cards interface {
	Get(ctx context.Context, id int64) (domain.Card, error)
	EnsureCurrentStatus(ctx context.Context, card domain.Card) (domain.Card, error)
	Present(ctx context.Context, card domain.Card) (domain.CardResponse, error)
}

// Service facilitates transfer business logic.
type Service struct {
	repo  Repo
	cards Cards
}

// New returns transfer service struct to manage the card ledger.
func New(tr Repo, cs Cards) *Service {
	return &Service{
		repo:  tr,
		cards: cs,
	}
}

// Transfer validates the transfer request and then moves the amount between
// the caller's cards atomically. Precondition failures are reported in a fixed
// order, first failure wins.
func (s *Service) Transfer(ctx context.Context, callerID int64, arg domain.CreateTransferParams) (domain.TransferResponse, error) {
	l := zerolog.Ctx(ctx)

	var response domain.TransferResponse

	if arg.FromCardID == arg.ToCardID {
		return response, domain.ErrSameCardTransfer
	}

	fromCard, err := s.cards.Get(ctx, arg.FromCardID)
	if err != nil {
		return response, err
	}

	toCard, err := s.cards.Get(ctx, arg.ToCardID)
	if err != nil {
		return response, err
	}

	// Transfers move money between the caller's own cards only.
	if fromCard.UserID != callerID || toCard.UserID != callerID {
		l.Warn().Int64("caller_id", callerID).Msg("transfer between foreign cards rejected")
		return response, domain.ErrCardOwnerMismatch
	}

	if fromCard, err = s.cards.EnsureCurrentStatus(ctx, fromCard); err != nil {
		return response, err
	}

	if toCard, err = s.cards.EnsureCurrentStatus(ctx, toCard); err != nil {
		return response, err
	}

	if fromCard.Status != domain.StatusActive || toCard.Status != domain.StatusActive {
		return response, domain.ErrCardNotActive
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return response, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return response, domain.ErrNegativeAmount
	}

	available, err := decimal.NewFromString(fromCard.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return response, err
	}

	if available.LessThan(amount) {
		return response, domain.InsufficientFundsError{Requested: amount, Available: available}
	}

	result, err := s.repo.TransferTx(ctx, arg.FromCardID, arg.ToCardID, arg.Amount)
	if err != nil {
		return response, err
	}

	l.Info().
		Int64("from_card_id", arg.FromCardID).
		Int64("to_card_id", arg.ToCardID).
		Str("amount", arg.Amount).
		Msg("transfer completed")

	if response.FromCard, err = s.cards.Present(ctx, result.FromCard); err != nil {
		return domain.TransferResponse{}, err
	}

	if response.ToCard, err = s.cards.Present(ctx, result.ToCard); err != nil {
		return domain.TransferResponse{}, err
	}

	return response, nil
}

// GetBalance returns the balance of the caller's card after refreshing its
// EXPIRED status.
func (s *Service) GetBalance(ctx context.Context, cardID, callerID int64) (string, error) {
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return "", err
	}

	if card.UserID != callerID {
		return "", domain.ErrCardOwnerMismatch
	}

	card, err = s.cards.EnsureCurrentStatus(ctx, card)
	if err != nil {
		return "", err
	}

	return card.Balance, nil
}
