// Package cardservice manages business logic layer of the card lifecycle.
package cardservice

import (
	"context"
	"time"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/cipherpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by card service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package cardservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateCardParams) (domain.Card, error)
	Get(ctx context.Context, id int64) (domain.Card, error)
	List(ctx context.Context, arg domain.ListCardsParams) ([]domain.Card, error)
	SetStatus(ctx context.Context, id int64, status domain.Status) (domain.Card, error)
	Delete(ctx context.Context, id int64) error
}

// AccountRepo provides the user lookups needed when issuing cards.
type AccountRepo interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// Service facilitates card lifecycle business logic.
type Service struct {
	repo     Repo
	accounts AccountRepo
	cipher   *cipherpkg.Cipher
}

// New returns card service struct to manage card lifecycle business logic.
func New(cr Repo, ar AccountRepo, cipher *cipherpkg.Cipher) *Service {
	return &Service{
		repo:     cr,
		accounts: ar,
		cipher:   cipher,
	}
}

// Present converts a card entity into its client-facing view with the number
// masked. Plaintext numbers and raw ciphertext never leave the service layer.
func (s *Service) Present(ctx context.Context, card domain.Card) (domain.CardResponse, error) {
	l := zerolog.Ctx(ctx)

	number, err := s.cipher.Decrypt(card.NumberEncrypted)
	if err != nil {
		l.Error().Err(err).Int64("card_id", card.ID).Send()
		return domain.CardResponse{}, err
	}

	return domain.CardResponse{
		ID:           card.ID,
		UserID:       card.UserID,
		MaskedNumber: cipherpkg.Mask(number),
		OwnerName:    card.OwnerName,
		ExpiryDate:   card.ExpiryDate,
		Status:       card.Status,
		Balance:      card.Balance,
		CreatedAt:    card.CreatedAt,
	}, nil
}

// EnsureCurrentStatus recomputes the EXPIRED status lazily: a past-due card
// that is not yet marked EXPIRED is persisted as such before any further rule
// runs. Every mutating lifecycle and ledger operation starts here.
func (s *Service) EnsureCurrentStatus(ctx context.Context, card domain.Card) (domain.Card, error) {
	if card.Status == domain.StatusExpired || !card.IsExpired(domain.Today()) {
		return card, nil
	}

	l := zerolog.Ctx(ctx)
	l.Info().Int64("card_id", card.ID).Msg("card is past due, marking EXPIRED")

	return s.repo.SetStatus(ctx, card.ID, domain.StatusExpired)
}

// Get returns the card entity with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Card, error) {
	return s.repo.Get(ctx, id)
}

// Create issues a new ACTIVE card with zero balance for the given account.
// Administrator only.
func (s *Service) Create(ctx context.Context, callerRole string, userID int64, ownerName, cardNumber string, expiryDate time.Time) (domain.CardResponse, error) {
	l := zerolog.Ctx(ctx)

	if callerRole != domain.RoleAdmin {
		return domain.CardResponse{}, domain.ErrAdminRequired
	}

	if _, err := s.accounts.GetByID(ctx, userID); err != nil {
		return domain.CardResponse{}, err
	}

	if expiryDate.Before(domain.Today()) {
		return domain.CardResponse{}, domain.ErrPastExpiryDate
	}

	encrypted, err := s.cipher.Encrypt(cardNumber)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.CardResponse{}, errorspkg.ErrInternal
	}

	card, err := s.repo.Create(ctx, domain.CreateCardParams{
		UserID:          userID,
		OwnerName:       ownerName,
		NumberEncrypted: encrypted,
		ExpiryDate:      expiryDate,
	})
	if err != nil {
		return domain.CardResponse{}, err
	}

	l.Info().Int64("card_id", card.ID).Int64("user_id", userID).Msg("card created")

	return s.Present(ctx, card)
}

// Block sets the card status to BLOCKED. Administrators may block any card,
// an owner only their own. Blocking an already blocked card is a no-op,
// blocking an expired card is rejected.
func (s *Service) Block(ctx context.Context, cardID, callerID int64, callerRole string) (domain.CardResponse, error) {
	l := zerolog.Ctx(ctx)

	card, err := s.repo.Get(ctx, cardID)
	if err != nil {
		return domain.CardResponse{}, err
	}

	if callerRole != domain.RoleAdmin && card.UserID != callerID {
		return domain.CardResponse{}, domain.ErrCardOwnerMismatch
	}

	card, err = s.EnsureCurrentStatus(ctx, card)
	if err != nil {
		return domain.CardResponse{}, err
	}

	// Expiry is dominant: an EXPIRED card never leaves that state.
	if card.Status == domain.StatusExpired {
		return domain.CardResponse{}, domain.ErrCardExpired
	}

	if card.Status == domain.StatusBlocked {
		return s.Present(ctx, card)
	}

	card, err = s.repo.SetStatus(ctx, cardID, domain.StatusBlocked)
	if err != nil {
		return domain.CardResponse{}, err
	}

	l.Info().Int64("card_id", cardID).Msg("card blocked")

	return s.Present(ctx, card)
}

// Activate sets a blocked card back to ACTIVE. Administrator only; an expired
// card cannot be activated.
func (s *Service) Activate(ctx context.Context, cardID int64, callerRole string) (domain.CardResponse, error) {
	l := zerolog.Ctx(ctx)

	if callerRole != domain.RoleAdmin {
		return domain.CardResponse{}, domain.ErrAdminRequired
	}

	card, err := s.repo.Get(ctx, cardID)
	if err != nil {
		return domain.CardResponse{}, err
	}

	card, err = s.EnsureCurrentStatus(ctx, card)
	if err != nil {
		return domain.CardResponse{}, err
	}

	if card.Status == domain.StatusExpired {
		return domain.CardResponse{}, domain.ErrCardExpired
	}

	card, err = s.repo.SetStatus(ctx, cardID, domain.StatusActive)
	if err != nil {
		return domain.CardResponse{}, err
	}

	l.Info().Int64("card_id", cardID).Msg("card activated")

	return s.Present(ctx, card)
}

// Delete removes the card permanently. Administrator only.
func (s *Service) Delete(ctx context.Context, cardID int64, callerRole string) error {
	l := zerolog.Ctx(ctx)

	if callerRole != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}

	if err := s.repo.Delete(ctx, cardID); err != nil {
		return err
	}

	l.Info().Int64("card_id", cardID).Msg("card deleted")

	return nil
}

// List returns cards of every account matching the filters. Administrator only.
// Pagination is zero-indexed.
func (s *Service) List(ctx context.Context, callerRole, ownerName string, status domain.Status, page, pageSize int32) ([]domain.CardResponse, error) {
	if callerRole != domain.RoleAdmin {
		return nil, domain.ErrAdminRequired
	}

	cards, err := s.repo.List(ctx, domain.ListCardsParams{
		OwnerName: ownerName,
		Status:    status,
		Limit:     pageSize,
		Offset:    page * pageSize,
	})
	if err != nil {
		return nil, err
	}

	return s.present(ctx, cards)
}

// ListOwn returns the caller's cards matching the filters, refreshing the
// EXPIRED status of each returned card. Pagination is zero-indexed.
func (s *Service) ListOwn(ctx context.Context, callerID int64, ownerName string, status domain.Status, page, pageSize int32) ([]domain.CardResponse, error) {
	cards, err := s.repo.List(ctx, domain.ListCardsParams{
		UserID:    callerID,
		OwnerName: ownerName,
		Status:    status,
		Limit:     pageSize,
		Offset:    page * pageSize,
	})
	if err != nil {
		return nil, err
	}

	for i := range cards {
		cards[i], err = s.EnsureCurrentStatus(ctx, cards[i])
		if err != nil {
			return nil, err
		}
	}

	return s.present(ctx, cards)
}

func (s *Service) present(ctx context.Context, cards []domain.Card) ([]domain.CardResponse, error) {
	responses := make([]domain.CardResponse, 0, len(cards))

	for _, card := range cards {
		res, err := s.Present(ctx, card)
		if err != nil {
			return nil, err
		}

		responses = append(responses, res)
	}

	return responses, nil
}
