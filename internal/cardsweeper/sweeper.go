// Package cardsweeper expires past-due cards on a daily schedule.
package cardsweeper

import (
	"context"
	"time"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Schedule is the daily trigger time of the sweep (midnight).
const Schedule = "0 0 * * *"

// Store provides the card store operations needed by the sweep.
//
//go:generate mockgen -source sweeper.go -destination sweeper_mock.go -package cardsweeper
type Store interface {
	ListExpired(ctx context.Context, asOf time.Time) ([]domain.Card, error)
	ExpireBefore(ctx context.Context, asOf time.Time) (int64, error)
}

// Sweeper marks past-due cards EXPIRED once a day. A failed run is logged and
// retried on the next tick, it never takes the service down.
type Sweeper struct {
	store  Store
	logger zerolog.Logger
	cron   *cron.Cron
}

// New returns a Sweeper over the given store.
func New(store Store, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		logger: logger.With().Str("job", "card_expiry_sweep").Logger(),
		cron:   cron.New(),
	}
}

// Start schedules the daily sweep.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(Schedule, func() {
		ctx := s.logger.WithContext(context.Background())

		if err := s.Sweep(ctx); err != nil {
			s.logger.Error().Err(err).Msg("expiry sweep failed, retrying on next tick")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop cancels the schedule. A sweep already running is not interrupted.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep transitions every past-due card to EXPIRED in one batch. Running it
// twice on the same day is a no-op the second time.
func (s *Sweeper) Sweep(ctx context.Context) error {
	l := zerolog.Ctx(ctx)

	asOf := domain.Today()

	cards, err := s.store.ListExpired(ctx, asOf)
	if err != nil {
		return err
	}

	if len(cards) == 0 {
		l.Debug().Msg("no past-due cards to expire")
		return nil
	}

	for _, card := range cards {
		l.Info().Int64("card_id", card.ID).Msg("card is past due, marking EXPIRED")
	}

	n, err := s.store.ExpireBefore(ctx, asOf)
	if err != nil {
		return err
	}

	l.Info().Int64("cards_expired", n).Msg("expiry sweep finished")

	return nil
}
