// Package cardrepo manages repository layer of cards.
package cardrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sergey-Spodarev/-Bank-REST/internal/domain"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/dbpkg"
	"github.com/Sergey-Spodarev/-Bank-REST/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates card repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns card RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns card RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const cardColumns = `id, user_id, owner_name, number_encrypted, expiry_date, status, balance, created_at`

func scanCard(row *sql.Row) (domain.Card, error) {
	var c domain.Card

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.OwnerName,
		&c.NumberEncrypted,
		&c.ExpiryDate,
		&c.Status,
		&c.Balance,
		&c.CreatedAt,
	)

	return c, err
}

const createQuery = `
INSERT INTO
    cards (user_id, owner_name, number_encrypted, expiry_date)
VALUES
    ($1, $2, $3, $4)
RETURNING ` + cardColumns

// Create issues the card with zero balance and ACTIVE status and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateCardParams) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.UserID,
		arg.OwnerName,
		arg.NumberEncrypted,
		arg.ExpiryDate,
	)

	c, err := scanCard(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "cards_user_id_fkey" {
				return c, domain.ErrUserNotFound
			}
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const getQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1
`

// Get returns the card with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const listQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE
    ($1::bigint = 0 OR user_id = $1)
    AND ($2::text = '' OR owner_name ILIKE '%' || $2 || '%')
    AND ($3::text = '' OR status = $3)
ORDER BY id
LIMIT $4 OFFSET $5
`

// List returns cards matching the given filters ordered by id.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListCardsParams) ([]domain.Card, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery,
		arg.UserID,
		arg.OwnerName,
		string(arg.Status),
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Card{}

	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.OwnerName,
			&c.NumberEncrypted,
			&c.ExpiryDate,
			&c.Status,
			&c.Balance,
			&c.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const setStatusQuery = `
UPDATE cards
SET status = $1
WHERE id = $2
RETURNING ` + cardColumns

// SetStatus updates the card status and returns the updated card.
func (r *RepoPGS) SetStatus(ctx context.Context, id int64, status domain.Status) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, setStatusQuery, status, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const deleteQuery = `
DELETE FROM cards
WHERE id = $1
`

// Delete removes the card with the given id.
func (r *RepoPGS) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	result, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := result.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

const listExpiredQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE expiry_date < $1 AND status <> 'EXPIRED'
ORDER BY id
`

// ListExpired returns cards that are past due as of the given date but not yet
// marked EXPIRED.
func (r *RepoPGS) ListExpired(ctx context.Context, asOf time.Time) ([]domain.Card, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listExpiredQuery, asOf)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Card{}

	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.OwnerName,
			&c.NumberEncrypted,
			&c.ExpiryDate,
			&c.Status,
			&c.Balance,
			&c.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const expireBeforeQuery = `
UPDATE cards
SET status = 'EXPIRED'
WHERE expiry_date < $1 AND status <> 'EXPIRED'
`

// ExpireBefore marks every past-due card EXPIRED in a single batch and returns
// the number of affected rows. Running it twice for the same date is a no-op
// the second time.
func (r *RepoPGS) ExpireBefore(ctx context.Context, asOf time.Time) (int64, error) {
	l := zerolog.Ctx(ctx)

	result, err := r.db.ExecContext(ctx, expireBeforeQuery, asOf)
	if err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	n, err := result.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return n, nil
}

const lockQuery = `
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1
FOR UPDATE
`

func (r *RepoPGS) lock(ctx context.Context, id int64) (domain.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, lockQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const addBalanceQuery = `
UPDATE cards
SET balance = balance + $1
WHERE id = $2
RETURNING ` + cardColumns

func (r *RepoPGS) addBalance(ctx context.Context, amount string, id int64) (domain.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, addBalanceQuery, amount, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

// TransferTx moves amount from one card to another within a single database
// transaction.
//
// Both rows are locked with SELECT FOR UPDATE in ascending id order so two
// opposite transfers over the same pair cannot deadlock, and the status and
// funds checks run again under the lock so concurrent transfers cannot
// overdraw the source card. Either both balance updates commit or neither is
// visible.
func (r *RepoPGS) TransferTx(ctx context.Context, fromID, toID int64, amount string) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferResult

	amountDec, err := decimal.NewFromString(amount)
	if err != nil {
		return result, domain.ErrInvalidAmount
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	txRepo := NewTxRepoPGS(tx)

	// Lock in consistent id order to avoid deadlocks.
	first, second := fromID, toID
	if toID < fromID {
		first, second = toID, fromID
	}

	locked := make(map[int64]domain.Card, 2)

	for _, id := range []int64{first, second} {
		card, err := txRepo.lock(ctx, id)
		if err != nil {
			l.Error().Err(err).Int64("card_id", id).Send()
			return result, err
		}

		locked[id] = card
	}

	fromCard, toCard := locked[fromID], locked[toID]

	if fromCard.Status != domain.StatusActive || toCard.Status != domain.StatusActive {
		return result, domain.ErrCardNotActive
	}

	available, err := decimal.NewFromString(fromCard.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	if available.LessThan(amountDec) {
		return result, domain.InsufficientFundsError{Requested: amountDec, Available: available}
	}

	result.FromCard, err = txRepo.addBalance(ctx, "-"+amount, fromID)
	if err != nil {
		l.Error().Err(err).Send()
		return result, err
	}

	result.ToCard, err = txRepo.addBalance(ctx, amount, toID)
	if err != nil {
		l.Error().Err(err).Send()
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferResult{}, errorspkg.ErrInternal
	}

	return result, nil
}
