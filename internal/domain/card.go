// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrCardNotFound indicates that the card is not found.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardOwnerMismatch indicates that the card does not belong to the caller.
	ErrCardOwnerMismatch = errors.New("card does not belong to the caller")
	// ErrAdminRequired indicates that the operation is allowed for administrators only.
	ErrAdminRequired = errors.New("operation requires administrator role")
	// ErrSameCardTransfer indicates a transfer between a card and itself.
	ErrSameCardTransfer = errors.New("source and target cards must be different")
	// ErrCardExpired indicates an attempt to change the status of an expired card.
	ErrCardExpired = errors.New("card is expired")
	// ErrCardNotActive indicates that the card cannot take part in a transfer.
	ErrCardNotActive = errors.New("card is not active")
	// ErrPastExpiryDate indicates a card creation request with an expiry date in the past.
	ErrPastExpiryDate = errors.New("expiry date cannot be in the past")
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates non-positive amount.
	ErrNegativeAmount = errors.New("amount must be positive")
)

// InsufficientFundsError indicates that the source card balance cannot cover
// the requested amount.
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s", e.Requested, e.Available)
}

// Status is the lifecycle state of a card.
type Status string

// Possible card statuses.
const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
	StatusExpired Status = "EXPIRED"
)

// Valid reports whether s is a known card status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusExpired:
		return true
	}

	return false
}

// Card holds a single bank card. The card number is stored encrypted and is
// never serialized as is.
type Card struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	OwnerName       string    `json:"owner_name"`
	NumberEncrypted string    `json:"-"`
	ExpiryDate      time.Time `json:"expiry_date"`
	Status          Status    `json:"status"`
	Balance         string    `json:"balance"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsExpired reports whether the card is past due as of the given calendar date.
func (c Card) IsExpired(asOf time.Time) bool {
	return c.ExpiryDate.Before(asOf)
}

// Today returns the current calendar date in UTC.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateCardParams is the input data to issue a card.
type CreateCardParams struct {
	UserID          int64
	OwnerName       string
	NumberEncrypted string
	ExpiryDate      time.Time
}

// ListCardsParams filters and paginates card queries. Zero UserID matches
// cards of every account, empty OwnerName and Status add no constraint.
type ListCardsParams struct {
	UserID    int64
	OwnerName string
	Status    Status
	Limit     int32
	Offset    int32
}

// CardResponse is the client-facing card view with the number masked.
type CardResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	MaskedNumber string    `json:"masked_number"`
	OwnerName    string    `json:"owner_name"`
	ExpiryDate   time.Time `json:"expiry_date"`
	Status       Status    `json:"status"`
	Balance      string    `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}
