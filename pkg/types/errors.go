package types

import (
	"errors"
	"fmt"
)

// Domain errors shared by services and transports
var (
	// Order placement
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyOrder        = fmt.Errorf("%w: no items selected", ErrInvalidAmount)

	// Reporting
	ErrReportWindowInvalid = errors.New("report window end precedes start")

	// Accounts and access
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRegistrationCode   = errors.New("invalid registration code")
	ErrForbidden          = errors.New("forbidden")

	// Messaging
	ErrConversationNotFound = errors.New("conversation not found")
)

// StockError reports which item could not cover the requested quantity.
// It matches ErrInsufficientStock with errors.Is.
type StockError struct {
	ItemID    int64
	ItemName  string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("item %d (%s) does not have enough stock: requested %d, available %d",
		e.ItemID, e.ItemName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
