// Package types holds the domain model shared by the storage layer, the
// services and the transports: catalog items, orders and their lines, sales
// reports, accounts and support conversations.
//
// # Enumerations
//
// Role, OrderStatus, PaymentMethod, ReportType and MessageRole are closed sets.
// Each has a Parse function that accepts any letter case and a Valid method;
// code that branches on them switches over every value.
//
//	method, err := types.ParsePaymentMethod("credit")
//	if err != nil {
//	    return err // wraps ErrInvalidInput
//	}
//
// # Money
//
// Amounts are shopspring decimals quantized to cents. LineSubtotal and
// WeightedUnitPrice apply the rounding used throughout ordering and reporting,
// and ToCents/FromCents convert to the integer form kept in the database.
//
// # Errors
//
// Sentinel errors describe failures callers are expected to handle:
// ErrItemNotFound, ErrInsufficientStock (carried by *StockError),
// ErrInvalidAmount and ErrReportWindowInvalid for the order and report flows,
// plus the account and messaging errors. Match them with errors.Is.
package types
