package types

import (
	"fmt"
	"strings"
)

// Role is the access level of an account
type Role string

const (
	RoleCustomer  Role = "Customer"
	RoleStaff     Role = "Staff"
	RoleExecutive Role = "CEO"
)

// Roles lists every role in display order
var Roles = []Role{RoleCustomer, RoleStaff, RoleExecutive}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleExecutive:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole parses a role name case-insensitively. "executive" is accepted for CEO.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return RoleCustomer, nil
	case "staff":
		return RoleStaff, nil
	case "ceo", "executive":
		return RoleExecutive, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusInCart     OrderStatus = "In Cart"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusRefunded   OrderStatus = "Refunded"
)

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusInCart, StatusProcessing, StatusShipped, StatusDelivered, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string { return string(s) }

// ParseOrderStatus parses a status name case-insensitively
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in cart", "in_cart", "incart":
		return StatusInCart, nil
	case "processing":
		return StatusProcessing, nil
	case "shipped":
		return StatusShipped, nil
	case "delivered":
		return StatusDelivered, nil
	case "refunded":
		return StatusRefunded, nil
	default:
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
	}
}

// PaymentMethod is how an order was paid
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "Credit"
	PaymentDebit  PaymentMethod = "Debit"
)

// Valid reports whether p is one of the known payment methods
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCredit, PaymentDebit:
		return true
	default:
		return false
	}
}

func (p PaymentMethod) String() string { return string(p) }

// ParsePaymentMethod parses a payment method case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return PaymentCredit, nil
	case "debit":
		return PaymentDebit, nil
	default:
		return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, s)
	}
}

// ReportType is the period a sales report covers
type ReportType string

const (
	ReportDaily   ReportType = "Daily"
	ReportWeekly  ReportType = "Weekly"
	ReportMonthly ReportType = "Monthly"
)

// Valid reports whether t is one of the known report types
func (t ReportType) Valid() bool {
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly:
		return true
	default:
		return false
	}
}

func (t ReportType) String() string { return string(t) }

// ParseReportType parses a report type case-insensitively
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return ReportDaily, nil
	case "weekly":
		return ReportWeekly, nil
	case "monthly":
		return ReportMonthly, nil
	default:
		return "", fmt.Errorf("%w: unknown report type %q", ErrInvalidInput, s)
	}
}

// MessageRole identifies who authored a support message
type MessageRole string

const (
	MessageFromCustomer MessageRole = "Customer"
	MessageFromStaff    MessageRole = "Staff"
	MessageFromSystem   MessageRole = "System"
)

// Valid reports whether m is one of the known message roles
func (m MessageRole) Valid() bool {
	switch m {
	case MessageFromCustomer, MessageFromStaff, MessageFromSystem:
		return true
	default:
		return false
	}
}

func (m MessageRole) String() string { return string(m) }

// ParseMessageRole parses a message role case-insensitively
func ParseMessageRole(s string) (MessageRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return MessageFromCustomer, nil
	case "staff":
		return MessageFromStaff, nil
	case "system":
		return MessageFromSystem, nil
	default:
		return "", fmt.Errorf("%w: unknown message role %q", ErrInvalidInput, s)
	}
}
