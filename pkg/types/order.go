package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a confirmed purchase by one customer
type Order struct {
	ID            int64
	CustomerID    string
	ToState       string
	ToCity        string
	ToAddressLine string
	TotalAmount   decimal.Decimal
	OrderDate     time.Time
	Status        OrderStatus
	PaymentMethod PaymentMethod
	Lines         []OrderLine
}

// OrderLine records one item of an order as it was at purchase time
type OrderLine struct {
	ID      int64
	OrderID int64
	// ItemID is nil once the catalog item has been deleted
	ItemID          *int64
	ItemName        string
	ItemDescription string
	ItemCategory    string
	Quantity        int
	UnitPrice       decimal.Decimal
	SubTotal        decimal.Decimal
}

// LinesTotal sums the line subtotals
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.SubTotal)
	}
	return RoundMoney(total)
}

// Address is an optional shipping destination
type Address struct {
	State       string
	City        string
	AddressLine string
}
