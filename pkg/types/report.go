package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is an immutable sales summary over a time window
type Report struct {
	ID           int64
	Type         ReportType
	StartDate    time.Time
	EndDate      time.Time
	CreatedDate  time.Time
	SoldQuantity int
	TotalRevenue decimal.Decimal
	Contents     []ReportContent
}

// ReportContent is the per-item breakdown of a report
type ReportContent struct {
	ID       int64
	ReportID int64
	ItemID   int64
	// ItemName is filled from the catalog when the item still exists
	ItemName  string
	ItemSold  int
	UnitPrice decimal.Decimal
	SubTotal  decimal.Decimal
}

// SalesRow is one aggregated item over a window of orders
type SalesRow struct {
	ItemID    int64
	ItemSold  int
	UnitPrice decimal.Decimal
	SubTotal  decimal.Decimal
}

// ContentsTotals sums the contents of a report
func (r *Report) ContentsTotals() (int, decimal.Decimal) {
	qty := 0
	revenue := decimal.Zero
	for _, c := range r.Contents {
		qty += c.ItemSold
		revenue = revenue.Add(c.SubTotal)
	}
	return qty, RoundMoney(revenue)
}
