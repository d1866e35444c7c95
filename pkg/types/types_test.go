package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (string, error)
		in    string
		want  string
	}{
		{"role customer", func(s string) (string, error) { r, err := ParseRole(s); return string(r), err }, "customer", "Customer"},
		{"role ceo alias", func(s string) (string, error) { r, err := ParseRole(s); return string(r), err }, "Executive", "CEO"},
		{"status", func(s string) (string, error) { r, err := ParseOrderStatus(s); return string(r), err }, "PROCESSING", "Processing"},
		{"status in cart", func(s string) (string, error) { r, err := ParseOrderStatus(s); return string(r), err }, "in cart", "In Cart"},
		{"payment", func(s string) (string, error) { r, err := ParsePaymentMethod(s); return string(r), err }, " debit ", "Debit"},
		{"report", func(s string) (string, error) { r, err := ParseReportType(s); return string(r), err }, "monthly", "Monthly"},
		{"message role", func(s string) (string, error) { r, err := ParseMessageRole(s); return string(r), err }, "system", "System"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnums_Unknown(t *testing.T) {
	_, err := ParseRole("admin")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParsePaymentMethod("cash")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseReportType("yearly")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.False(t, Role("root").Valid())
	assert.True(t, RoleExecutive.Valid())
	assert.True(t, StatusRefunded.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestLineSubtotal(t *testing.T) {
	assert.Equal(t, "30.00", FormatMoney(LineSubtotal(decimal.RequireFromString("10.00"), 3)))
	assert.Equal(t, "1.00", FormatMoney(LineSubtotal(decimal.RequireFromString("0.333"), 3)))
	assert.Equal(t, "0.00", FormatMoney(LineSubtotal(decimal.RequireFromString("4.50"), 0)))
}

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(1125), ToCents(decimal.RequireFromString("11.245")))
	assert.Equal(t, "11.25", FormatMoney(FromCents(1125)))
	assert.Equal(t, int64(0), ToCents(decimal.Zero))
}

func TestWeightedUnitPrice(t *testing.T) {
	// 3 @ 10.00 and 5 @ 12.00
	assert.Equal(t, "11.25", FormatMoney(WeightedUnitPrice(decimal.RequireFromString("90.00"), 8)))
	assert.True(t, WeightedUnitPrice(decimal.RequireFromString("5"), 0).IsZero())
	assert.Equal(t, "3.33", FormatMoney(WeightedUnitPrice(decimal.RequireFromString("10.00"), 3)))
}

func TestStockError(t *testing.T) {
	var err error = &StockError{ItemID: 7, ItemName: "Lamp", Requested: 3, Available: 1}
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Lamp")

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Available)
}

func TestItemValidate(t *testing.T) {
	item := &Item{Name: "Desk", Price: decimal.RequireFromString("99.90"), StockQuantity: 2}
	assert.NoError(t, item.Validate())

	item.Name = "  "
	assert.ErrorIs(t, item.Validate(), ErrInvalidInput)

	item.Name = "Desk"
	item.StockQuantity = -1
	assert.ErrorIs(t, item.Validate(), ErrInvalidAmount)

	item.StockQuantity = 0
	item.Price = decimal.RequireFromString("-1")
	assert.ErrorIs(t, item.Validate(), ErrInvalidAmount)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		UserName string `validate:"notblank,max=5"`
		Email    string `validate:"required,email"`
		Phone    string `validate:"omitempty,phone"`
	}

	assert.NoError(t, ValidateStruct(input{UserName: "ann", Email: "ann@example.com"}))

	err := ValidateStruct(input{UserName: "   ", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "username")

	err = ValidateStruct(input{UserName: "toolong", Email: "ann@example.com"})
	assert.Contains(t, err.Error(), "at most 5")

	err = ValidateStruct(input{UserName: "ann", Email: "not-an-email"})
	assert.Contains(t, err.Error(), "email is not valid")

	err = ValidateStruct(input{UserName: "ann", Email: "ann@example.com", Phone: "12-34"})
	assert.Contains(t, err.Error(), "phone number is not valid")
}

func TestNormalizePhone(t *testing.T) {
	digits, ok := NormalizePhone("+1 (555) 010-9999")
	assert.True(t, ok)
	assert.Equal(t, "15550109999", digits)

	_, ok = NormalizePhone("123")
	assert.False(t, ok)
}

func TestReportContentsTotals(t *testing.T) {
	r := &Report{Contents: []ReportContent{
		{ItemSold: 3, SubTotal: decimal.RequireFromString("30.00")},
		{ItemSold: 5, SubTotal: decimal.RequireFromString("60.00")},
	}}
	qty, rev := r.ContentsTotals()
	assert.Equal(t, 8, qty)
	assert.Equal(t, "90.00", FormatMoney(rev))
}
