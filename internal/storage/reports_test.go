package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func createTestReport(t *testing.T, s Storage, rtype types.ReportType, start, end, created time.Time) *types.Report {
	t.Helper()
	report := &types.Report{
		Type:         rtype,
		StartDate:    start,
		EndDate:      end,
		CreatedDate:  created,
		SoldQuantity: 0,
		TotalRevenue: decimal.Zero,
	}
	require.NoError(t, s.CreateReport(context.Background(), report))
	return report
}

func TestCreateReport(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Widget", "2.50", 10)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	report := &types.Report{
		Type:         types.ReportDaily,
		StartDate:    start,
		EndDate:      end,
		SoldQuantity: 4,
		TotalRevenue: decimal.RequireFromString("10.00"),
	}
	require.NoError(t, storage.CreateReport(ctx, report))
	assert.Greater(t, report.ID, int64(0))

	content := &types.ReportContent{
		ReportID:  report.ID,
		ItemID:    item.ID,
		ItemSold:  4,
		UnitPrice: decimal.RequireFromString("2.50"),
		SubTotal:  decimal.RequireFromString("10.00"),
	}
	require.NoError(t, storage.AddReportContent(ctx, content))
	assert.Greater(t, content.ID, int64(0))

	got, err := storage.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReportDaily, got.Type)
	assert.True(t, got.StartDate.Equal(start))
	assert.True(t, got.EndDate.Equal(end))
	assert.Equal(t, 4, got.SoldQuantity)
	assert.Equal(t, "10.00", types.FormatMoney(got.TotalRevenue))

	contents, err := storage.ListReportContents(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "Widget", contents[0].ItemName)
	assert.Equal(t, "2.50", types.FormatMoney(contents[0].UnitPrice))

	// Contents survive catalog deletion with a blank name
	require.NoError(t, storage.DeleteItem(ctx, item.ID))
	contents, err = storage.ListReportContents(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "", contents[0].ItemName)
	assert.Equal(t, item.ID, contents[0].ItemID)
}

func TestCreateReport_Invalid(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	err := storage.CreateReport(ctx, &types.Report{Type: types.ReportWeekly, StartDate: now, EndDate: now.Add(-time.Second)})
	assert.ErrorIs(t, err, types.ErrReportWindowInvalid)

	err = storage.CreateReport(ctx, &types.Report{Type: "Yearly", StartDate: now, EndDate: now})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	err = storage.AddReportContent(ctx, &types.ReportContent{ReportID: 77, ItemID: 1, ItemSold: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetReport(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReports(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first := createTestReport(t, storage, types.ReportDaily, base, base.Add(time.Hour), base.Add(48*time.Hour))
	second := createTestReport(t, storage, types.ReportWeekly, base, base.Add(time.Hour), base.Add(72*time.Hour))

	reports, err := storage.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID)
	assert.Equal(t, first.ID, reports[1].ID)
}

func TestListReportsByTypeBetween(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }
	endOf := func(d int) time.Time { return day(d).Add(24*time.Hour - time.Nanosecond) }

	inside := createTestReport(t, storage, types.ReportDaily, day(3), endOf(3), day(4))
	createTestReport(t, storage, types.ReportDaily, day(9), endOf(9), day(10))    // outside
	createTestReport(t, storage, types.ReportWeekly, day(3), endOf(3), day(4))    // other type
	createTestReport(t, storage, types.ReportDaily, day(1), endOf(7), day(8))     // spills over

	reports, err := storage.ListReportsByTypeBetween(ctx, types.ReportDaily, day(2), endOf(6))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, inside.ID, reports[0].ID)

	_, err = storage.ListReportsByTypeBetween(ctx, types.ReportDaily, day(6), day(2))
	assert.ErrorIs(t, err, types.ErrReportWindowInvalid)
}
