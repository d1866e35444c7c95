package reporting

import (
	"fmt"
	"time"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

// lastNano is the final instant of a day
const lastNano = 999999999

// DailyWindow covers the reference day from midnight to its last instant
func DailyWindow(ref time.Time) (time.Time, time.Time) {
	y, m, d := ref.Date()
	loc := ref.Location()
	return time.Date(y, m, d, 0, 0, 0, 0, loc),
		time.Date(y, m, d, 23, 59, 59, lastNano, loc)
}

// WeeklyWindow covers seven days starting on the reference day
func WeeklyWindow(ref time.Time) (time.Time, time.Time) {
	y, m, d := ref.Date()
	loc := ref.Location()
	return time.Date(y, m, d, 0, 0, 0, 0, loc),
		time.Date(y, m, d+6, 23, 59, 59, lastNano, loc)
}

// MonthlyWindow covers the calendar month holding the reference date
func MonthlyWindow(ref time.Time) (time.Time, time.Time) {
	y, m, _ := ref.Date()
	loc := ref.Location()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	// Month 13 normalizes to January of the next year
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	return start, next.Add(-time.Nanosecond)
}

// WindowFor returns the window of a report type around ref
func WindowFor(reportType types.ReportType, ref time.Time) (time.Time, time.Time, error) {
	switch reportType {
	case types.ReportDaily:
		start, end := DailyWindow(ref)
		return start, end, nil
	case types.ReportWeekly:
		start, end := WeeklyWindow(ref)
		return start, end, nil
	case types.ReportMonthly:
		start, end := MonthlyWindow(ref)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: report type %q", types.ErrInvalidInput, reportType)
	}
}
