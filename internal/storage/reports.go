package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func (s *sqlQueries) CreateReport(ctx context.Context, report *types.Report) error {
	if !report.Type.Valid() {
		return fmt.Errorf("%w: report type %q", types.ErrInvalidInput, report.Type)
	}
	if report.EndDate.Before(report.StartDate) {
		return types.ErrReportWindowInvalid
	}
	if report.CreatedDate.IsZero() {
		report.CreatedDate = time.Now()
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO reports (type, start_date, end_date, created_date, sold_quantity, total_revenue_cents)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(report.Type), formatTime(report.StartDate), formatTime(report.EndDate),
		formatTime(report.CreatedDate), report.SoldQuantity, types.ToCents(report.TotalRevenue))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	report.ID = id
	return nil
}

func (s *sqlQueries) AddReportContent(ctx context.Context, content *types.ReportContent) error {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO report_contents (report_id, item_id, item_sold, unit_price_cents, sub_total_cents)
		VALUES (?, ?, ?, ?, ?)
	`, content.ReportID, content.ItemID, content.ItemSold,
		types.ToCents(content.UnitPrice), types.ToCents(content.SubTotal))
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add report content: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	content.ID = id
	return nil
}

const reportColumns = `id, type, start_date, end_date, created_date, sold_quantity, total_revenue_cents`

func scanReport(row scanner) (*types.Report, error) {
	var r types.Report
	var rtype, start, end, created string
	var revenueCents int64
	if err := row.Scan(&r.ID, &rtype, &start, &end, &created, &r.SoldQuantity, &revenueCents); err != nil {
		return nil, err
	}
	r.Type = types.ReportType(rtype)
	r.TotalRevenue = types.FromCents(revenueCents)

	var err error
	if r.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if r.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	if r.CreatedDate, err = parseTime(created); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanReports(rows *sql.Rows) ([]*types.Report, error) {
	defer rows.Close()
	var reports []*types.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetReport returns the report header without its contents
func (s *sqlQueries) GetReport(ctx context.Context, reportID int64) (*types.Report, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, reportID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %d: %w", reportID, err)
	}
	return r, nil
}

// ListReportContents returns contents ordered by item, named from the
// catalog where the item still exists.
func (s *sqlQueries) ListReportContents(ctx context.Context, reportID int64) ([]types.ReportContent, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT rc.id, rc.report_id, rc.item_id, COALESCE(i.name, ''), rc.item_sold,
		       rc.unit_price_cents, rc.sub_total_cents
		FROM report_contents rc
		LEFT JOIN items i ON i.id = rc.item_id
		WHERE rc.report_id = ?
		ORDER BY rc.item_id ASC, rc.id ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report contents: %w", err)
	}
	defer rows.Close()

	var contents []types.ReportContent
	for rows.Next() {
		var c types.ReportContent
		var unitCents, subCents int64
		if err := rows.Scan(&c.ID, &c.ReportID, &c.ItemID, &c.ItemName, &c.ItemSold, &unitCents, &subCents); err != nil {
			return nil, err
		}
		c.UnitPrice = types.FromCents(unitCents)
		c.SubTotal = types.FromCents(subCents)
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// ListReports returns every report, newest created first
func (s *sqlQueries) ListReports(ctx context.Context) ([]*types.Report, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM reports ORDER BY created_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return scanReports(rows)
}

// ListReportsByTypeBetween returns reports of one type whose window lies inside [start, end]
func (s *sqlQueries) ListReportsByTypeBetween(ctx context.Context, reportType types.ReportType, start, end time.Time) ([]*types.Report, error) {
	if end.Before(start) {
		return nil, types.ErrReportWindowInvalid
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE type = ? AND start_date >= ? AND end_date <= ?
		ORDER BY created_date DESC, id DESC
	`, string(reportType), formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return scanReports(rows)
}
