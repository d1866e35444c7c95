package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Service generates and serves sales reports
type Service struct {
	storage storage.Storage
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a reporting service. cacheSize bounds the report cache.
func New(store storage.Storage, cacheSize int, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		cache:   NewCache(cacheSize),
		logger:  logging.OrDiscard(logger),
		now:     time.Now,
	}
}

// Aggregate returns per-item sales for orders dated inside [start, end]
func (s *Service) Aggregate(ctx context.Context, start, end time.Time) ([]types.SalesRow, error) {
	return s.storage.AggregateSales(ctx, start, end)
}

// Generate aggregates the window and persists a report with its contents.
// The returned report is read back from storage.
func (s *Service) Generate(ctx context.Context, reportType types.ReportType, start, end time.Time) (*types.Report, error) {
	if !reportType.Valid() {
		return nil, fmt.Errorf("%w: report type %q", types.ErrInvalidInput, reportType)
	}
	if end.Before(start) {
		return nil, types.ErrReportWindowInvalid
	}

	var reportID int64
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		rows, err := tx.AggregateSales(ctx, start, end)
		if err != nil {
			return err
		}

		sold := 0
		revenue := decimal.Zero
		for _, r := range rows {
			sold += r.ItemSold
			revenue = revenue.Add(r.SubTotal)
		}

		report := &types.Report{
			Type:         reportType,
			StartDate:    start,
			EndDate:      end,
			CreatedDate:  s.now(),
			SoldQuantity: sold,
			TotalRevenue: types.RoundMoney(revenue),
		}
		if err := tx.CreateReport(ctx, report); err != nil {
			return err
		}

		for _, r := range rows {
			content := &types.ReportContent{
				ReportID:  report.ID,
				ItemID:    r.ItemID,
				ItemSold:  r.ItemSold,
				UnitPrice: r.UnitPrice,
				SubTotal:  r.SubTotal,
			}
			if err := tx.AddReportContent(ctx, content); err != nil {
				return fmt.Errorf("failed to add content for item %d: %w", r.ItemID, err)
			}
		}
		reportID = report.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report generated",
		"report_id", report.ID,
		"type", report.Type,
		"sold", report.SoldQuantity,
		"revenue", types.FormatMoney(report.TotalRevenue))
	return report, nil
}

// GenerateFor generates a report of reportType for the window around ref
func (s *Service) GenerateFor(ctx context.Context, reportType types.ReportType, ref time.Time) (*types.Report, error) {
	start, end, err := WindowFor(reportType, ref)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, reportType, start, end)
}

// Daily generates the report for the day holding ref
func (s *Service) Daily(ctx context.Context, ref time.Time) (*types.Report, error) {
	return s.GenerateFor(ctx, types.ReportDaily, ref)
}

// Weekly generates the report for the seven days starting on ref
func (s *Service) Weekly(ctx context.Context, ref time.Time) (*types.Report, error) {
	return s.GenerateFor(ctx, types.ReportWeekly, ref)
}

// Monthly generates the report for the month holding ref
func (s *Service) Monthly(ctx context.Context, ref time.Time) (*types.Report, error) {
	return s.GenerateFor(ctx, types.ReportMonthly, ref)
}

// Get returns a report with its contents. Only the header is cached; the
// contents are read each time so item names stay current.
func (s *Service) Get(ctx context.Context, reportID int64) (*types.Report, error) {
	report, ok := s.cache.Get(reportID)
	if !ok {
		var err error
		if report, err = s.storage.GetReport(ctx, reportID); err != nil {
			return nil, fmt.Errorf("report %d: %w", reportID, err)
		}
		report.Contents = nil
		s.cache.Set(report)
	}

	contents, err := s.storage.ListReportContents(ctx, reportID)
	if err != nil {
		return nil, err
	}
	report.Contents = contents
	return report, nil
}

// Contents returns the per-item rows of a report
func (s *Service) Contents(ctx context.Context, reportID int64) ([]types.ReportContent, error) {
	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return report.Contents, nil
}

// ListAll returns every report header, newest created first
func (s *Service) ListAll(ctx context.Context) ([]*types.Report, error) {
	return s.storage.ListReports(ctx)
}

// ListByTypeBetween returns reports of one type whose window lies inside [start, end]
func (s *Service) ListByTypeBetween(ctx context.Context, reportType types.ReportType, start, end time.Time) ([]*types.Report, error) {
	if !reportType.Valid() {
		return nil, fmt.Errorf("%w: report type %q", types.ErrInvalidInput, reportType)
	}
	return s.storage.ListReportsByTypeBetween(ctx, reportType, start, end)
}
