package reporting

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// XLSXContentType is the media type of ExportXLSX output
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportXLSX writes a report as a workbook with a Summary sheet and a
// Contents sheet.
func (s *Service) ExportXLSX(ctx context.Context, reportID int64, w io.Writer) error {
	report, err := s.Get(ctx, reportID)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	summary, err := file.AddSheet("Summary")
	if err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	addRow(summary, "Report ID", report.ID)
	addRow(summary, "Type", report.Type.String())
	addRow(summary, "Start", report.StartDate.Format(exportTimeLayout))
	addRow(summary, "End", report.EndDate.Format(exportTimeLayout))
	addRow(summary, "Created", report.CreatedDate.Format(exportTimeLayout))
	addRow(summary, "Sold Quantity", report.SoldQuantity)
	addRow(summary, "Total Revenue", types.FormatMoney(report.TotalRevenue))

	contents, err := file.AddSheet("Contents")
	if err != nil {
		return fmt.Errorf("failed to create contents sheet: %w", err)
	}
	addRow(contents, "Item ID", "Item Name", "Sold", "Unit Price", "Subtotal")
	for _, c := range report.Contents {
		addRow(contents, c.ItemID, c.ItemName, c.ItemSold,
			types.FormatMoney(c.UnitPrice), types.FormatMoney(c.SubTotal))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...interface{}) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}
