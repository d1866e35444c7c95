package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/reporting"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

const dateLayout = "2006-01-02"

type reportBody struct {
	Type string `json:"type" binding:"required"`
	// Date is the reference day as YYYY-MM-DD; empty means today
	Date string `json:"date"`
}

func (s *Server) generateReport(c *gin.Context) {
	var body reportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "type is required")
		return
	}
	reportType, err := types.ParseReportType(body.Type)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ref := time.Now()
	if body.Date != "" {
		if ref, err = time.ParseInLocation(dateLayout, body.Date, time.Local); err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
	}

	report, err := s.app.Reports.GenerateFor(c.Request.Context(), reportType, ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reportView(report, true))
}

// listReports lists every report, or with type, start and end query
// parameters only those whose window lies inside the inclusive date range
func (s *Server) listReports(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		reports []*types.Report
		err     error
	)
	if c.Query("type") == "" {
		reports, err = s.app.Reports.ListAll(ctx)
	} else {
		reportType, perr := types.ParseReportType(c.Query("type"))
		if perr != nil {
			s.writeError(c, perr)
			return
		}
		start, serr := time.ParseInLocation(dateLayout, c.Query("start"), time.Local)
		end, eerr := time.ParseInLocation(dateLayout, c.Query("end"), time.Local)
		if serr != nil || eerr != nil {
			badRequest(c, "start and end must be YYYY-MM-DD")
			return
		}
		reports, err = s.app.Reports.ListByTypeBetween(ctx, reportType, start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(reports))
	for _, r := range reports {
		views = append(views, reportView(r, false))
	}
	c.JSON(http.StatusOK, gin.H{"reports": views, "count": len(views)})
}

func (s *Server) getReport(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := s.app.Reports.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reportView(report, true))
}

func (s *Server) exportReport(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// Buffer so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := s.app.Reports.ExportXLSX(c.Request.Context(), id, &buf); err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report-%d.xlsx", id))
	c.Data(http.StatusOK, reporting.XLSXContentType, buf.Bytes())
}
