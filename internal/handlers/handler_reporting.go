package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to ledger reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
	now              func() time.Time
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{reportingService: rs, now: time.Now}
}

// registerReportingRoutes registers the admin-only report routes.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports", middleware.RequireAdmin())
	{
		reports.GET("/ledger", h.getLedgerReport)
		reports.GET("/ledger/export", h.exportLedgerReport)
	}
}

// period reads from/to (YYYY-MM-DD, to exclusive). Missing values default to the current month.
func (h *reportingHandler) period(c *gin.Context) (domain.Period, bool) {
	var params dto.LedgerReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return domain.Period{}, false
	}
	month := domain.MonthPeriod(h.now())
	from, err := dto.ParseDate(params.From, month.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date. Use YYYY-MM-DD"})
		return domain.Period{}, false
	}
	to, err := dto.ParseDate(params.To, month.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date. Use YYYY-MM-DD"})
		return domain.Period{}, false
	}
	return domain.Period{From: from, To: to}, true
}

func (h *reportingHandler) getLedgerReport(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	report, err := h.reportingService.LedgerReport(c.Request.Context(), period)
	if err != nil {
		respondError(c, err, "Failed to generate ledger report")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerReportResponse(report))
}

// exportLedgerReport renders the report fully before sending, so a render
// failure can still produce a proper error response.
func (h *reportingHandler) exportLedgerReport(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType, err := h.reportingService.ExportLedgerReport(c.Request.Context(), period, &buf)
	if err != nil {
		respondError(c, err, "Failed to export ledger report")
		return
	}

	filename := fmt.Sprintf("ledger_%s_%s.xlsx", period.From.Format(dto.DateLayout), period.To.Format(dto.DateLayout))
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Ledger report exported",
		slog.String("filename", filename), slog.Int("bytes", buf.Len()))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
