package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lizsys/internal/finance"
	"lizsys/internal/services"
)

// ReportHandler handles reporting and export requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportRange parses the from/to query parameters, defaulting to the
// trailing twelve months.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(-1, 0, 0)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := finance.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := finance.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	return from, to, nil
}

// GetIncomeReport handles income report requests
// @Summary     Income report
// @Description Aggregate collected payments and late fees over a date range, by month
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Range start (default one year ago)"
// @Param       to query string false "Range end (default now)"
// @Success     200 {object} services.IncomeReport "Income report"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/income [get]
func (h *ReportHandler) GetIncomeReport(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.IncomeReport(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetDebtReport handles debt report requests
// @Summary     Debt report
// @Description List outstanding balances on active contracts grouped by client
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DebtReport "Debt report"
// @Router      /reports/debt [get]
func (h *ReportHandler) GetDebtReport(c *gin.Context) {
	report, err := h.reportService.DebtReport()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetOverdueReport handles overdue report requests
// @Summary     Overdue report
// @Description List active contracts past their due date with the accrued penalty
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       as_of query string false "Reference date (default now)"
// @Success     200 {object} map[string]interface{} "Overdue contracts"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Router      /reports/overdue [get]
func (h *ReportHandler) GetOverdueReport(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := finance.ParseDate(raw)
		if err != nil {
			respondWithError(c, err)
			return
		}
		asOf = parsed
	}

	rows, err := h.reportService.OverdueReport(asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if rows == nil {
		rows = []services.OverdueRow{}
	}

	c.JSON(http.StatusOK, gin.H{"overdue": rows})
}

// GetDashboard handles dashboard summary requests
// @Summary     Dashboard summary
// @Description Headline counts plus income collected in the current month
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardSummary "Dashboard summary"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": summary})
}

// ExportIncomeExcel handles income report Excel exports
// @Summary     Export income report as Excel
// @Description Download the income report as an .xlsx workbook
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from query string false "Range start (default one year ago)"
// @Param       to query string false "Range end (default now)"
// @Success     200 {file} file "Excel workbook"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/income/export [get]
func (h *ReportHandler) ExportIncomeExcel(c *gin.Context) {
	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reportService.ExportIncomeExcel(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("income-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ExportDebtPDF handles debt report PDF exports
// @Summary     Export debt report as PDF
// @Description Download the outstanding balances report as a PDF
// @Tags        reports
// @Produce     application/pdf
// @Security    BearerAuth
// @Success     200 {file} file "PDF document"
// @Router      /reports/debt/export [get]
func (h *ReportHandler) ExportDebtPDF(c *gin.Context) {
	data, err := h.reportService.ExportDebtPDF()
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("debt-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
