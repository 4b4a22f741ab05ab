package handler

import (
	"time"

	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportSvc *service.ReportService
}

func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// WeeklyReport 最近 7 天交易汇总
// GET /api/v1/reports/weekly
func (h *ReportHandler) WeeklyReport(c *gin.Context) {
	report, err := h.reportSvc.GenerateWeeklyReport(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, report)
}

// MonthlyReport 最近 30 天交易汇总
// GET /api/v1/reports/monthly
func (h *ReportHandler) MonthlyReport(c *gin.Context) {
	report, err := h.reportSvc.GenerateMonthlyReport(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, report)
}
