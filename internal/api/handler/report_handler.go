package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"availability-hub/internal/dto"
	"availability-hub/internal/service"
	"availability-hub/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ExportConsolidated 导出全部教师的汇总报表
// GET /api/v1/reports/consolidated?period_id=xxx&format=csv|xlsx|pdf
func (h *ReportHandler) ExportConsolidated(c *gin.Context) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	format, err := service.ParseReportFormat(q.Format)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	file, err := h.reportSvc.ExportConsolidated(c.Request.Context(), q.PeriodID, format)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	writeFile(c, file)
}

// ExportIndividual 导出单个教师的报表（本人或管理员）
// GET /api/v1/reports/instructors/:user_id?period_id=xxx&format=csv|xlsx|pdf
func (h *ReportHandler) ExportIndividual(c *gin.Context) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	format, err := service.ParseReportFormat(q.Format)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	userID := c.Param("user_id")
	if _, ok := MustBeSelfOrAdmin(c, userID); !ok {
		return
	}

	file, err := h.reportSvc.ExportIndividual(c.Request.Context(), userID, q.PeriodID, format)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	writeFile(c, file)
}

// Dashboard 学期提交概况
// GET /api/v1/reports/dashboard?period_id=xxx
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var q dto.ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period_id 不能为空")
		return
	}

	stats, err := h.reportSvc.DashboardStats(c.Request.Context(), q.PeriodID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportFormatUnsupported):
		response.BadRequest(c, 22001, "不支持的报表格式")
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 21001, "学期不存在")
	case errors.Is(err, service.ErrInstructorNotFound):
		response.NotFound(c, 22002, "教师不存在")
	case errors.Is(err, service.ErrReportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// writeFile 设置下载响应头并写出文件
func writeFile(c *gin.Context, file *service.ReportFile) {
	encodedFilename := url.QueryEscape(file.Filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, file.ContentType, file.Content.Bytes())
}
