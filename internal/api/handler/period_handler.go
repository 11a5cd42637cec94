package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"availability-hub/internal/dto"
	"availability-hub/internal/model"
	"availability-hub/internal/service"
	"availability-hub/pkg/response"
)

// PeriodHandler 学期模块 HTTP 处理器
type PeriodHandler struct {
	periodSvc service.PeriodService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(periodSvc service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// GetPeriod 获取学期详情
// GET /api/v1/periods/:id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	period, err := h.periodSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, toPeriodResponse(period))
}

// UpdateWindow 开启/关闭提交窗口
// PUT /api/v1/periods/:id/window
func (h *PeriodHandler) UpdateWindow(c *gin.Context) {
	var req dto.UpdateWindowRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.SetWindow(c.Request.Context(), c.Param("id"), *req.IsOpen, callerID)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, toPeriodResponse(period))
}

func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 21001, "学期不存在")
	default:
		response.InternalError(c)
	}
}

func toPeriodResponse(p *model.AcademicPeriod) *dto.PeriodResponse {
	return &dto.PeriodResponse{
		ID:                  p.PeriodID,
		Name:                p.Name,
		StartDate:           p.StartDate.Format("2006-01-02"),
		EndDate:             p.EndDate.Format("2006-01-02"),
		IsOpenForSubmission: p.IsOpenForSubmission,
	}
}
