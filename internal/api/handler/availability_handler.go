package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"availability-hub/internal/dto"
	"availability-hub/internal/model"
	"availability-hub/internal/service"
	"availability-hub/pkg/response"
	"availability-hub/pkg/timegrid"
)

// AvailabilityHandler 可用时间模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
	resolver        service.EffectiveResolver
	periodSvc       service.PeriodService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService, resolver service.EffectiveResolver, periodSvc service.PeriodService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc, resolver: resolver, periodSvc: periodSvc}
}

// GetTimeGrid 时间网格定义
// GET /api/v1/time-grid
func (h *AvailabilityHandler) GetTimeGrid(c *gin.Context) {
	response.OK(c, dto.TimeGridResponse{
		Days:        timegrid.Days,
		Times:       timegrid.Times(),
		SlotMinutes: timegrid.SlotMinutes,
		MinRunSlots: timegrid.MinRunSlots,
	})
}

// ValidateSlots 预校验（不落库）
// POST /api/v1/availability/validate
func (h *AvailabilityHandler) ValidateSlots(c *gin.Context) {
	var req dto.ValidateSlotsRequest
	if !bindJSON(c, &req) {
		return
	}

	errs := h.availabilitySvc.Validate(req.Slots)
	resp := dto.ValidateSlotsResponse{
		Valid:      len(errs) == 0,
		Violations: describeAll(errs),
	}
	if resp.Valid {
		resp.Ranges, _ = timegrid.Condense(req.Slots)
	}
	response.OK(c, resp)
}

// SubmitAvailability 提交新版本
// POST /api/v1/availability
func (h *AvailabilityHandler) SubmitAvailability(c *gin.Context) {
	var req dto.SubmitAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	windowOpen, err := h.periodSvc.WindowOpen(c.Request.Context(), req.PeriodID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	version, err := h.availabilitySvc.CreateVersion(c.Request.Context(), callerID, req.PeriodID, req.Slots, req.Comment, windowOpen)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.Created(c, toVersionResponse(version))
}

// MyHistory 当前教师的版本历史
// GET /api/v1/availability/my-history?period_id=xxx
func (h *AvailabilityHandler) MyHistory(c *gin.Context) {
	var q dto.ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	h.listVersions(c, callerID, q.PeriodID)
}

// UserHistory 指定教师的版本历史（管理员）
// GET /api/v1/availability/users/:user_id?period_id=xxx
func (h *AvailabilityHandler) UserHistory(c *gin.Context) {
	var q dto.ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period_id 不能为空")
		return
	}

	h.listVersions(c, c.Param("user_id"), q.PeriodID)
}

func (h *AvailabilityHandler) listVersions(c *gin.Context, instructorID, periodID string) {
	versions, err := h.availabilitySvc.ListVersions(c.Request.Context(), instructorID, periodID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	list := make([]dto.AvailabilityVersionResponse, len(versions))
	for i := range versions {
		list[i] = *toVersionResponse(&versions[i])
	}
	response.OK(c, gin.H{"list": list})
}

// GetEffective 有效版本（最终版本 → 最新草稿 → 无）
// GET /api/v1/availability/effective/:user_id?period_id=xxx
func (h *AvailabilityHandler) GetEffective(c *gin.Context) {
	var q dto.ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "period_id 不能为空")
		return
	}

	userID := c.Param("user_id")
	if _, ok := MustBeSelfOrAdmin(c, userID); !ok {
		return
	}

	version, source, err := h.resolver.Resolve(c.Request.Context(), userID, q.PeriodID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	resp := dto.EffectiveVersionResponse{Source: string(source)}
	if version != nil {
		resp.Version = toVersionResponse(version)
	}
	response.OK(c, resp)
}

// GetVersion 版本详情（本人或管理员）
// GET /api/v1/availability/:id
func (h *AvailabilityHandler) GetVersion(c *gin.Context) {
	version, err := h.availabilitySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	if _, ok := MustBeSelfOrAdmin(c, version.InstructorID); !ok {
		return
	}

	response.OK(c, toVersionResponse(version))
}

// MarkFinal 设为最终版本
// PATCH /api/v1/availability/:id/final
func (h *AvailabilityHandler) MarkFinal(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	version, err := h.availabilitySvc.MarkFinal(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, toVersionResponse(version))
}

// ── 错误映射 ──

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	var vErr *service.SlotValidationError
	switch {
	case errors.As(err, &vErr):
		response.UnprocessableEntity(c, 20002, "可用时间不满足连续性要求", describeAll(vErr.Errs))
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 21001, "学期不存在")
	case errors.Is(err, service.ErrSubmissionWindowClosed):
		response.Forbidden(c, 20001, "当前学期未开放提交")
	case errors.Is(err, service.ErrInstructorNotRegistered):
		response.Forbidden(c, 20007, "教师账号尚未同步，请联系管理员")
	case errors.Is(err, service.ErrCommentTooLong):
		response.BadRequest(c, 20003, "备注长度超出限制")
	case errors.Is(err, service.ErrVersionNotFound):
		response.NotFound(c, 20004, "版本不存在")
	case errors.Is(err, service.ErrVersionNotOwned):
		response.Forbidden(c, 20005, "该版本不属于当前用户")
	case errors.Is(err, service.ErrFinalizeConflict):
		response.Conflict(c, 20006, "最终版本已被其他操作修改，请稍后重试")
	default:
		response.InternalError(c)
	}
}

// ── 辅助函数 ──

func describeAll(errs []error) []timegrid.Violation {
	violations := make([]timegrid.Violation, len(errs))
	for i, err := range errs {
		violations[i] = timegrid.Describe(err)
	}
	return violations
}

func toVersionResponse(v *model.AvailabilityVersion) *dto.AvailabilityVersionResponse {
	slots := []string(v.Slots)
	if slots == nil {
		slots = []string{}
	}
	ranges, _ := timegrid.Condense(slots)
	if ranges == nil {
		ranges = []timegrid.Range{}
	}
	return &dto.AvailabilityVersionResponse{
		ID:           v.VersionID,
		InstructorID: v.InstructorID,
		PeriodID:     v.PeriodID,
		Slots:        slots,
		Ranges:       ranges,
		Comment:      v.Comment,
		State:        string(v.State),
		IsFinal:      v.IsFinal(),
		CreatedAt:    v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
