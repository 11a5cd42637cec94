package dto

import "availability-hub/pkg/timegrid"

// ── 可用时间模块 DTO ──

// ValidateSlotsRequest 预校验请求（前端即时反馈，与提交使用同一校验逻辑）
type ValidateSlotsRequest struct {
	Slots []string `json:"slots" binding:"max=360"`
}

// ValidateSlotsResponse 预校验结果
type ValidateSlotsResponse struct {
	Valid      bool                 `json:"valid"`
	Violations []timegrid.Violation `json:"violations"`
	Ranges     []timegrid.Range     `json:"ranges"` // 仅在合法时返回
}

// SubmitAvailabilityRequest 提交可用时间请求
type SubmitAvailabilityRequest struct {
	PeriodID string   `json:"period_id" binding:"required,max=64"`
	Slots    []string `json:"slots"     binding:"max=360"` // 空数组表示"无可用时间"
	Comment  *string  `json:"comment"`
}

// ScopeQuery 版本范围查询参数
type ScopeQuery struct {
	PeriodID string `form:"period_id" binding:"required,max=64"`
}

// AvailabilityVersionResponse 版本信息响应
type AvailabilityVersionResponse struct {
	ID           string           `json:"id"`
	InstructorID string           `json:"instructor_id"`
	PeriodID     string           `json:"period_id"`
	Slots        []string         `json:"slots"`
	Ranges       []timegrid.Range `json:"ranges"`
	Comment      *string          `json:"comment,omitempty"`
	State        string           `json:"state"`
	IsFinal      bool             `json:"is_final"`
	CreatedAt    string           `json:"created_at"`
}

// EffectiveVersionResponse 有效版本响应；source 为 NONE 时 version 为空
type EffectiveVersionResponse struct {
	Source  string                       `json:"source"` // FINAL | LATEST_DRAFT | NONE
	Version *AvailabilityVersionResponse `json:"version"`
}
