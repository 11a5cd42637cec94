package dto

// ── 报表模块 DTO ──

// ReportQuery 报表查询参数
type ReportQuery struct {
	PeriodID string `form:"period_id" binding:"required,max=64"`
	Format   string `form:"format"    binding:"omitempty,oneof=csv xlsx pdf"`
}

// TimeGridResponse 时间网格定义（供前端渲染选择器）
type TimeGridResponse struct {
	Days        []string `json:"days"`
	Times       []string `json:"times"`
	SlotMinutes int      `json:"slot_minutes"`
	MinRunSlots int      `json:"min_run_slots"`
}
