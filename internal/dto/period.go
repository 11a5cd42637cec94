package dto

// ── 学期模块 DTO ──

// UpdateWindowRequest 开关提交窗口请求
type UpdateWindowRequest struct {
	IsOpen *bool `json:"is_open" binding:"required"`
}

// PeriodResponse 学期信息响应
type PeriodResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	IsOpenForSubmission bool   `json:"is_open_for_submission"`
}
