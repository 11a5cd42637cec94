package model

import "time"

// AcademicPeriod 学期表，对应 academic_periods
// IsOpenForSubmission 决定教师能否提交新的可用时间版本
type AcademicPeriod struct {
	PeriodID            string    `gorm:"type:varchar(64);primaryKey"  json:"period_id"`
	Name                string    `gorm:"type:varchar(128);not null"   json:"name"`
	StartDate           time.Time `gorm:"type:date;not null"           json:"start_date"`
	EndDate             time.Time `gorm:"type:date;not null"           json:"end_date"`
	IsOpenForSubmission bool      `gorm:"not null;default:false"       json:"is_open_for_submission"`
	BaseModel
}

// TableName 指定表名
func (AcademicPeriod) TableName() string { return "academic_periods" }
