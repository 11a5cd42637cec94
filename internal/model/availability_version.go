package model

import "time"

// VersionState 版本状态：draft → final（final 可被同一范围内的后续定稿降级为 draft）
type VersionState string

const (
	VersionStateDraft VersionState = "draft"
	VersionStateFinal VersionState = "final"
)

// AvailabilityVersion 可用时间版本表，对应 availability_versions
// 创建后仅 State 可变；同一 (InstructorID, PeriodID) 至多一个 final
type AvailabilityVersion struct {
	VersionID    string       `gorm:"type:uuid;primaryKey"                      json:"version_id"`
	InstructorID string       `gorm:"type:varchar(64);not null"                 json:"instructor_id"`
	PeriodID     string       `gorm:"type:varchar(64);not null"                 json:"period_id"`
	Slots        StringArray  `gorm:"type:text[];not null"                      json:"slots"`
	Comment      *string      `gorm:"type:text"                                 json:"comment,omitempty"`
	State        VersionState `gorm:"type:varchar(10);not null;default:'draft'" json:"state"`
	CreatedAt    time.Time    `gorm:"not null;autoCreateTime:false"             json:"created_at"`
}

// TableName 指定表名
func (AvailabilityVersion) TableName() string { return "availability_versions" }

// IsFinal 是否为最终版本
func (v *AvailabilityVersion) IsFinal() bool { return v.State == VersionStateFinal }
