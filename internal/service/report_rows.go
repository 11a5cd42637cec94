package service

import (
	"fmt"
	"strings"

	"availability-hub/internal/model"
	"availability-hub/pkg/timegrid"
)

// ReportStatus 报表行状态
type ReportStatus string

const (
	ReportStatusFinal   ReportStatus = "FINAL"
	ReportStatusDraft   ReportStatus = "DRAFT"
	ReportStatusPending ReportStatus = "PENDING"
)

const (
	// reportPlaceholder 未提交或无时间段时的占位符
	reportPlaceholder = "-"
	// NoAvailabilityDay 有效版本不含任何时间格时的星期列取值
	NoAvailabilityDay = "NO_AVAILABILITY"
)

// ReportSubject 报表对象（教师）
type ReportSubject struct {
	ID    string
	Name  string
	Email string
}

// ReportRow 报表行；CSV / XLSX / PDF 渲染共用
type ReportRow struct {
	InstructorID string       `json:"instructor_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PeriodID     string       `json:"period_id"`
	Status       ReportStatus `json:"status"`
	Day          string       `json:"day"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	Comments     string       `json:"comments"`
}

// ResolveFunc 解析某个教师的有效版本
type ResolveFunc func(subjectID string) (*model.AvailabilityVersion, EffectiveSource, error)

// BuildReportRows 为每个教师生成报表行：
//   - 无有效版本：一行 PENDING，其余列为占位符
//   - 有效版本不含时间格：一行 NO_AVAILABILITY
//   - 否则每个连续时间段一行，状态取自有效版本来源
func BuildReportRows(periodID string, subjects []ReportSubject, resolve ResolveFunc) ([]ReportRow, error) {
	rows := make([]ReportRow, 0, len(subjects))
	for _, subject := range subjects {
		version, source, err := resolve(subject.ID)
		if err != nil {
			return nil, fmt.Errorf("解析教师 %s 的有效版本失败: %w", subject.ID, err)
		}

		base := ReportRow{
			InstructorID: subject.ID,
			Name:         subject.Name,
			Email:        subject.Email,
			PeriodID:     periodID,
		}

		if version == nil || source == SourceNone {
			base.Status = ReportStatusPending
			base.Day, base.StartTime, base.EndTime = reportPlaceholder, reportPlaceholder, reportPlaceholder
			rows = append(rows, base)
			continue
		}

		base.Status = ReportStatusDraft
		if source == SourceFinal {
			base.Status = ReportStatusFinal
		}
		base.Comments = flattenComment(version.Comment)

		ranges, err := timegrid.Condense(version.Slots)
		if err != nil {
			return nil, fmt.Errorf("版本 %s 的时间格无法压缩: %w", version.VersionID, err)
		}
		if len(ranges) == 0 {
			base.Day, base.StartTime, base.EndTime = NoAvailabilityDay, reportPlaceholder, reportPlaceholder
			rows = append(rows, base)
			continue
		}

		for _, r := range ranges {
			row := base
			row.Day, row.StartTime, row.EndTime = r.Day, r.Start, r.End
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// flattenComment 换行替换为空格
func flattenComment(comment *string) string {
	if comment == nil {
		return ""
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(*comment)
}
