package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"availability-hub/config"
	"availability-hub/internal/model"
	"availability-hub/internal/observability/metrics"
	"availability-hub/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrInstructorNotFound      = errors.New("教师不存在")
	ErrReportFormatUnsupported = errors.New("不支持的报表格式")
	ErrReportGenerateFail      = errors.New("生成报表文件失败")
)

// ReportFile 导出结果，由 Handler 设置响应头后写出
type ReportFile struct {
	Content     *bytes.Buffer
	Filename    string
	ContentType string
}

// DashboardStats 学期提交概况
type DashboardStats struct {
	PeriodID         string `json:"period_id"`
	TotalInstructors int    `json:"total_instructors"`
	SubmittedFinal   int    `json:"submitted_final"`
	DraftOnly        int    `json:"draft_only"`
	Pending          int    `json:"pending"`
}

// ReportService 报表业务接口
//
// 行生成与有效版本解析在服务内完成；文件传输留给 Handler。
// 草稿会出现在报表中，以 DRAFT 状态区分于 FINAL。
type ReportService interface {
	IndividualRows(ctx context.Context, instructorID, periodID string) ([]ReportRow, error)
	// ConsolidatedRows 所有在职教师，按姓名排序
	ConsolidatedRows(ctx context.Context, periodID string) ([]ReportRow, error)
	ExportIndividual(ctx context.Context, instructorID, periodID string, format ReportFormat) (*ReportFile, error)
	ExportConsolidated(ctx context.Context, periodID string, format ReportFormat) (*ReportFile, error)
	DashboardStats(ctx context.Context, periodID string) (*DashboardStats, error)
}

type reportService struct {
	cfg      *config.ReportConfig
	repo     *repository.Repository
	resolver EffectiveResolver
	logger   *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.ReportConfig, repo *repository.Repository, resolver EffectiveResolver, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, resolver: resolver, logger: logger}
}

// ────────────────────── 行生成 ──────────────────────

func (s *reportService) IndividualRows(ctx context.Context, instructorID, periodID string) ([]ReportRow, error) {
	if _, err := s.period(ctx, periodID); err != nil {
		return nil, err
	}
	user, err := s.repo.User.GetByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		s.logger.Error("查询教师失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return nil, err
	}
	return s.buildRows(ctx, periodID, []model.User{*user})
}

func (s *reportService) ConsolidatedRows(ctx context.Context, periodID string) ([]ReportRow, error) {
	if _, err := s.period(ctx, periodID); err != nil {
		return nil, err
	}
	users, err := s.repo.User.ListActiveInstructors(ctx)
	if err != nil {
		s.logger.Error("查询教师列表失败", zap.Error(err))
		return nil, err
	}
	return s.buildRows(ctx, periodID, users)
}

func (s *reportService) buildRows(ctx context.Context, periodID string, users []model.User) ([]ReportRow, error) {
	subjects := make([]ReportSubject, len(users))
	for i, u := range users {
		subjects[i] = ReportSubject{ID: u.UserID, Name: u.Name, Email: u.Email}
	}
	return BuildReportRows(periodID, subjects, func(subjectID string) (*model.AvailabilityVersion, EffectiveSource, error) {
		return s.resolver.Resolve(ctx, subjectID, periodID)
	})
}

// ────────────────────── 导出 ──────────────────────

func (s *reportService) ExportIndividual(ctx context.Context, instructorID, periodID string, format ReportFormat) (*ReportFile, error) {
	start := time.Now()
	rows, err := s.IndividualRows(ctx, instructorID, periodID)
	if err != nil {
		metrics.ObserveReportExport("individual", string(format), metrics.ResultError, time.Since(start))
		return nil, err
	}

	name := instructorID
	if len(rows) > 0 && rows[0].Name != "" {
		name = rows[0].Name
	}
	title := fmt.Sprintf("%s - %s - %s", s.title(), name, periodID)
	file, err := s.render(format, title, fmt.Sprintf("availability_%s_%s", instructorID, periodID), rows)
	metrics.ObserveReportExport("individual", string(format), resultOf(err), time.Since(start))
	return file, err
}

func (s *reportService) ExportConsolidated(ctx context.Context, periodID string, format ReportFormat) (*ReportFile, error) {
	start := time.Now()
	rows, err := s.ConsolidatedRows(ctx, periodID)
	if err != nil {
		metrics.ObserveReportExport("consolidated", string(format), metrics.ResultError, time.Since(start))
		return nil, err
	}

	title := fmt.Sprintf("%s - %s", s.title(), periodID)
	file, err := s.render(format, title, fmt.Sprintf("availability_consolidated_%s", periodID), rows)
	metrics.ObserveReportExport("consolidated", string(format), resultOf(err), time.Since(start))
	return file, err
}

func (s *reportService) render(format ReportFormat, title, basename string, rows []ReportRow) (*ReportFile, error) {
	var (
		buf *bytes.Buffer
		err error
	)
	switch format {
	case ReportFormatCSV:
		buf, err = renderCSV(rows)
	case ReportFormatXLSX:
		buf, err = renderXLSX(title, rows)
	case ReportFormatPDF:
		buf, err = renderPDF(title, rows)
	default:
		return nil, ErrReportFormatUnsupported
	}
	if err != nil {
		s.logger.Error("渲染报表失败", zap.String("format", string(format)), zap.Error(err))
		return nil, ErrReportGenerateFail
	}
	return &ReportFile{
		Content:     buf,
		Filename:    basename + "." + string(format),
		ContentType: format.ContentType(),
	}, nil
}

// ────────────────────── 概况 ──────────────────────

func (s *reportService) DashboardStats(ctx context.Context, periodID string) (*DashboardStats, error) {
	if _, err := s.period(ctx, periodID); err != nil {
		return nil, err
	}
	users, err := s.repo.User.ListActiveInstructors(ctx)
	if err != nil {
		s.logger.Error("查询教师列表失败", zap.Error(err))
		return nil, err
	}
	statuses, err := s.repo.Availability.ListScopeStatuses(ctx, periodID)
	if err != nil {
		s.logger.Error("统计提交概况失败", zap.String("period_id", periodID), zap.Error(err))
		return nil, err
	}

	hasFinal := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		hasFinal[st.InstructorID] = st.HasFinal
	}

	stats := &DashboardStats{PeriodID: periodID, TotalInstructors: len(users)}
	for _, u := range users {
		final, submitted := hasFinal[u.UserID]
		switch {
		case !submitted:
			stats.Pending++
		case final:
			stats.SubmittedFinal++
		default:
			stats.DraftOnly++
		}
	}
	return stats, nil
}

// ── 辅助函数 ──

func (s *reportService) period(ctx context.Context, periodID string) (*model.AcademicPeriod, error) {
	period, err := s.repo.Period.GetByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询学期失败", zap.String("period_id", periodID), zap.Error(err))
		return nil, err
	}
	return period, nil
}

func (s *reportService) title() string {
	if s.cfg != nil && s.cfg.Title != "" {
		return s.cfg.Title
	}
	return "Instructor Availability"
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
