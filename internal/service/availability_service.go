package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"availability-hub/config"
	"availability-hub/internal/model"
	"availability-hub/internal/observability/metrics"
	"availability-hub/internal/repository"
	pkgerrors "availability-hub/pkg/errors"
	"availability-hub/pkg/timegrid"
)

// ── 可用时间模块业务错误 ──

var (
	ErrSubmissionWindowClosed  = errors.New("当前学期未开放提交")
	ErrVersionNotFound         = errors.New("版本不存在")
	ErrVersionNotOwned         = errors.New("该版本不属于当前用户")
	ErrCommentTooLong          = errors.New("备注长度超出限制")
	// ErrInstructorNotRegistered 令牌有效但 users 表尚未同步该教师
	ErrInstructorNotRegistered = errors.New("教师账号尚未同步")
	// ErrFinalizeConflict 并发定稿冲突，调用方可重试
	ErrFinalizeConflict        = pkgerrors.ErrFinalizeConflict
)

// SlotValidationError 提交因时间格校验失败被拒绝
// Errs 为全部违规项，首项与 timegrid.Validate 的结果一致；errors.As 可直接取出具体错误类型
type SlotValidationError struct {
	Errs []error
}

func (e *SlotValidationError) Error() string { return e.Errs[0].Error() }

func (e *SlotValidationError) Unwrap() []error { return e.Errs }

// AvailabilityService 可用时间版本业务接口
//
// 版本只追加；创建永远得到草稿，定稿是独立的显式操作。
// 同一 (教师, 学期) 至多一个最终版本，由仓储层事务与部分唯一索引共同保证。
type AvailabilityService interface {
	// Validate 校验时间格集合，返回全部违规项（空切片表示合法）
	Validate(slots []string) []error
	// CreateVersion 追加新草稿；windowOpen 由调用方根据学期状态提供
	CreateVersion(ctx context.Context, instructorID, periodID string, slots []string, comment *string, windowOpen bool) (*model.AvailabilityVersion, error)
	// MarkFinal 将版本设为该范围唯一的最终版本
	MarkFinal(ctx context.Context, versionID, instructorID string) (*model.AvailabilityVersion, error)
	// ListVersions 最新在前
	ListVersions(ctx context.Context, instructorID, periodID string) ([]model.AvailabilityVersion, error)
	Get(ctx context.Context, versionID string) (*model.AvailabilityVersion, error)
}

type availabilityService struct {
	cfg    *config.SubmissionConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(cfg *config.SubmissionConfig, repo *repository.Repository, logger *zap.Logger) AvailabilityService {
	return &availabilityService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Validate ──────────────────────

func (s *availabilityService) Validate(slots []string) []error {
	errs := timegrid.ValidateAll(slots)
	for _, err := range errs {
		metrics.IncValidationViolation(string(timegrid.KindOf(err)))
	}
	return errs
}

// ────────────────────── CreateVersion ──────────────────────

func (s *availabilityService) CreateVersion(ctx context.Context, instructorID, periodID string, slots []string, comment *string, windowOpen bool) (*model.AvailabilityVersion, error) {
	start := time.Now()

	if !windowOpen {
		metrics.ObserveSubmission(metrics.ResultRejected, time.Since(start))
		return nil, ErrSubmissionWindowClosed
	}

	if errs := s.Validate(slots); len(errs) > 0 {
		metrics.ObserveSubmission(metrics.ResultRejected, time.Since(start))
		return nil, &SlotValidationError{Errs: errs}
	}

	if comment != nil && s.cfg != nil && utf8.RuneCountInString(*comment) > s.cfg.MaxCommentLen {
		metrics.ObserveSubmission(metrics.ResultRejected, time.Since(start))
		return nil, ErrCommentTooLong
	}

	normalized, err := timegrid.Normalize(slots)
	if err != nil {
		// 已通过校验，不应出现
		return nil, &SlotValidationError{Errs: []error{err}}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成版本 ID 失败: %w", err)
	}

	version := &model.AvailabilityVersion{
		VersionID:    id.String(),
		InstructorID: instructorID,
		PeriodID:     periodID,
		Slots:        model.StringArray(normalized),
		Comment:      comment,
		State:        model.VersionStateDraft,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Availability.Create(ctx, version); err != nil {
		// 学期已由调用方确认存在，外键失败只可能来自 instructor_id
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			s.logger.Warn("提交者不在 users 表中",
				zap.String("instructor_id", instructorID),
				zap.String("period_id", periodID),
			)
			metrics.ObserveSubmission(metrics.ResultRejected, time.Since(start))
			return nil, ErrInstructorNotRegistered
		}
		s.logger.Error("创建可用时间版本失败",
			zap.String("instructor_id", instructorID),
			zap.String("period_id", periodID),
			zap.Error(err),
		)
		metrics.ObserveSubmission(metrics.ResultError, time.Since(start))
		return nil, err
	}

	s.logger.Info("可用时间版本已创建",
		zap.String("version_id", version.VersionID),
		zap.String("instructor_id", instructorID),
		zap.String("period_id", periodID),
		zap.Int("slots", len(normalized)),
	)
	metrics.ObserveSubmission(metrics.ResultSuccess, time.Since(start))
	return version, nil
}

// ────────────────────── MarkFinal ──────────────────────

func (s *availabilityService) MarkFinal(ctx context.Context, versionID, instructorID string) (*model.AvailabilityVersion, error) {
	start := time.Now()

	version, err := s.Get(ctx, versionID)
	if err != nil {
		metrics.ObserveFinalize(metrics.ResultRejected, time.Since(start))
		return nil, err
	}
	if version.InstructorID != instructorID {
		metrics.ObserveFinalize(metrics.ResultRejected, time.Since(start))
		return nil, ErrVersionNotOwned
	}

	if err := s.repo.Availability.MarkFinal(ctx, version); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			metrics.ObserveFinalize(metrics.ResultRejected, time.Since(start))
			return nil, ErrVersionNotFound
		case errors.Is(err, ErrFinalizeConflict):
			s.logger.Warn("定稿并发冲突",
				zap.String("version_id", versionID),
				zap.String("instructor_id", instructorID),
			)
			metrics.ObserveFinalize(metrics.ResultConflict, time.Since(start))
			return nil, ErrFinalizeConflict
		default:
			s.logger.Error("定稿失败", zap.String("version_id", versionID), zap.Error(err))
			metrics.ObserveFinalize(metrics.ResultError, time.Since(start))
			return nil, err
		}
	}

	s.logger.Info("版本已定稿",
		zap.String("version_id", versionID),
		zap.String("instructor_id", instructorID),
		zap.String("period_id", version.PeriodID),
	)
	metrics.ObserveFinalize(metrics.ResultSuccess, time.Since(start))
	return version, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *availabilityService) ListVersions(ctx context.Context, instructorID, periodID string) ([]model.AvailabilityVersion, error) {
	versions, err := s.repo.Availability.ListByScope(ctx, instructorID, periodID)
	if err != nil {
		s.logger.Error("查询版本历史失败", zap.Error(err))
		return nil, err
	}
	return versions, nil
}

func (s *availabilityService) Get(ctx context.Context, versionID string) (*model.AvailabilityVersion, error) {
	if _, err := uuid.Parse(versionID); err != nil {
		return nil, ErrVersionNotFound
	}
	version, err := s.repo.Availability.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		s.logger.Error("查询版本失败", zap.String("version_id", versionID), zap.Error(err))
		return nil, err
	}
	return version, nil
}
