package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"availability-hub/internal/model"
	pkgerrors "availability-hub/pkg/errors"
)

// ScopeStatus 某学期内单个教师的提交概况
type ScopeStatus struct {
	InstructorID string
	HasFinal     bool
}

// AvailabilityRepository 可用时间版本数据访问接口
// 版本只追加，除 MarkFinal 外不修改已有记录
type AvailabilityRepository interface {
	Create(ctx context.Context, version *model.AvailabilityVersion) error
	GetByID(ctx context.Context, id string) (*model.AvailabilityVersion, error)
	// ListByScope 按 created_at DESC, version_id DESC 排序
	ListByScope(ctx context.Context, instructorID, periodID string) ([]model.AvailabilityVersion, error)
	GetFinal(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error)
	GetLatest(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error)
	// MarkFinal 在一个事务内降级同范围其他 final 并提升目标版本
	MarkFinal(ctx context.Context, version *model.AvailabilityVersion) error
	ListScopeStatuses(ctx context.Context, periodID string) ([]ScopeStatus, error)
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Create(ctx context.Context, version *model.AvailabilityVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *availabilityRepo) GetByID(ctx context.Context, id string) (*model.AvailabilityVersion, error) {
	var version model.AvailabilityVersion
	err := r.db.WithContext(ctx).
		Where("version_id = ?", id).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *availabilityRepo) ListByScope(ctx context.Context, instructorID, periodID string) ([]model.AvailabilityVersion, error) {
	var versions []model.AvailabilityVersion
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND period_id = ?", instructorID, periodID).
		Order("created_at DESC, version_id DESC").
		Find(&versions).Error
	return versions, err
}

func (r *availabilityRepo) GetFinal(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error) {
	var version model.AvailabilityVersion
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND period_id = ? AND state = ?", instructorID, periodID, string(model.VersionStateFinal)).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *availabilityRepo) GetLatest(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error) {
	var version model.AvailabilityVersion
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND period_id = ?", instructorID, periodID).
		Order("created_at DESC, version_id DESC").
		Take(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *availabilityRepo) MarkFinal(ctx context.Context, version *model.AvailabilityVersion) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定整个 (教师, 学期) 范围，同范围的并发定稿在此串行化
		var locked []string
		if err := tx.Model(&model.AvailabilityVersion{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("instructor_id = ? AND period_id = ?", version.InstructorID, version.PeriodID).
			Order("version_id").
			Pluck("version_id", &locked).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.AvailabilityVersion{}).
			Where("instructor_id = ? AND period_id = ? AND state = ? AND version_id <> ?",
				version.InstructorID, version.PeriodID, string(model.VersionStateFinal), version.VersionID).
			Update("state", string(model.VersionStateDraft)).Error; err != nil {
			return err
		}

		result := tx.Model(&model.AvailabilityVersion{}).
			Where("version_id = ? AND instructor_id = ? AND period_id = ?",
				version.VersionID, version.InstructorID, version.PeriodID).
			Update("state", string(model.VersionStateFinal))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrFinalizeConflict
	}
	if err != nil {
		return err
	}
	version.State = model.VersionStateFinal
	return nil
}

func (r *availabilityRepo) ListScopeStatuses(ctx context.Context, periodID string) ([]ScopeStatus, error) {
	var statuses []ScopeStatus
	err := r.db.WithContext(ctx).
		Model(&model.AvailabilityVersion{}).
		Select("instructor_id, bool_or(state = ?) AS has_final", string(model.VersionStateFinal)).
		Where("period_id = ?", periodID).
		Group("instructor_id").
		Scan(&statuses).Error
	return statuses, err
}
