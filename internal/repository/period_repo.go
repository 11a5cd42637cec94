package repository

import (
	"context"

	"gorm.io/gorm"

	"availability-hub/internal/model"
)

// PeriodRepository 学期数据访问接口
type PeriodRepository interface {
	GetByID(ctx context.Context, id string) (*model.AcademicPeriod, error)
	// UpdateWindow 开启/关闭提交窗口；学期不存在时返回 gorm.ErrRecordNotFound
	UpdateWindow(ctx context.Context, id string, open bool) error
}

type periodRepo struct {
	db *gorm.DB
}

// NewPeriodRepo 创建 PeriodRepository 实例
func NewPeriodRepo(db *gorm.DB) PeriodRepository {
	return &periodRepo{db: db}
}

func (r *periodRepo) GetByID(ctx context.Context, id string) (*model.AcademicPeriod, error) {
	var period model.AcademicPeriod
	err := r.db.WithContext(ctx).
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) UpdateWindow(ctx context.Context, id string, open bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.AcademicPeriod{}).
		Where("period_id = ?", id).
		Updates(map[string]interface{}{
			"is_open_for_submission": open,
			"updated_at":             gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
