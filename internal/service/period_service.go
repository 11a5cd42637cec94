package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"availability-hub/internal/model"
	"availability-hub/internal/repository"
)

// ── 学期模块业务错误 ──

var ErrPeriodNotFound = errors.New("学期不存在")

// PeriodService 学期业务接口
// 学期生命周期由外部系统维护，这里只读取并允许管理员开关提交窗口
type PeriodService interface {
	Get(ctx context.Context, periodID string) (*model.AcademicPeriod, error)
	WindowOpen(ctx context.Context, periodID string) (bool, error)
	SetWindow(ctx context.Context, periodID string, open bool, callerID string) (*model.AcademicPeriod, error)
}

type periodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPeriodService 创建 PeriodService 实例
func NewPeriodService(repo *repository.Repository, logger *zap.Logger) PeriodService {
	return &periodService{repo: repo, logger: logger}
}

func (s *periodService) Get(ctx context.Context, periodID string) (*model.AcademicPeriod, error) {
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

func (s *periodService) WindowOpen(ctx context.Context, periodID string) (bool, error) {
	period, err := s.Get(ctx, periodID)
	if err != nil {
		return false, err
	}
	return period.IsOpenForSubmission, nil
}

func (s *periodService) SetWindow(ctx context.Context, periodID string, open bool, callerID string) (*model.AcademicPeriod, error) {
	if err := s.repo.Period.UpdateWindow(ctx, periodID, open); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("更新提交窗口失败", zap.String("period_id", periodID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("提交窗口已更新",
		zap.String("period_id", periodID),
		zap.Bool("open", open),
		zap.String("operator", callerID),
	)
	return s.Get(ctx, periodID)
}
