package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"availability-hub/internal/model"
	"availability-hub/internal/repository"
)

// EffectiveSource 有效版本来源
type EffectiveSource string

const (
	SourceFinal       EffectiveSource = "FINAL"
	SourceLatestDraft EffectiveSource = "LATEST_DRAFT"
	SourceNone        EffectiveSource = "NONE"
)

// EffectiveResolver 有效版本解析：最终版本 → 最新草稿 → 无
// 至多两次查询，无副作用
type EffectiveResolver interface {
	Resolve(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, EffectiveSource, error)
}

type effectiveResolver struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEffectiveResolver 创建 EffectiveResolver 实例
func NewEffectiveResolver(repo *repository.Repository, logger *zap.Logger) EffectiveResolver {
	return &effectiveResolver{repo: repo, logger: logger}
}

func (r *effectiveResolver) Resolve(ctx context.Context, instructorID, periodID string) (*model.AvailabilityVersion, EffectiveSource, error) {
	final, err := r.repo.Availability.GetFinal(ctx, instructorID, periodID)
	if err == nil {
		return final, SourceFinal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Error("查询最终版本失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return nil, SourceNone, err
	}

	latest, err := r.repo.Availability.GetLatest(ctx, instructorID, periodID)
	if err == nil {
		return latest, SourceLatestDraft, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, SourceNone, nil
	}
	r.logger.Error("查询最新版本失败", zap.String("instructor_id", instructorID), zap.Error(err))
	return nil, SourceNone, err
}
