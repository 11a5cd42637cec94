package service

import (
	"go.uber.org/zap"

	"availability-hub/config"
	"availability-hub/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Availability AvailabilityService
	Resolver     EffectiveResolver
	Report       ReportService
	Period       PeriodService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	resolver := NewEffectiveResolver(repo, logger)
	return &Service{
		Availability: NewAvailabilityService(&cfg.Submission, repo, logger),
		Resolver:     resolver,
		Report:       NewReportService(&cfg.Report, repo, resolver, logger),
		Period:       NewPeriodService(repo, logger),
	}
}
