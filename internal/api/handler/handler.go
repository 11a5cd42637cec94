package handler

import "availability-hub/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Availability *AvailabilityHandler
	Period       *PeriodHandler
	Report       *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(svc.Availability, svc.Resolver, svc.Period),
		Period:       NewPeriodHandler(svc.Period),
		Report:       NewReportHandler(svc.Report),
	}
}
