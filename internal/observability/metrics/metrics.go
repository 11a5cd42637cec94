package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "availability_"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	submissionTotal   *prometheus.CounterVec
	submissionLatency *prometheus.HistogramVec

	validationViolations *prometheus.CounterVec

	finalizeTotal   *prometheus.CounterVec
	finalizeLatency *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
)

// Init 注册指标，可重复调用
func Init() {
	registerOnce.Do(func() {
		submissionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "submission_total",
				Help: "Total availability submissions by result",
			},
			[]string{"result"},
		)
		submissionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "submission_latency_seconds",
				Help:    "Availability submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		validationViolations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_violations_total",
				Help: "Total slot validation violations by kind",
			},
			[]string{"kind"},
		)

		finalizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finalize_total",
				Help: "Total mark-final operations by result",
			},
			[]string{"result"},
		)
		finalizeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "finalize_latency_seconds",
				Help:    "Mark-final transaction latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by kind, format and result",
			},
			[]string{"kind", "format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "format", "result"},
		)

		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		prometheus.MustRegister(
			submissionTotal,
			submissionLatency,
			validationViolations,
			finalizeTotal,
			finalizeLatency,
			reportExportTotal,
			reportExportLatency,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
}

// ObserveSubmission 记录一次版本提交
func ObserveSubmission(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if submissionTotal != nil {
		submissionTotal.WithLabelValues(result).Inc()
	}
	if submissionLatency != nil {
		submissionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncValidationViolation 按违规类型计数
func IncValidationViolation(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if validationViolations != nil {
		validationViolations.WithLabelValues(kind).Inc()
	}
}

// ObserveFinalize 记录一次定稿
func ObserveFinalize(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if finalizeTotal != nil {
		finalizeTotal.WithLabelValues(result).Inc()
	}
	if finalizeLatency != nil {
		finalizeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportExport 记录一次报表导出
func ObserveReportExport(kind, format, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(kind, format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(kind, format, result).Observe(duration.Seconds())
	}
}

// ObserveHTTPRequest 记录一次 HTTP 请求；route 为路由模板，未匹配时记为 unmatched
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpRequestDuration != nil {
		httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}
