package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes reported by MetricsService.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationRetried = "retried"
	NotificationDropped = "dropped"
)

// MetricsService encapsulates Prometheus instrumentation. A nil receiver is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	attendanceMarks *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	importRows      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	attendanceMarks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance records written, by operation",
	}, []string{"operation"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_notifications_total",
		Help: "Attendance notification deliveries, by outcome",
	}, []string{"outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_import_rows_total",
		Help: "Rows processed by the CSV student import, by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, attendanceMarks, notifications, importRows, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		attendanceMarks: attendanceMarks,
		notifications:   notifications,
		importRows:      importRows,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAttendanceMarks counts written attendance records.
func (m *MetricsService) RecordAttendanceMarks(operation string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.attendanceMarks.WithLabelValues(operation).Add(float64(count))
}

// RecordNotification counts one notification outcome.
func (m *MetricsService) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// RecordImportRows counts imported or skipped rows.
func (m *MetricsService) RecordImportRows(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.importRows.WithLabelValues(outcome).Add(float64(count))
}
