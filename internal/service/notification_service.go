package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

const notificationJobType = "attendance_notice"

type noticeSender interface {
	Notify(ctx context.Context, notice mailer.AttendanceNotice) error
}

type retryQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationReport summarises one settle-all dispatch.
type NotificationReport struct {
	Attempted int
	Sent      int
	Failed    int
	Errors    []error
}

// NotificationService delivers attendance notices. Delivery failures are
// reported to the caller but never turned into request failures here.
type NotificationService struct {
	sender      noticeSender
	concurrency int
	metrics     *MetricsService
	logger      *zap.Logger

	mu    sync.RWMutex
	retry retryQueue
}

// NewNotificationService constructs the dispatcher. concurrency bounds the
// number of in-flight deliveries of one batch.
func NewNotificationService(sender noticeSender, concurrency int, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if concurrency <= 0 {
		concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, concurrency: concurrency, metrics: metrics, logger: logger}
}

// UseRetryQueue hands failed batch deliveries to q for later attempts.
func (s *NotificationService) UseRetryQueue(q retryQueue) {
	s.mu.Lock()
	s.retry = q
	s.mu.Unlock()
}

// Send delivers one notice synchronously.
func (s *NotificationService) Send(ctx context.Context, notice mailer.AttendanceNotice) error {
	if err := s.sender.Notify(ctx, notice); err != nil {
		s.metrics.RecordNotification(NotificationFailed)
		return appErrors.Wrap(err, appErrors.ErrNotification.Code, appErrors.ErrNotification.Status,
			fmt.Sprintf("failed to notify %s", notice.Email))
	}
	s.metrics.RecordNotification(NotificationSent)
	return nil
}

// SettleAll delivers every notice concurrently and waits for all of them.
// Individual failures are collected and queued for retry; they never stop
// the remaining deliveries.
func (s *NotificationService) SettleAll(ctx context.Context, notices []mailer.AttendanceNotice) NotificationReport {
	report := NotificationReport{Attempted: len(notices)}
	if len(notices) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, notice := range notices {
		notice := notice
		g.Go(func() error {
			err := s.Send(ctx, notice)
			mu.Lock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, err)
			} else {
				report.Sent++
			}
			mu.Unlock()
			if err != nil {
				s.scheduleRetry(ctx, notice, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// HandleRetry is the retry queue handler for failed notices.
func (s *NotificationService) HandleRetry(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(mailer.AttendanceNotice)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	s.metrics.RecordNotification(NotificationRetried)
	return s.Send(ctx, notice)
}

// DropRetry records a notice that exhausted its retries.
func (s *NotificationService) DropRetry(job jobs.Job, err error) {
	s.metrics.RecordNotification(NotificationDropped)
	s.logger.Warn("attendance notice abandoned",
		zap.String("job_id", job.ID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}

func (s *NotificationService) scheduleRetry(ctx context.Context, notice mailer.AttendanceNotice, cause error) {
	s.mu.RLock()
	q := s.retry
	s.mu.RUnlock()
	logger := s.logger.With(zap.String("request_id", requestid.FromContext(ctx)))
	if q == nil {
		logger.Warn("attendance notice failed", zap.String("to", notice.Email), zap.Error(cause))
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("%s:%s:%s", notice.Email, notice.Date.Format(dayLayout), notice.Status),
		Type:    notificationJobType,
		Payload: notice,
	}
	if err := q.Enqueue(job); err != nil {
		logger.Warn("attendance notice not queued for retry", zap.String("to", notice.Email), zap.Error(err), zap.NamedError("cause", cause))
	}
}
