package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/jobs"
	"github.com/noah-isme/campus-placement-api/pkg/notify"
)

const notificationJobType = "placement.notification"

// NotificationConfig tunes asynchronous notification dispatch.
type NotificationConfig struct {
	Enabled        bool
	Workers        int
	BufferSize     int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

// NotificationService hands events to the notification collaborator without blocking callers.
// Delivery failures are logged and counted, never returned.
type NotificationService struct {
	publisher notify.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       NotificationConfig
	now       func() time.Time
}

// NewNotificationService wires a publisher behind a retrying worker queue.
func NewNotificationService(publisher notify.Publisher, metrics *MetricsService, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	s := &NotificationService{publisher: publisher, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		OnGiveUp:   s.giveUp,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || !s.cfg.Enabled || s.publisher == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers and closes the publisher.
func (s *NotificationService) Stop() {
	if s == nil || !s.cfg.Enabled || s.publisher == nil {
		return
	}
	s.queue.Stop()
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("close notification publisher", zap.Error(err))
	}
}

// Notify enqueues an event for one recipient.
func (s *NotificationService) Notify(recipientID string, template models.NotificationTemplate, jobID string, fields map[string]string) {
	if s == nil || !s.cfg.Enabled || s.publisher == nil {
		return
	}
	event := models.NotificationEvent{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Template:    template,
		JobID:       jobID,
		Context:     fields,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: event.ID, Type: notificationJobType, Payload: event}); err != nil {
		s.metrics.RecordNotificationDropped()
		s.logger.Warn("notification dropped",
			zap.String("recipient_id", recipientID),
			zap.String("template", string(template)),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}

// Stats exposes dispatch counters.
func (s *NotificationService) Stats() jobs.Stats {
	if s == nil || s.queue == nil {
		return jobs.Stats{}
	}
	return s.queue.Stats()
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()
	return s.publisher.Publish(ctx, notify.Message{ID: event.ID, Kind: string(event.Template), Payload: event})
}

func (s *NotificationService) giveUp(job jobs.Job, err error) {
	s.metrics.RecordNotificationFailure()
	fields := []zap.Field{zap.String("notification_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err)}
	if event, ok := job.Payload.(models.NotificationEvent); ok {
		fields = append(fields, zap.String("recipient_id", event.RecipientID), zap.String("template", string(event.Template)))
	}
	s.logger.Error("notification delivery failed", fields...)
}
