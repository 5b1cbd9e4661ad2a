package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const (
	maxVersionRetries      = 3
	msgApplicationNotFound = "application not found"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, bool, error)
	Find(ctx context.Context, jobID, studentID string) (*models.Application, error)
	Mutate(ctx context.Context, jobID, studentID string, fn repository.MutateFunc) (*models.Application, bool, error)
}

type summaryInvalidator interface {
	Invalidate(ctx context.Context, studentID string)
}

type notifier interface {
	Notify(recipientID string, template models.NotificationTemplate, jobID string, fields map[string]string)
}

// Transition is the outcome of one synchronised status change.
type Transition struct {
	Application *models.Application
	From        models.ApplicationStatus
	Changed     bool
}

// ApplicationSynchronizer writes application changes to both stored copies through the
// state machine and fans the result out to metrics, the summary cache and notifications.
type ApplicationSynchronizer struct {
	store     applicationStore
	lifecycle policy.Lifecycle
	summaries summaryInvalidator
	notifier  notifier
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewApplicationSynchronizer constructs the synchronizer. summaries and notifier may be nil.
func NewApplicationSynchronizer(store applicationStore, lifecycle policy.Lifecycle, summaries summaryInvalidator, notifier notifier, metrics *MetricsService, logger *zap.Logger) *ApplicationSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationSynchronizer{store: store, lifecycle: lifecycle, summaries: summaries, notifier: notifier, metrics: metrics, logger: logger}
}

// Lifecycle exposes the state machine used for writes.
func (s *ApplicationSynchronizer) Lifecycle() policy.Lifecycle {
	return s.lifecycle
}

// Create stores both copies of a new application. created is false when the pair already existed.
func (s *ApplicationSynchronizer) Create(ctx context.Context, app *models.Application) (*models.Application, bool, error) {
	stored, created, err := s.store.Create(ctx, app)
	if err != nil {
		return nil, false, mapStoreError(err, "failed to create application")
	}
	if created {
		s.metrics.RecordTransition("none", stored.Status)
		s.invalidate(ctx, stored.StudentID)
	}
	return stored, created, nil
}

// Find returns the job-side copy of an application.
func (s *ApplicationSynchronizer) Find(ctx context.Context, jobID, studentID string) (*models.Application, error) {
	app, err := s.store.Find(ctx, jobID, studentID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load application")
	}
	return app, nil
}

// Apply runs ch through the state machine under the per-application lock and writes both copies.
// template overrides the notification chosen from the new status; empty keeps the default.
func (s *ApplicationSynchronizer) Apply(ctx context.Context, jobID, studentID string, ch policy.Change, template models.NotificationTemplate) (*Transition, error) {
	var (
		from    models.ApplicationStatus
		job     models.JobLock
		app     *models.Application
		changed bool
		err     error
	)
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		app, changed, err = s.store.Mutate(ctx, jobID, studentID, func(locked models.JobLock, current *models.Application) (bool, error) {
			job = locked
			from = current.Status
			return s.lifecycle.Apply(current, ch)
		})
		if !errors.Is(err, repository.ErrVersionConflict) {
			break
		}
		s.logger.Warn("application version conflict, retrying",
			zap.String("job_id", jobID), zap.String("student_id", studentID), zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, s.transitionError(err, jobID, studentID, ch)
	}

	result := &Transition{Application: app, From: from, Changed: changed}
	if !changed {
		return result, nil
	}

	s.invalidate(ctx, studentID)
	if from != app.Status {
		s.metrics.RecordTransition(from, app.Status)
		s.logger.Info("application transitioned",
			zap.String("job_id", jobID),
			zap.String("student_id", studentID),
			zap.String("from", string(from)),
			zap.String("to", string(app.Status)),
			zap.Int64("version", app.Version),
		)
	}
	if template == "" && from != app.Status {
		template = templateFor(app.Status)
	}
	if template == "" && ch.Round != nil {
		template = models.TemplateInProcess
	}
	if template != "" && s.notifier != nil {
		s.notifier.Notify(studentID, template, jobID, notificationFields(job, app))
	}
	return result, nil
}

func (s *ApplicationSynchronizer) transitionError(err error, jobID, studentID string, ch policy.Change) error {
	var te *policy.TransitionError
	if errors.As(err, &te) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrInvalidTransition, te.Error()), map[string]interface{}{
			"from": te.From,
			"to":   te.To,
		})
	}
	mapped := mapStoreError(err, "failed to update application")
	if appErrors.FromError(mapped).Code == appErrors.ErrInternal.Code {
		s.logger.Error("application transition failed",
			zap.String("job_id", jobID), zap.String("student_id", studentID), zap.String("to", string(ch.Status)), zap.Error(err))
	}
	return mapped
}

func (s *ApplicationSynchronizer) invalidate(ctx context.Context, studentID string) {
	if s.summaries != nil {
		s.summaries.Invalidate(ctx, studentID)
	}
}

func mapStoreError(err error, internalMessage string) error {
	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	case errors.Is(err, repository.ErrApplicationNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, msgApplicationNotFound)
	case errors.Is(err, repository.ErrStudentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrDriveLocked):
		return appErrors.Clone(appErrors.ErrDriveFinished, "")
	case errors.Is(err, repository.ErrVersionConflict):
		return appErrors.Clone(appErrors.ErrConcurrentUpdate, "")
	}
	var limitErr *repository.OfferLimitError
	if errors.As(err, &limitErr) {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("student already holds %d offers", limitErr.Held)),
			map[string]interface{}{"code": policy.DecisionOfferLimitReached, "max_offers": limitErr.Limit},
		)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, internalMessage)
}

func templateFor(status models.ApplicationStatus) models.NotificationTemplate {
	switch status {
	case models.StatusApplied:
		return models.TemplateApplied
	case models.StatusShortlisted:
		return models.TemplateShortlisted
	case models.StatusInProcess:
		return models.TemplateInProcess
	case models.StatusPlaced:
		return models.TemplatePlaced
	case models.StatusRejected:
		return models.TemplateRejected
	}
	return ""
}

func notificationFields(job models.JobLock, app *models.Application) map[string]string {
	fields := map[string]string{
		"job_title":    job.Title,
		"company_name": job.CompanyName,
		"status":       string(app.Status),
	}
	if app.CurrentRound != nil {
		fields["round"] = *app.CurrentRound
	}
	if app.PackageLPA != nil {
		fields["package_lpa"] = strconv.FormatFloat(*app.PackageLPA, 'f', -1, 64)
	}
	if app.JoiningDate != nil {
		fields["joining_date"] = app.JoiningDate.Format(time.DateOnly)
	}
	return fields
}

func jobFields(job *models.Job) map[string]string {
	return map[string]string{"job_title": job.Title, "company_name": job.CompanyName}
}
