package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type jobReader interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
}

type academicRecordReader interface {
	FindAcademicRecord(ctx context.Context, studentID string) (*models.StudentAcademicRecord, error)
}

type placementSummaries interface {
	Summary(ctx context.Context, studentID string) (models.PlacementSummary, error)
	Invalidate(ctx context.Context, studentID string)
}

type studentPruner interface {
	PruneStudent(ctx context.Context, studentID string) (int64, int64, error)
}

// ApplicationServiceOption customises an ApplicationService.
type ApplicationServiceOption func(*ApplicationService)

// WithApplicationClock overrides the time source.
func WithApplicationClock(now func() time.Time) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStudentPruner enables removal of every application of a student.
func WithStudentPruner(p studentPruner) ApplicationServiceOption {
	return func(s *ApplicationService) {
		s.pruner = p
	}
}

// ApplicationService implements the student apply flow and staff status updates.
type ApplicationService struct {
	jobs      jobReader
	students  academicRecordReader
	summaries placementSummaries
	sync      *ApplicationSynchronizer
	ladder    *policy.LadderEvaluator
	criteria  policy.CriteriaEvaluator
	notifier  notifier
	pruner    studentPruner
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewApplicationService constructs the service.
func NewApplicationService(
	jobs jobReader,
	students academicRecordReader,
	summaries placementSummaries,
	sync *ApplicationSynchronizer,
	ladder *policy.LadderEvaluator,
	notifier notifier,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	opts ...ApplicationServiceOption,
) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &ApplicationService{
		jobs:      jobs,
		students:  students,
		summaries: summaries,
		sync:      sync,
		ladder:    ladder,
		criteria:  policy.NewCriteriaEvaluator(),
		notifier:  notifier,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Apply runs the ladder gate and criteria classification and creates both application copies.
// Negative policy outcomes are returned as a result with Applied=false, not as errors.
func (s *ApplicationService) Apply(ctx context.Context, jobID, studentID string) (*dto.ApplyResult, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	record, err := s.students.FindAcademicRecord(ctx, studentID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load student")
	}

	now := s.now().UTC()
	if job.DriveFinished {
		return nil, appErrors.Clone(appErrors.ErrDriveFinished, "applications are closed for this drive")
	}
	if job.DeadlinePassed(now) {
		return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "")
	}

	existing, err := s.sync.Find(ctx, jobID, studentID)
	switch {
	case err == nil:
		return alreadyApplied(existing), nil
	case !isNotFound(err):
		return nil, err
	}

	summary, err := s.summaries.Summary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	decision := s.ladder.Evaluate(summary, job.Category)
	s.metrics.RecordPolicyDecision(string(decision.Code))
	if !decision.Eligible {
		s.logger.Info("apply refused by placement policy",
			zap.String("job_id", jobID),
			zap.String("student_id", studentID),
			zap.String("code", string(decision.Code)),
		)
		return &dto.ApplyResult{Message: decision.Reason, Decision: &decision}, nil
	}
	if decision.Code == policy.DecisionUncategorizedJob {
		s.logger.Warn("apply to uncategorized job bypassed placement policy",
			zap.String("job_id", jobID), zap.String("student_id", studentID))
	}

	if !record.HasResume() {
		return nil, appErrors.Clone(appErrors.ErrResumeRequired, "")
	}

	verdict := s.criteria.Evaluate(*record, job.EligibilityCriteria, job.EligibleDepartments)
	if verdict.DepartmentFailed() {
		s.metrics.RecordPolicyDecision("department_not_eligible")
		return &dto.ApplyResult{
			Message:  fmt.Sprintf("%s students are not eligible for this job", record.Department),
			Decision: &decision,
			Criteria: &verdict,
		}, nil
	}

	app := s.sync.Lifecycle().New(uuid.NewString(), jobID, studentID, verdict, now)
	stored, created, err := s.sync.Create(ctx, &app)
	if err != nil {
		return nil, err
	}
	if !created {
		return alreadyApplied(stored), nil
	}

	result := &dto.ApplyResult{
		Applied:     true,
		Application: stored,
		Decision:    &decision,
		Criteria:    &verdict,
		Message:     "application submitted",
	}
	template := models.TemplateApplied
	if stored.Status == models.StatusShortlisted {
		result.AutoShortlisted = true
		result.Message = "application submitted and automatically shortlisted"
		template = models.TemplateAutoShortlisted
	}
	if s.notifier != nil {
		s.notifier.Notify(studentID, template, jobID, jobFields(job))
	}
	s.logger.Info("application created",
		zap.String("job_id", jobID),
		zap.String("student_id", studentID),
		zap.String("status", string(stored.Status)),
	)
	return result, nil
}

// CheckApplied reports whether the student holds an application for the job.
func (s *ApplicationService) CheckApplied(ctx context.Context, jobID, studentID string) (*dto.AppliedCheck, error) {
	check := &dto.AppliedCheck{JobID: jobID, StudentID: studentID}
	app, err := s.sync.Find(ctx, jobID, studentID)
	if err != nil {
		if isNotFound(err) {
			return check, nil
		}
		return nil, err
	}
	check.Applied = true
	check.Status = &app.Status
	return check, nil
}

// UpdateStatus applies a staff status change and mirrors the supplied fields to both copies.
func (s *ApplicationService) UpdateStatus(ctx context.Context, jobID, studentID string, req dto.UpdateStatusRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status == models.StatusPlaced {
		if err := checkOfferLimit(ctx, s.summaries, s.ladder, jobID, studentID); err != nil {
			return nil, err
		}
	}

	change := policy.Change{
		Status:       req.Status,
		CurrentRound: req.CurrentRound,
		PackageLPA:   req.PackageLPA,
		JoiningDate:  req.JoiningDate,
		OfferLetter:  req.OfferLetter,
		Remarks:      req.Remarks,
		At:           s.now().UTC(),
	}
	transition, err := s.sync.Apply(ctx, jobID, studentID, change, "")
	if err != nil {
		return nil, err
	}
	return transition.Application, nil
}

// PruneStudent removes every application of a student from both copies.
func (s *ApplicationService) PruneStudent(ctx context.Context, studentID string) (*dto.StudentPruneResult, error) {
	if s.pruner == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "student prune not configured")
	}
	applicants, applied, err := s.pruner.PruneStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to prune student applications")
	}
	s.summaries.Invalidate(ctx, studentID)
	s.logger.Info("student applications pruned",
		zap.String("student_id", studentID),
		zap.Int64("applicants", applicants),
		zap.Int64("applied_jobs", applied),
	)
	return &dto.StudentPruneResult{StudentID: studentID, PrunedApplicants: applicants, PrunedAppliedJobs: applied}, nil
}

func alreadyApplied(app *models.Application) *dto.ApplyResult {
	return &dto.ApplyResult{
		Applied:        true,
		AlreadyApplied: true,
		Message:        "already applied to this job",
		Application:    app,
	}
}

// checkOfferLimit refuses a placement that would exceed the offer limit. Placements on jobID itself
// are ignored so a repeated placement stays idempotent.
func checkOfferLimit(ctx context.Context, summaries placementSummaries, ladder *policy.LadderEvaluator, jobID, studentID string) error {
	summary, err := summaries.Summary(ctx, studentID)
	if err != nil {
		return err
	}
	held := 0
	for _, offer := range summary.Offers {
		if offer.JobID != jobID {
			held++
		}
	}
	if held >= ladder.MaxOffers() {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("student already holds %d offers", held)),
			map[string]interface{}{"code": policy.DecisionOfferLimitReached, "current_placements": summary.Offers},
		)
	}
	return nil
}

func isNotFound(err error) bool {
	e := appErrors.FromError(err)
	return e != nil && e.Code == appErrors.ErrNotFound.Code
}
