package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const skipNotApplicant = "student has not applied to this job"

type driveJobRepository interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
	MarkShortlistReceived(ctx context.Context, id string, at time.Time) error
	FinishDrive(ctx context.Context, id, actorID string, at time.Time) (int, error)
	ListFinishedSince(ctx context.Context, since time.Time) ([]models.RecentPlacement, error)
}

type applicantReader interface {
	ListApplicants(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.ApplicantRow, error)
	StatusCounts(ctx context.Context, jobID string) (models.StatusCounts, error)
}

// DriveWorkflowConfig tunes the drive workflow.
type DriveWorkflowConfig struct {
	RecentWindow time.Duration
}

// DriveWorkflowService orchestrates the staff-facing steps of a recruitment drive.
type DriveWorkflowService struct {
	jobs       driveJobRepository
	applicants applicantReader
	sync       *ApplicationSynchronizer
	summaries  placementSummaries
	ladder     *policy.LadderEvaluator
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        DriveWorkflowConfig
	now        func() time.Time
}

// NewDriveWorkflowService constructs the service.
func NewDriveWorkflowService(
	jobs driveJobRepository,
	applicants applicantReader,
	sync *ApplicationSynchronizer,
	summaries placementSummaries,
	ladder *policy.LadderEvaluator,
	notifier notifier,
	validate *validator.Validate,
	cfg DriveWorkflowConfig,
	logger *zap.Logger,
) *DriveWorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 24 * time.Hour
	}
	return &DriveWorkflowService{
		jobs:       jobs,
		applicants: applicants,
		sync:       sync,
		summaries:  summaries,
		ladder:     ladder,
		notifier:   notifier,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Shortlist applies the company's shortlist and rejection lists and marks the shortlist as received.
func (s *DriveWorkflowService) Shortlist(ctx context.Context, jobID string, req dto.ShortlistRequest) (*dto.ShortlistResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shortlist payload")
	}
	shortlisted := uniqueIDs(req.ShortlistedStudentIDs)
	rejected := uniqueIDs(req.RejectedStudentIDs)
	if len(shortlisted)+len(rejected) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students supplied")
	}
	if overlap := intersect(shortlisted, rejected); len(overlap) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "students cannot be both shortlisted and rejected"),
			map[string]interface{}{"students": overlap})
	}
	if _, err := s.openJob(ctx, jobID); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	result := &dto.ShortlistResult{JobID: jobID}
	var err error
	result.Shortlisted, err = s.batch(ctx, jobID, shortlisted, func(string) (policy.Change, string, error) {
		return policy.Change{Status: models.StatusShortlisted, At: at}, "", nil
	})
	if err != nil {
		return nil, err
	}
	result.Rejected, err = s.batch(ctx, jobID, rejected, func(string) (policy.Change, string, error) {
		return policy.Change{Status: models.StatusRejected, At: at}, "", nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.jobs.MarkShortlistReceived(ctx, jobID, at); err != nil {
		return nil, mapStoreError(err, "failed to update drive stage")
	}
	s.logger.Info("shortlist applied",
		zap.String("job_id", jobID),
		zap.Int("shortlisted", len(result.Shortlisted.Updated)),
		zap.Int("rejected", len(result.Rejected.Updated)),
		zap.Int("skipped", len(result.Shortlisted.Skipped)+len(result.Rejected.Skipped)),
	)
	return result, nil
}

// InterviewRound records a named round outcome and moves the application to in-process.
func (s *DriveWorkflowService) InterviewRound(ctx context.Context, jobID, studentID string, req dto.InterviewRoundRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interview round payload")
	}
	change := policy.Change{
		Status: models.StatusInProcess,
		Round: &policy.RoundUpdate{
			Name:    req.RoundName,
			Date:    req.RoundDate,
			Status:  req.Status,
			Remarks: req.Remarks,
		},
		At: s.now().UTC(),
	}
	transition, err := s.sync.Apply(ctx, jobID, studentID, change, "")
	if err != nil {
		return nil, err
	}
	return transition.Application, nil
}

// MarkPlaced records the final selections of a drive.
func (s *DriveWorkflowService) MarkPlaced(ctx context.Context, jobID string, req dto.MarkPlacedRequest) (*dto.BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	entries := make(map[string]dto.PlacementEntry, len(req.Placements))
	ids := make([]string, 0, len(req.Placements))
	for _, entry := range req.Placements {
		if _, dup := entries[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student listed more than once: "+entry.StudentID)
		}
		entries[entry.StudentID] = entry
		ids = append(ids, entry.StudentID)
	}
	if _, err := s.openJob(ctx, jobID); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	result, err := s.batch(ctx, jobID, ids, func(studentID string) (policy.Change, string, error) {
		if err := checkOfferLimit(ctx, s.summaries, s.ladder, jobID, studentID); err != nil {
			if errors.Is(err, appErrors.ErrInvalidTransition) {
				return policy.Change{}, appErrors.FromError(err).Message, nil
			}
			return policy.Change{}, "", err
		}
		entry := entries[studentID]
		return policy.Change{
			Status:      models.StatusPlaced,
			PackageLPA:  entry.PackageLPA,
			JoiningDate: entry.JoiningDate,
			OfferLetter: entry.OfferLetter,
			At:          at,
		}, "", nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FinishDrive locks the drive. A second call fails with ErrDriveFinished and changes nothing.
func (s *DriveWorkflowService) FinishDrive(ctx context.Context, jobID, actorID string) (*dto.FinishDriveResult, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	if job.DriveFinished {
		return nil, appErrors.Clone(appErrors.ErrDriveFinished, "drive already finished")
	}

	at := s.now().UTC()
	placed, err := s.jobs.FinishDrive(ctx, jobID, actorID, at)
	if err != nil {
		mapped := mapStoreError(err, "failed to finish drive")
		if errors.Is(mapped, appErrors.ErrDriveFinished) {
			return nil, appErrors.Clone(appErrors.ErrDriveFinished, "drive already finished")
		}
		return nil, mapped
	}
	s.logger.Info("drive finished", zap.String("job_id", jobID), zap.String("actor_id", actorID), zap.Int("placed", placed))

	if s.notifier != nil {
		rows, err := s.applicants.ListApplicants(ctx, jobID, models.StatusPlaced)
		if err != nil {
			s.logger.Warn("list placed applicants for notification", zap.String("job_id", jobID), zap.Error(err))
		}
		for _, row := range rows {
			s.notifier.Notify(row.StudentID, models.TemplateDriveFinished, jobID, jobFields(job))
		}
	}
	return &dto.FinishDriveResult{JobID: jobID, PlacedCount: placed, FinishedAt: at, FinishedBy: actorID}, nil
}

// WorkflowStatus derives the drive overview without mutating anything.
func (s *DriveWorkflowService) WorkflowStatus(ctx context.Context, jobID string) (*dto.WorkflowStatus, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	counts, err := s.applicants.StatusCounts(ctx, jobID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count applications")
	}
	return &dto.WorkflowStatus{
		JobID:               job.ID,
		Title:               job.Title,
		CompanyName:         job.CompanyName,
		Category:            job.Category,
		Stage:               job.Stage,
		ApplicantsExported:  job.ApplicantsExported,
		ExportedAt:          job.ExportedAt,
		ShortlistReceived:   job.ShortlistReceived,
		ShortlistReceivedAt: job.ShortlistReceivedAt,
		DriveFinished:       job.DriveFinished,
		DriveFinishedAt:     job.DriveFinishedAt,
		DriveFinishedBy:     job.DriveFinishedBy,
		Counts:              counts,
	}, nil
}

// RecentPlacements lists drives finished within the configured window.
func (s *DriveWorkflowService) RecentPlacements(ctx context.Context) ([]models.RecentPlacement, error) {
	drives, err := s.jobs.ListFinishedSince(ctx, s.now().UTC().Add(-s.cfg.RecentWindow))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list recent placements")
	}
	return drives, nil
}

func (s *DriveWorkflowService) openJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	if job.DriveFinished {
		return nil, appErrors.Clone(appErrors.ErrDriveFinished, "")
	}
	return job, nil
}

type prepareFunc func(studentID string) (change policy.Change, skipReason string, err error)

// batch applies one change per student. Per-student refusals are reported as skipped;
// a locked drive or an infrastructure failure aborts the rest of the batch.
func (s *DriveWorkflowService) batch(ctx context.Context, jobID string, ids []string, prepare prepareFunc) (dto.BatchResult, error) {
	result := dto.NewBatchResult()
	for _, studentID := range ids {
		change, skip, err := prepare(studentID)
		if err != nil {
			return result, err
		}
		if skip != "" {
			result.Skipped = append(result.Skipped, dto.SkippedEntry{StudentID: studentID, Reason: skip})
			continue
		}

		transition, err := s.sync.Apply(ctx, jobID, studentID, change, "")
		switch {
		case err == nil && transition.Changed:
			result.Updated = append(result.Updated, studentID)
		case err == nil:
			result.Unchanged = append(result.Unchanged, studentID)
		case isNotFound(err) && appErrors.FromError(err).Message == msgApplicationNotFound:
			result.Skipped = append(result.Skipped, dto.SkippedEntry{StudentID: studentID, Reason: skipNotApplicant})
		case errors.Is(err, appErrors.ErrInvalidTransition):
			result.Skipped = append(result.Skipped, dto.SkippedEntry{StudentID: studentID, Reason: appErrors.FromError(err).Message})
		default:
			return result, err
		}
	}
	return result, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	var out []string
	for _, id := range b {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
