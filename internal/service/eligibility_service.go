package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

// EligibilityService runs the eligible-applicant sweep of a drive.
type EligibilityService struct {
	jobs       jobReader
	applicants applicantReader
	sync       *ApplicationSynchronizer
	criteria   policy.CriteriaEvaluator
	logger     *zap.Logger
	now        func() time.Time
}

// NewEligibilityService constructs the service.
func NewEligibilityService(jobs jobReader, applicants applicantReader, sync *ApplicationSynchronizer, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		jobs:       jobs,
		applicants: applicants,
		sync:       sync,
		criteria:   policy.NewCriteriaEvaluator(),
		logger:     logger,
		now:        time.Now,
	}
}

// NotifyEligible shortlists every applied applicant whose record passes the job criteria.
// Applicants already past applied are left alone.
func (s *EligibilityService) NotifyEligible(ctx context.Context, jobID string) (*dto.EligibilitySweepResult, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	if job.DriveFinished {
		return nil, appErrors.Clone(appErrors.ErrDriveFinished, "")
	}

	rows, err := s.applicants.ListApplicants(ctx, jobID, models.StatusApplied)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list applicants")
	}

	result := &dto.EligibilitySweepResult{
		JobID:        jobID,
		TotalApplied: len(rows),
		Shortlisted:  []string{},
		Ineligible:   []dto.IneligibleEntry{},
		Skipped:      []dto.SkippedEntry{},
	}
	at := s.now().UTC()
	for _, row := range rows {
		verdict := s.criteria.Evaluate(row.StudentAcademicRecord, job.EligibilityCriteria, job.EligibleDepartments)
		if !verdict.Passed {
			result.Ineligible = append(result.Ineligible, dto.IneligibleEntry{StudentID: row.StudentID, FailedChecks: verdict.FailedChecks})
			continue
		}
		result.EligibleCount++

		change := policy.Change{Status: models.StatusShortlisted, At: at}
		transition, err := s.sync.Apply(ctx, jobID, row.StudentID, change, models.TemplateEligibleShortlisted)
		switch {
		case err == nil && transition.Changed:
			result.Shortlisted = append(result.Shortlisted, row.StudentID)
		case err == nil:
			result.Skipped = append(result.Skipped, dto.SkippedEntry{StudentID: row.StudentID, Reason: "already shortlisted"})
		case errors.Is(err, appErrors.ErrInvalidTransition), isNotFound(err):
			// Moved or withdrawn since the listing.
			result.Skipped = append(result.Skipped, dto.SkippedEntry{StudentID: row.StudentID, Reason: appErrors.FromError(err).Message})
		default:
			return nil, err
		}
	}

	s.logger.Info("eligibility sweep completed",
		zap.String("job_id", jobID),
		zap.Int("applied", result.TotalApplied),
		zap.Int("eligible", result.EligibleCount),
		zap.Int("shortlisted", len(result.Shortlisted)),
	)
	return result, nil
}
