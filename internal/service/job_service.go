package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type jobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id string) (*models.Job, error)
	CountApplicants(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) (int64, int64, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// JobServiceConfig configures job management.
type JobServiceConfig struct {
	SalaryBands policy.SalaryBands
	// LockCategoryOnApplicant refuses category changes once a job has applicants.
	LockCategoryOnApplicant bool
}

// JobService manages job postings.
type JobService struct {
	repo      jobRepository
	hierarchy policy.Hierarchy
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       JobServiceConfig
}

// NewJobService constructs the service. cache may be nil.
func NewJobService(repo jobRepository, hierarchy policy.Hierarchy, cache cacheInvalidator, validate *validator.Validate, cfg JobServiceConfig, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.SalaryBands == (policy.SalaryBands{}) {
		cfg.SalaryBands = policy.DefaultSalaryBands
	}
	return &JobService{repo: repo, hierarchy: hierarchy, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Create stores a new job and attaches the salary advisory verdict.
func (s *JobService) Create(ctx context.Context, req dto.JobRequest, actorID string) (*dto.JobResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	job := &models.Job{}
	applyJobRequest(job, req)
	if actorID != "" {
		job.CreatedBy = &actorID
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create job")
	}
	s.logger.Info("job created", zap.String("job_id", job.ID), zap.String("category", string(req.Category)))
	return &dto.JobResult{Job: job, SalaryAdvice: s.advise(job)}, nil
}

// Update rewrites a job that is not finished. Category changes are refused once applicants exist
// when the lock is enabled.
func (s *JobService) Update(ctx context.Context, id string, req dto.JobRequest) (*dto.JobResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	if job.DriveFinished {
		return nil, appErrors.Clone(appErrors.ErrDriveFinished, "")
	}

	categoryChanged := job.Category == nil || *job.Category != req.Category
	if categoryChanged && s.cfg.LockCategoryOnApplicant {
		count, err := s.repo.CountApplicants(ctx, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count applicants")
		}
		if count > 0 {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrCategoryLocked, ""), map[string]interface{}{
				"applicants": count,
			})
		}
	}

	applyJobRequest(job, req)
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, mapStoreError(err, "failed to update job")
	}
	if categoryChanged {
		s.flushSummaries(ctx)
	}
	return &dto.JobResult{Job: job, SalaryAdvice: s.advise(job)}, nil
}

// Get returns a job.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	return job, nil
}

// Delete removes a job and prunes it from every student's applied jobs.
func (s *JobService) Delete(ctx context.Context, id string) (*dto.JobDeleteResult, error) {
	applicants, applied, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to delete job")
	}
	s.flushSummaries(ctx)
	s.logger.Info("job deleted", zap.String("job_id", id), zap.Int64("applicants", applicants), zap.Int64("applied_jobs", applied))
	return &dto.JobDeleteResult{JobID: id, PrunedApplicants: applicants, PrunedAppliedJobs: applied}, nil
}

func (s *JobService) advise(job *models.Job) *policy.SalaryAdvice {
	if job.SalaryLPA == nil || job.Category == nil {
		return nil
	}
	advice := s.cfg.SalaryBands.Advise(s.hierarchy, *job.SalaryLPA, *job.Category)
	return &advice
}

func (s *JobService) flushSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, summaryCacheKey("*")); err != nil {
		s.logger.Warn("flush placement summaries", zap.Error(err))
	}
}

func applyJobRequest(job *models.Job, req dto.JobRequest) {
	category := req.Category
	job.Title = strings.TrimSpace(req.Title)
	job.CompanyName = strings.TrimSpace(req.CompanyName)
	job.SalaryLPA = req.SalaryLPA
	job.Category = &category
	job.IsInternship = req.IsInternship
	job.HasConversionOption = req.IsInternship && req.HasConversionOption
	job.EligibilityCriteria = models.EligibilityCriteria{
		MinSSLCPercentage: req.EligibilityCriteria.SSLCPercentage,
		MinPUCPercentage:  req.EligibilityCriteria.PUCPercentage,
		MinDegreeCGPA:     req.EligibilityCriteria.DegreeCGPA,
	}
	departments := make(pq.StringArray, 0, len(req.EligibleDepartments))
	for _, d := range req.EligibleDepartments {
		departments = append(departments, strings.ToUpper(strings.TrimSpace(d)))
	}
	job.EligibleDepartments = departments
	job.ApplicationDeadline = req.ApplicationDeadline
}
