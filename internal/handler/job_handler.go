package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type jobService interface {
	Create(ctx context.Context, req dto.JobRequest, actorID string) (*dto.JobResult, error)
	Update(ctx context.Context, id string, req dto.JobRequest) (*dto.JobResult, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) (*dto.JobDeleteResult, error)
}

type eligibilitySweeper interface {
	NotifyEligible(ctx context.Context, jobID string) (*dto.EligibilitySweepResult, error)
}

// JobHandler manages job postings.
type JobHandler struct {
	jobs        jobService
	eligibility eligibilitySweeper
}

// NewJobHandler constructs the handler.
func NewJobHandler(jobs jobService, eligibility eligibilitySweeper) *JobHandler {
	return &JobHandler{jobs: jobs, eligibility: eligibility}
}

// Create godoc
// @Summary Create job posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body dto.JobRequest true "Job payload"
// @Success 201 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.jobs.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.SalaryAdvice != nil && !result.SalaryAdvice.Valid {
		middleware.SetMeta(c, "salary_warning", result.SalaryAdvice.Message)
	}
	response.Created(c, result, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update job posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Param jobId path string true "Job ID"
// @Param payload body dto.JobRequest true "Job payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{jobId} [put]
func (h *JobHandler) Update(c *gin.Context) {
	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.jobs.Update(c.Request.Context(), c.Param("jobId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get job posting
// @Tags Jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{jobId} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Delete job posting and its applications
// @Tags Jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{jobId} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	result, err := h.jobs.Delete(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// NotifyEligible godoc
// @Summary Run the eligibility sweep for a job
// @Description Notifies eligible applicants and auto-shortlists them.
// @Tags Jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{jobId}/notify-eligible [post]
func (h *JobHandler) NotifyEligible(c *gin.Context) {
	result, err := h.eligibility.NotifyEligible(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}
