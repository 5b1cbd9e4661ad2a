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

type applicationService interface {
	Apply(ctx context.Context, jobID, studentID string) (*dto.ApplyResult, error)
	CheckApplied(ctx context.Context, jobID, studentID string) (*dto.AppliedCheck, error)
	UpdateStatus(ctx context.Context, jobID, studentID string, req dto.UpdateStatusRequest) (*models.Application, error)
	PruneStudent(ctx context.Context, studentID string) (*dto.StudentPruneResult, error)
}

type placementStatusService interface {
	Status(ctx context.Context, studentID string) (*dto.PlacementStatus, error)
}

// ApplicationHandler exposes the student facing application endpoints.
type ApplicationHandler struct {
	applications applicationService
	status       placementStatusService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(applications applicationService, status placementStatusService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, status: status}
}

// Apply godoc
// @Summary Apply to a job
// @Description Evaluates the ladder policy and eligibility criteria, then records the application on both copies.
// @Tags Applications
// @Produce json
// @Param studentId path string true "Student ID"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{studentId}/jobs/{jobId}/apply [put]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	result, err := h.applications.Apply(c.Request.Context(), c.Param("jobId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	switch {
	case !result.Applied && (result.Decision != nil || result.Criteria != nil):
		response.Decision(c, result)
	case result.AlreadyApplied:
		response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
	default:
		response.Created(c, result, middleware.ExtractMeta(c))
	}
}

// CheckApplied godoc
// @Summary Check whether a student applied to a job
// @Tags Applications
// @Produce json
// @Param studentId path string true "Student ID"
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/jobs/{jobId}/applied [get]
func (h *ApplicationHandler) CheckApplied(c *gin.Context) {
	result, err := h.applications.CheckApplied(c.Request.Context(), c.Param("jobId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// PlacementStatus godoc
// @Summary Student placement status
// @Tags Applications
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/placement-status [get]
func (h *ApplicationHandler) PlacementStatus(c *gin.Context) {
	result, err := h.status.Status(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// UpdateStatus godoc
// @Summary Update application status
// @Tags Applications
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param jobId path string true "Job ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{studentId}/jobs/{jobId}/status [post]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	app, err := h.applications.UpdateStatus(c.Request.Context(), c.Param("jobId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, middleware.ExtractMeta(c))
}

// PruneStudent godoc
// @Summary Remove every application of a deleted student
// @Tags Applications
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /placement/students/{studentId}/applications [delete]
func (h *ApplicationHandler) PruneStudent(c *gin.Context) {
	result, err := h.applications.PruneStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
