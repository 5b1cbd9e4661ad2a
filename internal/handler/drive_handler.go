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

type driveWorkflow interface {
	Shortlist(ctx context.Context, jobID string, req dto.ShortlistRequest) (*dto.ShortlistResult, error)
	InterviewRound(ctx context.Context, jobID, studentID string, req dto.InterviewRoundRequest) (*models.Application, error)
	MarkPlaced(ctx context.Context, jobID string, req dto.MarkPlacedRequest) (*dto.BatchResult, error)
	FinishDrive(ctx context.Context, jobID, actorID string) (*dto.FinishDriveResult, error)
	WorkflowStatus(ctx context.Context, jobID string) (*dto.WorkflowStatus, error)
	RecentPlacements(ctx context.Context) ([]models.RecentPlacement, error)
}

// DriveHandler exposes the staff driven placement drive workflow.
type DriveHandler struct {
	drives driveWorkflow
}

// NewDriveHandler constructs the handler.
func NewDriveHandler(drives driveWorkflow) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// Shortlist godoc
// @Summary Apply a company shortlist
// @Tags Placement
// @Accept json
// @Produce json
// @Param jobId path string true "Job ID"
// @Param payload body dto.ShortlistRequest true "Shortlist payload"
// @Success 200 {object} response.Envelope
// @Router /placement/shortlist/{jobId} [post]
func (h *DriveHandler) Shortlist(c *gin.Context) {
	var req dto.ShortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.drives.Shortlist(c.Request.Context(), c.Param("jobId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "shortlisted", len(result.Shortlisted.Updated))
	middleware.SetMeta(c, "rejected", len(result.Rejected.Updated))
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// InterviewRound godoc
// @Summary Record an interview round
// @Tags Placement
// @Accept json
// @Produce json
// @Param jobId path string true "Job ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.InterviewRoundRequest true "Round payload"
// @Success 200 {object} response.Envelope
// @Router /placement/interview-round/{jobId}/{studentId} [post]
func (h *DriveHandler) InterviewRound(c *gin.Context) {
	var req dto.InterviewRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	app, err := h.drives.InterviewRound(c.Request.Context(), c.Param("jobId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, middleware.ExtractMeta(c))
}

// MarkPlaced godoc
// @Summary Mark selected students as placed
// @Tags Placement
// @Accept json
// @Produce json
// @Param jobId path string true "Job ID"
// @Param payload body dto.MarkPlacedRequest true "Placements"
// @Success 200 {object} response.Envelope
// @Router /placement/mark-placed/{jobId} [post]
func (h *DriveHandler) MarkPlaced(c *gin.Context) {
	var req dto.MarkPlacedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	result, err := h.drives.MarkPlaced(c.Request.Context(), c.Param("jobId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "placed", len(result.Updated))
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// FinishDrive godoc
// @Summary Finish a placement drive
// @Description Locks the drive permanently. A second call fails with 409.
// @Tags Placement
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placement/finish-drive/{jobId} [post]
func (h *DriveHandler) FinishDrive(c *gin.Context) {
	actor := actorID(c)
	if actor == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.drives.FinishDrive(c.Request.Context(), c.Param("jobId"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// WorkflowStatus godoc
// @Summary Drive workflow status
// @Tags Placement
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /placement/status/{jobId} [get]
func (h *DriveHandler) WorkflowStatus(c *gin.Context) {
	status, err := h.drives.WorkflowStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, middleware.ExtractMeta(c))
}

// Recent godoc
// @Summary Drives finished in the last day
// @Tags Placement
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /placement/recent [get]
func (h *DriveHandler) Recent(c *gin.Context) {
	recent, err := h.drives.RecentPlacements(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if recent == nil {
		recent = []models.RecentPlacement{}
	}
	middleware.SetMeta(c, "total", len(recent))
	response.JSON(c, http.StatusOK, recent, middleware.ExtractMeta(c))
}
