package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type reconciler interface {
	RunOnce(ctx context.Context, repair bool) (*dto.ReconcileReport, error)
	Repair(ctx context.Context, jobID, studentID string) (bool, error)
}

// ReconcileHandler exposes the dual record consistency tooling.
type ReconcileHandler struct {
	reconcile reconciler
}

// NewReconcileHandler constructs the handler.
func NewReconcileHandler(reconcile reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile}
}

// RunOnce godoc
// @Summary Scan for drift between application copies
// @Tags Reconcile
// @Produce json
// @Param repair query bool false "Repair drifted pairs"
// @Success 200 {object} response.Envelope
// @Router /placement/reconcile [post]
func (h *ReconcileHandler) RunOnce(c *gin.Context) {
	repair := false
	if raw := c.Query("repair"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "repair must be a boolean"))
			return
		}
		repair = parsed
	}
	report, err := h.reconcile.RunOnce(c.Request.Context(), repair)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Repair godoc
// @Summary Repair one application pair
// @Tags Reconcile
// @Produce json
// @Param jobId path string true "Job ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /placement/repair/{jobId}/{studentId} [post]
func (h *ReconcileHandler) Repair(c *gin.Context) {
	jobID, studentID := c.Param("jobId"), c.Param("studentId")
	repaired, err := h.reconcile.Repair(c.Request.Context(), jobID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"jobId": jobID, "studentId": studentID, "repaired": repaired}, nil)
}
