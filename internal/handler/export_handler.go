package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, jobID string, req dto.ExportRequest) (*dto.ExportResult, error)
	Download(token string) (*service.ExportFile, error)
}

// ExportHandler serves applicant exports.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export applicants of a drive
// @Tags Placement
// @Produce json
// @Param jobId path string true "Job ID"
// @Param status query string false "Status filter or all"
// @Param format query string false "csv, xlsx or pdf"
// @Success 200 {object} response.Envelope
// @Router /placement/export/{jobId} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), c.Param("jobId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download an export through its signed link
// @Tags Placement
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /placement/exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.exports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close()

	info, err := file.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read export"))
		return
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Filename),
	}
	c.DataFromReader(http.StatusOK, info.Size(), file.ContentType, file.File, headers)
}
