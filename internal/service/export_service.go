package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/export"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

var applicantExportHeaders = []string{"S.No", "USN", "Name", "Email", "Department", "Year", "CGPA", "SSLC %", "PUC %", "Backlogs", "Resume", "Status"}

type exportJobRepository interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
	MarkExported(ctx context.Context, id string, at time.Time) error
}

type applicantLister interface {
	ListApplicants(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.ApplicantRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportFile is an opened export ready to stream.
type ExportFile struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportService renders applicant snapshots and stores them behind signed download tokens.
type ExportService struct {
	jobs       exportJobRepository
	applicants applicantLister
	storage    fileStorage
	signer     *storage.SignedURLSigner
	registry   *export.Registry
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService. A nil registry uses csv, xlsx and pdf renderers.
func NewExportService(jobs exportJobRepository, applicants applicantLister, files fileStorage, signer *storage.SignedURLSigner, registry *export.Registry, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if registry == nil {
		registry = export.DefaultRegistry()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		jobs:       jobs,
		applicants: applicants,
		storage:    files,
		signer:     signer,
		registry:   registry,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Export renders the applicants of a job filtered by status and returns a signed download URL.
// It stamps the job as exported and opens shortlisting on an open drive.
func (s *ExportService) Export(ctx context.Context, jobID string, req dto.ExportRequest) (*dto.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := export.Format(strings.ToLower(req.Format))
	if format == "" {
		format = export.FormatXLSX
	}
	renderer, err := s.registry.Lookup(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	var status models.ApplicationStatus
	if req.Status != "" && req.Status != "all" {
		status = models.ApplicationStatus(req.Status)
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, mapStoreError(err, "failed to load job")
	}
	rows, err := s.applicants.ListApplicants(ctx, jobID, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list applicants")
	}

	dataset := applicantDataset(job, rows)
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	now := s.now().UTC()
	filename := exportFilename(job, req.Status, format, now)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store export")
	}
	token, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign export")
	}

	if err := s.jobs.MarkExported(ctx, jobID, now); err != nil {
		s.logger.Warn("stamp job exported", zap.String("job_id", jobID), zap.Error(err))
	}
	s.logger.Info("applicants exported", zap.String("job_id", jobID), zap.String("format", string(format)), zap.Int("rows", len(rows)))

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &dto.ExportResult{
		JobID:       jobID,
		Format:      string(format),
		Filename:    filename,
		Rows:        len(rows),
		DownloadURL: fmt.Sprintf("%s/placement/exports/%s", prefix, token.Token),
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) (*ExportFile, error) {
	signed, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open export")
	}

	contentType := "application/octet-stream"
	ext := strings.TrimPrefix(filepath.Ext(signed.Path), ".")
	if renderer, err := s.registry.Lookup(export.Format(ext)); err == nil {
		contentType = renderer.ContentType()
	}
	return &ExportFile{File: file, Filename: filepath.Base(signed.Path), ContentType: contentType}, nil
}

// Cleanup removes files older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup removes stale exports every interval until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup(0)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("export cleanup", zap.Int("removed", len(removed)))
				}
			}
		}
	}()
}

func applicantDataset(job *models.Job, rows []models.ApplicantRow) export.Dataset {
	data := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		cgpa := "N/A"
		if v, ok := row.CGPA(); ok {
			cgpa = strconv.FormatFloat(v, 'f', 2, 64)
		}
		resume := "Not uploaded"
		if row.HasResume() {
			resume = *row.ResumeURL
		}
		data = append(data, map[string]string{
			"S.No":       strconv.Itoa(i + 1),
			"USN":        row.USN,
			"Name":       row.FullName,
			"Email":      row.Email,
			"Department": row.Department,
			"Year":       strconv.Itoa(row.Year),
			"CGPA":       cgpa,
			"SSLC %":     formatPercent(row.SSLCPercentage),
			"PUC %":      formatPercent(row.PUCPercentage),
			"Backlogs":   strconv.Itoa(row.ActiveBacklogs),
			"Resume":     resume,
			"Status":     string(row.Status),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s - %s applicants", job.CompanyName, job.Title),
		Headers: applicantExportHeaders,
		Rows:    data,
	}
}

func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func exportFilename(job *models.Job, status string, format export.Format, at time.Time) string {
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", sanitizeFilename(job.CompanyName), sanitizeFilename(job.Title), status, at.Format("20060102_150405"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
