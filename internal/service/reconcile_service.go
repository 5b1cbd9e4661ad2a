package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type driftStore interface {
	ScanDrift(ctx context.Context, limit int) ([]models.SyncDrift, error)
	Find(ctx context.Context, jobID, studentID string) (*models.Application, error)
	FindStudentCopy(ctx context.Context, jobID, studentID string) (*models.AppliedJob, error)
	Repair(ctx context.Context, jobID, studentID string) (bool, error)
}

// ReconcileConfig tunes the consistency check.
type ReconcileConfig struct {
	Interval   time.Duration
	BatchLimit int
}

// ReconcileService finds applications whose job-side and student-side copies disagree
// and re-derives the student copy from the job copy.
type ReconcileService struct {
	store     driftStore
	summaries summaryInvalidator
	metrics   *MetricsService
	cfg       ReconcileConfig
	logger    *zap.Logger
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(store driftStore, summaries summaryInvalidator, metrics *MetricsService, cfg ReconcileConfig, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 500
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	return &ReconcileService{store: store, summaries: summaries, metrics: metrics, cfg: cfg, logger: logger}
}

// Scan lists drifted pairs without modifying them.
func (s *ReconcileService) Scan(ctx context.Context) ([]models.SyncDrift, error) {
	drifts, err := s.store.ScanDrift(ctx, s.cfg.BatchLimit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to scan application copies")
	}
	for i := range drifts {
		d := &drifts[i]
		if d.Kind == models.DriftDiverged {
			d.Fields = s.divergedFields(ctx, d.JobID, d.StudentID)
		}
		s.metrics.RecordSyncDrift(d.Kind)
		s.logger.Warn("application copies drifted",
			zap.String("job_id", d.JobID),
			zap.String("student_id", d.StudentID),
			zap.String("kind", string(d.Kind)),
			zap.Strings("fields", d.Fields),
		)
	}
	return drifts, nil
}

func (s *ReconcileService) divergedFields(ctx context.Context, jobID, studentID string) []string {
	app, err := s.store.Find(ctx, jobID, studentID)
	if err != nil {
		return nil
	}
	applied, err := s.store.FindStudentCopy(ctx, jobID, studentID)
	if err != nil {
		return nil
	}
	return applied.Diverges(*app)
}

// Repair re-derives the student copy of one pair, or deletes it when the job copy is gone.
func (s *ReconcileService) Repair(ctx context.Context, jobID, studentID string) (bool, error) {
	repaired, err := s.store.Repair(ctx, jobID, studentID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to repair application")
	}
	if repaired {
		s.metrics.RecordSyncRepair()
		if s.summaries != nil {
			s.summaries.Invalidate(ctx, studentID)
		}
		s.logger.Info("application copies repaired", zap.String("job_id", jobID), zap.String("student_id", studentID))
	}
	return repaired, nil
}

// RunOnce scans for drift and, when repair is set, repairs every drifted pair.
func (s *ReconcileService) RunOnce(ctx context.Context, repair bool) (*dto.ReconcileReport, error) {
	drifts, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	report := &dto.ReconcileReport{
		Scanned: len(drifts),
		Drifts:  drifts,
		Failed:  []models.SyncDrift{},
	}
	if !repair {
		return report, nil
	}
	for _, d := range drifts {
		ok, err := s.Repair(ctx, d.JobID, d.StudentID)
		if err != nil {
			s.logger.Error("repair drifted application",
				zap.String("job_id", d.JobID),
				zap.String("student_id", d.StudentID),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, d)
			continue
		}
		if ok {
			report.Repaired++
		}
	}
	return report, nil
}

// Start runs RunOnce with repair on every interval until ctx is done.
func (s *ReconcileService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report, err := s.RunOnce(ctx, true)
				if err != nil {
					s.logger.Error("reconcile run failed", zap.Error(err))
					continue
				}
				if report.Scanned > 0 {
					s.logger.Info("reconcile run",
						zap.Int("drifts", report.Scanned),
						zap.Int("repaired", report.Repaired),
						zap.Int("failed", len(report.Failed)),
					)
				}
			}
		}
	}()
}
