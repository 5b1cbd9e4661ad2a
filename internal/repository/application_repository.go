package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const applicationColumns = `id, job_id, student_id, status, current_round, is_selected, selection_date,
	package_lpa, joining_date, offer_letter, remarks, applied_at, shortlisted_at, rejected_at, placed_at,
	version, updated_at`

const appliedJobColumns = `student_id, job_id, status, current_round, package_lpa, joining_date, offer_letter,
	is_placed, applied_at, shortlisted_at, rejected_at, placed_at, version, updated_at`

// MutateFunc edits an application under the drive lock. It reports whether anything changed.
type MutateFunc func(job models.JobLock, app *models.Application) (bool, error)

// ApplicationRepository keeps the job-side and student-side copies of applications in step.
type ApplicationRepository struct {
	db        *sqlx.DB
	maxOffers int
}

// ApplicationRepositoryOption configures an ApplicationRepository.
type ApplicationRepositoryOption func(*ApplicationRepository)

// WithMaxOffers makes Mutate refuse a placement once the student already holds n
// placed offers on other jobs. Zero disables the check.
func WithMaxOffers(n int) ApplicationRepositoryOption {
	return func(r *ApplicationRepository) {
		r.maxOffers = n
	}
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB, opts ...ApplicationRepositoryOption) *ApplicationRepository {
	r := &ApplicationRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts both copies of a new application in one transaction.
// When the pair already exists the stored application is returned with created=false.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) (stored *models.Application, created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin create application: %w", err)
	}
	defer func() {
		if err != nil || !created {
			_ = tx.Rollback()
		}
	}()

	job, err := lockJob(ctx, tx, app.JobID)
	if err != nil {
		return nil, false, err
	}
	if job.DriveFinished {
		err = ErrDriveLocked
		return nil, false, err
	}

	if app.Version == 0 {
		app.Version = 1
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = app.AppliedAt
	}
	const insert = `INSERT INTO job_applicants (id, job_id, student_id, status, current_round, is_selected,
	selection_date, package_lpa, joining_date, offer_letter, remarks, applied_at, shortlisted_at, rejected_at,
	placed_at, version, updated_at)
	VALUES (:id, :job_id, :student_id, :status, :current_round, :is_selected, :selection_date, :package_lpa,
	:joining_date, :offer_letter, :remarks, :applied_at, :shortlisted_at, :rejected_at, :placed_at, :version, :updated_at)
	ON CONFLICT (job_id, student_id) DO NOTHING`
	res, err := tx.NamedExecContext(ctx, insert, app)
	if err != nil {
		return nil, false, fmt.Errorf("insert application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert application rows: %w", err)
	}
	if rows == 0 {
		existing, findErr := findApplication(ctx, tx, app.JobID, app.StudentID, false)
		if findErr != nil {
			err = findErr
			return nil, false, err
		}
		return existing, false, nil
	}

	if err = upsertStudentCopy(ctx, tx, app.StudentCopy()); err != nil {
		return nil, false, err
	}
	if err = upsertRounds(ctx, tx, app); err != nil {
		return nil, false, err
	}

	created = true
	if err = tx.Commit(); err != nil {
		created = false
		return nil, false, fmt.Errorf("commit create application: %w", err)
	}
	return app, true, nil
}

// Find returns the job-side application with its rounds.
func (r *ApplicationRepository) Find(ctx context.Context, jobID, studentID string) (*models.Application, error) {
	return findApplication(ctx, r.db, jobID, studentID, false)
}

// FindStudentCopy returns the student-side copy of an application.
func (r *ApplicationRepository) FindStudentCopy(ctx context.Context, jobID, studentID string) (*models.AppliedJob, error) {
	return findStudentCopy(ctx, r.db, jobID, studentID)
}

// Mutate loads an application under the drive lock and row lock, applies fn and
// writes both copies with a version check. Nothing is written when fn reports no change.
// A transition into placed takes a per-student lock and recounts the student's other
// categorized placements so concurrent placements on different jobs cannot pass the offer limit.
func (r *ApplicationRepository) Mutate(ctx context.Context, jobID, studentID string, fn MutateFunc) (app *models.Application, changed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin mutate application: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	job, err := lockJob(ctx, tx, jobID)
	if err != nil {
		return nil, false, err
	}
	if job.DriveFinished {
		return nil, false, ErrDriveLocked
	}

	app, err = findApplication(ctx, tx, jobID, studentID, true)
	if err != nil {
		return nil, false, err
	}

	previous, previousStatus := app.Version, app.Status
	changed, err = fn(job, app)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return app, false, nil
	}
	if app.Status == models.StatusPlaced && previousStatus != models.StatusPlaced {
		if err = r.guardOfferLimit(ctx, tx, jobID, studentID); err != nil {
			return nil, false, err
		}
	}

	app.Version = previous + 1
	const update = `UPDATE job_applicants SET status = $1, current_round = $2, is_selected = $3, selection_date = $4,
	package_lpa = $5, joining_date = $6, offer_letter = $7, remarks = $8, shortlisted_at = $9, rejected_at = $10,
	placed_at = $11, version = $12, updated_at = $13
	WHERE id = $14 AND version = $15`
	res, err := tx.ExecContext(ctx, update, app.Status, app.CurrentRound, app.IsSelected, app.SelectionDate,
		app.PackageLPA, app.JoiningDate, app.OfferLetter, app.Remarks, app.ShortlistedAt, app.RejectedAt,
		app.PlacedAt, app.Version, app.UpdatedAt, app.ID, previous)
	if err != nil {
		return nil, false, fmt.Errorf("update application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("update application rows: %w", err)
	}
	if rows == 0 {
		return nil, false, ErrVersionConflict
	}

	if err = upsertRounds(ctx, tx, app); err != nil {
		return nil, false, err
	}
	if err = upsertStudentCopy(ctx, tx, app.StudentCopy()); err != nil {
		return nil, false, err
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit mutate application: %w", err)
	}
	committed = true
	return app, true, nil
}

// ListApplicants returns the applicants of a job joined with their academic records.
// An empty status lists every applicant.
func (r *ApplicationRepository) ListApplicants(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.ApplicantRow, error) {
	query := `SELECT ja.student_id, COALESCE(s.full_name, '') AS full_name, COALESCE(s.email, '') AS email,
	COALESCE(s.usn, '') AS usn, COALESCE(s.department, '') AS department, COALESCE(s.year, 0) AS year,
	s.sem1_gpa, s.sem2_gpa, s.sem3_gpa, s.sem4_gpa, s.sem5_gpa, s.sem6_gpa, s.sem7_gpa, s.sem8_gpa,
	s.sslc_percentage, s.puc_percentage, COALESCE(s.active_backlogs, 0) AS active_backlogs, s.resume_url,
	ja.id AS application_id, ja.status, ja.current_round, ja.applied_at
	FROM job_applicants ja
	LEFT JOIN student_academic_records s ON s.student_id = ja.student_id
	WHERE ja.job_id = $1`
	args := []interface{}{jobID}
	if status != "" {
		query += ` AND ja.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY ja.applied_at, ja.student_id`

	var rows []models.ApplicantRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return rows, nil
}

// StatusCounts returns the application histogram of a job.
func (r *ApplicationRepository) StatusCounts(ctx context.Context, jobID string) (models.StatusCounts, error) {
	const query = `SELECT status, COUNT(*) AS total FROM job_applicants WHERE job_id = $1 GROUP BY status`
	var rows []struct {
		Status models.ApplicationStatus `db:"status"`
		Total  int                      `db:"total"`
	}
	var counts models.StatusCounts
	if err := r.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return counts, fmt.Errorf("count applications: %w", err)
	}
	for _, row := range rows {
		counts.Add(row.Status, row.Total)
	}
	return counts, nil
}

// PlacedOffers lists every placed application of a student with its job attributes.
func (r *ApplicationRepository) PlacedOffers(ctx context.Context, studentID string) ([]models.PlacedOffer, error) {
	const query = `SELECT ja.job_id, j.title, j.company_name, j.category, j.is_internship, j.has_conversion_option,
	ja.package_lpa, j.salary_lpa, ja.placed_at
	FROM job_applicants ja
	JOIN jobs j ON j.id = ja.job_id
	WHERE ja.student_id = $1 AND ja.status = 'placed'
	ORDER BY ja.placed_at`
	var offers []models.PlacedOffer
	if err := r.db.SelectContext(ctx, &offers, query, studentID); err != nil {
		return nil, fmt.Errorf("list placed offers: %w", err)
	}
	return offers, nil
}

// PruneStudent removes every application copy of a student.
func (r *ApplicationRepository) PruneStudent(ctx context.Context, studentID string) (applicants, applied int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin prune student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if applied, err = execCount(ctx, tx, `DELETE FROM student_applied_jobs WHERE student_id = $1`, studentID); err != nil {
		return 0, 0, fmt.Errorf("prune applied jobs: %w", err)
	}
	if applicants, err = execCount(ctx, tx, `DELETE FROM job_applicants WHERE student_id = $1`, studentID); err != nil {
		return 0, 0, fmt.Errorf("prune applicants: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit prune student: %w", err)
	}
	return applicants, applied, nil
}

// ScanDrift lists pairs whose student copy is missing, orphaned or out of step.
func (r *ApplicationRepository) ScanDrift(ctx context.Context, limit int) ([]models.SyncDrift, error) {
	const query = `SELECT job_id, student_id, kind FROM (
		SELECT ja.job_id::text AS job_id, ja.student_id,
			CASE WHEN sa.student_id IS NULL THEN 'missing_student_copy' ELSE 'diverged' END AS kind
		FROM job_applicants ja
		LEFT JOIN student_applied_jobs sa ON sa.job_id = ja.job_id AND sa.student_id = ja.student_id
		WHERE sa.student_id IS NULL
			OR sa.status <> ja.status
			OR sa.version <> ja.version
			OR sa.is_placed <> (ja.status = 'placed')
			OR sa.current_round IS DISTINCT FROM ja.current_round
			OR sa.package_lpa IS DISTINCT FROM ja.package_lpa
			OR sa.joining_date IS DISTINCT FROM ja.joining_date
			OR sa.offer_letter IS DISTINCT FROM ja.offer_letter
			OR sa.applied_at <> ja.applied_at
			OR sa.shortlisted_at IS DISTINCT FROM ja.shortlisted_at
			OR sa.rejected_at IS DISTINCT FROM ja.rejected_at
			OR sa.placed_at IS DISTINCT FROM ja.placed_at
		UNION ALL
		SELECT sa.job_id::text AS job_id, sa.student_id, 'orphan_student_copy' AS kind
		FROM student_applied_jobs sa
		LEFT JOIN job_applicants ja ON ja.job_id = sa.job_id AND ja.student_id = sa.student_id
		WHERE ja.id IS NULL
	) drift ORDER BY job_id, student_id LIMIT $1`
	var rows []struct {
		JobID     string           `db:"job_id"`
		StudentID string           `db:"student_id"`
		Kind      models.DriftKind `db:"kind"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("scan drift: %w", err)
	}
	drifts := make([]models.SyncDrift, 0, len(rows))
	for _, row := range rows {
		drifts = append(drifts, models.SyncDrift{JobID: row.JobID, StudentID: row.StudentID, Kind: row.Kind})
	}
	return drifts, nil
}

// Repair re-derives the student copy of a pair from the job copy, or removes an
// orphaned student copy. A student copy that already matches is left alone.
// It reports whether anything was written.
func (r *ApplicationRepository) Repair(ctx context.Context, jobID, studentID string) (repaired bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin repair: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	app, err := findApplication(ctx, tx, jobID, studentID, true)
	switch {
	case errors.Is(err, ErrApplicationNotFound):
		var removed int64
		if removed, err = execCount(ctx, tx, `DELETE FROM student_applied_jobs WHERE student_id = $1 AND job_id = $2`, studentID, jobID); err != nil {
			return false, fmt.Errorf("delete orphan applied job: %w", err)
		}
		repaired = removed > 0
	case err != nil:
		return false, err
	default:
		var current *models.AppliedJob
		current, err = findStudentCopy(ctx, tx, jobID, studentID)
		if err != nil && !errors.Is(err, ErrApplicationNotFound) {
			return false, err
		}
		if current == nil || len(current.Diverges(*app)) > 0 {
			if err = upsertStudentCopy(ctx, tx, app.StudentCopy()); err != nil {
				return false, err
			}
			repaired = true
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit repair: %w", err)
	}
	return repaired, nil
}

func (r *ApplicationRepository) guardOfferLimit(ctx context.Context, tx *sqlx.Tx, jobID, studentID string) error {
	if r.maxOffers <= 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, studentID); err != nil {
		return fmt.Errorf("lock student placements: %w", err)
	}
	const query = `SELECT COUNT(*) FROM job_applicants ja JOIN jobs j ON j.id = ja.job_id
	WHERE ja.student_id = $1 AND ja.status = 'placed' AND ja.job_id <> $2 AND j.category IS NOT NULL`
	var held int
	if err := tx.GetContext(ctx, &held, query, studentID, jobID); err != nil {
		return fmt.Errorf("count placed offers: %w", err)
	}
	if held >= r.maxOffers {
		return &OfferLimitError{Held: held, Limit: r.maxOffers}
	}
	return nil
}

func findStudentCopy(ctx context.Context, q queryer, jobID, studentID string) (*models.AppliedJob, error) {
	query := `SELECT ` + appliedJobColumns + ` FROM student_applied_jobs WHERE student_id = $1 AND job_id = $2`
	var applied models.AppliedJob
	if err := q.GetContext(ctx, &applied, query, studentID, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("get applied job: %w", err)
	}
	return &applied, nil
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func lockJob(ctx context.Context, tx *sqlx.Tx, jobID string) (models.JobLock, error) {
	const query = `SELECT id, title, company_name, drive_finished, placement_stage FROM jobs WHERE id = $1 FOR SHARE`
	var job models.JobLock
	if err := tx.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job, ErrJobNotFound
		}
		return job, fmt.Errorf("lock job: %w", err)
	}
	return job, nil
}

func findApplication(ctx context.Context, q queryer, jobID, studentID string, forUpdate bool) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM job_applicants WHERE job_id = $1 AND student_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var app models.Application
	if err := q.GetContext(ctx, &app, query, jobID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	const roundsQuery = `SELECT application_id, round_name, round_date, status, remarks, position, updated_at
	FROM application_rounds WHERE application_id = $1 ORDER BY position`
	app.Rounds = []models.InterviewRound{}
	if err := q.SelectContext(ctx, &app.Rounds, roundsQuery, app.ID); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return &app, nil
}

func upsertStudentCopy(ctx context.Context, tx *sqlx.Tx, applied models.AppliedJob) error {
	if applied.UpdatedAt.IsZero() {
		applied.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_applied_jobs (student_id, job_id, status, current_round, package_lpa,
	joining_date, offer_letter, is_placed, applied_at, shortlisted_at, rejected_at, placed_at, version, updated_at)
	VALUES (:student_id, :job_id, :status, :current_round, :package_lpa, :joining_date, :offer_letter, :is_placed,
	:applied_at, :shortlisted_at, :rejected_at, :placed_at, :version, :updated_at)
	ON CONFLICT (student_id, job_id) DO UPDATE SET status = EXCLUDED.status,
	current_round = EXCLUDED.current_round, package_lpa = EXCLUDED.package_lpa,
	joining_date = EXCLUDED.joining_date, offer_letter = EXCLUDED.offer_letter, is_placed = EXCLUDED.is_placed,
	applied_at = EXCLUDED.applied_at, shortlisted_at = EXCLUDED.shortlisted_at, rejected_at = EXCLUDED.rejected_at,
	placed_at = EXCLUDED.placed_at, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, query, applied); err != nil {
		return fmt.Errorf("upsert applied job: %w", err)
	}
	return nil
}

func upsertRounds(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
	const query = `INSERT INTO application_rounds (application_id, round_name, round_date, status, remarks, position, updated_at)
	VALUES (:application_id, :round_name, :round_date, :status, :remarks, :position, :updated_at)
	ON CONFLICT (application_id, round_name) DO UPDATE SET round_date = EXCLUDED.round_date,
	status = EXCLUDED.status, remarks = EXCLUDED.remarks, position = EXCLUDED.position, updated_at = EXCLUDED.updated_at`
	for i := range app.Rounds {
		round := app.Rounds[i]
		round.ApplicationID = app.ID
		if round.Position == 0 {
			round.Position = i + 1
		}
		if round.UpdatedAt.IsZero() {
			round.UpdatedAt = app.UpdatedAt
		}
		if _, err := tx.NamedExecContext(ctx, query, round); err != nil {
			return fmt.Errorf("upsert round %s: %w", round.Name, err)
		}
	}
	return nil
}
