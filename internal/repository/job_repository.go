package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const jobColumns = `id, title, company_name, salary_lpa, category, is_internship, has_conversion_option,
	min_sslc_percentage, min_puc_percentage, min_degree_cgpa, eligible_departments, application_deadline,
	placement_stage, applicants_exported, exported_at, shortlist_received, shortlist_received_at,
	drive_finished, drive_finished_at, drive_finished_by, created_by, created_at, updated_at`

// JobRepository persists job postings and drive metadata.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Stage == "" {
		job.Stage = models.DriveStageOpen
	}
	if job.EligibleDepartments == nil {
		job.EligibleDepartments = pq.StringArray{}
	}
	const query = `INSERT INTO jobs (id, title, company_name, salary_lpa, category, is_internship, has_conversion_option,
	min_sslc_percentage, min_puc_percentage, min_degree_cgpa, eligible_departments, application_deadline,
	placement_stage, created_by, created_at, updated_at)
	VALUES (:id, :title, :company_name, :salary_lpa, :category, :is_internship, :has_conversion_option,
	:min_sslc_percentage, :min_puc_percentage, :min_degree_cgpa, :eligible_departments, :application_deadline,
	:placement_stage, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a job that is not finished.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now().UTC()
	if job.EligibleDepartments == nil {
		job.EligibleDepartments = pq.StringArray{}
	}
	const query = `UPDATE jobs SET title = :title, company_name = :company_name, salary_lpa = :salary_lpa,
	category = :category, is_internship = :is_internship, has_conversion_option = :has_conversion_option,
	min_sslc_percentage = :min_sslc_percentage, min_puc_percentage = :min_puc_percentage,
	min_degree_cgpa = :min_degree_cgpa, eligible_departments = :eligible_departments,
	application_deadline = :application_deadline, updated_at = :updated_at
	WHERE id = :id AND drive_finished = FALSE`
	res, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if rows == 0 {
		return r.missingOrLocked(ctx, job.ID)
	}
	return nil
}

// FindByID fetches a job.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// CountApplicants returns the number of applications of a job.
func (r *JobRepository) CountApplicants(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM job_applicants WHERE job_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return count, nil
}

// Delete removes a job and prunes both application copies in one transaction.
func (r *JobRepository) Delete(ctx context.Context, id string) (prunedApplicants, prunedApplied int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin delete job: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM jobs WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrJobNotFound
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("lock job: %w", err)
	}

	if prunedApplied, err = execCount(ctx, tx, `DELETE FROM student_applied_jobs WHERE job_id = $1`, id); err != nil {
		return 0, 0, fmt.Errorf("prune applied jobs: %w", err)
	}
	if prunedApplicants, err = execCount(ctx, tx, `DELETE FROM job_applicants WHERE job_id = $1`, id); err != nil {
		return 0, 0, fmt.Errorf("prune applicants: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return 0, 0, fmt.Errorf("delete job: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit delete job: %w", err)
	}
	return prunedApplicants, prunedApplied, nil
}

// MarkExported stamps export metadata and opens shortlisting on an open drive.
func (r *JobRepository) MarkExported(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE jobs SET applicants_exported = TRUE, exported_at = $2,
	placement_stage = CASE WHEN placement_stage = 'open' THEN 'shortlisting' ELSE placement_stage END,
	updated_at = $2
	WHERE id = $1 AND drive_finished = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark job exported: %w", err)
	}
	return nil
}

// MarkShortlistReceived records the company shortlist and moves the drive to interviewing.
func (r *JobRepository) MarkShortlistReceived(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE jobs SET shortlist_received = TRUE,
	shortlist_received_at = COALESCE(shortlist_received_at, $2),
	placement_stage = CASE WHEN placement_stage IN ('open', 'shortlisting') THEN 'interviewing' ELSE placement_stage END,
	updated_at = $2
	WHERE id = $1 AND drive_finished = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark shortlist received: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark shortlist rows: %w", err)
	}
	if rows == 0 {
		return r.missingOrLocked(ctx, id)
	}
	return nil
}

// FinishDrive locks the drive and returns the number of placed applicants.
// The job row lock serialises it with in-flight application transitions.
func (r *JobRepository) FinishDrive(ctx context.Context, id, actorID string, at time.Time) (placed int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin finish drive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var finished bool
	if err = tx.GetContext(ctx, &finished, `SELECT drive_finished FROM jobs WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrJobNotFound
			return 0, err
		}
		return 0, fmt.Errorf("lock job: %w", err)
	}
	if finished {
		err = ErrDriveLocked
		return 0, err
	}

	const update = `UPDATE jobs SET drive_finished = TRUE, drive_finished_at = $2, drive_finished_by = $3,
	placement_stage = 'completed', updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, at, actorID); err != nil {
		return 0, fmt.Errorf("finish drive: %w", err)
	}
	if err = tx.GetContext(ctx, &placed, `SELECT COUNT(*) FROM job_applicants WHERE job_id = $1 AND status = 'placed'`, id); err != nil {
		return 0, fmt.Errorf("count placed: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit finish drive: %w", err)
	}
	return placed, nil
}

// ListFinishedSince returns drives finished after since with their placed students.
func (r *JobRepository) ListFinishedSince(ctx context.Context, since time.Time) ([]models.RecentPlacement, error) {
	const jobsQuery = `SELECT id, title, company_name, category, drive_finished_at FROM jobs
	WHERE drive_finished = TRUE AND drive_finished_at >= $1 ORDER BY drive_finished_at DESC`
	var drives []models.RecentPlacement
	if err := r.db.SelectContext(ctx, &drives, jobsQuery, since); err != nil {
		return nil, fmt.Errorf("list finished drives: %w", err)
	}
	if len(drives) == 0 {
		return []models.RecentPlacement{}, nil
	}

	ids := make([]string, len(drives))
	for i, d := range drives {
		ids[i] = d.JobID
	}
	const studentsQuery = `SELECT ja.job_id, ja.student_id, COALESCE(s.full_name, '') AS full_name,
	COALESCE(s.usn, '') AS usn, COALESCE(s.department, '') AS department, ja.package_lpa, ja.joining_date
	FROM job_applicants ja
	LEFT JOIN student_academic_records s ON s.student_id = ja.student_id
	WHERE ja.job_id::text = ANY($1) AND ja.status = 'placed'
	ORDER BY s.full_name`
	var students []models.PlacedStudent
	if err := r.db.SelectContext(ctx, &students, studentsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list placed students: %w", err)
	}

	byJob := make(map[string]int, len(drives))
	for i := range drives {
		drives[i].Students = []models.PlacedStudent{}
		byJob[drives[i].JobID] = i
	}
	for _, s := range students {
		if i, ok := byJob[s.JobID]; ok {
			drives[i].Students = append(drives[i].Students, s)
		}
	}
	return drives, nil
}

func (r *JobRepository) missingOrLocked(ctx context.Context, id string) error {
	var finished bool
	if err := r.db.GetContext(ctx, &finished, `SELECT drive_finished FROM jobs WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrJobNotFound
		}
		return fmt.Errorf("check job: %w", err)
	}
	if finished {
		return ErrDriveLocked
	}
	return nil
}

func execCount(ctx context.Context, exec sqlx.ExecerContext, query string, args ...interface{}) (int64, error) {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
