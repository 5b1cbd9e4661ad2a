package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// ErrStudentNotFound is returned when no academic record exists for a student.
var ErrStudentNotFound = errors.New("student not found")

// StudentRepository reads the academic records maintained by the profile service.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindAcademicRecord returns the academic record of a student.
func (r *StudentRepository) FindAcademicRecord(ctx context.Context, studentID string) (*models.StudentAcademicRecord, error) {
	const query = `SELECT student_id, full_name, email, usn, department, year,
	sem1_gpa, sem2_gpa, sem3_gpa, sem4_gpa, sem5_gpa, sem6_gpa, sem7_gpa, sem8_gpa,
	sslc_percentage, puc_percentage, active_backlogs, resume_url
	FROM student_academic_records WHERE student_id = $1`
	var rec models.StudentAcademicRecord
	if err := r.db.GetContext(ctx, &rec, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get academic record: %w", err)
	}
	return &rec, nil
}
