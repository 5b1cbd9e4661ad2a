package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

const (
	lockJobQuery     = "FROM jobs WHERE id = $1 FOR SHARE"
	findAppQuery     = "FROM job_applicants WHERE job_id = $1 AND student_id = $2"
	findRoundsQuery  = "FROM application_rounds WHERE application_id = $1 ORDER BY position"
	upsertCopyPrefix = "INSERT INTO student_applied_jobs"
	findCopyQuery    = "FROM student_applied_jobs WHERE student_id = $1 AND job_id = $2"
	studentLockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"
	heldOffersQuery  = "SELECT COUNT(*) FROM job_applicants ja JOIN jobs j ON j.id = ja.job_id"
)

var appliedJobColumnNames = []string{"student_id", "job_id", "status", "current_round", "package_lpa", "joining_date",
	"offer_letter", "is_placed", "applied_at", "shortlisted_at", "rejected_at", "placed_at", "version", "updated_at"}

var applicationColumnNames = []string{"id", "job_id", "student_id", "status", "current_round", "is_selected",
	"selection_date", "package_lpa", "joining_date", "offer_letter", "remarks", "applied_at", "shortlisted_at",
	"rejected_at", "placed_at", "version", "updated_at"}

var roundColumnNames = []string{"application_id", "round_name", "round_date", "status", "remarks", "position", "updated_at"}

func jobLockRows(finished bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "company_name", "drive_finished", "placement_stage"}).
		AddRow("job-1", "SDE", "Acme", finished, "interviewing")
}

func applicationRows(status models.ApplicationStatus, version int64, appliedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(applicationColumnNames).
		AddRow("app-1", "job-1", "stu-1", string(status), nil, false,
			nil, nil, nil, nil, nil, appliedAt, nil,
			nil, nil, version, appliedAt)
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectExec("INSERT INTO job_applicants").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertCopyPrefix).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app := &models.Application{ID: "app-1", JobID: "job-1", StudentID: "stu-1", Status: models.StatusApplied, AppliedAt: at}
	stored, created, err := repo.Create(context.Background(), app)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 1, stored.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateExistingPair(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectExec("INSERT INTO job_applicants").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusShortlisted, 2, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectRollback()

	app := &models.Application{ID: "app-new", JobID: "job-1", StudentID: "stu-1", Status: models.StatusApplied, AppliedAt: at}
	stored, created, err := repo.Create(context.Background(), app)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "app-1", stored.ID)
	assert.Equal(t, models.StatusShortlisted, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateFinishedDrive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(true))
	mock.ExpectRollback()

	_, _, err := repo.Create(context.Background(), &models.Application{ID: "app-1", JobID: "job-1", StudentID: "stu-1", AppliedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDriveLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutateWritesBothCopies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery + " FOR UPDATE")).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusShortlisted, 3, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_applicants SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO application_rounds").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertCopyPrefix).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app, changed, err := repo.Mutate(context.Background(), "job-1", "stu-1", func(job models.JobLock, app *models.Application) (bool, error) {
		assert.Equal(t, "SDE", job.Title)
		app.Status = models.StatusInProcess
		app.Rounds = append(app.Rounds, models.InterviewRound{Name: "Technical", Status: models.RoundScheduled})
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.EqualValues(t, 4, app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutateNoChangeRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusShortlisted, 3, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectRollback()

	app, changed, err := repo.Mutate(context.Background(), "job-1", "stu-1", func(models.JobLock, *models.Application) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.EqualValues(t, 3, app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutateVersionConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusApplied, 1, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_applicants SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := repo.Mutate(context.Background(), "job-1", "stu-1", func(_ models.JobLock, app *models.Application) (bool, error) {
		app.Status = models.StatusRejected
		return true, nil
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutateRefusesFinishedDrive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(true))
	mock.ExpectRollback()

	called := false
	_, _, err := repo.Mutate(context.Background(), "job-1", "stu-1", func(models.JobLock, *models.Application) (bool, error) {
		called = true
		return true, nil
	})
	assert.ErrorIs(t, err, ErrDriveLocked)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutatePropagatesCallbackError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	boom := errors.New("refused")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusPlaced, 5, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectRollback()

	_, _, err := repo.Mutate(context.Background(), "job-1", "stu-1", func(models.JobLock, *models.Application) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM job_applicants WHERE job_id = $1 GROUP BY status")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("applied", 4).
			AddRow("placed", 2).
			AddRow("rejected", 1))

	counts, err := repo.StatusCounts(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Total: 7, Applied: 4, Placed: 2, Rejected: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListApplicantsByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	columns := append(append([]string{}, studentColumnNames...), "application_id", "status", "current_round", "applied_at")
	mock.ExpectQuery(regexp.QuoteMeta("AND ja.status = $2 ORDER BY ja.applied_at, ja.student_id")).
		WithArgs("job-1", models.StatusShortlisted).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("stu-1", "Asha", "asha@example.com", "1XX21CS001", "CSE", 4,
				nil, nil, nil, nil, nil, nil, nil, nil,
				"91", "88", 0, nil,
				"app-1", "shortlisted", nil, at))

	rows, err := repo.ListApplicants(context.Background(), "job-1", models.StatusShortlisted)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "app-1", rows[0].ApplicationID)
	_, ok := rows[0].CGPA()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryPlacedOffers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ja.student_id = $1 AND ja.status = 'placed'")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "title", "company_name", "category", "is_internship",
			"has_conversion_option", "package_lpa", "salary_lpa", "placed_at"}).
			AddRow("job-1", "SDE", "Acme", "core", false, false, "9", "9", at).
			AddRow("job-2", "Intern", "Beta", nil, true, true, nil, nil, at))

	offers, err := repo.PlacedOffers(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, models.CategoryCore, *offers[0].Category)
	assert.Nil(t, offers[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryScanDrift(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("drift ORDER BY job_id, student_id LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "student_id", "kind"}).
			AddRow("job-1", "stu-1", "missing_student_copy").
			AddRow("job-2", "stu-9", "orphan_student_copy"))

	drifts, err := repo.ScanDrift(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, drifts, 2)
	assert.Equal(t, models.DriftMissingStudentCopy, drifts[0].Kind)
	assert.Equal(t, models.DriftOrphanStudentCopy, drifts[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryRepairRemovesOrphan(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-2", "stu-9").
		WillReturnRows(sqlmock.NewRows(applicationColumnNames))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_applied_jobs WHERE student_id = $1 AND job_id = $2")).
		WithArgs("stu-9", "job-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repaired, err := repo.Repair(context.Background(), "job-2", "stu-9")
	require.NoError(t, err)
	assert.True(t, repaired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryRepairRederivesStudentCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusPlaced, 4, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta(findCopyQuery)).WithArgs("stu-1", "job-1").WillReturnRows(sqlmock.NewRows(appliedJobColumnNames))
	mock.ExpectExec(upsertCopyPrefix).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repaired, err := repo.Repair(context.Background(), "job-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, repaired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryRepairLeavesMatchingCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusShortlisted, 4, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta(findCopyQuery)).
		WithArgs("stu-1", "job-1").
		WillReturnRows(sqlmock.NewRows(appliedJobColumnNames).
			AddRow("stu-1", "job-1", string(models.StatusShortlisted), nil, nil, nil, nil, false, at, nil, nil, nil, int64(4), at))
	mock.ExpectCommit()

	repaired, err := repo.Repair(context.Background(), "job-1", "stu-1")
	require.NoError(t, err)
	assert.False(t, repaired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryRepairRewritesDivergedCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery)).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusShortlisted, 4, at))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta(findCopyQuery)).
		WithArgs("stu-1", "job-1").
		WillReturnRows(sqlmock.NewRows(appliedJobColumnNames).
			AddRow("stu-1", "job-1", string(models.StatusApplied), nil, nil, nil, nil, false, at, nil, nil, nil, int64(3), at))
	mock.ExpectExec(upsertCopyPrefix).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repaired, err := repo.Repair(context.Background(), "job-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, repaired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func placeApplication(_ models.JobLock, app *models.Application) (bool, error) {
	app.Status = models.StatusPlaced
	return true, nil
}

func TestApplicationRepositoryMutateRefusesPlacementOverOfferLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db, WithMaxOffers(2))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery + " FOR UPDATE")).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusInProcess, 5, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectExec(regexp.QuoteMeta(studentLockQuery)).WithArgs("stu-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(heldOffersQuery)).
		WithArgs("stu-1", "job-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, _, err := repo.Mutate(context.Background(), "job-1", "stu-1", placeApplication)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOfferLimitReached)
	var limitErr *OfferLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 2, limitErr.Held)
	assert.Equal(t, 2, limitErr.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMutatePlacesUnderOfferLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db, WithMaxOffers(2))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockJobQuery)).WithArgs("job-1").WillReturnRows(jobLockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(findAppQuery + " FOR UPDATE")).
		WithArgs("job-1", "stu-1").
		WillReturnRows(applicationRows(models.StatusInProcess, 5, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(findRoundsQuery)).WithArgs("app-1").WillReturnRows(sqlmock.NewRows(roundColumnNames))
	mock.ExpectExec(regexp.QuoteMeta(studentLockQuery)).WithArgs("stu-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(heldOffersQuery)).
		WithArgs("stu-1", "job-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_applicants SET status = $1")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertCopyPrefix).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app, changed, err := repo.Mutate(context.Background(), "job-1", "stu-1", placeApplication)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusPlaced, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryPruneStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_applied_jobs WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job_applicants WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	applicants, applied, err := repo.PruneStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, applicants)
	assert.EqualValues(t, 2, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
