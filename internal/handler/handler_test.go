package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

type applicationServiceMock struct {
	applyResult *dto.ApplyResult
	applyErr    error
	statusReq   dto.UpdateStatusRequest
	pruned      string
	gotJob      string
	gotStudent  string
}

func (m *applicationServiceMock) Apply(ctx context.Context, jobID, studentID string) (*dto.ApplyResult, error) {
	m.gotJob, m.gotStudent = jobID, studentID
	return m.applyResult, m.applyErr
}

func (m *applicationServiceMock) CheckApplied(ctx context.Context, jobID, studentID string) (*dto.AppliedCheck, error) {
	return &dto.AppliedCheck{JobID: jobID, StudentID: studentID}, nil
}

func (m *applicationServiceMock) UpdateStatus(ctx context.Context, jobID, studentID string, req dto.UpdateStatusRequest) (*models.Application, error) {
	m.statusReq = req
	return &models.Application{JobID: jobID, StudentID: studentID, Status: req.Status}, nil
}

func (m *applicationServiceMock) PruneStudent(ctx context.Context, studentID string) (*dto.StudentPruneResult, error) {
	m.pruned = studentID
	return &dto.StudentPruneResult{StudentID: studentID, PrunedApplicants: 2, PrunedAppliedJobs: 2}, nil
}

type placementStatusMock struct{}

func (placementStatusMock) Status(ctx context.Context, studentID string) (*dto.PlacementStatus, error) {
	return &dto.PlacementStatus{StudentID: studentID, MaxOffers: 2, CanApplyTo: []models.Category{models.CategoryCore}}, nil
}

func TestApplicationHandlerApplyOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		result *dto.ApplyResult
		err    error
		status int
	}{
		{name: "created", result: &dto.ApplyResult{Applied: true, Application: &models.Application{ID: "app-1"}}, status: http.StatusCreated},
		{name: "already applied", result: &dto.ApplyResult{AlreadyApplied: true}, status: http.StatusOK},
		{name: "ladder refusal", result: &dto.ApplyResult{Decision: &policy.LadderDecision{Code: policy.DecisionCategoryNotHigher}}, status: http.StatusForbidden},
		{name: "criteria refusal", result: &dto.ApplyResult{Criteria: &policy.CriteriaResult{}}, status: http.StatusForbidden},
		{name: "drive finished", err: appErrors.ErrDriveFinished, status: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &applicationServiceMock{applyResult: tc.result, applyErr: tc.err}
			h := NewApplicationHandler(svc, placementStatusMock{})
			c, w := newGinContext(http.MethodPut, "/students/s-1/jobs/j-1/apply", nil)
			c.Params = gin.Params{{Key: "studentId", Value: "s-1"}, {Key: "jobId", Value: "j-1"}}

			h.Apply(c)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "j-1", svc.gotJob)
			assert.Equal(t, "s-1", svc.gotStudent)
		})
	}
}

func TestApplicationHandlerDecisionIsPayload(t *testing.T) {
	svc := &applicationServiceMock{applyResult: &dto.ApplyResult{
		Message:  "already holds an equal or higher offer",
		Decision: &policy.LadderDecision{Code: policy.DecisionCategoryNotHigher, Reason: "blocked"},
	}}
	h := NewApplicationHandler(svc, placementStatusMock{})
	c, w := newGinContext(http.MethodPut, "/students/s-1/jobs/j-1/apply", nil)

	h.Apply(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decodeEnvelope(t, w)
	assert.Nil(t, body["error"])
	data := body["data"].(map[string]interface{})
	decision := data["decision"].(map[string]interface{})
	assert.Equal(t, "category_not_higher", decision["code"])
}

func TestApplicationHandlerUpdateStatus(t *testing.T) {
	svc := &applicationServiceMock{}
	h := NewApplicationHandler(svc, placementStatusMock{})

	c, w := newGinContext(http.MethodPost, "/students/s-1/jobs/j-1/status", []byte(`{"status":"shortlisted"}`))
	c.Params = gin.Params{{Key: "studentId", Value: "s-1"}, {Key: "jobId", Value: "j-1"}}
	h.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusShortlisted, svc.statusReq.Status)

	c, w = newGinContext(http.MethodPost, "/students/s-1/jobs/j-1/status", []byte(`{"status":`))
	h.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandlerReadsAndPrune(t *testing.T) {
	svc := &applicationServiceMock{}
	h := NewApplicationHandler(svc, placementStatusMock{})

	c, w := newGinContext(http.MethodGet, "/students/s-1/placement-status", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "s-1"}}
	h.PlacementStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", decodeEnvelope(t, w)["data"].(map[string]interface{})["studentId"])

	c, w = newGinContext(http.MethodGet, "/students/s-1/jobs/j-1/applied", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "s-1"}, {Key: "jobId", Value: "j-1"}}
	h.CheckApplied(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodDelete, "/placement/students/s-1/applications", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "s-1"}}
	h.PruneStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", svc.pruned)
}

type jobServiceMock struct {
	actor   string
	updated string
	getErr  error
}

func (m *jobServiceMock) Create(ctx context.Context, req dto.JobRequest, actorID string) (*dto.JobResult, error) {
	m.actor = actorID
	return &dto.JobResult{
		Job:          &models.Job{ID: "j-1", Title: req.Title},
		SalaryAdvice: &policy.SalaryAdvice{Valid: false, Suggested: models.CategoryDream, Message: "salary suggests dream"},
	}, nil
}

func (m *jobServiceMock) Update(ctx context.Context, id string, req dto.JobRequest) (*dto.JobResult, error) {
	m.updated = id
	return nil, appErrors.ErrCategoryLocked
}

func (m *jobServiceMock) Get(ctx context.Context, id string) (*models.Job, error) {
	return nil, m.getErr
}

func (m *jobServiceMock) Delete(ctx context.Context, id string) (*dto.JobDeleteResult, error) {
	return &dto.JobDeleteResult{JobID: id, PrunedApplicants: 3, PrunedAppliedJobs: 3}, nil
}

type sweeperMock struct{ jobID string }

func (m *sweeperMock) NotifyEligible(ctx context.Context, jobID string) (*dto.EligibilitySweepResult, error) {
	m.jobID = jobID
	return &dto.EligibilitySweepResult{JobID: jobID, Shortlisted: []string{"s-1"}}, nil
}

func TestJobHandlerCreateCarriesActorAndWarning(t *testing.T) {
	svc := &jobServiceMock{}
	h := NewJobHandler(svc, &sweeperMock{})
	payload := []byte(`{"title":"SDE","companyName":"Acme","salary":14,"jobCategory":"core"}`)

	c, w := newGinContext(http.MethodPost, "/jobs", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tpo-1", Role: models.RoleTPO})
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tpo-1", svc.actor)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, "salary suggests dream", meta["salary_warning"])
}

func TestJobHandlerErrorsAndSweep(t *testing.T) {
	svc := &jobServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "job not found")}
	sweeper := &sweeperMock{}
	h := NewJobHandler(svc, sweeper)

	c, w := newGinContext(http.MethodPut, "/jobs/j-1", []byte(`{"title":"SDE","companyName":"Acme","jobCategory":"dream"}`))
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.Update(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "j-1", svc.updated)

	c, w = newGinContext(http.MethodGet, "/jobs/missing", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodPost, "/jobs/j-1/notify-eligible", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.NotifyEligible(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "j-1", sweeper.jobID)

	c, w = newGinContext(http.MethodDelete, "/jobs/j-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.Delete(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

type driveMock struct {
	finishedBy string
	finishErr  error
	shortlist  dto.ShortlistRequest
}

func (m *driveMock) Shortlist(ctx context.Context, jobID string, req dto.ShortlistRequest) (*dto.ShortlistResult, error) {
	m.shortlist = req
	result := &dto.ShortlistResult{JobID: jobID, Shortlisted: dto.NewBatchResult(), Rejected: dto.NewBatchResult()}
	result.Shortlisted.Updated = req.ShortlistedStudentIDs
	return result, nil
}

func (m *driveMock) InterviewRound(ctx context.Context, jobID, studentID string, req dto.InterviewRoundRequest) (*models.Application, error) {
	return &models.Application{JobID: jobID, StudentID: studentID, CurrentRound: &req.RoundName}, nil
}

func (m *driveMock) MarkPlaced(ctx context.Context, jobID string, req dto.MarkPlacedRequest) (*dto.BatchResult, error) {
	result := dto.NewBatchResult()
	for _, p := range req.Placements {
		result.Updated = append(result.Updated, p.StudentID)
	}
	return &result, nil
}

func (m *driveMock) FinishDrive(ctx context.Context, jobID, actorID string) (*dto.FinishDriveResult, error) {
	if m.finishErr != nil {
		return nil, m.finishErr
	}
	m.finishedBy = actorID
	return &dto.FinishDriveResult{JobID: jobID, FinishedBy: actorID, FinishedAt: time.Now()}, nil
}

func (m *driveMock) WorkflowStatus(ctx context.Context, jobID string) (*dto.WorkflowStatus, error) {
	return &dto.WorkflowStatus{JobID: jobID, Stage: models.DriveStageInterviewing}, nil
}

func (m *driveMock) RecentPlacements(ctx context.Context) ([]models.RecentPlacement, error) {
	return nil, nil
}

func TestDriveHandlerShortlistAndMarkPlaced(t *testing.T) {
	svc := &driveMock{}
	h := NewDriveHandler(svc)

	c, w := newGinContext(http.MethodPost, "/placement/shortlist/j-1", []byte(`{"shortlistedStudents":["a","b"],"rejectedStudents":["c"]}`))
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.Shortlist(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"c"}, svc.shortlist.RejectedStudentIDs)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.EqualValues(t, 2, meta["shortlisted"])

	c, w = newGinContext(http.MethodPost, "/placement/mark-placed/j-1", []byte(`{"placements":[{"studentId":"a","package":12.5}]}`))
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.MarkPlaced(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodPost, "/placement/interview-round/j-1/a", []byte(`{"roundName":"HR"}`))
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}, {Key: "studentId", Value: "a"}}
	h.InterviewRound(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDriveHandlerFinishDrive(t *testing.T) {
	svc := &driveMock{}
	h := NewDriveHandler(svc)

	c, w := newGinContext(http.MethodPost, "/placement/finish-drive/j-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.FinishDrive(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodPost, "/placement/finish-drive/j-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tpo-9", Role: models.RoleTPO})
	h.FinishDrive(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tpo-9", svc.finishedBy)

	svc.finishErr = appErrors.ErrDriveFinished
	c, w = newGinContext(http.MethodPost, "/placement/finish-drive/j-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tpo-9", Role: models.RoleTPO})
	h.FinishDrive(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDriveHandlerRecentReturnsEmptyList(t *testing.T) {
	h := NewDriveHandler(&driveMock{})
	c, w := newGinContext(http.MethodGet, "/placement/recent", nil)
	h.Recent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decodeEnvelope(t, w)["data"])
}

type exportMock struct {
	req  dto.ExportRequest
	path string
}

func (m *exportMock) Export(ctx context.Context, jobID string, req dto.ExportRequest) (*dto.ExportResult, error) {
	m.req = req
	return &dto.ExportResult{JobID: jobID, Format: req.Format, DownloadURL: "/api/v1/placement/exports/tok"}, nil
}

func (m *exportMock) Download(token string) (*service.ExportFile, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportFile{File: f, Filename: "Acme_SDE_all.csv", ContentType: "text/csv"}, nil
}

func TestExportHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("S.No,USN\n1,1XX21a\n"), 0o600))
	svc := &exportMock{path: path}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/placement/export/j-1?status=placed&format=csv", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}}
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportRequest{Status: "placed", Format: "csv"}, svc.req)

	c, w = newGinContext(http.MethodGet, "/placement/exports/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Acme_SDE_all.csv")
	assert.Contains(t, w.Body.String(), "1XX21a")

	c, w = newGinContext(http.MethodGet, "/placement/exports/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type reconcilerMock struct{ repair bool }

func (m *reconcilerMock) RunOnce(ctx context.Context, repair bool) (*dto.ReconcileReport, error) {
	m.repair = repair
	return &dto.ReconcileReport{Drifts: []models.SyncDrift{}, Failed: []models.SyncDrift{}}, nil
}

func (m *reconcilerMock) Repair(ctx context.Context, jobID, studentID string) (bool, error) {
	return true, nil
}

func TestReconcileHandler(t *testing.T) {
	svc := &reconcilerMock{}
	h := NewReconcileHandler(svc)

	c, w := newGinContext(http.MethodPost, "/placement/reconcile?repair=true", nil)
	h.RunOnce(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.repair)

	c, w = newGinContext(http.MethodPost, "/placement/reconcile?repair=maybe", nil)
	h.RunOnce(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/placement/repair/j-1/s-1", nil)
	c.Params = gin.Params{{Key: "jobId", Value: "j-1"}, {Key: "studentId", Value: "s-1"}}
	h.Repair(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeEnvelope(t, w)["data"].(map[string]interface{})["repaired"])
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return context.DeadlineExceeded }),
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
