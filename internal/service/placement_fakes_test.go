package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	"github.com/noah-isme/campus-placement-api/internal/repository"
)

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func ptrCategory(c models.Category) *models.Category { return &c }

type memJobs struct {
	mu        sync.Mutex
	items     map[string]*models.Job
	finishErr error
	finished  []string
	counts    map[string]int
}

func newMemJobs(jobs ...models.Job) *memJobs {
	m := &memJobs{items: make(map[string]*models.Job)}
	for i := range jobs {
		job := jobs[i]
		if job.Stage == "" {
			job.Stage = models.DriveStageOpen
		}
		m.items[job.ID] = &job
	}
	return m
}

func (m *memJobs) get(id string) (models.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

func (m *memJobs) Create(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = "generated"
	}
	if job.Stage == "" {
		job.Stage = models.DriveStageOpen
	}
	cp := *job
	m.items[job.ID] = &cp
	return nil
}

func (m *memJobs) Update(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[job.ID]
	if !ok {
		return repository.ErrJobNotFound
	}
	if current.DriveFinished {
		return repository.ErrDriveLocked
	}
	cp := *job
	m.items[job.ID] = &cp
	return nil
}

func (m *memJobs) FindByID(ctx context.Context, id string) (*models.Job, error) {
	job, ok := m.get(id)
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

func (m *memJobs) MarkExported(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	if job.DriveFinished {
		return repository.ErrDriveLocked
	}
	job.ApplicantsExported = true
	job.ExportedAt = &at
	if job.Stage == models.DriveStageOpen {
		job.Stage = models.DriveStageShortlisting
	}
	return nil
}

func (m *memJobs) MarkShortlistReceived(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	if job.DriveFinished {
		return repository.ErrDriveLocked
	}
	job.ShortlistReceived = true
	job.ShortlistReceivedAt = &at
	if job.Stage == models.DriveStageOpen || job.Stage == models.DriveStageShortlisting {
		job.Stage = models.DriveStageInterviewing
	}
	return nil
}

func (m *memJobs) FinishDrive(ctx context.Context, id, actorID string, at time.Time) (int, error) {
	if m.finishErr != nil {
		return 0, m.finishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return 0, repository.ErrJobNotFound
	}
	if job.DriveFinished {
		return 0, repository.ErrDriveLocked
	}
	job.DriveFinished = true
	job.DriveFinishedAt = &at
	job.DriveFinishedBy = &actorID
	job.Stage = models.DriveStageCompleted
	m.finished = append(m.finished, id)
	return 0, nil
}

func (m *memJobs) ListFinishedSince(ctx context.Context, since time.Time) ([]models.RecentPlacement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecentPlacement
	for _, job := range m.items {
		if job.DriveFinished && job.DriveFinishedAt != nil && !job.DriveFinishedAt.Before(since) {
			out = append(out, models.RecentPlacement{
				JobID:           job.ID,
				Title:           job.Title,
				CompanyName:     job.CompanyName,
				Category:        job.Category,
				DriveFinishedAt: *job.DriveFinishedAt,
				Students:        []models.PlacedStudent{},
			})
		}
	}
	return out, nil
}

func (m *memJobs) CountApplicants(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[id], nil
}

func (m *memJobs) Delete(ctx context.Context, id string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return 0, 0, repository.ErrJobNotFound
	}
	delete(m.items, id)
	return 0, 0, nil
}

type memStudents struct {
	records map[string]models.StudentAcademicRecord
}

func newMemStudents(records ...models.StudentAcademicRecord) *memStudents {
	m := &memStudents{records: make(map[string]models.StudentAcademicRecord)}
	for _, r := range records {
		m.records[r.StudentID] = r
	}
	return m
}

func (m *memStudents) FindAcademicRecord(ctx context.Context, studentID string) (*models.StudentAcademicRecord, error) {
	rec, ok := m.records[studentID]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	return &rec, nil
}

type pairKey struct{ jobID, studentID string }

// memApplications keeps both copies of every application the way the SQL repository does.
type memApplications struct {
	mu        sync.Mutex
	jobs      *memJobs
	students  *memStudents
	apps      map[pairKey]*models.Application
	copies    map[pairKey]*models.AppliedJob
	conflicts int
	mutations int
	maxOffers int
}

func newMemApplications(jobs *memJobs, students *memStudents) *memApplications {
	return &memApplications{
		jobs:     jobs,
		students: students,
		apps:     make(map[pairKey]*models.Application),
		copies:   make(map[pairKey]*models.AppliedJob),
	}
}

func cloneApplication(app *models.Application) *models.Application {
	cp := *app
	cp.Rounds = append([]models.InterviewRound(nil), app.Rounds...)
	return &cp
}

func (m *memApplications) seed(app models.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.Version == 0 {
		app.Version = 1
	}
	key := pairKey{app.JobID, app.StudentID}
	m.apps[key] = cloneApplication(&app)
	applied := app.StudentCopy()
	m.copies[key] = &applied
}

func (m *memApplications) lock(jobID string) (models.JobLock, error) {
	job, ok := m.jobs.get(jobID)
	if !ok {
		return models.JobLock{}, repository.ErrJobNotFound
	}
	if job.DriveFinished {
		return models.JobLock{}, repository.ErrDriveLocked
	}
	return models.JobLock{ID: job.ID, Title: job.Title, CompanyName: job.CompanyName, Stage: job.Stage}, nil
}

func (m *memApplications) Create(ctx context.Context, app *models.Application) (*models.Application, bool, error) {
	if _, err := m.lock(app.JobID); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{app.JobID, app.StudentID}
	if existing, ok := m.apps[key]; ok {
		return cloneApplication(existing), false, nil
	}
	m.apps[key] = cloneApplication(app)
	applied := app.StudentCopy()
	m.copies[key] = &applied
	return cloneApplication(app), true, nil
}

func (m *memApplications) Find(ctx context.Context, jobID, studentID string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[pairKey{jobID, studentID}]
	if !ok {
		return nil, repository.ErrApplicationNotFound
	}
	return cloneApplication(app), nil
}

func (m *memApplications) FindStudentCopy(ctx context.Context, jobID, studentID string) (*models.AppliedJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied, ok := m.copies[pairKey{jobID, studentID}]
	if !ok {
		return nil, repository.ErrApplicationNotFound
	}
	cp := *applied
	return &cp, nil
}

func (m *memApplications) Mutate(ctx context.Context, jobID, studentID string, fn repository.MutateFunc) (*models.Application, bool, error) {
	job, err := m.lock(jobID)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	key := pairKey{jobID, studentID}
	stored, ok := m.apps[key]
	if !ok {
		return nil, false, repository.ErrApplicationNotFound
	}
	app := cloneApplication(stored)
	changed, err := fn(job, app)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return app, false, nil
	}
	if m.maxOffers > 0 && app.Status == models.StatusPlaced && stored.Status != models.StatusPlaced {
		held := 0
		for other, placed := range m.apps {
			if other.studentID != studentID || other.jobID == jobID || placed.Status != models.StatusPlaced {
				continue
			}
			if job, _ := m.jobs.get(other.jobID); job.Category != nil {
				held++
			}
		}
		if held >= m.maxOffers {
			return nil, false, &repository.OfferLimitError{Held: held, Limit: m.maxOffers}
		}
	}
	if m.conflicts > 0 {
		m.conflicts--
		return nil, false, repository.ErrVersionConflict
	}
	app.Version = stored.Version + 1
	m.apps[key] = cloneApplication(app)
	applied := app.StudentCopy()
	m.copies[key] = &applied
	return app, true, nil
}

func (m *memApplications) ListApplicants(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.ApplicantRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.ApplicantRow
	for key, app := range m.apps {
		if key.jobID != jobID || (status != "" && app.Status != status) {
			continue
		}
		row := models.ApplicantRow{ApplicationID: app.ID, Status: app.Status, CurrentRound: app.CurrentRound, AppliedAt: app.AppliedAt}
		if m.students != nil {
			row.StudentAcademicRecord = m.students.records[key.studentID]
		}
		row.StudentID = key.studentID
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })
	return rows, nil
}

func (m *memApplications) StatusCounts(ctx context.Context, jobID string) (models.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts models.StatusCounts
	for key, app := range m.apps {
		if key.jobID == jobID {
			counts.Add(app.Status, 1)
		}
	}
	return counts, nil
}

func (m *memApplications) PlacedOffers(ctx context.Context, studentID string) ([]models.PlacedOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var offers []models.PlacedOffer
	for key, app := range m.apps {
		if key.studentID != studentID || app.Status != models.StatusPlaced {
			continue
		}
		job, _ := m.jobs.get(key.jobID)
		offers = append(offers, models.PlacedOffer{
			JobID:               job.ID,
			JobTitle:            job.Title,
			CompanyName:         job.CompanyName,
			Category:            job.Category,
			IsInternship:        job.IsInternship,
			HasConversionOption: job.HasConversionOption,
			PackageLPA:          app.PackageLPA,
			PlacedAt:            app.PlacedAt,
		})
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].JobID < offers[j].JobID })
	return offers, nil
}

func (m *memApplications) PruneStudent(ctx context.Context, studentID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var applicants, applied int64
	for key := range m.apps {
		if key.studentID == studentID {
			delete(m.apps, key)
			applicants++
		}
	}
	for key := range m.copies {
		if key.studentID == studentID {
			delete(m.copies, key)
			applied++
		}
	}
	return applicants, applied, nil
}

func (m *memApplications) ScanDrift(ctx context.Context, limit int) ([]models.SyncDrift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var drifts []models.SyncDrift
	for key, app := range m.apps {
		applied, ok := m.copies[key]
		switch {
		case !ok:
			drifts = append(drifts, models.SyncDrift{JobID: key.jobID, StudentID: key.studentID, Kind: models.DriftMissingStudentCopy})
		case len(applied.Diverges(*app)) > 0:
			drifts = append(drifts, models.SyncDrift{JobID: key.jobID, StudentID: key.studentID, Kind: models.DriftDiverged})
		}
	}
	for key := range m.copies {
		if _, ok := m.apps[key]; !ok {
			drifts = append(drifts, models.SyncDrift{JobID: key.jobID, StudentID: key.studentID, Kind: models.DriftOrphanStudentCopy})
		}
	}
	sort.Slice(drifts, func(i, j int) bool {
		if drifts[i].JobID != drifts[j].JobID {
			return drifts[i].JobID < drifts[j].JobID
		}
		return drifts[i].StudentID < drifts[j].StudentID
	})
	if limit > 0 && len(drifts) > limit {
		drifts = drifts[:limit]
	}
	return drifts, nil
}

func (m *memApplications) Repair(ctx context.Context, jobID, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{jobID, studentID}
	app, ok := m.apps[key]
	if !ok {
		_, had := m.copies[key]
		delete(m.copies, key)
		return had, nil
	}
	if current, ok := m.copies[key]; ok && len(current.Diverges(*app)) == 0 {
		return false, nil
	}
	applied := app.StudentCopy()
	m.copies[key] = &applied
	return true, nil
}

type sentNotification struct {
	recipient string
	template  models.NotificationTemplate
	jobID     string
	fields    map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(recipientID string, template models.NotificationTemplate, jobID string, fields map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipient: recipientID, template: template, jobID: jobID, fields: fields})
}

func (n *recordingNotifier) templatesFor(recipient string) []models.NotificationTemplate {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.NotificationTemplate
	for _, s := range n.sent {
		if s.recipient == recipient {
			out = append(out, s.template)
		}
	}
	return out
}

type placementFixture struct {
	jobs      *memJobs
	students  *memStudents
	apps      *memApplications
	notifier  *recordingNotifier
	summaries *PlacementStatusService
	ladder    *policy.LadderEvaluator
	sync      *ApplicationSynchronizer
	metrics   *MetricsService
	now       time.Time
}

func newPlacementFixture(jobs []models.Job, students []models.StudentAcademicRecord) *placementFixture {
	f := &placementFixture{
		jobs:     newMemJobs(jobs...),
		students: newMemStudents(students...),
		notifier: &recordingNotifier{},
		ladder:   policy.NewLadderEvaluator(policy.LadderPolicy{Hierarchy: policy.DefaultHierarchy(), MaxOffers: 2, AllowUncategorized: true}),
		metrics:  NewMetricsService(),
		now:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.apps = newMemApplications(f.jobs, f.students)
	f.apps.maxOffers = f.ladder.MaxOffers()
	f.summaries = NewPlacementStatusService(f.apps, f.ladder, nil, time.Minute, nil)
	f.sync = NewApplicationSynchronizer(f.apps, policy.DefaultLifecycle(), f.summaries, f.notifier, f.metrics, nil)
	return f
}

func (f *placementFixture) clock() time.Time { return f.now }

func (f *placementFixture) placed(jobID, studentID string) {
	at := f.now.Add(-48 * time.Hour)
	f.apps.seed(models.Application{
		ID:         "app-" + jobID + "-" + studentID,
		JobID:      jobID,
		StudentID:  studentID,
		Status:     models.StatusPlaced,
		IsSelected: true,
		PlacedAt:   &at,
		AppliedAt:  at,
		Rounds:     []models.InterviewRound{},
	})
}

func (f *placementFixture) applied(jobID, studentID string, status models.ApplicationStatus) {
	at := f.now.Add(-24 * time.Hour)
	f.apps.seed(models.Application{
		ID:        "app-" + jobID + "-" + studentID,
		JobID:     jobID,
		StudentID: studentID,
		Status:    status,
		AppliedAt: at,
		Rounds:    []models.InterviewRound{},
	})
}

func academicRecord(studentID, department string, sslc float64) models.StudentAcademicRecord {
	return models.StudentAcademicRecord{
		StudentID:      studentID,
		FullName:       "Student " + studentID,
		Email:          studentID + "@campus.test",
		USN:            "1XX21" + studentID,
		Department:     department,
		Year:           4,
		SemesterGPA:    models.SemesterGPA{Sem1: ptrFloat(8.2), Sem2: ptrFloat(8.6)},
		SSLCPercentage: ptrFloat(sslc),
		PUCPercentage:  ptrFloat(82),
		ResumeURL:      ptrString("https://files.campus.test/resume/" + studentID + ".pdf"),
	}
}
