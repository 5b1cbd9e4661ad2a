package models

import "time"

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInProcess   ApplicationStatus = "in-process"
	StatusPlaced      ApplicationStatus = "placed"
	StatusRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{StatusApplied, StatusShortlisted, StatusInProcess, StatusPlaced, StatusRejected}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusPlaced || s == StatusRejected
}

// RoundStatus is the outcome of an interview round.
type RoundStatus string

const (
	RoundScheduled RoundStatus = "scheduled"
	RoundCleared   RoundStatus = "cleared"
	RoundFailed    RoundStatus = "failed"
	RoundPending   RoundStatus = "pending"
)

// InterviewRound records one named round of an application.
type InterviewRound struct {
	ApplicationID string      `db:"application_id" json:"-"`
	Name          string      `db:"round_name" json:"round_name"`
	Date          *time.Time  `db:"round_date" json:"round_date,omitempty"`
	Status        RoundStatus `db:"status" json:"status"`
	Remarks       *string     `db:"remarks" json:"remarks,omitempty"`
	Position      int         `db:"position" json:"position"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Application is the job-side record of a student applying to a job.
type Application struct {
	ID            string            `db:"id" json:"id"`
	JobID         string            `db:"job_id" json:"job_id"`
	StudentID     string            `db:"student_id" json:"student_id"`
	Status        ApplicationStatus `db:"status" json:"status"`
	CurrentRound  *string           `db:"current_round" json:"current_round,omitempty"`
	Rounds        []InterviewRound  `db:"-" json:"rounds"`
	IsSelected    bool              `db:"is_selected" json:"is_selected"`
	SelectionDate *time.Time        `db:"selection_date" json:"selection_date,omitempty"`
	PackageLPA    *float64          `db:"package_lpa" json:"package_lpa,omitempty"`
	JoiningDate   *time.Time        `db:"joining_date" json:"joining_date,omitempty"`
	OfferLetter   *string           `db:"offer_letter" json:"offer_letter,omitempty"`
	Remarks       *string           `db:"remarks" json:"remarks,omitempty"`
	AppliedAt     time.Time         `db:"applied_at" json:"applied_at"`
	ShortlistedAt *time.Time        `db:"shortlisted_at" json:"shortlisted_at,omitempty"`
	RejectedAt    *time.Time        `db:"rejected_at" json:"rejected_at,omitempty"`
	PlacedAt      *time.Time        `db:"placed_at" json:"placed_at,omitempty"`
	Version       int64             `db:"version" json:"version"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// Round returns the named round and its index, or -1.
func (a *Application) Round(name string) (*InterviewRound, int) {
	for i := range a.Rounds {
		if a.Rounds[i].Name == name {
			return &a.Rounds[i], i
		}
	}
	return nil, -1
}

// AppliedJob is the student-side copy of an application.
type AppliedJob struct {
	StudentID     string            `db:"student_id" json:"student_id"`
	JobID         string            `db:"job_id" json:"job_id"`
	Status        ApplicationStatus `db:"status" json:"status"`
	CurrentRound  *string           `db:"current_round" json:"current_round,omitempty"`
	PackageLPA    *float64          `db:"package_lpa" json:"package_lpa,omitempty"`
	JoiningDate   *time.Time        `db:"joining_date" json:"joining_date,omitempty"`
	OfferLetter   *string           `db:"offer_letter" json:"offer_letter,omitempty"`
	IsPlaced      bool              `db:"is_placed" json:"is_placed"`
	AppliedAt     time.Time         `db:"applied_at" json:"applied_at"`
	ShortlistedAt *time.Time        `db:"shortlisted_at" json:"shortlisted_at,omitempty"`
	RejectedAt    *time.Time        `db:"rejected_at" json:"rejected_at,omitempty"`
	PlacedAt      *time.Time        `db:"placed_at" json:"placed_at,omitempty"`
	Version       int64             `db:"version" json:"version"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// StudentCopy derives the student-side view of a.
func (a Application) StudentCopy() AppliedJob {
	return AppliedJob{
		StudentID:     a.StudentID,
		JobID:         a.JobID,
		Status:        a.Status,
		CurrentRound:  a.CurrentRound,
		PackageLPA:    a.PackageLPA,
		JoiningDate:   a.JoiningDate,
		OfferLetter:   a.OfferLetter,
		IsPlaced:      a.Status == StatusPlaced,
		AppliedAt:     a.AppliedAt,
		ShortlistedAt: a.ShortlistedAt,
		RejectedAt:    a.RejectedAt,
		PlacedAt:      a.PlacedAt,
		Version:       a.Version,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Diverges lists the fields where c differs from the job-side application.
func (c AppliedJob) Diverges(a Application) []string {
	want := a.StudentCopy()
	var fields []string
	if c.Status != want.Status {
		fields = append(fields, "status")
	}
	if !equalString(c.CurrentRound, want.CurrentRound) {
		fields = append(fields, "current_round")
	}
	if !equalFloat(c.PackageLPA, want.PackageLPA) {
		fields = append(fields, "package_lpa")
	}
	if !equalTime(c.JoiningDate, want.JoiningDate) {
		fields = append(fields, "joining_date")
	}
	if !equalString(c.OfferLetter, want.OfferLetter) {
		fields = append(fields, "offer_letter")
	}
	if c.IsPlaced != want.IsPlaced {
		fields = append(fields, "is_placed")
	}
	if !c.AppliedAt.Equal(want.AppliedAt) {
		fields = append(fields, "applied_at")
	}
	if !equalTime(c.ShortlistedAt, want.ShortlistedAt) {
		fields = append(fields, "shortlisted_at")
	}
	if !equalTime(c.RejectedAt, want.RejectedAt) {
		fields = append(fields, "rejected_at")
	}
	if !equalTime(c.PlacedAt, want.PlacedAt) {
		fields = append(fields, "placed_at")
	}
	if c.Version != want.Version {
		fields = append(fields, "version")
	}
	return fields
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
