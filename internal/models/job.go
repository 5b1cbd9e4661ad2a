package models

import (
	"time"

	"github.com/lib/pq"
)

// DriveStage tracks where a recruitment drive is in its workflow.
type DriveStage string

const (
	DriveStageOpen         DriveStage = "open"
	DriveStageShortlisting DriveStage = "shortlisting"
	DriveStageInterviewing DriveStage = "interviewing"
	DriveStageCompleted    DriveStage = "completed"
)

// Departments accepted in eligible department allow-lists.
var Departments = []string{"CSE", "ISE", "AIML", "MECH", "CIVIL", "ECE", "EEE"}

// EligibilityCriteria holds the optional academic thresholds of a job.
type EligibilityCriteria struct {
	MinSSLCPercentage *float64 `db:"min_sslc_percentage" json:"sslc_percentage,omitempty"`
	MinPUCPercentage  *float64 `db:"min_puc_percentage" json:"puc_percentage,omitempty"`
	MinDegreeCGPA     *float64 `db:"min_degree_cgpa" json:"degree_cgpa,omitempty"`
}

// HasAcademicThreshold reports whether any academic threshold is set.
func (c EligibilityCriteria) HasAcademicThreshold() bool {
	for _, v := range []*float64{c.MinSSLCPercentage, c.MinPUCPercentage, c.MinDegreeCGPA} {
		if _, ok := Threshold(v); ok {
			return true
		}
	}
	return false
}

// Threshold returns the bound held by v. Nil and non-positive bounds are unset.
func Threshold(v *float64) (float64, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Job is a job offer and the state of its recruitment drive.
type Job struct {
	ID                  string         `db:"id" json:"id"`
	Title               string         `db:"title" json:"title"`
	CompanyName         string         `db:"company_name" json:"company_name"`
	SalaryLPA           *float64       `db:"salary_lpa" json:"salary_lpa,omitempty"`
	Category            *Category      `db:"category" json:"category,omitempty"`
	IsInternship        bool           `db:"is_internship" json:"is_internship"`
	HasConversionOption bool           `db:"has_conversion_option" json:"has_conversion_option"`
	EligibilityCriteria `json:"eligibility_criteria"`
	EligibleDepartments pq.StringArray `db:"eligible_departments" json:"eligible_departments"`
	ApplicationDeadline *time.Time     `db:"application_deadline" json:"application_deadline,omitempty"`
	Stage               DriveStage     `db:"placement_stage" json:"placement_stage"`
	ApplicantsExported  bool           `db:"applicants_exported" json:"applicants_exported"`
	ExportedAt          *time.Time     `db:"exported_at" json:"exported_at,omitempty"`
	ShortlistReceived   bool           `db:"shortlist_received" json:"shortlist_received"`
	ShortlistReceivedAt *time.Time     `db:"shortlist_received_at" json:"shortlist_received_at,omitempty"`
	DriveFinished       bool           `db:"drive_finished" json:"drive_finished"`
	DriveFinishedAt     *time.Time     `db:"drive_finished_at" json:"drive_finished_at,omitempty"`
	DriveFinishedBy     *string        `db:"drive_finished_by" json:"drive_finished_by,omitempty"`
	CreatedBy           *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// DeadlinePassed reports whether applications are closed at now.
func (j Job) DeadlinePassed(now time.Time) bool {
	return j.ApplicationDeadline != nil && now.After(*j.ApplicationDeadline)
}

// JobLock is the slice of job state read under the drive lock.
type JobLock struct {
	ID            string     `db:"id"`
	Title         string     `db:"title"`
	CompanyName   string     `db:"company_name"`
	DriveFinished bool       `db:"drive_finished"`
	Stage         DriveStage `db:"placement_stage"`
}
