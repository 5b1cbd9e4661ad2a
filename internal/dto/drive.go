package dto

import (
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
)

// ShortlistRequest carries the company's shortlist decision for a drive.
type ShortlistRequest struct {
	ShortlistedStudentIDs []string `json:"shortlistedStudents" validate:"omitempty,dive,required"`
	RejectedStudentIDs    []string `json:"rejectedStudents" validate:"omitempty,dive,required"`
}

// InterviewRoundRequest records one round outcome for an applicant.
type InterviewRoundRequest struct {
	RoundName string             `json:"roundName" validate:"required,max=120"`
	RoundDate *time.Time         `json:"roundDate"`
	Status    models.RoundStatus `json:"status" validate:"omitempty,oneof=scheduled cleared failed pending"`
	Remarks   *string            `json:"remarks" validate:"omitempty,max=2000"`
}

// PlacementEntry is one placed student in a mark-placed batch.
type PlacementEntry struct {
	StudentID   string     `json:"studentId" validate:"required"`
	PackageLPA  *float64   `json:"package" validate:"omitempty,gte=0"`
	JoiningDate *time.Time `json:"joiningDate"`
	OfferLetter *string    `json:"offerLetter" validate:"omitempty,max=2048"`
}

// MarkPlacedRequest carries the final selections of a drive.
type MarkPlacedRequest struct {
	Placements []PlacementEntry `json:"placements" validate:"required,min=1,dive"`
}

// SkippedEntry explains why a batch member was not updated.
type SkippedEntry struct {
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// BatchResult partitions the members of a staff batch.
type BatchResult struct {
	Updated   []string       `json:"updated"`
	Unchanged []string       `json:"unchanged"`
	Skipped   []SkippedEntry `json:"skipped"`
}

// NewBatchResult returns a result with empty, non-nil slices.
func NewBatchResult() BatchResult {
	return BatchResult{Updated: []string{}, Unchanged: []string{}, Skipped: []SkippedEntry{}}
}

// ShortlistResult reports both halves of a shortlist batch.
type ShortlistResult struct {
	JobID       string      `json:"jobId"`
	Shortlisted BatchResult `json:"shortlisted"`
	Rejected    BatchResult `json:"rejected"`
}

// FinishDriveResult is returned once a drive is locked.
type FinishDriveResult struct {
	JobID       string    `json:"jobId"`
	PlacedCount int       `json:"placedCount"`
	FinishedAt  time.Time `json:"finishedAt"`
	FinishedBy  string    `json:"finishedBy"`
}

// WorkflowStatus is the derived drive overview.
type WorkflowStatus struct {
	JobID               string              `json:"jobId"`
	Title               string              `json:"title"`
	CompanyName         string              `json:"companyName"`
	Category            *models.Category    `json:"category,omitempty"`
	Stage               models.DriveStage   `json:"placementStage"`
	ApplicantsExported  bool                `json:"applicantsExported"`
	ExportedAt          *time.Time          `json:"exportedAt,omitempty"`
	ShortlistReceived   bool                `json:"shortlistReceived"`
	ShortlistReceivedAt *time.Time          `json:"shortlistReceivedAt,omitempty"`
	DriveFinished       bool                `json:"driveFinished"`
	DriveFinishedAt     *time.Time          `json:"driveFinishedAt,omitempty"`
	DriveFinishedBy     *string             `json:"driveFinishedBy,omitempty"`
	Counts              models.StatusCounts `json:"counts"`
}

// IneligibleEntry reports a sweep candidate that did not meet the criteria.
type IneligibleEntry struct {
	StudentID    string               `json:"studentId"`
	FailedChecks []policy.FailedCheck `json:"failedChecks"`
}

// EligibilitySweepResult summarises a notify-eligible run.
type EligibilitySweepResult struct {
	JobID         string            `json:"jobId"`
	TotalApplied  int               `json:"totalApplied"`
	EligibleCount int               `json:"eligibleCount"`
	Shortlisted   []string          `json:"shortlisted"`
	Ineligible    []IneligibleEntry `json:"ineligible"`
	Skipped       []SkippedEntry    `json:"skipped"`
}

// ExportRequest selects the applicants and encoding of an export.
type ExportRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=all applied shortlisted in-process placed rejected"`
	Format string `form:"format" validate:"omitempty,oneof=csv xlsx pdf"`
}

// ExportResult points to a generated export file.
type ExportResult struct {
	JobID       string    `json:"jobId"`
	Format      string    `json:"format"`
	Filename    string    `json:"filename"`
	Rows        int       `json:"rows"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ReconcileReport summarises a consistency pass over both application copies.
type ReconcileReport struct {
	Scanned  int                `json:"scanned"`
	Drifts   []models.SyncDrift `json:"drifts"`
	Repaired int                `json:"repaired"`
	Failed   []models.SyncDrift `json:"failed"`
}
