package dto

import (
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
)

// EligibilityCriteriaRequest carries optional academic thresholds.
type EligibilityCriteriaRequest struct {
	SSLCPercentage *float64 `json:"sslcPercentage" validate:"omitempty,gte=0,lte=100"`
	PUCPercentage  *float64 `json:"pucPercentage" validate:"omitempty,gte=0,lte=100"`
	DegreeCGPA     *float64 `json:"degreeCgpa" validate:"omitempty,gte=0,lte=10"`
}

// JobRequest is the create and update payload for a job posting.
type JobRequest struct {
	Title               string                     `json:"title" validate:"required,max=200"`
	CompanyName         string                     `json:"companyName" validate:"required,max=200"`
	SalaryLPA           *float64                   `json:"salary" validate:"omitempty,gte=0"`
	Category            models.Category            `json:"jobCategory" validate:"required,oneof=mass core dream open_dream"`
	IsInternship        bool                       `json:"isInternship"`
	HasConversionOption bool                       `json:"hasConversionOption"`
	EligibilityCriteria EligibilityCriteriaRequest `json:"eligibilityCriteria"`
	EligibleDepartments []string                   `json:"eligibleBranches" validate:"omitempty,dive,oneof=CSE ISE AIML MECH CIVIL ECE EEE"`
	ApplicationDeadline *time.Time                 `json:"applicationDeadline"`
}

// JobResult wraps a saved job with the salary advisory verdict.
type JobResult struct {
	Job          *models.Job         `json:"job"`
	SalaryAdvice *policy.SalaryAdvice `json:"salaryAdvice,omitempty"`
}

// JobDeleteResult reports the applications pruned with a job.
type JobDeleteResult struct {
	JobID             string `json:"jobId"`
	PrunedApplicants  int64  `json:"prunedApplicants"`
	PrunedAppliedJobs int64  `json:"prunedAppliedJobs"`
}

// StudentPruneResult reports the applications pruned for a removed student.
type StudentPruneResult struct {
	StudentID         string `json:"studentId"`
	PrunedApplicants  int64  `json:"prunedApplicants"`
	PrunedAppliedJobs int64  `json:"prunedAppliedJobs"`
}
