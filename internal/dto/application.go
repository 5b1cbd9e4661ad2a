package dto

import (
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/policy"
)

// ApplyResult is returned by the apply operation. Negative policy outcomes are
// reported through Decision or Criteria with Applied set to false.
type ApplyResult struct {
	Applied         bool                   `json:"applied"`
	AlreadyApplied  bool                   `json:"alreadyApplied"`
	AutoShortlisted bool                   `json:"autoShortlisted"`
	Message         string                 `json:"message"`
	Application     *models.Application    `json:"application,omitempty"`
	Decision        *policy.LadderDecision `json:"decision,omitempty"`
	Criteria        *policy.CriteriaResult `json:"criteria,omitempty"`
}

// AppliedCheck answers whether a student applied to a job.
type AppliedCheck struct {
	JobID     string                    `json:"jobId"`
	StudentID string                    `json:"studentId"`
	Applied   bool                      `json:"applied"`
	Status    *models.ApplicationStatus `json:"status,omitempty"`
}

// UpdateStatusRequest is the generic staff status update.
type UpdateStatusRequest struct {
	Status       models.ApplicationStatus `json:"status" validate:"required,oneof=applied shortlisted in-process placed rejected"`
	CurrentRound *string                  `json:"currentRound" validate:"omitempty,max=120"`
	PackageLPA   *float64                 `json:"package" validate:"omitempty,gte=0"`
	JoiningDate  *time.Time               `json:"joiningDate"`
	OfferLetter  *string                  `json:"offerLetter" validate:"omitempty,max=2048"`
	Remarks      *string                  `json:"remarks" validate:"omitempty,max=2000"`
}

// PlacementStatus summarises the offers a student holds and where they may still apply.
type PlacementStatus struct {
	StudentID        string               `json:"studentId"`
	OfferCount       int                  `json:"offerCount"`
	MaxOffers        int                  `json:"maxOffers"`
	MaxOffersReached bool                 `json:"maxOffersReached"`
	Placements       []models.PlacedOffer `json:"placements"`
	HighestCategory  *models.Category     `json:"highestCategory,omitempty"`
	CanApplyTo       []models.Category    `json:"canApplyTo"`
}
