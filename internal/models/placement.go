package models

import "time"

// PlacedOffer is one application of a student that reached placed.
type PlacedOffer struct {
	JobID               string     `db:"job_id" json:"job_id"`
	JobTitle            string     `db:"title" json:"job_title"`
	CompanyName         string     `db:"company_name" json:"company_name"`
	Category            *Category  `db:"category" json:"category,omitempty"`
	IsInternship        bool       `db:"is_internship" json:"is_internship"`
	HasConversionOption bool       `db:"has_conversion_option" json:"has_conversion_option"`
	PackageLPA          *float64   `db:"package_lpa" json:"package_lpa,omitempty"`
	SalaryLPA           *float64   `db:"salary_lpa" json:"salary_lpa,omitempty"`
	PlacedAt            *time.Time `db:"placed_at" json:"placed_at,omitempty"`
}

// PlacementSummary is the derived set of governed placed offers of a student.
// Offers without a category are excluded.
type PlacementSummary struct {
	StudentID string        `json:"student_id"`
	Offers    []PlacedOffer `json:"offers"`
}

// SummaryFromOffers keeps only offers with a known category.
func SummaryFromOffers(studentID string, offers []PlacedOffer) PlacementSummary {
	governed := make([]PlacedOffer, 0, len(offers))
	for _, o := range offers {
		if o.Category != nil && o.Category.Valid() {
			governed = append(governed, o)
		}
	}
	return PlacementSummary{StudentID: studentID, Offers: governed}
}

// StatusCounts is the application histogram of one drive.
type StatusCounts struct {
	Total       int `json:"total"`
	Applied     int `json:"applied"`
	Shortlisted int `json:"shortlisted"`
	InProcess   int `json:"in_process"`
	Placed      int `json:"placed"`
	Rejected    int `json:"rejected"`
}

// Add counts n applications in status s.
func (c *StatusCounts) Add(s ApplicationStatus, n int) {
	c.Total += n
	switch s {
	case StatusApplied:
		c.Applied += n
	case StatusShortlisted:
		c.Shortlisted += n
	case StatusInProcess:
		c.InProcess += n
	case StatusPlaced:
		c.Placed += n
	case StatusRejected:
		c.Rejected += n
	}
}

// PlacedStudent is a placed applicant row used by recent placement listings.
type PlacedStudent struct {
	JobID       string     `db:"job_id" json:"-"`
	StudentID   string     `db:"student_id" json:"student_id"`
	FullName    string     `db:"full_name" json:"full_name"`
	USN         string     `db:"usn" json:"usn"`
	Department  string     `db:"department" json:"department"`
	PackageLPA  *float64   `db:"package_lpa" json:"package_lpa,omitempty"`
	JoiningDate *time.Time `db:"joining_date" json:"joining_date,omitempty"`
}

// RecentPlacement is a finished drive and its placed students.
type RecentPlacement struct {
	JobID           string          `db:"id" json:"job_id"`
	Title           string          `db:"title" json:"title"`
	CompanyName     string          `db:"company_name" json:"company_name"`
	Category        *Category       `db:"category" json:"category,omitempty"`
	DriveFinishedAt time.Time       `db:"drive_finished_at" json:"drive_finished_at"`
	Students        []PlacedStudent `db:"-" json:"students"`
}

// ApplicantRow joins an application with the applicant's academic record.
type ApplicantRow struct {
	StudentAcademicRecord
	ApplicationID string            `db:"application_id" json:"application_id"`
	Status        ApplicationStatus `db:"status" json:"status"`
	CurrentRound  *string           `db:"current_round" json:"current_round,omitempty"`
	AppliedAt     time.Time         `db:"applied_at" json:"applied_at"`
}

// DriftKind classifies an inconsistency between the two application copies.
type DriftKind string

const (
	DriftMissingStudentCopy DriftKind = "missing_student_copy"
	DriftOrphanStudentCopy  DriftKind = "orphan_student_copy"
	DriftDiverged           DriftKind = "diverged"
)

// SyncDrift describes a pair whose copies disagree.
type SyncDrift struct {
	JobID     string    `json:"job_id"`
	StudentID string    `json:"student_id"`
	Kind      DriftKind `json:"kind"`
	Fields    []string  `json:"fields,omitempty"`
}
