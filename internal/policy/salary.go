package policy

import (
	"fmt"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// SalaryBands are the advisory salary cut-offs in lakhs per annum.
type SalaryBands struct {
	OpenDreamAboveLPA float64
	DreamAboveLPA     float64
}

// DefaultSalaryBands places jobs above 20 LPA in open_dream and above 8 LPA in dream.
var DefaultSalaryBands = SalaryBands{OpenDreamAboveLPA: 20, DreamAboveLPA: 8}

// SalaryAdvice is the advisory classifier verdict. It never blocks a job.
type SalaryAdvice struct {
	Valid     bool            `json:"valid"`
	Suggested models.Category `json:"suggested_category,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Advise checks a proposed category against the salary bands.
func (b SalaryBands) Advise(h Hierarchy, salaryLPA float64, proposed models.Category) SalaryAdvice {
	switch {
	case salaryLPA > b.OpenDreamAboveLPA && proposed != models.CategoryOpenDream:
		return SalaryAdvice{
			Suggested: models.CategoryOpenDream,
			Message:   fmt.Sprintf("salary above %g LPA should be %s category", b.OpenDreamAboveLPA, h.DisplayName(models.CategoryOpenDream)),
		}
	case salaryLPA > b.DreamAboveLPA && salaryLPA <= b.OpenDreamAboveLPA &&
		proposed != models.CategoryDream && proposed != models.CategoryOpenDream:
		return SalaryAdvice{
			Suggested: models.CategoryDream,
			Message:   fmt.Sprintf("salary between %g and %g LPA should be %s category", b.DreamAboveLPA, b.OpenDreamAboveLPA, h.DisplayName(models.CategoryDream)),
		}
	}
	return SalaryAdvice{Valid: true}
}
