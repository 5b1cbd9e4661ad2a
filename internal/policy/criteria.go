package policy

import (
	"strings"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// Check names one eligibility criterion.
type Check string

const (
	CheckDepartment     Check = "department"
	CheckSSLCPercentage Check = "sslc_percentage"
	CheckPUCPercentage  Check = "puc_percentage"
	CheckDegreeCGPA     Check = "degree_cgpa"
)

// FailedCheck records why one criterion was not met.
type FailedCheck struct {
	Check    Check       `json:"check"`
	Required interface{} `json:"required"`
	Actual   interface{} `json:"actual"`
}

// CriteriaResult is the verdict of the criteria evaluator.
type CriteriaResult struct {
	Passed bool `json:"passed"`
	// AutoShortlist is set when at least one academic threshold exists and every present check passed.
	AutoShortlist bool          `json:"auto_shortlist"`
	FailedChecks  []FailedCheck `json:"failed_checks,omitempty"`
	// CGPA is the derived aggregate; nil when the student has no semester values.
	CGPA *float64 `json:"cgpa,omitempty"`
}

// DepartmentFailed reports whether the department allow-list rejected the student.
func (r CriteriaResult) DepartmentFailed() bool {
	for _, f := range r.FailedChecks {
		if f.Check == CheckDepartment {
			return true
		}
	}
	return false
}

// AcademicFailed reports whether any academic threshold rejected the student.
func (r CriteriaResult) AcademicFailed() bool {
	for _, f := range r.FailedChecks {
		if f.Check != CheckDepartment {
			return true
		}
	}
	return false
}

// CriteriaEvaluator decides whether a student meets a job's thresholds.
type CriteriaEvaluator struct{}

// NewCriteriaEvaluator returns an evaluator.
func NewCriteriaEvaluator() CriteriaEvaluator {
	return CriteriaEvaluator{}
}

// Evaluate checks rec against criteria and the department allow-list. All present checks must pass.
// Thresholds of zero or below are treated as unset.
func (CriteriaEvaluator) Evaluate(rec models.StudentAcademicRecord, criteria models.EligibilityCriteria, departments []string) CriteriaResult {
	result := CriteriaResult{}
	if cgpa, ok := rec.CGPA(); ok {
		result.CGPA = &cgpa
	}

	if allowed := nonEmpty(departments); len(allowed) > 0 && !containsFold(allowed, rec.Department) {
		result.FailedChecks = append(result.FailedChecks, FailedCheck{Check: CheckDepartment, Required: allowed, Actual: rec.Department})
	}

	if bound, ok := models.Threshold(criteria.MinSSLCPercentage); ok {
		actual := valueOrZero(rec.SSLCPercentage)
		if actual < bound {
			result.FailedChecks = append(result.FailedChecks, FailedCheck{Check: CheckSSLCPercentage, Required: bound, Actual: actual})
		}
	}
	if bound, ok := models.Threshold(criteria.MinPUCPercentage); ok {
		actual := valueOrZero(rec.PUCPercentage)
		if actual < bound {
			result.FailedChecks = append(result.FailedChecks, FailedCheck{Check: CheckPUCPercentage, Required: bound, Actual: actual})
		}
	}
	if bound, ok := models.Threshold(criteria.MinDegreeCGPA); ok {
		// With no semesters recorded the check compares against 0 so it fails.
		actual := 0.0
		if result.CGPA != nil {
			actual = *result.CGPA
		}
		if actual < bound {
			result.FailedChecks = append(result.FailedChecks, FailedCheck{Check: CheckDegreeCGPA, Required: bound, Actual: actual})
		}
	}

	result.Passed = len(result.FailedChecks) == 0
	result.AutoShortlist = result.Passed && criteria.HasAcademicThreshold()
	return result
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
