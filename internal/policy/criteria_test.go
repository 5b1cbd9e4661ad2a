package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

func f(v float64) *float64 { return &v }

func record(sslc, puc *float64, sems ...float64) models.StudentAcademicRecord {
	rec := models.StudentAcademicRecord{StudentID: "s-1", Department: "CSE", SSLCPercentage: sslc, PUCPercentage: puc}
	slots := []**float64{&rec.Sem1, &rec.Sem2, &rec.Sem3, &rec.Sem4, &rec.Sem5, &rec.Sem6, &rec.Sem7, &rec.Sem8}
	for i, v := range sems {
		v := v
		*slots[i] = &v
	}
	return rec
}

func TestCriteriaNoThresholdsAlwaysPasses(t *testing.T) {
	result := NewCriteriaEvaluator().Evaluate(record(nil, nil), models.EligibilityCriteria{}, nil)
	assert.True(t, result.Passed)
	assert.False(t, result.AutoShortlist)
	assert.Empty(t, result.FailedChecks)
	assert.Nil(t, result.CGPA)
}

func TestCriteriaGPAThresholdWithNoSemestersFails(t *testing.T) {
	result := NewCriteriaEvaluator().Evaluate(record(f(95), f(95)), models.EligibilityCriteria{MinDegreeCGPA: f(6)}, nil)
	assert.False(t, result.Passed)
	require.Len(t, result.FailedChecks, 1)
	assert.Equal(t, CheckDegreeCGPA, result.FailedChecks[0].Check)
	assert.Equal(t, 0.0, result.FailedChecks[0].Actual)
	assert.Nil(t, result.CGPA)
}

func TestCriteriaScenarioCFailsBelowThreshold(t *testing.T) {
	result := NewCriteriaEvaluator().Evaluate(record(f(80), nil), models.EligibilityCriteria{MinSSLCPercentage: f(85)}, nil)
	assert.False(t, result.Passed)
	assert.False(t, result.AutoShortlist)
	assert.True(t, result.AcademicFailed())
	assert.False(t, result.DepartmentFailed())
}

func TestCriteriaScenarioDOnlySetThresholdCounts(t *testing.T) {
	result := NewCriteriaEvaluator().Evaluate(record(f(90), nil), models.EligibilityCriteria{MinSSLCPercentage: f(85)}, nil)
	assert.True(t, result.Passed)
	assert.True(t, result.AutoShortlist)
}

func TestCriteriaMissingPercentageDefaultsToZero(t *testing.T) {
	result := NewCriteriaEvaluator().Evaluate(record(nil, nil), models.EligibilityCriteria{MinPUCPercentage: f(40)}, nil)
	require.Len(t, result.FailedChecks, 1)
	assert.Equal(t, 0.0, result.FailedChecks[0].Actual)
}

func TestCriteriaCGPAIsMeanOfPresentSemesters(t *testing.T) {
	rec := record(nil, nil, 8, 9)
	rec.Sem5 = f(7)
	result := NewCriteriaEvaluator().Evaluate(rec, models.EligibilityCriteria{MinDegreeCGPA: f(8)}, nil)
	require.NotNil(t, result.CGPA)
	assert.InDelta(t, 8.0, *result.CGPA, 1e-9)
	assert.True(t, result.Passed)
}

func TestCriteriaDepartmentAllowList(t *testing.T) {
	eval := NewCriteriaEvaluator()

	result := eval.Evaluate(record(nil, nil), models.EligibilityCriteria{}, []string{"ECE", "EEE"})
	assert.False(t, result.Passed)
	assert.True(t, result.DepartmentFailed())
	assert.False(t, result.AutoShortlist)

	result = eval.Evaluate(record(nil, nil), models.EligibilityCriteria{}, []string{"cse"})
	assert.True(t, result.Passed)

	result = eval.Evaluate(record(nil, nil), models.EligibilityCriteria{}, []string{" "})
	assert.True(t, result.Passed)
}

func TestCriteriaZeroThresholdsAreUnset(t *testing.T) {
	criteria := models.EligibilityCriteria{MinSSLCPercentage: f(0), MinPUCPercentage: f(0), MinDegreeCGPA: f(0)}
	assert.False(t, criteria.HasAcademicThreshold())

	result := NewCriteriaEvaluator().Evaluate(record(nil, nil), criteria, nil)
	assert.True(t, result.Passed)
	assert.False(t, result.AutoShortlist)
	assert.Empty(t, result.FailedChecks)
}
