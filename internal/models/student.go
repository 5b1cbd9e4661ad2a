package models

import "math"

// SemesterGPA holds up to eight per-semester GPA values. Missing semesters are nil.
type SemesterGPA struct {
	Sem1 *float64 `db:"sem1_gpa" json:"sem1,omitempty"`
	Sem2 *float64 `db:"sem2_gpa" json:"sem2,omitempty"`
	Sem3 *float64 `db:"sem3_gpa" json:"sem3,omitempty"`
	Sem4 *float64 `db:"sem4_gpa" json:"sem4,omitempty"`
	Sem5 *float64 `db:"sem5_gpa" json:"sem5,omitempty"`
	Sem6 *float64 `db:"sem6_gpa" json:"sem6,omitempty"`
	Sem7 *float64 `db:"sem7_gpa" json:"sem7,omitempty"`
	Sem8 *float64 `db:"sem8_gpa" json:"sem8,omitempty"`
}

// Values returns the semesters in order.
func (s SemesterGPA) Values() []*float64 {
	return []*float64{s.Sem1, s.Sem2, s.Sem3, s.Sem4, s.Sem5, s.Sem6, s.Sem7, s.Sem8}
}

// CGPA is the mean of present, finite semester values. ok is false when none are present.
func (s SemesterGPA) CGPA() (cgpa float64, ok bool) {
	var sum float64
	var n int
	for _, v := range s.Values() {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// StudentAcademicRecord is the read-only academic profile of a student.
type StudentAcademicRecord struct {
	StudentID      string `db:"student_id" json:"student_id"`
	FullName       string `db:"full_name" json:"full_name"`
	Email          string `db:"email" json:"email"`
	USN            string `db:"usn" json:"usn"`
	Department     string `db:"department" json:"department"`
	Year           int    `db:"year" json:"year"`
	SemesterGPA    `json:"semester_gpa"`
	SSLCPercentage *float64 `db:"sslc_percentage" json:"sslc_percentage,omitempty"`
	PUCPercentage  *float64 `db:"puc_percentage" json:"puc_percentage,omitempty"`
	ActiveBacklogs int      `db:"active_backlogs" json:"active_backlogs"`
	ResumeURL      *string  `db:"resume_url" json:"resume_url,omitempty"`
}

// HasResume reports whether a resume has been uploaded.
func (r StudentAcademicRecord) HasResume() bool {
	return r.ResumeURL != nil && *r.ResumeURL != ""
}
