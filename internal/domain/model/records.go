package model

// Student is the slice of a student record the eligibility engine reads.
type Student struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Branch string `json:"branch" yaml:"branch"`
}

// Academics holds a student's marks. Every field is nil when not recorded;
// a missing mark is never treated as zero.
type Academics struct {
	StudentID  string   `json:"student_id" yaml:"student_id"`
	TenthPct   *float64 `json:"tenth_pct,omitempty" yaml:"tenth_pct"`
	TwelfthPct *float64 `json:"twelfth_pct,omitempty" yaml:"twelfth_pct"`
	UGCGPA     *float64 `json:"ug_cgpa,omitempty" yaml:"ug_cgpa"`
	PGCGPA     *float64 `json:"pg_cgpa,omitempty" yaml:"pg_cgpa"`
}

// Internship is one entry of a student's internship history. Duration is the
// free text entered by the student, usually a month count.
type Internship struct {
	StudentID string `json:"student_id" yaml:"student_id"`
	Company   string `json:"company" yaml:"company"`
	Duration  string `json:"duration" yaml:"duration"`
}

// Job is the slice of a job posting the eligibility engine reads.
// ApplicationDeadline is kept as stored text and parsed on use.
type Job struct {
	ID                  string `json:"id" yaml:"id"`
	CompanyID           string `json:"company_id" yaml:"company_id"`
	Title               string `json:"title" yaml:"title"`
	ApplicationDeadline string `json:"application_deadline,omitempty" yaml:"application_deadline"`
}
