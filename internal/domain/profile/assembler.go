package profile

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
)

const monthsPerYear = 12

// deadlineLayouts are tried in order when parsing a job deadline.
var deadlineLayouts = []string{ //nolint:gochecknoglobals // immutable
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Assemble reads the candidate and job through src and builds the snapshot
// used by the evaluator. Callers that need a consistent read pass a
// transactional Source.
func Assemble(ctx context.Context, src Source, studentID, jobID string) (Profile, JobMeta, error) {
	const op = "profile.assemble"

	student, err := src.Student(ctx, studentID)
	if err != nil {
		return Profile{}, JobMeta{}, storageErr(op, err)
	}
	if student == nil {
		return Profile{}, JobMeta{}, model.NewKind(op, model.ErrNotFound, "Student not found")
	}
	job, err := src.Job(ctx, jobID)
	if err != nil {
		return Profile{}, JobMeta{}, storageErr(op, err)
	}
	if job == nil {
		return Profile{}, JobMeta{}, model.NewKind(op, model.ErrNotFound, "Job not found")
	}

	var deadline time.Time
	if strings.TrimSpace(job.ApplicationDeadline) != "" {
		if deadline, err = ParseDeadline(job.ApplicationDeadline); err != nil {
			return Profile{}, JobMeta{}, err
		}
	}

	academics, err := src.Academics(ctx, studentID)
	if err != nil {
		return Profile{}, JobMeta{}, storageErr(op, err)
	}
	internships, err := src.Internships(ctx, studentID)
	if err != nil {
		return Profile{}, JobMeta{}, storageErr(op, err)
	}

	p := Profile{
		StudentID:       student.ID,
		Branch:          student.Branch,
		ExperienceYears: ExperienceYears(durations(internships)),
	}
	if academics != nil {
		p.TenthPct = academics.TenthPct
		p.TwelfthPct = academics.TwelfthPct
		p.UGCGPA = academics.UGCGPA
		p.PGCGPA = academics.PGCGPA
	}
	return p, JobMeta{JobID: job.ID, Deadline: deadline}, nil
}

// ExperienceYears totals internship durations in years. Only durations that
// are a plain count of months ("6", " 12 ") are understood; any other text,
// "6 months" included, contributes nothing.
func ExperienceYears(durations []string) float64 {
	months := 0
	for _, d := range durations {
		n, ok := parseMonths(d)
		if !ok {
			continue
		}
		months += n
	}
	return float64(months) / monthsPerYear
}

func parseMonths(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDeadline parses a stored deadline. Date-only values are midnight UTC.
func ParseDeadline(s string) (time.Time, error) {
	const op = "profile.parse_deadline"
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, model.NewKind(op, model.ErrValidation, "Invalid application deadline: "+strconv.Quote(s))
}

// storageErr keeps classified errors from the source as they are and tags
// anything else as a storage failure.
func storageErr(op string, err error) error {
	if model.KindOf(err) != nil {
		return err
	}
	return model.WrapKind(op, model.ErrStorage, err)
}

func durations(in []model.Internship) []string {
	out := make([]string, 0, len(in))
	for _, i := range in {
		out = append(out, i.Duration)
	}
	return out
}
