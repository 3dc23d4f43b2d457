package eligibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/profile"
	"github.com/placementcell/eligibility/internal/domain/requirement"
)

// Field labels used in reasons.
const (
	labelTenth      = "10th percentage"
	labelTwelfth    = "12th percentage"
	labelUGCGPA     = "UG CGPA"
	labelPGCGPA     = "PG CGPA"
	labelExperience = "Experience"
)

// Evaluate checks p against req for job at instant now. A nil req places no
// constraint on any criterion.
func Evaluate(p profile.Profile, req *requirement.Requirement, job profile.JobMeta, now time.Time) Verdict {
	if !job.Deadline.IsZero() && now.After(job.Deadline) {
		return Verdict{
			Status:   model.StatusNotEligible,
			Comments: DeadlinePassed,
			Reasons:  []string{DeadlinePassed},
		}
	}

	if req == nil {
		req = &requirement.Requirement{}
	}

	var (
		c       Criteria
		reasons []string
		reason  string
	)

	c.TenthMeets, reason = numeric(labelTenth, p.TenthPct, req.MinTenthPct)
	reasons = appendReason(reasons, reason)
	c.TwelfthMeets, reason = numeric(labelTwelfth, p.TwelfthPct, req.MinTwelfthPct)
	reasons = appendReason(reasons, reason)
	c.UGCGPAMeets, reason = numeric(labelUGCGPA, p.UGCGPA, req.MinUGCGPA)
	reasons = appendReason(reasons, reason)
	c.PGCGPAMeets, reason = numeric(labelPGCGPA, p.PGCGPA, req.MinPGCGPA)
	reasons = appendReason(reasons, reason)

	c.ExperienceMeets, reason = experience(p.ExperienceYears, req.MinExperienceYears)
	reasons = appendReason(reasons, reason)

	c.BranchMeets, reason = branch(p.Branch, req)
	reasons = appendReason(reasons, reason)

	v := Verdict{
		Eligible: c.All(),
		Reasons:  reasons,
		Detail:   &c,
		Comments: strings.Join(reasons, reasonSeparator),
	}
	if v.Eligible {
		v.Status = model.StatusEligible
	} else {
		v.Status = model.StatusNotEligible
	}
	return v
}

// numeric applies the three-way policy: no requirement passes, a missing
// candidate value fails, otherwise the candidate must meet the minimum.
func numeric(label string, candidate, required *float64) (bool, string) {
	switch {
	case required == nil:
		return true, ""
	case candidate == nil:
		return false, fmt.Sprintf("%s data missing (required: %s)", label, formatNumber(*required))
	case *candidate >= *required:
		return true, ""
	default:
		return false, fmt.Sprintf("%s below requirement (%s < %s)", label, formatNumber(*candidate), formatNumber(*required))
	}
}

// experience compares the unrounded total but reports it to two decimals.
func experience(years float64, required *float64) (bool, string) {
	if required == nil || years >= *required {
		return true, ""
	}
	return false, fmt.Sprintf("%s below requirement (%s < %s)", labelExperience, formatNumber(round2(years)), formatNumber(*required))
}

func branch(candidate string, req *requirement.Requirement) (bool, string) {
	if req.AllowsBranch(candidate) {
		return true, ""
	}
	allowed := strings.Join(req.AllowedBranches, ", ")
	code := requirement.CanonicalBranch(candidate)
	if code == "" {
		return false, fmt.Sprintf("Branch data missing (required: %s)", allowed)
	}
	return false, fmt.Sprintf("Branch not eligible (%s not in [%s])", code, allowed)
}

func appendReason(reasons []string, reason string) []string {
	if reason == "" {
		return reasons
	}
	return append(reasons, reason)
}

// formatNumber renders the shortest decimal form: 7, 7.5, 0.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
