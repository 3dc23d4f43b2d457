// Package requirement models a job's eligibility criteria and normalises the
// allowed-branch list.
package requirement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/placementcell/eligibility/internal/domain/model"
)

// BranchAll in an allowed set lifts the branch restriction.
const BranchAll = "ALL"

// branches is the fixed enumeration of department codes.
var branches = map[string]struct{}{ //nolint:gochecknoglobals // immutable lookup table
	"CSE":     {},
	"IT":      {},
	"ECE":     {},
	"EEE":     {},
	"EE":      {},
	"MECH":    {},
	"CIVIL":   {},
	"CHEM":    {},
	"AIDS":    {},
	"AIML":    {},
	"BIOTECH": {},
	"MBA":     {},
	"MCA":     {},
	BranchAll: {},
}

// Branches returns the enumeration in sorted order.
func Branches() []string {
	out := make([]string, 0, len(branches))
	for b := range branches {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// IsBranch reports whether code (already normalised) is a known branch.
func IsBranch(code string) bool {
	_, ok := branches[code]
	return ok
}

// CanonicalBranch trims and uppercases a branch code.
func CanonicalBranch(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeBranches validates and canonicalises an allowed-branches value as
// it arrives from a decoded request. nil means no constraint. Any value that
// is not a list fails, as does any element outside the enumeration.
// Duplicates are kept as given.
func NormalizeBranches(input any) ([]string, error) {
	const op = "requirement.normalize_branches"

	var raw []any
	switch v := input.(type) {
	case nil:
		return nil, nil
	case []string:
		raw = make([]any, len(v))
		for i, s := range v {
			raw[i] = s
		}
	case []any:
		raw = v
	default:
		return nil, model.NewKind(op, model.ErrValidation, "allowed_branches must be an array")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, model.NewKind(op, model.ErrValidation, fmt.Sprintf("Invalid branch: %v", item))
		}
		code := CanonicalBranch(s)
		if !IsBranch(code) {
			return nil, model.NewKind(op, model.ErrValidation, "Invalid branch: "+code)
		}
		out = append(out, code)
	}
	return out, nil
}
