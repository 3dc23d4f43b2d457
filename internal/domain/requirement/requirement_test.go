package requirement_test

import (
	"errors"
	"testing"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeBranches(t *testing.T) {
	Convey("Given raw allowed-branches input", t, func() {
		Convey("When the input is nil", func() {
			out, err := requirement.NormalizeBranches(nil)

			Convey("Then there is no constraint", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeNil)
			})
		})

		Convey("When the input mixes case and whitespace", func() {
			out, err := requirement.NormalizeBranches([]any{" cse", "Ece ", "mech"})

			Convey("Then every entry should be trimmed and uppercased", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []string{"CSE", "ECE", "MECH"})
			})
		})

		Convey("When the input contains duplicates", func() {
			out, err := requirement.NormalizeBranches([]string{"cse", "CSE"})

			Convey("Then duplicates should pass through", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []string{"CSE", "CSE"})
			})
		})

		Convey("When the input is an empty array", func() {
			out, err := requirement.NormalizeBranches([]any{})

			Convey("Then it normalises to an empty set", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the input is not an array", func() {
			_, err := requirement.NormalizeBranches("CSE")

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When an entry is outside the enumeration", func() {
			_, err := requirement.NormalizeBranches([]any{"cse", " underwater basket "})

			Convey("Then the error should name the normalised value", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "Invalid branch: UNDERWATER BASKET")
			})
		})

		Convey("When an entry is not a string", func() {
			_, err := requirement.NormalizeBranches([]any{"CSE", 42.0})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "Invalid branch: 42")
			})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given requirement input", t, func() {
		Convey("When thresholds are in range", func() {
			r, err := requirement.New("job-1", requirement.Input{
				MinUGCGPA:       ptr(7.5),
				MinTenthPct:     ptr(60.0),
				AllowedBranches: []any{"cse", "ece"},
			})

			Convey("Then a normalised requirement is returned", func() {
				So(err, ShouldBeNil)
				So(r.JobID, ShouldEqual, "job-1")
				So(*r.MinUGCGPA, ShouldEqual, 7.5)
				So(r.AllowedBranches, ShouldResemble, []string{"CSE", "ECE"})
			})
		})

		Convey("When a CGPA is above ten", func() {
			_, err := requirement.New("job-1", requirement.Input{MinUGCGPA: ptr(11.0)})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "min_ug_cgpa")
			})
		})

		Convey("When a percentage is negative", func() {
			_, err := requirement.New("job-1", requirement.Input{MinTwelfthPct: ptr(-1.0)})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When experience or backlogs are negative", func() {
			_, errExp := requirement.New("job-1", requirement.Input{MinExperienceYears: ptr(-0.5)})
			_, errBacklog := requirement.New("job-1", requirement.Input{MaxBacklogs: ptr(-1)})
			So(errors.Is(errExp, model.ErrValidation), ShouldBeTrue)
			So(errors.Is(errBacklog, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the job id is missing", func() {
			_, err := requirement.New("", requirement.Input{})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestAllowsBranch(t *testing.T) {
	Convey("Given allowed-branch sets", t, func() {
		restricted := &requirement.Requirement{AllowedBranches: []string{"CSE", "ECE"}}

		Convey("Then matching ignores case and whitespace", func() {
			So(restricted.AllowsBranch("cse"), ShouldBeTrue)
			So(restricted.AllowsBranch(" CSE "), ShouldBeTrue)
			So(restricted.AllowsBranch("mech"), ShouldBeFalse)
			So(restricted.AllowsBranch(""), ShouldBeFalse)
		})

		Convey("Then an empty or nil set allows any branch", func() {
			So((&requirement.Requirement{}).AllowsBranch("MECH"), ShouldBeTrue)
			So((&requirement.Requirement{AllowedBranches: []string{}}).AllowsBranch(""), ShouldBeTrue)
			var none *requirement.Requirement
			So(none.AnyBranch(), ShouldBeTrue)
		})

		Convey("Then ALL lifts the restriction", func() {
			all := &requirement.Requirement{AllowedBranches: []string{"CSE", requirement.BranchAll}}
			So(all.AllowsBranch("CIVIL"), ShouldBeTrue)
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given an existing requirement", t, func() {
		base := &requirement.Requirement{JobID: "job-1", MinUGCGPA: ptr(7.0), AllowedBranches: []string{"CSE"}}

		Convey("When the patch is empty", func() {
			_, err := base.Apply(requirement.Patch{})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "at least one field must be provided")
			})
		})

		Convey("When the patch changes one threshold and the branches", func() {
			next, err := base.Apply(requirement.Patch{MinPGCGPA: ptr(6.5), AllowedBranches: []any{"it"}})

			Convey("Then the merged copy carries both and the original is untouched", func() {
				So(err, ShouldBeNil)
				So(*next.MinUGCGPA, ShouldEqual, 7.0)
				So(*next.MinPGCGPA, ShouldEqual, 6.5)
				So(next.AllowedBranches, ShouldResemble, []string{"IT"})
				So(base.MinPGCGPA, ShouldBeNil)
				So(base.AllowedBranches, ShouldResemble, []string{"CSE"})
			})
		})

		Convey("When the patch clears the branches", func() {
			next, err := base.Apply(requirement.Patch{AllowedBranches: []any{}})
			So(err, ShouldBeNil)
			So(next.AnyBranch(), ShouldBeTrue)
		})

		Convey("When the patch clears fields with explicit nulls", func() {
			withNotes := *base
			withNotes.Notes = "backlogs allowed"
			withNotes.MaxBacklogs = ptr(2)
			next, err := withNotes.Apply(requirement.Patch{Clear: []requirement.Field{
				requirement.FieldAllowedBranches, requirement.FieldMinUGCGPA,
				requirement.FieldNotes, requirement.FieldMaxBacklogs,
			}})

			Convey("Then they become unconstrained and the original is untouched", func() {
				So(err, ShouldBeNil)
				So(next.AnyBranch(), ShouldBeTrue)
				So(next.MinUGCGPA, ShouldBeNil)
				So(next.MaxBacklogs, ShouldBeNil)
				So(next.Notes, ShouldEqual, "")
				So(*withNotes.MinUGCGPA, ShouldEqual, 7.0)
				So(withNotes.AllowedBranches, ShouldResemble, []string{"CSE"})
			})
		})

		Convey("When the patch clears an unknown field", func() {
			_, err := base.Apply(requirement.Patch{Clear: []requirement.Field{"salary"}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the patch sets text fields", func() {
			next, err := base.Apply(requirement.Patch{Skills: ptr("go, sql"), Notes: ptr("")})
			So(err, ShouldBeNil)
			So(next.Skills, ShouldEqual, "go, sql")
		})

		Convey("When the patch carries an invalid branch", func() {
			_, err := base.Apply(requirement.Patch{AllowedBranches: []any{"xyz"}})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestBranches(t *testing.T) {
	Convey("Given the branch enumeration", t, func() {
		all := requirement.Branches()

		Convey("Then it is sorted and contains the well-known codes", func() {
			So(all, ShouldContain, "CSE")
			So(all, ShouldContain, "ALL")
			So(requirement.IsBranch("cse"), ShouldBeFalse)
			So(requirement.IsBranch("CSE"), ShouldBeTrue)
			for i := 1; i < len(all); i++ {
				So(all[i-1] < all[i], ShouldBeTrue)
			}
		})
	})
}
