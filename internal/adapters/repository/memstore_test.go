package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/submission"
	. "github.com/smartystreets/goconvey/convey"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	f, err := LoadFixtures("testdata/seed.yaml")
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	s := NewMemoryStore()
	if err := s.Seed(context.Background(), f); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestMemoryStoreSeed(t *testing.T) {
	Convey("Given a store seeded from YAML", t, func() {
		ctx := context.Background()
		s := seededStore(t)

		Convey("Then counts should reflect the fixtures", func() {
			st, err := s.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.Students, ShouldEqual, 2)
			So(st.Jobs, ShouldEqual, 2)
			So(st.Requirements, ShouldEqual, 1)
			So(st.Applications, ShouldEqual, 1)
			So(st.ByStatus["pending"], ShouldEqual, 1)
		})

		Convey("Then requirement branches should be normalised", func() {
			r, err := s.GetRequirement(ctx, "j-200")
			So(err, ShouldBeNil)
			So(r.AllowedBranches, ShouldResemble, []string{"CSE", "ECE"})
			So(*r.MinUGCGPA, ShouldEqual, 7.5)
		})

		Convey("Then a job without a requirement returns nil", func() {
			r, err := s.GetRequirement(ctx, "j-201")
			So(err, ShouldBeNil)
			So(r, ShouldBeNil)
		})

		Convey("Then an unknown job is not found", func() {
			_, err := s.GetRequirement(ctx, "nope")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then seeded applications are pending", func() {
			pending, err := s.ListPendingDecisions(ctx)
			So(err, ShouldBeNil)
			So(pending, ShouldHaveLength, 1)
			So(pending[0].ID, ShouldEqual, "a-300")
			So(pending[0].Status, ShouldEqual, model.StatusPending)
		})
	})
}

func TestMemoryStoreTransactions(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		ctx := context.Background()
		s := seededStore(t)
		now := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)

		Convey("When a transaction inserts an application and commits", func() {
			err := s.WithinTx(ctx, func(tx submission.Tx) error {
				return tx.InsertApplication(ctx, &model.Application{
					ID: "a-1", StudentID: "s-100", JobID: "j-200",
					Status: model.StatusEligible, SubmittedAt: now, EvaluatedAt: &now,
				})
			})

			Convey("Then the application is visible afterwards", func() {
				So(err, ShouldBeNil)
				app, ok := s.Application(ctx, "a-1")
				So(ok, ShouldBeTrue)
				So(app.Status, ShouldEqual, model.StatusEligible)
			})

			Convey("Then a second insert for the pair conflicts", func() {
				err := s.WithinTx(ctx, func(tx submission.Tx) error {
					return tx.InsertApplication(ctx, &model.Application{ID: "a-2", StudentID: "s-100", JobID: "j-200"})
				})
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a transaction fails after inserting", func() {
			boom := errors.New("boom")
			err := s.WithinTx(ctx, func(tx submission.Tx) error {
				if err := tx.InsertApplication(ctx, &model.Application{ID: "a-9", StudentID: "s-100", JobID: "j-201"}); err != nil {
					return err
				}
				found, err := tx.FindApplication(ctx, "s-100", "j-201")
				So(err, ShouldBeNil)
				So(found, ShouldNotBeNil)
				return boom
			})

			Convey("Then nothing is persisted", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				_, ok := s.Application(ctx, "a-9")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a decision is updated", func() {
			err := s.WithinTx(ctx, func(tx submission.Tx) error {
				return tx.UpdateDecision(ctx, &model.Application{
					ID: "a-300", Status: model.StatusNotEligible, Comments: "Branch not eligible (MECH not in [CSE, ECE])",
					EvaluatedAt: &now,
				})
			})

			Convey("Then only decision fields change and the item leaves the pending list", func() {
				So(err, ShouldBeNil)
				app, _ := s.Application(ctx, "a-300")
				So(app.StudentID, ShouldEqual, "s-101")
				So(app.Status, ShouldEqual, model.StatusNotEligible)
				pending, _ := s.ListPendingDecisions(ctx)
				So(pending, ShouldBeEmpty)
			})
		})

		Convey("When updating an unknown application", func() {
			err := s.WithinTx(ctx, func(tx submission.Tx) error {
				return tx.UpdateDecision(ctx, &model.Application{ID: "ghost"})
			})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the store is closed", func() {
			So(s.Ping(ctx), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
			So(errors.Is(s.Ping(ctx), model.ErrStorage), ShouldBeTrue)
			err := s.WithinTx(ctx, func(submission.Tx) error { return nil })
			So(errors.Is(err, model.ErrStorage), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreRecords(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		ctx := context.Background()
		s := seededStore(t)

		Convey("When reading a profile source inside a transaction", func() {
			var (
				student   *model.Student
				academics *model.Academics
				interns   []model.Internship
				missing   *model.Academics
			)
			err := s.WithinTx(ctx, func(tx submission.Tx) error {
				student, _ = tx.Student(ctx, "s-100")
				academics, _ = tx.Academics(ctx, "s-100")
				interns, _ = tx.Internships(ctx, "s-100")
				missing, _ = tx.Academics(ctx, "s-101")
				return nil
			})

			So(err, ShouldBeNil)
			So(student.Branch, ShouldEqual, "CSE")
			So(*academics.TwelfthPct, ShouldEqual, 88.0)
			So(academics.PGCGPA, ShouldBeNil)
			So(interns, ShouldHaveLength, 2)
			So(missing, ShouldBeNil)
		})

		Convey("When saving a requirement", func() {
			r, err := requirement.New("j-201", requirement.Input{MinTenthPct: func() *float64 { v := 60.0; return &v }()})
			So(err, ShouldBeNil)
			So(s.SaveRequirement(ctx, r), ShouldBeNil)

			Convey("Then it can be read back as an independent copy", func() {
				got, err := s.GetRequirement(ctx, "j-201")
				So(err, ShouldBeNil)
				So(*got.MinTenthPct, ShouldEqual, 60.0)
			})
		})

		Convey("When saving a requirement for an unknown job", func() {
			err := s.SaveRequirement(ctx, &requirement.Requirement{JobID: "ghost"})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When deleting a student", func() {
			So(s.DeleteStudent(ctx, "s-100"), ShouldBeNil)

			Convey("Then the student and dependent rows are gone", func() {
				var student *model.Student
				_ = s.WithinTx(ctx, func(tx submission.Tx) error {
					student, _ = tx.Student(ctx, "s-100")
					return nil
				})
				So(student, ShouldBeNil)
				So(errors.Is(s.DeleteStudent(ctx, "s-100"), model.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestParseFixtures(t *testing.T) {
	Convey("Given seed data", t, func() {
		Convey("When the YAML is malformed", func() {
			_, err := ParseFixtures([]byte("students: [unterminated"))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a requirement has an invalid branch", func() {
			f, err := ParseFixtures([]byte("jobs: [{id: j}]\nrequirements: [{job_id: j, allowed_branches: [ARTS]}]\n"))
			So(err, ShouldBeNil)
			err = NewMemoryStore().Seed(context.Background(), f)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := LoadFixtures("testdata/missing.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}
