package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/placementcell/eligibility/internal/adapters/http/api"
	"github.com/placementcell/eligibility/internal/domain/eligibility"
	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/sweep"
)

// mockDependencies implements api.Dependencies with canned responses.
type mockDependencies struct {
	submitApp model.Application
	submitErr error
	gotIDs    [2]string

	verdict  eligibility.Verdict
	checkErr error

	manifest sweep.Manifest
	sweepErr error

	req       *requirement.Requirement
	reqErr    error
	gotInput  requirement.Input
	gotPatch  requirement.Patch
	healthErr error
}

func (m *mockDependencies) Submit(_ context.Context, studentID, jobID string) (model.Application, error) {
	m.gotIDs = [2]string{studentID, jobID}
	return m.submitApp, m.submitErr
}

func (m *mockDependencies) CheckEligibility(_ context.Context, studentID, jobID string) (eligibility.Verdict, error) {
	m.gotIDs = [2]string{studentID, jobID}
	return m.verdict, m.checkErr
}

func (m *mockDependencies) Sweep(context.Context) (sweep.Manifest, error) {
	return m.manifest, m.sweepErr
}

func (m *mockDependencies) Requirement(context.Context, string) (*requirement.Requirement, error) {
	return m.req, m.reqErr
}

func (m *mockDependencies) ReplaceRequirement(_ context.Context, jobID string, in requirement.Input) (*requirement.Requirement, error) {
	m.gotInput = in
	if m.reqErr != nil {
		return nil, m.reqErr
	}
	return requirement.New(jobID, in)
}

func (m *mockDependencies) UpdateRequirement(_ context.Context, jobID string, p requirement.Patch) (*requirement.Requirement, error) {
	m.gotPatch = p
	if m.reqErr != nil {
		return nil, m.reqErr
	}
	base := m.req
	if base == nil {
		base = &requirement.Requirement{JobID: jobID}
	}
	return base.Apply(p)
}

func (m *mockDependencies) Healthy(context.Context) error { return m.healthErr }

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]any { return m.stats }

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"applications": 3}}).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestApplicationsHandler(t *testing.T) {
	Convey("Given an applications endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the submission succeeds", func() {
			deps.submitApp = model.Application{
				ID:          "a-1",
				StudentID:   "s-1",
				JobID:       "j-1",
				Status:      model.StatusNotEligible,
				Comments:    "UG CGPA below requirement (7 < 7.5)",
				SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			w := serve(mux, http.MethodPost, "/applications", `{"student_id":"s-1","job_id":"j-1"}`)

			Convey("Then it should return 201 with the stored application", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.gotIDs, ShouldResemble, [2]string{"s-1", "j-1"})
				var app model.Application
				So(json.Unmarshal(w.Body.Bytes(), &app), ShouldBeNil)
				So(app.Status, ShouldEqual, model.StatusNotEligible)
				So(app.Comments, ShouldEqual, "UG CGPA below requirement (7 < 7.5)")
			})
		})

		Convey("When the application already exists", func() {
			deps.submitErr = model.NewKind("submission.submit", model.ErrConflict, "Application already exists for this student and job")
			w := serve(mux, http.MethodPost, "/applications", `{"student_id":"s-1","job_id":"j-1"}`)

			Convey("Then it should return 409 with the conflict message", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "conflict")
				So(body["message"], ShouldEqual, "Application already exists for this student and job")
			})
		})

		Convey("When the student is unknown", func() {
			deps.submitErr = model.NewKind("profile.assemble", model.ErrNotFound, "Student not found")
			w := serve(mux, http.MethodPost, "/applications", `{"student_id":"ghost","job_id":"j-1"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["message"], ShouldEqual, "Student not found")
		})

		Convey("When the store is unavailable", func() {
			deps.submitErr = model.WrapKind("repository.tx", model.ErrStorage, errors.New("connection refused"))
			w := serve(mux, http.MethodPost, "/applications", `{"student_id":"s-1","job_id":"j-1"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w)["code"], ShouldEqual, "storage_error")
		})

		Convey("When an unclassified error occurs", func() {
			deps.submitErr = errors.New("boom")
			w := serve(mux, http.MethodPost, "/applications", `{"student_id":"s-1","job_id":"j-1"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPost, "/applications", `{not json`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When using the wrong method", func() {
			w := serve(mux, http.MethodGet, "/applications", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
		})
	})
}

func TestEligibilityHandler(t *testing.T) {
	Convey("Given an eligibility endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the check passes", func() {
			deps.verdict = eligibility.Verdict{
				Eligible: true,
				Status:   model.StatusEligible,
				Detail:   &eligibility.Criteria{TenthMeets: true, TwelfthMeets: true, UGCGPAMeets: true, PGCGPAMeets: true, ExperienceMeets: true, BranchMeets: true},
			}
			w := serve(mux, http.MethodGet, "/eligibility?student_id=s-1&job_id=j-1", "")

			Convey("Then the verdict is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotIDs, ShouldResemble, [2]string{"s-1", "j-1"})
				var v eligibility.Verdict
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.Eligible, ShouldBeTrue)
				So(v.Detail, ShouldNotBeNil)
				So(v.Detail.BranchMeets, ShouldBeTrue)
			})
		})

		Convey("When identifiers are missing", func() {
			deps.checkErr = model.NewKind("submission.check", model.ErrValidation, "student_id and job_id are required")
			w := serve(mux, http.MethodGet, "/eligibility", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "validation_error")
		})
	})
}

func TestSweepsHandler(t *testing.T) {
	Convey("Given a sweeps endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a sweep completes", func() {
			deps.manifest = sweep.Manifest{
				Items: []sweep.Item{
					{ApplicationID: "a-1", Outcome: sweep.OutcomeUpdated, Status: model.StatusEligible},
					{ApplicationID: "a-2", Outcome: sweep.OutcomeFailed, Error: "Student not found"},
				},
				Updated: 1,
				Failed:  1,
			}
			w := serve(mux, http.MethodPost, "/sweeps", "")

			Convey("Then the manifest is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var m sweep.Manifest
				So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
				So(m.Items, ShouldHaveLength, 2)
				So(m.Items[1].Error, ShouldEqual, "Student not found")
				So(m.Failed, ShouldEqual, 1)
			})
		})

		Convey("When listing fails", func() {
			deps.sweepErr = model.WrapKind("sweep.run", model.ErrStorage, errors.New("timeout"))
			w := serve(mux, http.MethodPost, "/sweeps", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestRequirementsHandler(t *testing.T) {
	Convey("Given a requirement endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When replacing a requirement", func() {
			w := serve(mux, http.MethodPut, "/jobs/j-1/requirement",
				`{"min_ug_cgpa":7.5,"allowed_branches":[" cse","ece"],"skills":"go"}`)

			Convey("Then branches come back normalised", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var r requirement.Requirement
				So(json.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
				So(r.JobID, ShouldEqual, "j-1")
				So(r.AllowedBranches, ShouldResemble, []string{"CSE", "ECE"})
				So(*r.MinUGCGPA, ShouldEqual, 7.5)
				So(r.Skills, ShouldEqual, "go")
			})
		})

		Convey("When replacing with an unknown branch", func() {
			w := serve(mux, http.MethodPut, "/jobs/j-1/requirement", `{"allowed_branches":["underwater basket"]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldEqual, "Invalid branch: UNDERWATER BASKET")
		})

		Convey("When the body has an unknown field", func() {
			w := serve(mux, http.MethodPut, "/jobs/j-1/requirement", `{"min_gpa":7}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When patching with an empty body", func() {
			w := serve(mux, http.MethodPatch, "/jobs/j-1/requirement", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldEqual, "at least one field must be provided")
		})

		Convey("When patching one field", func() {
			ug := 8.0
			deps.req = &requirement.Requirement{JobID: "j-1", MinUGCGPA: &ug, AllowedBranches: []string{"CSE"}}
			w := serve(mux, http.MethodPatch, "/jobs/j-1/requirement", `{"min_ug_cgpa":6.5}`)

			Convey("Then the other fields are kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotPatch.MinUGCGPA, ShouldNotBeNil)
				var r requirement.Requirement
				So(json.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
				So(*r.MinUGCGPA, ShouldEqual, 6.5)
				So(r.AllowedBranches, ShouldResemble, []string{"CSE"})
			})
		})

		Convey("When patching explicit nulls", func() {
			ug := 8.0
			deps.req = &requirement.Requirement{JobID: "j-1", MinUGCGPA: &ug, AllowedBranches: []string{"CSE"}, Notes: "final years"}
			w := serve(mux, http.MethodPatch, "/jobs/j-1/requirement", `{"allowed_branches":null,"notes":null}`)

			Convey("Then those fields are cleared and the rest kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotPatch.Clear, ShouldResemble, []requirement.Field{requirement.FieldAllowedBranches, requirement.FieldNotes})
				var r requirement.Requirement
				So(json.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
				So(r.AllowedBranches, ShouldBeEmpty)
				So(r.Notes, ShouldEqual, "")
				So(*r.MinUGCGPA, ShouldEqual, 8.0)
			})
		})

		Convey("When reading a requirement of an unknown job", func() {
			deps.reqErr = model.NewKind("requirement.get", model.ErrNotFound, "Job not found")
			w := serve(mux, http.MethodGet, "/jobs/ghost/requirement", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When using an unsupported method", func() {
			w := serve(mux, http.MethodDelete, "/jobs/j-1/requirement", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the service is healthy", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When the store is down", func() {
			deps.healthErr = errors.New("store closed")
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "store closed")
		})

		Convey("When scraping metrics after some traffic", func() {
			serve(mux, http.MethodGet, "/healthz", "")
			w := serve(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "placement_eligibility_http_requests_total")
		})

		Convey("When asking for stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"applications":3`)
		})
	})
}
