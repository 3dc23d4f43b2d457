package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/submission"
)

// MemoryStore keeps every table in maps guarded by one mutex. A transaction
// holds the mutex for its whole duration, so transactions are serialised and
// the duplicate check and insert of a submission cannot interleave.
type MemoryStore struct {
	mu     sync.Mutex
	closed bool
	now    func() time.Time

	students     map[string]model.Student
	academics    map[string]model.Academics
	internships  map[string][]model.Internship
	jobs         map[string]model.Job
	requirements map[string]requirement.Requirement
	applications map[string]model.Application
	byPair       map[string]string
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock used to stamp seeded applications.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:          time.Now,
		students:     make(map[string]model.Student),
		academics:    make(map[string]model.Academics),
		internships:  make(map[string][]model.Internship),
		jobs:         make(map[string]model.Job),
		requirements: make(map[string]requirement.Requirement),
		applications: make(map[string]model.Application),
		byPair:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

func pairKey(studentID, jobID string) string { return studentID + "\x00" + jobID }

// WithinTx runs fn with exclusive access. Writes are staged and applied only
// when fn returns nil.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx submission.Tx) error) error {
	const op = "repository.memory.within_tx"
	if err := ctx.Err(); err != nil {
		return model.WrapKind(op, model.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.WrapKind(op, model.ErrStorage, ErrClosed)
	}

	tx := &memTx{store: s, staged: make(map[string]model.Application)}
	if err := fn(tx); err != nil {
		return err
	}
	for _, id := range tx.order {
		app := tx.staged[id]
		s.applications[id] = app
		s.byPair[pairKey(app.StudentID, app.JobID)] = id
	}
	return nil
}

// ListPendingDecisions returns pending or never-evaluated applications
// ordered by submission time, then ID.
func (s *MemoryStore) ListPendingDecisions(ctx context.Context) ([]model.Application, error) {
	const op = "repository.memory.list_pending"
	if err := ctx.Err(); err != nil {
		return nil, model.WrapKind(op, model.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, model.WrapKind(op, model.ErrStorage, ErrClosed)
	}

	var out []model.Application
	for _, app := range s.applications {
		if app.NeedsDecision() {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetRequirement returns the requirement of an existing job, or nil.
func (s *MemoryStore) GetRequirement(_ context.Context, jobID string) (*requirement.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return nil, model.NewKind("repository.memory.get_requirement", model.ErrNotFound, "Job not found")
	}
	r, ok := s.requirements[jobID]
	if !ok {
		return nil, nil
	}
	return cloneRequirement(&r), nil
}

// SaveRequirement creates or replaces a job's requirement.
func (s *MemoryStore) SaveRequirement(_ context.Context, r *requirement.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[r.JobID]; !ok {
		return model.NewKind("repository.memory.save_requirement", model.ErrNotFound, "Job not found")
	}
	s.requirements[r.JobID] = *cloneRequirement(r)
	return nil
}

// Seed loads fixtures, replacing records with the same key. Internships of a
// seeded student replace the existing list.
func (s *MemoryStore) Seed(_ context.Context, f Fixtures) error {
	reqs, err := f.requirements()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range f.Students {
		s.students[st.ID] = st
	}
	for _, a := range f.Academics {
		s.academics[a.StudentID] = a
	}
	seen := make(map[string]bool)
	for _, in := range f.Internships {
		if !seen[in.StudentID] {
			s.internships[in.StudentID] = nil
			seen[in.StudentID] = true
		}
		s.internships[in.StudentID] = append(s.internships[in.StudentID], in)
	}
	for _, j := range f.Jobs {
		s.jobs[j.ID] = j
	}
	for _, r := range reqs {
		s.requirements[r.JobID] = *r
	}
	for _, app := range f.applications(s.now()) {
		key := pairKey(app.StudentID, app.JobID)
		if id, ok := s.byPair[key]; ok && id != app.ID {
			return model.NewKind("repository.memory.seed", model.ErrConflict, submission.DuplicateMessage)
		}
		s.applications[app.ID] = app
		s.byPair[key] = app.ID
	}
	return nil
}

// DeleteStudent removes the student with its academics and internships.
func (s *MemoryStore) DeleteStudent(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[studentID]; !ok {
		return model.NewKind("repository.memory.delete_student", model.ErrNotFound, "Student not found")
	}
	delete(s.students, studentID)
	delete(s.academics, studentID)
	delete(s.internships, studentID)
	return nil
}

// Application returns a stored application by ID.
func (s *MemoryStore) Application(_ context.Context, id string) (model.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	return cloneApplication(app), ok
}

// Stats counts stored records.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Students:     len(s.students),
		Jobs:         len(s.jobs),
		Requirements: len(s.requirements),
		Applications: len(s.applications),
		ByStatus:     make(map[string]int),
	}
	for _, app := range s.applications {
		st.ByStatus[string(app.Status)]++
	}
	return st, nil
}

// Ping fails once the store is closed.
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageErr("memstore.ping", ErrClosed)
	}
	return nil
}

// Close marks the store closed; later transactions fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx reads through to the store (whose mutex is held) and stages writes.
type memTx struct {
	store  *MemoryStore
	staged map[string]model.Application
	order  []string
}

func (t *memTx) Student(_ context.Context, studentID string) (*model.Student, error) {
	st, ok := t.store.students[studentID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (t *memTx) Academics(_ context.Context, studentID string) (*model.Academics, error) {
	a, ok := t.store.academics[studentID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *memTx) Internships(_ context.Context, studentID string) ([]model.Internship, error) {
	return append([]model.Internship(nil), t.store.internships[studentID]...), nil
}

func (t *memTx) Job(_ context.Context, jobID string) (*model.Job, error) {
	j, ok := t.store.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (t *memTx) Requirement(_ context.Context, jobID string) (*requirement.Requirement, error) {
	r, ok := t.store.requirements[jobID]
	if !ok {
		return nil, nil
	}
	return cloneRequirement(&r), nil
}

func (t *memTx) FindApplication(_ context.Context, studentID, jobID string) (*model.Application, error) {
	key := pairKey(studentID, jobID)
	for _, id := range t.order {
		if app := t.staged[id]; pairKey(app.StudentID, app.JobID) == key {
			return &app, nil
		}
	}
	id, ok := t.store.byPair[key]
	if !ok {
		return nil, nil
	}
	app := cloneApplication(t.store.applications[id])
	return &app, nil
}

func (t *memTx) InsertApplication(ctx context.Context, app *model.Application) error {
	existing, _ := t.FindApplication(ctx, app.StudentID, app.JobID)
	if existing != nil {
		return model.NewKind("repository.memory.insert_application", model.ErrConflict, submission.DuplicateMessage)
	}
	if _, ok := t.store.applications[app.ID]; ok {
		return model.NewKind("repository.memory.insert_application", model.ErrConflict, "application id already used")
	}
	t.staged[app.ID] = cloneApplication(*app)
	t.order = append(t.order, app.ID)
	return nil
}

func (t *memTx) UpdateDecision(_ context.Context, app *model.Application) error {
	current, ok := t.staged[app.ID]
	if !ok {
		current, ok = t.store.applications[app.ID]
	}
	if !ok {
		return model.NewKind("repository.memory.update_decision", model.ErrNotFound, "Application not found")
	}

	current.TenthMeets = app.TenthMeets
	current.TwelfthMeets = app.TwelfthMeets
	current.UGCGPAMeets = app.UGCGPAMeets
	current.PGCGPAMeets = app.PGCGPAMeets
	current.ExperienceMeets = app.ExperienceMeets
	current.BranchMeets = app.BranchMeets
	current.Status = app.Status
	current.Comments = app.Comments
	current.EvaluatedAt = cloneTime(app.EvaluatedAt)

	if _, staged := t.staged[app.ID]; !staged {
		t.order = append(t.order, app.ID)
	}
	t.staged[app.ID] = current
	return nil
}

func cloneApplication(app model.Application) model.Application {
	app.EvaluatedAt = cloneTime(app.EvaluatedAt)
	app.PlacedAt = cloneTime(app.PlacedAt)
	return app
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneRequirement(r *requirement.Requirement) *requirement.Requirement {
	c := *r
	if r.AllowedBranches != nil {
		c.AllowedBranches = append([]string{}, r.AllowedBranches...)
	}
	return &c
}
