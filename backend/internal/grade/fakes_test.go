// ============================================================================
// backend/internal/grade/fakes_test.go
// In-memory Store and Directory fakes for grade tests
// ============================================================================

package grade

import (
	"context"
	"sort"
	"time"

	"schoolhub/backend/internal/shared"
)

// memStore is an in-memory Store + Directory with the same upsert and
// all-or-nothing transition semantics as the MongoDB implementation.
type memStore struct {
	entries     map[string]*shared.GradeEntry // by id
	byKey       map[shared.GradeKey]string    // natural key -> id
	classes     map[string]*shared.Class
	subjects    map[string]string // id -> name
	users       map[string]string // id -> name
	enrollments map[string]map[string]bool // classID -> studentID -> active

	failNext error // returned by the next Store call, then cleared; Directory reads are unaffected
}

func newMemStore() *memStore {
	return &memStore{
		entries:     make(map[string]*shared.GradeEntry),
		byKey:       make(map[shared.GradeKey]string),
		classes:     make(map[string]*shared.Class),
		subjects:    make(map[string]string),
		users:       make(map[string]string),
		enrollments: make(map[string]map[string]bool),
	}
}

func (m *memStore) addClass(class *shared.Class) {
	m.classes[class.ID] = class
}

func (m *memStore) enroll(classID string, studentIDs ...string) {
	if m.enrollments[classID] == nil {
		m.enrollments[classID] = make(map[string]bool)
	}
	for _, id := range studentIDs {
		m.enrollments[classID][id] = true
	}
}

func (m *memStore) takeErr() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) FindByKey(_ context.Context, key shared.GradeKey) (*shared.GradeEntry, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	id, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *m.entries[id]
	return &copied, nil
}

func (m *memStore) Upsert(_ context.Context, entry *shared.GradeEntry) (bool, error) {
	if err := m.takeErr(); err != nil {
		return false, err
	}
	key := entry.Key()
	copied := *entry

	if id, ok := m.byKey[key]; ok {
		copied.ID = id
		m.entries[id] = &copied
		return false, nil
	}
	m.byKey[key] = entry.ID
	m.entries[entry.ID] = &copied
	return true, nil
}

func (m *memStore) ListForReview(_ context.Context, schoolID string) ([]shared.GradeEntry, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var entries []shared.GradeEntry
	for _, e := range m.entries {
		if e.SchoolID != schoolID || e.Status == shared.GradeStatusDraft || e.SubmittedAt.IsZero() {
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	return entries, nil
}

func (m *memStore) ListByIDs(_ context.Context, schoolID string, ids []string) ([]shared.GradeEntry, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var entries []shared.GradeEntry
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || (schoolID != "" && e.SchoolID != schoolID) {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (m *memStore) TransitionAll(_ context.Context, schoolID string, ids []string, from, to, byUserID string, at time.Time) error {
	if err := m.takeErr(); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return errInvalidTransition(from, to)
	}

	matched := make([]*shared.GradeEntry, 0, len(ids))
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || e.Status != from || (schoolID != "" && e.SchoolID != schoolID) {
			continue
		}
		matched = append(matched, e)
	}
	if len(matched) != len(ids) {
		return errInvalidTransition(from, to)
	}

	for _, e := range matched {
		e.Status = to
		switch to {
		case shared.GradeStatusApproved:
			e.ApprovedBy = byUserID
			e.ApprovedAt = at
		case shared.GradeStatusReleased:
			e.ReleasedAt = at
			e.IsReleased = true
			e.IsImmutable = true
		}
	}
	return nil
}

func (m *memStore) ListReleasedForStudent(_ context.Context, schoolID, studentID string) ([]shared.GradeEntry, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var entries []shared.GradeEntry
	for _, e := range m.entries {
		if e.SchoolID == schoolID && e.StudentID == studentID && e.IsReleased {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (m *memStore) ListForClassTerm(_ context.Context, schoolID, classID, term string) ([]shared.GradeEntry, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var entries []shared.GradeEntry
	for _, e := range m.entries {
		if e.SchoolID != schoolID || e.ClassID != classID {
			continue
		}
		if term != "" && e.Term != term {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (m *memStore) GetClass(_ context.Context, classID string) (*shared.Class, error) {
	class, ok := m.classes[classID]
	if !ok {
		return nil, nil
	}
	copied := *class
	return &copied, nil
}

func (m *memStore) IsStudentEnrolled(_ context.Context, studentID, classID string) (bool, error) {
	return m.enrollments[classID][studentID], nil
}

func (m *memStore) ClassNames(_ context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if class, ok := m.classes[id]; ok {
			names[id] = class.Name
		}
	}
	return names, nil
}

func (m *memStore) SubjectNames(_ context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := m.subjects[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func (m *memStore) UserNames(_ context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := m.users[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

// ============================================================================
// Fixture helpers
// ============================================================================

func ptr(v float64) *float64 { return &v }

func testActor(role, userID, schoolID string) shared.Actor {
	return shared.Actor{UserID: userID, Role: role, SchoolID: schoolID}
}

// newTestService wires a Service over the fake with a generous rate limit.
func newTestService(store *memStore) *Service {
	return NewService(store, store, shared.NewRateLimiter(1000, time.Minute), shared.NopAudit{})
}

// seedClass installs a class with one assigned teacher and enrolled students.
func seedClass(store *memStore, classID, schoolID, teacherID string, studentIDs ...string) {
	store.addClass(&shared.Class{
		ID:         classID,
		SchoolID:   schoolID,
		Name:       "Class " + classID,
		TeacherIDs: []string{teacherID},
	})
	store.enroll(classID, studentIDs...)
}

func validInput(studentID string) SubmissionInput {
	return SubmissionInput{
		StudentID: studentID,
		SubjectID: "subj-math",
		ClassID:   "class-1",
		Term:      "2026-T1",
		ExamType:  "midterm",
		Score:     ptr(85),
	}
}
