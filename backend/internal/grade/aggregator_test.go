// ============================================================================
// backend/internal/grade/aggregator_test.go
// ============================================================================

package grade

import (
	"fmt"
	"testing"
	"time"

	"schoolhub/backend/internal/shared"
)

func entryAt(id, classID, subjectID, submittedBy, status string, score *float64, at time.Time) shared.GradeEntry {
	return shared.GradeEntry{
		ID:          id,
		SchoolID:    "school-A",
		StudentID:   "student-" + id,
		SubjectID:   subjectID,
		ClassID:     classID,
		Term:        "2026-T1",
		ExamType:    "midterm",
		Score:       score,
		MaxScore:    100,
		Status:      status,
		SubmittedBy: submittedBy,
		SubmittedAt: at,
	}
}

func TestBuildGroups(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	t.Run("single group aggregates scores", func(t *testing.T) {
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), base),
			entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(80), base),
			entryAt("3", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(90), base),
		}

		groups := BuildGroups(entries)
		if len(groups) != 1 {
			t.Fatalf("expected 1 group, got %d", len(groups))
		}
		g := groups[0]
		if g.Count != 3 {
			t.Errorf("count = %d, want 3", g.Count)
		}
		if g.AverageScore != 80.0 {
			t.Errorf("average = %v, want 80.0", g.AverageScore)
		}
		if g.MinScore != 70 || g.MaxScore != 90 {
			t.Errorf("min/max = %v/%v, want 70/90", g.MinScore, g.MaxScore)
		}
		if g.Status != shared.GradeStatusSubmitted {
			t.Errorf("status = %s, want submitted", g.Status)
		}
		if len(g.EntryIDs) != 3 {
			t.Errorf("entry ids = %v, want 3 ids", g.EntryIDs)
		}
	})

	t.Run("splits by submitter and subject", func(t *testing.T) {
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), base),
			entryAt("2", "class-1", "subj-math", "teacher-2", shared.GradeStatusSubmitted, ptr(80), base),
			entryAt("3", "class-1", "subj-sci", "teacher-1", shared.GradeStatusSubmitted, ptr(90), base),
		}
		if got := len(BuildGroups(entries)); got != 3 {
			t.Fatalf("expected 3 groups, got %d", got)
		}
	})

	t.Run("order independent of member order", func(t *testing.T) {
		a := entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), base)
		b := entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusApproved, ptr(90), base.Add(time.Minute))

		fwd := BuildGroups([]shared.GradeEntry{a, b})[0]
		rev := BuildGroups([]shared.GradeEntry{b, a})[0]

		if fwd.AverageScore != rev.AverageScore || fwd.MinScore != rev.MinScore ||
			fwd.MaxScore != rev.MaxScore || fwd.Status != rev.Status ||
			!fwd.SubmittedAt.Equal(rev.SubmittedAt) {
			t.Errorf("fold depends on member order: %+v vs %+v", fwd, rev)
		}
	})

	t.Run("score-less entries count but do not skew stats", func(t *testing.T) {
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(80), base),
			entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, nil, base),
		}
		g := BuildGroups(entries)[0]
		if g.Count != 2 {
			t.Errorf("count = %d, want 2", g.Count)
		}
		if g.AverageScore != 80.0 {
			t.Errorf("average = %v, want 80.0", g.AverageScore)
		}
		if g.MinScore != 80 || g.MaxScore != 80 {
			t.Errorf("min/max = %v/%v, want 80/80", g.MinScore, g.MaxScore)
		}
	})

	t.Run("average rounds to one decimal", func(t *testing.T) {
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), base),
			entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(81), base),
			entryAt("3", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(90), base),
		}
		g := BuildGroups(entries)[0]
		if g.AverageScore != 80.3 {
			t.Errorf("average = %v, want 80.3", g.AverageScore)
		}
	})

	t.Run("dominant status with tie prefers earliest stage", func(t *testing.T) {
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), base),
			entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusApproved, ptr(80), base),
		}
		g := BuildGroups(entries)[0]
		if g.Status != shared.GradeStatusSubmitted {
			t.Errorf("tied status = %s, want submitted", g.Status)
		}
	})

	t.Run("group submitted_at is the latest member", func(t *testing.T) {
		later := base.Add(time.Hour)
		entries := []shared.GradeEntry{
			entryAt("1", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(70), later),
			entryAt("2", "class-1", "subj-math", "teacher-1", shared.GradeStatusSubmitted, ptr(80), base),
		}
		g := BuildGroups(entries)[0]
		if !g.SubmittedAt.Equal(later) {
			t.Errorf("submitted_at = %v, want %v", g.SubmittedAt, later)
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		if got := BuildGroups(nil); len(got) != 0 {
			t.Errorf("expected no groups, got %d", len(got))
		}
	})
}

func TestDistinctGroupRefs(t *testing.T) {
	var groups []shared.GradeSubmissionGroup
	for i := 0; i < 3; i++ {
		groups = append(groups, shared.GradeSubmissionGroup{
			ClassID:     "class-1",
			SubjectID:   fmt.Sprintf("subj-%d", i),
			SubmittedBy: "teacher-1",
		})
	}

	classIDs, subjectIDs, userIDs := DistinctGroupRefs(groups)
	if len(classIDs) != 1 || classIDs[0] != "class-1" {
		t.Errorf("classIDs = %v, want [class-1]", classIDs)
	}
	if len(subjectIDs) != 3 {
		t.Errorf("subjectIDs = %v, want 3 distinct", subjectIDs)
	}
	if len(userIDs) != 1 || userIDs[0] != "teacher-1" {
		t.Errorf("userIDs = %v, want [teacher-1]", userIDs)
	}
}
