// ============================================================================
// backend/internal/grade/collector_test.go
// ============================================================================

package grade

import (
	"testing"
)

func TestEntrySheetSetScore(t *testing.T) {
	sheet := NewEntrySheet("class-1", "subj-math", "2026-T1", "midterm", 100)

	t.Run("valid score is recorded", func(t *testing.T) {
		next := sheet.SetScore("student-1", "85.5")
		cell := next.Cells["student-1"]
		if cell.Score == nil || *cell.Score != 85.5 {
			t.Fatalf("cell = %+v, want score 85.5", cell)
		}
	})

	t.Run("unparsable input is silently ignored", func(t *testing.T) {
		withScore := sheet.SetScore("student-1", "85")
		next := withScore.SetScore("student-1", "8x")
		cell := next.Cells["student-1"]
		if cell.Score == nil || *cell.Score != 85 {
			t.Fatalf("garbage input should leave previous score, got %+v", cell)
		}
	})

	t.Run("out of range input is silently ignored", func(t *testing.T) {
		for _, raw := range []string{"-1", "101", "9999"} {
			next := sheet.SetScore("student-1", raw)
			if _, ok := next.Cells["student-1"]; ok {
				t.Errorf("input %q should not create a cell", raw)
			}
		}
	})

	t.Run("empty input clears the score", func(t *testing.T) {
		next := sheet.SetScore("student-1", "85").SetScore("student-1", "")
		cell := next.Cells["student-1"]
		if cell.Score != nil {
			t.Fatalf("expected cleared score, got %+v", cell)
		}
	})

	t.Run("custom max score widens the range", func(t *testing.T) {
		wide := NewEntrySheet("class-1", "subj-math", "2026-T1", "final", 150)
		next := wide.SetScore("student-1", "140")
		if cell := next.Cells["student-1"]; cell.Score == nil || *cell.Score != 140 {
			t.Fatalf("cell = %+v, want score 140", cell)
		}
	})

	t.Run("reducers do not mutate the receiver", func(t *testing.T) {
		next := sheet.SetScore("student-1", "85")
		if len(sheet.Cells) != 0 {
			t.Fatalf("original sheet mutated: %+v", sheet.Cells)
		}
		_ = next.ToggleAbsent("student-1")
		if next.Cells["student-1"].IsAbsent {
			t.Fatal("intermediate sheet mutated by ToggleAbsent")
		}
	})
}

func TestEntrySheetToggleAbsent(t *testing.T) {
	sheet := NewEntrySheet("class-1", "subj-math", "2026-T1", "midterm", 100)

	t.Run("marking absent clears the score", func(t *testing.T) {
		next := sheet.SetScore("student-1", "85").ToggleAbsent("student-1")
		cell := next.Cells["student-1"]
		if !cell.IsAbsent || cell.Score != nil {
			t.Fatalf("cell = %+v, want absent with no score", cell)
		}
	})

	t.Run("unmarking resets score to zero", func(t *testing.T) {
		next := sheet.ToggleAbsent("student-1").ToggleAbsent("student-1")
		cell := next.Cells["student-1"]
		if cell.IsAbsent || cell.Score == nil || *cell.Score != 0 {
			t.Fatalf("cell = %+v, want present with score 0", cell)
		}
	})

	t.Run("valid score clears absence", func(t *testing.T) {
		next := sheet.ToggleAbsent("student-1").SetScore("student-1", "70")
		cell := next.Cells["student-1"]
		if cell.IsAbsent || cell.Score == nil || *cell.Score != 70 {
			t.Fatalf("cell = %+v, want present with score 70", cell)
		}
	})
}

func TestEntrySheetPayloads(t *testing.T) {
	sheet := NewEntrySheet("class-1", "subj-math", "2026-T1", "midterm", 100)

	t.Run("absent and untouched students are excluded", func(t *testing.T) {
		next := sheet.
			SetScore("student-1", "85").
			SetScore("student-2", "70").
			ToggleAbsent("student-2").
			SetScore("student-3", "").
			ToggleAbsent("student-4")

		payloads, err := next.Payloads()
		if err != nil {
			t.Fatalf("expected payloads, got %v", err)
		}
		if len(payloads) != 1 {
			t.Fatalf("expected 1 payload, got %d: %+v", len(payloads), payloads)
		}
		p := payloads[0]
		if p.StudentID != "student-1" || p.Score == nil || *p.Score != 85 {
			t.Fatalf("payload = %+v, want student-1 with score 85", p)
		}
		if p.ClassID != "class-1" || p.SubjectID != "subj-math" || p.Term != "2026-T1" || p.ExamType != "midterm" {
			t.Errorf("payload missing shared assessment context: %+v", p)
		}
		if p.MaxScore == nil || *p.MaxScore != 100 {
			t.Errorf("payload max score = %v, want 100", p.MaxScore)
		}
	})

	t.Run("empty sheet fails with no grades to save", func(t *testing.T) {
		if _, err := sheet.Payloads(); !IsKind(err, KindNoGradesToSave) {
			t.Fatalf("expected no grades to save, got %v", err)
		}
	})

	t.Run("all absent fails with no grades to save", func(t *testing.T) {
		next := sheet.ToggleAbsent("student-1").ToggleAbsent("student-2")
		if _, err := next.Payloads(); !IsKind(err, KindNoGradesToSave) {
			t.Fatalf("expected no grades to save, got %v", err)
		}
	})

	t.Run("zero max score falls back to default", func(t *testing.T) {
		fallback := NewEntrySheet("class-1", "subj-math", "2026-T1", "quiz", 0)
		if fallback.MaxScore != 100 {
			t.Fatalf("max score = %v, want default 100", fallback.MaxScore)
		}
	})
}
