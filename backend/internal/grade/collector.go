// ============================================================================
// backend/internal/grade/collector.go
// Bulk grade entry collector: accumulates per-student edits before one save
// ============================================================================

package grade

import (
	"strconv"

	"schoolhub/backend/internal/shared"
)

// Cell is one student's in-progress state on the entry sheet.
type Cell struct {
	Score    *float64 `json:"score,omitempty"`
	IsAbsent bool     `json:"is_absent"`
}

// EntrySheet accumulates a teacher's edits for one class+subject+exam before
// a single batched submission. It is an immutable value: every reducer
// returns a new sheet, which keeps the logic testable without a UI harness.
type EntrySheet struct {
	ClassID   string
	SubjectID string
	Term      string
	ExamType  string
	MaxScore  float64
	Cells     map[string]Cell // keyed by student id
}

// NewEntrySheet creates an empty sheet for one assessment.
func NewEntrySheet(classID, subjectID, term, examType string, maxScore float64) EntrySheet {
	if maxScore <= 0 {
		maxScore = shared.DefaultMaxScore
	}
	return EntrySheet{
		ClassID:   classID,
		SubjectID: subjectID,
		Term:      term,
		ExamType:  examType,
		MaxScore:  maxScore,
		Cells:     map[string]Cell{},
	}
}

// clone copies the sheet with a fresh cell map.
func (s EntrySheet) clone() EntrySheet {
	cells := make(map[string]Cell, len(s.Cells)+1)
	for id, c := range s.Cells {
		cells[id] = c
	}
	s.Cells = cells
	return s
}

// SetScore applies a raw keystroke value for a student. Unparsable or
// out-of-range input is silently ignored so incremental typing does not
// flicker; an empty value clears the cell's score. A valid score clears the
// student's absence flag.
func (s EntrySheet) SetScore(studentID, raw string) EntrySheet {
	if raw == "" {
		next := s.clone()
		next.Cells[studentID] = Cell{}
		return next
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > s.MaxScore {
		return s
	}

	next := s.clone()
	next.Cells[studentID] = Cell{Score: &value}
	return next
}

// ToggleAbsent flips a student's absence. Marking absent clears the score so
// the student is excluded from the save; unmarking resets the score to 0.
func (s EntrySheet) ToggleAbsent(studentID string) EntrySheet {
	next := s.clone()

	if cell, ok := next.Cells[studentID]; ok && cell.IsAbsent {
		zero := 0.0
		next.Cells[studentID] = Cell{Score: &zero}
		return next
	}

	next.Cells[studentID] = Cell{IsAbsent: true}
	return next
}

// Payloads filters out absent and untouched students and maps the remainder
// to submission payloads sharing the sheet's assessment context. It fails
// with NoGradesToSave when nothing remains; no store call is made either way.
func (s EntrySheet) Payloads() ([]SubmissionInput, error) {
	var payloads []SubmissionInput
	maxScore := s.MaxScore

	for studentID, cell := range s.Cells {
		if cell.IsAbsent || cell.Score == nil {
			continue
		}
		score := *cell.Score
		payloads = append(payloads, SubmissionInput{
			StudentID: studentID,
			SubjectID: s.SubjectID,
			ClassID:   s.ClassID,
			Term:      s.Term,
			ExamType:  s.ExamType,
			Score:     &score,
			MaxScore:  &maxScore,
		})
	}

	if len(payloads) == 0 {
		return nil, errNoGradesToSave()
	}
	return payloads, nil
}
