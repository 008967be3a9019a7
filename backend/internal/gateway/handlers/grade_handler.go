// ============================================================================
// backend/internal/gateway/handlers/grade_handler.go
// HTTP handlers for the grade lifecycle
// ============================================================================

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/backend/internal/gateway/util"
	"schoolhub/backend/internal/grade"
	"schoolhub/backend/internal/shared"
)

// GradeHandler exposes the grade service over REST.
type GradeHandler struct {
	Grades *grade.Service
}

// SubmitGradeRequest mirrors the JSON input for POST /grades/submit
type SubmitGradeRequest struct {
	grade.SubmissionInput
	Draft bool `json:"draft,omitempty"`
}

// BulkGradeRequest mirrors the JSON input for POST /grades/bulk
type BulkGradeRequest struct {
	ClassID   string  `json:"class_id"`
	SubjectID string  `json:"subject_id"`
	Term      string  `json:"term"`
	ExamType  string  `json:"exam_type"`
	MaxScore  float64 `json:"max_score,omitempty"`
	Scores    map[string]string `json:"scores"`  // student_id -> raw score text
	Absent    []string          `json:"absent"`  // student_ids marked absent
}

// EntryIDsRequest mirrors the JSON input for approve/release operations.
type EntryIDsRequest struct {
	GradeIDs []string `json:"grade_ids"`
}

// SubmitGrade handles POST /grades/submit
// Validates and writes one grade entry for the acting teacher or principal.
func (h *GradeHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticated actor
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// 2. Decode body
	var req SubmitGradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 3. Call the grade service
	result, err := h.Grades.Submit(r.Context(), actor, req.SubmissionInput, req.Draft)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	// 4. Respond
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	util.WriteJSON(w, status, result)
}

// SubmitBulk handles POST /grades/bulk
// Rebuilds the entry sheet from the request and saves it as one batch.
func (h *GradeHandler) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticated actor
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// 2. Decode body
	var req BulkGradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 3. Replay the sheet edits: scores first, then absences, so an absence
	// always wins over a stale score for the same student.
	sheet := grade.NewEntrySheet(req.ClassID, req.SubjectID, req.Term, req.ExamType, req.MaxScore)
	for studentID, raw := range req.Scores {
		sheet = sheet.SetScore(studentID, raw)
	}
	for _, studentID := range req.Absent {
		sheet = sheet.ToggleAbsent(studentID)
	}

	// 4. Call the grade service
	result, err := h.Grades.SubmitBatch(r.Context(), actor, sheet)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	// 5. Respond
	util.WriteJSON(w, http.StatusOK, result)
}

// ListSubmissions handles GET /grades/submissions
// Returns the approval dashboard groups for the actor's school.
func (h *GradeHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	groups, err := h.Grades.ListSubmissions(r.Context(), actor)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": groups,
		"count":       len(groups),
	})
}

// ApproveGrades handles POST /grades/approve
// Moves the listed entries from submitted to approved, all-or-nothing.
func (h *GradeHandler) ApproveGrades(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Grades.Approve, "grades approved")
}

// ReleaseGrades handles POST /grades/release
// Moves the listed entries from approved to released, all-or-nothing.
func (h *GradeHandler) ReleaseGrades(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Grades.Release, "grades released")
}

func (h *GradeHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor shared.Actor, ids []string) error, message string) {
	// 1. Authenticated actor
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// 2. Decode body
	var req EntryIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 3. Call the grade service
	if err := op(r.Context(), actor, req.GradeIDs); err != nil {
		util.HandleDomainError(w, err)
		return
	}

	// 4. Respond
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"count":   len(req.GradeIDs),
	})
}

// MyGrades handles GET /grades/my
// Returns the acting student's released grades.
func (h *GradeHandler) MyGrades(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	entries, err := h.Grades.StudentGrades(r.Context(), actor, "", actor.UserID)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"grades": entries})
}

// StudentGrades handles GET /grades/student/{student_id}
// Returns a student's released grades for parents and school staff.
func (h *GradeHandler) StudentGrades(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := chi.URLParam(r, "student_id")
	schoolID := r.URL.Query().Get("school_id") // honored for platform admins only

	entries, err := h.Grades.StudentGrades(r.Context(), actor, schoolID, studentID)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"grades": entries})
}

// ClassReport handles GET /grades/report/{class_id}
// Returns score distribution statistics for a class.
// Query Params: term (optional)
func (h *GradeHandler) ClassReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	classID := chi.URLParam(r, "class_id")
	term := r.URL.Query().Get("term")

	report, err := h.Grades.ClassReport(r.Context(), actor, classID, term)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}
