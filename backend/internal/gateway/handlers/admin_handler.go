// ============================================================================
// backend/internal/gateway/handlers/admin_handler.go
// HTTP handlers for school administration
// ============================================================================

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/backend/internal/admin"
	"schoolhub/backend/internal/gateway/util"
)

// AdminHandler exposes the admin service over REST.
type AdminHandler struct {
	Admin *admin.Service
}

// CreateSchoolRequest mirrors the JSON input for POST /admin/schools
type CreateSchoolRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// AssignTeacherRequest mirrors the JSON input for POST /admin/classes/{id}/teachers
type AssignTeacherRequest struct {
	TeacherID string `json:"teacher_id"`
}

// CreateSubjectRequest mirrors the JSON input for POST /admin/subjects
type CreateSubjectRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
}

// EnrollmentRequest mirrors the JSON input for enroll/withdraw operations.
type EnrollmentRequest struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
}

// ToggleStatusRequest mirrors the JSON input for PATCH /admin/users/{id}/status
type ToggleStatusRequest struct {
	Activate bool `json:"activate"`
}

// CreateSchool handles POST /admin/schools
func (h *AdminHandler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	school, err := h.Admin.CreateSchool(r.Context(), actor, req.Name, req.Address)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, school)
}

// ListSchools handles GET /admin/schools
func (h *AdminHandler) ListSchools(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	schools, err := h.Admin.ListSchools(r.Context(), actor)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"schools": schools})
}

// CreateUser handles POST /admin/users
// The generated initial password is returned exactly once.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req admin.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Admin.CreateUser(r.Context(), actor, req)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, result)
}

// ListUsers handles GET /admin/users
// Query Params: role, active_only, school_id (platform admins only)
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	users, err := h.Admin.ListUsers(r.Context(), actor, q.Get("school_id"), q.Get("role"), q.Get("active_only") == "true")
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// ResetPassword handles POST /admin/users/{id}/reset-password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	newPassword, err := h.Admin.ResetPassword(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"new_password": newPassword})
}

// ToggleUserStatus handles PATCH /admin/users/{id}/status
func (h *AdminHandler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ToggleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Admin.ToggleUserStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Activate); err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "status updated"})
}

// CreateClass handles POST /admin/classes
func (h *AdminHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req admin.CreateClassInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	class, err := h.Admin.CreateClass(r.Context(), actor, req)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, class)
}

// ListClasses handles GET /admin/classes
func (h *AdminHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	classes, err := h.Admin.ListClasses(r.Context(), actor, r.URL.Query().Get("school_id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

// AssignTeacher handles POST /admin/classes/{id}/teachers
func (h *AdminHandler) AssignTeacher(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req AssignTeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Admin.AssignTeacher(r.Context(), actor, chi.URLParam(r, "id"), req.TeacherID); err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "teacher assigned"})
}

// CreateSubject handles POST /admin/subjects
func (h *AdminHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	subject, err := h.Admin.CreateSubject(r.Context(), actor, req.Name, req.Code, req.SchoolID)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, subject)
}

// EnrollStudent handles POST /admin/enrollments
func (h *AdminHandler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req EnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enrollment, err := h.Admin.EnrollStudent(r.Context(), actor, req.StudentID, req.ClassID)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, enrollment)
}

// WithdrawStudent handles POST /admin/enrollments/withdraw
func (h *AdminHandler) WithdrawStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req EnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Admin.WithdrawStudent(r.Context(), actor, req.StudentID, req.ClassID); err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "student withdrawn"})
}

// AuditLogs handles GET /admin/audit
// Query Params: action, user_id, school_id (platform admins only)
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	logs, err := h.Admin.ListAuditLogs(r.Context(), actor, q.Get("school_id"), q.Get("action"), q.Get("user_id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": logs, "count": len(logs)})
}

// SchoolStats handles GET /admin/stats
// Query Params: school_id (platform admins only)
func (h *AdminHandler) SchoolStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.Admin.GetSchoolStats(r.Context(), actor, r.URL.Query().Get("school_id"))
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}
