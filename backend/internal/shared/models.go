// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"math"
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a user account (platform admin, school staff, parent, or student)
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`       // see Role* constants
	Name         string    `bson:"name" json:"name"`
	SchoolID     string    `bson:"school_id,omitempty" json:"school_id,omitempty"` // empty only for platform admins
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Staff-specific fields
	StaffNumber string `bson:"staff_number,omitempty" json:"staff_number,omitempty"`

	// Student-specific fields
	StudentNumber string `bson:"student_number,omitempty" json:"student_number,omitempty"`

	// Account status
	IsActive bool `bson:"is_active" json:"is_active"`
}

// Session represents an active user session (for JWT tracking)
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	IPAddress string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// Actor is the authenticated identity threaded explicitly into every domain
// operation. Domain services never read it from ambient/global state.
type Actor struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id"`
}

// IsPlatformAdmin reports whether the actor bypasses tenant scoping.
func (a Actor) IsPlatformAdmin() bool {
	return a.Role == RolePlatformAdmin
}

// ============================================================================
// School / Class Models
// ============================================================================

// School represents a tenant. Every other entity is scoped by SchoolID.
type School struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Class represents a class (homeroom/section) within a school
type Class struct {
	ID         string    `bson:"_id" json:"id"`
	SchoolID   string    `bson:"school_id" json:"school_id"`
	Name       string    `bson:"name" json:"name"` // e.g., "Grade 5 - Blue"
	Level      string    `bson:"level,omitempty" json:"level,omitempty"`
	TeacherIDs []string  `bson:"teacher_ids,omitempty" json:"teacher_ids,omitempty"` // teachers assigned to this class
	Capacity   int32     `bson:"capacity,omitempty" json:"capacity,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// HasTeacher reports whether the given user is assigned to this class.
func (c *Class) HasTeacher(userID string) bool {
	for _, id := range c.TeacherIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Subject represents a taught subject within a school
type Subject struct {
	ID       string `bson:"_id" json:"id"`
	SchoolID string `bson:"school_id" json:"school_id"`
	Name     string `bson:"name" json:"name"` // e.g., "Mathematics"
	Code     string `bson:"code,omitempty" json:"code,omitempty"`
}

// Enrollment represents a student's membership in a class
type Enrollment struct {
	ID         string    `bson:"_id" json:"id"`
	SchoolID   string    `bson:"school_id" json:"school_id"`
	StudentID  string    `bson:"student_id" json:"student_id"`
	ClassID    string    `bson:"class_id" json:"class_id"`
	Status     string    `bson:"status" json:"status"` // active, withdrawn
	EnrolledAt time.Time `bson:"enrolled_at" json:"enrolled_at"`
}

// ============================================================================
// Grade Models
// ============================================================================

// GradeEntry represents one assessment result. The composite natural key is
// (student_id, subject_id, class_id, term, exam_type); a second submission
// against the same key updates the row rather than duplicating it.
type GradeEntry struct {
	ID        string `bson:"_id" json:"id"`
	SchoolID  string `bson:"school_id" json:"school_id"`
	StudentID string `bson:"student_id" json:"student_id"`
	SubjectID string `bson:"subject_id" json:"subject_id"`
	ClassID   string `bson:"class_id" json:"class_id"`
	Term      string `bson:"term" json:"term"`           // e.g., "2026-T1"
	ExamType  string `bson:"exam_type" json:"exam_type"` // e.g., "midterm", "final"

	Score      *float64 `bson:"score,omitempty" json:"score,omitempty"`
	MaxScore   float64  `bson:"max_score" json:"max_score"`
	Percentage *float64 `bson:"percentage,omitempty" json:"percentage,omitempty"` // always derived from score/max_score

	Status      string    `bson:"status" json:"status"` // draft, submitted, approved, released
	SubmittedBy string    `bson:"submitted_by" json:"submitted_by"`
	SubmittedAt time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	ApprovedBy  string    `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt  time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	ReleasedAt  time.Time `bson:"released_at,omitempty" json:"released_at,omitempty"`

	IsReleased  bool `bson:"is_released" json:"is_released"`
	IsImmutable bool `bson:"is_immutable" json:"is_immutable"` // set once released, blocks further edits
}

// GradeKey is the composite natural key of a GradeEntry.
type GradeKey struct {
	StudentID string `json:"student_id"`
	SubjectID string `json:"subject_id"`
	ClassID   string `json:"class_id"`
	Term      string `json:"term"`
	ExamType  string `json:"exam_type"`
}

// Key returns the entry's composite natural key.
func (g *GradeEntry) Key() GradeKey {
	return GradeKey{
		StudentID: g.StudentID,
		SubjectID: g.SubjectID,
		ClassID:   g.ClassID,
		Term:      g.Term,
		ExamType:  g.ExamType,
	}
}

// ComputePercentage derives the stored percentage from score/max_score,
// rounded to 2 decimals. Returns nil when no score is present.
func ComputePercentage(score *float64, maxScore float64) *float64 {
	if score == nil || maxScore <= 0 {
		return nil
	}
	p := math.Round(*score/maxScore*100*100) / 100
	return &p
}

// GradeSubmissionGroup is a derived aggregation of GradeEntry rows sharing
// (class, subject, term, exam type, submitter). It is recomputed on every
// dashboard load and never persisted.
type GradeSubmissionGroup struct {
	ClassID       string    `json:"class_id"`
	ClassName     string    `json:"class_name"`
	SubjectID     string    `json:"subject_id"`
	SubjectName   string    `json:"subject_name"`
	Term          string    `json:"term"`
	ExamType      string    `json:"exam_type"`
	SubmittedBy   string    `json:"submitted_by"`
	SubmitterName string    `json:"submitter_name"`
	SubmittedAt   time.Time `json:"submitted_at"` // most recent submission in the group

	Status       string   `json:"status"` // dominant status of member rows
	Count        int32    `json:"count"`
	AverageScore float64  `json:"average_score"` // rounded to 1 decimal
	MinScore     float64  `json:"min_score"`
	MaxScore     float64  `json:"max_score"`
	EntryIDs     []string `json:"entry_ids"`
}

// ============================================================================
// Finance Models
// ============================================================================

// Payment represents a recorded fee payment
type Payment struct {
	ID         string    `bson:"_id" json:"id"`
	SchoolID   string    `bson:"school_id" json:"school_id"`
	StudentID  string    `bson:"student_id" json:"student_id"`
	Amount     float64   `bson:"amount" json:"amount"`
	Method     string    `bson:"method" json:"method"` // cash, transfer, card
	Reference  string    `bson:"reference,omitempty" json:"reference,omitempty"`
	RecordedBy string    `bson:"recorded_by" json:"recorded_by"`
	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
}

// FeeBalance represents a student's outstanding fee balance. It is a derived
// secondary record; payment inserts update it best-effort.
type FeeBalance struct {
	StudentID string    `bson:"_id" json:"student_id"`
	SchoolID  string    `bson:"school_id" json:"school_id"`
	Charged   float64   `bson:"charged" json:"charged"`
	Paid      float64   `bson:"paid" json:"paid"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Outstanding returns the remaining balance.
func (b *FeeBalance) Outstanding() float64 {
	return b.Charged - b.Paid
}

// ============================================================================
// Audit Log Models
// ============================================================================

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	SchoolID  string                 `bson:"school_id,omitempty" json:"school_id,omitempty"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Action    string                 `bson:"action" json:"action"`
	Resource  string                 `bson:"resource" json:"resource"`
	Success   bool                   `bson:"success" json:"success"`
	OldValue  interface{}            `bson:"old_value,omitempty" json:"old_value,omitempty"`
	NewValue  interface{}            `bson:"new_value,omitempty" json:"new_value,omitempty"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RolePlatformAdmin  = "platform-admin"
	RoleSchoolOwner    = "school-owner"
	RolePrincipal      = "principal"
	RoleTeacher        = "teacher"
	RoleFinanceOfficer = "finance-officer"
	RoleParent         = "parent"
	RoleStudent        = "student"

	// Grade statuses
	GradeStatusDraft     = "draft"
	GradeStatusSubmitted = "submitted"
	GradeStatusApproved  = "approved"
	GradeStatusReleased  = "released"

	// Enrollment statuses
	EnrollmentActive    = "active"
	EnrollmentWithdrawn = "withdrawn"

	// Default max score when a submission omits it
	DefaultMaxScore = 100.0

	// Audit actions
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionGradeSubmit      = "grade_submit"
	ActionGradeBulk        = "grade_bulk_submit"
	ActionGradeAutoApprove = "grade_submit_auto_approved"
	ActionGradeApprove     = "grade_approve"
	ActionGradeRelease     = "grade_release"
	ActionPaymentRecord    = "payment_record"
	ActionSchoolCreate     = "school_create"
	ActionUserCreate       = "user_create"
	ActionUserToggle       = "user_toggle_status"
	ActionPasswordReset    = "password_reset"
	ActionClassCreate      = "class_create"
	ActionTeacherAssign    = "teacher_assign"
	ActionEnrollStudent    = "enroll_student"
	ActionWithdrawStudent  = "withdraw_student"
)

// IsValidRole checks if a user role is valid
func IsValidRole(role string) bool {
	validRoles := map[string]bool{
		RolePlatformAdmin:  true,
		RoleSchoolOwner:    true,
		RolePrincipal:      true,
		RoleTeacher:        true,
		RoleFinanceOfficer: true,
		RoleParent:         true,
		RoleStudent:        true,
	}
	return validRoles[role]
}

// IsValidGradeStatus checks if a grade status is valid
func IsValidGradeStatus(status string) bool {
	validStatuses := map[string]bool{
		GradeStatusDraft:     true,
		GradeStatusSubmitted: true,
		GradeStatusApproved:  true,
		GradeStatusReleased:  true,
	}
	return validStatuses[status]
}

// StaffRoles lists the roles that belong to school staff accounts.
var StaffRoles = []string{RoleSchoolOwner, RolePrincipal, RoleTeacher, RoleFinanceOfficer}
