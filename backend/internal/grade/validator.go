// ============================================================================
// backend/internal/grade/validator.go
// Grade submission validator: gatekeeper for every grade write
// ============================================================================

package grade

import (
	"context"
	"fmt"

	"schoolhub/backend/internal/shared"
)

// SubmissionInput is a candidate grade payload. Score is optional (an entry
// may be recorded without a numeric result); MaxScore defaults to 100.
type SubmissionInput struct {
	StudentID string   `json:"student_id"`
	SubjectID string   `json:"subject_id"`
	ClassID   string   `json:"class_id"`
	Term      string   `json:"term"`
	ExamType  string   `json:"exam_type"`
	Score     *float64 `json:"score,omitempty"`
	MaxScore  *float64 `json:"max_score,omitempty"`
}

// EffectiveMaxScore returns the payload's max score or the default.
func (in SubmissionInput) EffectiveMaxScore() float64 {
	if in.MaxScore != nil && *in.MaxScore > 0 {
		return *in.MaxScore
	}
	return shared.DefaultMaxScore
}

// Validator enforces the submission rules in a fixed order, each failing fast
// with a distinct error kind. It is read-only except for the rate-limit
// counter increment. The acting identity is always an explicit argument.
type Validator struct {
	dir     Directory
	limiter *shared.RateLimiter
}

// NewValidator creates a Validator.
func NewValidator(dir Directory, limiter *shared.RateLimiter) *Validator {
	return &Validator{dir: dir, limiter: limiter}
}

// ValidateSubmission runs all rules, including the rate-limit check, and
// returns the resolved class on success.
func (v *Validator) ValidateSubmission(ctx context.Context, actor shared.Actor, in SubmissionInput) (*shared.Class, error) {
	return v.validate(ctx, actor, in, true)
}

// ValidateEntry runs the static and directory rules without consuming rate
// budget. Used for the members of an already rate-checked batch.
func (v *Validator) ValidateEntry(ctx context.Context, actor shared.Actor, in SubmissionInput) (*shared.Class, error) {
	return v.validate(ctx, actor, in, false)
}

// CheckRate consumes one rate-limit slot for the actor/action pair.
func (v *Validator) CheckRate(actor shared.Actor, action string) error {
	ok, retryAfter := v.limiter.Allow(v.limiter.Key(actor.UserID, action))
	if !ok {
		return errRateLimited(retryAfter)
	}
	return nil
}

func (v *Validator) validate(ctx context.Context, actor shared.Actor, in SubmissionInput, checkRate bool) (*shared.Class, error) {
	// Rule 1: required identity fields
	if in.StudentID == "" {
		return nil, errMissingField("student_id")
	}
	if in.SubjectID == "" {
		return nil, errMissingField("subject_id")
	}
	if in.ClassID == "" {
		return nil, errMissingField("class_id")
	}

	// Rule 2: score within [0, max_score]
	if in.Score != nil {
		maxScore := in.EffectiveMaxScore()
		if *in.Score < 0 {
			return nil, errInvalidScore("score cannot be negative")
		}
		if *in.Score > maxScore {
			return nil, errInvalidScore(fmt.Sprintf("score %.2f exceeds max score %.2f", *in.Score, maxScore))
		}
	}

	// Rule 3: assessment context
	if in.Term == "" {
		return nil, errMissingField("term")
	}
	if in.ExamType == "" {
		return nil, errMissingField("exam_type")
	}

	// Rule 4: per-user rate limit, before any directory/store access
	if checkRate {
		if err := v.CheckRate(actor, string(ActionSubmit)); err != nil {
			return nil, err
		}
	}

	// Rule 5: tenant isolation. The class must exist and belong to the
	// actor's school; platform admins cross tenants freely.
	class, err := v.dir.GetClass(ctx, in.ClassID)
	if err != nil {
		return nil, errDatabase("class lookup", err)
	}
	if class == nil {
		return nil, errCrossTenant(in.ClassID)
	}
	if !actor.IsPlatformAdmin() && class.SchoolID != actor.SchoolID {
		return nil, errCrossTenant(in.ClassID)
	}

	// Rule 6: capability check, refined with class/school membership
	if err := v.checkSubmitPermission(actor, class); err != nil {
		return nil, err
	}

	// Rule 7: the student must belong to the class
	enrolled, err := v.dir.IsStudentEnrolled(ctx, in.StudentID, in.ClassID)
	if err != nil {
		return nil, errDatabase("enrollment lookup", err)
	}
	if !enrolled {
		return nil, errStudentClassMismatch(in.StudentID, in.ClassID)
	}

	return class, nil
}

// checkSubmitPermission allows platform admins, teachers assigned to the
// class, and the principal of the class's school.
func (v *Validator) checkSubmitPermission(actor shared.Actor, class *shared.Class) error {
	if !RoleCan(actor.Role, ActionSubmit) {
		return errPermissionDenied(fmt.Sprintf("role %s may not submit grades", actor.Role))
	}

	switch actor.Role {
	case shared.RolePlatformAdmin:
		return nil
	case shared.RoleTeacher:
		if !class.HasTeacher(actor.UserID) {
			return errPermissionDenied("teacher is not assigned to this class")
		}
	case shared.RolePrincipal:
		if class.SchoolID != actor.SchoolID {
			return errPermissionDenied("principal of another school")
		}
	}
	return nil
}
