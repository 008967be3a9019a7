// ============================================================================
// backend/internal/grade/errors.go
// Typed error taxonomy for the grade lifecycle
// ============================================================================

package grade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies a grade domain error. Callers branch on the kind rather
// than matching message strings.
type Kind string

const (
	KindMissingField         Kind = "missing_field"
	KindInvalidScore         Kind = "invalid_score"
	KindRateLimited          Kind = "rate_limited"
	KindCrossTenantAccess    Kind = "cross_tenant_access"
	KindPermissionDenied     Kind = "permission_denied"
	KindStudentClassMismatch Kind = "student_class_mismatch"
	KindImmutableRecord      Kind = "immutable_record"
	KindInvalidTransition    Kind = "invalid_transition"
	KindNoGradesToSave       Kind = "no_grades_to_save"
	KindDatabase             Kind = "database"
)

// Error is the tagged failure result every grade operation returns on the
// error path. RetryAfter is set only for KindRateLimited.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error // wrapped cause, set only for KindDatabase
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error, or empty when err is not a grade error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsKind reports whether err is a grade error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ============================================================================
// Constructors
// ============================================================================

func errMissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Message: fmt.Sprintf("required field %s is missing", field)}
}

func errInvalidScore(message string) *Error {
	return &Error{Kind: KindInvalidScore, Message: message}
}

func errRateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    fmt.Sprintf("submission rate limit exceeded, retry after %s", retryAfter.Round(time.Millisecond)),
		RetryAfter: retryAfter,
	}
}

func errCrossTenant(classID string) *Error {
	return &Error{Kind: KindCrossTenantAccess, Message: fmt.Sprintf("class %s belongs to another school", classID)}
}

func errPermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

func errStudentClassMismatch(studentID, classID string) *Error {
	return &Error{
		Kind:    KindStudentClassMismatch,
		Message: fmt.Sprintf("student %s is not enrolled in class %s", studentID, classID),
	}
}

func errImmutableRecord(entryID string) *Error {
	return &Error{Kind: KindImmutableRecord, Message: fmt.Sprintf("grade %s has been released and can no longer be edited", entryID)}
}

func errInvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("no transition from %s to %s", from, to)}
}

func errNoGradesToSave() *Error {
	return &Error{Kind: KindNoGradesToSave, Message: "no grades to save"}
}

func errDatabase(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: op + " failed", Err: err}
}

// ============================================================================
// Bounded Retry for Transient Store Failures
// ============================================================================

const (
	retryAttempts = 3
	retryBackoff  = 100 * time.Millisecond
)

// isTransient reports whether a store error is worth retrying. Constraint
// violations and other command failures are not.
func isTransient(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return false
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// withRetry runs fn up to retryAttempts times, backing off linearly, retrying
// transient failures only.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		log.Printf("Warning: transient failure in %s (attempt %d/%d): %v", op, attempt, retryAttempts, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}
