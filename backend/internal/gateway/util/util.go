// ============================================================================
// backend/internal/gateway/util/util.go
// HTTP response helpers and domain-error to status-code mapping
// ============================================================================

package util

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"schoolhub/backend/internal/admin"
	"schoolhub/backend/internal/auth"
	"schoolhub/backend/internal/finance"
	"schoolhub/backend/internal/grade"
	"schoolhub/backend/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// WriteJSON writes a success response wrapping the payload.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := JSONResponse{Success: true, Data: payload}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError writes a standardized error response.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message, "")
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	log.Printf("HTTP Error %d: %s", status, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResponse := JSONError{Success: false, Message: message, Kind: kind}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// gradeKindStatus maps each grade error kind to an HTTP status.
var gradeKindStatus = map[grade.Kind]int{
	grade.KindMissingField:         http.StatusBadRequest,
	grade.KindInvalidScore:         http.StatusBadRequest,
	grade.KindNoGradesToSave:       http.StatusBadRequest,
	grade.KindRateLimited:          http.StatusTooManyRequests,
	grade.KindPermissionDenied:     http.StatusForbidden,
	grade.KindCrossTenantAccess:    http.StatusNotFound, // do not reveal other tenants' resources
	grade.KindStudentClassMismatch: http.StatusUnprocessableEntity,
	grade.KindImmutableRecord:      http.StatusConflict,
	grade.KindInvalidTransition:    http.StatusConflict,
	grade.KindDatabase:             http.StatusInternalServerError,
}

// HandleDomainError translates service-layer errors to HTTP responses. This
// is the single place the error taxonomy meets the wire.
func HandleDomainError(w http.ResponseWriter, err error) {
	// Grade lifecycle errors carry a kind.
	if kind := grade.KindOf(err); kind != "" {
		status, ok := gradeKindStatus[kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status == http.StatusInternalServerError {
			// Internal detail stays in the server log.
			writeError(w, status, "internal server error", string(kind))
			return
		}
		if kind == grade.KindRateLimited {
			var ge *grade.Error
			if errors.As(err, &ge) && ge.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(ge.RetryAfter.Seconds()+1)))
			}
		}
		writeError(w, status, err.Error(), string(kind))
		return
	}

	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		WriteJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountInactive), errors.Is(err, auth.ErrWrongOldPassword):
		WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, admin.ErrValidation), errors.Is(err, finance.ErrValidation):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, admin.ErrPermission), errors.Is(err, finance.ErrPermission):
		WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, admin.ErrNotFound), errors.Is(err, finance.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, admin.ErrConflict):
		WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, finance.ErrRateLimited):
		WriteJSONError(w, http.StatusTooManyRequests, err.Error())

	default:
		log.Printf("Unmapped service error: %v", err)
		WriteJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	// Expect header: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// actorKey is the context key for the authenticated actor.
type actorKey struct{}

// WithActor stores the authenticated actor in the request context.
func WithActor(ctx context.Context, actor shared.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom retrieves the authenticated actor from the request context.
func ActorFrom(ctx context.Context) (shared.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(shared.Actor)
	return actor, ok
}
