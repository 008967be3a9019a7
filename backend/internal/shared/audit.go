// ============================================================================
// backend/internal/shared/audit.go
// Fire-and-forget audit log writer shared by all domain services
// ============================================================================

package shared

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// AuditRecorder accepts (action, resource, old/new value, metadata) tuples.
// Failures are logged as warnings and never escalated to the caller.
type AuditRecorder interface {
	Record(ctx context.Context, actor Actor, action, resource string, success bool, details map[string]interface{})
	RecordChange(ctx context.Context, actor Actor, action, resource string, oldValue, newValue interface{})
}

// AuditLogger writes audit entries into the audit_logs collection.
type AuditLogger struct {
	col *mongo.Collection
}

// NewAuditLogger creates an AuditLogger backed by the given database.
func NewAuditLogger(db *mongo.Database) *AuditLogger {
	return &AuditLogger{col: db.Collection(ColAuditLogs)}
}

// Record writes one audit entry. Write failure is a warning, not an error.
func (a *AuditLogger) Record(ctx context.Context, actor Actor, action, resource string, success bool, details map[string]interface{}) {
	a.insert(ctx, AuditLog{
		ID:        GenerateAuditLogID(),
		Timestamp: time.Now(),
		SchoolID:  actor.SchoolID,
		UserID:    actor.UserID,
		Action:    action,
		Resource:  resource,
		Success:   success,
		Details:   details,
	})
}

// RecordChange writes one successful audit entry carrying old and new values.
func (a *AuditLogger) RecordChange(ctx context.Context, actor Actor, action, resource string, oldValue, newValue interface{}) {
	a.insert(ctx, AuditLog{
		ID:        GenerateAuditLogID(),
		Timestamp: time.Now(),
		SchoolID:  actor.SchoolID,
		UserID:    actor.UserID,
		Action:    action,
		Resource:  resource,
		Success:   true,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

func (a *AuditLogger) insert(ctx context.Context, entry AuditLog) {
	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := a.col.InsertOne(insertCtx, entry); err != nil {
		log.Printf("Warning: Failed to write audit log (action=%s): %v", entry.Action, err)
	}
}

// NopAudit is an AuditRecorder that discards everything. Used in tests.
type NopAudit struct{}

func (NopAudit) Record(context.Context, Actor, string, string, bool, map[string]interface{}) {}
func (NopAudit) RecordChange(context.Context, Actor, string, string, interface{}, interface{}) {
}
