// ============================================================================
// backend/internal/shared/database.go
// Shared MongoDB connection and helper utilities
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// Collection names used across services
const (
	ColUsers       = "users"
	ColSessions    = "sessions"
	ColSchools     = "schools"
	ColClasses     = "classes"
	ColSubjects    = "subjects"
	ColEnrollments = "enrollments"
	ColGrades      = "grades"
	ColPayments    = "payments"
	ColFeeBalances = "fee_balances"
	ColAuditLogs   = "audit_logs"
)

// ConnectMongoDB establishes connection to MongoDB Atlas/Local with proper configuration
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout).
		SetSocketTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping MongoDB to verify connection
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB (Database: %s)", config.Database)

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes MongoDB connection
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Successfully disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the indexes the domain relies on. The unique composite
// index on grades backs the upsert-with-conflict-target dedup semantics.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	gradeKey := mongo.IndexModel{
		Keys: bson.D{
			{Key: "student_id", Value: 1},
			{Key: "subject_id", Value: 1},
			{Key: "class_id", Value: 1},
			{Key: "term", Value: 1},
			{Key: "exam_type", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("grade_natural_key"),
	}
	if _, err := db.Collection(ColGrades).Indexes().CreateOne(ctx, gradeKey); err != nil {
		return fmt.Errorf("failed to create grade natural key index: %w", err)
	}

	reviewIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "school_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "submitted_at", Value: -1},
		},
		Options: options.Index().SetName("grade_review_scan"),
	}
	if _, err := db.Collection(ColGrades).Indexes().CreateOne(ctx, reviewIdx); err != nil {
		return fmt.Errorf("failed to create grade review index: %w", err)
	}

	// Partial: only active enrollments are unique, so a student can re-enroll
	// after a withdrawal.
	enrollmentIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "student_id", Value: 1},
			{Key: "class_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("enrollment_student_class").
			SetPartialFilterExpression(bson.M{"status": EnrollmentActive}),
	}
	if _, err := db.Collection(ColEnrollments).Indexes().CreateOne(ctx, enrollmentIdx); err != nil {
		return fmt.Errorf("failed to create enrollment index: %w", err)
	}

	sessionTokenIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetName("session_token"),
	}
	if _, err := db.Collection(ColSessions).Indexes().CreateOne(ctx, sessionTokenIdx); err != nil {
		return fmt.Errorf("failed to create session index: %w", err)
	}

	return nil
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with a readable prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// GenerateGradeID generates a grade entry ID
func GenerateGradeID() string {
	return GenerateID("GRD")
}

// GenerateAuditLogID generates an audit log ID
func GenerateAuditLogID() string {
	return GenerateID("AUDIT")
}

// ============================================================================
// Transaction Helpers
// ============================================================================

// WithTransaction executes a function within a MongoDB transaction
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})

	return err
}
