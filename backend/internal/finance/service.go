// ============================================================================
// backend/internal/finance/service.go
// Fee payments: recording, balances, and per-student payment history
// ============================================================================

package finance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schoolhub/backend/internal/shared"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrValidation  = errors.New("validation failed")
	ErrPermission  = errors.New("permission denied")
	ErrRateLimited = errors.New("rate limited")
	ErrNotFound    = errors.New("not found")
)

// paymentMethods is the closed set of accepted payment methods.
var paymentMethods = map[string]bool{
	"cash":     true,
	"transfer": true,
	"card":     true,
}

// Service records fee payments and maintains the derived fee balances.
type Service struct {
	audit          shared.AuditRecorder
	limiter        *shared.RateLimiter
	usersCol       *mongo.Collection
	paymentsCol    *mongo.Collection
	feeBalancesCol *mongo.Collection
}

// NewService creates a finance Service instance.
func NewService(db *mongo.Database, limiter *shared.RateLimiter, audit shared.AuditRecorder) *Service {
	return &Service{
		audit:          audit,
		limiter:        limiter,
		usersCol:       db.Collection(shared.ColUsers),
		paymentsCol:    db.Collection(shared.ColPayments),
		feeBalancesCol: db.Collection(shared.ColFeeBalances),
	}
}

// canRecord reports whether the actor may record payments for the school.
func canRecord(actor shared.Actor) bool {
	switch actor.Role {
	case shared.RoleFinanceOfficer, shared.RoleSchoolOwner, shared.RolePlatformAdmin:
		return true
	}
	return false
}

// RecordPaymentInput is the payload for recording one payment.
type RecordPaymentInput struct {
	StudentID string  `json:"student_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference,omitempty"`
}

// RecordPayment validates and inserts a payment, then recomputes the
// student's fee balance best-effort: the payment row is the source of truth
// and a failed balance update never rolls it back.
func (s *Service) RecordPayment(ctx context.Context, actor shared.Actor, in RecordPaymentInput) (*shared.Payment, error) {
	if !canRecord(actor) {
		return nil, fmt.Errorf("%w: role %s may not record payments", ErrPermission, actor.Role)
	}
	if in.StudentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", ErrValidation)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !paymentMethods[in.Method] {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.Method)
	}

	if ok, retryAfter := s.limiter.Allow(s.limiter.Key(actor.UserID, shared.ActionPaymentRecord)); !ok {
		return nil, fmt.Errorf("%w: retry after %s", ErrRateLimited, retryAfter.Round(time.Millisecond))
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// The student must exist in the actor's school.
	var student shared.User
	filter := bson.M{"_id": in.StudentID, "role": shared.RoleStudent}
	if !actor.IsPlatformAdmin() {
		filter["school_id"] = actor.SchoolID
	}
	if err := s.usersCol.FindOne(queryCtx, filter).Decode(&student); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: student %s in this school", ErrNotFound, in.StudentID)
		}
		return nil, fmt.Errorf("student lookup failed: %w", err)
	}

	payment := shared.Payment{
		ID:         shared.GenerateID("PAY"),
		SchoolID:   student.SchoolID,
		StudentID:  in.StudentID,
		Amount:     in.Amount,
		Method:     in.Method,
		Reference:  in.Reference,
		RecordedBy: actor.UserID,
		RecordedAt: time.Now(),
	}
	if _, err := s.paymentsCol.InsertOne(queryCtx, payment); err != nil {
		s.audit.Record(ctx, actor, shared.ActionPaymentRecord, in.StudentID, false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	// Best-effort balance update. The balance can be rebuilt from payments at
	// any time, so a failure here is logged and the payment stands.
	if err := s.applyToBalance(queryCtx, &payment); err != nil {
		log.Printf("Warning: Failed to update fee balance for student %s: %v", in.StudentID, err)
	}

	s.audit.Record(ctx, actor, shared.ActionPaymentRecord, payment.ID, true, map[string]interface{}{
		"student_id": in.StudentID,
		"amount":     in.Amount,
		"method":     in.Method,
	})
	return &payment, nil
}

// applyToBalance folds one payment into the derived balance row.
func (s *Service) applyToBalance(ctx context.Context, payment *shared.Payment) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.feeBalancesCol.UpdateOne(ctx,
		bson.M{"_id": payment.StudentID},
		bson.M{
			"$inc":         bson.M{"paid": payment.Amount},
			"$set":         bson.M{"updated_at": time.Now()},
			"$setOnInsert": bson.M{"school_id": payment.SchoolID, "charged": 0.0},
		}, opts)
	return err
}

// SetCharges sets a student's total charged fees for the period.
func (s *Service) SetCharges(ctx context.Context, actor shared.Actor, studentID string, charged float64) error {
	if !canRecord(actor) {
		return fmt.Errorf("%w: role %s may not set charges", ErrPermission, actor.Role)
	}
	if studentID == "" {
		return fmt.Errorf("%w: student_id is required", ErrValidation)
	}
	if charged < 0 {
		return fmt.Errorf("%w: charged amount cannot be negative", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var student shared.User
	filter := bson.M{"_id": studentID, "role": shared.RoleStudent}
	if !actor.IsPlatformAdmin() {
		filter["school_id"] = actor.SchoolID
	}
	if err := s.usersCol.FindOne(queryCtx, filter).Decode(&student); err != nil {
		return fmt.Errorf("%w: student %s in this school", ErrNotFound, studentID)
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.feeBalancesCol.UpdateOne(queryCtx,
		bson.M{"_id": studentID},
		bson.M{
			"$set":         bson.M{"charged": charged, "updated_at": time.Now()},
			"$setOnInsert": bson.M{"school_id": student.SchoolID, "paid": 0.0},
		}, opts)
	return err
}

// GetBalance returns a student's fee balance. Finance staff see any student
// of their school; parents and students see only within their school.
func (s *Service) GetBalance(ctx context.Context, actor shared.Actor, studentID string) (*shared.FeeBalance, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", ErrValidation)
	}
	if actor.Role == shared.RoleStudent && actor.UserID != studentID {
		return nil, fmt.Errorf("%w: students may only view their own balance", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var balance shared.FeeBalance
	filter := bson.M{"_id": studentID}
	if !actor.IsPlatformAdmin() {
		filter["school_id"] = actor.SchoolID
	}
	err := s.feeBalancesCol.FindOne(queryCtx, filter).Decode(&balance)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: balance for student %s", ErrNotFound, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("balance lookup failed: %w", err)
	}
	return &balance, nil
}

// ListPayments returns a student's payment history, newest first.
func (s *Service) ListPayments(ctx context.Context, actor shared.Actor, studentID string) ([]shared.Payment, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", ErrValidation)
	}
	if actor.Role == shared.RoleStudent && actor.UserID != studentID {
		return nil, fmt.Errorf("%w: students may only view their own payments", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"student_id": studentID}
	if !actor.IsPlatformAdmin() {
		filter["school_id"] = actor.SchoolID
	}

	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}}).SetLimit(200)
	cursor, err := s.paymentsCol.Find(queryCtx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var payments []shared.Payment
	if err := cursor.All(queryCtx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
