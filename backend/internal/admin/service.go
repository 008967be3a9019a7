// ============================================================================
// backend/internal/admin/service.go
// School administration: schools, users, classes, subjects, enrollments
// ============================================================================

package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/backend/internal/shared"
)

// Sentinel errors the HTTP layer maps to status codes. Specific failures wrap
// one of these with %w.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
	ErrConflict   = errors.New("conflict")
)

// Service handles tenant administration. Every operation takes the acting
// identity and scopes reads and writes to the actor's school unless the actor
// is a platform admin.
type Service struct {
	client         *mongo.Client
	config         *shared.ServerConfig
	audit          shared.AuditRecorder
	schoolsCol     *mongo.Collection
	usersCol       *mongo.Collection
	classesCol     *mongo.Collection
	subjectsCol    *mongo.Collection
	enrollmentsCol *mongo.Collection
	gradesCol      *mongo.Collection
	auditCol       *mongo.Collection
}

// NewService creates an admin Service instance.
func NewService(client *mongo.Client, db *mongo.Database, config *shared.ServerConfig, audit shared.AuditRecorder) *Service {
	return &Service{
		client:         client,
		config:         config,
		audit:          audit,
		schoolsCol:     db.Collection(shared.ColSchools),
		usersCol:       db.Collection(shared.ColUsers),
		classesCol:     db.Collection(shared.ColClasses),
		subjectsCol:    db.Collection(shared.ColSubjects),
		enrollmentsCol: db.Collection(shared.ColEnrollments),
		gradesCol:      db.Collection(shared.ColGrades),
		auditCol:       db.Collection(shared.ColAuditLogs),
	}
}

// canManageSchool reports whether the actor administers the given school.
func canManageSchool(actor shared.Actor, schoolID string) bool {
	if actor.IsPlatformAdmin() {
		return true
	}
	if actor.Role != shared.RoleSchoolOwner && actor.Role != shared.RolePrincipal {
		return false
	}
	return actor.SchoolID == schoolID
}

// ============================================================================
// School Management
// ============================================================================

// CreateSchool registers a new tenant. Platform admins only.
func (s *Service) CreateSchool(ctx context.Context, actor shared.Actor, name, address string) (*shared.School, error) {
	if !actor.IsPlatformAdmin() {
		return nil, fmt.Errorf("%w: only platform admins may create schools", ErrPermission)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.schoolsCol.CountDocuments(queryCtx, bson.M{"name": name})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: school %q already exists", ErrConflict, name)
	}

	school := shared.School{
		ID:        shared.GenerateID("SCH"),
		Name:      name,
		Address:   address,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if _, err := s.schoolsCol.InsertOne(queryCtx, school); err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}

	s.audit.Record(ctx, actor, shared.ActionSchoolCreate, school.ID, true, map[string]interface{}{"name": name})
	return &school, nil
}

// ListSchools returns all tenants. Platform admins only.
func (s *Service) ListSchools(ctx context.Context, actor shared.Actor) ([]shared.School, error) {
	if !actor.IsPlatformAdmin() {
		return nil, fmt.Errorf("%w: only platform admins may list schools", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.schoolsCol.Find(queryCtx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var schools []shared.School
	if err := cursor.All(queryCtx, &schools); err != nil {
		return nil, err
	}
	return schools, nil
}

// ============================================================================
// User Management
// ============================================================================

// CreateUserInput is the payload for creating a staff, parent, or student account.
type CreateUserInput struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	SchoolID      string `json:"school_id,omitempty"` // platform admins only; others use their own
	StaffNumber   string `json:"staff_number,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
}

// CreateUserResult carries the generated initial password back to the caller
// exactly once; only the hash is stored.
type CreateUserResult struct {
	User            *shared.User `json:"user"`
	InitialPassword string       `json:"initial_password"`
}

// CreateUser creates an account in the actor's school with a random initial
// password.
func (s *Service) CreateUser(ctx context.Context, actor shared.Actor, in CreateUserInput) (*CreateUserResult, error) {
	if in.Email == "" || in.Name == "" || in.Role == "" {
		return nil, fmt.Errorf("%w: email, name, and role are required", ErrValidation)
	}
	if !shared.IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, in.Role)
	}
	if in.Role == shared.RolePlatformAdmin && !actor.IsPlatformAdmin() {
		return nil, fmt.Errorf("%w: only platform admins may create platform admins", ErrPermission)
	}

	schoolID := actor.SchoolID
	if actor.IsPlatformAdmin() {
		schoolID = in.SchoolID
	}
	if in.Role != shared.RolePlatformAdmin && schoolID == "" {
		return nil, fmt.Errorf("%w: school_id is required", ErrValidation)
	}
	if !canManageSchool(actor, schoolID) && in.Role != shared.RolePlatformAdmin {
		return nil, fmt.Errorf("%w: cannot manage users of another school", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, _ := s.usersCol.CountDocuments(queryCtx, bson.M{"email": in.Email})
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	initPwd := generateRandomPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(initPwd), s.config.Security.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to process password: %w", err)
	}

	user := shared.User{
		ID:            shared.GenerateID(in.Role),
		Email:         in.Email,
		PasswordHash:  string(hash),
		Role:          in.Role,
		Name:          in.Name,
		SchoolID:      schoolID,
		StaffNumber:   in.StaffNumber,
		StudentNumber: in.StudentNumber,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	if user.Role == shared.RoleStudent && user.StudentNumber == "" {
		user.StudentNumber = shared.GenerateID("STU")
	}

	if _, err := s.usersCol.InsertOne(queryCtx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, actor, shared.ActionUserCreate, user.ID, true, map[string]interface{}{
		"role": user.Role, "school_id": schoolID,
	})
	return &CreateUserResult{User: &user, InitialPassword: initPwd}, nil
}

// ListUsers returns the tenant's accounts, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, actor shared.Actor, schoolID, role string, activeOnly bool) ([]shared.User, error) {
	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if !canManageSchool(actor, schoolID) {
		return nil, fmt.Errorf("%w: cannot list users of another school", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if schoolID != "" {
		filter["school_id"] = schoolID
	}
	if role != "" {
		filter["role"] = role
	}
	if activeOnly {
		filter["is_active"] = true
	}

	cursor, err := s.usersCol.Find(queryCtx, filter, options.Find().SetLimit(500).SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var users []shared.User
	if err := cursor.All(queryCtx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ResetPassword generates a fresh random password for a user in the actor's school.
func (s *Service) ResetPassword(ctx context.Context, actor shared.Actor, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	target, err := s.findUser(queryCtx, userID)
	if err != nil {
		return "", err
	}
	if !canManageSchool(actor, target.SchoolID) {
		return "", fmt.Errorf("%w: cannot manage users of another school", ErrPermission)
	}

	newPwd := generateRandomPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(newPwd), s.config.Security.BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to process password: %w", err)
	}

	_, err = s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"password_hash": string(hash), "updated_at": time.Now()},
	})
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	s.audit.Record(ctx, actor, shared.ActionPasswordReset, userID, true, nil)
	return newPwd, nil
}

// ToggleUserStatus activates or deactivates an account. Deactivation also
// revokes the user's sessions via the auth layer's active check.
func (s *Service) ToggleUserStatus(ctx context.Context, actor shared.Actor, userID string, activate bool) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	target, err := s.findUser(queryCtx, userID)
	if err != nil {
		return err
	}
	if !canManageSchool(actor, target.SchoolID) {
		return fmt.Errorf("%w: cannot manage users of another school", ErrPermission)
	}

	_, err = s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"is_active": activate, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	s.audit.RecordChange(ctx, actor, shared.ActionUserToggle, userID, target.IsActive, activate)
	return nil
}

// ============================================================================
// Class & Subject Management
// ============================================================================

// CreateClassInput is the payload for creating a class.
type CreateClassInput struct {
	Name       string   `json:"name"`
	Level      string   `json:"level,omitempty"`
	SchoolID   string   `json:"school_id,omitempty"` // platform admins only
	TeacherIDs []string `json:"teacher_ids,omitempty"`
	Capacity   int32    `json:"capacity,omitempty"`
}

// CreateClass creates a class in the actor's school.
func (s *Service) CreateClass(ctx context.Context, actor shared.Actor, in CreateClassInput) (*shared.Class, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	schoolID := actor.SchoolID
	if actor.IsPlatformAdmin() {
		schoolID = in.SchoolID
	}
	if schoolID == "" {
		return nil, fmt.Errorf("%w: school_id is required", ErrValidation)
	}
	if !canManageSchool(actor, schoolID) {
		return nil, fmt.Errorf("%w: cannot manage classes of another school", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, teacherID := range in.TeacherIDs {
		if err := s.verifyTeacher(queryCtx, teacherID, schoolID); err != nil {
			return nil, err
		}
	}

	class := shared.Class{
		ID:         shared.GenerateID("CLS"),
		SchoolID:   schoolID,
		Name:       in.Name,
		Level:      in.Level,
		TeacherIDs: in.TeacherIDs,
		Capacity:   in.Capacity,
		CreatedAt:  time.Now(),
	}
	if _, err := s.classesCol.InsertOne(queryCtx, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.audit.Record(ctx, actor, shared.ActionClassCreate, class.ID, true, map[string]interface{}{"name": in.Name})
	return &class, nil
}

// AssignTeacher adds a teacher to a class roster.
func (s *Service) AssignTeacher(ctx context.Context, actor shared.Actor, classID, teacherID string) error {
	if classID == "" || teacherID == "" {
		return fmt.Errorf("%w: class_id and teacher_id are required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	class, err := s.findClass(queryCtx, classID)
	if err != nil {
		return err
	}
	if !canManageSchool(actor, class.SchoolID) {
		return fmt.Errorf("%w: cannot manage classes of another school", ErrPermission)
	}
	if err := s.verifyTeacher(queryCtx, teacherID, class.SchoolID); err != nil {
		return err
	}

	_, err = s.classesCol.UpdateOne(queryCtx, bson.M{"_id": classID}, bson.M{
		"$addToSet": bson.M{"teacher_ids": teacherID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	s.audit.Record(ctx, actor, shared.ActionTeacherAssign, classID, true, map[string]interface{}{"teacher_id": teacherID})
	return nil
}

// ListClasses returns the tenant's classes.
func (s *Service) ListClasses(ctx context.Context, actor shared.Actor, schoolID string) ([]shared.Class, error) {
	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if schoolID == "" {
		return nil, fmt.Errorf("%w: school_id is required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.classesCol.Find(queryCtx, bson.M{"school_id": schoolID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var classes []shared.Class
	if err := cursor.All(queryCtx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// CreateSubject registers a taught subject in the actor's school.
func (s *Service) CreateSubject(ctx context.Context, actor shared.Actor, name, code, schoolID string) (*shared.Subject, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if schoolID == "" {
		return nil, fmt.Errorf("%w: school_id is required", ErrValidation)
	}
	if !canManageSchool(actor, schoolID) {
		return nil, fmt.Errorf("%w: cannot manage subjects of another school", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, _ := s.subjectsCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID, "name": name})
	if count > 0 {
		return nil, fmt.Errorf("%w: subject %q already exists", ErrConflict, name)
	}

	subject := shared.Subject{
		ID:       shared.GenerateID("SUBJ"),
		SchoolID: schoolID,
		Name:     name,
		Code:     code,
	}
	if _, err := s.subjectsCol.InsertOne(queryCtx, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return &subject, nil
}

// ============================================================================
// Enrollment Management
// ============================================================================

// EnrollStudent places a student into a class. The student and the class must
// belong to the same school; a second active enrollment in the same class is
// rejected by the unique index.
func (s *Service) EnrollStudent(ctx context.Context, actor shared.Actor, studentID, classID string) (*shared.Enrollment, error) {
	if studentID == "" || classID == "" {
		return nil, fmt.Errorf("%w: student_id and class_id are required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	class, err := s.findClass(queryCtx, classID)
	if err != nil {
		return nil, err
	}
	if !canManageSchool(actor, class.SchoolID) {
		return nil, fmt.Errorf("%w: cannot enroll into another school's class", ErrPermission)
	}

	student, err := s.findUser(queryCtx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != shared.RoleStudent || student.SchoolID != class.SchoolID {
		return nil, fmt.Errorf("%w: %s is not a student of this school", ErrValidation, studentID)
	}

	enrollment := shared.Enrollment{
		ID:         shared.GenerateID("ENR"),
		SchoolID:   class.SchoolID,
		StudentID:  studentID,
		ClassID:    classID,
		Status:     shared.EnrollmentActive,
		EnrolledAt: time.Now(),
	}

	// Capacity check and insert run inside one transaction so two concurrent
	// enrollments cannot both pass the check.
	err = shared.WithTransaction(queryCtx, s.client, func(sessCtx mongo.SessionContext) error {
		if class.Capacity > 0 {
			count, err := s.enrollmentsCol.CountDocuments(sessCtx, bson.M{
				"class_id": classID,
				"status":   shared.EnrollmentActive,
			})
			if err != nil {
				return err
			}
			if int32(count) >= class.Capacity {
				return fmt.Errorf("%w: class is full", ErrConflict)
			}
		}
		_, err := s.enrollmentsCol.InsertOne(sessCtx, enrollment)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: student already enrolled in this class", ErrConflict)
		}
		return nil, err
	}

	s.audit.Record(ctx, actor, shared.ActionEnrollStudent, enrollment.ID, true, map[string]interface{}{
		"student_id": studentID, "class_id": classID,
	})
	return &enrollment, nil
}

// WithdrawStudent marks an enrollment withdrawn. Grade history stays intact.
func (s *Service) WithdrawStudent(ctx context.Context, actor shared.Actor, studentID, classID string) error {
	if studentID == "" || classID == "" {
		return fmt.Errorf("%w: student_id and class_id are required", ErrValidation)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	class, err := s.findClass(queryCtx, classID)
	if err != nil {
		return err
	}
	if !canManageSchool(actor, class.SchoolID) {
		return fmt.Errorf("%w: cannot manage another school's enrollments", ErrPermission)
	}

	res, err := s.enrollmentsCol.UpdateOne(queryCtx,
		bson.M{"student_id": studentID, "class_id": classID, "status": shared.EnrollmentActive},
		bson.M{"$set": bson.M{"status": shared.EnrollmentWithdrawn, "withdrawn_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: active enrollment", ErrNotFound)
	}

	s.audit.Record(ctx, actor, shared.ActionWithdrawStudent, classID, true, map[string]interface{}{"student_id": studentID})
	return nil
}

// ============================================================================
// Stats
// ============================================================================

// SchoolStats is a tenant head-count summary.
type SchoolStats struct {
	Students          int32 `json:"students"`
	Teachers          int32 `json:"teachers"`
	Classes           int32 `json:"classes"`
	ActiveEnrollments int32 `json:"active_enrollments"`
	GradeEntries      int32 `json:"grade_entries"`
	ReleasedGrades    int32 `json:"released_grades"`
}

// GetSchoolStats summarizes one tenant.
func (s *Service) GetSchoolStats(ctx context.Context, actor shared.Actor, schoolID string) (*SchoolStats, error) {
	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if !canManageSchool(actor, schoolID) {
		return nil, fmt.Errorf("%w: cannot view another school's stats", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := &SchoolStats{}
	students, _ := s.usersCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID, "role": shared.RoleStudent})
	teachers, _ := s.usersCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID, "role": shared.RoleTeacher})
	classes, _ := s.classesCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID})
	enrollments, _ := s.enrollmentsCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID, "status": shared.EnrollmentActive})
	grades, _ := s.gradesCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID})
	released, _ := s.gradesCol.CountDocuments(queryCtx, bson.M{"school_id": schoolID, "is_released": true})

	stats.Students = int32(students)
	stats.Teachers = int32(teachers)
	stats.Classes = int32(classes)
	stats.ActiveEnrollments = int32(enrollments)
	stats.GradeEntries = int32(grades)
	stats.ReleasedGrades = int32(released)

	return stats, nil
}

// ============================================================================
// Audit Trail
// ============================================================================

// auditQueryLimit caps a single audit page.
const auditQueryLimit = 200

// ListAuditLogs returns the tenant's audit trail, newest first, optionally
// filtered by action or user.
func (s *Service) ListAuditLogs(ctx context.Context, actor shared.Actor, schoolID, action, userID string) ([]shared.AuditLog, error) {
	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if !canManageSchool(actor, schoolID) {
		return nil, fmt.Errorf("%w: cannot view another school's audit trail", ErrPermission)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if schoolID != "" {
		filter["school_id"] = schoolID
	}
	if action != "" {
		filter["action"] = action
	}
	if userID != "" {
		filter["user_id"] = userID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(auditQueryLimit)

	cursor, err := s.auditCol.Find(queryCtx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var logs []shared.AuditLog
	if err := cursor.All(queryCtx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) findUser(ctx context.Context, userID string) (*shared.User, error) {
	var user shared.User
	err := s.usersCol.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (s *Service) findClass(ctx context.Context, classID string) (*shared.Class, error) {
	var class shared.Class
	err := s.classesCol.FindOne(ctx, bson.M{"_id": classID}).Decode(&class)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: class %s", ErrNotFound, classID)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &class, nil
}

// verifyTeacher checks that the user is an active teacher of the school.
func (s *Service) verifyTeacher(ctx context.Context, teacherID, schoolID string) error {
	res := s.usersCol.FindOne(ctx, bson.M{
		"_id": teacherID, "role": shared.RoleTeacher, "school_id": schoolID, "is_active": true,
	})
	if res.Err() != nil {
		return fmt.Errorf("%w: active teacher %s in this school", ErrNotFound, teacherID)
	}
	return nil
}

func generateRandomPassword() string {
	b := make([]byte, 8)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
