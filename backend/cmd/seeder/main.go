// ============================================================================
// backend/cmd/seeder/main.go
// Demo data seeder: one school with staff, students, classes, enrollments,
// grade entries at every lifecycle stage, and fee balances.
// ============================================================================

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/backend/internal/shared"
)

// Fixed IDs so repeated runs and manual API testing stay predictable.
const (
	SchoolID = "SCH-demo"

	AdminID     = "admin-001"
	OwnerID     = "owner-001"
	PrincipalID = "principal-001"
	TeacherID1  = "teacher-001" // Maria Santos, Mathematics
	TeacherID2  = "teacher-002" // Jose Ramirez, Science
	FinanceID   = "finance-001"
	StudentID1  = "student-001" // Ana Cruz
	StudentID2  = "student-002" // Ben Ocampo
	StudentID3  = "student-003" // Carla Reyes

	ClassID1 = "class-g5-blue"
	ClassID2 = "class-g5-red"

	SubjectMathID = "SUBJ-math"
	SubjectSciID  = "SUBJ-science"
	SubjectEngID  = "SUBJ-english"

	CommonPassword = "password"
	CurrentTerm    = "2026-T1"
)

// GradeSeed describes one grade entry and how far through the lifecycle it is.
type GradeSeed struct {
	StudentID string
	SubjectID string
	ClassID   string
	ExamType  string
	Score     float64
	Status    string // draft, submitted, approved, released
	TeacherID string
}

func main() {
	log.Println("Starting SchoolHub Demo Data Seeder...")

	shared.LoadEnv(".env")

	config, err := shared.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// Clean start so lifecycle states are exactly what this file says they are.
	if err := db.Drop(context.Background()); err != nil {
		log.Fatalf("Failed to drop database: %v", err)
	}
	log.Println("Database cleared successfully.")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := shared.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	seedSchool(ctx, db)
	seedUsers(ctx, db, config.Security.BCryptCost)
	seedClassesAndSubjects(ctx, db)
	seedEnrollments(ctx, db)
	seedGrades(ctx, db)
	seedFeeBalances(ctx, db)

	log.Println("All demo data seeded successfully.")
	log.Printf("Every account logs in with password %q", CommonPassword)
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedSchool(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding School ---")

	school := shared.School{
		ID:        SchoolID,
		Name:      "San Isidro Elementary",
		Address:   "14 Mabini St, San Isidro",
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if _, err := db.Collection(shared.ColSchools).InsertOne(ctx, school); err != nil {
		log.Fatalf("Error seeding school: %v", err)
	}
	log.Printf("Seeded School: %s (%s)", school.Name, school.ID)
}

func seedUsers(ctx context.Context, db *mongo.Database, bcryptCost int) {
	log.Println("--- Seeding Users ---")
	usersCol := db.Collection(shared.ColUsers)

	now := time.Now()
	users := []shared.User{
		{ID: AdminID, Name: "Platform Admin", Email: "admin@schoolhub.test", Role: shared.RolePlatformAdmin, IsActive: true, CreatedAt: now},
		{ID: OwnerID, Name: "Olivia Dela Cruz", Email: "owner@sanisidro.test", Role: shared.RoleSchoolOwner, SchoolID: SchoolID, StaffNumber: "STF-001", IsActive: true, CreatedAt: now},
		{ID: PrincipalID, Name: "Pedro Villanueva", Email: "principal@sanisidro.test", Role: shared.RolePrincipal, SchoolID: SchoolID, StaffNumber: "STF-002", IsActive: true, CreatedAt: now},
		{ID: TeacherID1, Name: "Maria Santos", Email: "m.santos@sanisidro.test", Role: shared.RoleTeacher, SchoolID: SchoolID, StaffNumber: "STF-003", IsActive: true, CreatedAt: now},
		{ID: TeacherID2, Name: "Jose Ramirez", Email: "j.ramirez@sanisidro.test", Role: shared.RoleTeacher, SchoolID: SchoolID, StaffNumber: "STF-004", IsActive: true, CreatedAt: now},
		{ID: FinanceID, Name: "Fe Lim", Email: "finance@sanisidro.test", Role: shared.RoleFinanceOfficer, SchoolID: SchoolID, StaffNumber: "STF-005", IsActive: true, CreatedAt: now},
		{ID: StudentID1, Name: "Ana Cruz", Email: "ana.cruz@sanisidro.test", Role: shared.RoleStudent, SchoolID: SchoolID, StudentNumber: "2026-0001", IsActive: true, CreatedAt: now},
		{ID: StudentID2, Name: "Ben Ocampo", Email: "ben.ocampo@sanisidro.test", Role: shared.RoleStudent, SchoolID: SchoolID, StudentNumber: "2026-0002", IsActive: true, CreatedAt: now},
		{ID: StudentID3, Name: "Carla Reyes", Email: "carla.reyes@sanisidro.test", Role: shared.RoleStudent, SchoolID: SchoolID, StudentNumber: "2026-0003", IsActive: true, CreatedAt: now},
	}

	hashedBytes, _ := bcrypt.GenerateFromPassword([]byte(CommonPassword), bcryptCost)
	hashedPassword := string(hashedBytes)

	for _, u := range users {
		u.PasswordHash = hashedPassword
		filter := bson.M{"email": u.Email}
		update := bson.M{"$set": u}
		opts := options.Update().SetUpsert(true)

		if _, err := usersCol.UpdateOne(ctx, filter, update, opts); err != nil {
			log.Fatalf("Error seeding user %s: %v", u.Email, err)
		}
		log.Printf("Seeded %s: %s", u.Role, u.Email)
	}
}

func seedClassesAndSubjects(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Classes & Subjects ---")
	now := time.Now()

	classes := []shared.Class{
		{ID: ClassID1, SchoolID: SchoolID, Name: "Grade 5 - Blue", Level: "Grade 5", TeacherIDs: []string{TeacherID1, TeacherID2}, Capacity: 30, CreatedAt: now},
		{ID: ClassID2, SchoolID: SchoolID, Name: "Grade 5 - Red", Level: "Grade 5", TeacherIDs: []string{TeacherID2}, Capacity: 30, CreatedAt: now},
	}
	for _, c := range classes {
		if _, err := db.Collection(shared.ColClasses).InsertOne(ctx, c); err != nil {
			log.Fatalf("Error seeding class %s: %v", c.Name, err)
		}
		log.Printf("Seeded Class: %s (%s)", c.Name, c.ID)
	}

	subjects := []shared.Subject{
		{ID: SubjectMathID, SchoolID: SchoolID, Name: "Mathematics", Code: "MATH-5"},
		{ID: SubjectSciID, SchoolID: SchoolID, Name: "Science", Code: "SCI-5"},
		{ID: SubjectEngID, SchoolID: SchoolID, Name: "English", Code: "ENG-5"},
	}
	for _, s := range subjects {
		if _, err := db.Collection(shared.ColSubjects).InsertOne(ctx, s); err != nil {
			log.Fatalf("Error seeding subject %s: %v", s.Name, err)
		}
		log.Printf("Seeded Subject: %s (%s)", s.Name, s.ID)
	}
}

func seedEnrollments(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Enrollments ---")
	enrollmentsCol := db.Collection(shared.ColEnrollments)

	memberships := []struct {
		StudentID string
		ClassID   string
	}{
		{StudentID1, ClassID1},
		{StudentID2, ClassID1},
		{StudentID3, ClassID2},
	}

	for i, m := range memberships {
		enrollment := shared.Enrollment{
			ID:         fmt.Sprintf("ENR-%03d", i+1),
			SchoolID:   SchoolID,
			StudentID:  m.StudentID,
			ClassID:    m.ClassID,
			Status:     shared.EnrollmentActive,
			EnrolledAt: time.Now().AddDate(0, -2, 0),
		}

		if _, err := enrollmentsCol.InsertOne(ctx, enrollment); err != nil {
			log.Fatalf("Error seeding enrollment for %s: %v", m.StudentID, err)
		}
		log.Printf("Seeded Enrollment: %s in %s", m.StudentID, m.ClassID)
	}
}

func seedGrades(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Grades ---")
	gradesCol := db.Collection(shared.ColGrades)

	seeds := []GradeSeed{
		// Released midterms: visible to the students immediately after login.
		{StudentID1, SubjectMathID, ClassID1, "midterm", 88, shared.GradeStatusReleased, TeacherID1},
		{StudentID2, SubjectMathID, ClassID1, "midterm", 74, shared.GradeStatusReleased, TeacherID1},
		{StudentID3, SubjectSciID, ClassID2, "midterm", 91, shared.GradeStatusReleased, TeacherID2},

		// Approved but unreleased: exercises the release step.
		{StudentID1, SubjectSciID, ClassID1, "midterm", 82, shared.GradeStatusApproved, TeacherID2},
		{StudentID2, SubjectSciID, ClassID1, "midterm", 79, shared.GradeStatusApproved, TeacherID2},

		// Awaiting review: shows up on the approval dashboard.
		{StudentID1, SubjectEngID, ClassID1, "quiz-1", 90, shared.GradeStatusSubmitted, TeacherID1},
		{StudentID2, SubjectEngID, ClassID1, "quiz-1", 85, shared.GradeStatusSubmitted, TeacherID1},

		// A teacher's private draft.
		{StudentID3, SubjectSciID, ClassID2, "quiz-1", 77, shared.GradeStatusDraft, TeacherID2},
	}

	now := time.Now()
	for _, s := range seeds {
		score := s.Score
		entry := shared.GradeEntry{
			ID:          shared.GenerateGradeID(),
			SchoolID:    SchoolID,
			StudentID:   s.StudentID,
			SubjectID:   s.SubjectID,
			ClassID:     s.ClassID,
			Term:        CurrentTerm,
			ExamType:    s.ExamType,
			Score:       &score,
			MaxScore:    shared.DefaultMaxScore,
			Percentage:  shared.ComputePercentage(&score, shared.DefaultMaxScore),
			Status:      s.Status,
			SubmittedBy: s.TeacherID,
		}

		// Backfill lifecycle timestamps for how far the entry has progressed.
		switch s.Status {
		case shared.GradeStatusReleased:
			entry.SubmittedAt = now.AddDate(0, 0, -7)
			entry.ApprovedBy = PrincipalID
			entry.ApprovedAt = now.AddDate(0, 0, -5)
			entry.ReleasedAt = now.AddDate(0, 0, -3)
			entry.IsReleased = true
			entry.IsImmutable = true
		case shared.GradeStatusApproved:
			entry.SubmittedAt = now.AddDate(0, 0, -4)
			entry.ApprovedBy = PrincipalID
			entry.ApprovedAt = now.AddDate(0, 0, -2)
		case shared.GradeStatusSubmitted:
			entry.SubmittedAt = now.AddDate(0, 0, -1)
		}

		if _, err := gradesCol.InsertOne(ctx, entry); err != nil {
			log.Fatalf("Error seeding grade for %s/%s: %v", s.StudentID, s.SubjectID, err)
		}
		log.Printf("Seeded Grade: %s %s %s = %.0f (%s)", s.StudentID, s.SubjectID, s.ExamType, s.Score, s.Status)
	}
}

func seedFeeBalances(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Fee Balances & Payments ---")
	now := time.Now()

	balances := []shared.FeeBalance{
		{StudentID: StudentID1, SchoolID: SchoolID, Charged: 15000, Paid: 10000, UpdatedAt: now},
		{StudentID: StudentID2, SchoolID: SchoolID, Charged: 15000, Paid: 15000, UpdatedAt: now},
		{StudentID: StudentID3, SchoolID: SchoolID, Charged: 15000, Paid: 0, UpdatedAt: now},
	}
	for _, b := range balances {
		if _, err := db.Collection(shared.ColFeeBalances).InsertOne(ctx, b); err != nil {
			log.Fatalf("Error seeding balance for %s: %v", b.StudentID, err)
		}
		log.Printf("Seeded Balance: %s charged=%.0f paid=%.0f", b.StudentID, b.Charged, b.Paid)
	}

	payments := []shared.Payment{
		{ID: shared.GenerateID("PAY"), SchoolID: SchoolID, StudentID: StudentID1, Amount: 10000, Method: "transfer", Reference: "TRX-1001", RecordedBy: FinanceID, RecordedAt: now.AddDate(0, -1, 0)},
		{ID: shared.GenerateID("PAY"), SchoolID: SchoolID, StudentID: StudentID2, Amount: 15000, Method: "cash", RecordedBy: FinanceID, RecordedAt: now.AddDate(0, -1, 5)},
	}
	for _, p := range payments {
		if _, err := db.Collection(shared.ColPayments).InsertOne(ctx, p); err != nil {
			log.Fatalf("Error seeding payment for %s: %v", p.StudentID, err)
		}
		log.Printf("Seeded Payment: %s %.0f via %s", p.StudentID, p.Amount, p.Method)
	}
}
