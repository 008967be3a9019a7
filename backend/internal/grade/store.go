// ============================================================================
// backend/internal/grade/store.go
// Grade record store and directory lookups (MongoDB implementation)
// ============================================================================

package grade

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schoolhub/backend/internal/shared"
)

// Store is the grade record store. The single write primitive is an upsert
// with the composite natural key as conflict target; status moves go through
// TransitionAll, which is all-or-nothing over the batch.
type Store interface {
	FindByKey(ctx context.Context, key shared.GradeKey) (*shared.GradeEntry, error)
	Upsert(ctx context.Context, entry *shared.GradeEntry) (created bool, err error)
	ListForReview(ctx context.Context, schoolID string) ([]shared.GradeEntry, error)
	ListByIDs(ctx context.Context, schoolID string, ids []string) ([]shared.GradeEntry, error)
	TransitionAll(ctx context.Context, schoolID string, ids []string, from, to, byUserID string, at time.Time) error
	ListReleasedForStudent(ctx context.Context, schoolID, studentID string) ([]shared.GradeEntry, error)
	ListForClassTerm(ctx context.Context, schoolID, classID, term string) ([]shared.GradeEntry, error)
}

// Directory resolves the reference data the validator and aggregator need:
// class/enrollment membership and display names. Names are fetched in
// batched lookups per target collection, never joined.
type Directory interface {
	GetClass(ctx context.Context, classID string) (*shared.Class, error)
	IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	ClassNames(ctx context.Context, ids []string) (map[string]string, error)
	SubjectNames(ctx context.Context, ids []string) (map[string]string, error)
	UserNames(ctx context.Context, ids []string) (map[string]string, error)
}

// reviewScanLimit caps a single approval dashboard load.
const reviewScanLimit = 2000

// MongoStore implements Store and Directory on MongoDB.
type MongoStore struct {
	client      *mongo.Client
	grades      *mongo.Collection
	classes     *mongo.Collection
	subjects    *mongo.Collection
	enrollments *mongo.Collection
	users       *mongo.Collection
}

// NewMongoStore creates a MongoStore instance.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:      client,
		grades:      db.Collection(shared.ColGrades),
		classes:     db.Collection(shared.ColClasses),
		subjects:    db.Collection(shared.ColSubjects),
		enrollments: db.Collection(shared.ColEnrollments),
		users:       db.Collection(shared.ColUsers),
	}
}

// keyFilter builds the composite natural key filter.
func keyFilter(key shared.GradeKey) bson.M {
	return bson.M{
		"student_id": key.StudentID,
		"subject_id": key.SubjectID,
		"class_id":   key.ClassID,
		"term":       key.Term,
		"exam_type":  key.ExamType,
	}
}

// FindByKey returns the entry matching the natural key, or nil when absent.
func (s *MongoStore) FindByKey(ctx context.Context, key shared.GradeKey) (*shared.GradeEntry, error) {
	var entry shared.GradeEntry
	err := s.grades.FindOne(ctx, keyFilter(key)).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the entry or updates the row matching its natural key.
// Returns true when a new row was created.
func (s *MongoStore) Upsert(ctx context.Context, entry *shared.GradeEntry) (bool, error) {
	set := bson.M{
		"school_id":    entry.SchoolID,
		"max_score":    entry.MaxScore,
		"status":       entry.Status,
		"submitted_by": entry.SubmittedBy,
		"submitted_at": entry.SubmittedAt,
		"is_released":  entry.IsReleased,
		"is_immutable": entry.IsImmutable,
	}
	if entry.ApprovedBy != "" {
		set["approved_by"] = entry.ApprovedBy
		set["approved_at"] = entry.ApprovedAt
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": entry.ID},
	}

	// Percentage is stored but always derived; a score-less entry clears both.
	if entry.Score != nil {
		set["score"] = *entry.Score
		set["percentage"] = entry.Percentage
	} else {
		update["$unset"] = bson.M{"score": "", "percentage": ""}
	}

	opts := options.Update().SetUpsert(true)
	res, err := s.grades.UpdateOne(ctx, keyFilter(entry.Key()), update, opts)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// ListForReview returns the tenant's entries with a workflow status and a
// non-null submitted_at, most recently submitted first.
func (s *MongoStore) ListForReview(ctx context.Context, schoolID string) ([]shared.GradeEntry, error) {
	filter := bson.M{
		"school_id": schoolID,
		"status": bson.M{"$in": []string{
			shared.GradeStatusSubmitted,
			shared.GradeStatusApproved,
			shared.GradeStatusReleased,
		}},
		"submitted_at": bson.M{"$gt": time.Time{}},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetLimit(reviewScanLimit)

	return s.findEntries(ctx, filter, opts)
}

// ListByIDs returns the entries with the given ids, tenant-scoped unless
// schoolID is empty.
func (s *MongoStore) ListByIDs(ctx context.Context, schoolID string, ids []string) ([]shared.GradeEntry, error) {
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if schoolID != "" {
		filter["school_id"] = schoolID
	}
	return s.findEntries(ctx, filter, options.Find())
}

// TransitionAll moves every listed entry from one status to the next inside a
// transaction. If any entry is missing, belongs to another school, or is not
// in the expected source status, nothing is mutated.
func (s *MongoStore) TransitionAll(ctx context.Context, schoolID string, ids []string, from, to, byUserID string, at time.Time) error {
	if !CanTransition(from, to) {
		return errInvalidTransition(from, to)
	}

	filter := bson.M{
		"_id":    bson.M{"$in": ids},
		"status": from,
	}
	if schoolID != "" {
		filter["school_id"] = schoolID
	}

	set := bson.M{"status": to}
	switch to {
	case shared.GradeStatusApproved:
		set["approved_by"] = byUserID
		set["approved_at"] = at
	case shared.GradeStatusReleased:
		set["released_at"] = at
		set["is_released"] = true
		set["is_immutable"] = true
	}

	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.grades.UpdateMany(sessCtx, filter, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount != int64(len(ids)) {
			// Aborting the transaction rolls back the partial update.
			return errInvalidTransition(from, to)
		}
		return nil
	})
}

// ListReleasedForStudent returns only released entries for the student.
func (s *MongoStore) ListReleasedForStudent(ctx context.Context, schoolID, studentID string) ([]shared.GradeEntry, error) {
	filter := bson.M{
		"school_id":   schoolID,
		"student_id":  studentID,
		"is_released": true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "term", Value: -1}, {Key: "subject_id", Value: 1}})
	return s.findEntries(ctx, filter, opts)
}

// ListForClassTerm returns the class's entries, optionally filtered by term.
func (s *MongoStore) ListForClassTerm(ctx context.Context, schoolID, classID, term string) ([]shared.GradeEntry, error) {
	filter := bson.M{
		"school_id": schoolID,
		"class_id":  classID,
	}
	if term != "" {
		filter["term"] = term
	}
	opts := options.Find().SetSort(bson.D{{Key: "subject_id", Value: 1}, {Key: "student_id", Value: 1}})
	return s.findEntries(ctx, filter, opts)
}

func (s *MongoStore) findEntries(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]shared.GradeEntry, error) {
	cursor, err := s.grades.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []shared.GradeEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ============================================================================
// Directory Lookups
// ============================================================================

// GetClass returns the class, or nil when it does not exist.
func (s *MongoStore) GetClass(ctx context.Context, classID string) (*shared.Class, error) {
	var class shared.Class
	err := s.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&class)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// IsStudentEnrolled reports whether the student has an active enrollment in the class.
func (s *MongoStore) IsStudentEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	count, err := s.enrollments.CountDocuments(ctx, bson.M{
		"student_id": studentID,
		"class_id":   classID,
		"status":     shared.EnrollmentActive,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClassNames resolves class display names in one batched lookup.
func (s *MongoStore) ClassNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.namesByID(ctx, s.classes, ids)
}

// SubjectNames resolves subject display names in one batched lookup.
func (s *MongoStore) SubjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.namesByID(ctx, s.subjects, ids)
}

// UserNames resolves user display names in one batched lookup.
func (s *MongoStore) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.namesByID(ctx, s.users, ids)
}

func (s *MongoStore) namesByID(ctx context.Context, col *mongo.Collection, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID   string `bson:"_id"`
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		names[doc.ID] = doc.Name
	}
	return names, cursor.Err()
}
