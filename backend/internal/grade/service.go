// ============================================================================
// backend/internal/grade/service.go
// Grade lifecycle service: submission, approval, release, review, reporting
// ============================================================================

package grade

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"schoolhub/backend/internal/shared"
)

// Service implements the grade lifecycle operations. All mutation goes
// through the validator and the store's natural-key upsert; status moves go
// through TransitionAll. Every mutating operation writes one audit entry on
// failure before returning and one on success after the store commit.
type Service struct {
	store Store
	dir   Directory
	val   *Validator
	audit shared.AuditRecorder
	now   func() time.Time
}

// NewService creates a grade Service.
func NewService(store Store, dir Directory, limiter *shared.RateLimiter, audit shared.AuditRecorder) *Service {
	return &Service{
		store: store,
		dir:   dir,
		val:   NewValidator(dir, limiter),
		audit: audit,
		now:   time.Now,
	}
}

// SubmitResult reports the outcome of a single submission.
type SubmitResult struct {
	Entry        *shared.GradeEntry `json:"entry"`
	Created      bool               `json:"created"`
	AutoApproved bool               `json:"auto_approved"`
}

// BatchResult reports the outcome of a bulk submission.
type BatchResult struct {
	TotalProcessed int32    `json:"total_processed"`
	Successful     int32    `json:"successful"`
	Failed         int32    `json:"failed"`
	Errors         []string `json:"errors,omitempty"`
}

// ============================================================================
// Submission
// ============================================================================

// Submit validates and writes one grade entry. A resubmission against the
// same composite key before release updates score and percentage in place; a
// released entry rejects the edit. When draft is true the entry is withheld
// from the review workflow.
func (s *Service) Submit(ctx context.Context, actor shared.Actor, in SubmissionInput, draft bool) (*SubmitResult, error) {
	class, err := s.val.ValidateSubmission(ctx, actor, in)
	if err != nil {
		s.auditFailure(ctx, actor, shared.ActionGradeSubmit, in.ClassID, err)
		return nil, err
	}

	result, err := s.submitValidated(ctx, actor, class, in, draft)
	if err != nil {
		s.auditFailure(ctx, actor, shared.ActionGradeSubmit, in.ClassID, err)
		return nil, err
	}

	action := shared.ActionGradeSubmit
	if result.AutoApproved {
		action = shared.ActionGradeAutoApprove
	}
	s.audit.Record(ctx, actor, action, result.Entry.ID, true, map[string]interface{}{
		"student_id": in.StudentID,
		"subject_id": in.SubjectID,
		"class_id":   in.ClassID,
		"term":       in.Term,
		"exam_type":  in.ExamType,
		"created":    result.Created,
	})
	return result, nil
}

// SubmitBatch saves an entry sheet as one batch. The whole batch consumes a
// single rate-limit slot; per-entry failures are collected instead of
// aborting the remainder, and each payload is re-validated server-side
// regardless of what the sheet filtered.
func (s *Service) SubmitBatch(ctx context.Context, actor shared.Actor, sheet EntrySheet) (*BatchResult, error) {
	payloads, err := sheet.Payloads()
	if err != nil {
		// Empty-batch guard: nothing is written anywhere, not even an audit row.
		return nil, err
	}

	if err := s.val.CheckRate(actor, shared.ActionGradeBulk); err != nil {
		s.auditFailure(ctx, actor, shared.ActionGradeBulk, sheet.ClassID, err)
		return nil, err
	}

	result := &BatchResult{}
	for _, in := range payloads {
		result.TotalProcessed++

		class, err := s.val.ValidateEntry(ctx, actor, in)
		if err == nil {
			_, err = s.submitValidated(ctx, actor, class, in, false)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("student %s: %v", in.StudentID, err))
			continue
		}
		result.Successful++
	}

	s.audit.Record(ctx, actor, shared.ActionGradeBulk, sheet.ClassID, result.Failed == 0, map[string]interface{}{
		"subject_id": sheet.SubjectID,
		"term":       sheet.Term,
		"exam_type":  sheet.ExamType,
		"total":      result.TotalProcessed,
		"successful": result.Successful,
		"failed":     result.Failed,
	})
	return result, nil
}

// submitValidated performs the store write for an already validated payload.
func (s *Service) submitValidated(ctx context.Context, actor shared.Actor, class *shared.Class, in SubmissionInput, draft bool) (*SubmitResult, error) {
	key := shared.GradeKey{
		StudentID: in.StudentID,
		SubjectID: in.SubjectID,
		ClassID:   in.ClassID,
		Term:      in.Term,
		ExamType:  in.ExamType,
	}

	var existing *shared.GradeEntry
	err := withRetry(ctx, "grade lookup", func() error {
		var lookupErr error
		existing, lookupErr = s.store.FindByKey(ctx, key)
		return lookupErr
	})
	if err != nil {
		return nil, errDatabase("grade lookup", err)
	}

	if existing != nil && (existing.IsImmutable || existing.Status == shared.GradeStatusReleased) {
		return nil, errImmutableRecord(existing.ID)
	}

	now := s.now()
	maxScore := in.EffectiveMaxScore()
	entry := &shared.GradeEntry{
		SchoolID:    class.SchoolID,
		StudentID:   in.StudentID,
		SubjectID:   in.SubjectID,
		ClassID:     in.ClassID,
		Term:        in.Term,
		ExamType:    in.ExamType,
		Score:       in.Score,
		MaxScore:    maxScore,
		Percentage:  shared.ComputePercentage(in.Score, maxScore),
		SubmittedBy: actor.UserID,
		SubmittedAt: now,
	}

	autoApproved := false
	if existing == nil {
		entry.ID = shared.GenerateGradeID()
		entry.Status = InitialStatus(actor.Role, draft)
		if entry.Status == shared.GradeStatusApproved {
			entry.ApprovedBy = actor.UserID
			entry.ApprovedAt = now
			autoApproved = true
		}
	} else {
		// Resubmission before release: update score in place without changing
		// status, except a draft that is now being submitted for real.
		entry.ID = existing.ID
		entry.Status = existing.Status
		if existing.Status == shared.GradeStatusDraft && !draft {
			entry.Status = shared.GradeStatusSubmitted
		}
		entry.ApprovedBy = existing.ApprovedBy
		entry.ApprovedAt = existing.ApprovedAt
	}

	var created bool
	err = withRetry(ctx, "grade upsert", func() error {
		var upsertErr error
		created, upsertErr = s.store.Upsert(ctx, entry)
		return upsertErr
	})
	if err != nil {
		return nil, errDatabase("grade upsert", err)
	}

	return &SubmitResult{Entry: entry, Created: created, AutoApproved: autoApproved}, nil
}

// ============================================================================
// Approval Dashboard
// ============================================================================

// ListSubmissions aggregates the tenant's workflow entries into submission
// groups for review, most recently submitted first.
func (s *Service) ListSubmissions(ctx context.Context, actor shared.Actor) ([]shared.GradeSubmissionGroup, error) {
	if !RoleCan(actor.Role, ActionReview) {
		return nil, errPermissionDenied(fmt.Sprintf("role %s may not review submissions", actor.Role))
	}

	var entries []shared.GradeEntry
	err := withRetry(ctx, "review scan", func() error {
		var listErr error
		entries, listErr = s.store.ListForReview(ctx, actor.SchoolID)
		return listErr
	})
	if err != nil {
		return nil, errDatabase("review scan", err)
	}

	groups := BuildGroups(entries)
	if len(groups) == 0 {
		return groups, nil
	}

	// Three batched display-name lookups instead of a join: the grades row
	// references users twice over, which makes a single join ambiguous.
	classIDs, subjectIDs, userIDs := DistinctGroupRefs(groups)

	var classNames, subjectNames, userNames map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var lookupErr error
		classNames, lookupErr = s.dir.ClassNames(gctx, classIDs)
		return lookupErr
	})
	g.Go(func() error {
		var lookupErr error
		subjectNames, lookupErr = s.dir.SubjectNames(gctx, subjectIDs)
		return lookupErr
	})
	g.Go(func() error {
		var lookupErr error
		userNames, lookupErr = s.dir.UserNames(gctx, userIDs)
		return lookupErr
	})
	if err := g.Wait(); err != nil {
		return nil, errDatabase("display name lookup", err)
	}

	for i := range groups {
		groups[i].ClassName = classNames[groups[i].ClassID]
		groups[i].SubjectName = subjectNames[groups[i].SubjectID]
		groups[i].SubmitterName = userNames[groups[i].SubmittedBy]
	}
	return groups, nil
}

// ============================================================================
// Status Transitions
// ============================================================================

// Approve moves every listed entry from submitted to approved, all-or-nothing.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, entryIDs []string) error {
	return s.transition(ctx, actor, entryIDs, ActionApprove, shared.ActionGradeApprove,
		shared.GradeStatusSubmitted, shared.GradeStatusApproved)
}

// Release moves every listed entry from approved to released, all-or-nothing.
// Released entries become visible to students and permanently immutable.
func (s *Service) Release(ctx context.Context, actor shared.Actor, entryIDs []string) error {
	return s.transition(ctx, actor, entryIDs, ActionRelease, shared.ActionGradeRelease,
		shared.GradeStatusApproved, shared.GradeStatusReleased)
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, entryIDs []string, action Action, auditAction, from, to string) error {
	if len(entryIDs) == 0 {
		return errMissingField("grade_ids")
	}

	// Capability gate before any store access: a denied actor mutates nothing.
	if !RoleCan(actor.Role, action) {
		err := errPermissionDenied(fmt.Sprintf("role %s may not %s grades", actor.Role, action))
		s.auditFailure(ctx, actor, auditAction, fmt.Sprintf("%d entries", len(entryIDs)), err)
		return err
	}

	err := withRetry(ctx, string(action), func() error {
		return s.store.TransitionAll(ctx, actor.SchoolID, entryIDs, from, to, actor.UserID, s.now())
	})
	if err != nil {
		if KindOf(err) == "" {
			err = errDatabase(string(action), err)
		}
		s.auditFailure(ctx, actor, auditAction, fmt.Sprintf("%d entries", len(entryIDs)), err)
		return err
	}

	s.audit.RecordChange(ctx, actor, auditAction, fmt.Sprintf("%d entries", len(entryIDs)), from, to)
	return nil
}

// ============================================================================
// Released Views & Reporting
// ============================================================================

// StudentGrades returns a student's released entries. Students see only their
// own; parents and school staff are scoped to their school; platform admins
// may name a school explicitly.
func (s *Service) StudentGrades(ctx context.Context, actor shared.Actor, schoolID, studentID string) ([]shared.GradeEntry, error) {
	if studentID == "" {
		return nil, errMissingField("student_id")
	}

	if !actor.IsPlatformAdmin() {
		schoolID = actor.SchoolID
	}
	if actor.Role == shared.RoleStudent && actor.UserID != studentID {
		return nil, errPermissionDenied("students may only view their own grades")
	}

	var entries []shared.GradeEntry
	err := withRetry(ctx, "released grades", func() error {
		var listErr error
		entries, listErr = s.store.ListReleasedForStudent(ctx, schoolID, studentID)
		return listErr
	})
	if err != nil {
		return nil, errDatabase("released grades", err)
	}
	return entries, nil
}

// ClassReport builds the score distribution report for a class, optionally
// narrowed to a term. Principals, owners, platform admins, and the class's
// own teachers may read it.
func (s *Service) ClassReport(ctx context.Context, actor shared.Actor, classID, term string) (*ClassReport, error) {
	if classID == "" {
		return nil, errMissingField("class_id")
	}

	class, err := s.dir.GetClass(ctx, classID)
	if err != nil {
		return nil, errDatabase("class lookup", err)
	}
	if class == nil {
		return nil, errCrossTenant(classID)
	}
	if !actor.IsPlatformAdmin() && class.SchoolID != actor.SchoolID {
		return nil, errCrossTenant(classID)
	}

	allowed := actor.IsPlatformAdmin() ||
		actor.Role == shared.RolePrincipal ||
		actor.Role == shared.RoleSchoolOwner ||
		(actor.Role == shared.RoleTeacher && class.HasTeacher(actor.UserID))
	if !allowed {
		return nil, errPermissionDenied("not permitted to view this class report")
	}

	var entries []shared.GradeEntry
	err = withRetry(ctx, "class report scan", func() error {
		var listErr error
		entries, listErr = s.store.ListForClassTerm(ctx, class.SchoolID, classID, term)
		return listErr
	})
	if err != nil {
		return nil, errDatabase("class report scan", err)
	}

	report := BuildClassReport(classID, term, entries)
	report.ClassName = class.Name

	subjectIDs := make([]string, 0, len(report.Subjects))
	for i := range report.Subjects {
		subjectIDs = append(subjectIDs, report.Subjects[i].SubjectID)
	}
	subjectNames, err := s.dir.SubjectNames(ctx, subjectIDs)
	if err != nil {
		return nil, errDatabase("subject name lookup", err)
	}
	for i := range report.Subjects {
		report.Subjects[i].SubjectName = subjectNames[report.Subjects[i].SubjectID]
	}

	return report, nil
}

// auditFailure writes the single failure-path audit entry.
func (s *Service) auditFailure(ctx context.Context, actor shared.Actor, action, resource string, err error) {
	s.audit.Record(ctx, actor, action, resource, false, map[string]interface{}{
		"error": err.Error(),
		"kind":  string(KindOf(err)),
	})
}
