// ============================================================================
// backend/internal/grade/aggregator.go
// Groups flat grade entries into review-ready submission summaries
// ============================================================================

package grade

import (
	"math"

	"schoolhub/backend/internal/shared"
)

// groupKey identifies one submission unit on the approval dashboard.
type groupKey struct {
	ClassID     string
	SubjectID   string
	Term        string
	ExamType    string
	SubmittedBy string
}

// accumulator is the explicit fold state per group. Folding over a value
// struct (rather than mutating a shared map entry field by field) keeps the
// aggregation order-independent.
type accumulator struct {
	group  shared.GradeSubmissionGroup
	sum    float64
	scored int32 // entries that carried a numeric score
	status map[string]int32
}

// BuildGroups folds entries into submission groups. Input is expected in
// submission-time-descending order and group order preserves first
// appearance, so the most recently touched group comes first. Entries without
// a numeric score increment the count but contribute nothing to avg/min/max.
func BuildGroups(entries []shared.GradeEntry) []shared.GradeSubmissionGroup {
	accs := make(map[groupKey]*accumulator)
	var order []groupKey

	for i := range entries {
		e := &entries[i]
		key := groupKey{
			ClassID:     e.ClassID,
			SubjectID:   e.SubjectID,
			Term:        e.Term,
			ExamType:    e.ExamType,
			SubmittedBy: e.SubmittedBy,
		}

		acc, ok := accs[key]
		if !ok {
			acc = &accumulator{
				group: shared.GradeSubmissionGroup{
					ClassID:     e.ClassID,
					SubjectID:   e.SubjectID,
					Term:        e.Term,
					ExamType:    e.ExamType,
					SubmittedBy: e.SubmittedBy,
					SubmittedAt: e.SubmittedAt,
					MinScore:    100,
					MaxScore:    0,
				},
				status: make(map[string]int32),
			}
			accs[key] = acc
			order = append(order, key)
		}

		acc.group.Count++
		acc.group.EntryIDs = append(acc.group.EntryIDs, e.ID)
		acc.status[e.Status]++
		if e.SubmittedAt.After(acc.group.SubmittedAt) {
			acc.group.SubmittedAt = e.SubmittedAt
		}

		if e.Score != nil {
			acc.scored++
			acc.sum += *e.Score
			if *e.Score < acc.group.MinScore {
				acc.group.MinScore = *e.Score
			}
			if *e.Score > acc.group.MaxScore {
				acc.group.MaxScore = *e.Score
			}
		}
	}

	groups := make([]shared.GradeSubmissionGroup, 0, len(order))
	for _, key := range order {
		acc := accs[key]
		if acc.scored > 0 {
			acc.group.AverageScore = math.Round(acc.sum/float64(acc.scored)*10) / 10
		}
		acc.group.Status = dominantStatus(acc.status)
		groups = append(groups, acc.group)
	}
	return groups
}

// statusPrecedence orders ties toward the earliest workflow stage, so a group
// with pending work surfaces as pending.
var statusPrecedence = []string{
	shared.GradeStatusSubmitted,
	shared.GradeStatusApproved,
	shared.GradeStatusReleased,
	shared.GradeStatusDraft,
}

// dominantStatus picks the most frequent status among group members.
func dominantStatus(counts map[string]int32) string {
	best := ""
	var bestCount int32 = -1
	for _, status := range statusPrecedence {
		if counts[status] > bestCount {
			best = status
			bestCount = counts[status]
		}
	}
	return best
}

// DistinctGroupRefs collects the distinct class, subject, and submitter ids
// referenced by the groups, for the three batched display-name lookups.
func DistinctGroupRefs(groups []shared.GradeSubmissionGroup) (classIDs, subjectIDs, userIDs []string) {
	classSeen := make(map[string]bool)
	subjectSeen := make(map[string]bool)
	userSeen := make(map[string]bool)

	for i := range groups {
		g := &groups[i]
		if !classSeen[g.ClassID] {
			classSeen[g.ClassID] = true
			classIDs = append(classIDs, g.ClassID)
		}
		if !subjectSeen[g.SubjectID] {
			subjectSeen[g.SubjectID] = true
			subjectIDs = append(subjectIDs, g.SubjectID)
		}
		if !userSeen[g.SubmittedBy] {
			userSeen[g.SubmittedBy] = true
			userIDs = append(userIDs, g.SubmittedBy)
		}
	}
	return classIDs, subjectIDs, userIDs
}
