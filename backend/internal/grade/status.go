// ============================================================================
// backend/internal/grade/status.go
// Grade status state machine and role capability table
// ============================================================================

package grade

import "schoolhub/backend/internal/shared"

// Action is a role-gated grade operation.
type Action string

const (
	ActionSubmit  Action = "submit"  // create or resubmit an entry
	ActionApprove Action = "approve" // submitted -> approved (bulk)
	ActionRelease Action = "release" // approved -> released (bulk)
	ActionReview  Action = "review"  // load the approval dashboard
)

// transitions is the closed set of legal status moves. There is deliberately
// no backward edge: the audit trail is monotonic and released is terminal.
var transitions = map[string]map[string]bool{
	shared.GradeStatusDraft: {
		shared.GradeStatusSubmitted: true,
	},
	shared.GradeStatusSubmitted: {
		shared.GradeStatusSubmitted: true, // resubmission updates in place
		shared.GradeStatusApproved:  true,
	},
	shared.GradeStatusApproved: {
		shared.GradeStatusReleased: true,
	},
	shared.GradeStatusReleased: {},
}

// CanTransition reports whether moving a grade from one status to another is legal.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// capabilities maps each role to the grade actions it may perform. Checked
// once by the validator/service instead of ad hoc role-string comparisons at
// call sites. The data-dependent refinements (teacher of THIS class,
// principal of THIS school) are enforced by the validator with directory
// lookups on top of this table.
var capabilities = map[string]map[Action]bool{
	shared.RolePlatformAdmin: {
		ActionSubmit: true,
		ActionReview: true,
	},
	shared.RoleTeacher: {
		ActionSubmit: true,
	},
	shared.RolePrincipal: {
		ActionSubmit:  true,
		ActionApprove: true,
		ActionRelease: true,
		ActionReview:  true,
	},
	shared.RoleSchoolOwner: {
		ActionReview: true,
	},
}

// RoleCan reports whether a role holds a capability.
func RoleCan(role string, action Action) bool {
	return capabilities[role][action]
}

// InitialStatus returns the status a brand-new entry receives. Principals
// auto-approve their own submissions; a caller may explicitly withhold
// submission to keep a draft.
func InitialStatus(actorRole string, draft bool) string {
	if draft {
		return shared.GradeStatusDraft
	}
	if actorRole == shared.RolePrincipal {
		return shared.GradeStatusApproved
	}
	return shared.GradeStatusSubmitted
}
