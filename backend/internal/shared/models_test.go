// ============================================================================
// backend/internal/shared/models_test.go
// ============================================================================

package shared

import "testing"

func TestComputePercentage(t *testing.T) {
	score := 85.0
	cases := []struct {
		name     string
		score    *float64
		maxScore float64
		want     *float64
	}{
		{"default max", &score, 100, ptrF(85.0)},
		{"custom max", ptrF(120), 150, ptrF(80.0)},
		{"rounds to 2 decimals", ptrF(1), 3, ptrF(33.33)},
		{"nil score", nil, 100, nil},
		{"zero max", &score, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePercentage(tc.score, tc.maxScore)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tc.want != nil && got == nil:
				t.Errorf("got nil, want %v", *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Errorf("got %v, want %v", *got, *tc.want)
			}
		})
	}
}

func TestGradeEntryKey(t *testing.T) {
	e := GradeEntry{
		StudentID: "student-1",
		SubjectID: "subj-math",
		ClassID:   "class-1",
		Term:      "2026-T1",
		ExamType:  "midterm",
	}
	want := GradeKey{
		StudentID: "student-1",
		SubjectID: "subj-math",
		ClassID:   "class-1",
		Term:      "2026-T1",
		ExamType:  "midterm",
	}
	if e.Key() != want {
		t.Errorf("key = %+v, want %+v", e.Key(), want)
	}
}

func TestClassHasTeacher(t *testing.T) {
	c := Class{TeacherIDs: []string{"teacher-1", "teacher-2"}}
	if !c.HasTeacher("teacher-1") {
		t.Error("expected teacher-1 to be assigned")
	}
	if c.HasTeacher("teacher-3") {
		t.Error("teacher-3 should not be assigned")
	}
}

func TestActorIsPlatformAdmin(t *testing.T) {
	if !(Actor{Role: RolePlatformAdmin}).IsPlatformAdmin() {
		t.Error("platform admin not recognized")
	}
	if (Actor{Role: RolePrincipal}).IsPlatformAdmin() {
		t.Error("principal must not bypass tenant scoping")
	}
}

func TestFeeBalanceOutstanding(t *testing.T) {
	b := FeeBalance{Charged: 1000, Paid: 350}
	if got := b.Outstanding(); got != 650 {
		t.Errorf("outstanding = %v, want 650", got)
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RolePlatformAdmin, RoleSchoolOwner, RolePrincipal, RoleTeacher, RoleFinanceOfficer, RoleParent, RoleStudent} {
		if !IsValidRole(role) {
			t.Errorf("role %s should be valid", role)
		}
	}
	if IsValidRole("superuser") {
		t.Error("unknown role accepted")
	}
}

func TestIsValidGradeStatus(t *testing.T) {
	for _, status := range []string{GradeStatusDraft, GradeStatusSubmitted, GradeStatusApproved, GradeStatusReleased} {
		if !IsValidGradeStatus(status) {
			t.Errorf("status %s should be valid", status)
		}
	}
	if IsValidGradeStatus("pending") {
		t.Error("unknown status accepted")
	}
}

func ptrF(v float64) *float64 { return &v }
