package eligibility

import (
	"reflect"
	"strings"
	"testing"

	"campusportal/pkg/domain"
)

func f(v float64) *float64 { return &v }

func profileWith(gpa, secondary, higher *float64) *domain.StudentProfile {
	return &domain.StudentProfile{
		UserID: "s-1",
		Major:  "Computer Science",
		Education: &domain.EducationRecord{
			Secondary:       domain.Education{Level: "Secondary (10th)", Percentage: secondary},
			HigherSecondary: domain.Education{Level: "Higher Secondary (12th)", Percentage: higher},
			College:         domain.Education{Level: "B.Tech", GPA: gpa},
		},
	}
}

func TestEvaluateGPAShortfall(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{GPA: f(8.0)}}
	got := Evaluate(profileWith(f(7.5), f(90), f(90)), post)
	if got.Eligible {
		t.Fatalf("expected ineligible verdict")
	}
	if len(got.Reasons) != 1 {
		t.Fatalf("expected one reason, got %v", got.Reasons)
	}
	if !strings.Contains(got.Reasons[0], "7.5") || !strings.Contains(got.Reasons[0], "8") {
		t.Fatalf("reason should cite actual and required GPA: %q", got.Reasons[0])
	}
}

func TestEvaluateNoCriteriaOrNoProfile(t *testing.T) {
	post := domain.Post{}
	if v := Evaluate(profileWith(f(5), f(40), f(40)), post); !v.Eligible || len(v.Reasons) != 0 {
		t.Fatalf("post without criteria must be eligible, got %+v", v)
	}
	strict := domain.Post{MinimumCriteria: &domain.MinimumCriteria{GPA: f(9.9)}}
	if v := Evaluate(nil, strict); !v.Eligible || len(v.Reasons) != 0 {
		t.Fatalf("missing profile must be eligible, got %+v", v)
	}
}

func TestEvaluateMissingEducation(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{GPA: f(6)}}
	v := Evaluate(&domain.StudentProfile{UserID: "s-1"}, post)
	if v.Eligible {
		t.Fatalf("expected ineligible without education record")
	}
	if !reflect.DeepEqual(v.Reasons, []string{ReasonProfileIncomplete}) {
		t.Fatalf("unexpected reasons: %v", v.Reasons)
	}
}

func TestEvaluateUnsetThresholdsNeverFail(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{SecondaryPercentage: f(80)}}
	v := Evaluate(profileWith(f(0), f(85), f(0)), post)
	if !v.Eligible {
		t.Fatalf("only the secondary threshold is set; got reasons %v", v.Reasons)
	}
}

func TestEvaluateUnsetStudentValueIsSkipped(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{GPA: f(8)}}
	v := Evaluate(profileWith(nil, f(85), f(85)), post)
	if !v.Eligible {
		t.Fatalf("student without a recorded GPA should not fail the GPA check: %v", v.Reasons)
	}
}

func TestEvaluateCollectsEveryFailure(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{
		GPA:                       f(8),
		SecondaryPercentage:       f(80),
		HigherSecondaryPercentage: f(80),
	}}
	v := Evaluate(profileWith(f(7), f(70), f(75)), post)
	if v.Eligible || len(v.Reasons) != 3 {
		t.Fatalf("expected three reasons, got %+v", v)
	}
	if !strings.Contains(v.Reasons[1], "10th grade percentage (70%)") {
		t.Fatalf("unexpected secondary reason: %q", v.Reasons[1])
	}
	if !strings.Contains(v.Reasons[2], "12th grade percentage (75%)") {
		t.Fatalf("unexpected higher secondary reason: %q", v.Reasons[2])
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	post := domain.Post{MinimumCriteria: &domain.MinimumCriteria{GPA: f(8), SecondaryPercentage: f(95)}}
	p := profileWith(f(7.9), f(90), f(90))
	first := Evaluate(p, post)
	for i := 0; i < 5; i++ {
		if got := Evaluate(p, post); !reflect.DeepEqual(got, first) {
			t.Fatalf("evaluation changed between calls: %+v vs %+v", got, first)
		}
	}
}
