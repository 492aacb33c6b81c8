package eligibility

import (
	"fmt"
	"strconv"

	"campusportal/pkg/domain"
)

// ReasonProfileIncomplete is returned when a profile has no education record at all.
const ReasonProfileIncomplete = "Profile incomplete"

// Verdict is the outcome of matching a profile against a post's minimum criteria.
type Verdict struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

// Evaluate checks every threshold the post defines against the student's
// education record. Unset thresholds and unset student values are skipped.
// A nil profile or a post without criteria is always eligible.
func Evaluate(profile *domain.StudentProfile, post domain.Post) Verdict {
	if profile == nil || post.MinimumCriteria == nil {
		return Verdict{Eligible: true, Reasons: []string{}}
	}
	if profile.Education == nil {
		return Verdict{Eligible: false, Reasons: []string{ReasonProfileIncomplete}}
	}
	criteria := post.MinimumCriteria
	edu := profile.Education
	reasons := []string{}

	if below(edu.College.GPA, criteria.GPA) {
		reasons = append(reasons, fmt.Sprintf("Your GPA (%s) is below the required minimum of %s.",
			formatNumber(*edu.College.GPA), formatNumber(*criteria.GPA)))
	}
	if below(edu.Secondary.Percentage, criteria.SecondaryPercentage) {
		reasons = append(reasons, fmt.Sprintf("Your 10th grade percentage (%s%%) is below the required minimum of %s%%.",
			formatNumber(*edu.Secondary.Percentage), formatNumber(*criteria.SecondaryPercentage)))
	}
	if below(edu.HigherSecondary.Percentage, criteria.HigherSecondaryPercentage) {
		reasons = append(reasons, fmt.Sprintf("Your 12th grade percentage (%s%%) is below the required minimum of %s%%.",
			formatNumber(*edu.HigherSecondary.Percentage), formatNumber(*criteria.HigherSecondaryPercentage)))
	}
	return Verdict{Eligible: len(reasons) == 0, Reasons: reasons}
}

func below(actual, minimum *float64) bool {
	if actual == nil || minimum == nil {
		return false
	}
	return *actual < *minimum
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
