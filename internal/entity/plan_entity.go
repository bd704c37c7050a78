package entity

import "fmt"

type PlanID string

const (
	PlanFree              PlanID = "free"
	PlanStudentPremium    PlanID = "student_premium"
	PlanStudentParentPro  PlanID = "student_parent_premium_pro"
	PlanInstitutions      PlanID = "educational_institutions_premium"
)

// ParsePlanID validates an incoming plan identifier against the closed set.
func ParsePlanID(s string) (PlanID, error) {
	switch PlanID(s) {
	case PlanFree, PlanStudentPremium, PlanStudentParentPro, PlanInstitutions:
		return PlanID(s), nil
	}
	return "", fmt.Errorf("unknown plan id %q", s)
}

// IsFamilyTier reports whether the plan unlocks the parent dashboard in
// addition to student features.
func (p PlanID) IsFamilyTier() bool {
	return p == PlanStudentParentPro
}

// FeatureSet holds the flags and limits a plan grants. Numeric limits use
// -1 as the unlimited sentinel.
type FeatureSet struct {
	GamesPerPillar    int  `json:"games_per_pillar"`
	MaxLinkedChildren int  `json:"max_linked_children"`
	ParentDashboard   bool `json:"parent_dashboard"`
	ProgressReports   bool `json:"progress_reports"`
	AssignmentGrading bool `json:"assignment_grading"`
	Announcements     bool `json:"announcements"`
}

const Unlimited = -1

// Allows reports whether a numeric limit permits the given current count.
func (f FeatureSet) Allows(limit, current int) bool {
	if limit == Unlimited {
		return true
	}
	return current < limit
}

// PlanDefinition is a static catalog entry. Price is in minor currency
// units. Purchasable=false marks plans only provisioned by administrative
// flows (institution plans).
type PlanDefinition struct {
	PlanID      PlanID
	DisplayName string
	Price       int64
	FeatureSet  FeatureSet
	Purchasable bool
}
