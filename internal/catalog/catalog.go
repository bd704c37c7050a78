// Static plan catalog. Definitions are immutable at runtime; activation
// snapshots the feature set onto the subscription so later catalog edits
// never retroactively change granted entitlements.
package catalog

import (
	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/entity"
)

var plans = map[entity.PlanID]entity.PlanDefinition{
	entity.PlanFree: {
		PlanID:      entity.PlanFree,
		DisplayName: "Free",
		Price:       0,
		Purchasable: true,
		FeatureSet: entity.FeatureSet{
			GamesPerPillar:    3,
			MaxLinkedChildren: 0,
		},
	},
	entity.PlanStudentPremium: {
		PlanID:      entity.PlanStudentPremium,
		DisplayName: "Student Premium",
		Price:       2999,
		Purchasable: true,
		FeatureSet: entity.FeatureSet{
			GamesPerPillar:  entity.Unlimited,
			ProgressReports: true,
		},
	},
	entity.PlanStudentParentPro: {
		PlanID:      entity.PlanStudentParentPro,
		DisplayName: "Student + Parent Premium Pro",
		Price:       4999,
		Purchasable: true,
		FeatureSet: entity.FeatureSet{
			GamesPerPillar:    entity.Unlimited,
			MaxLinkedChildren: 4,
			ParentDashboard:   true,
			ProgressReports:   true,
			Announcements:     true,
		},
	},
	entity.PlanInstitutions: {
		PlanID:      entity.PlanInstitutions,
		DisplayName: "Educational Institutions Premium",
		Price:       0,
		Purchasable: false,
		FeatureSet: entity.FeatureSet{
			GamesPerPillar:    entity.Unlimited,
			MaxLinkedChildren: entity.Unlimited,
			ParentDashboard:   true,
			ProgressReports:   true,
			AssignmentGrading: true,
			Announcements:     true,
		},
	},
}

// Fixed price for upgrading an additionally linked child from a mid tier
// to the family tier (minor units).
const midTierUpgradePrice int64 = 2000

// Resolve returns the definition for a plan id. Pure lookup, no side
// effects. The returned value is a copy; callers cannot mutate the
// catalog through it.
func Resolve(id entity.PlanID) (*entity.PlanDefinition, error) {
	def, ok := plans[id]
	if !ok {
		return nil, apperrors.ErrInvalidPlan
	}
	return &def, nil
}

// AssertPurchasable resolves the plan and rejects direct end-user
// purchases of admin-provisioned plans.
func AssertPurchasable(id entity.PlanID) (*entity.PlanDefinition, error) {
	def, err := Resolve(id)
	if err != nil {
		return nil, err
	}
	if !def.Purchasable {
		return nil, apperrors.ErrForbiddenPlan
	}
	return def, nil
}

// AdditionalChildUpgradePrice returns the cost of bringing an additional
// child up to the family tier from its current plan.
func AdditionalChildUpgradePrice(from entity.PlanID) int64 {
	switch from {
	case entity.PlanStudentParentPro, entity.PlanInstitutions:
		return 0
	case entity.PlanStudentPremium:
		return midTierUpgradePrice
	default:
		return plans[entity.PlanStudentParentPro].Price
	}
}

// All returns every catalog entry, for the public plans listing.
func All() []entity.PlanDefinition {
	out := make([]entity.PlanDefinition, 0, len(plans))
	for _, id := range []entity.PlanID{
		entity.PlanFree,
		entity.PlanStudentPremium,
		entity.PlanStudentParentPro,
		entity.PlanInstitutions,
	} {
		out = append(out, plans[id])
	}
	return out
}
