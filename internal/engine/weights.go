package engine

import (
	"fmt"
	"math"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

// WeightField identifies one of the three scoring factors. The canonical order
// equality, continuity, loyalty also fixes which field absorbs rounding
// remainders during rebalancing.
type WeightField string

const (
	WeightEquality   WeightField = "equality"
	WeightContinuity WeightField = "continuity"
	WeightLoyalty    WeightField = "loyalty"
)

var canonicalWeightOrder = []WeightField{WeightEquality, WeightContinuity, WeightLoyalty}

// ValidateWeightProfile checks the two weight invariants: every factor within
// [0,100] and the three factors summing to exactly 100. Invalid profiles are
// rejected, never silently repaired.
func (e *Engine) ValidateWeightProfile(profile models.WeightProfile) error {
	for _, field := range canonicalWeightOrder {
		value := weightValue(profile, field)
		if value < 0 || value > 100 {
			return appErrors.Clone(appErrors.ErrWeightOutOfRange, fmt.Sprintf("%s weight %d is outside [0,100]", field, value))
		}
	}
	if sum := profile.Equality + profile.Continuity + profile.Loyalty; sum != 100 {
		return appErrors.Clone(appErrors.ErrInvalidWeightSum, fmt.Sprintf("weights sum to %d, must sum to 100", sum))
	}
	return nil
}

// RebalanceWeightProfile sets one factor to newValue and redistributes the
// remaining budget across the other two in proportion to their previous
// relative magnitudes. When both other factors were zero the remainder is
// split evenly. After integer rounding, any difference from 100 is assigned
// entirely to the first unchanged field in canonical order, which makes the
// operation deterministic bit-for-bit.
func (e *Engine) RebalanceWeightProfile(profile models.WeightProfile, field WeightField, newValue int) (models.WeightProfile, error) {
	if newValue < 0 || newValue > 100 {
		return models.WeightProfile{}, appErrors.Clone(appErrors.ErrWeightOutOfRange, fmt.Sprintf("%s weight %d is outside [0,100]", field, newValue))
	}

	others := make([]WeightField, 0, 2)
	known := false
	for _, f := range canonicalWeightOrder {
		if f == field {
			known = true
			continue
		}
		others = append(others, f)
	}
	if !known {
		return models.WeightProfile{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weight field %q", field))
	}

	prevA := weightValue(profile, others[0])
	prevB := weightValue(profile, others[1])
	budget := 100 - newValue

	var shareA, shareB int
	switch {
	case prevA+prevB > 0:
		shareA = int(math.Round(float64(budget) * float64(prevA) / float64(prevA+prevB)))
		shareB = int(math.Round(float64(budget) * float64(prevB) / float64(prevA+prevB)))
	case budget > 0:
		shareA = budget / 2
		shareB = budget / 2
	}

	// Rounding remainder goes to the first unchanged field in canonical order.
	shareA += 100 - (newValue + shareA + shareB)

	rebalanced := profile
	setWeightValue(&rebalanced, field, newValue)
	setWeightValue(&rebalanced, others[0], shareA)
	setWeightValue(&rebalanced, others[1], shareB)
	return rebalanced, nil
}

func weightValue(profile models.WeightProfile, field WeightField) int {
	switch field {
	case WeightEquality:
		return profile.Equality
	case WeightContinuity:
		return profile.Continuity
	case WeightLoyalty:
		return profile.Loyalty
	}
	return 0
}

func setWeightValue(profile *models.WeightProfile, field WeightField, value int) {
	switch field {
	case WeightEquality:
		profile.Equality = value
	case WeightContinuity:
		profile.Continuity = value
	case WeightLoyalty:
		profile.Loyalty = value
	}
}
