package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

func TestValidateWeightProfileAcceptsBalancedProfile(t *testing.T) {
	e := New()
	err := e.ValidateWeightProfile(models.WeightProfile{Equality: 33, Continuity: 33, Loyalty: 34})
	require.NoError(t, err)
}

func TestValidateWeightProfileRejectsBadSum(t *testing.T) {
	e := New()
	err := e.ValidateWeightProfile(models.WeightProfile{Equality: 33, Continuity: 33, Loyalty: 33})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeightSum))
}

func TestValidateWeightProfileRejectsOutOfRange(t *testing.T) {
	e := New()

	err := e.ValidateWeightProfile(models.WeightProfile{Equality: 120, Continuity: -30, Loyalty: 10})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrWeightOutOfRange))

	err = e.ValidateWeightProfile(models.WeightProfile{Equality: -1, Continuity: 51, Loyalty: 50})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrWeightOutOfRange))
}

func TestRebalanceRedistributesProportionally(t *testing.T) {
	e := New()
	profile := models.WeightProfile{Equality: 33, Continuity: 33, Loyalty: 34}

	rebalanced, err := e.RebalanceWeightProfile(profile, WeightEquality, 50)
	require.NoError(t, err)

	assert.Equal(t, 50, rebalanced.Equality)
	assert.Equal(t, 25, rebalanced.Continuity)
	assert.Equal(t, 25, rebalanced.Loyalty)
	assert.Equal(t, 100, rebalanced.Equality+rebalanced.Continuity+rebalanced.Loyalty)
}

func TestRebalanceSplitsEvenlyWhenOthersWereZero(t *testing.T) {
	e := New()
	profile := models.WeightProfile{Equality: 100, Continuity: 0, Loyalty: 0}

	rebalanced, err := e.RebalanceWeightProfile(profile, WeightEquality, 60)
	require.NoError(t, err)
	assert.Equal(t, models.WeightProfile{Equality: 60, Continuity: 20, Loyalty: 20}, rebalanced)
}

func TestRebalanceAssignsRemainderToFirstUnchangedField(t *testing.T) {
	e := New()

	// Odd budget with both other fields at zero: the even split leaves one
	// point, which must land on continuity, the first unchanged field.
	profile := models.WeightProfile{Equality: 100, Continuity: 0, Loyalty: 0}
	rebalanced, err := e.RebalanceWeightProfile(profile, WeightEquality, 99)
	require.NoError(t, err)
	assert.Equal(t, models.WeightProfile{Equality: 99, Continuity: 1, Loyalty: 0}, rebalanced)

	// Editing loyalty: equality is first in canonical order among the rest.
	profile = models.WeightProfile{Equality: 0, Continuity: 0, Loyalty: 100}
	rebalanced, err = e.RebalanceWeightProfile(profile, WeightLoyalty, 99)
	require.NoError(t, err)
	assert.Equal(t, models.WeightProfile{Equality: 1, Continuity: 0, Loyalty: 99}, rebalanced)
}

func TestRebalanceIsDeterministic(t *testing.T) {
	e := New()
	profile := models.WeightProfile{Equality: 17, Continuity: 41, Loyalty: 42}

	first, err := e.RebalanceWeightProfile(profile, WeightContinuity, 10)
	require.NoError(t, err)
	second, err := e.RebalanceWeightProfile(profile, WeightContinuity, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 100, first.Equality+first.Continuity+first.Loyalty)
}

func TestRebalanceRejectsOutOfRangeValue(t *testing.T) {
	e := New()
	_, err := e.RebalanceWeightProfile(models.WeightProfile{Equality: 33, Continuity: 33, Loyalty: 34}, WeightEquality, 101)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrWeightOutOfRange))
}

func TestRebalanceRejectsUnknownField(t *testing.T) {
	e := New()
	_, err := e.RebalanceWeightProfile(models.WeightProfile{Equality: 33, Continuity: 33, Loyalty: 34}, WeightField("urgency"), 10)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
