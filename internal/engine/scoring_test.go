package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

func TestScoreAssignmentIsPureAndBounded(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 4)
	candidate := activeAssignment("a-1", "t-1", "c-1",
		slot("2025-09-01", "09:00", "10:00", 60),
		slot("2025-09-01", "10:00", "11:00", 60),
	)
	others := []models.Assignment{
		activeAssignment("a-2", "t-2", "c-2", slot("2025-09-02", "09:00", "10:00", 60)),
	}
	teachers := []models.Teacher{teacher, mathTeacher("t-2")}
	courses := []models.Course{course, mathCourse("c-2", 2)}

	first, err := e.ScoreAssignment(candidate, teacher, course, others, teachers, courses, balancedWeights())
	require.NoError(t, err)
	second, err := e.ScoreAssignment(candidate, teacher, course, others, teachers, courses, balancedWeights())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestScoreAssignmentFailsFastOnInvalidWeights(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 2)
	candidate := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	_, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher}, []models.Course{course},
		models.WeightProfile{Equality: 90, Continuity: 5, Loyalty: 4})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeightSum))
}

func TestScoreAssignmentNeutralDefaultsWithEmptyContext(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 1)
	candidate := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	// Single teacher, single lesson, no history: equality and continuity are
	// neutral 1.0, loyalty is 0 with no precedent.
	score, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher}, []models.Course{course},
		models.WeightProfile{Equality: 50, Continuity: 40, Loyalty: 10})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestScoreAssignmentLoyaltyFraction(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 1)
	physics := mathCourse("c-2", 1)
	physics.Topic = "Physics"
	history := []models.Assignment{
		activeAssignment("a-old-1", "t-1", "c-3", slot("2025-06-02", "09:00", "10:00", 60)),
		activeAssignment("a-old-2", "t-1", "c-2", slot("2025-06-03", "09:00", "10:00", 60)),
	}
	courses := []models.Course{course, physics, mathCourse("c-3", 1)}
	candidate := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	// Loyalty only: one of two prior assignments shares the Mathematics topic.
	score, err := e.ScoreAssignment(candidate, teacher, course, history, []models.Teacher{teacher}, courses,
		models.WeightProfile{Equality: 0, Continuity: 0, Loyalty: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScoreAssignmentContinuityRewardsBackToBackSlots(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 3)
	courses := []models.Course{course}

	adjacent := activeAssignment("a-1", "t-1", "c-1",
		slot("2025-09-01", "09:00", "10:00", 60),
		slot("2025-09-01", "10:00", "11:00", 60),
		slot("2025-09-01", "11:00", "12:00", 60),
	)
	scattered := activeAssignment("a-1", "t-1", "c-1",
		slot("2025-09-01", "09:00", "10:00", 60),
		slot("2025-09-03", "13:00", "14:00", 60),
		slot("2025-09-05", "08:00", "09:00", 60),
	)
	weights := models.WeightProfile{Equality: 0, Continuity: 100, Loyalty: 0}

	adjScore, err := e.ScoreAssignment(adjacent, teacher, course, nil, []models.Teacher{teacher}, courses, weights)
	require.NoError(t, err)
	scatScore, err := e.ScoreAssignment(scattered, teacher, course, nil, []models.Teacher{teacher}, courses, weights)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, adjScore, 1e-9)
	assert.InDelta(t, 0.0, scatScore, 1e-9)
}

func TestScoreAssignmentContinuitySortsSlotsBeforeAnalysis(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 2)

	// Slots supplied out of chronological order must still count as adjacent.
	candidate := activeAssignment("a-1", "t-1", "c-1",
		slot("2025-09-01", "10:00", "11:00", 60),
		slot("2025-09-01", "09:00", "10:00", 60),
	)
	score, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher}, []models.Course{course},
		models.WeightProfile{Equality: 0, Continuity: 100, Loyalty: 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreAssignmentEqualityPenalisesDeviation(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	idle := mathTeacher("t-2")
	course := mathCourse("c-1", 1)
	weights := models.WeightProfile{Equality: 100, Continuity: 0, Loyalty: 0}

	// All load lands on t-1 while t-2 has nothing: deviation equals the mean.
	candidate := activeAssignment("a-1", "t-1", "c-1",
		slot("2025-09-01", "09:00", "10:00", 60),
		slot("2025-09-02", "09:00", "10:00", 60),
	)
	score, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher, idle}, []models.Course{course}, weights)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)

	// A perfectly balanced roster scores 1.0.
	others := []models.Assignment{
		activeAssignment("a-2", "t-2", "c-2", slot("2025-09-02", "09:00", "10:00", 60)),
	}
	candidate = activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))
	score, err = e.ScoreAssignment(candidate, teacher, course, others, []models.Teacher{teacher, idle},
		[]models.Course{course, mathCourse("c-2", 1)}, weights)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreAssignmentRejectsMalformedSlot(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 1)
	candidate := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "10:00", "09:00", 60))

	_, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher}, []models.Course{course}, balancedWeights())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedTimeSlot))
}

func TestScoreAssignmentRejectsInconsistentDuration(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 1)
	candidate := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 45))

	_, err := e.ScoreAssignment(candidate, teacher, course, nil, []models.Teacher{teacher}, []models.Course{course}, balancedWeights())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedTimeSlot))
}
