package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

func TestEvaluateCandidateAcceptsQualifiedTeacher(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 10)
	snapshot := models.Snapshot{
		Teachers: []models.Teacher{teacher},
		Courses:  []models.Course{course},
		Weights:  models.WeightProfile{Equality: 50, Continuity: 40, Loyalty: 10},
	}
	candidate := activeAssignment("a-new", "t-1", "c-1",
		slot("2025-09-01", "09:00", "10:00", 60),
		slot("2025-09-01", "10:00", "11:00", 60),
	)

	result, err := e.EvaluateCandidate(candidate, snapshot)
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Empty(t, result.Reason)
	require.NotNil(t, result.Score)
	// Equality is neutral with a single teacher, one adjacent pair of nine
	// possible feeds continuity, and no history means zero loyalty.
	assert.InDelta(t, 0.5+0.4*(1.0/9.0), *result.Score, 1e-9)
	assert.NotNil(t, result.ConflictsIntroduced)
	assert.Empty(t, result.ConflictsIntroduced)
}

func TestEvaluateCandidateRejectsUnqualifiedTeacher(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	physics := mathCourse("c-1", 2)
	physics.Topic = "Physics"
	snapshot := models.Snapshot{
		Teachers: []models.Teacher{teacher},
		Courses:  []models.Course{physics},
		Weights:  balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	result, err := e.EvaluateCandidate(candidate, snapshot)
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "not qualified")
	assert.Nil(t, result.Score)
	assert.NotNil(t, result.ConflictsIntroduced)
	assert.Empty(t, result.ConflictsIntroduced)
}

func TestEvaluateCandidateRejectsDuplicateLink(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 2)
	existing := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))
	snapshot := models.Snapshot{
		Teachers:    []models.Teacher{teacher},
		Courses:     []models.Course{course},
		Assignments: []models.Assignment{existing},
		Weights:     balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-1", "c-1", slot("2025-09-02", "09:00", "10:00", 60))

	result, err := e.EvaluateCandidate(candidate, snapshot)
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "a-1")
	assert.Nil(t, result.Score)
}

func TestEvaluateCandidateIgnoresCancelledDuplicate(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	course := mathCourse("c-1", 2)
	cancelled := activeAssignment("a-1", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))
	cancelled.Status = models.AssignmentStatusCancelled
	snapshot := models.Snapshot{
		Teachers:    []models.Teacher{teacher},
		Courses:     []models.Course{course},
		Assignments: []models.Assignment{cancelled},
		Weights:     balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-1", "c-1", slot("2025-09-02", "09:00", "10:00", 60))

	result, err := e.EvaluateCandidate(candidate, snapshot)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestEvaluateCandidateReportsIntroducedConflicts(t *testing.T) {
	e := New()
	teacher := mathTeacher("t-1")
	courseA := mathCourse("c-a", 1)
	courseB := mathCourse("c-b", 1)
	existing := activeAssignment("a-1", "t-1", "c-a", slot("2025-09-01", "09:00", "10:00", 60))
	snapshot := models.Snapshot{
		Teachers:    []models.Teacher{teacher},
		Courses:     []models.Course{courseA, courseB},
		Assignments: []models.Assignment{existing},
		Weights:     balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-1", "c-b", slot("2025-09-01", "09:30", "10:30", 60))

	result, err := e.EvaluateCandidate(candidate, snapshot)
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	overlaps := findConflicts(result.ConflictsIntroduced, models.ConflictTimeOverlap)
	require.Len(t, overlaps, 1)
	assert.ElementsMatch(t, []string{"a-1", "a-new"}, overlaps[0].AssignmentIDs)

	// The coverage gap that c-b had before the candidate is resolved, not
	// introduced, so it must not appear in the delta.
	assert.Empty(t, findConflicts(result.ConflictsIntroduced, models.ConflictCoverageGap))
}

func TestEvaluateCandidateUnknownTeacher(t *testing.T) {
	e := New()
	snapshot := models.Snapshot{
		Teachers: []models.Teacher{mathTeacher("t-1")},
		Courses:  []models.Course{mathCourse("c-1", 1)},
		Weights:  balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-missing", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	_, err := e.EvaluateCandidate(candidate, snapshot)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownEntity))
}

func TestEvaluateCandidateRejectsNonCountableCandidate(t *testing.T) {
	e := New()
	snapshot := models.Snapshot{
		Teachers: []models.Teacher{mathTeacher("t-1")},
		Courses:  []models.Course{mathCourse("c-1", 1)},
		Weights:  balancedWeights(),
	}
	candidate := activeAssignment("a-new", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))
	candidate.Status = models.AssignmentStatusCancelled

	_, err := e.EvaluateCandidate(candidate, snapshot)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEvaluateCandidateInvalidWeightsFailFast(t *testing.T) {
	e := New()
	snapshot := models.Snapshot{
		Teachers: []models.Teacher{mathTeacher("t-1")},
		Courses:  []models.Course{mathCourse("c-1", 1)},
		Weights:  models.WeightProfile{Equality: 60, Continuity: 60, Loyalty: 60},
	}
	candidate := activeAssignment("a-new", "t-1", "c-1", slot("2025-09-01", "09:00", "10:00", 60))

	_, err := e.EvaluateCandidate(candidate, snapshot)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeightSum))
}
