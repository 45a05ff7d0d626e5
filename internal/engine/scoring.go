package engine

import (
	"fmt"
	"math"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

// ScoreAssignment computes the normalized quality score in [0,1] for one
// candidate teacher-course assignment. The three sub-scores are each
// normalized to [0,1] and combined as equality*w_e/100 + continuity*w_c/100 +
// loyalty*w_l/100. The function is pure: identical inputs always yield the
// identical float.
func (e *Engine) ScoreAssignment(
	candidate models.Assignment,
	teacher models.Teacher,
	course models.Course,
	assignments []models.Assignment,
	teachers []models.Teacher,
	courses []models.Course,
	weights models.WeightProfile,
) (float64, error) {
	if err := e.ValidateWeightProfile(weights); err != nil {
		return 0, err
	}
	if candidate.TeacherID != teacher.ID || candidate.CourseID != course.ID {
		return 0, appErrors.Clone(appErrors.ErrUnknownEntity, "candidate does not reference the supplied teacher and course")
	}
	candidateSpans, err := spansForAssignment(candidate)
	if err != nil {
		return 0, err
	}

	equality, err := e.equalitySubScore(candidate, candidateSpans, teacher, assignments, teachers)
	if err != nil {
		return 0, err
	}
	continuity, err := e.continuitySubScore(candidate, candidateSpans, teacher, course, assignments)
	if err != nil {
		return 0, err
	}
	loyalty, err := e.loyaltySubScore(candidate, teacher, course, assignments, courses)
	if err != nil {
		return 0, err
	}

	score := equality*float64(weights.Equality)/100 +
		continuity*float64(weights.Continuity)/100 +
		loyalty*float64(weights.Loyalty)/100
	return clamp01(score), nil
}

// equalitySubScore measures how far the teacher's total scheduled load,
// candidate included, deviates from the mean load across all teachers. Zero
// deviation scores 1.0, decaying toward 0 as the deviation grows relative to
// the mean. With fewer than two teachers in scope no imbalance is measurable
// and the sub-score is a neutral 1.0.
func (e *Engine) equalitySubScore(
	candidate models.Assignment,
	candidateSpans []slotSpan,
	teacher models.Teacher,
	assignments []models.Assignment,
	teachers []models.Teacher,
) (float64, error) {
	if len(teachers) <= 1 {
		return 1, nil
	}

	loads := make(map[string]int, len(teachers))
	for _, a := range assignments {
		if !a.Status.Countable() || a.ID == candidate.ID {
			continue
		}
		spans, err := spansForAssignment(a)
		if err != nil {
			return 0, err
		}
		for _, span := range spans {
			loads[a.TeacherID] += span.End - span.Start
		}
	}
	for _, span := range candidateSpans {
		loads[teacher.ID] += span.End - span.Start
	}

	total := 0
	for _, t := range teachers {
		total += loads[t.ID]
	}
	mean := float64(total) / float64(len(teachers))
	if mean == 0 {
		return 1, nil
	}
	deviation := math.Abs(float64(loads[teacher.ID]) - mean)
	return clamp01(1 - deviation/mean), nil
}

// continuitySubScore rewards slots chronologically adjacent to the teacher's
// existing slots for the same course. Adjacency means back-to-back on the same
// date: the next slot starts exactly when the previous one ends. The count of
// adjacent pairs is normalized by the maximum attainable for the course's
// lesson count.
func (e *Engine) continuitySubScore(
	candidate models.Assignment,
	candidateSpans []slotSpan,
	teacher models.Teacher,
	course models.Course,
	assignments []models.Assignment,
) (float64, error) {
	maxAdjacent := course.LessonsCount - 1
	if maxAdjacent <= 0 {
		return 1, nil
	}

	spans := make([]slotSpan, 0, len(candidateSpans))
	spans = append(spans, candidateSpans...)
	for _, a := range assignments {
		if a.ID == candidate.ID || a.TeacherID != teacher.ID || a.CourseID != course.ID || !a.Status.Countable() {
			continue
		}
		more, err := spansForAssignment(a)
		if err != nil {
			return 0, err
		}
		spans = append(spans, more...)
	}
	sortSpans(spans)

	adjacent := 0
	for i := 1; i < len(spans); i++ {
		if spans[i].Date == spans[i-1].Date && spans[i].Start == spans[i-1].End {
			adjacent++
		}
	}
	return clamp01(float64(adjacent) / float64(maxAdjacent)), nil
}

// loyaltySubScore is the fraction of the teacher's prior non-cancelled
// assignments that were for the same course topic. A teacher with no history
// scores 0 on this factor alone.
func (e *Engine) loyaltySubScore(
	candidate models.Assignment,
	teacher models.Teacher,
	course models.Course,
	assignments []models.Assignment,
	courses []models.Course,
) (float64, error) {
	topics := make(map[string]string, len(courses))
	for _, c := range courses {
		topics[c.ID] = c.Topic
	}

	prior := 0
	matched := 0
	for _, a := range assignments {
		if a.ID == candidate.ID || a.TeacherID != teacher.ID || a.Status == models.AssignmentStatusCancelled {
			continue
		}
		topic, ok := topics[a.CourseID]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("assignment %s references unknown course %s", a.ID, a.CourseID))
		}
		prior++
		if e.topicsEqual(topic, course.Topic) {
			matched++
		}
	}
	if prior == 0 {
		return 0, nil
	}
	return float64(matched) / float64(prior), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
