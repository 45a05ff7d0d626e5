package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

// DetectConflicts scans a full assignment set and reports every constraint
// violation it finds. The result is a set: callers must not rely on ordering.
// Only active and pending assignments participate; inactive and cancelled ones
// are excluded before any rule runs. Malformed slots or references to unknown
// teachers/courses are input errors, not conflicts.
func (e *Engine) DetectConflicts(assignments []models.Assignment, teachers []models.Teacher, courses []models.Course) ([]models.Conflict, error) {
	teacherByID := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		teacherByID[t.ID] = t
	}
	courseByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	countable := make([]models.Assignment, 0, len(assignments))
	spansByAssignment := make(map[string][]slotSpan, len(assignments))
	for _, a := range assignments {
		if _, ok := teacherByID[a.TeacherID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("assignment %s references unknown teacher %s", a.ID, a.TeacherID))
		}
		if _, ok := courseByID[a.CourseID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("assignment %s references unknown course %s", a.ID, a.CourseID))
		}
		if !a.Status.Countable() {
			continue
		}
		spans, err := spansForAssignment(a)
		if err != nil {
			return nil, err
		}
		countable = append(countable, a)
		spansByAssignment[a.ID] = spans
	}

	var conflicts []models.Conflict
	conflicts = append(conflicts, e.qualificationConflicts(countable, teacherByID, courseByID)...)
	conflicts = append(conflicts, e.duplicateConflicts(countable)...)
	conflicts = append(conflicts, e.overlapConflicts(countable, spansByAssignment)...)

	overloads, err := e.overloadConflicts(teachers, countable, spansByAssignment)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, overloads...)
	conflicts = append(conflicts, e.coverageConflicts(courses, countable)...)
	return conflicts, nil
}

// qualificationConflicts flags assignments whose teacher lacks the course
// topic in their qualification set.
func (e *Engine) qualificationConflicts(assignments []models.Assignment, teachers map[string]models.Teacher, courses map[string]models.Course) []models.Conflict {
	var conflicts []models.Conflict
	for _, a := range assignments {
		teacher := teachers[a.TeacherID]
		course := courses[a.CourseID]
		if e.qualifiedFor(teacher.Qualifications, course.Topic) {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Type:          models.ConflictQualificationMismatch,
			Description:   fmt.Sprintf("teacher %s is not qualified for topic %q", teacher.FullName, course.Topic),
			Severity:      models.SeverityHigh,
			AssignmentIDs: []string{a.ID},
			TeacherID:     a.TeacherID,
			CourseID:      a.CourseID,
		})
	}
	return conflicts
}

// duplicateConflicts flags (teacher, course) pairs carrying more than one
// assignment record.
func (e *Engine) duplicateConflicts(assignments []models.Assignment) []models.Conflict {
	byPair := make(map[string][]string)
	pairTeacher := make(map[string]string)
	pairCourse := make(map[string]string)
	var pairOrder []string
	for _, a := range assignments {
		key := a.TeacherID + "|" + a.CourseID
		if _, seen := byPair[key]; !seen {
			pairOrder = append(pairOrder, key)
			pairTeacher[key] = a.TeacherID
			pairCourse[key] = a.CourseID
		}
		byPair[key] = append(byPair[key], a.ID)
	}

	var conflicts []models.Conflict
	for _, key := range pairOrder {
		ids := byPair[key]
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		conflicts = append(conflicts, models.Conflict{
			Type:          models.ConflictDuplicateAssignment,
			Description:   fmt.Sprintf("%d assignments exist for the same teacher and course", len(ids)),
			Severity:      models.SeverityHigh,
			AssignmentIDs: ids,
			TeacherID:     pairTeacher[key],
			CourseID:      pairCourse[key],
		})
	}
	return conflicts
}

// overlapConflicts detects same-teacher slot intersections. Per teacher the
// slots are sorted by date and start time, then each slot is compared against
// every later same-date slot starting before it ends, so chained and contained
// overlaps are found regardless of what sits between them in sort order. Each
// overlapping pair of distinct assignments yields exactly one conflict.
func (e *Engine) overlapConflicts(assignments []models.Assignment, spansByAssignment map[string][]slotSpan) []models.Conflict {
	byTeacher := make(map[string][]slotSpan)
	var teacherOrder []string
	for _, a := range assignments {
		if _, seen := byTeacher[a.TeacherID]; !seen {
			teacherOrder = append(teacherOrder, a.TeacherID)
		}
		byTeacher[a.TeacherID] = append(byTeacher[a.TeacherID], spansByAssignment[a.ID]...)
	}
	sort.Strings(teacherOrder)

	var conflicts []models.Conflict
	for _, teacherID := range teacherOrder {
		spans := byTeacher[teacherID]
		sortSpans(spans)
		reported := make(map[string]bool)
		for i := 0; i < len(spans); i++ {
			for j := i + 1; j < len(spans); j++ {
				// Later spans start no earlier, so the first non-intersecting
				// one closes this span for the rest of the scan.
				if !spansOverlap(spans[i], spans[j]) {
					break
				}
				if spans[j].AssignmentID == spans[i].AssignmentID {
					continue
				}
				ids := []string{spans[i].AssignmentID, spans[j].AssignmentID}
				sort.Strings(ids)
				pairKey := strings.Join(ids, "|")
				if reported[pairKey] {
					continue
				}
				reported[pairKey] = true
				conflicts = append(conflicts, models.Conflict{
					Type:          models.ConflictTimeOverlap,
					Description:   fmt.Sprintf("teacher has intersecting slots on %s", spans[j].Date),
					Severity:      models.SeverityHigh,
					AssignmentIDs: ids,
					TeacherID:     teacherID,
				})
			}
		}
	}
	return conflicts
}

// overloadConflicts compares each teacher's scheduled minutes per ISO week
// against the capacity implied by their declared working windows.
func (e *Engine) overloadConflicts(teachers []models.Teacher, assignments []models.Assignment, spansByAssignment map[string][]slotSpan) ([]models.Conflict, error) {
	var conflicts []models.Conflict
	for _, teacher := range teachers {
		capacity := 0
		for _, window := range teacher.WorkingHours {
			minutes, err := windowMinutes(window)
			if err != nil {
				return nil, err
			}
			capacity += minutes
		}

		weekMinutes := make(map[string]int)
		weekAssignments := make(map[string]map[string]bool)
		for _, a := range assignments {
			if a.TeacherID != teacher.ID {
				continue
			}
			for _, span := range spansByAssignment[a.ID] {
				week := isoWeekKey(span.Date)
				weekMinutes[week] += span.End - span.Start
				if weekAssignments[week] == nil {
					weekAssignments[week] = make(map[string]bool)
				}
				weekAssignments[week][a.ID] = true
			}
		}

		weeks := make([]string, 0, len(weekMinutes))
		for week := range weekMinutes {
			weeks = append(weeks, week)
		}
		sort.Strings(weeks)
		for _, week := range weeks {
			if weekMinutes[week] <= capacity {
				continue
			}
			ids := make([]string, 0, len(weekAssignments[week]))
			for id := range weekAssignments[week] {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			conflicts = append(conflicts, models.Conflict{
				Type:          models.ConflictOverload,
				Description:   fmt.Sprintf("teacher %s is scheduled %d minutes in week %s, above the %d minute working-time capacity", teacher.FullName, weekMinutes[week], week, capacity),
				Severity:      models.SeverityMedium,
				AssignmentIDs: ids,
				TeacherID:     teacher.ID,
			})
		}
	}
	return conflicts, nil
}

// coverageConflicts flags courses without any active or pending assignment.
func (e *Engine) coverageConflicts(courses []models.Course, assignments []models.Assignment) []models.Conflict {
	covered := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		covered[a.CourseID] = true
	}

	var conflicts []models.Conflict
	for _, course := range courses {
		if covered[course.ID] {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Type:          models.ConflictCoverageGap,
			Description:   fmt.Sprintf("course %q has no active or pending assignments", course.Name),
			Severity:      models.SeverityLow,
			AssignmentIDs: []string{},
			CourseID:      course.ID,
		})
	}
	return conflicts
}
