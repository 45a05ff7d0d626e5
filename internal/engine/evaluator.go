package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

// EvaluateCandidate validates a candidate assignment against hard constraints,
// scores it if valid, and reports the conflicts a commit would introduce. The
// orchestrator never decides whether to keep the candidate: it hands score and
// introduced-conflict delta back to the caller. An "emergency" profile with a
// very low loyalty weight follows the exact same path as any other profile.
func (e *Engine) EvaluateCandidate(candidate models.Assignment, snapshot models.Snapshot) (models.EvaluationResult, error) {
	if err := e.ValidateWeightProfile(snapshot.Weights); err != nil {
		return models.EvaluationResult{}, err
	}
	if !candidate.Status.Countable() {
		return models.EvaluationResult{}, appErrors.Clone(appErrors.ErrValidation, "candidate assignment must be active or pending")
	}
	if _, err := spansForAssignment(candidate); err != nil {
		return models.EvaluationResult{}, err
	}

	var teacher models.Teacher
	found := false
	for _, t := range snapshot.Teachers {
		if t.ID == candidate.TeacherID {
			teacher = t
			found = true
			break
		}
	}
	if !found {
		return models.EvaluationResult{}, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("candidate references unknown teacher %s", candidate.TeacherID))
	}

	var course models.Course
	found = false
	for _, c := range snapshot.Courses {
		if c.ID == candidate.CourseID {
			course = c
			found = true
			break
		}
	}
	if !found {
		return models.EvaluationResult{}, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("candidate references unknown course %s", candidate.CourseID))
	}

	// Hard constraints: no score is computed when these fail.
	if !e.qualifiedFor(teacher.Qualifications, course.Topic) {
		return models.EvaluationResult{
			Accepted:            false,
			Reason:              fmt.Sprintf("teacher %s is not qualified for topic %q", teacher.FullName, course.Topic),
			ConflictsIntroduced: []models.Conflict{},
		}, nil
	}
	for _, a := range snapshot.Assignments {
		if a.ID != candidate.ID && a.TeacherID == candidate.TeacherID && a.CourseID == candidate.CourseID && a.Status.Countable() {
			return models.EvaluationResult{
				Accepted:            false,
				Reason:              fmt.Sprintf("assignment %s already links this teacher and course", a.ID),
				ConflictsIntroduced: []models.Conflict{},
			}, nil
		}
	}

	score, err := e.ScoreAssignment(candidate, teacher, course, snapshot.Assignments, snapshot.Teachers, snapshot.Courses, snapshot.Weights)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	before, err := e.DetectConflicts(snapshot.Assignments, snapshot.Teachers, snapshot.Courses)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	withCandidate := make([]models.Assignment, 0, len(snapshot.Assignments)+1)
	withCandidate = append(withCandidate, snapshot.Assignments...)
	withCandidate = append(withCandidate, candidate)
	after, err := e.DetectConflicts(withCandidate, snapshot.Teachers, snapshot.Courses)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	return models.EvaluationResult{
		Accepted:            true,
		Score:               &score,
		ConflictsIntroduced: subtractConflicts(after, before),
	}, nil
}

// subtractConflicts returns the conflicts in after that were not present in
// before, compared as sets by identity key.
func subtractConflicts(after, before []models.Conflict) []models.Conflict {
	seen := make(map[string]int, len(before))
	for _, c := range before {
		seen[conflictKey(c)]++
	}
	introduced := []models.Conflict{}
	for _, c := range after {
		key := conflictKey(c)
		if seen[key] > 0 {
			seen[key]--
			continue
		}
		introduced = append(introduced, c)
	}
	return introduced
}

func conflictKey(c models.Conflict) string {
	ids := make([]string, len(c.AssignmentIDs))
	copy(ids, c.AssignmentIDs)
	sort.Strings(ids)
	return strings.Join(append([]string{string(c.Type), c.TeacherID, c.CourseID}, ids...), "|")
}
