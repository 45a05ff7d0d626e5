package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

const dateKeyLayout = "2006-01-02"

// slotSpan is a validated time slot flattened to minutes since midnight.
type slotSpan struct {
	AssignmentID string
	Date         string
	Start        int
	End          int
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// validateSlot checks a slot for internal consistency: parsable clock times,
// end strictly after start, and the stored duration agreeing with the span.
func validateSlot(slot models.TimeSlot) (slotSpan, error) {
	start, err := parseClock(slot.Start)
	if err != nil {
		return slotSpan{}, appErrors.Wrap(err, appErrors.ErrMalformedTimeSlot.Code, appErrors.ErrMalformedTimeSlot.Status, "invalid slot start time")
	}
	end, err := parseClock(slot.End)
	if err != nil {
		return slotSpan{}, appErrors.Wrap(err, appErrors.ErrMalformedTimeSlot.Code, appErrors.ErrMalformedTimeSlot.Status, "invalid slot end time")
	}
	if end <= start {
		return slotSpan{}, appErrors.Clone(appErrors.ErrMalformedTimeSlot, fmt.Sprintf("slot end %s is not after start %s", slot.End, slot.Start))
	}
	if slot.DurationMinutes != end-start {
		return slotSpan{}, appErrors.Clone(appErrors.ErrMalformedTimeSlot, fmt.Sprintf("slot duration %d does not match %s-%s span", slot.DurationMinutes, slot.Start, slot.End))
	}
	return slotSpan{Date: slot.Date.Format(dateKeyLayout), Start: start, End: end}, nil
}

// spansForAssignment validates and flattens all slots of an assignment.
func spansForAssignment(a models.Assignment) ([]slotSpan, error) {
	spans := make([]slotSpan, 0, len(a.Slots))
	for _, slot := range a.Slots {
		span, err := validateSlot(slot)
		if err != nil {
			return nil, err
		}
		span.AssignmentID = a.ID
		spans = append(spans, span)
	}
	return spans, nil
}

// sortSpans orders spans chronologically by date then start time. Insertion
// order of slots is chronological intent only, never a guarantee.
func sortSpans(spans []slotSpan) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Date != spans[j].Date {
			return spans[i].Date < spans[j].Date
		}
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}

// spansOverlap applies the half-open interval intersection test on same-date
// spans: startA < endB && startB < endA.
func spansOverlap(a, b slotSpan) bool {
	return a.Date == b.Date && a.Start < b.End && b.Start < a.End
}

// windowMinutes returns the length of a declared working window in minutes.
func windowMinutes(window models.WorkingWindow) (int, error) {
	start, err := parseClock(window.Start)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrMalformedTimeSlot.Code, appErrors.ErrMalformedTimeSlot.Status, "invalid working window start")
	}
	end, err := parseClock(window.End)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrMalformedTimeSlot.Code, appErrors.ErrMalformedTimeSlot.Status, "invalid working window end")
	}
	if end <= start {
		return 0, appErrors.Clone(appErrors.ErrMalformedTimeSlot, fmt.Sprintf("working window end %s is not after start %s", window.End, window.Start))
	}
	return end - start, nil
}

// isoWeekKey buckets a date into its ISO year-week for overload accounting.
func isoWeekKey(date string) string {
	t, err := time.Parse(dateKeyLayout, date)
	if err != nil {
		return date
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
