package partialtime

import (
	"errors"
	"fmt"
	"time"
)

// Condition is the relation a completed time must have to the reference.
type Condition uint8

const (
	After Condition = iota
	NotBefore
	Before
	NotAfter
	Near
)

func (c Condition) String() string {
	switch c {
	case After:
		return "AFTER"
	case NotBefore:
		return "NOT_BEFORE"
	case Before:
		return "BEFORE"
	case NotAfter:
		return "NOT_AFTER"
	case Near:
		return "NEAR"
	}
	return "UNKNOWN"
}

// searchSpan bounds how many units the reference is shifted either way
// while looking for a candidate. The window is symmetric but strict
// conditions only pick from their own side and Near picks the closer
// candidate, so at most two shifts count in the required direction.
const searchSpan = 2

var (
	// ErrNoCandidate is wrapped by every CompletionError.
	ErrNoCandidate = errors.New("no completion candidate")
	// ErrMissingField is returned when a context requires a field the partial lacks.
	ErrMissingField = errors.New("partial date-time lacks a required field")
)

// CompletionError reports that no time consistent with a partial satisfies
// the condition within the allowed range.
type CompletionError struct {
	Partial   PartialDateTime
	Reference time.Time
	Condition Condition
	Start     time.Time
	End       time.Time
}

func (e *CompletionError) Error() string {
	msg := fmt.Sprintf("cannot complete %s %s %s", e.Partial, e.Condition, e.Reference.Format(time.RFC3339))
	if !e.Start.IsZero() || !e.End.IsZero() {
		msg += fmt.Sprintf(" within [%s, %s)", fmtBound(e.Start), fmtBound(e.End))
	}
	return msg
}

func (e *CompletionError) Unwrap() error { return ErrNoCandidate }

func fmtBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

// Complete resolves p against ref.
func (p PartialDateTime) Complete(ref time.Time, cond Condition) (time.Time, error) {
	return p.CompleteInRange(ref, cond, time.Time{}, time.Time{})
}

// Require returns ErrMissingField unless every field in fields is present.
func (p PartialDateTime) Require(fields ...Field) error {
	for _, f := range fields {
		if !p.Has(f) {
			return fmt.Errorf("%w: %s in %s", ErrMissingField, f, p)
		}
	}
	return nil
}

// CompleteInRange resolves p against ref, accepting only results in
// [start, end). A zero start or end leaves that side open. The reference is
// clamped into the range and truncated to the precision of p before
// comparison; candidates are generated by substituting the fields of p into
// the reference shifted up to searchSpan units of the coarsest field's
// enclosing period.
func (p PartialDateTime) CompleteInRange(ref time.Time, cond Condition, start, end time.Time) (time.Time, error) {
	if p.IsEmpty() {
		return time.Time{}, ErrEmpty
	}
	loc := ref.Location()
	if z, ok := p.Zone(); ok {
		loc = z
	}
	ref = ref.In(loc)
	if !start.IsZero() && ref.Before(start) {
		ref = start.In(loc)
	}
	if !end.IsZero() && !ref.Before(end) {
		ref = end.Add(-time.Nanosecond).In(loc)
	}
	ref = truncate(ref, p.Precision())

	inRange := func(t time.Time) bool {
		return (start.IsZero() || !t.Before(start)) && (end.IsZero() || t.Before(end))
	}

	var before, after, exact *time.Time
	for k := -searchSpan; k <= searchSpan; k++ {
		c, ok := p.candidate(ref, k)
		if !ok || !inRange(c) {
			continue
		}
		switch {
		case c.Equal(ref):
			exact = &c
		case c.Before(ref):
			if before == nil || c.After(*before) {
				before = &c
			}
		default:
			if after == nil || c.Before(*after) {
				after = &c
			}
		}
	}

	var pick *time.Time
	switch cond {
	case After:
		pick = after
	case NotBefore:
		pick = firstOf(exact, after)
	case Before:
		pick = before
	case NotAfter:
		pick = firstOf(exact, before)
	case Near:
		pick = exact
		if pick == nil {
			pick = nearest(ref, before, after)
		}
	}
	if pick == nil {
		return time.Time{}, &CompletionError{Partial: p, Reference: ref, Condition: cond, Start: start, End: end}
	}
	return *pick, nil
}

func firstOf(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}

// nearest picks the closer of before and after; ties go to after.
func nearest(ref time.Time, before, after *time.Time) *time.Time {
	switch {
	case before == nil:
		return after
	case after == nil:
		return before
	case ref.Sub(*before) < after.Sub(ref):
		return before
	default:
		return after
	}
}

func truncate(t time.Time, precision Field) time.Time {
	y, mo, d := t.Date()
	switch precision {
	case Day:
		return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	case Hour:
		return time.Date(y, mo, d, t.Hour(), 0, 0, 0, t.Location())
	default:
		return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, t.Location())
	}
}

// candidate substitutes the fields of p into ref shifted by k units of the
// period enclosing the coarsest field: months for day, days for hour, hours
// for minute. It reports false when the fields are not valid there.
func (p PartialDateTime) candidate(ref time.Time, k int) (time.Time, bool) {
	loc := ref.Location()
	y, mo, d := ref.Date()
	h := ref.Hour()
	minute, hasMinute := p.Minute()
	if !hasMinute {
		minute = 0
	}
	if minute > 59 {
		return time.Time{}, false
	}
	hour, hasHour := p.Hour()
	if hasHour && (hour > 24 || hour == 24 && minute != 0) {
		return time.Time{}, false
	}

	switch p.Coarsest() {
	case Day:
		day, _ := p.Day()
		first := time.Date(y, mo+time.Month(k), 1, 0, 0, 0, 0, loc)
		if day < 1 || day > daysIn(first) {
			return time.Time{}, false
		}
		if !hasHour {
			hour = 0
		}
		// hour 24 normalises to 00:00 of the next day.
		return time.Date(first.Year(), first.Month(), day, hour, minute, 0, 0, loc), true
	case Hour:
		return time.Date(y, mo, d+k, hour, minute, 0, 0, loc), true
	default:
		return time.Date(y, mo, d, h+k, minute, 0, 0, loc), true
	}
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
