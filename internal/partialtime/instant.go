package partialtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInconsistent is returned when a complete time contradicts the partial
// it is paired with.
var ErrInconsistent = errors.New("complete time inconsistent with partial time")

// Instant pairs an optional partial time with an optional resolved time.
// When both are present the resolved time matches every partial field.
type Instant struct {
	partial  PartialDateTime
	complete time.Time
}

// NewInstant pairs p and t. Either may be empty (zero), but not both.
func NewInstant(p PartialDateTime, t time.Time) (Instant, error) {
	if p.IsEmpty() && t.IsZero() {
		return Instant{}, ErrEmpty
	}
	if !p.IsEmpty() && !t.IsZero() && !p.Matches(t) {
		return Instant{}, fmt.Errorf("%w: %s vs %s", ErrInconsistent, p, t.Format(time.RFC3339))
	}
	return Instant{partial: p, complete: t}, nil
}

// PartialInstant returns an instant holding only p.
func PartialInstant(p PartialDateTime) Instant {
	return Instant{partial: p}
}

// CompleteInstant returns an instant holding only t.
func CompleteInstant(t time.Time) Instant {
	return Instant{complete: t}
}

func (i Instant) Partial() (PartialDateTime, bool) { return i.partial, !i.partial.IsEmpty() }
func (i Instant) Complete() (time.Time, bool)      { return i.complete, !i.complete.IsZero() }
func (i Instant) IsZero() bool                     { return i.partial.IsEmpty() && i.complete.IsZero() }

// Completed returns i with the resolved time filled in from ref. An instant
// that is already complete is returned as is.
func (i Instant) Completed(ref time.Time, cond Condition) (Instant, error) {
	if !i.complete.IsZero() {
		return i, nil
	}
	if i.partial.IsEmpty() {
		return i, ErrEmpty
	}
	t, err := i.partial.Complete(ref, cond)
	if err != nil {
		return i, err
	}
	return Instant{partial: i.partial, complete: t}, nil
}

func (i Instant) String() string {
	switch {
	case i.IsZero():
		return "<none>"
	case i.complete.IsZero():
		return i.partial.String()
	case i.partial.IsEmpty():
		return i.complete.Format(time.RFC3339)
	}
	return i.partial.String() + "=" + i.complete.Format(time.RFC3339)
}

type instantJSON struct {
	Partial  *PartialDateTime `json:"partial,omitempty"`
	Complete *time.Time       `json:"complete,omitempty"`
}

func (i Instant) MarshalJSON() ([]byte, error) {
	var out instantJSON
	if p, ok := i.Partial(); ok {
		out.Partial = &p
	}
	if t, ok := i.Complete(); ok {
		out.Complete = &t
	}
	return json.Marshal(out)
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	var in instantJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var p PartialDateTime
	var t time.Time
	if in.Partial != nil {
		p = *in.Partial
	}
	if in.Complete != nil {
		t = *in.Complete
	}
	v, err := NewInstant(p, t)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// MarshalBinary uses the JSON form, so binary codecs such as msgpack keep
// both the partial and the completed time.
func (i Instant) MarshalBinary() ([]byte, error) { return i.MarshalJSON() }

func (i *Instant) UnmarshalBinary(data []byte) error { return i.UnmarshalJSON(data) }

// Period holds optional start and end instants. Open-ended periods are legal.
type Period struct {
	Start *Instant `json:"start,omitempty"`
	End   *Instant `json:"end,omitempty"`
}

// NewPeriod returns a period over two partial times.
func NewPeriod(start, end PartialDateTime) Period {
	s, e := PartialInstant(start), PartialInstant(end)
	return Period{Start: &s, End: &e}
}

func (p Period) String() string {
	s, e := "..", ".."
	if p.Start != nil {
		s = p.Start.String()
	}
	if p.End != nil {
		e = p.End.String()
	}
	return s + "/" + e
}

// Completable is a time reference that can take part in CompleteAscending.
type Completable interface {
	completeFrom(ref time.Time, cond Condition) (next time.Time, err error)
}

func (i *Instant) completeFrom(ref time.Time, cond Condition) (time.Time, error) {
	if i == nil || i.IsZero() {
		return ref, nil
	}
	c, err := i.Completed(ref, cond)
	if err != nil {
		return ref, err
	}
	*i = c
	return c.complete, nil
}

// completeFrom completes the start from ref and the end from the start.
// Both ends must carry an hour. The next reference is the start, or the end
// when the period has no start.
func (p *Period) completeFrom(ref time.Time, cond Condition) (time.Time, error) {
	if p == nil {
		return ref, nil
	}
	next := ref
	if p.Start != nil {
		if sp, ok := p.Start.Partial(); ok {
			if err := sp.Require(Hour); err != nil {
				return ref, err
			}
		}
		n, err := p.Start.completeFrom(ref, cond)
		if err != nil {
			return ref, fmt.Errorf("period start: %w", err)
		}
		next = n
	}
	if p.End != nil {
		if ep, ok := p.End.Partial(); ok {
			if err := ep.Require(Hour); err != nil {
				return ref, err
			}
		}
		endCond := cond
		if p.Start != nil {
			endCond = NotBefore
		}
		n, err := p.End.completeFrom(next, endCond)
		if err != nil {
			return ref, fmt.Errorf("period end: %w", err)
		}
		if p.Start == nil {
			next = n
		}
	}
	return next, nil
}

// CompleteAscending completes refs in order. The first is completed against
// anchor, each following one against the previous completed result, so the
// references resolve monotonically. Periods advance the reference by their
// start. Completion stops at the first failure; earlier refs stay completed.
func CompleteAscending(anchor time.Time, cond Condition, refs ...Completable) error {
	ref := anchor
	for i, r := range refs {
		if r == nil {
			continue
		}
		next, err := r.completeFrom(ref, cond)
		if err != nil {
			return fmt.Errorf("time reference %d: %w", i, err)
		}
		ref = next
	}
	return nil
}
