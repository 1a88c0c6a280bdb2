// Package partialtime handles TAC time references, which carry day-of-month,
// hour and minute but never month or year. PartialDateTime holds such a
// value; the completion functions resolve it against a reference instant.
package partialtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one of the fields a PartialDateTime may carry, coarsest first.
type Field uint8

const (
	Day Field = iota
	Hour
	Minute

	numFields
)

func (f Field) String() string {
	switch f {
	case Day:
		return "day"
	case Hour:
		return "hour"
	case Minute:
		return "minute"
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// Absent marks a field as not present in New.
const Absent = -1

// MaxFieldValue is the largest value a field slot can store.
const MaxFieldValue = 99

const (
	slotBits = 7
	slotMask = 1<<slotBits - 1
)

var (
	ErrNonContiguous = errors.New("partial date-time fields must be contiguous")
	ErrOutOfRange    = errors.New("partial date-time field out of range")
	ErrEmpty         = errors.New("partial date-time has no fields")
	ErrSyntax        = errors.New("malformed partial date-time")
)

// PartialDateTime is an immutable day/hour/minute value with possibly missing
// fields and an optional zone. Each field is stored as value+1 in a 7-bit
// slot, so the zero value has no fields at all.
type PartialDateTime struct {
	packed uint32
	zone   *time.Location
}

func shift(f Field) uint {
	return uint(numFields-1-f) * slotBits
}

// New builds a partial from day, hour and minute; pass Absent for a missing
// field. The present fields must be contiguous in day, hour, minute order.
func New(day, hour, minute int) (PartialDateTime, error) {
	var p PartialDateTime
	for f, v := range [numFields]int{day, hour, minute} {
		if v == Absent {
			continue
		}
		if v < 0 || v > MaxFieldValue {
			return PartialDateTime{}, fmt.Errorf("%w: %s=%d", ErrOutOfRange, Field(f), v)
		}
		p.packed |= uint32(v+1) << shift(Field(f))
	}
	if err := p.validate(); err != nil {
		return PartialDateTime{}, err
	}
	return p, nil
}

// MustNew is like New but panics on error. Intended for constants and tests.
func MustNew(day, hour, minute int) PartialDateTime {
	p, err := New(day, hour, minute)
	if err != nil {
		panic(err)
	}
	return p
}

// OfDayHourMinute returns a partial with all three fields.
func OfDayHourMinute(day, hour, minute int) (PartialDateTime, error) {
	return New(day, hour, minute)
}

// OfDayHour returns a partial with day and hour.
func OfDayHour(day, hour int) (PartialDateTime, error) {
	return New(day, hour, Absent)
}

// OfHourMinute returns a partial with hour and minute.
func OfHourMinute(hour, minute int) (PartialDateTime, error) {
	return New(Absent, hour, minute)
}

// OfHour returns a partial with only the hour.
func OfHour(hour int) (PartialDateTime, error) {
	return New(Absent, hour, Absent)
}

func (p PartialDateTime) validate() error {
	first, last := -1, -1
	for f := Day; f < numFields; f++ {
		if p.Has(f) {
			if first < 0 {
				first = int(f)
			}
			if last >= 0 && int(f) != last+1 {
				return ErrNonContiguous
			}
			last = int(f)
		}
	}
	if first < 0 {
		return ErrEmpty
	}
	return nil
}

// Get returns the value of f and whether it is present.
func (p PartialDateTime) Get(f Field) (int, bool) {
	raw := int(p.packed>>shift(f)) & slotMask
	if raw == 0 {
		return 0, false
	}
	return raw - 1, true
}

func (p PartialDateTime) Has(f Field) bool {
	_, ok := p.Get(f)
	return ok
}

func (p PartialDateTime) Day() (int, bool)    { return p.Get(Day) }
func (p PartialDateTime) Hour() (int, bool)   { return p.Get(Hour) }
func (p PartialDateTime) Minute() (int, bool) { return p.Get(Minute) }

// IsEmpty reports whether no field is present (the zero value).
func (p PartialDateTime) IsEmpty() bool { return p.packed == 0 }

// Zone returns the zone, if one was given.
func (p PartialDateTime) Zone() (*time.Location, bool) {
	return p.zone, p.zone != nil
}

// WithZone returns a copy of p carrying zone loc.
func (p PartialDateTime) WithZone(loc *time.Location) PartialDateTime {
	p.zone = loc
	return p
}

// WithoutZone returns a copy of p without a zone.
func (p PartialDateTime) WithoutZone() PartialDateTime {
	p.zone = nil
	return p
}

// With returns a copy of p with field f set to v.
func (p PartialDateTime) With(f Field, v int) (PartialDateTime, error) {
	if v < 0 || v > MaxFieldValue {
		return PartialDateTime{}, fmt.Errorf("%w: %s=%d", ErrOutOfRange, f, v)
	}
	q := p
	q.packed &^= slotMask << shift(f)
	q.packed |= uint32(v+1) << shift(f)
	if err := q.validate(); err != nil {
		return PartialDateTime{}, err
	}
	return q, nil
}

// Without returns a copy of p with field f removed.
func (p PartialDateTime) Without(f Field) (PartialDateTime, error) {
	q := p
	q.packed &^= slotMask << shift(f)
	if err := q.validate(); err != nil {
		return PartialDateTime{}, err
	}
	return q, nil
}

// Precision returns the finest field present.
func (p PartialDateTime) Precision() Field {
	for f := Minute; f > Day; f-- {
		if p.Has(f) {
			return f
		}
	}
	return Day
}

// Coarsest returns the coarsest field present.
func (p PartialDateTime) Coarsest() Field {
	for f := Day; f < Minute; f++ {
		if p.Has(f) {
			return f
		}
	}
	return Minute
}

// IsMidnight24 reports whether p denotes the end of a day as hour 24.
func (p PartialDateTime) IsMidnight24() bool {
	h, ok := p.Hour()
	if !ok || h != 24 {
		return false
	}
	m, ok := p.Minute()
	return !ok || m == 0
}

// Matches reports whether t is consistent with every field p specifies.
// Hour 24 matches 00:00 of the following day.
func (p PartialDateTime) Matches(t time.Time) bool {
	if p.IsEmpty() {
		return false
	}
	if loc, ok := p.Zone(); ok {
		t = t.In(loc)
	}
	if p.IsMidnight24() {
		if t.Hour() != 0 || t.Minute() != 0 {
			return false
		}
		if d, ok := p.Day(); ok && t.AddDate(0, 0, -1).Day() != d {
			return false
		}
		return true
	}
	if d, ok := p.Day(); ok && t.Day() != d {
		return false
	}
	if h, ok := p.Hour(); ok && t.Hour() != h {
		return false
	}
	if m, ok := p.Minute(); ok && t.Minute() != m {
		return false
	}
	return true
}

// Parse reads consecutive two-digit fields starting at first, optionally
// followed by "Z". "121230Z" with first=Day yields day 12, 12:30 UTC.
func Parse(s string, first Field) (PartialDateTime, error) {
	digits := s
	var zone *time.Location
	if strings.HasSuffix(digits, "Z") {
		digits = strings.TrimSuffix(digits, "Z")
		zone = time.UTC
	}
	n := len(digits)
	if n == 0 || n%2 != 0 || n/2 > int(numFields-first) {
		return PartialDateTime{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	vals := [numFields]int{Absent, Absent, Absent}
	for i := 0; i < n/2; i++ {
		v, err := strconv.Atoi(digits[2*i : 2*i+2])
		if err != nil {
			return PartialDateTime{}, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		vals[int(first)+i] = v
	}
	p, err := New(vals[Day], vals[Hour], vals[Minute])
	if err != nil {
		return PartialDateTime{}, err
	}
	return p.WithZone(zone), nil
}

// String formats p as DDTHH:MM with "--" for absent fields, followed by "Z"
// for UTC or "@<zone>" for another zone.
func (p PartialDateTime) String() string {
	part := func(f Field) string {
		if v, ok := p.Get(f); ok {
			return fmt.Sprintf("%02d", v)
		}
		return "--"
	}
	s := part(Day) + "T" + part(Hour) + ":" + part(Minute)
	if loc, ok := p.Zone(); ok {
		if loc == time.UTC {
			s += "Z"
		} else {
			s += "@" + loc.String()
		}
	}
	return s
}

// MarshalText encodes p in the String format.
func (p PartialDateTime) MarshalText() ([]byte, error) {
	if p.IsEmpty() {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes the String format.
func (p *PartialDateTime) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*p = PartialDateTime{}
		return nil
	}
	var zone *time.Location
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z")
		zone = time.UTC
	} else if body, name, ok := strings.Cut(s, "@"); ok {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return fmt.Errorf("%w: zone %q: %v", ErrSyntax, name, err)
		}
		s, zone = body, loc
	}
	if len(s) != 8 || s[2] != 'T' || s[5] != ':' {
		return fmt.Errorf("%w: %q", ErrSyntax, string(text))
	}
	field := func(raw string) (int, error) {
		if raw == "--" {
			return Absent, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrSyntax, string(text))
		}
		return v, nil
	}
	var vals [numFields]int
	for i, raw := range []string{s[0:2], s[3:5], s[6:8]} {
		v, err := field(raw)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	q, err := New(vals[Day], vals[Hour], vals[Minute])
	if err != nil {
		return err
	}
	*p = q.WithZone(zone)
	return nil
}
