package conversion

import (
	"fmt"
	"strings"
	"time"
)

// ZoneHandling controls how a missing "Z" on zoned time groups is treated.
type ZoneHandling uint8

const (
	// ZoneLenient accepts time groups without the Z suffix.
	ZoneLenient ZoneHandling = iota
	// ZoneStrict makes a missing Z a syntax error.
	ZoneStrict
)

func (z ZoneHandling) String() string {
	if z == ZoneStrict {
		return "strict"
	}
	return "lenient"
}

// ParseZoneHandling accepts "strict" or "lenient" (empty means lenient).
func ParseZoneHandling(s string) (ZoneHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return ZoneLenient, nil
	case "strict":
		return ZoneStrict, nil
	}
	return ZoneLenient, fmt.Errorf("unknown zone handling %q", s)
}

// ValidityFormat selects how TAF validity and change periods are written.
type ValidityFormat uint8

const (
	// ValidityLong writes DDHH/DDHH.
	ValidityLong ValidityFormat = iota
	// ValidityShort writes DDHHHH for the validity and HHHH for change groups.
	ValidityShort
)

func (v ValidityFormat) String() string {
	if v == ValidityShort {
		return "short"
	}
	return "long"
}

// ParseValidityFormat accepts "long" or "short" (empty means long).
func ParseValidityFormat(s string) (ValidityFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long":
		return ValidityLong, nil
	case "short":
		return ValidityShort, nil
	}
	return ValidityLong, fmt.Errorf("unknown validity format %q", s)
}

// Hints are the recognized per-call options. The zero value is lenient zone
// handling, long validity format and no time completion.
type Hints struct {
	ZoneHandling   ZoneHandling
	ValidityFormat ValidityFormat

	// CompleteTimes resolves every time reference of a parsed report
	// ascending from ReferenceTime.
	CompleteTimes bool
	ReferenceTime time.Time
}

func (h Hints) String() string {
	s := "zone=" + h.ZoneHandling.String() + ",validity=" + h.ValidityFormat.String()
	if h.CompleteTimes {
		s += ",reference=" + h.ReferenceTime.UTC().Format(time.RFC3339)
	}
	return s
}
