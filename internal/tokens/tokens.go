// Package tokens implements the TAC token rules. Each token family lives in
// its own file with a classifier (pattern, context predicate and value
// extraction) and a reconstructor for the same identity; both are added to
// the default registry in init().
package tokens

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
	"tac_codec/internal/registry"
)

// Classifier priorities. Lower runs first; the order is part of the
// disambiguation rules and must not be reshuffled.
const (
	prioRemark       = 10
	prioEnd          = 20
	prioStart        = 100
	prioStatus       = 110
	prioAerodrome    = 120
	prioIssueTime    = 200
	prioValidTime    = 210
	prioReportStatus = 220
	prioChange       = 300
	prioChangeTime   = 310
	prioTrend        = 320
	prioTrendTime    = 330
	prioField        = 400
	prioWeather      = 600
)

// Certainties for tokens whose shape fits more than one identity.
const (
	certain           = 1.0
	likelyVisibility  = 0.8
	doubtfulTimeGroup = 0.6
)

// base carries the identifying parts shared by every rule.
type base struct {
	name     string
	identity lexeme.Identity
	priority int
}

func (b base) Name() string              { return b.name }
func (b base) Identity() lexeme.Identity { return b.identity }
func (b base) Priority() int             { return b.priority }
func (b base) String() string            { return b.name }

func (b base) lex(tokens ...string) []*lexeme.Lexeme {
	out := make([]*lexeme.Lexeme, len(tokens))
	for i, t := range tokens {
		out[i] = lexeme.NewIdentified(b.identity, t)
	}
	return out
}

// rule is both a classifier and a reconstructor.
type rule interface {
	registry.Classifier
	registry.Reconstructor
}

func register(rules ...rule) {
	for _, r := range rules {
		registry.Register(r)
		registry.RegisterReconstructor(r)
	}
}

// values is a small builder for lexeme value maps.
type values map[lexeme.ValueName]any

func (v values) setInt(name lexeme.ValueName, s string) {
	if n, err := strconv.Atoi(s); err == nil {
		v[name] = n
	}
}

// setTime stores the non-empty day, hour and minute digit pairs.
func (v values) setTime(day, hour, minute lexeme.ValueName, dd, hh, mm string) {
	if dd != "" {
		v.setInt(day, dd)
	}
	if hh != "" {
		v.setInt(hour, hh)
	}
	if mm != "" {
		v.setInt(minute, mm)
	}
}

// checkTime validates the time slots written by setTime and returns a
// message for the first out-of-range field, or "".
func (v values) checkTime(day, hour, minute lexeme.ValueName) string {
	if d, ok := v[day].(int); ok && (d < 1 || d > 31) {
		return fmt.Sprintf("day %02d out of range", d)
	}
	if h, ok := v[hour].(int); ok && h > 24 {
		return fmt.Sprintf("hour %02d out of range", h)
	}
	if m, ok := v[minute].(int); ok && m > 59 {
		return fmt.Sprintf("minute %02d out of range", m)
	}
	return ""
}

func (v values) result(id lexeme.Identity, problem string) lexeme.Classification {
	if problem != "" {
		return lexeme.SyntaxError(id, problem, v)
	}
	return lexeme.Recognized(id, v)
}

// signedTemp parses "M05" as -5 and "12" as 12.
func signedTemp(s string) int {
	neg := strings.HasPrefix(s, "M")
	n, _ := strconv.Atoi(strings.TrimPrefix(s, "M"))
	if neg {
		return -n
	}
	return n
}

// formatTemp writes a temperature in whole degrees, M for negative values.
// Values between -0.5 and 0 are written M00.
func formatTemp(v float64) string {
	r := math.Round(v)
	if r < 0 || r == 0 && v < 0 {
		return fmt.Sprintf("M%02d", int(-r))
	}
	return fmt.Sprintf("%02d", int(r))
}

func serErr(id lexeme.Identity, field, format string, args ...any) error {
	return conversion.Serializationf(id.String(), field, format, args...)
}

// requireUnit fails unless m is in one of the allowed units.
func requireUnit(id lexeme.Identity, field string, m model.NumericMeasure, allowed ...string) error {
	for _, u := range allowed {
		if m.UOM == u {
			return nil
		}
	}
	return serErr(id, field, "unsupported unit %q (want %s)", m.UOM, strings.Join(allowed, " or "))
}

// wholeNumber returns v as an int when it has no fractional part.
func wholeNumber(id lexeme.Identity, field string, v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, serErr(id, field, "value %v is not a whole number", v)
	}
	return int(v), nil
}

// instantPartial returns the partial time of an instant, deriving it from
// the complete time (in UTC, with zone) when the partial is absent.
func instantPartial(id lexeme.Identity, field string, in *partialtime.Instant) (partialtime.PartialDateTime, error) {
	if in == nil {
		return partialtime.PartialDateTime{}, serErr(id, field, "time missing")
	}
	if p, ok := in.Partial(); ok {
		return p, nil
	}
	if t, ok := in.Complete(); ok {
		t = t.UTC()
		return partialtime.MustNew(t.Day(), t.Hour(), t.Minute()).WithZone(t.Location()), nil
	}
	return partialtime.PartialDateTime{}, serErr(id, field, "time missing")
}

// formatPartial writes the requested fields of p as two-digit groups,
// followed by Z when zoned is set and p is in UTC.
func formatPartial(id lexeme.Identity, field string, p partialtime.PartialDateTime, zoned bool, fields ...partialtime.Field) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		v, ok := p.Get(f)
		if !ok {
			return "", serErr(id, field, "%s missing in %s", f, p)
		}
		if v > 99 {
			return "", serErr(id, field, "%s %d does not fit two digits", f, v)
		}
		fmt.Fprintf(&b, "%02d", v)
	}
	if zoned {
		if loc, ok := p.Zone(); ok && loc == time.UTC {
			b.WriteByte('Z')
		}
	}
	return b.String(), nil
}

// zoneProblem returns a syntax message when strict zone handling is
// requested and the zone suffix is missing.
func zoneProblem(ctx *registry.Context, z string) string {
	if z == "" && ctx.Hints().ZoneHandling == conversion.ZoneStrict {
		return "time group lacks zone designator Z"
	}
	return ""
}

func firstProblem(problems ...string) string {
	for _, p := range problems {
		if p != "" {
			return p
		}
	}
	return ""
}
