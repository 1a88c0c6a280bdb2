package tokens

import (
	"regexp"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var designatorRe = regexp.MustCompile(`^[A-Z]{4}$`)

// aerodrome is the ICAO location indicator after the start and status tokens.
type aerodrome struct{ base }

func (a *aerodrome) QuickCheck(token string) bool { return designatorRe.MatchString(token) }

func (a *aerodrome) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if ctx.Index() > 0 && !ctx.PrevIs(lexeme.MetarStart, lexeme.SpeciStart, lexeme.TafStart, lexeme.Correction, lexeme.Amendment) {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Location: ctx.Token()}
	if c := patterns.CountryForICAO(ctx.Token()); c != "" {
		v[lexeme.Country] = c
	}
	return lexeme.Recognized(lexeme.AerodromeDesignator, v), true
}

func (a *aerodrome) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	var d string
	switch {
	case ctx.METAR != nil:
		d = ctx.METAR.Aerodrome.Designator
	case ctx.TAF != nil:
		d = ctx.TAF.Aerodrome.Designator
	}
	if !designatorRe.MatchString(d) {
		return nil, serErr(a.identity, "designator", "%q is not a four letter location indicator", d)
	}
	return a.lex(d), nil
}

var issueTimeFormat = patterns.MustCompile(patterns.Format{
	Name:    "ddhhmm",
	Pattern: `(?P<dd>{DD})(?P<hh>{HH})(?P<mm>{MM})(?P<z>Z?)`,
})

// issueTime is the DDHHMMZ group after the aerodrome designator.
type issueTime struct{ base }

func (it *issueTime) QuickCheck(token string) bool {
	return len(token) == 6 || len(token) == 7
}

func (it *issueTime) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.PrevIs(lexeme.AerodromeDesignator) {
		return lexeme.Classification{}, false
	}
	m := issueTimeFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	// A bare six digit group after a TAF designator without issue time is
	// a short validity period, not an issue time.
	if m.Get("z") == "" && ctx.IsTAF() && ctx.NextToken() != "" && isValidity(ctx.NextToken()) == "" {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.HasZone: m.Has("z")}
	v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, m.Get("dd"), m.Get("hh"), m.Get("mm"))
	problem := firstProblem(v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1), zoneProblem(ctx, m.Get("z")))
	return v.result(lexeme.IssueTime, problem), true
}

func (it *issueTime) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	var in *partialtime.Instant
	switch {
	case ctx.METAR != nil:
		in = ctx.METAR.IssueTime
	case ctx.TAF != nil:
		in = ctx.TAF.IssueTime
		if in == nil {
			return nil, nil
		}
	}
	p, err := instantPartial(it.identity, "issue time", in)
	if err != nil {
		return nil, err
	}
	s, err := formatPartial(it.identity, "issue time", p, true, partialtime.Day, partialtime.Hour, partialtime.Minute)
	if err != nil {
		return nil, err
	}
	return it.lex(s), nil
}

// Validity period formats recorded in the FORMAT slot.
const (
	FormatLong  = "LONG"  // DDHH/DDHH
	FormatShort = "SHORT" // DDHHHH
	FormatHours = "HOURS" // HHHH
)

var validityFormats = patterns.MustCompile(
	patterns.Format{Name: FormatLong, Pattern: `(?P<d1>{DD})(?P<h1>{HH})/(?P<d2>{DD})(?P<h2>{HH})`},
	patterns.Format{Name: FormatShort, Pattern: `(?P<d1>{DD})(?P<h1>{HH})(?P<h2>{HH})`},
	patterns.Format{Name: FormatHours, Pattern: `(?P<h1>{HH})(?P<h2>{HH})`},
)

// isValidity returns the validity format token matches, or "".
func isValidity(token string) string {
	if m := validityFormats.Parse(token); m != nil {
		return m.FormatName
	}
	return ""
}

// validTime is the TAF validity period.
type validTime struct{ base }

func (vt *validTime) QuickCheck(token string) bool {
	return len(token) >= 4 && len(token) <= 9 && token[0] >= '0' && token[0] <= '9'
}

func (vt *validTime) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.PrevIs(lexeme.IssueTime, lexeme.AerodromeDesignator) {
		return lexeme.Classification{}, false
	}
	if k := ctx.Kind(); k == model.KindMETAR || k == model.KindSPECI {
		return lexeme.Classification{}, false
	}
	m := validityFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Format: m.FormatName}
	v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, m.Get("d1"), m.Get("h1"), "")
	v.setTime(lexeme.Day2, lexeme.Hour2, lexeme.Minute2, m.Get("d2"), m.Get("h2"), "")
	problem := firstProblem(v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1), v.checkTime(lexeme.Day2, lexeme.Hour2, lexeme.Minute2))
	return v.result(lexeme.ValidTime, problem), true
}

func (vt *validTime) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.TAF == nil || ctx.TAF.Missing {
		return nil, nil
	}
	if ctx.TAF.ValidityTime == nil {
		return nil, serErr(vt.identity, "validity", "validity period missing")
	}
	s, err := formatPeriod(vt.identity, "validity", *ctx.TAF.ValidityTime, ctx.Hints.ValidityFormat, true)
	if err != nil {
		return nil, err
	}
	return vt.lex(s), nil
}

func init() {
	register(
		&aerodrome{base{name: "aerodrome", identity: lexeme.AerodromeDesignator, priority: prioAerodrome}},
		&issueTime{base{name: "issue_time", identity: lexeme.IssueTime, priority: prioIssueTime}},
		&validTime{base{name: "valid_time", identity: lexeme.ValidTime, priority: prioValidTime}},
	)
}
