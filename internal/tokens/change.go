package tokens

import (
	"strings"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var changeIndicatorFormats = patterns.MustCompile(
	patterns.Format{Name: "keyword", Pattern: `(?P<kw>BECMG|TEMPO)`},
	patterns.Format{Name: "prob", Pattern: `PROB(?P<prob>30|40)`},
	patterns.Format{Name: "from", Pattern: `FM(?P<dd>{DD})?(?P<hh>{HH})(?P<mm>{MM})`},
)

// tafChangeIndicator opens a TAF change forecast: BECMG, TEMPO, PROBnn or
// FM with its start time. PROB30 TEMPO is two lexemes.
type tafChangeIndicator struct{ base }

func (t *tafChangeIndicator) QuickCheck(token string) bool {
	return token == "BECMG" || token == "TEMPO" || strings.HasPrefix(token, "PROB") || strings.HasPrefix(token, "FM")
}

func (t *tafChangeIndicator) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.IsTAF() || ctx.Antecedent(lexeme.ValidTime) == nil {
		return lexeme.Classification{}, false
	}
	m := changeIndicatorFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{}
	problem := ""
	switch m.FormatName {
	case "keyword":
		v[lexeme.Type] = m.Get("kw")
	case "prob":
		v[lexeme.Type] = "PROB"
		v.setInt(lexeme.Probability, m.Get("prob"))
	case "from":
		v[lexeme.Type] = model.ChangeFrom
		v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, m.Get("dd"), m.Get("hh"), m.Get("mm"))
		problem = v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
	}
	return v.result(lexeme.TafForecastChangeIndicator, problem), true
}

func (t *tafChangeIndicator) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	ch := ctx.Change
	if ch == nil {
		return nil, nil
	}
	switch ch.Type {
	case model.ChangeBecoming, model.ChangeTemporary, model.ChangeProb30, model.ChangeProb40:
		return t.lex(ch.Type), nil
	case model.ChangeProb30Temporary, model.ChangeProb40Temporary:
		prob, _, _ := strings.Cut(ch.Type, "_")
		return t.lex(prob, model.ChangeTemporary), nil
	case model.ChangeFrom:
		p, err := instantPartial(t.identity, "from", ch.Period.Start)
		if err != nil {
			return nil, err
		}
		fields := []partialtime.Field{partialtime.Day, partialtime.Hour, partialtime.Minute}
		if ctx.Hints.ValidityFormat == conversion.ValidityShort || !p.Has(partialtime.Day) {
			fields = fields[1:]
		}
		s, err := formatPartial(t.identity, "from", p, false, fields...)
		if err != nil {
			return nil, err
		}
		return t.lex("FM" + s), nil
	}
	return nil, serErr(t.identity, "type", "unknown change type %q", ch.Type)
}

var changeTimeFormats = patterns.MustCompile(
	patterns.Format{Name: FormatLong, Pattern: `(?P<d1>{DD})(?P<h1>{HH})/(?P<d2>{DD})(?P<h2>{HH})`},
	patterns.Format{Name: FormatHours, Pattern: `(?P<h1>{HH})(?P<h2>{HH})`},
)

// tafChangeTimeGroup is the period after a non-FM change indicator. The
// four digit HHHH form is only taken when the validity period was written
// in a short form; otherwise the token is left to visibility.
type tafChangeTimeGroup struct{ base }

func (t *tafChangeTimeGroup) QuickCheck(token string) bool {
	return len(token) == 4 || len(token) == 9
}

func (t *tafChangeTimeGroup) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.IsTAF() || !inChangeBlockPosition(ctx) {
		return lexeme.Classification{}, false
	}
	m := changeTimeFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	certainty := certain
	if m.FormatName == FormatHours {
		vt := ctx.Antecedent(lexeme.ValidTime)
		if f, _ := vt.StringValue(lexeme.Format); f != FormatShort && f != FormatHours {
			return lexeme.Classification{}, false
		}
		if next := ctx.NextToken(); looksLikeWind(next) || looksLikeVisibility(next) {
			certainty = doubtfulTimeGroup
		}
	}
	v := values{lexeme.Format: m.FormatName}
	v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, m.Get("d1"), m.Get("h1"), "")
	v.setTime(lexeme.Day2, lexeme.Hour2, lexeme.Minute2, m.Get("d2"), m.Get("h2"), "")
	problem := firstProblem(v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1), v.checkTime(lexeme.Day2, lexeme.Hour2, lexeme.Minute2))
	c := v.result(lexeme.TafChangeForecastTimeGroup, problem)
	c.Certainty = certainty
	return c, true
}

func (t *tafChangeTimeGroup) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	ch := ctx.Change
	if ch == nil || ch.Type == model.ChangeFrom {
		return nil, nil
	}
	s, err := formatPeriod(t.identity, "period", ch.Period, ctx.Hints.ValidityFormat, false)
	if err != nil {
		return nil, err
	}
	return t.lex(s), nil
}

// formatPeriod writes a validity or change period. Long format is DDHH/DDHH.
// Short format is DDHHHH for the validity and HHHH for change groups; a
// period without days is always written HHHH.
func formatPeriod(id lexeme.Identity, field string, p partialtime.Period, format conversion.ValidityFormat, validity bool) (string, error) {
	start, err := instantPartial(id, field+" start", p.Start)
	if err != nil {
		return "", err
	}
	end, err := instantPartial(id, field+" end", p.End)
	if err != nil {
		return "", err
	}
	dh := []partialtime.Field{partialtime.Day, partialtime.Hour}
	h := []partialtime.Field{partialtime.Hour}

	switch {
	case !start.Has(partialtime.Day):
		s, err := formatPartial(id, field+" start", start, false, h...)
		if err != nil {
			return "", err
		}
		e, err := formatPartial(id, field+" end", end, false, h...)
		return s + e, err
	case format == conversion.ValidityShort:
		startFields := h
		if validity {
			startFields = dh
		}
		s, err := formatPartial(id, field+" start", start, false, startFields...)
		if err != nil {
			return "", err
		}
		e, err := formatPartial(id, field+" end", end, false, h...)
		return s + e, err
	}
	s, err := formatPartial(id, field+" start", start, false, dh...)
	if err != nil {
		return "", err
	}
	e, err := formatPartial(id, field+" end", end, false, dh...)
	return s + "/" + e, err
}

var trendIndicatorFormats = patterns.MustCompile(
	patterns.Format{Name: "keyword", Pattern: `(?P<kw>BECMG|TEMPO|NOSIG)`},
	patterns.Format{Name: "prob", Pattern: `PROB(?P<prob>30|40)`},
)

// trendChangeIndicator opens a METAR trend. PROB is recognized so the
// parser can report it as illegal in a METAR.
type trendChangeIndicator struct{ base }

func (t *trendChangeIndicator) QuickCheck(token string) bool {
	return token == "BECMG" || token == "TEMPO" || token == "NOSIG" || strings.HasPrefix(token, "PROB")
}

func (t *trendChangeIndicator) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if ctx.IsTAF() || !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := trendIndicatorFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{}
	if m.FormatName == "prob" {
		v[lexeme.Type] = "PROB"
		v.setInt(lexeme.Probability, m.Get("prob"))
	} else {
		v[lexeme.Type] = m.Get("kw")
	}
	return lexeme.Recognized(lexeme.TrendChangeIndicator, v), true
}

func (t *trendChangeIndicator) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	switch {
	case ctx.Trend != nil:
		if ctx.Trend.Type != model.TrendBecoming && ctx.Trend.Type != model.TrendTemporary {
			return nil, serErr(t.identity, "type", "unknown trend type %q", ctx.Trend.Type)
		}
		return t.lex(ctx.Trend.Type), nil
	case ctx.METAR != nil && ctx.METAR.NoSignificantChanges:
		if len(ctx.METAR.Trends) > 0 {
			return nil, serErr(t.identity, "nosig", "NOSIG together with %d trends", len(ctx.METAR.Trends))
		}
		return t.lex("NOSIG"), nil
	}
	return nil, nil
}

var trendTimeFormat = patterns.MustCompile(patterns.Format{
	Name:    "trend_time",
	Pattern: `(?P<kind>FM|TL|AT)(?P<hh>{HH})(?P<mm>{MM})`,
})

// trendTimeGroup is an FM, TL or AT hhmm group inside a METAR trend.
type trendTimeGroup struct{ base }

func (t *trendTimeGroup) QuickCheck(token string) bool {
	return len(token) == 6
}

func (t *trendTimeGroup) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if ctx.IsTAF() || !ctx.PrevIs(lexeme.TrendChangeIndicator, lexeme.TrendTimeGroup) {
		return lexeme.Classification{}, false
	}
	m := trendTimeFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Type: m.Get("kind")}
	v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, "", m.Get("hh"), m.Get("mm"))
	return v.result(lexeme.TrendTimeGroup, v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1)), true
}

func (t *trendTimeGroup) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Trend == nil {
		return nil, nil
	}
	var out []string
	for _, g := range []struct {
		kind string
		at   *partialtime.Instant
	}{
		{"FM", ctx.Trend.From},
		{"TL", ctx.Trend.Until},
		{"AT", ctx.Trend.At},
	} {
		if g.at == nil {
			continue
		}
		p, err := instantPartial(t.identity, g.kind, g.at)
		if err != nil {
			return nil, err
		}
		s, err := formatPartial(t.identity, g.kind, p, false, partialtime.Hour, partialtime.Minute)
		if err != nil {
			return nil, err
		}
		out = append(out, g.kind+s)
	}
	return t.lex(out...), nil
}

func init() {
	register(
		&tafChangeIndicator{base{name: "taf_change_indicator", identity: lexeme.TafForecastChangeIndicator, priority: prioChange}},
		&tafChangeTimeGroup{base{name: "taf_change_time_group", identity: lexeme.TafChangeForecastTimeGroup, priority: prioChangeTime}},
		&trendChangeIndicator{base{name: "trend_change_indicator", identity: lexeme.TrendChangeIndicator, priority: prioTrend}},
		&trendTimeGroup{base{name: "trend_time_group", identity: lexeme.TrendTimeGroup, priority: prioTrendTime}},
	)
}
