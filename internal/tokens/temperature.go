package tokens

import (
	"fmt"
	"math"
	"strconv"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var airDewpointFormat = patterns.MustCompile(patterns.Format{
	Name:    "air_dewpoint",
	Pattern: `(?P<air>{TEMP}|//)/(?P<dew>{TEMP}|//)`,
})

// airDewpoint is the TT/TdTd group of a METAR.
type airDewpoint struct{ base }

func (a *airDewpoint) QuickCheck(token string) bool {
	return len(token) >= 5 && len(token) <= 7
}

func (a *airDewpoint) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) || ctx.IsTAF() {
		return lexeme.Classification{}, false
	}
	m := airDewpointFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Unit: model.UnitCelsius}
	if s := m.Get("air"); s != "//" {
		v[lexeme.Value] = signedTemp(s)
	}
	if s := m.Get("dew"); s != "//" {
		v[lexeme.Value2] = signedTemp(s)
	}
	return lexeme.Recognized(lexeme.AirDewpointTemperature, v), true
}

func (a *airDewpoint) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() || ctx.METAR.Temperatures == nil {
		return nil, nil
	}
	t := ctx.METAR.Temperatures
	air, err := a.side("air temperature", t.Air)
	if err != nil {
		return nil, err
	}
	dew, err := a.side("dewpoint temperature", t.Dewpoint)
	if err != nil {
		return nil, err
	}
	return a.lex(air + "/" + dew), nil
}

func (a *airDewpoint) side(field string, m *model.NumericMeasure) (string, error) {
	if m == nil {
		return "//", nil
	}
	if err := requireUnit(a.identity, field, *m, model.UnitCelsius); err != nil {
		return "", err
	}
	if math.Abs(m.Value) >= 99.5 {
		return "", serErr(a.identity, field, "%v does not fit two digits", m.Value)
	}
	return formatTemp(m.Value), nil
}

var qnhFormat = patterns.MustCompile(patterns.Format{
	Name:    "qnh",
	Pattern: `(?P<unit>[QA])(?P<val>\d{4})`,
})

// qnh is the Qnnnn (hPa) or Annnn (hundredths of inHg) pressure group.
type qnh struct{ base }

func (q *qnh) QuickCheck(token string) bool {
	return len(token) == 5 && (token[0] == 'Q' || token[0] == 'A')
}

func (q *qnh) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := qnhFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	n, _ := strconv.Atoi(m.Get("val"))
	v := values{}
	if m.Get("unit") == "Q" {
		v[lexeme.Value] = float64(n)
		v[lexeme.Unit] = model.UnitHectopascal
	} else {
		v[lexeme.Value] = float64(n) / 100
		v[lexeme.Unit] = model.UnitInchesMercury
	}
	return lexeme.Recognized(lexeme.AirPressureQNH, v), true
}

func (q *qnh) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() || ctx.METAR.QNH == nil {
		return nil, nil
	}
	p := ctx.METAR.QNH
	var prefix string
	var n int
	switch p.UOM {
	case model.UnitHectopascal:
		prefix, n = "Q", int(math.Round(p.Value))
	case model.UnitInchesMercury:
		prefix, n = "A", int(math.Round(p.Value*100))
	default:
		return nil, serErr(q.identity, "value", "unsupported unit %q", p.UOM)
	}
	if n < 0 || n > 9999 {
		return nil, serErr(q.identity, "value", "%v %s does not fit four digits", p.Value, p.UOM)
	}
	return q.lex(fmt.Sprintf("%s%04d", prefix, n)), nil
}

var minMaxFormat = patterns.MustCompile(patterns.Format{
	Name:    "min_max",
	Pattern: `T(?P<kind>[XN])(?P<temp>{TEMP})/(?P<dd>{DD})(?P<hh>{HH})(?P<z>Z?)`,
})

// minMaxTemperature is a TAF TXtt/DDHHZ or TNtt/DDHHZ group.
type minMaxTemperature struct{ base }

func (t *minMaxTemperature) QuickCheck(token string) bool {
	return len(token) >= 8 && (token[:2] == "TX" || token[:2] == "TN")
}

func (t *minMaxTemperature) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := minMaxFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{
		lexeme.Type:    map[string]string{"X": "MAX", "N": "MIN"}[m.Get("kind")],
		lexeme.Value:   signedTemp(m.Get("temp")),
		lexeme.Unit:    model.UnitCelsius,
		lexeme.HasZone: m.Has("z"),
	}
	v.setTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1, m.Get("dd"), m.Get("hh"), "")
	problem := firstProblem(v.checkTime(lexeme.Day1, lexeme.Hour1, lexeme.Minute1), zoneProblem(ctx, m.Get("z")))
	return v.result(lexeme.MinMaxTemperature, problem), true
}

func (t *minMaxTemperature) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.TAF == nil || ctx.InSection() {
		return nil, nil
	}
	out := make([]string, 0, len(ctx.TAF.Temperatures))
	for i, tf := range ctx.TAF.Temperatures {
		field := fmt.Sprintf("temperature %d", i)
		if err := requireUnit(t.identity, field, tf.Value, model.UnitCelsius); err != nil {
			return nil, err
		}
		p, err := instantPartial(t.identity, field, &tf.Time)
		if err != nil {
			return nil, err
		}
		at, err := formatPartial(t.identity, field, p, true, partialtime.Day, partialtime.Hour)
		if err != nil {
			return nil, err
		}
		kind := "N"
		if tf.Maximum {
			kind = "X"
		}
		out = append(out, "T"+kind+formatTemp(tf.Value.Value)+"/"+at)
	}
	return t.lex(out...), nil
}

func init() {
	register(
		&airDewpoint{base{name: "air_dewpoint_temperature", identity: lexeme.AirDewpointTemperature, priority: prioField}},
		&qnh{base{name: "air_pressure_qnh", identity: lexeme.AirPressureQNH, priority: prioField}},
		&minMaxTemperature{base{name: "min_max_temperature", identity: lexeme.MinMaxTemperature, priority: prioField}},
	)
}
