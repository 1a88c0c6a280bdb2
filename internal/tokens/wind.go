package tokens

import (
	"fmt"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var windFormat = patterns.MustCompile(patterns.Format{
	Name:    "wind",
	Pattern: `(?P<dir>{WIND_DIR}|VRB)(?P<p>P?)(?P<spd>{WIND_SPD})(?:G(?P<gp>P?)(?P<gust>{WIND_SPD}))?(?P<unit>{WIND_UNIT})`,
})

var windUnits = map[string]string{
	"KT":  model.UnitKnots,
	"MPS": model.UnitMetresPerSec,
	"KMH": model.UnitKmPerHour,
}

var windUnitCodes = map[string]string{
	model.UnitKnots:        "KT",
	model.UnitMetresPerSec: "MPS",
	model.UnitKmPerHour:    "KMH",
}

func operatorCode(p string) string {
	switch p {
	case "P":
		return string(model.OperatorAbove)
	case "M":
		return string(model.OperatorBelow)
	}
	return ""
}

func operatorPrefix(op model.RelationalOperator) string {
	switch op {
	case model.OperatorAbove:
		return "P"
	case model.OperatorBelow:
		return "M"
	}
	return ""
}

// surfaceWind is the dddffGggKT group.
type surfaceWind struct{ base }

func (w *surfaceWind) QuickCheck(token string) bool {
	n := len(token)
	return n >= 7 && (token[n-2:] == "KT" || token[n-3:] == "MPS" || token[n-3:] == "KMH")
}

// looksLikeWind is used by look-ahead checks on raw tokens.
func looksLikeWind(token string) bool {
	return windFormat.Matches(token)
}

func (w *surfaceWind) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	m := windFormat.Parse(ctx.Token())
	if m == nil || !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Unit: windUnits[m.Get("unit")]}
	if m.Get("dir") == "VRB" {
		v[lexeme.Type] = "VRB"
	} else {
		v.setInt(lexeme.Direction, m.Get("dir"))
	}
	v.setInt(lexeme.MeanValue, m.Get("spd"))
	if op := operatorCode(m.Get("p")); op != "" {
		v[lexeme.RelationalOperator] = op
	}
	if m.Has("gust") {
		v.setInt(lexeme.MaxValue, m.Get("gust"))
		if op := operatorCode(m.Get("gp")); op != "" {
			v[lexeme.RelationalOperator2] = op
		}
	}
	problem := ""
	if d, ok := v[lexeme.Direction].(int); ok && d > 360 {
		problem = fmt.Sprintf("wind direction %03d out of range", d)
	}
	return v.result(lexeme.SurfaceWind, problem), true
}

func (w *surfaceWind) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Conditions == nil || ctx.Conditions.SurfaceWind == nil {
		return nil, nil
	}
	sw := ctx.Conditions.SurfaceWind
	unit, ok := windUnitCodes[sw.MeanSpeed.UOM]
	if !ok {
		return nil, serErr(w.identity, "mean speed", "unsupported unit %q", sw.MeanSpeed.UOM)
	}

	var dir string
	switch {
	case sw.Variable:
		dir = "VRB"
	case sw.MeanDirection == nil:
		return nil, serErr(w.identity, "mean direction", "direction missing and wind not variable")
	default:
		if err := requireUnit(w.identity, "mean direction", *sw.MeanDirection, model.UnitDegrees); err != nil {
			return nil, err
		}
		d, err := wholeNumber(w.identity, "mean direction", sw.MeanDirection.Value)
		if err != nil {
			return nil, err
		}
		if d < 0 || d > 360 {
			return nil, serErr(w.identity, "mean direction", "%d out of range", d)
		}
		dir = fmt.Sprintf("%03d", d)
	}

	spd, err := windSpeed(w.identity, "mean speed", sw.MeanSpeed.Value)
	if err != nil {
		return nil, err
	}
	tok := dir + operatorPrefix(sw.MeanSpeedOperator) + spd
	if sw.Gust != nil {
		if sw.Gust.UOM != sw.MeanSpeed.UOM {
			return nil, serErr(w.identity, "gust", "unit %q differs from mean speed unit %q", sw.Gust.UOM, sw.MeanSpeed.UOM)
		}
		g, err := windSpeed(w.identity, "gust", sw.Gust.Value)
		if err != nil {
			return nil, err
		}
		tok += "G" + operatorPrefix(sw.GustOperator) + g
	}
	return w.lex(tok + unit), nil
}

func windSpeed(id lexeme.Identity, field string, v float64) (string, error) {
	n, err := wholeNumber(id, field, v)
	if err != nil {
		return "", err
	}
	if n < 0 || n > 999 {
		return "", serErr(id, field, "%d out of range", n)
	}
	return fmt.Sprintf("%02d", n), nil
}

var variableWindFormat = patterns.MustCompile(patterns.Format{
	Name:    "variable",
	Pattern: `(?P<ccw>{WIND_DIR})V(?P<cw>{WIND_DIR})`,
})

// variableWind is the dddVddd extreme directions group following the wind.
type variableWind struct{ base }

func (w *variableWind) QuickCheck(token string) bool {
	return len(token) == 7 && token[3] == 'V'
}

func (w *variableWind) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.PrevIs(lexeme.SurfaceWind) {
		return lexeme.Classification{}, false
	}
	m := variableWindFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Unit: model.UnitDegrees}
	v.setInt(lexeme.MinValue, m.Get("ccw"))
	v.setInt(lexeme.MaxValue, m.Get("cw"))
	problem := ""
	if v[lexeme.MinValue].(int) > 360 || v[lexeme.MaxValue].(int) > 360 {
		problem = "wind direction out of range"
	}
	return v.result(lexeme.VariableWindDirection, problem), true
}

func (w *variableWind) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Conditions == nil || ctx.Conditions.SurfaceWind == nil {
		return nil, nil
	}
	sw := ctx.Conditions.SurfaceWind
	if sw.ExtremeClockwise == nil && sw.ExtremeCounterClockwise == nil {
		return nil, nil
	}
	if sw.ExtremeClockwise == nil || sw.ExtremeCounterClockwise == nil {
		return nil, serErr(w.identity, "extremes", "both extreme directions are required")
	}
	var parts [2]string
	for i, m := range []*model.NumericMeasure{sw.ExtremeCounterClockwise, sw.ExtremeClockwise} {
		if err := requireUnit(w.identity, "extreme direction", *m, model.UnitDegrees); err != nil {
			return nil, err
		}
		d, err := wholeNumber(w.identity, "extreme direction", m.Value)
		if err != nil {
			return nil, err
		}
		if d < 0 || d > 360 {
			return nil, serErr(w.identity, "extreme direction", "%d out of range", d)
		}
		parts[i] = fmt.Sprintf("%03d", d)
	}
	return w.lex(parts[0] + "V" + parts[1]), nil
}

func init() {
	register(
		&surfaceWind{base{name: "surface_wind", identity: lexeme.SurfaceWind, priority: prioField}},
		&variableWind{base{name: "variable_wind_direction", identity: lexeme.VariableWindDirection, priority: prioField}},
	)
}
