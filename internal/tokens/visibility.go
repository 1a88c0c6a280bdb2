package tokens

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

// Visibility formats, recorded in the TYPE slot.
const (
	visMetric      = "METRIC"
	visDirectional = "DIRECTIONAL"
	visStatute     = "STATUTE"
)

var visibilityFormats = patterns.MustCompile(
	patterns.Format{Name: visMetric, Pattern: `(?P<vis>\d{4})(?P<ndv>NDV)?`},
	patterns.Format{Name: visDirectional, Pattern: `(?P<vis>\d{4})(?P<dir>{COMPASS})`},
	patterns.Format{Name: visStatute, Pattern: `(?P<op>[PM])?(?P<sm>{SM_VALUE})SM`},
)

// maxMetricVisibility is what 9999 stands for.
const maxMetricVisibility = 10000

func looksLikeVisibility(token string) bool {
	return visibilityFormats.Matches(token)
}

// horizontalVisibility is the prevailing or directional minimum visibility.
type horizontalVisibility struct{ base }

func (h *horizontalVisibility) QuickCheck(token string) bool {
	return len(token) >= 3 && (token[0] >= '0' && token[0] <= '9' || strings.HasSuffix(token, "SM"))
}

func (h *horizontalVisibility) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := visibilityFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Type: m.FormatName}
	problem := ""
	switch m.FormatName {
	case visMetric, visDirectional:
		n, _ := strconv.Atoi(m.Get("vis"))
		v[lexeme.Unit] = model.UnitMetres
		if n == 9999 {
			n = maxMetricVisibility
			v[lexeme.RelationalOperator] = string(model.OperatorAbove)
		}
		v[lexeme.Value] = float64(n)
		if m.Has("ndv") {
			v[lexeme.NoDirectionalVariation] = true
		}
		if m.Has("dir") {
			v[lexeme.Direction] = m.Get("dir")
		}
	case visStatute:
		v[lexeme.Unit] = model.UnitStatuteMiles
		f, err := parseFraction(m.Get("sm"))
		if err != nil {
			problem = err.Error()
		} else {
			v[lexeme.Value] = f
		}
		if op := operatorCode(m.Get("op")); op != "" {
			v[lexeme.RelationalOperator] = op
		}
	}
	c := v.result(lexeme.HorizontalVisibility, problem)
	if inChangeBlockPosition(ctx) {
		c.Certainty = likelyVisibility
	}
	return c, true
}

func parseFraction(s string) (float64, error) {
	num, den, frac := strings.Cut(s, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, err
	}
	if !frac {
		return float64(n), nil
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("visibility fraction %s has zero denominator", s)
	}
	return float64(n) / float64(d), nil
}

// formatFraction writes v as a whole number or a fraction with a power of
// two denominator up to 16.
func formatFraction(v float64) (string, bool) {
	if v == math.Trunc(v) {
		return strconv.Itoa(int(v)), true
	}
	for d := 2; d <= 16; d *= 2 {
		n := v * float64(d)
		if n == math.Trunc(n) {
			return fmt.Sprintf("%d/%d", int(n), d), true
		}
	}
	return "", false
}

func (h *horizontalVisibility) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Conditions == nil || ctx.Conditions.Visibility == nil {
		return nil, nil
	}
	vis := ctx.Conditions.Visibility
	prevailing, err := h.format(vis.Prevailing, vis.Operator, "prevailing")
	if err != nil {
		return nil, err
	}
	if vis.NoDirectionalVariation {
		if vis.Prevailing.UOM != model.UnitMetres {
			return nil, serErr(h.identity, "ndv", "NDV needs a metric visibility")
		}
		prevailing += "NDV"
	}
	out := []string{prevailing}
	if vis.Minimum != nil {
		if err := requireUnit(h.identity, "minimum", *vis.Minimum, model.UnitMetres); err != nil {
			return nil, err
		}
		minimum, err := h.format(*vis.Minimum, model.OperatorNone, "minimum")
		if err != nil {
			return nil, err
		}
		out = append(out, minimum+vis.MinimumDirection)
	}
	return h.lex(out...), nil
}

func (h *horizontalVisibility) format(m model.NumericMeasure, op model.RelationalOperator, field string) (string, error) {
	switch m.UOM {
	case model.UnitMetres:
		n, err := wholeNumber(h.identity, field, m.Value)
		if err != nil {
			return "", err
		}
		if op == model.OperatorAbove && n >= maxMetricVisibility || n == 9999 {
			return "9999", nil
		}
		if n < 0 || n > 9999 {
			return "", serErr(h.identity, field, "%d m does not fit four digits", n)
		}
		return fmt.Sprintf("%04d", n), nil
	case model.UnitStatuteMiles:
		s, ok := formatFraction(m.Value)
		if !ok || m.Value < 0 {
			return "", serErr(h.identity, field, "%v SM cannot be written as a fraction", m.Value)
		}
		return operatorPrefix(op) + s + "SM", nil
	}
	return "", serErr(h.identity, field, "unsupported unit %q", m.UOM)
}

// inChangeBlockPosition reports whether the token directly follows a TAF
// change indicator that expects a time group.
func inChangeBlockPosition(ctx *registry.Context) bool {
	prev := ctx.Prev()
	if !prev.Is(lexeme.TafForecastChangeIndicator) {
		return false
	}
	t, _ := prev.StringValue(lexeme.Type)
	return t != model.ChangeFrom
}

var rvrFormat = patterns.MustCompile(patterns.Format{
	Name:    "rvr",
	Pattern: `R(?P<rwy>{RUNWAY})/(?P<op>[PM])?(?P<val>\d{4})(?:V(?P<op2>[PM])?(?P<max>\d{4}))?(?P<ft>FT)?/?(?P<tend>[UDN])?`,
})

var tendencyCodes = map[string]model.Tendency{
	"U": model.TendencyUpward,
	"D": model.TendencyDownward,
	"N": model.TendencyNoChange,
}

// runwayVisualRange is the Rdd/nnnn group.
type runwayVisualRange struct{ base }

func (r *runwayVisualRange) QuickCheck(token string) bool {
	return len(token) >= 8 && token[0] == 'R' && strings.Contains(token, "/")
}

func (r *runwayVisualRange) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := rvrFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Runway: m.Get("rwy"), lexeme.Unit: model.UnitMetres}
	if m.Has("ft") {
		v[lexeme.Unit] = model.UnitFeet
	}
	v.setInt(lexeme.Value, m.Get("val"))
	if op := operatorCode(m.Get("op")); op != "" {
		v[lexeme.RelationalOperator] = op
	}
	if m.Has("max") {
		v.setInt(lexeme.MaxValue, m.Get("max"))
		if op := operatorCode(m.Get("op2")); op != "" {
			v[lexeme.RelationalOperator2] = op
		}
	}
	if m.Has("tend") {
		v[lexeme.TendencyOperator] = string(tendencyCodes[m.Get("tend")])
	}
	return lexeme.Recognized(lexeme.RunwayVisualRange, v), true
}

func (r *runwayVisualRange) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() {
		return nil, nil
	}
	var out []string
	for _, rvr := range ctx.METAR.RunwayVisualRanges {
		s, err := r.format(rvr)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return r.lex(out...), nil
}

func (r *runwayVisualRange) format(rvr model.RunwayVisualRange) (string, error) {
	if rvr.Runway == "" {
		return "", serErr(r.identity, "runway", "runway designator missing")
	}
	if err := requireUnit(r.identity, "value", rvr.Value, model.UnitMetres, model.UnitFeet); err != nil {
		return "", err
	}
	four := func(field string, m model.NumericMeasure) (string, error) {
		n, err := wholeNumber(r.identity, field, m.Value)
		if err != nil {
			return "", err
		}
		if n < 0 || n > 9999 {
			return "", serErr(r.identity, field, "%d does not fit four digits", n)
		}
		return fmt.Sprintf("%04d", n), nil
	}
	val, err := four("value", rvr.Value)
	if err != nil {
		return "", err
	}
	s := "R" + rvr.Runway + "/" + operatorPrefix(rvr.Operator) + val
	if rvr.Max != nil {
		if rvr.Max.UOM != rvr.Value.UOM {
			return "", serErr(r.identity, "max", "unit %q differs from %q", rvr.Max.UOM, rvr.Value.UOM)
		}
		hi, err := four("max", *rvr.Max)
		if err != nil {
			return "", err
		}
		s += "V" + operatorPrefix(rvr.MaxOperator) + hi
	}
	if rvr.Value.UOM == model.UnitFeet {
		s += "FT"
	}
	for code, t := range tendencyCodes {
		if rvr.Tendency == t {
			s += code
		}
	}
	return s, nil
}

func init() {
	register(
		&horizontalVisibility{base{name: "horizontal_visibility", identity: lexeme.HorizontalVisibility, priority: prioField}},
		&runwayVisualRange{base{name: "runway_visual_range", identity: lexeme.RunwayVisualRange, priority: prioField}},
	)
}
