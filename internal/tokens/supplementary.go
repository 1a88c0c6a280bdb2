package tokens

import (
	"fmt"
	"strconv"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var seaStateFormat = patterns.MustCompile(patterns.Format{
	Name:    "sea_state",
	Pattern: `W(?P<sst>{TEMP}|//)/(?:S(?P<state>\d)|H(?P<height>\d{1,3}))`,
})

// seaState is the Wtt/Sn or Wtt/Hhhh group of a METAR.
type seaState struct{ base }

func (s *seaState) QuickCheck(token string) bool {
	return len(token) >= 6 && token[0] == 'W'
}

func (s *seaState) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) || ctx.IsTAF() {
		return lexeme.Classification{}, false
	}
	m := seaStateFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Unit: model.UnitCelsius}
	if t := m.Get("sst"); t != "//" {
		v[lexeme.Value] = signedTemp(t)
	}
	if m.Has("state") {
		v[lexeme.Type] = "S"
		v.setInt(lexeme.Code, m.Get("state"))
	} else {
		v[lexeme.Type] = "H"
		v.setInt(lexeme.Value2, m.Get("height"))
		v[lexeme.Unit2] = model.UnitDecimetres
	}
	return lexeme.Recognized(lexeme.SeaState, v), true
}

func (s *seaState) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() || ctx.METAR.SeaState == nil {
		return nil, nil
	}
	ss := ctx.METAR.SeaState
	sst := "//"
	if ss.SurfaceTemperature != nil {
		if err := requireUnit(s.identity, "surface temperature", *ss.SurfaceTemperature, model.UnitCelsius); err != nil {
			return nil, err
		}
		sst = formatTemp(ss.SurfaceTemperature.Value)
	}
	switch {
	case ss.State != nil && ss.WaveHeight != nil:
		return nil, serErr(s.identity, "state", "state of sea and wave height are exclusive")
	case ss.State != nil:
		if *ss.State < 0 || *ss.State > 9 {
			return nil, serErr(s.identity, "state", "%d out of range", *ss.State)
		}
		return s.lex("W" + sst + "/S" + strconv.Itoa(*ss.State)), nil
	case ss.WaveHeight != nil:
		if err := requireUnit(s.identity, "wave height", *ss.WaveHeight, model.UnitDecimetres); err != nil {
			return nil, err
		}
		n, err := wholeNumber(s.identity, "wave height", ss.WaveHeight.Value)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 999 {
			return nil, serErr(s.identity, "wave height", "%d out of range", n)
		}
		return s.lex(fmt.Sprintf("W%s/H%d", sst, n)), nil
	}
	return nil, serErr(s.identity, "state", "neither state of sea nor wave height given")
}

var colorCodeFormat = patterns.MustCompile(patterns.Format{
	Name:    "color",
	Pattern: `(?P<black>BLACK)?(?P<color>{COLOR})`,
})

// colorCode is the military aerodrome colour state.
type colorCode struct{ base }

func (c *colorCode) QuickCheck(token string) bool {
	return len(token) >= 3 && len(token) <= 10
}

func (c *colorCode) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) || ctx.IsTAF() {
		return lexeme.Classification{}, false
	}
	m := colorCodeFormat.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	return lexeme.Recognized(lexeme.ColorCode, values{lexeme.Code: m.Get("black") + m.Get("color")}), true
}

func (c *colorCode) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	var code string
	switch {
	case ctx.Trend != nil:
		code = ctx.Trend.ColorCode
	case ctx.METAR != nil && !ctx.InSection():
		code = ctx.METAR.ColorCode
	}
	if code == "" {
		return nil, nil
	}
	if colorCodeFormat.Parse(code) == nil {
		return nil, serErr(c.identity, "code", "%q is not a colour state", code)
	}
	return c.lex(code), nil
}

func init() {
	register(
		&seaState{base{name: "sea_state", identity: lexeme.SeaState, priority: prioField}},
		&colorCode{base{name: "color_code", identity: lexeme.ColorCode, priority: prioField}},
	)
}
