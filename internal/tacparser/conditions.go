package tacparser

import (
	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
)

// section is one scope of weather fields: the report body, a trend or a
// change group. Fields are searched after from, in order, up to bounds.
type section struct {
	from   *lexeme.Lexeme
	order  []lexeme.Identity
	bounds []lexeme.Identity
}

func (s section) stop(id lexeme.Identity) []lexeme.Identity {
	return following(s.order, id, s.bounds)
}

func (s section) allows(id lexeme.Identity) bool {
	return id.In(s.order...)
}

func measure(l *lexeme.Lexeme, name lexeme.ValueName, unit string) (model.NumericMeasure, bool) {
	if v, ok := l.IntValue(name); ok {
		return model.Measure(float64(v), unit), true
	}
	if v, ok := lexeme.ParsedValue[float64](l, name); ok {
		return model.Measure(v, unit), true
	}
	return model.NumericMeasure{}, false
}

func measureRef(l *lexeme.Lexeme, name lexeme.ValueName, unit string) *model.NumericMeasure {
	if m, ok := measure(l, name, unit); ok {
		return &m
	}
	return nil
}

func operator(l *lexeme.Lexeme, name lexeme.ValueName) model.RelationalOperator {
	s, _ := l.StringValue(name)
	return model.RelationalOperator(s)
}

// conditions reads the fields shared by every section. Required-field
// checks are left to the caller, which knows whether NIL or CNL apply.
func (w *walker) conditions(s section) model.Conditions {
	var c model.Conditions

	wind := w.findNext(lexeme.SurfaceWind, s.from, s.stop(lexeme.SurfaceWind), func(l *lexeme.Lexeme) {
		c.SurfaceWind = surfaceWind(l)
	}, nil)
	if wind != nil && s.allows(lexeme.VariableWindDirection) {
		w.findNext(lexeme.VariableWindDirection, wind, s.stop(lexeme.VariableWindDirection), func(l *lexeme.Lexeme) {
			if c.SurfaceWind == nil {
				return
			}
			c.SurfaceWind.ExtremeCounterClockwise = measureRef(l, lexeme.MinValue, model.UnitDegrees)
			c.SurfaceWind.ExtremeClockwise = measureRef(l, lexeme.MaxValue, model.UnitDegrees)
		}, nil)
	}

	w.findNext(lexeme.Cavok, s.from, s.stop(lexeme.Cavok), func(*lexeme.Lexeme) {
		c.CAVOK = true
	}, nil)

	var vis []*lexeme.Lexeme
	w.findAll(lexeme.HorizontalVisibility, s.from, s.stop(lexeme.HorizontalVisibility), func(l *lexeme.Lexeme) {
		vis = append(vis, l)
	})
	c.Visibility = w.visibility(vis)

	w.findAll(lexeme.Weather, s.from, s.stop(lexeme.Weather), func(l *lexeme.Lexeme) {
		code, _ := l.StringValue(lexeme.Code)
		c.Weather = append(c.Weather, model.Weather{Code: code, Description: patterns.DescribeWeather(code)})
	})

	if s.allows(lexeme.NoSignificantWeather) {
		w.findNext(lexeme.NoSignificantWeather, s.from, s.stop(lexeme.NoSignificantWeather), func(l *lexeme.Lexeme) {
			c.NoSignificantWeather = true
			if len(c.Weather) > 0 {
				w.issue(conversion.LogicalError, l, "NSW together with forecast weather")
			}
		}, nil)
	}

	var clouds []*lexeme.Lexeme
	w.findAll(lexeme.Cloud, s.from, s.stop(lexeme.Cloud), func(l *lexeme.Lexeme) {
		clouds = append(clouds, l)
	})
	c.Clouds = w.clouds(clouds)

	if c.CAVOK && (c.Visibility != nil || len(c.Weather) > 0 || c.Clouds != nil) {
		w.issue(conversion.LogicalError, nil, "CAVOK together with visibility, weather or cloud")
	}
	return c
}

func surfaceWind(l *lexeme.Lexeme) *model.SurfaceWind {
	unit, _ := l.StringValue(lexeme.Unit)
	sw := &model.SurfaceWind{
		MeanDirection:     measureRef(l, lexeme.Direction, model.UnitDegrees),
		MeanSpeedOperator: operator(l, lexeme.RelationalOperator),
		Gust:              measureRef(l, lexeme.MaxValue, unit),
		GustOperator:      operator(l, lexeme.RelationalOperator2),
	}
	if t, _ := l.StringValue(lexeme.Type); t == "VRB" {
		sw.Variable = true
	}
	sw.MeanSpeed, _ = measure(l, lexeme.MeanValue, unit)
	return sw
}

// visibility builds the prevailing visibility from the first group and the
// directional minimum from a second one.
func (w *walker) visibility(groups []*lexeme.Lexeme) *model.HorizontalVisibility {
	if len(groups) == 0 {
		return nil
	}
	first := groups[0]
	if _, directional := first.StringValue(lexeme.Direction); directional {
		w.issue(conversion.LogicalError, first, "directional visibility without prevailing visibility")
		return nil
	}
	unit, _ := first.StringValue(lexeme.Unit)
	v := &model.HorizontalVisibility{
		Operator:               operator(first, lexeme.RelationalOperator),
		NoDirectionalVariation: first.BoolValue(lexeme.NoDirectionalVariation),
	}
	v.Prevailing, _ = measure(first, lexeme.Value, unit)

	for i, g := range groups[1:] {
		dir, directional := g.StringValue(lexeme.Direction)
		if i > 0 || !directional {
			w.issue(conversion.LogicalError, g, "unexpected additional visibility group")
			continue
		}
		unit, _ := g.StringValue(lexeme.Unit)
		v.Minimum = measureRef(g, lexeme.Value, unit)
		v.MinimumDirection = dir
	}
	return v
}

func (w *walker) clouds(groups []*lexeme.Lexeme) *model.CloudForecast {
	if len(groups) == 0 {
		return nil
	}
	cf := &model.CloudForecast{}
	for _, g := range groups {
		format, _ := g.StringValue(lexeme.Format)
		cover, _ := g.StringValue(lexeme.Cover)
		switch format {
		case "SKY":
			cf.Special = cover
		case "VV":
			cf.VerticalVisibility = measureRef(g, lexeme.Value, model.UnitFeet)
			cf.VerticalVisibilityMissing = cf.VerticalVisibility == nil
		default:
			layer := model.CloudLayer{Amount: cover, Base: measureRef(g, lexeme.Value, model.UnitFeet)}
			switch t, _ := g.StringValue(lexeme.Type); t {
			case "///":
				layer.TypeMissing = true
			default:
				layer.Type = t
			}
			cf.Layers = append(cf.Layers, layer)
		}
	}
	n := 0
	for _, set := range []bool{cf.Special != "", cf.VerticalVisibility != nil || cf.VerticalVisibilityMissing, len(cf.Layers) > 0} {
		if set {
			n++
		}
	}
	if n > 1 {
		w.issue(conversion.LogicalError, groups[0], "cloud layers, vertical visibility and sky condition are exclusive")
	}
	return cf
}
