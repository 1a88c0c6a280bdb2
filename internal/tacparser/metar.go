package tacparser

import (
	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
)

var (
	metarBounds = []lexeme.Identity{lexeme.TrendChangeIndicator, lexeme.RemarksStart, lexeme.EndToken}

	// metarBody is the canonical field order of a METAR body.
	metarBody = []lexeme.Identity{
		lexeme.SurfaceWind,
		lexeme.VariableWindDirection,
		lexeme.Cavok,
		lexeme.HorizontalVisibility,
		lexeme.RunwayVisualRange,
		lexeme.Weather,
		lexeme.Cloud,
		lexeme.AirDewpointTemperature,
		lexeme.AirPressureQNH,
		lexeme.RecentWeather,
		lexeme.WindShear,
		lexeme.SeaState,
		lexeme.RunwayState,
		lexeme.SnowClosure,
		lexeme.ColorCode,
	}

	trendBody = []lexeme.Identity{
		lexeme.SurfaceWind,
		lexeme.VariableWindDirection,
		lexeme.Cavok,
		lexeme.HorizontalVisibility,
		lexeme.Weather,
		lexeme.NoSignificantWeather,
		lexeme.Cloud,
		lexeme.ColorCode,
	}

	metarHeaderStop = identities(metarBody, metarBounds)
)

// METARFromSequence parses an already classified METAR or SPECI.
func METARFromSequence(seq *lexeme.Sequence, hints conversion.Hints) *conversion.Result[*model.METAR] {
	w := newWalker(seq)
	m := &model.METAR{Kind: model.KindMETAR}
	res := &conversion.Result[*model.METAR]{Report: m}

	switch first := seq.First(); first.Identity() {
	case lexeme.SpeciStart:
		m.Kind = model.KindSPECI
		w.take(first)
	case lexeme.MetarStart:
		w.take(first)
	case lexeme.TafStart:
		res.Failed = true
		res.Add(conversion.Other, "report is a TAF, not a METAR or SPECI")
		return res
	default:
		w.issue(conversion.MissingData, nil, "report type METAR or SPECI missing")
	}

	w.checkCardinality(
		lexeme.Correction, lexeme.AerodromeDesignator, lexeme.IssueTime, lexeme.Nil, lexeme.Automated,
		lexeme.AirDewpointTemperature, lexeme.AirPressureQNH, lexeme.SeaState,
		lexeme.SnowClosure, lexeme.RemarksStart, lexeme.EndToken,
	)

	w.findNext(lexeme.Correction, nil, metarHeaderStop, func(*lexeme.Lexeme) {
		m.Correction = true
	}, nil)
	w.findNext(lexeme.AerodromeDesignator, nil, metarHeaderStop, func(l *lexeme.Lexeme) {
		m.Aerodrome = aerodrome(l)
	}, w.required("aerodrome designator"))
	w.findNext(lexeme.IssueTime, nil, metarHeaderStop, func(l *lexeme.Lexeme) {
		m.IssueTime = w.instantAt(l, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
	}, w.required("issue time"))

	if nilLex := w.findNext(lexeme.Nil, nil, metarHeaderStop, func(*lexeme.Lexeme) {
		m.Missing = true
	}, nil); m.Missing {
		w.takeAfter(nilLex, []lexeme.Identity{lexeme.EndToken}, "data after NIL")
		w.end()
		w.completeMETAR(m, hints)
		res.Issues = w.issues
		return res
	}

	w.findNext(lexeme.Automated, nil, metarHeaderStop, func(*lexeme.Lexeme) {
		m.Automated = true
	}, nil)

	body := section{order: metarBody, bounds: metarBounds}
	m.Conditions = w.conditions(body)
	if m.SurfaceWind == nil {
		w.issue(conversion.MissingData, nil, "surface wind missing")
	}
	if m.Visibility == nil && !m.CAVOK {
		w.issue(conversion.MissingData, nil, "horizontal visibility missing")
	}

	w.findAll(lexeme.RunwayVisualRange, nil, body.stop(lexeme.RunwayVisualRange), func(l *lexeme.Lexeme) {
		m.RunwayVisualRanges = append(m.RunwayVisualRanges, runwayVisualRange(l))
	})
	w.findNext(lexeme.AirDewpointTemperature, nil, body.stop(lexeme.AirDewpointTemperature), func(l *lexeme.Lexeme) {
		m.Temperatures = &model.AirDewpoint{
			Air:      measureRef(l, lexeme.Value, model.UnitCelsius),
			Dewpoint: measureRef(l, lexeme.Value2, model.UnitCelsius),
		}
	}, w.required("air and dewpoint temperature"))
	w.findNext(lexeme.AirPressureQNH, nil, body.stop(lexeme.AirPressureQNH), func(l *lexeme.Lexeme) {
		unit, _ := l.StringValue(lexeme.Unit)
		m.QNH = measureRef(l, lexeme.Value, unit)
	}, w.required("QNH"))
	w.findAll(lexeme.RecentWeather, nil, body.stop(lexeme.RecentWeather), func(l *lexeme.Lexeme) {
		code, _ := l.StringValue(lexeme.Code)
		m.RecentWeather = append(m.RecentWeather, model.Weather{Code: code, Description: patterns.DescribeWeather(code)})
	})
	m.WindShear = w.windShear(body)
	w.findNext(lexeme.SeaState, nil, body.stop(lexeme.SeaState), func(l *lexeme.Lexeme) {
		m.SeaState = seaState(l)
	}, nil)
	w.findAll(lexeme.RunwayState, nil, body.stop(lexeme.RunwayState), func(l *lexeme.Lexeme) {
		m.RunwayStates = append(m.RunwayStates, runwayState(l))
	})
	w.findNext(lexeme.SnowClosure, nil, body.stop(lexeme.SnowClosure), func(*lexeme.Lexeme) {
		m.SnowClosure = true
	}, nil)
	w.findNext(lexeme.ColorCode, nil, body.stop(lexeme.ColorCode), func(l *lexeme.Lexeme) {
		m.ColorCode, _ = l.StringValue(lexeme.Code)
	}, nil)

	w.trends(m)
	m.Remarks = w.remarks()
	w.end()
	w.completeMETAR(m, hints)
	res.Issues = w.issues
	return res
}

func aerodrome(l *lexeme.Lexeme) model.Aerodrome {
	a := model.Aerodrome{}
	a.Designator, _ = l.StringValue(lexeme.Location)
	a.Country, _ = l.StringValue(lexeme.Country)
	return a
}

// trends reads the BECMG and TEMPO trends and NOSIG. PROB is legal only in
// a TAF and is reported.
func (w *walker) trends(m *model.METAR) {
	var indicators []*lexeme.Lexeme
	w.findAll(lexeme.TrendChangeIndicator, nil, []lexeme.Identity{lexeme.RemarksStart, lexeme.EndToken}, func(l *lexeme.Lexeme) {
		indicators = append(indicators, l)
	})

	for _, l := range indicators {
		typ, _ := l.StringValue(lexeme.Type)
		switch typ {
		case "NOSIG":
			m.NoSignificantChanges = true
			continue
		case "PROB":
			w.issue(conversion.LogicalError, l, "PROB is not allowed in a METAR trend")
			continue
		}

		tr := model.Trend{Type: typ}
		sec := section{from: l, order: trendBody, bounds: metarBounds}
		w.findAll(lexeme.TrendTimeGroup, l, identities(trendBody, metarBounds), func(g *lexeme.Lexeme) {
			kind, _ := g.StringValue(lexeme.Type)
			at := w.instantAt(g, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
			switch kind {
			case "FM":
				w.setOnce(g, &tr.From, at)
			case "TL":
				w.setOnce(g, &tr.Until, at)
			case "AT":
				w.setOnce(g, &tr.At, at)
			}
		})
		tr.Conditions = w.conditions(sec)
		w.findNext(lexeme.ColorCode, l, sec.stop(lexeme.ColorCode), func(c *lexeme.Lexeme) {
			tr.ColorCode, _ = c.StringValue(lexeme.Code)
		}, nil)
		if tr.Conditions.IsEmpty() && tr.ColorCode == "" {
			w.issue(conversion.MissingData, l, "trend without forecast conditions")
		}
		m.Trends = append(m.Trends, tr)
	}
	if m.NoSignificantChanges && len(m.Trends) > 0 {
		w.issue(conversion.LogicalError, nil, "NOSIG together with trend forecasts")
	}
}

func (w *walker) windShear(s section) *model.WindShear {
	var ws *model.WindShear
	w.findAll(lexeme.WindShear, s.from, s.stop(lexeme.WindShear), func(l *lexeme.Lexeme) {
		if ws == nil {
			ws = &model.WindShear{}
		}
		if l.BoolValue(lexeme.AllRunways) {
			ws.AllRunways = true
		}
		if rwy, ok := l.StringValue(lexeme.Runway); ok {
			ws.Runways = append(ws.Runways, rwy)
		}
	})
	if ws != nil && !ws.AllRunways && len(ws.Runways) == 0 {
		w.issue(conversion.LogicalError, nil, "wind shear group without runway")
	}
	return ws
}

func runwayVisualRange(l *lexeme.Lexeme) model.RunwayVisualRange {
	unit, _ := l.StringValue(lexeme.Unit)
	rvr := model.RunwayVisualRange{
		Operator:    operator(l, lexeme.RelationalOperator),
		Max:         measureRef(l, lexeme.MaxValue, unit),
		MaxOperator: operator(l, lexeme.RelationalOperator2),
	}
	rvr.Runway, _ = l.StringValue(lexeme.Runway)
	rvr.Value, _ = measure(l, lexeme.Value, unit)
	if t, ok := l.StringValue(lexeme.TendencyOperator); ok {
		rvr.Tendency = model.Tendency(t)
	}
	return rvr
}

func seaState(l *lexeme.Lexeme) *model.SeaState {
	ss := &model.SeaState{SurfaceTemperature: measureRef(l, lexeme.Value, model.UnitCelsius)}
	if t, _ := l.StringValue(lexeme.Type); t == "S" {
		if s, ok := l.IntValue(lexeme.Code); ok {
			ss.State = &s
		}
	} else {
		ss.WaveHeight = measureRef(l, lexeme.Value2, model.UnitDecimetres)
	}
	return ss
}

func runwayState(l *lexeme.Lexeme) model.RunwayState {
	rs := model.RunwayState{
		AllRunways: l.BoolValue(lexeme.AllRunways),
		Repetition: l.BoolValue(lexeme.Repetition),
		Cleared:    l.BoolValue(lexeme.Cleared),
	}
	rs.Runway, _ = l.StringValue(lexeme.Runway)
	rs.Deposit, _ = l.StringValue(lexeme.Deposit)
	rs.Contamination, _ = l.StringValue(lexeme.Contamination)
	rs.Depth, _ = l.StringValue(lexeme.Depth)
	rs.BrakingAction, _ = l.StringValue(lexeme.BrakingAction)

	rs.DepositDescription, _ = patterns.RunwayDeposit(rs.Deposit)
	rs.ContaminationDescription, _ = patterns.RunwayContamination(rs.Contamination)
	rs.DepthDescription, _ = patterns.RunwayDepth(rs.Depth)
	rs.BrakingDescription, _ = patterns.RunwayBraking(rs.BrakingAction)
	if rs.Cleared {
		rs.DepositDescription = "CLEARED"
	}
	return rs
}

// remarks returns the free text after RMK verbatim.
func (w *walker) remarks() []string {
	stop := []lexeme.Identity{lexeme.EndToken}
	rmk := w.findNext(lexeme.RemarksStart, nil, stop, nil, nil)
	if rmk == nil {
		return nil
	}
	var out []string
	w.findAll(lexeme.Remark, rmk, stop, func(l *lexeme.Lexeme) {
		v, _ := l.StringValue(lexeme.Value)
		out = append(out, v)
	})
	if len(out) == 0 {
		w.issue(conversion.MissingData, rmk, "RMK without remarks")
	}
	return out
}

// end takes the end marker and reports whatever was left.
func (w *walker) end() {
	w.findNext(lexeme.EndToken, nil, nil, nil, nil)
	w.finish()
}
