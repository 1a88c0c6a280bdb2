package tacparser

import (
	"fmt"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
)

var (
	tafBounds = []lexeme.Identity{lexeme.TafForecastChangeIndicator, lexeme.RemarksStart, lexeme.EndToken}

	tafBody = []lexeme.Identity{
		lexeme.SurfaceWind,
		lexeme.VariableWindDirection,
		lexeme.Cavok,
		lexeme.HorizontalVisibility,
		lexeme.Weather,
		lexeme.Cloud,
		lexeme.MinMaxTemperature,
	}

	changeBody = []lexeme.Identity{
		lexeme.SurfaceWind,
		lexeme.VariableWindDirection,
		lexeme.Cavok,
		lexeme.HorizontalVisibility,
		lexeme.Weather,
		lexeme.NoSignificantWeather,
		lexeme.Cloud,
	}

	tafHeaderStop = identities(tafBody, tafBounds)
)

// TAFFromSequence parses an already classified TAF.
func TAFFromSequence(seq *lexeme.Sequence, hints conversion.Hints) *conversion.Result[*model.TAF] {
	w := newWalker(seq)
	t := &model.TAF{}
	res := &conversion.Result[*model.TAF]{Report: t}

	switch first := seq.First(); first.Identity() {
	case lexeme.TafStart:
		w.take(first)
	case lexeme.MetarStart, lexeme.SpeciStart:
		res.Failed = true
		res.Add(conversion.Other, "report is a METAR or SPECI, not a TAF")
		return res
	default:
		w.issue(conversion.MissingData, nil, "report type TAF missing")
	}

	w.checkCardinality(
		lexeme.Amendment, lexeme.Correction, lexeme.AerodromeDesignator, lexeme.IssueTime,
		lexeme.ValidTime, lexeme.Nil, lexeme.Cancellation, lexeme.RemarksStart, lexeme.EndToken,
	)

	w.findNext(lexeme.Amendment, nil, tafHeaderStop, func(*lexeme.Lexeme) {
		t.Amendment = true
	}, nil)
	w.findNext(lexeme.Correction, nil, tafHeaderStop, func(*lexeme.Lexeme) {
		t.Correction = true
	}, nil)
	w.findNext(lexeme.AerodromeDesignator, nil, tafHeaderStop, func(l *lexeme.Lexeme) {
		t.Aerodrome = aerodrome(l)
	}, w.required("aerodrome designator"))
	w.findNext(lexeme.IssueTime, nil, tafHeaderStop, func(l *lexeme.Lexeme) {
		t.IssueTime = w.instantAt(l, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
	}, w.required("issue time"))

	nilLex := w.findNext(lexeme.Nil, nil, tafHeaderStop, func(*lexeme.Lexeme) {
		t.Missing = true
	}, nil)
	validity := w.required("validity period")
	if t.Missing {
		validity = nil
	}
	w.findNext(lexeme.ValidTime, nil, tafHeaderStop, func(l *lexeme.Lexeme) {
		t.ValidityTime = w.periodOf(l)
	}, validity)

	if t.Missing {
		w.takeAfter(nilLex, []lexeme.Identity{lexeme.EndToken}, "data after NIL")
		w.end()
		w.completeTAF(t, hints)
		res.Issues = w.issues
		return res
	}

	if cnl := w.findNext(lexeme.Cancellation, nil, tafHeaderStop, func(*lexeme.Lexeme) {
		t.Cancelled = true
	}, nil); t.Cancelled {
		w.takeAfter(cnl, []lexeme.Identity{lexeme.RemarksStart, lexeme.Remark, lexeme.EndToken}, "data after CNL")
		t.Remarks = w.remarks()
		w.end()
		w.completeTAF(t, hints)
		res.Issues = w.issues
		return res
	}

	body := section{order: tafBody, bounds: tafBounds}
	t.Conditions = w.conditions(body)
	if t.SurfaceWind == nil {
		w.issue(conversion.MissingData, nil, "surface wind missing")
	}
	if t.Visibility == nil && !t.CAVOK {
		w.issue(conversion.MissingData, nil, "horizontal visibility missing")
	}
	w.findAll(lexeme.MinMaxTemperature, nil, body.stop(lexeme.MinMaxTemperature), func(l *lexeme.Lexeme) {
		if tf, ok := w.temperatureForecast(l); ok {
			t.Temperatures = append(t.Temperatures, tf)
		}
	})

	w.changes(t)
	t.Remarks = w.remarks()
	w.end()
	w.completeTAF(t, hints)
	res.Issues = w.issues
	return res
}

func (w *walker) temperatureForecast(l *lexeme.Lexeme) (model.TemperatureForecast, bool) {
	at := w.instantAt(l, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
	if at == nil {
		return model.TemperatureForecast{}, false
	}
	kind, _ := l.StringValue(lexeme.Type)
	tf := model.TemperatureForecast{Maximum: kind == "MAX", Time: *at}
	tf.Value, _ = measure(l, lexeme.Value, model.UnitCelsius)
	return tf, true
}

// changes reads the change groups. PROB30 or PROB40 directly followed by
// TEMPO is one PROBnn_TEMPO group.
func (w *walker) changes(t *model.TAF) {
	var indicators []*lexeme.Lexeme
	w.findAll(lexeme.TafForecastChangeIndicator, nil, []lexeme.Identity{lexeme.RemarksStart, lexeme.EndToken}, func(l *lexeme.Lexeme) {
		indicators = append(indicators, l)
	})

	for i := 0; i < len(indicators); i++ {
		l := indicators[i]
		anchor := l
		typ, _ := l.StringValue(lexeme.Type)
		ch := model.TAFChangeForecast{Type: typ}

		switch typ {
		case "PROB":
			prob, _ := l.IntValue(lexeme.Probability)
			ch.Type = fmt.Sprintf("PROB%d", prob)
			if i+1 < len(indicators) && indicators[i+1] == l.Next() {
				switch next, _ := l.Next().StringValue(lexeme.Type); next {
				case model.ChangeTemporary:
					ch.Type += "_" + model.ChangeTemporary
					anchor = l.Next()
					i++
				default:
					w.issue(conversion.LogicalError, l.Next(), "PROB can only qualify TEMPO")
				}
			}
		case model.ChangeFrom:
			ch.Period.Start = w.instantAt(l, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
		}

		if typ != model.ChangeFrom {
			w.findNext(lexeme.TafChangeForecastTimeGroup, anchor, identities(changeBody, tafBounds), func(g *lexeme.Lexeme) {
				if p := w.periodOf(g); p != nil {
					ch.Period = *p
				}
			}, func() {
				w.issue(conversion.MissingData, anchor, "%s change period missing", ch.Type)
			})
		}

		ch.Conditions = w.conditions(section{from: anchor, order: changeBody, bounds: tafBounds})
		if ch.Conditions.IsEmpty() {
			w.issue(conversion.MissingData, l, "%s change group without forecast conditions", ch.Type)
		}
		t.ChangeForecasts = append(t.ChangeForecasts, ch)
	}
}
