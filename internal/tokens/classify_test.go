package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/lexer"
	_ "tac_codec/internal/tokens"
)

func lex(t *testing.T, text string, hints conversion.Hints) *lexeme.Sequence {
	t.Helper()
	seq, err := lexer.Default().Lex(text, hints)
	require.NoError(t, err)
	return seq
}

func identities(seq *lexeme.Sequence) []lexeme.Identity {
	out := make([]lexeme.Identity, seq.Len())
	for i := range out {
		out[i] = seq.At(i).Identity()
	}
	return out
}

func TestClassifyMETAR(t *testing.T) {
	seq := lex(t, "METAR EFHK 121250Z AUTO 24005G15KT 200V280 9999 R04L/P1500N -SHRA FEW020CB BKN040 12/M02 Q1013 RERA WS R04L NOSIG=", conversion.Hints{})

	assert.Equal(t, []lexeme.Identity{
		lexeme.MetarStart,
		lexeme.AerodromeDesignator,
		lexeme.IssueTime,
		lexeme.Automated,
		lexeme.SurfaceWind,
		lexeme.VariableWindDirection,
		lexeme.HorizontalVisibility,
		lexeme.RunwayVisualRange,
		lexeme.Weather,
		lexeme.Cloud,
		lexeme.Cloud,
		lexeme.AirDewpointTemperature,
		lexeme.AirPressureQNH,
		lexeme.RecentWeather,
		lexeme.WindShear,
		lexeme.WindShear,
		lexeme.TrendChangeIndicator,
		lexeme.EndToken,
	}, identities(seq))

	for i := 0; i < seq.Len(); i++ {
		assert.Equal(t, lexeme.StatusOK, seq.At(i).Status(), "token %q", seq.At(i).TACToken())
	}

	country, _ := seq.At(1).StringValue(lexeme.Country)
	assert.Equal(t, "Finland", country)

	wind := seq.At(4)
	dir, _ := wind.IntValue(lexeme.Direction)
	gust, _ := wind.IntValue(lexeme.MaxValue)
	unit, _ := wind.StringValue(lexeme.Unit)
	assert.Equal(t, 240, dir)
	assert.Equal(t, 15, gust)
	assert.Equal(t, "[kn_i]", unit)

	temps := seq.At(11)
	air, _ := temps.IntValue(lexeme.Value)
	dew, _ := temps.IntValue(lexeme.Value2)
	assert.Equal(t, 12, air)
	assert.Equal(t, -2, dew)

	cloud := seq.At(9)
	base, _ := cloud.IntValue(lexeme.Value)
	typ, _ := cloud.StringValue(lexeme.Type)
	assert.Equal(t, 2000, base)
	assert.Equal(t, "CB", typ)
}

func TestVisibilityAmbiguity(t *testing.T) {
	t.Run("after surface wind", func(t *testing.T) {
		seq := lex(t, "METAR EFHK 121250Z 24005KT 9999=", conversion.Hints{})
		vis := seq.At(4)
		require.Equal(t, lexeme.HorizontalVisibility, vis.Identity())
		v, _ := lexeme.ParsedValue[float64](vis, lexeme.Value)
		op, _ := vis.StringValue(lexeme.RelationalOperator)
		assert.Equal(t, 10000.0, v)
		assert.Equal(t, "ABOVE", op)
		assert.Equal(t, 1.0, vis.Certainty())
	})

	t.Run("after change indicator in 24h TAF", func(t *testing.T) {
		seq := lex(t, "TAF EFHK 121130Z 1218 24005KT 9999 BECMG 9999 BKN010=", conversion.Hints{})
		require.Equal(t, lexeme.ValidTime, seq.At(3).Identity())
		group := seq.At(7)
		assert.Equal(t, lexeme.TafChangeForecastTimeGroup, group.Identity())
		assert.Equal(t, lexeme.StatusSyntaxError, group.Status())
	})

	t.Run("after change indicator in long TAF", func(t *testing.T) {
		seq := lex(t, "TAF EFHK 121130Z 1212/1312 24005KT 9999 BECMG 9999 BKN010=", conversion.Hints{})
		vis := seq.At(7)
		assert.Equal(t, lexeme.HorizontalVisibility, vis.Identity())
		assert.Equal(t, 0.8, vis.Certainty())
	})

	t.Run("time group followed by wind is doubtful", func(t *testing.T) {
		seq := lex(t, "TAF EFHK 121130Z 1218 24005KT 9999 TEMPO 1416 30015G25KT=", conversion.Hints{})
		group := seq.At(7)
		assert.Equal(t, lexeme.TafChangeForecastTimeGroup, group.Identity())
		assert.Equal(t, lexeme.StatusOK, group.Status())
		assert.Equal(t, 0.6, group.Certainty())
	})
}

func TestClassifyTAF(t *testing.T) {
	seq := lex(t, "TAF AMD EFHK 121130Z 1212/1312 24005KT CAVOK TX15/1214Z TNM02/1304Z PROB30 TEMPO 1214/1216 4000 SHRA FM130600 30010KT 9999 SCT020 RMK NXT FCST BY 18Z=", conversion.Hints{})

	assert.Equal(t, []lexeme.Identity{
		lexeme.TafStart,
		lexeme.Amendment,
		lexeme.AerodromeDesignator,
		lexeme.IssueTime,
		lexeme.ValidTime,
		lexeme.SurfaceWind,
		lexeme.Cavok,
		lexeme.MinMaxTemperature,
		lexeme.MinMaxTemperature,
		lexeme.TafForecastChangeIndicator,
		lexeme.TafForecastChangeIndicator,
		lexeme.TafChangeForecastTimeGroup,
		lexeme.HorizontalVisibility,
		lexeme.Weather,
		lexeme.TafForecastChangeIndicator,
		lexeme.SurfaceWind,
		lexeme.HorizontalVisibility,
		lexeme.Cloud,
		lexeme.RemarksStart,
		lexeme.Remark,
		lexeme.Remark,
		lexeme.Remark,
		lexeme.Remark,
		lexeme.EndToken,
	}, identities(seq))

	valid := seq.At(4)
	format, _ := valid.StringValue(lexeme.Format)
	d2, _ := valid.IntValue(lexeme.Day2)
	assert.Equal(t, "LONG", format)
	assert.Equal(t, 13, d2)

	prob, _ := seq.At(9).IntValue(lexeme.Probability)
	assert.Equal(t, 30, prob)

	fm := seq.At(14)
	typ, _ := fm.StringValue(lexeme.Type)
	day, _ := fm.IntValue(lexeme.Day1)
	hour, _ := fm.IntValue(lexeme.Hour1)
	assert.Equal(t, "FM", typ)
	assert.Equal(t, 13, day)
	assert.Equal(t, 6, hour)

	tn := seq.At(8)
	kind, _ := tn.StringValue(lexeme.Type)
	temp, _ := tn.IntValue(lexeme.Value)
	assert.Equal(t, "MIN", kind)
	assert.Equal(t, -2, temp)
}

func TestClassifyShortValidity(t *testing.T) {
	seq := lex(t, "TAF EFHK 121212 24005KT 9999=", conversion.Hints{})
	valid := seq.At(2)
	require.Equal(t, lexeme.ValidTime, valid.Identity())
	format, _ := valid.StringValue(lexeme.Format)
	assert.Equal(t, "SHORT", format)
}

func TestZoneHandling(t *testing.T) {
	text := "METAR EFHK 121250 24005KT="

	lenient := lex(t, text, conversion.Hints{})
	assert.Equal(t, lexeme.StatusOK, lenient.At(2).Status())
	assert.False(t, lenient.At(2).BoolValue(lexeme.HasZone))

	strict := lex(t, text, conversion.Hints{ZoneHandling: conversion.ZoneStrict})
	assert.Equal(t, lexeme.IssueTime, strict.At(2).Identity())
	assert.Equal(t, lexeme.StatusSyntaxError, strict.At(2).Status())
}

func TestClassifyEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		index  int
		want   lexeme.Identity
		status lexeme.Status
	}{
		{"unknown token", "METAR EFHK 121250Z XYZZY123=", 3, lexeme.None, lexeme.StatusUnrecognized},
		{"wind direction out of range", "METAR EFHK 121250Z 39005KT=", 3, lexeme.SurfaceWind, lexeme.StatusSyntaxError},
		{"issue time hour out of range", "METAR EFHK 122650Z=", 2, lexeme.IssueTime, lexeme.StatusSyntaxError},
		{"runway state", "METAR EFHK 121250Z R04L/451293=", 3, lexeme.RunwayState, lexeme.StatusOK},
		{"runway state bad deposit", "METAR EFHK 121250Z R04L/A51293=", 3, lexeme.None, lexeme.StatusUnrecognized},
		{"runway cleared", "METAR EFHK 121250Z R88/CLRD95=", 3, lexeme.RunwayState, lexeme.StatusOK},
		{"sea state", "METAR EFHK 121250Z W15/S4=", 3, lexeme.SeaState, lexeme.StatusOK},
		{"snow closure", "METAR EFHK 121250Z R/SNOCLO=", 3, lexeme.SnowClosure, lexeme.StatusOK},
		{"colour code", "METAR EGVN 121250Z BLACKBLU=", 3, lexeme.ColorCode, lexeme.StatusOK},
		{"vertical visibility", "METAR EFHK 121250Z VV002=", 3, lexeme.Cloud, lexeme.StatusOK},
		{"no significant cloud", "METAR EFHK 121250Z NSC=", 3, lexeme.Cloud, lexeme.StatusOK},
		{"statute miles", "METAR KJFK 121251Z 1/2SM=", 3, lexeme.HorizontalVisibility, lexeme.StatusOK},
		{"altimeter", "METAR KJFK 121251Z A2992=", 3, lexeme.AirPressureQNH, lexeme.StatusOK},
		{"nil report", "METAR EFHK 121250Z NIL=", 3, lexeme.Nil, lexeme.StatusOK},
		{"cancelled TAF", "TAF EFHK 121130Z 1212/1312 CNL=", 4, lexeme.Cancellation, lexeme.StatusOK},
		{"trend time group", "METAR EFHK 121250Z TEMPO FM1300 TL1400=", 4, lexeme.TrendTimeGroup, lexeme.StatusOK},
		{"lower case input", "metar efhk 121250z 24005kt=", 3, lexeme.SurfaceWind, lexeme.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := lex(t, tt.text, conversion.Hints{})
			l := seq.At(tt.index)
			assert.Equal(t, tt.want, l.Identity(), "token %q", l.TACToken())
			assert.Equal(t, tt.status, l.Status(), "token %q", l.TACToken())
		})
	}
}

func TestRemarksStopAtEndMarker(t *testing.T) {
	seq := lex(t, "METAR EFHK 121250Z RMK AO2 =", conversion.Hints{})
	assert.Equal(t, lexeme.Remark, seq.At(4).Identity())
	assert.Equal(t, lexeme.EndToken, seq.At(5).Identity())
}

func TestLexWithTrace(t *testing.T) {
	seq, traces, err := lexer.Default().LexWithTrace("METAR EFHK 121250Z 9999=", conversion.Hints{})
	require.NoError(t, err)
	require.Len(t, traces, seq.Len())

	vis := traces[3]
	assert.Equal(t, "horizontal_visibility", vis.Winner)
	assert.Equal(t, lexeme.HorizontalVisibility, vis.Identity)
	assert.NotEmpty(t, vis.Attempts)
}
