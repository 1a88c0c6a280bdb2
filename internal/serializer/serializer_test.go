package serializer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
	"tac_codec/internal/registry"
	"tac_codec/internal/serializer"
	"tac_codec/internal/tacparser"
	_ "tac_codec/internal/tokens"
)

var metarCorpus = []string{
	"METAR EFHK 121250Z 24005G15KT 200V280 9999 FEW020CB BKN040 12/M02 Q1013 NOSIG=",
	"SPECI COR EFHK 121250Z AUTO 24005KT 9999 R04L/P1500N -SHRA BKN040 12/08 Q1013 RERA WS ALL RWY R04L/451293 TEMPO FM1300 TL1430 4000 SHRA RMK AO2=",
	"METAR KJFK 121251Z 31015G25KT 10SM FEW250 M02/M10 A2992 RMK AO2 SLP132=",
	"METAR EGLL 121250Z 24005KT CAVOK 12/08 Q1013 BECMG TL1400 BKN010=",
	"METAR EFHK 121250Z NIL=",
}

var tafCorpus = []struct {
	text   string
	format conversion.ValidityFormat
}{
	{"TAF EFHK 121130Z 1212/1312 24005KT 9999 SCT020 TX15/1214Z TNM02/1304Z PROB30 TEMPO 1214/1216 4000 SHRA BECMG 1300/1302 BKN010 FM130600 30010KT 9999 SCT020 RMK NXT FCST BY 18Z=", conversion.ValidityLong},
	{"TAF EFHK 120800Z 121218 24005KT 9999 SCT020 TEMPO 1416 4000 SHRA=", conversion.ValidityShort},
	{"TAF AMD EFHK 121130Z 1212/1312 CNL=", conversion.ValidityLong},
	{"TAF EFHK 121130Z NIL=", conversion.ValidityLong},
}

func TestMETARRoundTrip(t *testing.T) {
	for _, text := range metarCorpus {
		t.Run(text, func(t *testing.T) {
			parsed, err := tacparser.Default().ParseMETAR(text, conversion.Hints{})
			require.NoError(t, err)
			require.Empty(t, parsed.Issues, parsed.Issues.String())

			out, err := serializer.Default().METAR(parsed.Report, conversion.Hints{})
			require.NoError(t, err)
			assert.Equal(t, text, out)

			again, err := tacparser.Default().ParseMETAR(out, conversion.Hints{})
			require.NoError(t, err)
			assert.Equal(t, parsed.Report, again.Report)
		})
	}
}

func TestTAFRoundTrip(t *testing.T) {
	for _, tt := range tafCorpus {
		t.Run(tt.text, func(t *testing.T) {
			hints := conversion.Hints{ValidityFormat: tt.format}
			parsed, err := tacparser.Default().ParseTAF(tt.text, hints)
			require.NoError(t, err)
			require.Empty(t, parsed.Issues, parsed.Issues.String())

			out, err := serializer.Default().TAF(parsed.Report, hints)
			require.NoError(t, err)
			assert.Equal(t, tt.text, out)

			again, err := tacparser.Default().ParseTAF(out, hints)
			require.NoError(t, err)
			assert.Equal(t, parsed.Report, again.Report)
		})
	}
}

func TestSerializeValidityFormat(t *testing.T) {
	parsed, err := tacparser.Default().ParseTAF(tafCorpus[0].text, conversion.Hints{})
	require.NoError(t, err)

	out, err := serializer.Default().TAF(parsed.Report, conversion.Hints{ValidityFormat: conversion.ValidityShort})
	require.NoError(t, err)
	assert.Contains(t, out, "EFHK 121130Z 121212 24005KT")
	assert.Contains(t, out, "PROB30 TEMPO 1416 4000")
	assert.Contains(t, out, "FM0600 30010KT")
}

func TestSerializeErrors(t *testing.T) {
	valid := func() *model.METAR {
		res, err := tacparser.Default().ParseMETAR(metarCorpus[0], conversion.Hints{})
		require.NoError(t, err)
		return res.Report
	}

	t.Run("not configured", func(t *testing.T) {
		_, err := serializer.New(nil).METAR(valid(), conversion.Hints{})
		assert.ErrorIs(t, err, conversion.ErrNotConfigured)
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := serializer.New(registry.New()).METAR(valid(), conversion.Hints{})
		var se *conversion.SerializationError
		require.ErrorAs(t, err, &se)
		assert.True(t, errors.Is(err, registry.ErrNoReconstructor))
	})

	t.Run("unsupported temperature unit", func(t *testing.T) {
		m := valid()
		m.Temperatures.Air.UOM = "K"
		_, err := serializer.Default().METAR(m, conversion.Hints{})
		var se *conversion.SerializationError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "AIR_DEWPOINT_TEMPERATURE", se.Token)
	})

	t.Run("NOSIG with trends", func(t *testing.T) {
		m := valid()
		m.Trends = []model.Trend{{Type: model.TrendBecoming}}
		_, err := serializer.Default().METAR(m, conversion.Hints{})
		var se *conversion.SerializationError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("nil report", func(t *testing.T) {
		_, err := serializer.Default().TAF(nil, conversion.Hints{})
		var se *conversion.SerializationError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("unknown report type", func(t *testing.T) {
		_, err := serializer.Default().Report("METAR", conversion.Hints{})
		assert.Error(t, err)
	})
}

func TestSerializeSequenceIdentities(t *testing.T) {
	res, err := tacparser.Default().ParseMETAR(metarCorpus[3], conversion.Hints{})
	require.NoError(t, err)

	seq, err := serializer.Default().METARSequence(res.Report, conversion.Hints{})
	require.NoError(t, err)
	require.Equal(t, 11, seq.Len())
	assert.Equal(t, "METAR_START", seq.First().Identity().String())
	assert.Equal(t, "END_TOKEN", seq.Last().Identity().String())
	assert.Equal(t, "TREND_TIME_GROUP", seq.At(8).Identity().String())
}
