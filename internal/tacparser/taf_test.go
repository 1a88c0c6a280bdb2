package tacparser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexer"
	"tac_codec/internal/model"
	"tac_codec/internal/tacparser"
)

func parseTAF(t *testing.T, text string, hints conversion.Hints) *conversion.Result[*model.TAF] {
	t.Helper()
	res, err := tacparser.Default().ParseTAF(text, hints)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	return res
}

func TestParseTAF(t *testing.T) {
	res := parseTAF(t, "TAF AMD EFHK 121130Z 1212/1312 24005KT CAVOK TX15/1214Z TNM02/1304Z PROB30 TEMPO 1214/1216 4000 SHRA BECMG 1300/1302 BKN010 FM130600 30010KT 9999 SCT020 RMK NXT FCST BY 18Z=", conversion.Hints{})
	require.Empty(t, res.Issues, res.Issues.String())

	taf := res.Report
	assert.True(t, taf.Amendment)
	assert.Equal(t, "EFHK", taf.Aerodrome.Designator)
	assert.Equal(t, "12T11:30Z", taf.IssueTime.String())
	require.NotNil(t, taf.ValidityTime)
	assert.Equal(t, "12T12:--", taf.ValidityTime.Start.String())
	assert.Equal(t, "13T12:--", taf.ValidityTime.End.String())

	assert.True(t, taf.CAVOK)
	assert.Nil(t, taf.Visibility)
	require.Len(t, taf.Temperatures, 2)
	assert.True(t, taf.Temperatures[0].Maximum)
	assert.Equal(t, 15.0, taf.Temperatures[0].Value.Value)
	assert.False(t, taf.Temperatures[1].Maximum)
	assert.Equal(t, -2.0, taf.Temperatures[1].Value.Value)

	require.Len(t, taf.ChangeForecasts, 3)

	prob := taf.ChangeForecasts[0]
	assert.Equal(t, model.ChangeProb30Temporary, prob.Type)
	assert.Equal(t, "12T14:--", prob.Period.Start.String())
	assert.Equal(t, "12T16:--", prob.Period.End.String())
	assert.Equal(t, 4000.0, prob.Visibility.Prevailing.Value)
	assert.Equal(t, "SHRA", prob.Weather[0].Code)

	becmg := taf.ChangeForecasts[1]
	assert.Equal(t, model.ChangeBecoming, becmg.Type)
	require.NotNil(t, becmg.Clouds)
	assert.Equal(t, model.CoverBroken, becmg.Clouds.Layers[0].Amount)

	fm := taf.ChangeForecasts[2]
	assert.Equal(t, model.ChangeFrom, fm.Type)
	assert.Equal(t, "13T06:00", fm.Period.Start.String())
	assert.Nil(t, fm.Period.End)
	assert.Equal(t, 300.0, fm.SurfaceWind.MeanDirection.Value)

	assert.Equal(t, []string{"NXT", "FCST", "BY", "18Z"}, taf.Remarks)
}

func TestParseTAFCancelledAndNil(t *testing.T) {
	res := parseTAF(t, "TAF AMD EFHK 121130Z 1212/1312 CNL=", conversion.Hints{})
	assert.Empty(t, res.Issues, res.Issues.String())
	assert.True(t, res.Report.Cancelled)

	res = parseTAF(t, "TAF EFHK 121130Z NIL=", conversion.Hints{})
	assert.Empty(t, res.Issues, res.Issues.String())
	assert.True(t, res.Report.Missing)
	assert.Nil(t, res.Report.ValidityTime)
}

func TestParseTAFShortValidity(t *testing.T) {
	res := parseTAF(t, "TAF EFHK 120800Z 1218 24005KT 9999 SCT020 TEMPO 1416 4000 SHRA=", conversion.Hints{})
	require.Empty(t, res.Issues, res.Issues.String())
	assert.Equal(t, "--T12:--", res.Report.ValidityTime.Start.String())
	assert.Equal(t, "--T18:--", res.Report.ValidityTime.End.String())

	require.Len(t, res.Report.ChangeForecasts, 1)
	assert.Equal(t, "--T14:--", res.Report.ChangeForecasts[0].Period.Start.String())
}

func TestParseTAFIssues(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind conversion.IssueKind
		msg  string
	}{
		{"PROB before BECMG", "TAF EFHK 121130Z 1212/1312 24005KT 9999 SCT020 PROB30 BECMG 1214/1216 4000=", conversion.LogicalError, "PROB can only qualify TEMPO"},
		{"missing validity", "TAF EFHK 121130Z 24005KT 9999=", conversion.MissingData, "validity period"},
		{"empty change group", "TAF EFHK 121130Z 1212/1312 24005KT 9999 SCT020 BECMG 1214/1216=", conversion.MissingData, "without forecast conditions"},
		{"data after CNL", "TAF AMD EFHK 121130Z 1212/1312 CNL 24005KT=", conversion.LogicalError, "data after CNL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseTAF(t, tt.text, conversion.Hints{})
			assert.Equal(t, conversion.StatusWithIssues, res.Status())
			assert.True(t, hasIssue(res.Issues, tt.kind, tt.msg), "want %s %q in %s", tt.kind, tt.msg, res.Issues)
		})
	}
}

func TestParseTAFFailures(t *testing.T) {
	res := parseTAF(t, "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013=", conversion.Hints{})
	assert.True(t, res.Failed)

	_, err := tacparser.New(nil).ParseTAF("TAF EFHK 121130Z NIL=", conversion.Hints{})
	assert.ErrorIs(t, err, conversion.ErrNotConfigured)
}

func TestParseTAFCompletesAcrossMonthEnd(t *testing.T) {
	hints := conversion.Hints{
		CompleteTimes: true,
		ReferenceTime: time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC),
	}
	res := parseTAF(t, "TAF EFHK 311100Z 3112/0112 24005KT 9999 SCT020 BECMG 0100/0102 BKN010=", hints)
	require.Empty(t, res.Issues, res.Issues.String())

	at := func(in interface{ Complete() (time.Time, bool) }) time.Time {
		t.Helper()
		v, ok := in.Complete()
		require.True(t, ok)
		return v
	}
	taf := res.Report
	assert.Equal(t, time.Date(2024, 1, 31, 11, 0, 0, 0, time.UTC), at(taf.IssueTime))
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), at(taf.ValidityTime.Start))
	assert.Equal(t, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), at(taf.ValidityTime.End))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), at(taf.ChangeForecasts[0].Period.Start))
	assert.Equal(t, time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC), at(taf.ChangeForecasts[0].Period.End))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		text string
		want model.Kind
	}{
		{"METAR EFHK 121250Z NIL=", model.KindMETAR},
		{"SPECI EFHK 121250Z NIL=", model.KindSPECI},
		{"TAF EFHK 121130Z NIL=", model.KindTAF},
		{"EFHK 121250Z 24005KT=", model.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			seq, err := lexer.Default().Lex(tt.text, conversion.Hints{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tacparser.KindOf(seq))
		})
	}
}
