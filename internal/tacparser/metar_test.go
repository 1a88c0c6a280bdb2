package tacparser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexer"
	"tac_codec/internal/model"
	"tac_codec/internal/tacparser"
	_ "tac_codec/internal/tokens"
)

// hasIssue reports whether issues contain one of kind whose message
// contains text.
func hasIssue(issues conversion.Issues, kind conversion.IssueKind, text string) bool {
	for _, is := range issues.OfKind(kind) {
		if strings.Contains(is.Message, text) {
			return true
		}
	}
	return false
}

func parseMETAR(t *testing.T, text string, hints conversion.Hints) *conversion.Result[*model.METAR] {
	t.Helper()
	res, err := tacparser.Default().ParseMETAR(text, hints)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	return res
}

func TestParseMETAR(t *testing.T) {
	res := parseMETAR(t, "METAR EFHK 121250Z AUTO 24005G15KT 200V280 9999 R04L/P1500N -SHRA FEW020CB BKN040 12/M02 Q1013 RERA WS R04L W15/S4 R04L/451293 TEMPO FM1300 TL1400 4000 SHRA RMK AO2=", conversion.Hints{})
	require.Empty(t, res.Issues, res.Issues.String())
	assert.Equal(t, conversion.StatusSuccess, res.Status())

	m := res.Report
	assert.Equal(t, model.KindMETAR, m.Kind)
	assert.True(t, m.Automated)
	assert.Equal(t, "EFHK", m.Aerodrome.Designator)
	assert.Equal(t, "Finland", m.Aerodrome.Country)
	assert.Equal(t, "12T12:50Z", m.IssueTime.String())

	require.NotNil(t, m.SurfaceWind)
	assert.Equal(t, 240.0, m.SurfaceWind.MeanDirection.Value)
	assert.Equal(t, model.Measure(5, model.UnitKnots), m.SurfaceWind.MeanSpeed)
	assert.Equal(t, 15.0, m.SurfaceWind.Gust.Value)
	assert.Equal(t, 200.0, m.SurfaceWind.ExtremeCounterClockwise.Value)
	assert.Equal(t, 280.0, m.SurfaceWind.ExtremeClockwise.Value)

	require.NotNil(t, m.Visibility)
	assert.Equal(t, model.Measure(10000, model.UnitMetres), m.Visibility.Prevailing)
	assert.Equal(t, model.OperatorAbove, m.Visibility.Operator)

	require.Len(t, m.RunwayVisualRanges, 1)
	assert.Equal(t, "04L", m.RunwayVisualRanges[0].Runway)
	assert.Equal(t, model.TendencyNoChange, m.RunwayVisualRanges[0].Tendency)

	require.Len(t, m.Weather, 1)
	assert.Equal(t, "-SHRA", m.Weather[0].Code)
	assert.NotEmpty(t, m.Weather[0].Description)

	require.NotNil(t, m.Clouds)
	require.Len(t, m.Clouds.Layers, 2)
	assert.Equal(t, "CB", m.Clouds.Layers[0].Type)
	assert.Equal(t, 4000.0, m.Clouds.Layers[1].Base.Value)

	assert.Equal(t, 12.0, m.Temperatures.Air.Value)
	assert.Equal(t, -2.0, m.Temperatures.Dewpoint.Value)
	assert.Equal(t, model.Measure(1013, model.UnitHectopascal), *m.QNH)
	assert.Equal(t, "RA", m.RecentWeather[0].Code)
	assert.Equal(t, []string{"04L"}, m.WindShear.Runways)
	assert.Equal(t, 4, *m.SeaState.State)

	require.Len(t, m.RunwayStates, 1)
	assert.Equal(t, "DRY_SNOW", m.RunwayStates[0].DepositDescription)

	require.Len(t, m.Trends, 1)
	tr := m.Trends[0]
	assert.Equal(t, model.TrendTemporary, tr.Type)
	assert.Equal(t, "--T13:00", tr.From.String())
	assert.Equal(t, "--T14:00", tr.Until.String())
	assert.Equal(t, 4000.0, tr.Visibility.Prevailing.Value)
	assert.Equal(t, "SHRA", tr.Weather[0].Code)

	assert.Equal(t, []string{"AO2"}, m.Remarks)
}

func TestParseMETARIssues(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind conversion.IssueKind
		msg  string
	}{
		{"data after NIL", "METAR EFHK 121250Z NIL 24005KT=", conversion.LogicalError, "data after NIL"},
		{"PROB in trend", "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013 PROB30 TEMPO 4000=", conversion.LogicalError, "PROB"},
		{"missing QNH", "METAR EFHK 121250Z 24005KT 9999 12/08=", conversion.MissingData, "QNH"},
		{"missing wind", "METAR EFHK 121250Z 9999 12/08 Q1013=", conversion.MissingData, "surface wind"},
		{"weather after cloud", "METAR EFHK 121250Z 24005KT 9999 FEW020 -RA 12/08 Q1013=", conversion.LogicalError, "unexpected WEATHER"},
		{"missing end marker", "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013", conversion.MissingData, "end marker"},
		{"unrecognized token", "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013 XYZZY=", conversion.SyntaxError, "unrecognized"},
		{"out of range time", "METAR EFHK 122650Z 24005KT 9999 12/08 Q1013=", conversion.SyntaxError, "hour 26"},
		{"NOSIG with trend", "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013 BECMG 4000 NOSIG=", conversion.LogicalError, "NOSIG"},
		{"CAVOK with cloud", "METAR EFHK 121250Z 24005KT CAVOK FEW020 12/08 Q1013=", conversion.LogicalError, "CAVOK"},
		{"no start token", "EFHK 121250Z 24005KT 9999 12/08 Q1013=", conversion.MissingData, "report type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseMETAR(t, tt.text, conversion.Hints{})
			assert.Equal(t, conversion.StatusWithIssues, res.Status())
			assert.True(t, hasIssue(res.Issues, tt.kind, tt.msg), "want %s %q in %s", tt.kind, tt.msg, res.Issues)
		})
	}
}

func TestParseMETARNil(t *testing.T) {
	res := parseMETAR(t, "SPECI EFHK 121250Z NIL=", conversion.Hints{})
	assert.Empty(t, res.Issues)
	assert.True(t, res.Report.Missing)
	assert.Equal(t, model.KindSPECI, res.Report.Kind)
}

func TestParseMETARNoSig(t *testing.T) {
	res := parseMETAR(t, "METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013 NOSIG=", conversion.Hints{})
	assert.Empty(t, res.Issues)
	assert.True(t, res.Report.CAVOK)
	assert.True(t, res.Report.NoSignificantChanges)
}

func TestParseMETARFailures(t *testing.T) {
	res := parseMETAR(t, "TAF EFHK 121130Z 1212/1312 24005KT 9999=", conversion.Hints{})
	assert.True(t, res.Failed)
	assert.Equal(t, conversion.StatusFail, res.Status())

	res = parseMETAR(t, "   ", conversion.Hints{})
	assert.True(t, res.Failed)

	_, err := tacparser.New(nil).ParseMETAR("METAR EFHK 121250Z=", conversion.Hints{})
	assert.ErrorIs(t, err, conversion.ErrNotConfigured)

	_, err = tacparser.New(lexer.New(nil)).ParseMETAR("METAR EFHK 121250Z=", conversion.Hints{})
	assert.ErrorIs(t, err, conversion.ErrNotConfigured)
}

func TestParseMETARCompletesTimes(t *testing.T) {
	hints := conversion.Hints{
		CompleteTimes: true,
		ReferenceTime: time.Date(2024, 3, 12, 13, 5, 0, 0, time.UTC),
	}
	res := parseMETAR(t, "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013 TEMPO FM1300 TL1400 4000=", hints)
	require.Empty(t, res.Issues, res.Issues.String())

	issued, ok := res.Report.IssueTime.Complete()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 12, 12, 50, 0, 0, time.UTC), issued)

	from, _ := res.Report.Trends[0].From.Complete()
	until, _ := res.Report.Trends[0].Until.Complete()
	assert.Equal(t, time.Date(2024, 3, 12, 13, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC), until)
}

func TestParseMETARCompletionWithoutReference(t *testing.T) {
	res := parseMETAR(t, "METAR EFHK 121250Z 24005KT 9999 12/08 Q1013=", conversion.Hints{CompleteTimes: true})
	assert.True(t, hasIssue(res.Issues, conversion.Other, "reference time"))
}
