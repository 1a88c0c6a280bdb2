package tokens_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/partialtime"
	"tac_codec/internal/registry"
)

func reconstruct(t *testing.T, id lexeme.Identity, ctx *registry.ReconstructContext) []string {
	t.Helper()
	lexemes, err := registry.Default().Reconstruct(id, ctx)
	require.NoError(t, err)
	out := make([]string, len(lexemes))
	for i, l := range lexemes {
		assert.Equal(t, id, l.Identity())
		out[i] = l.TACToken()
	}
	return out
}

func instant(day, hour, minute int) *partialtime.Instant {
	in := partialtime.PartialInstant(partialtime.MustNew(day, hour, minute))
	return &in
}

func TestReconstructTemperatureUnsupportedUnit(t *testing.T) {
	m := &model.METAR{
		Temperatures: &model.AirDewpoint{
			Air:      model.MeasureRef(285.15, "K"),
			Dewpoint: model.MeasureRef(8, model.UnitCelsius),
		},
	}
	_, err := registry.Default().Reconstruct(lexeme.AirDewpointTemperature, registry.ForMETAR(m, conversion.Hints{}))
	require.Error(t, err)

	var serr *conversion.SerializationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "AIR_DEWPOINT_TEMPERATURE", serr.Token)
	assert.Equal(t, "air temperature", serr.Field)
}

func TestReconstructMETARFields(t *testing.T) {
	m := &model.METAR{
		Aerodrome: model.Aerodrome{Designator: "EFHK"},
		IssueTime: instant(12, 12, 50),
		Conditions: model.Conditions{
			SurfaceWind: &model.SurfaceWind{
				MeanDirection:           model.MeasureRef(240, model.UnitDegrees),
				MeanSpeed:               model.Measure(5, model.UnitKnots),
				Gust:                    model.MeasureRef(15, model.UnitKnots),
				ExtremeCounterClockwise: model.MeasureRef(200, model.UnitDegrees),
				ExtremeClockwise:        model.MeasureRef(280, model.UnitDegrees),
			},
			Visibility: &model.HorizontalVisibility{
				Prevailing: model.Measure(10000, model.UnitMetres),
				Operator:   model.OperatorAbove,
			},
			Weather: []model.Weather{{Code: "-SHRA"}},
			Clouds: &model.CloudForecast{Layers: []model.CloudLayer{
				{Amount: model.CoverFew, Base: model.MeasureRef(2000, model.UnitFeet), Type: "CB"},
				{Amount: model.CoverBroken, Base: model.MeasureRef(4000, model.UnitFeet)},
			}},
		},
		Temperatures: &model.AirDewpoint{
			Air:      model.MeasureRef(12, model.UnitCelsius),
			Dewpoint: model.MeasureRef(-0.3, model.UnitCelsius),
		},
		QNH:       model.MeasureRef(29.92, model.UnitInchesMercury),
		WindShear: &model.WindShear{AllRunways: true},
		RunwayVisualRanges: []model.RunwayVisualRange{{
			Runway:   "04L",
			Value:    model.Measure(1500, model.UnitMetres),
			Operator: model.OperatorAbove,
			Tendency: model.TendencyNoChange,
		}},
		RunwayStates:         []model.RunwayState{{Runway: "04L", Deposit: "4", Contamination: "5", Depth: "12", BrakingAction: "93"}},
		NoSignificantChanges: true,
	}
	ctx := registry.ForMETAR(m, conversion.Hints{})

	tests := []struct {
		id   lexeme.Identity
		want []string
	}{
		{lexeme.MetarStart, []string{"METAR"}},
		{lexeme.SpeciStart, []string{}},
		{lexeme.AerodromeDesignator, []string{"EFHK"}},
		{lexeme.IssueTime, []string{"121250"}},
		{lexeme.SurfaceWind, []string{"24005G15KT"}},
		{lexeme.VariableWindDirection, []string{"200V280"}},
		{lexeme.HorizontalVisibility, []string{"9999"}},
		{lexeme.RunwayVisualRange, []string{"R04L/P1500N"}},
		{lexeme.Weather, []string{"-SHRA"}},
		{lexeme.Cloud, []string{"FEW020CB", "BKN040"}},
		{lexeme.AirDewpointTemperature, []string{"12/M00"}},
		{lexeme.AirPressureQNH, []string{"A2992"}},
		{lexeme.WindShear, []string{"WS", "ALL", "RWY"}},
		{lexeme.RunwayState, []string{"R04L/451293"}},
		{lexeme.TrendChangeIndicator, []string{"NOSIG"}},
		{lexeme.EndToken, []string{"="}},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, reconstruct(t, tt.id, ctx))
		})
	}
}

func TestReconstructIssueTimeZone(t *testing.T) {
	zoned := partialtime.PartialInstant(partialtime.MustNew(12, 12, 50).WithZone(time.UTC))
	m := &model.METAR{IssueTime: &zoned}
	assert.Equal(t, []string{"121250Z"}, reconstruct(t, lexeme.IssueTime, registry.ForMETAR(m, conversion.Hints{})))
}

func TestReconstructTAFPeriods(t *testing.T) {
	validity := partialtime.Period{Start: instant(12, 12, partialtime.Absent), End: instant(13, 12, partialtime.Absent)}
	tempo := model.TAFChangeForecast{
		Type:   model.ChangeProb30Temporary,
		Period: partialtime.Period{Start: instant(12, 14, partialtime.Absent), End: instant(12, 16, partialtime.Absent)},
	}
	from := model.TAFChangeForecast{
		Type:   model.ChangeFrom,
		Period: partialtime.Period{Start: instant(13, 6, 0)},
	}
	taf := &model.TAF{
		Aerodrome:       model.Aerodrome{Designator: "EFHK"},
		ValidityTime:    &validity,
		ChangeForecasts: []model.TAFChangeForecast{tempo, from},
	}

	tests := []struct {
		name   string
		format conversion.ValidityFormat
		id     lexeme.Identity
		change *model.TAFChangeForecast
		want   []string
	}{
		{"long validity", conversion.ValidityLong, lexeme.ValidTime, nil, []string{"1212/1312"}},
		{"short validity", conversion.ValidityShort, lexeme.ValidTime, nil, []string{"121212"}},
		{"prob tempo indicator", conversion.ValidityLong, lexeme.TafForecastChangeIndicator, &tempo, []string{"PROB30", "TEMPO"}},
		{"long change period", conversion.ValidityLong, lexeme.TafChangeForecastTimeGroup, &tempo, []string{"1214/1216"}},
		{"short change period", conversion.ValidityShort, lexeme.TafChangeForecastTimeGroup, &tempo, []string{"1416"}},
		{"long from", conversion.ValidityLong, lexeme.TafForecastChangeIndicator, &from, []string{"FM130600"}},
		{"short from", conversion.ValidityShort, lexeme.TafForecastChangeIndicator, &from, []string{"FM0600"}},
		{"no time group for from", conversion.ValidityLong, lexeme.TafChangeForecastTimeGroup, &from, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := registry.ForTAF(taf, conversion.Hints{ValidityFormat: tt.format})
			if tt.change != nil {
				ctx = ctx.WithChange(tt.change)
			}
			assert.Equal(t, tt.want, reconstruct(t, tt.id, ctx))
		})
	}
}

func TestReconstructTrend(t *testing.T) {
	trend := model.Trend{
		Type:  model.TrendTemporary,
		From:  instant(partialtime.Absent, 13, 0),
		Until: instant(partialtime.Absent, 14, 30),
		Conditions: model.Conditions{
			Visibility: &model.HorizontalVisibility{Prevailing: model.Measure(0.5, model.UnitStatuteMiles)},
		},
	}
	m := &model.METAR{Trends: []model.Trend{trend}}
	ctx := registry.ForMETAR(m, conversion.Hints{}).WithTrend(&m.Trends[0])

	assert.Equal(t, []string{"TEMPO"}, reconstruct(t, lexeme.TrendChangeIndicator, ctx))
	assert.Equal(t, []string{"FM1300", "TL1430"}, reconstruct(t, lexeme.TrendTimeGroup, ctx))
	assert.Equal(t, []string{"1/2SM"}, reconstruct(t, lexeme.HorizontalVisibility, ctx))
	assert.Equal(t, []string{}, reconstruct(t, lexeme.AirPressureQNH, ctx))
}

func TestReconstructFailures(t *testing.T) {
	tests := []struct {
		name string
		id   lexeme.Identity
		m    *model.METAR
	}{
		{"bad designator", lexeme.AerodromeDesignator, &model.METAR{Aerodrome: model.Aerodrome{Designator: "HEL"}}},
		{"missing issue time", lexeme.IssueTime, &model.METAR{}},
		{"wind in feet", lexeme.SurfaceWind, &model.METAR{Conditions: model.Conditions{SurfaceWind: &model.SurfaceWind{
			MeanDirection: model.MeasureRef(240, model.UnitDegrees),
			MeanSpeed:     model.Measure(5, model.UnitFeet),
		}}}},
		{"gust unit differs", lexeme.SurfaceWind, &model.METAR{Conditions: model.Conditions{SurfaceWind: &model.SurfaceWind{
			MeanDirection: model.MeasureRef(240, model.UnitDegrees),
			MeanSpeed:     model.Measure(5, model.UnitKnots),
			Gust:          model.MeasureRef(10, model.UnitMetresPerSec),
		}}}},
		{"fractional visibility in metres", lexeme.HorizontalVisibility, &model.METAR{Conditions: model.Conditions{
			Visibility: &model.HorizontalVisibility{Prevailing: model.Measure(1200.5, model.UnitMetres)},
		}}},
		{"unknown weather", lexeme.Weather, &model.METAR{Conditions: model.Conditions{Weather: []model.Weather{{Code: "XX"}}}}},
		{"cloud base in metres", lexeme.Cloud, &model.METAR{Conditions: model.Conditions{Clouds: &model.CloudForecast{
			Layers: []model.CloudLayer{{Amount: model.CoverFew, Base: model.MeasureRef(600, model.UnitMetres)}},
		}}}},
		{"qnh in millibar", lexeme.AirPressureQNH, &model.METAR{QNH: model.MeasureRef(1013, "mbar")}},
		{"sea state without state", lexeme.SeaState, &model.METAR{SeaState: &model.SeaState{}}},
		{"nosig with trends", lexeme.TrendChangeIndicator, &model.METAR{
			NoSignificantChanges: true,
			Trends:               []model.Trend{{Type: model.TrendBecoming}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Default().Reconstruct(tt.id, registry.ForMETAR(tt.m, conversion.Hints{}))
			var serr *conversion.SerializationError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.id.String(), serr.Token)
		})
	}
}
