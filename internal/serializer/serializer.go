// Package serializer writes METAR, SPECI and TAF reports back to TAC text
// by running the registered reconstructors in canonical field order.
package serializer

import (
	"errors"
	"fmt"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/registry"
)

// Field order of each report section. The parser reads in the same order.
var (
	metarHeader = []lexeme.Identity{
		lexeme.MetarStart, lexeme.SpeciStart, lexeme.Correction,
		lexeme.AerodromeDesignator, lexeme.IssueTime, lexeme.Nil,
	}
	metarBody = []lexeme.Identity{
		lexeme.Automated,
		lexeme.SurfaceWind, lexeme.VariableWindDirection, lexeme.Cavok, lexeme.HorizontalVisibility,
		lexeme.RunwayVisualRange, lexeme.Weather, lexeme.Cloud,
		lexeme.AirDewpointTemperature, lexeme.AirPressureQNH,
		lexeme.RecentWeather, lexeme.WindShear, lexeme.SeaState, lexeme.RunwayState,
		lexeme.SnowClosure, lexeme.ColorCode,
		// NOSIG; with trends the indicator is written per trend instead.
		lexeme.TrendChangeIndicator,
	}
	trendSection = []lexeme.Identity{
		lexeme.TrendChangeIndicator, lexeme.TrendTimeGroup,
		lexeme.SurfaceWind, lexeme.VariableWindDirection, lexeme.Cavok, lexeme.HorizontalVisibility,
		lexeme.Weather, lexeme.NoSignificantWeather, lexeme.Cloud, lexeme.ColorCode,
	}

	tafHeader = []lexeme.Identity{
		lexeme.TafStart, lexeme.Amendment, lexeme.Correction,
		lexeme.AerodromeDesignator, lexeme.IssueTime, lexeme.Nil, lexeme.ValidTime, lexeme.Cancellation,
	}
	tafBody = []lexeme.Identity{
		lexeme.SurfaceWind, lexeme.VariableWindDirection, lexeme.Cavok, lexeme.HorizontalVisibility,
		lexeme.Weather, lexeme.Cloud, lexeme.MinMaxTemperature,
	}
	changeSection = []lexeme.Identity{
		lexeme.TafForecastChangeIndicator, lexeme.TafChangeForecastTimeGroup,
		lexeme.SurfaceWind, lexeme.VariableWindDirection, lexeme.Cavok, lexeme.HorizontalVisibility,
		lexeme.Weather, lexeme.NoSignificantWeather, lexeme.Cloud,
	}

	trailer = []lexeme.Identity{lexeme.RemarksStart, lexeme.Remark, lexeme.EndToken}
)

// Serializer writes reports with one registry. Like the parser it keeps no
// per-call state.
type Serializer struct {
	reg *registry.Registry
}

// New returns a serializer using reg. A nil registry gives a serializer
// whose calls fail with conversion.ErrNotConfigured.
func New(reg *registry.Registry) *Serializer {
	return &Serializer{reg: reg}
}

// Default returns a serializer on the default registry.
func Default() *Serializer {
	return New(registry.Default())
}

// writer collects the lexemes of one report.
type writer struct {
	reg *registry.Registry
	out []*lexeme.Lexeme
	err error
}

func (w *writer) write(ctx *registry.ReconstructContext, ids []lexeme.Identity) {
	for _, id := range ids {
		if w.err != nil {
			return
		}
		lx, err := w.reg.Reconstruct(id, ctx)
		if err != nil {
			w.err = wrap(id, err)
			return
		}
		w.out = append(w.out, lx...)
	}
}

func (w *writer) sequence() (*lexeme.Sequence, error) {
	if w.err != nil {
		return nil, w.err
	}
	return lexeme.NewSequence("", w.out)
}

// wrap turns a failure that is not already a SerializationError into one,
// so callers can rely on errors.As for everything but configuration errors.
func wrap(id lexeme.Identity, err error) error {
	var se *conversion.SerializationError
	if errors.As(err, &se) {
		return err
	}
	return &conversion.SerializationError{Token: id.String(), Reason: "reconstruction failed", Err: err}
}

func (s *Serializer) bound() (*registry.Registry, error) {
	if s == nil || s.reg == nil {
		return nil, conversion.ErrNotConfigured
	}
	return s.reg, nil
}

// METARSequence reconstructs m as a lexeme sequence.
func (s *Serializer) METARSequence(m *model.METAR, hints conversion.Hints) (*lexeme.Sequence, error) {
	reg, err := s.bound()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, conversion.Serializationf("METAR", "", "no report")
	}

	w := &writer{reg: reg}
	ctx := registry.ForMETAR(m, hints)
	w.write(ctx, metarHeader)
	if !m.Missing {
		w.write(ctx, metarBody)
		for i := range m.Trends {
			w.write(ctx.WithTrend(&m.Trends[i]), trendSection)
		}
	}
	w.write(ctx, trailer)
	return w.sequence()
}

// TAFSequence reconstructs t as a lexeme sequence.
func (s *Serializer) TAFSequence(t *model.TAF, hints conversion.Hints) (*lexeme.Sequence, error) {
	reg, err := s.bound()
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, conversion.Serializationf("TAF", "", "no report")
	}

	w := &writer{reg: reg}
	ctx := registry.ForTAF(t, hints)
	w.write(ctx, tafHeader)
	if !t.Missing && !t.Cancelled {
		w.write(ctx, tafBody)
		for i := range t.ChangeForecasts {
			w.write(ctx.WithChange(&t.ChangeForecasts[i]), changeSection)
		}
	}
	w.write(ctx, trailer)
	return w.sequence()
}

// METAR writes m as TAC text.
func (s *Serializer) METAR(m *model.METAR, hints conversion.Hints) (string, error) {
	seq, err := s.METARSequence(m, hints)
	if err != nil {
		return "", err
	}
	return seq.TAC(), nil
}

// TAF writes t as TAC text.
func (s *Serializer) TAF(t *model.TAF, hints conversion.Hints) (string, error) {
	seq, err := s.TAFSequence(t, hints)
	if err != nil {
		return "", err
	}
	return seq.TAC(), nil
}

// Report writes a *model.METAR or *model.TAF.
func (s *Serializer) Report(report any, hints conversion.Hints) (string, error) {
	switch r := report.(type) {
	case *model.METAR:
		return s.METAR(r, hints)
	case *model.TAF:
		return s.TAF(r, hints)
	}
	return "", fmt.Errorf("serialize: unsupported report type %T", report)
}
