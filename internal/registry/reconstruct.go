package registry

import (
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
)

// ReconstructContext is what a reconstructor sees: the report being
// serialized and the section currently being written. Conditions is the
// scope for weather field tokens (the report body, a trend or a change
// group); Trend and Change are set inside those sections only.
type ReconstructContext struct {
	Kind  model.Kind
	Hints conversion.Hints

	METAR *model.METAR
	TAF   *model.TAF

	Conditions *model.Conditions
	Trend      *model.Trend
	Change     *model.TAFChangeForecast
}

// InSection reports whether a trend or change group is being written.
func (c *ReconstructContext) InSection() bool {
	return c.Trend != nil || c.Change != nil
}

// ForMETAR returns a context for the body of m.
func ForMETAR(m *model.METAR, hints conversion.Hints) *ReconstructContext {
	return &ReconstructContext{Kind: m.ReportKind(), Hints: hints, METAR: m, Conditions: &m.Conditions}
}

// ForTAF returns a context for the body of t.
func ForTAF(t *model.TAF, hints conversion.Hints) *ReconstructContext {
	return &ReconstructContext{Kind: model.KindTAF, Hints: hints, TAF: t, Conditions: &t.Conditions}
}

// WithTrend returns a copy scoped to trend tr.
func (c *ReconstructContext) WithTrend(tr *model.Trend) *ReconstructContext {
	out := *c
	out.Trend, out.Change = tr, nil
	out.Conditions = &tr.Conditions
	return &out
}

// WithChange returns a copy scoped to change group ch.
func (c *ReconstructContext) WithChange(ch *model.TAFChangeForecast) *ReconstructContext {
	out := *c
	out.Change, out.Trend = ch, nil
	out.Conditions = &ch.Conditions
	return &out
}
