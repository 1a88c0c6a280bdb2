package tokens

import (
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/registry"
)

// keyword is a rule for a fixed word such as METAR, NIL or CAVOK. The first
// word is the one written on reconstruction.
type keyword struct {
	base
	words   []string
	applies func(ctx *registry.Context) bool
	emit    func(ctx *registry.ReconstructContext) bool
}

func (k *keyword) QuickCheck(token string) bool {
	for _, w := range k.words {
		if token == w {
			return true
		}
	}
	return false
}

func (k *keyword) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if k.applies != nil && !k.applies(ctx) {
		return lexeme.Classification{}, false
	}
	return lexeme.Recognized(k.identity, nil), true
}

func (k *keyword) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if !k.emit(ctx) {
		return nil, nil
	}
	return k.lex(k.words[0]), nil
}

func atStart(ctx *registry.Context) bool { return ctx.Index() == 0 }

func isMETAR(c *registry.ReconstructContext) bool {
	return c.METAR != nil && c.METAR.ReportKind() != model.KindSPECI
}

func isSPECI(c *registry.ReconstructContext) bool {
	return c.METAR != nil && c.METAR.ReportKind() == model.KindSPECI
}

func init() {
	register(
		&keyword{
			base:    base{name: "metar_start", identity: lexeme.MetarStart, priority: prioStart},
			words:   []string{"METAR"},
			applies: atStart,
			emit:    isMETAR,
		},
		&keyword{
			base:    base{name: "speci_start", identity: lexeme.SpeciStart, priority: prioStart},
			words:   []string{"SPECI"},
			applies: atStart,
			emit:    isSPECI,
		},
		&keyword{
			base:    base{name: "taf_start", identity: lexeme.TafStart, priority: prioStart},
			words:   []string{"TAF"},
			applies: atStart,
			emit:    func(c *registry.ReconstructContext) bool { return c.TAF != nil },
		},
		&keyword{
			base:  base{name: "correction", identity: lexeme.Correction, priority: prioStatus},
			words: []string{"COR"},
			applies: func(c *registry.Context) bool {
				return c.PrevIs(lexeme.MetarStart, lexeme.SpeciStart, lexeme.TafStart, lexeme.Amendment)
			},
			emit: func(c *registry.ReconstructContext) bool {
				return c.METAR != nil && c.METAR.Correction || c.TAF != nil && c.TAF.Correction
			},
		},
		&keyword{
			base:  base{name: "amendment", identity: lexeme.Amendment, priority: prioStatus},
			words: []string{"AMD"},
			applies: func(c *registry.Context) bool {
				return c.PrevIs(lexeme.TafStart, lexeme.Correction)
			},
			emit: func(c *registry.ReconstructContext) bool { return c.TAF != nil && c.TAF.Amendment },
		},
		&keyword{
			base:  base{name: "nil", identity: lexeme.Nil, priority: prioReportStatus},
			words: []string{"NIL"},
			applies: func(c *registry.Context) bool {
				return c.PrevIs(lexeme.AerodromeDesignator, lexeme.IssueTime, lexeme.ValidTime)
			},
			emit: func(c *registry.ReconstructContext) bool {
				return c.METAR != nil && c.METAR.Missing || c.TAF != nil && c.TAF.Missing
			},
		},
		&keyword{
			base:  base{name: "automated", identity: lexeme.Automated, priority: prioReportStatus},
			words: []string{"AUTO"},
			applies: func(c *registry.Context) bool {
				return !c.IsTAF() && c.PrevIs(lexeme.IssueTime)
			},
			emit: func(c *registry.ReconstructContext) bool { return c.METAR != nil && c.METAR.Automated },
		},
		&keyword{
			base:  base{name: "cancellation", identity: lexeme.Cancellation, priority: prioReportStatus},
			words: []string{"CNL"},
			applies: func(c *registry.Context) bool {
				return c.PrevIs(lexeme.ValidTime)
			},
			emit: func(c *registry.ReconstructContext) bool { return c.TAF != nil && c.TAF.Cancelled },
		},
		&keyword{
			base:    base{name: "cavok", identity: lexeme.Cavok, priority: prioField},
			words:   []string{"CAVOK"},
			applies: afterHeader,
			emit:    func(c *registry.ReconstructContext) bool { return c.Conditions != nil && c.Conditions.CAVOK },
		},
		&keyword{
			base:    base{name: "no_significant_weather", identity: lexeme.NoSignificantWeather, priority: prioField},
			words:   []string{"NSW"},
			applies: afterHeader,
			emit: func(c *registry.ReconstructContext) bool {
				return c.InSection() && c.Conditions.NoSignificantWeather
			},
		},
		&keyword{
			base:    base{name: "snow_closure", identity: lexeme.SnowClosure, priority: prioField},
			words:   []string{"R/SNOCLO", "SNOCLO"},
			applies: afterHeader,
			emit:    func(c *registry.ReconstructContext) bool { return c.METAR != nil && c.METAR.SnowClosure },
		},
		&keyword{
			base:  base{name: "remarks_start", identity: lexeme.RemarksStart, priority: prioStart},
			words: []string{"RMK"},
			applies: func(c *registry.Context) bool {
				return c.Index() > 0
			},
			emit: func(c *registry.ReconstructContext) bool {
				return c.METAR != nil && len(c.METAR.Remarks) > 0 || c.TAF != nil && len(c.TAF.Remarks) > 0
			},
		},
		&keyword{
			base:  base{name: "end", identity: lexeme.EndToken, priority: prioEnd},
			words: []string{lexeme.EndMarker},
			emit:  func(*registry.ReconstructContext) bool { return true },
		},
	)
}

// afterHeader holds for tokens past the aerodrome designator, where the
// weather field tokens live.
func afterHeader(ctx *registry.Context) bool {
	return ctx.Antecedent(lexeme.AerodromeDesignator) != nil
}
