package tokens

import (
	"tac_codec/internal/lexeme"
	"tac_codec/internal/registry"
)

// remark takes every token after RMK verbatim, up to the end marker.
type remark struct{ base }

func init() {
	register(&remark{base{name: "remark", identity: lexeme.Remark, priority: prioRemark}})
}

func (r *remark) QuickCheck(token string) bool { return token != lexeme.EndMarker }

func (r *remark) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !ctx.PrevIs(lexeme.RemarksStart, lexeme.Remark) {
		return lexeme.Classification{}, false
	}
	return lexeme.Recognized(lexeme.Remark, values{lexeme.Value: ctx.Token()}), true
}

func (r *remark) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	var remarks []string
	switch {
	case ctx.METAR != nil:
		remarks = ctx.METAR.Remarks
	case ctx.TAF != nil:
		remarks = ctx.TAF.Remarks
	}
	return r.lex(remarks...), nil
}
