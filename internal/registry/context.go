package registry

import (
	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
)

// Context is what a classifier sees: the raw token at Index, the already
// classified lexemes before it and the raw tokens after it.
type Context struct {
	seq   *lexeme.Sequence
	index int
	hints conversion.Hints
}

// NewContext returns the context for the lexeme at index in seq.
func NewContext(seq *lexeme.Sequence, index int, hints conversion.Hints) *Context {
	return &Context{seq: seq, index: index, hints: hints}
}

func (c *Context) Token() string           { return c.seq.At(c.index).TACToken() }
func (c *Context) Index() int              { return c.index }
func (c *Context) Hints() conversion.Hints { return c.hints }

// Prev returns the preceding lexeme, or nil at the start.
func (c *Context) Prev() *lexeme.Lexeme {
	if c.index == 0 {
		return nil
	}
	return c.seq.At(c.index - 1)
}

// PrevIdentity returns the identity of the preceding lexeme, None at the start.
func (c *Context) PrevIdentity() lexeme.Identity {
	if p := c.Prev(); p != nil {
		return p.Identity()
	}
	return lexeme.None
}

// PrevIs reports whether the preceding lexeme has one of ids.
func (c *Context) PrevIs(ids ...lexeme.Identity) bool {
	return c.Prev().Is(ids...)
}

// Antecedent returns the nearest earlier lexeme whose identity is in ids.
func (c *Context) Antecedent(ids ...lexeme.Identity) *lexeme.Lexeme {
	for i := c.index - 1; i >= 0; i-- {
		if l := c.seq.At(i); l.Is(ids...) {
			return l
		}
	}
	return nil
}

// NextToken returns the raw text of the following token, or "".
func (c *Context) NextToken() string {
	if c.index+1 >= c.seq.Len() {
		return ""
	}
	return c.seq.At(c.index + 1).TACToken()
}

// Kind is the report kind established by the first lexeme. A report without
// a start token counts as a TAF once a validity period has been seen, and as
// a METAR before that.
func (c *Context) Kind() model.Kind {
	if c.index > 0 {
		switch c.seq.First().Identity() {
		case lexeme.MetarStart:
			return model.KindMETAR
		case lexeme.SpeciStart:
			return model.KindSPECI
		case lexeme.TafStart:
			return model.KindTAF
		}
	}
	if c.Antecedent(lexeme.ValidTime) != nil {
		return model.KindTAF
	}
	return model.KindUnknown
}

// IsTAF reports whether the report is (or looks like) a TAF.
func (c *Context) IsTAF() bool {
	return c.Kind() == model.KindTAF
}
