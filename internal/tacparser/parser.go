// Package tacparser builds METAR, SPECI and TAF reports from classified
// lexeme sequences.
//
// Each report kind is a fixed list of extraction steps. A step searches
// forward with a stop set naming everything that may legally follow its
// field, so a token of the right shape in a later section is never taken.
// Problems become issues on the result; only a missing lexer is an error.
package tacparser

import (
	"errors"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/lexer"
	"tac_codec/internal/model"
)

// Parser parses reports with one lexer. It holds no per-call state and is
// safe for concurrent use.
type Parser struct {
	lexer *lexer.Lexer
}

// New returns a parser using lx. A nil lexer gives a parser whose calls
// fail with conversion.ErrNotConfigured.
func New(lx *lexer.Lexer) *Parser {
	return &Parser{lexer: lx}
}

// Default returns a parser on the default registry.
func Default() *Parser {
	return New(lexer.Default())
}

// lex returns the sequence for text, or nil for text without tokens.
func (p *Parser) lex(text string, hints conversion.Hints) (*lexeme.Sequence, error) {
	if p == nil || p.lexer == nil {
		return nil, conversion.ErrNotConfigured
	}
	seq, err := p.lexer.Lex(text, hints)
	if errors.Is(err, lexer.ErrEmptyInput) {
		return nil, nil
	}
	return seq, err
}

// ParseMETAR parses a METAR or SPECI.
func (p *Parser) ParseMETAR(text string, hints conversion.Hints) (*conversion.Result[*model.METAR], error) {
	seq, err := p.lex(text, hints)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		res := &conversion.Result[*model.METAR]{Report: &model.METAR{}, Failed: true}
		res.Add(conversion.MissingData, "empty report")
		return res, nil
	}
	return METARFromSequence(seq, hints), nil
}

// ParseTAF parses a TAF.
func (p *Parser) ParseTAF(text string, hints conversion.Hints) (*conversion.Result[*model.TAF], error) {
	seq, err := p.lex(text, hints)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		res := &conversion.Result[*model.TAF]{Report: &model.TAF{}, Failed: true}
		res.Add(conversion.MissingData, "empty report")
		return res, nil
	}
	return TAFFromSequence(seq, hints), nil
}

// KindOf returns the report kind named by the first lexeme of seq, or
// TAF for a report without start token that carries a validity period.
func KindOf(seq *lexeme.Sequence) model.Kind {
	switch seq.First().Identity() {
	case lexeme.MetarStart:
		return model.KindMETAR
	case lexeme.SpeciStart:
		return model.KindSPECI
	case lexeme.TafStart:
		return model.KindTAF
	}
	if seq.Count(lexeme.ValidTime) > 0 {
		return model.KindTAF
	}
	return model.KindUnknown
}
