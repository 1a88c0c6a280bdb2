// Package codec is the entry point for converting between TAC text and
// report objects. It detects the report kind, parses, serializes and checks
// round trips, and fills in a reference time from its clock when time
// completion is requested without one.
package codec

import (
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/lexer"
	"tac_codec/internal/model"
	"tac_codec/internal/registry"
	"tac_codec/internal/serializer"
	"tac_codec/internal/tacparser"
	"tac_codec/internal/tokens"
)

// Report is the outcome of one parse: exactly one of METAR and TAF is set
// unless the kind could not be determined.
type Report struct {
	Kind   model.Kind        `json:"kind"`
	Status conversion.Status `json:"status"`
	METAR  *model.METAR      `json:"metar,omitempty"`
	TAF    *model.TAF        `json:"taf,omitempty"`
	Issues conversion.Issues `json:"issues,omitempty"`

	// Source is the normalized input text.
	Source string `json:"source"`

	// validity records how the TAF validity was written, for round trips.
	validity conversion.ValidityFormat
}

// Aerodrome returns the designator of whichever report is set.
func (r *Report) Aerodrome() string {
	switch {
	case r.METAR != nil:
		return r.METAR.Aerodrome.Designator
	case r.TAF != nil:
		return r.TAF.Aerodrome.Designator
	}
	return ""
}

// Value returns the report object itself.
func (r *Report) Value() any {
	if r.METAR != nil {
		return r.METAR
	}
	if r.TAF != nil {
		return r.TAF
	}
	return nil
}

// Converter bundles a lexer, parser and serializer over one registry.
type Converter struct {
	lexer      *lexer.Lexer
	serializer *serializer.Serializer
	clock      clockwork.Clock
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock sets the clock used for the default reference time.
func WithClock(c clockwork.Clock) Option {
	return func(cv *Converter) { cv.clock = c }
}

// WithRegistry replaces the default token registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(cv *Converter) {
		cv.lexer = lexer.New(reg)
		cv.serializer = serializer.New(reg)
	}
}

// New returns a converter on the default registry and the real clock.
func New(opts ...Option) *Converter {
	c := &Converter{
		lexer:      lexer.Default(),
		serializer: serializer.Default(),
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// hints fills in the reference time from the clock.
func (c *Converter) hints(h conversion.Hints) conversion.Hints {
	if h.CompleteTimes && h.ReferenceTime.IsZero() {
		h.ReferenceTime = c.clock.Now().UTC()
	}
	return h
}

// Lex classifies text and returns the per-token trace.
func (c *Converter) Lex(text string, hints conversion.Hints) (*lexeme.Sequence, []*registry.TokenTrace, error) {
	return c.lexer.LexWithTrace(text, hints)
}

// Parse detects the kind of text and parses it. Malformed input gives a
// report with issues; only configuration problems are errors.
func (c *Converter) Parse(text string, hints conversion.Hints) (*Report, error) {
	hints = c.hints(hints)
	seq, err := c.lexer.Lex(text, hints)
	if errors.Is(err, lexer.ErrEmptyInput) {
		r := &Report{Status: conversion.StatusFail}
		r.Issues = conversion.Issues{{Kind: conversion.MissingData, Message: "empty report", Index: -1}}
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	return c.fromSequence(seq, hints), nil
}

// ParseAs parses text as the given kind without detection.
func (c *Converter) ParseAs(kind model.Kind, text string, hints conversion.Hints) (*Report, error) {
	hints = c.hints(hints)
	seq, err := c.lexer.Lex(text, hints)
	if errors.Is(err, lexer.ErrEmptyInput) {
		r := &Report{Kind: kind, Status: conversion.StatusFail}
		r.Issues = conversion.Issues{{Kind: conversion.MissingData, Message: "empty report", Index: -1}}
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	return c.build(kind, seq, hints), nil
}

func (c *Converter) fromSequence(seq *lexeme.Sequence, hints conversion.Hints) *Report {
	kind := tacparser.KindOf(seq)
	if kind == model.KindUnknown {
		// Without a start token or validity the report reads as a METAR;
		// the parser reports the missing type.
		kind = model.KindMETAR
	}
	return c.build(kind, seq, hints)
}

func (c *Converter) build(kind model.Kind, seq *lexeme.Sequence, hints conversion.Hints) *Report {
	r := &Report{Kind: kind, Source: seq.TAC()}
	switch kind {
	case model.KindTAF:
		res := tacparser.TAFFromSequence(seq, hints)
		r.TAF, r.Issues, r.Status = res.Report, res.Issues, res.Status()
		r.validity = validityFormat(seq)
	default:
		res := tacparser.METARFromSequence(seq, hints)
		r.METAR, r.Issues, r.Status = res.Report, res.Issues, res.Status()
		r.Kind = res.Report.ReportKind()
	}
	return r
}

// validityFormat returns the format the TAF validity was written in.
func validityFormat(seq *lexeme.Sequence) conversion.ValidityFormat {
	for _, l := range seq.Lexemes() {
		if !l.Is(lexeme.ValidTime) {
			continue
		}
		switch f, _ := l.StringValue(lexeme.Format); f {
		case tokens.FormatShort, tokens.FormatHours:
			return conversion.ValidityShort
		}
	}
	return conversion.ValidityLong
}

// Serialize writes a *model.METAR or *model.TAF as TAC text.
func (c *Converter) Serialize(report any, hints conversion.Hints) (string, error) {
	return c.serializer.Report(report, hints)
}

// RoundTripResult compares normalized input with its reserialization.
type RoundTripResult struct {
	Input  string  `json:"input"`
	Output string  `json:"output"`
	Equal  bool    `json:"equal"`
	Report *Report `json:"report"`
}

// RoundTrip parses text and serializes the result again, keeping the
// validity format of the input. A serialization failure is returned as the
// error together with the partial result.
func (c *Converter) RoundTrip(text string, hints conversion.Hints) (*RoundTripResult, error) {
	r, err := c.Parse(text, hints)
	if err != nil {
		return nil, err
	}
	res := &RoundTripResult{Input: Normalize(text), Report: r}
	if r.Value() == nil {
		return res, nil
	}
	if r.TAF != nil {
		hints.ValidityFormat = r.validity
	}
	out, err := c.Serialize(r.Value(), hints)
	if err != nil {
		return res, err
	}
	res.Output = out
	res.Equal = out == res.Input
	return res, nil
}

// Normalize upper-cases text, collapses whitespace and attaches the end
// marker to the last token, which is how serialized reports look.
func Normalize(text string) string {
	toks := lexer.Split(text)
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t != lexeme.EndMarker {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}
