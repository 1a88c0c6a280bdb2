// Package lexer turns raw TAC text into a classified lexeme sequence.
//
// Classification is one forward pass: the token at index i is classified
// with the lexemes before it already fixed and only the raw text of the
// tokens after it visible. Nothing is revisited.
package lexer

import (
	"errors"
	"fmt"
	"strings"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/registry"
)

// ErrEmptyInput is returned for text without any token.
var ErrEmptyInput = errors.New("no TAC tokens in input")

// Lexer classifies tokens with the classifiers of one registry.
type Lexer struct {
	reg *registry.Registry
}

// New returns a lexer bound to reg. A nil registry gives a lexer whose
// calls fail with conversion.ErrNotConfigured.
func New(reg *registry.Registry) *Lexer {
	return &Lexer{reg: reg}
}

// Default returns a lexer bound to the default registry.
func Default() *Lexer {
	return New(registry.Default())
}

// Split breaks text on whitespace and upper-cases the tokens. A trailing
// end marker is split off the token it is attached to.
func Split(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		f = strings.ToUpper(f)
		if len(f) > 1 && strings.HasSuffix(f, lexeme.EndMarker) {
			if body := strings.TrimRight(f, lexeme.EndMarker); body != "" {
				out = append(out, body)
			}
			out = append(out, lexeme.EndMarker)
			continue
		}
		out = append(out, f)
	}
	return out
}

// Lex splits and classifies text.
func (l *Lexer) Lex(text string, hints conversion.Hints) (*lexeme.Sequence, error) {
	seq, _, err := l.lex(text, hints, false)
	return seq, err
}

// LexWithTrace is Lex that also returns the classifier attempts for every
// token, for debugging disambiguation.
func (l *Lexer) LexWithTrace(text string, hints conversion.Hints) (*lexeme.Sequence, []*registry.TokenTrace, error) {
	return l.lex(text, hints, true)
}

func (l *Lexer) lex(text string, hints conversion.Hints, trace bool) (*lexeme.Sequence, []*registry.TokenTrace, error) {
	if l == nil || l.reg == nil {
		return nil, nil, conversion.ErrNotConfigured
	}
	raw := Split(text)
	if len(raw) == 0 {
		return nil, nil, ErrEmptyInput
	}
	lexemes := make([]*lexeme.Lexeme, len(raw))
	for i, t := range raw {
		lexemes[i] = lexeme.New(t)
	}
	seq, err := lexeme.NewSequence(text, lexemes)
	if err != nil {
		return nil, nil, fmt.Errorf("build sequence: %w", err)
	}

	var traces []*registry.TokenTrace
	for i := range lexemes {
		ctx := registry.NewContext(seq, i, hints)
		var c lexeme.Classification
		if trace {
			var tr *registry.TokenTrace
			c, tr = l.reg.ClassifyWithTrace(ctx)
			traces = append(traces, tr)
		} else {
			c, _ = l.reg.Classify(ctx)
		}
		if err := lexemes[i].Identify(c); err != nil {
			return nil, nil, fmt.Errorf("classify token %d: %w", i, err)
		}
	}
	return seq, traces, nil
}
