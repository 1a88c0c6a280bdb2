package lexeme

import (
	"errors"
	"strings"
)

var (
	// ErrEmptySequence is returned when building a sequence with no lexemes.
	ErrEmptySequence = errors.New("empty lexeme sequence")
	// ErrAttached is returned when a lexeme already belongs to another sequence.
	ErrAttached = errors.New("lexeme already belongs to a sequence")
)

// EndMarker is the TAC end-of-message token.
const EndMarker = "="

// Sequence is an ordered chain of lexemes plus the source text it came from.
// It is built once and never mutated afterwards, so it can be shared freely.
type Sequence struct {
	source  string
	lexemes []*Lexeme
}

// NewSequence links lexemes into a sequence.
func NewSequence(source string, lexemes []*Lexeme) (*Sequence, error) {
	if len(lexemes) == 0 {
		return nil, ErrEmptySequence
	}
	s := &Sequence{source: source, lexemes: make([]*Lexeme, len(lexemes))}
	for i, l := range lexemes {
		if l.seq != nil {
			return nil, ErrAttached
		}
		s.lexemes[i] = l
	}
	for i, l := range s.lexemes {
		l.seq = s
		l.index = i
	}
	return s, nil
}

func (s *Sequence) Source() string     { return s.source }
func (s *Sequence) Len() int           { return len(s.lexemes) }
func (s *Sequence) At(i int) *Lexeme   { return s.lexemes[i] }
func (s *Sequence) First() *Lexeme     { return s.lexemes[0] }
func (s *Sequence) Last() *Lexeme      { return s.lexemes[len(s.lexemes)-1] }
func (s *Sequence) Lexemes() []*Lexeme { return append([]*Lexeme(nil), s.lexemes...) }

// TAC joins the tokens with single spaces. The end marker is attached to the
// preceding token without a space.
func (s *Sequence) TAC() string {
	var b strings.Builder
	for i, l := range s.lexemes {
		if i > 0 && l.token != EndMarker {
			b.WriteByte(' ')
		}
		b.WriteString(l.token)
	}
	return b.String()
}

// Count returns how many lexemes have identity id.
func (s *Sequence) Count(id Identity) int {
	n := 0
	for _, l := range s.lexemes {
		if l.identity == id {
			n++
		}
	}
	return n
}

// FindNext walks forward from the lexeme after from and returns the first one
// with identity target. It returns nil if a lexeme whose identity is in stopAt
// comes first, or the sequence ends.
func FindNext(target Identity, from *Lexeme, stopAt ...Identity) *Lexeme {
	if from == nil {
		return nil
	}
	for cur := from.Next(); cur != nil; cur = cur.Next() {
		if cur.identity.In(stopAt...) {
			return nil
		}
		if cur.identity == target {
			return cur
		}
	}
	return nil
}

// FindAll returns every lexeme with identity target after from, up to the
// first stop lexeme.
func FindAll(target Identity, from *Lexeme, stopAt ...Identity) []*Lexeme {
	var out []*Lexeme
	for l := FindNext(target, from, stopAt...); l != nil; l = FindNext(target, l, stopAt...) {
		out = append(out, l)
	}
	return out
}
