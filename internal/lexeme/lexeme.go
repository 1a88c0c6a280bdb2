package lexeme

import (
	"errors"
	"fmt"
)

// ErrAlreadyIdentified is returned when a lexeme is classified twice.
var ErrAlreadyIdentified = errors.New("lexeme already identified")

// Classification is the outcome of one classifier applied to one token.
type Classification struct {
	Identity  Identity
	Status    Status
	Message   string
	Certainty float64
	Values    map[ValueName]any
}

// Recognized returns an OK classification with full certainty.
func Recognized(id Identity, values map[ValueName]any) Classification {
	return Classification{Identity: id, Status: StatusOK, Certainty: 1, Values: values}
}

// SyntaxError returns a classification for a token that has the right shape
// for id but carries a malformed or out-of-range field.
func SyntaxError(id Identity, msg string, values map[ValueName]any) Classification {
	return Classification{Identity: id, Status: StatusSyntaxError, Message: msg, Certainty: 1, Values: values}
}

// Lexeme is one token occurrence. Identity, status and values are set exactly
// once by Identify; afterwards the lexeme is read-only.
type Lexeme struct {
	token      string
	identity   Identity
	status     Status
	message    string
	certainty  float64
	values     map[ValueName]any
	identified bool

	seq   *Sequence
	index int
}

// New returns an unidentified lexeme for token.
func New(token string) *Lexeme {
	return &Lexeme{token: token, index: -1}
}

// NewIdentified returns a lexeme already identified as id with status OK.
// Reconstructors use it to emit tokens.
func NewIdentified(id Identity, token string) *Lexeme {
	l := New(token)
	l.identity = id
	l.status = StatusOK
	l.certainty = 1
	l.identified = true
	return l
}

// Identify freezes the classification of l.
func (l *Lexeme) Identify(c Classification) error {
	if l.identified {
		return fmt.Errorf("%w: %q is %s", ErrAlreadyIdentified, l.token, l.identity)
	}
	l.identified = true
	l.identity = c.Identity
	l.status = c.Status
	l.message = c.Message
	l.certainty = c.Certainty
	if c.Status == StatusUnrecognized || c.Identity == None {
		l.identity = None
		l.status = StatusUnrecognized
		l.certainty = 0
		return nil
	}
	if len(c.Values) > 0 {
		l.values = make(map[ValueName]any, len(c.Values))
		for k, v := range c.Values {
			l.values[k] = v
		}
	}
	return nil
}

func (l *Lexeme) TACToken() string   { return l.token }
func (l *Lexeme) Identity() Identity { return l.identity }
func (l *Lexeme) Status() Status     { return l.status }
func (l *Lexeme) Message() string    { return l.message }
func (l *Lexeme) Certainty() float64 { return l.certainty }
func (l *Lexeme) Identified() bool   { return l.identified }
func (l *Lexeme) Index() int         { return l.index }

// IsRecognized reports whether the lexeme was matched by some classifier.
func (l *Lexeme) IsRecognized() bool {
	return l.identified && l.identity != None && l.status != StatusUnrecognized
}

// Is reports whether the lexeme has one of the given identities.
func (l *Lexeme) Is(ids ...Identity) bool {
	return l != nil && l.identity.In(ids...)
}

// Value returns a raw parsed value.
func (l *Lexeme) Value(name ValueName) (any, bool) {
	v, ok := l.values[name]
	return v, ok
}

// Values returns a copy of the parsed values.
func (l *Lexeme) Values() map[ValueName]any {
	out := make(map[ValueName]any, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

// IntValue returns an int-typed parsed value.
func (l *Lexeme) IntValue(name ValueName) (int, bool) {
	return ParsedValue[int](l, name)
}

// StringValue returns a string-typed parsed value.
func (l *Lexeme) StringValue(name ValueName) (string, bool) {
	return ParsedValue[string](l, name)
}

// BoolValue returns a bool-typed parsed value, false when absent.
func (l *Lexeme) BoolValue(name ValueName) bool {
	v, _ := ParsedValue[bool](l, name)
	return v
}

// ParsedValue returns the value in slot name if present and of type T.
func ParsedValue[T any](l *Lexeme, name ValueName) (T, bool) {
	var zero T
	if l == nil {
		return zero, false
	}
	raw, ok := l.values[name]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Prev returns the preceding lexeme, or nil for the first one or a detached lexeme.
func (l *Lexeme) Prev() *Lexeme {
	if l.seq == nil || l.index <= 0 {
		return nil
	}
	return l.seq.lexemes[l.index-1]
}

// Next returns the following lexeme, or nil for the last one or a detached lexeme.
func (l *Lexeme) Next() *Lexeme {
	if l.seq == nil || l.index+1 >= len(l.seq.lexemes) {
		return nil
	}
	return l.seq.lexemes[l.index+1]
}

func (l *Lexeme) GoString() string {
	return fmt.Sprintf("%s(%q,%s)", l.identity, l.token, l.status)
}
