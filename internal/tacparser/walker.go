package tacparser

import (
	"fmt"
	"time"

	"tac_codec/internal/conversion"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/partialtime"
)

// walker carries the state of one parse: the sequence, which lexemes a
// step has taken and the issues found so far.
type walker struct {
	seq      *lexeme.Sequence
	consumed []bool
	issues   conversion.Issues
}

func newWalker(seq *lexeme.Sequence) *walker {
	return &walker{seq: seq, consumed: make([]bool, seq.Len())}
}

func (w *walker) issue(kind conversion.IssueKind, l *lexeme.Lexeme, format string, args ...any) {
	is := conversion.Issue{Kind: kind, Message: fmt.Sprintf(format, args...), Index: -1}
	if l != nil {
		is.Token = l.TACToken()
		is.Index = l.Index()
	}
	w.issues = append(w.issues, is)
}

func (w *walker) take(l *lexeme.Lexeme) {
	if l != nil && l.Index() >= 0 {
		w.consumed[l.Index()] = true
	}
}

// usable takes l and reports whether its values can be used. A lexeme with
// a syntax error is taken but reported instead of used.
func (w *walker) usable(l *lexeme.Lexeme) bool {
	w.take(l)
	if l.Status() == lexeme.StatusSyntaxError {
		w.issue(conversion.SyntaxError, l, "%s: %s", l.Identity(), l.Message())
		return false
	}
	return true
}

// next finds the first target lexeme after from, or from the start of the
// sequence when from is nil, unless a stop identity comes first.
func (w *walker) next(target lexeme.Identity, from *lexeme.Lexeme, stop []lexeme.Identity) *lexeme.Lexeme {
	if from == nil {
		first := w.seq.First()
		if first.Identity() == target {
			return first
		}
		if first.Identity().In(stop...) {
			return nil
		}
		from = first
	}
	return lexeme.FindNext(target, from, stop...)
}

// findNext runs found with the target lexeme when one is reachable, or
// notFound otherwise. Either callback may be nil.
func (w *walker) findNext(target lexeme.Identity, from *lexeme.Lexeme, stop []lexeme.Identity, found func(*lexeme.Lexeme), notFound func()) *lexeme.Lexeme {
	l := w.next(target, from, stop)
	switch {
	case l == nil:
		if notFound != nil {
			notFound()
		}
	case w.usable(l) && found != nil:
		found(l)
	}
	return l
}

// findAll runs found for every target lexeme before the stop set.
func (w *walker) findAll(target lexeme.Identity, from *lexeme.Lexeme, stop []lexeme.Identity, found func(*lexeme.Lexeme)) int {
	n := 0
	for l := w.next(target, from, stop); l != nil; l = lexeme.FindNext(target, l, stop...) {
		n++
		if w.usable(l) && found != nil {
			found(l)
		}
	}
	return n
}

// required returns a notFound callback that records missing data.
func (w *walker) required(what string) func() {
	return func() {
		w.issue(conversion.MissingData, nil, "%s missing", what)
	}
}

// checkCardinality reports every identity that occurs more than once.
func (w *walker) checkCardinality(ids ...lexeme.Identity) {
	for _, id := range ids {
		if n := w.seq.Count(id); n > 1 {
			w.issue(conversion.LogicalError, nil, "%s occurs %d times, at most one allowed", id, n)
		}
	}
}

// finish reports what no step took: unrecognized tokens, syntax errors and
// recognized tokens in a position where they are not allowed.
func (w *walker) finish() {
	for i := 0; i < w.seq.Len(); i++ {
		if w.consumed[i] {
			continue
		}
		l := w.seq.At(i)
		switch l.Status() {
		case lexeme.StatusUnrecognized:
			w.issue(conversion.SyntaxError, l, "unrecognized token")
		case lexeme.StatusSyntaxError:
			w.issue(conversion.SyntaxError, l, "%s: %s", l.Identity(), l.Message())
		default:
			w.issue(conversion.LogicalError, l, "unexpected %s", l.Identity())
		}
	}
	if !w.seq.Last().Is(lexeme.EndToken) {
		w.issue(conversion.MissingData, nil, "end marker %q missing", lexeme.EndMarker)
	}
}

// takeAfter takes every lexeme after l and reports the ones that are not
// allowed there, such as data following NIL.
func (w *walker) takeAfter(l *lexeme.Lexeme, allowed []lexeme.Identity, what string) {
	for cur := l.Next(); cur != nil; cur = cur.Next() {
		if w.consumed[cur.Index()] || cur.Is(allowed...) {
			continue
		}
		w.take(cur)
		w.issue(conversion.LogicalError, cur, "%s", what)
	}
}

// partial builds a partial time from three value slots of l. A HAS_ZONE
// flag puts the result in UTC.
func partial(l *lexeme.Lexeme, day, hour, minute lexeme.ValueName) (partialtime.PartialDateTime, error) {
	get := func(name lexeme.ValueName) int {
		if v, ok := l.IntValue(name); ok {
			return v
		}
		return partialtime.Absent
	}
	p, err := partialtime.New(get(day), get(hour), get(minute))
	if err != nil {
		return p, err
	}
	if l.BoolValue(lexeme.HasZone) {
		p = p.WithZone(time.UTC)
	}
	return p, nil
}

// instantAt is partial as an instant, recording a syntax issue on failure.
func (w *walker) instantAt(l *lexeme.Lexeme, day, hour, minute lexeme.ValueName) *partialtime.Instant {
	p, err := partial(l, day, hour, minute)
	if err != nil || p.IsEmpty() {
		w.issue(conversion.SyntaxError, l, "invalid time: %v", err)
		return nil
	}
	in := partialtime.PartialInstant(p)
	return &in
}

// periodOf reads a DAY1/HOUR1 to DAY2/HOUR2 period from l.
func (w *walker) periodOf(l *lexeme.Lexeme) *partialtime.Period {
	start := w.instantAt(l, lexeme.Day1, lexeme.Hour1, lexeme.Minute1)
	end := w.instantAt(l, lexeme.Day2, lexeme.Hour2, lexeme.Minute2)
	if start == nil || end == nil {
		return nil
	}
	return &partialtime.Period{Start: start, End: end}
}

// identities concatenates identity lists into a fresh slice.
func identities(lists ...[]lexeme.Identity) []lexeme.Identity {
	var out []lexeme.Identity
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// following returns the identities after id in order, followed by bounds.
// It is the stop set for a field: anything that may legally come later.
func following(order []lexeme.Identity, id lexeme.Identity, bounds []lexeme.Identity) []lexeme.Identity {
	for i, o := range order {
		if o == id {
			return identities(order[i+1:], bounds)
		}
	}
	return identities(bounds)
}

// setOnce stores at in *slot unless a group of the same kind was seen.
func (w *walker) setOnce(l *lexeme.Lexeme, slot **partialtime.Instant, at *partialtime.Instant) {
	if *slot != nil {
		w.issue(conversion.LogicalError, l, "repeated time group")
		return
	}
	*slot = at
}
