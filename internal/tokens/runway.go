package tokens

import (
	"regexp"
	"strings"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

// Runway designators with special meaning in runway state groups.
const (
	runwayAll        = "88"
	runwayRepetition = "99"
)

var runwayStateFormats = patterns.MustCompile(
	patterns.Format{Name: "deposit", Pattern: `R(?P<rwy>{RUNWAY})/(?P<dep>[0-9/])(?P<cont>[0-9/])(?P<depth>\d{2}|//)(?P<brake>\d{2}|//)`},
	patterns.Format{Name: "cleared", Pattern: `R(?P<rwy>{RUNWAY})/(?P<clrd>CLRD)(?P<brake>\d{2}|//)`},
)

// runwayState is the Rdd/ERCReeBB runway surface condition group.
type runwayState struct{ base }

func (r *runwayState) QuickCheck(token string) bool {
	return len(token) >= 9 && token[0] == 'R' && strings.Contains(token, "/")
}

func (r *runwayState) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) || ctx.IsTAF() {
		return lexeme.Classification{}, false
	}
	m := runwayStateFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.BrakingAction: m.Get("brake")}
	switch rwy := m.Get("rwy"); rwy {
	case runwayAll:
		v[lexeme.AllRunways] = true
	case runwayRepetition:
		v[lexeme.Repetition] = true
	default:
		v[lexeme.Runway] = rwy
	}
	problem := ""
	if _, ok := patterns.RunwayBraking(m.Get("brake")); !ok {
		problem = "unknown braking action code " + m.Get("brake")
	}
	if m.Has("clrd") {
		v[lexeme.Cleared] = true
		return v.result(lexeme.RunwayState, problem), true
	}
	v[lexeme.Deposit] = m.Get("dep")
	v[lexeme.Contamination] = m.Get("cont")
	v[lexeme.Depth] = m.Get("depth")
	if _, ok := patterns.RunwayDeposit(m.Get("dep")); !ok {
		problem = "unknown deposit code " + m.Get("dep")
	}
	if _, ok := patterns.RunwayContamination(m.Get("cont")); !ok {
		problem = "unknown contamination code " + m.Get("cont")
	}
	if _, ok := patterns.RunwayDepth(m.Get("depth")); !ok {
		problem = "unknown depth code " + m.Get("depth")
	}
	return v.result(lexeme.RunwayState, problem), true
}

func (r *runwayState) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() {
		return nil, nil
	}
	out := make([]string, 0, len(ctx.METAR.RunwayStates))
	for _, rs := range ctx.METAR.RunwayStates {
		s, err := r.format(rs)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return r.lex(out...), nil
}

func (r *runwayState) format(rs model.RunwayState) (string, error) {
	rwy := rs.Runway
	switch {
	case rs.AllRunways:
		rwy = runwayAll
	case rs.Repetition:
		rwy = runwayRepetition
	case rwy == "":
		return "", serErr(r.identity, "runway", "runway designator missing")
	}
	code := func(field, s string, width int) (string, error) {
		if s == "" {
			s = strings.Repeat("/", width)
		}
		if len(s) != width {
			return "", serErr(r.identity, field, "code %q must be %d characters", s, width)
		}
		return s, nil
	}
	brake, err := code("braking action", rs.BrakingAction, 2)
	if err != nil {
		return "", err
	}
	if rs.Cleared {
		return "R" + rwy + "/CLRD" + brake, nil
	}
	var b strings.Builder
	b.WriteString("R" + rwy + "/")
	for _, f := range []struct {
		name  string
		value string
		width int
	}{
		{"deposit", rs.Deposit, 1},
		{"contamination", rs.Contamination, 1},
		{"depth", rs.Depth, 2},
	} {
		s, err := code(f.name, f.value, f.width)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteString(brake)
	return b.String(), nil
}

var wsRunwayRe = regexp.MustCompile(`^(?:R|RWY)(\d{2}[LRC]?)$`)

// windShear covers the tokens of a wind shear group, each one its own
// lexeme: WS, then either ALL RWY or a runway designator.
type windShear struct{ base }

func (w *windShear) QuickCheck(token string) bool {
	return token == "WS" || token == "ALL" || token == "RWY" || wsRunwayRe.MatchString(token)
}

func (w *windShear) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	token := strings.ToUpper(ctx.Token())
	prev := ctx.Prev()
	prevToken := ""
	if prev.Is(lexeme.WindShear) {
		prevToken = strings.ToUpper(prev.TACToken())
	}
	switch {
	case token == "WS":
		return lexeme.Recognized(lexeme.WindShear, values{lexeme.Type: "WS"}), true
	case token == "ALL" && prevToken == "WS":
		return lexeme.Recognized(lexeme.WindShear, values{lexeme.AllRunways: true}), true
	case token == "RWY" && prevToken == "ALL":
		return lexeme.Recognized(lexeme.WindShear, values{lexeme.Type: "RWY"}), true
	case prevToken == "WS":
		if m := wsRunwayRe.FindStringSubmatch(token); m != nil {
			return lexeme.Recognized(lexeme.WindShear, values{lexeme.Runway: m[1]}), true
		}
	}
	return lexeme.Classification{}, false
}

func (w *windShear) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() || ctx.METAR.WindShear == nil {
		return nil, nil
	}
	ws := ctx.METAR.WindShear
	if ws.AllRunways {
		if len(ws.Runways) > 0 {
			return nil, serErr(w.identity, "runways", "all runways and specific runways both set")
		}
		return w.lex("WS", "ALL", "RWY"), nil
	}
	if len(ws.Runways) == 0 {
		return nil, serErr(w.identity, "runways", "no runway given")
	}
	var out []string
	for _, rwy := range ws.Runways {
		out = append(out, "WS", "R"+rwy)
	}
	return w.lex(out...), nil
}

func init() {
	register(
		&runwayState{base{name: "runway_state", identity: lexeme.RunwayState, priority: prioField}},
		&windShear{base{name: "wind_shear", identity: lexeme.WindShear, priority: prioField}},
	)
}
