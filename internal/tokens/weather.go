package tokens

import (
	"strings"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

var weatherFormat = patterns.MustCompile(patterns.Format{
	Name:    "weather",
	Pattern: `(?P<int>{WX_INTENSITY})?(?P<desc>{WX_DESCRIPTOR})?(?P<phen>(?:{WX_PHENOMENON})*)`,
})

// parseWeather matches a weather group body and reports whether it names
// at least a descriptor or a phenomenon.
func parseWeather(code string) (*patterns.Match, bool) {
	m := weatherFormat.Parse(code)
	if m == nil || !m.Has("desc") && !m.Has("phen") {
		return nil, false
	}
	return m, true
}

// weather is a present or forecast weather group such as +TSRA.
type weather struct{ base }

func (w *weather) QuickCheck(token string) bool {
	return len(token) >= 2 && len(token) <= 12
}

func (w *weather) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m, ok := parseWeather(ctx.Token())
	if !ok {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Code: strings.ToUpper(ctx.Token())}
	if m.Has("int") {
		v[lexeme.Intensity] = m.Get("int")
	}
	return lexeme.Recognized(lexeme.Weather, v), true
}

func (w *weather) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Conditions == nil {
		return nil, nil
	}
	out := make([]string, 0, len(ctx.Conditions.Weather))
	for _, wx := range ctx.Conditions.Weather {
		if _, ok := parseWeather(wx.Code); !ok {
			return nil, serErr(w.identity, "code", "%q is not a weather code", wx.Code)
		}
		out = append(out, strings.ToUpper(wx.Code))
	}
	return w.lex(out...), nil
}

// recentWeather is a REww group of a METAR.
type recentWeather struct{ base }

func (w *recentWeather) QuickCheck(token string) bool {
	return len(token) >= 4 && strings.HasPrefix(token, "RE")
}

func (w *recentWeather) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) || ctx.IsTAF() {
		return lexeme.Classification{}, false
	}
	code := strings.ToUpper(ctx.Token())[2:]
	if _, ok := parseWeather(code); !ok {
		return lexeme.Classification{}, false
	}
	return lexeme.Recognized(lexeme.RecentWeather, values{lexeme.Code: code}), true
}

func (w *recentWeather) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.METAR == nil || ctx.InSection() {
		return nil, nil
	}
	out := make([]string, 0, len(ctx.METAR.RecentWeather))
	for _, wx := range ctx.METAR.RecentWeather {
		if _, ok := parseWeather(wx.Code); !ok {
			return nil, serErr(w.identity, "code", "%q is not a weather code", wx.Code)
		}
		out = append(out, "RE"+strings.ToUpper(wx.Code))
	}
	return w.lex(out...), nil
}

func init() {
	register(
		&recentWeather{base{name: "recent_weather", identity: lexeme.RecentWeather, priority: prioField}},
		&weather{base{name: "weather", identity: lexeme.Weather, priority: prioWeather}},
	)
}
