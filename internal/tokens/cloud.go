package tokens

import (
	"fmt"

	"tac_codec/internal/lexeme"
	"tac_codec/internal/model"
	"tac_codec/internal/patterns"
	"tac_codec/internal/registry"
)

const (
	cloudLayer = "LAYER"
	cloudVV    = "VV"
	cloudSky   = "SKY"

	notReported = "///"
)

var cloudFormats = patterns.MustCompile(
	patterns.Format{Name: cloudLayer, Pattern: `(?P<cover>{COVER}|///)(?P<base>\d{3}|///)(?P<type>{CLOUD_TYPE}|///)?`},
	patterns.Format{Name: cloudVV, Pattern: `VV(?P<base>\d{3}|///)`},
	patterns.Format{Name: cloudSky, Pattern: `(?P<cover>{SKY})`},
)

// cloud is one cloud layer, a vertical visibility or a special sky condition.
type cloud struct{ base }

func (c *cloud) QuickCheck(token string) bool {
	return len(token) >= 3 && len(token) <= 9
}

func (c *cloud) Classify(ctx *registry.Context) (lexeme.Classification, bool) {
	if !afterHeader(ctx) {
		return lexeme.Classification{}, false
	}
	m := cloudFormats.Parse(ctx.Token())
	if m == nil {
		return lexeme.Classification{}, false
	}
	v := values{lexeme.Format: m.FormatName}
	switch m.FormatName {
	case cloudLayer:
		if m.Get("cover") != notReported {
			v[lexeme.Cover] = m.Get("cover")
		}
		if m.Has("type") {
			v[lexeme.Type] = m.Get("type")
		}
	case cloudVV:
		v[lexeme.Cover] = cloudVV
	case cloudSky:
		v[lexeme.Cover] = m.Get("cover")
	}
	if b := m.Get("base"); b != "" && b != notReported {
		v.setInt(lexeme.Value, b)
		v[lexeme.Value] = v[lexeme.Value].(int) * 100
		v[lexeme.Unit] = model.UnitFeet
	}
	return lexeme.Recognized(lexeme.Cloud, v), true
}

func (c *cloud) Reconstruct(ctx *registry.ReconstructContext) ([]*lexeme.Lexeme, error) {
	if ctx.Conditions == nil || ctx.Conditions.Clouds == nil {
		return nil, nil
	}
	cf := ctx.Conditions.Clouds
	switch {
	case cf.Special != "":
		if cloudFormats.Parse(cf.Special) == nil || len(cf.Layers) > 0 {
			return nil, serErr(c.identity, "special", "%q with %d layers", cf.Special, len(cf.Layers))
		}
		return c.lex(cf.Special), nil
	case cf.VerticalVisibility != nil || cf.VerticalVisibilityMissing:
		if len(cf.Layers) > 0 {
			return nil, serErr(c.identity, "vertical visibility", "cannot be combined with cloud layers")
		}
		h, err := c.height("vertical visibility", cf.VerticalVisibility)
		if err != nil {
			return nil, err
		}
		return c.lex("VV" + h), nil
	}

	out := make([]string, 0, len(cf.Layers))
	for i, l := range cf.Layers {
		amount := l.Amount
		switch amount {
		case "":
			amount = notReported
		case model.CoverFew, model.CoverScattered, model.CoverBroken, model.CoverOvercast:
		default:
			return nil, serErr(c.identity, fmt.Sprintf("layer %d amount", i), "unknown amount %q", amount)
		}
		h, err := c.height(fmt.Sprintf("layer %d base", i), l.Base)
		if err != nil {
			return nil, err
		}
		tok := amount + h
		switch {
		case l.TypeMissing:
			tok += notReported
		case l.Type == "CB" || l.Type == "TCU":
			tok += l.Type
		case l.Type != "":
			return nil, serErr(c.identity, fmt.Sprintf("layer %d type", i), "unknown cloud type %q", l.Type)
		}
		out = append(out, tok)
	}
	return c.lex(out...), nil
}

// height writes a base in hundreds of feet, or /// when nil.
func (c *cloud) height(field string, m *model.NumericMeasure) (string, error) {
	if m == nil {
		return notReported, nil
	}
	if err := requireUnit(c.identity, field, *m, model.UnitFeet); err != nil {
		return "", err
	}
	n, err := wholeNumber(c.identity, field, m.Value/100)
	if err != nil {
		return "", err
	}
	if n < 0 || n > 999 {
		return "", serErr(c.identity, field, "%v ft out of range", m.Value)
	}
	return fmt.Sprintf("%03d", n), nil
}

func init() {
	register(&cloud{base{name: "cloud", identity: lexeme.Cloud, priority: prioField}})
}
