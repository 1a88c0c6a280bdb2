package main

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
)

func TestSplitReports(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lines without end markers",
			text: "METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013\n\n  TAF EFHK 121130Z 1212/1312 24005KT CAVOK \n",
			want: []string{"METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013", "TAF EFHK 121130Z 1212/1312 24005KT CAVOK"},
		},
		{
			name: "multi-line blocks",
			text: "TAF EFHK 121130Z 1212/1312 24005KT CAVOK\n  BECMG 1214/1216 BKN010=\nMETAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013=\n",
			want: []string{
				"TAF EFHK 121130Z 1212/1312 24005KT CAVOK BECMG 1214/1216 BKN010=",
				"METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013=",
			},
		},
		{
			name: "trailing report without marker",
			text: "METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013= METAR ESSA 121250Z",
			want: []string{"METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013=", "METAR ESSA 121250Z"},
		},
		{name: "empty", text: " \n ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitReports(tt.text))
		})
	}
}

func TestHintFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	hf := addHintFlags(fs)
	require.NoError(t, fs.Parse([]string{"-zone", "strict", "-validity", "short", "-reference", "2024-03-12T13:00:00Z"}))

	h, err := hf.hints()
	require.NoError(t, err)
	assert.Equal(t, conversion.ZoneStrict, h.ZoneHandling)
	assert.Equal(t, conversion.ValidityShort, h.ValidityFormat)
	assert.True(t, h.CompleteTimes)
	assert.Equal(t, time.Date(2024, 3, 12, 13, 0, 0, 0, time.UTC), h.ReferenceTime)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	hf = addHintFlags(fs)
	require.NoError(t, fs.Parse([]string{"-reference", "noon"}))
	_, err = hf.hints()
	assert.Error(t, err)
}

func TestParseKindFlag(t *testing.T) {
	k, err := parseKindFlag("TAF")
	require.NoError(t, err)
	assert.Equal(t, model.KindTAF, k)

	k, err = parseKindFlag("")
	require.NoError(t, err)
	assert.Equal(t, model.KindUnknown, k)

	_, err = parseKindFlag("sigmet")
	assert.Error(t, err)
}

func TestDecodeReport(t *testing.T) {
	m, err := decodeReport(model.KindSPECI, []byte(`{"aerodrome":{"designator":"EFHK"}}`))
	require.NoError(t, err)
	require.IsType(t, &model.METAR{}, m)
	assert.Equal(t, model.KindSPECI, m.(*model.METAR).Kind)

	wrapped, err := decodeReport(model.KindTAF, []byte(`{"kind":"TAF","taf":{"aerodrome":{"designator":"ESSA"}}}`))
	require.NoError(t, err)
	require.IsType(t, &model.TAF{}, wrapped)
	assert.Equal(t, "ESSA", wrapped.(*model.TAF).Aerodrome.Designator)

	_, err = decodeReport(model.KindMETAR, []byte(`{`))
	assert.Error(t, err)
}

func TestIdentityLabel(t *testing.T) {
	seq, _, err := codec.New().Lex("METAR EFHK 121250Z XYZZY=", conversion.Hints{})
	require.NoError(t, err)
	lexemes := seq.Lexemes()
	require.Len(t, lexemes, 5)

	assert.Equal(t, "METAR_START", identityLabel(lexemes[0]))
	assert.Equal(t, "AERODROME_DESIGNATOR", identityLabel(lexemes[1]))
	assert.Equal(t, "ISSUE_TIME", identityLabel(lexemes[2]))
	assert.Equal(t, "-", identityLabel(lexemes[3]))
}
