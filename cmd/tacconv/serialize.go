package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
)

func runSerialize(args []string) {
	fs := flag.NewFlagSet("serialize", flag.ExitOnError)
	inPath := fs.String("input", "", "Input JSON report object (default: stdin)")
	kindName := fs.String("kind", "", "Report kind: metar, speci or taf")
	hf := addHintFlags(fs)
	_ = fs.Parse(args)

	hints, err := hf.hints()
	if err != nil {
		fatalf("%v", err)
	}
	kind, err := parseKindFlag(*kindName)
	if err != nil || kind == model.KindUnknown {
		fatalf("serialize needs -kind metar, speci or taf")
	}
	data, err := readInput(*inPath)
	if err != nil {
		fatalf("Failed to read input: %v", err)
	}

	report, err := decodeReport(kind, []byte(data))
	if err != nil {
		fatalf("Invalid report JSON: %v", err)
	}
	tac, err := codec.New().Serialize(report, hints)
	if err != nil {
		var serr *conversion.SerializationError
		if errors.As(err, &serr) {
			fatalf("Cannot serialize: %v", serr)
		}
		fatalf("Serialize error: %v", err)
	}
	fmt.Fprintln(os.Stdout, tac)
}

// decodeReport reads either a bare report object or the output of parse
// (a report wrapper with "metar" or "taf").
func decodeReport(kind model.Kind, data []byte) (any, error) {
	var wrapped codec.Report
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if kind == model.KindTAF && wrapped.TAF != nil {
			return wrapped.TAF, nil
		}
		if kind != model.KindTAF && wrapped.METAR != nil {
			return wrapped.METAR, nil
		}
	}

	if kind == model.KindTAF {
		var t model.TAF
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	}
	var m model.METAR
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Kind == model.KindUnknown {
		m.Kind = kind
	}
	return &m, nil
}
