package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"tac_codec/internal/codec"
	"tac_codec/internal/model"
	"tac_codec/internal/storage"
)

// Stats counts parse outcomes.
type Stats struct {
	Reports  int
	ByKind   map[model.Kind]int
	ByStatus map[string]int
	Issues   int
}

func (s *Stats) add(r *codec.Report) {
	s.Reports++
	s.ByKind[r.Kind]++
	s.ByStatus[string(r.Status)]++
	s.Issues += len(r.Issues)
}

func (s *Stats) String() string {
	statuses := make([]string, 0, len(s.ByStatus))
	for k, n := range s.ByStatus {
		statuses = append(statuses, fmt.Sprintf("%s=%d", k, n))
	}
	sort.Strings(statuses)
	return fmt.Sprintf("stats: reports=%d metar=%d speci=%d taf=%d issues=%d %s",
		s.Reports, s.ByKind[model.KindMETAR], s.ByKind[model.KindSPECI], s.ByKind[model.KindTAF],
		s.Issues, strings.Join(statuses, " "))
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	inPath := fs.String("input", "", "Input text file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	kindName := fs.String("kind", "", "Parse as metar, speci or taf instead of detecting the kind")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	showStats := fs.Bool("stats", false, "Print outcome counters to stderr")
	archive := fs.String("archive", "", "Also store the results in this SQLite archive")
	hf := addHintFlags(fs)
	_ = fs.Parse(args)

	hints, err := hf.hints()
	if err != nil {
		fatalf("%v", err)
	}
	kind, err := parseKindFlag(*kindName)
	if err != nil {
		fatalf("%v", err)
	}
	text, err := readInput(*inPath)
	if err != nil {
		fatalf("Failed to read input: %v", err)
	}

	var db *storage.SQLiteArchive
	if *archive != "" {
		db, err = storage.OpenSQLite(context.Background(), *archive)
		if err != nil {
			fatalf("Failed to open archive: %v", err)
		}
		defer db.Close()
	}

	conv := codec.New()
	st := &Stats{ByKind: map[model.Kind]int{}, ByStatus: map[string]int{}}
	out := make([]*codec.Report, 0, 64)
	for _, tac := range splitReports(text) {
		var r *codec.Report
		if kind == model.KindUnknown {
			r, err = conv.Parse(tac, hints)
		} else {
			r, err = conv.ParseAs(kind, tac, hints)
		}
		if err != nil {
			fatalf("Parse error: %v", err)
		}
		st.add(r)
		out = append(out, r)
		if db != nil {
			if err := db.Save(context.Background(), storage.NewRecord(r, time.Now())); err != nil {
				fmt.Fprintf(os.Stderr, "Archive error: %v\n", err)
			}
		}
	}

	w, done := openOutput(*outPath)
	defer done()
	enc, err := marshalJSON(out, *pretty)
	if err != nil {
		fatalf("JSON encode error: %v", err)
	}
	_, _ = w.Write(enc)
	if w == os.Stdout {
		_, _ = w.Write([]byte("\n"))
	}

	if *showStats {
		fmt.Fprintln(os.Stderr, st)
	}
}

func parseKindFlag(s string) (model.Kind, error) {
	switch strings.ToLower(s) {
	case "":
		return model.KindUnknown, nil
	case "metar":
		return model.KindMETAR, nil
	case "speci":
		return model.KindSPECI, nil
	case "taf":
		return model.KindTAF, nil
	}
	return model.KindUnknown, fmt.Errorf("unknown -kind %q (use metar, speci or taf)", s)
}
