package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"tac_codec/internal/codec"
	"tac_codec/internal/lexeme"
	"tac_codec/internal/registry"
)

func runLex(args []string) {
	fs := flag.NewFlagSet("lex", flag.ExitOnError)
	inPath := fs.String("input", "", "Input text file (default: stdin)")
	trace := fs.Bool("trace", false, "Output the full classifier trace as JSON")
	hf := addHintFlags(fs)
	_ = fs.Parse(args)

	hints, err := hf.hints()
	if err != nil {
		fatalf("%v", err)
	}
	text, err := readInput(*inPath)
	if err != nil {
		fatalf("Failed to read input: %v", err)
	}

	conv := codec.New()
	var traces [][]*registry.TokenTrace
	for _, tac := range splitReports(text) {
		seq, tr, err := conv.Lex(tac, hints)
		if err != nil {
			fatalf("Lex error: %v", err)
		}
		if *trace {
			traces = append(traces, tr)
			continue
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTOKEN\tIDENTITY\tSTATUS\tCERTAINTY\tMESSAGE")
		for _, l := range seq.Lexemes() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%s\n",
				l.Index(), l.TACToken(), identityLabel(l), l.Status(), l.Certainty(), l.Message())
		}
		_ = tw.Flush()
		fmt.Println()
	}

	if *trace {
		enc, err := marshalJSON(traces, true)
		if err != nil {
			fatalf("JSON encode error: %v", err)
		}
		fmt.Println(string(enc))
	}
}

// identityLabel is the identity column of the lex table, "-" for tokens no
// classifier recognized.
func identityLabel(l *lexeme.Lexeme) string {
	if !l.IsRecognized() {
		return "-"
	}
	return l.Identity().String()
}
