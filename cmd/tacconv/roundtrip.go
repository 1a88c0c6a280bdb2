package main

import (
	"flag"
	"fmt"
	"os"

	"tac_codec/internal/codec"
)

func runRoundTrip(args []string) {
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	inPath := fs.String("input", "", "Input text file (default: stdin)")
	diffOnly := fs.Bool("diff-only", false, "Only print reports that do not round-trip")
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
	var total, equal int
	for _, tac := range splitReports(text) {
		total++
		res, err := conv.RoundTrip(tac, hints)
		switch {
		case res == nil:
			fatalf("Parse error: %v", err)
		case err != nil:
			fmt.Printf("ERROR %s\n  %v\n", res.Input, err)
		case res.Equal:
			equal++
			if !*diffOnly {
				fmt.Printf("OK    %s\n", res.Input)
			}
		default:
			fmt.Printf("DIFF  %s\n   -> %s\n", res.Input, res.Output)
			for _, is := range res.Report.Issues {
				fmt.Printf("      %s\n", is)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "roundtrip: %d/%d equal\n", equal, total)
}
