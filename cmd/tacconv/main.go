// Command tacconv converts METAR, SPECI and TAF reports between TAC text
// and JSON, and runs the conversion HTTP API and NATS ingest service.
//
// Input for parse, lex and roundtrip is plain text: reports terminated by
// "=" may span lines; without any "=" every non-empty line is one report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tac_codec/internal/conversion"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "tacconv - commands:")
	fmt.Fprintln(w, "  parse      - parse TAC reports and output JSON")
	fmt.Fprintln(w, "  serialize  - write a JSON report object as TAC")
	fmt.Fprintln(w, "  lex        - show how each token is classified")
	fmt.Fprintln(w, "  roundtrip  - parse and reserialize, reporting differences")
	fmt.Fprintln(w, "  serve      - run the HTTP API")
	fmt.Fprintln(w, "  ingest     - consume raw reports from NATS")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tacconv parse -input reports.txt [-kind metar|speci|taf] [-zone strict] [-reference RFC3339] [-pretty] [-stats] [-archive tac.db]")
	fmt.Fprintln(w, "  tacconv serialize -kind metar|taf -input report.json [-validity long|short]")
	fmt.Fprintln(w, "  tacconv lex -input reports.txt [-trace]")
	fmt.Fprintln(w, "  tacconv roundtrip -input reports.txt [-diff-only]")
	fmt.Fprintln(w, "  tacconv serve")
	fmt.Fprintln(w, "  tacconv ingest")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "serve and ingest read their settings from the environment (HTTP_ADDR, NATS_URL, SQLITE_PATH, ...).")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "parse":
		runParse(os.Args[2:])
	case "serialize":
		runSerialize(os.Args[2:])
	case "lex":
		runLex(os.Args[2:])
	case "roundtrip":
		runRoundTrip(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "ingest":
		runIngest(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// hintFlags registers the conversion option flags shared by the text commands.
type hintFlags struct {
	zone      *string
	validity  *string
	reference *string
	complete  *bool
}

func addHintFlags(fs *flag.FlagSet) *hintFlags {
	return &hintFlags{
		zone:      fs.String("zone", "lenient", "Zone handling for time groups: strict or lenient"),
		validity:  fs.String("validity", "long", "TAF validity format on output: long or short"),
		reference: fs.String("reference", "", "Reference time (RFC 3339) for completing day/hour times"),
		complete:  fs.Bool("complete", false, "Complete times against the current time when no -reference is given"),
	}
}

func (f *hintFlags) hints() (conversion.Hints, error) {
	var h conversion.Hints
	var err error
	if h.ZoneHandling, err = conversion.ParseZoneHandling(*f.zone); err != nil {
		return h, err
	}
	if h.ValidityFormat, err = conversion.ParseValidityFormat(*f.validity); err != nil {
		return h, err
	}
	h.CompleteTimes = *f.complete
	if *f.reference != "" {
		ref, err := time.Parse(time.RFC3339, *f.reference)
		if err != nil {
			return h, fmt.Errorf("invalid -reference: %w", err)
		}
		h.CompleteTimes, h.ReferenceTime = true, ref.UTC()
	}
	return h, nil
}

// splitReports cuts text into reports. With end markers present, each
// "="-terminated block is a report and any trailing text is one more;
// otherwise every non-empty line is.
func splitReports(text string) []string {
	var out []string
	if strings.Contains(text, "=") {
		for _, part := range strings.SplitAfter(text, "=") {
			if r := strings.Join(strings.Fields(part), " "); r != "" && r != "=" {
				out = append(out, r)
			}
		}
		return out
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	return string(b), err
}

func openOutput(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Failed to create output: %v", err)
	}
	return f, func() { _ = f.Close() }
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
