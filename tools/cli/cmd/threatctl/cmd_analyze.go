package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rakshak/pkg/inference"
	"rakshak/pkg/risk"
	"rakshak/pkg/threatgw"
)

type analyzeFlags struct {
	category    string
	title       string
	description string
	text        string
	url         string
	telemetry   string
	summary     bool
}

func newAnalyzeCmd(root *rootFlags) *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one incident and print the risk assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := loadGateway(cmd, root)
			if err != nil {
				return err
			}
			in := threatgw.Incident{
				Title:        flags.title,
				Description:  flags.description,
				EvidenceText: flags.text,
				EvidenceURL:  flags.url,
			}
			if flags.telemetry != "" {
				if in.Telemetry, err = readTelemetry(cmd.InOrStdin(), flags.telemetry); err != nil {
					return err
				}
			}
			a, err := gw.Analyze(cmd.Context(), flags.category, in)
			if err != nil {
				return err
			}
			if flags.summary {
				return writeSummary(cmd.OutOrStdout(), a)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.category, "category", "", "incident category (required)")
	f.StringVar(&flags.title, "title", "", "incident title")
	f.StringVar(&flags.description, "description", "", "incident description")
	f.StringVar(&flags.text, "text", "", "evidence text")
	f.StringVar(&flags.url, "url", "", "evidence URL")
	f.StringVar(&flags.telemetry, "telemetry", "", "JSON file with the structured telemetry record, - for stdin")
	f.BoolVar(&flags.summary, "summary", false, "print a short human-readable summary instead of JSON")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

// readTelemetry decodes the record at path, or from stdin when path is "-".
func readTelemetry(stdin io.Reader, path string) (map[string]any, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open telemetry: %w", err)
		}
		defer f.Close()
		r = f
	}
	var out map[string]any
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode telemetry %s: %w", path, err)
	}
	return out, nil
}

func writeSummary(w io.Writer, a *risk.Assessment) error {
	fmt.Fprintf(w, "Severity: %s  Score: %.4f  (heuristic tier %s)\n", a.Severity, a.RiskScore, a.HeuristicTier)
	if len(a.MatchedKeywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(a.MatchedKeywords, ", "))
	}
	for _, f := range a.Findings {
		if f.Failed() {
			fmt.Fprintf(w, "  %-18s %s: %s\n", f.Family, f.ErrorKind, f.Error)
			continue
		}
		fmt.Fprintf(w, "  %-18s %-10s %.4f", f.Family, f.Label, f.Confidence)
		var parts []string
		for _, c := range inference.SortedClasses(f.Probabilities) {
			parts = append(parts, fmt.Sprintf("%s=%.4f", c, f.Probabilities[c]))
		}
		fmt.Fprintf(w, "  [%s]\n", strings.Join(parts, " "))
	}
	for i, r := range a.Recommendations {
		fmt.Fprintf(w, "%d. %s\n", i+1, r)
	}
	return nil
}
