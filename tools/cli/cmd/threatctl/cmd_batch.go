package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rakshak/pkg/threatgw"
)

const maxLineBytes = 4 << 20

type batchRecord struct {
	Category string `json:"category"`
	threatgw.Incident
}

type batchError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func newBatchCmd(root *rootFlags) *cobra.Command {
	var (
		inPath  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze JSON-lines incidents concurrently, writing results in input order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := loadGateway(cmd, root)
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if inPath != "-" {
				f, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			lines, err := readLines(r)
			if err != nil {
				return err
			}
			results, err := runBatch(cmd.Context(), gw, lines, workers)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, res := range results {
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&inPath, "in", "-", "JSON-lines input file, - for stdin")
	f.IntVar(&workers, "workers", runtime.NumCPU(), "concurrent analyses")
	return cmd
}

func readLines(r io.Reader) ([][]byte, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	var out [][]byte
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}

// runBatch analyzes every non-blank line. Malformed lines yield an error
// record in place; a dispatch error aborts the batch.
func runBatch(ctx context.Context, gw *threatgw.Gateway, lines [][]byte, workers int) ([]any, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]any, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		g.Go(func() error {
			var rec batchRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				results[i] = batchError{Line: i + 1, Error: err.Error()}
				return nil
			}
			a, err := gw.Analyze(gctx, rec.Category, rec.Incident)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
