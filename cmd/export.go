package cmd

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/features"
)

var (
	exportFrom   string
	exportTo     string
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export feature vectors for model training",
	Long: `Build both perspectives of every stored match and write them as a dataset.

Each match yields two rows: label 1 with the winner first, label 0 with the
sides swapped. Features only use matches before the one being described.

Formats:
  jsonl  first line {"version":..., "labels":[...]}, then one object per row
  csv    header match_id,first,second,label,version,<labels...>

Example:
  matchelo export --from 20200101 --format csv --out train.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first match id (or prefix) to export")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "export only match ids sorting before this one")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "output format: jsonl or csv")
}

// datasetRow is one exported vector in jsonl form.
type datasetRow struct {
	MatchID string    `json:"match_id"`
	First   string    `json:"first"`
	Second  string    `json:"second"`
	Label   int       `json:"label"`
	Values  []float64 `json:"values"`
}

type datasetHeader struct {
	Version string   `json:"version"`
	Labels  []string `json:"labels"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "jsonl" && exportFormat != "csv" {
		return fmt.Errorf("unknown format %q: want jsonl or csv", exportFormat)
	}
	ctx := cmd.Context()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.MatchesFrom(ctx, exportFrom)
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	if exportTo != "" {
		n := 0
		for n < len(matches) && matches[n].MatchID < exportTo {
			n++
		}
		matches = matches[:n]
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "No matches in range.")
		return nil
	}

	b := newBuilder(newIndex(db))
	vectors, err := b.BuildAll(ctx, matches, cfg.Features.Workers)
	if err != nil {
		return fmt.Errorf("build features: %w", err)
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	if err := writeDataset(bw, exportFormat, b.Version(), b.Labels(), vectors); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d rows (%d features, version %s) to %s\n",
			len(vectors), len(b.Labels()), b.Version(), exportOut)
	}
	return nil
}

func writeDataset(w io.Writer, format, version string, labels []string, vectors []features.Vector) error {
	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		if err := enc.Encode(datasetHeader{Version: version, Labels: labels}); err != nil {
			return err
		}
		for _, v := range vectors {
			if err := enc.Encode(datasetRow{
				MatchID: v.MatchID, First: v.First, Second: v.Second, Label: v.Label, Values: v.Values,
			}); err != nil {
				return err
			}
		}
		return nil

	case "csv":
		cw := csv.NewWriter(w)
		header := append([]string{"match_id", "first", "second", "label", "version"}, labels...)
		if err := cw.Write(header); err != nil {
			return err
		}
		row := make([]string, len(header))
		for _, v := range vectors {
			row = row[:0]
			row = append(row, v.MatchID, v.First, v.Second, strconv.Itoa(v.Label), version)
			for _, x := range v.Values {
				row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return fmt.Errorf("unknown format %q", format)
}
