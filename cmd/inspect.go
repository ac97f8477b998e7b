package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/iskng/imessage-exporter/internal/store"
	"github.com/spf13/cobra"
)

var inspectSampleRows int

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the export store",
	Long: `Inspect the store the embedded sink writes to, selected by DBPATH.

For each collection (persons, threads, messages, sent, messaged_in,
in_thread) the row count and a few sample rows are shown.

Examples:
  imessage-exporter inspect                  # Inspect the default store
  DBPATH=./db imessage-exporter inspect      # Inspect a specific store directory
  imessage-exporter inspect --sample 5       # Show 5 sample rows per collection`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ep := store.ResolveEndpoint(conf)
		st, err := store.Open(cmd.Context(), ep)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() { _ = st.Close() }()

		return inspectStore(cmd.Context(), cmd.OutOrStdout(), st)
	},
}

func inspectStore(ctx context.Context, out io.Writer, st *store.Store) error {
	version, err := st.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == 0 {
		_, _ = fmt.Fprintf(out, "⚠️  Store at %s has no schema yet\n", st.Location())
		return nil
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return err
	}
	rowCounts := map[string]int{
		"persons":     counts.Persons,
		"threads":     counts.Threads,
		"messages":    counts.Messages,
		"sent":        counts.Sent,
		"messaged_in": counts.MessagedIn,
		"in_thread":   counts.InThread,
	}

	_, _ = fmt.Fprintf(out, "📋 Store: %s (%s, schema version %d)\n\n", st.Location(), st.Dialect(), version)

	for _, collection := range store.Collections {
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📦 Collection: %s\n", collection)
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📊 Rows: %d\n", rowCounts[collection])

		if rowCounts[collection] == 0 || inspectSampleRows <= 0 {
			_, _ = fmt.Fprintln(out)
			continue
		}

		sample, err := st.SampleCollection(ctx, collection, inspectSampleRows)
		if err != nil {
			_, _ = fmt.Fprintf(out, "⚠️  Error showing sample data: %v\n\n", err)
			continue
		}
		printSample(out, sample)
	}
	return nil
}

func printSample(out io.Writer, sample *store.Sample) {
	_, _ = fmt.Fprintf(out, "\n📄 Sample Data (first %d rows):\n", len(sample.Rows))
	for i, row := range sample.Rows {
		_, _ = fmt.Fprintf(out, "\n  Row %d:\n", i+1)
		for j, col := range sample.Columns {
			_, _ = fmt.Fprintf(out, "    %s: %s\n", col, formatValue(row[j]))
		}
	}
	_, _ = fmt.Fprintln(out)
}

// formatValue shows the first line of a value, truncated
func formatValue(val interface{}) string {
	if val == nil {
		return "<NULL>"
	}

	var s string
	if b, ok := val.([]byte); ok {
		s = string(b)
	} else {
		s = fmt.Sprintf("%v", val)
	}

	if first, _, found := strings.Cut(s, "\n"); found {
		s = first + "..."
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show per collection")
}
