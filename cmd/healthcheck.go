package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/sink"
	"github.com/iskng/imessage-exporter/internal/store"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
	healthcheckSink    string
	healthcheckReset   bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the configured sink is reachable",
	Long: `Check the health of the exporter by verifying:
  • The effective configuration
  • The most recent export run
  • Sink reachability (store schema and counts, HTTP peer, or socket peer)

This command is useful for debugging sink configuration before a long export.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := healthcheckSink
		if kind == "" {
			kind = conf.Sink
		}
		cacheDir, err := internal.DefaultCacheDir()
		if err != nil {
			internal.LogWarn("%v", err)
		}
		checkErr := runHealthcheck(cmd.Context(), cmd.OutOrStdout(), kind, cacheDir)

		if healthcheckReset && cacheDir != "" {
			if err := internal.NewCacheManager(cacheDir).ClearCache(); err != nil {
				return fmt.Errorf("failed to clear run history: %w", err)
			}
			internal.PrintInfo("Run history cleared")
		}
		return checkErr
	},
}

func runHealthcheck(ctx context.Context, out io.Writer, kind, cacheDir string) error {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 iMessage Exporter Health Check"))
	_, _ = fmt.Fprintln(out)

	// Step 1: Configuration
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving configuration..."))
	target := sink.Target(kind, conf)
	if target == "" {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Unknown sink:"), kind)
		return fmt.Errorf("health check failed: unsupported sink %q", kind)
	}
	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Sink: %s → %s", kind, target)))
	if healthcheckDetails {
		_, _ = fmt.Fprintf(out, "   Batch size: %d\n", conf.BatchSize)
		_, _ = fmt.Fprintf(out, "   Platform: %s\n", conf.Platform)
		if conf.TLSCert != "" {
			_, _ = fmt.Fprintf(out, "   TLS certificate: %s\n", conf.TLSCert)
		}
	}
	_, _ = fmt.Fprintln(out)

	// Step 2: Run history
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Checking run history..."))
	printLastRun(out, cacheDir)
	_, _ = fmt.Fprintln(out)

	// Step 3: Sink
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Testing sink access..."))
	var err error
	switch kind {
	case sink.KindEmbedded:
		err = checkStore(ctx, out)
	case sink.KindHTTP:
		err = checkHTTPPeer(ctx, out, target)
	case sink.KindSocket:
		err = checkSocketPeer(ctx, out, target)
	}
	_, _ = fmt.Fprintln(out)

	// Summary
	_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		_, _ = fmt.Fprintf(out, "   • %v\n", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
	return nil
}

func printLastRun(out io.Writer, cacheDir string) {
	if cacheDir == "" {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No cache directory available"))
		return
	}
	run, err := internal.NewCacheManager(cacheDir).LastRun()
	switch {
	case err != nil:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Failed to read run history:"), err)
	case run == nil:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No export has been recorded yet"))
	case run.Error != "":
		_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  Last export %s failed: %s", humanize.Time(run.StartedAt), run.Error)))
	default:
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Last export %s", humanize.Time(run.StartedAt))))
		_, _ = fmt.Fprintf(out, "   %s\n", internal.FormatStats(&run.Stats))
		if healthcheckDetails {
			_, _ = fmt.Fprintf(out, "   Source: %s\n", run.Source)
			_, _ = fmt.Fprintf(out, "   Sink: %s %s\n", run.Sink, run.Target)
		}
	}
}

func checkStore(ctx context.Context, out io.Writer) error {
	st, err := store.Open(ctx, store.ResolveEndpoint(conf))
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to open store"))
		return err
	}
	defer func() { _ = st.Close() }()
	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Store reachable (%s)", st.Dialect())))

	version, err := st.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == 0 {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Schema not created yet; the next export will create it"))
		return nil
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s messages, %s persons, %s threads",
		humanize.Comma(int64(counts.Messages)), humanize.Comma(int64(counts.Persons)), humanize.Comma(int64(counts.Threads)))))
	if healthcheckDetails {
		_, _ = fmt.Fprintf(out, "   Schema version: %d\n", version)
		_, _ = fmt.Fprintf(out, "   Edges: %d sent, %d messaged_in, %d in_thread\n", counts.Sent, counts.MessagedIn, counts.InThread)
	}
	return nil
}

func checkHTTPPeer(ctx context.Context, out io.Writer, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := sink.NewHTTPSink(base, conf.TLSCert)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Health(ctx); err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ HTTP peer unreachable or unhealthy"))
		return err
	}
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ HTTP peer healthy at "+client.BaseURL()))
	return nil
}

func checkSocketPeer(ctx context.Context, out io.Writer, path string) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Socket peer unreachable"))
		return err
	}
	_ = conn.Close()
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ Socket peer accepting connections"))
	return nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckDetails, "details", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().StringVar(&healthcheckSink, "sink", "", "Sink to check (embedded, http, socket); defaults to EXPORT_SINK")
	healthcheckCmd.Flags().BoolVar(&healthcheckReset, "reset-history", false, "Clear the recorded export runs after checking")
}
