package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/export"
	"github.com/iskng/imessage-exporter/internal/sink"
	"github.com/spf13/cobra"
)

const sinkNone = "none"

var (
	exportSink      string
	exportFormat    string
	outputDir       string
	exportBatchSize int
	exportStart     string
	exportEnd       string
	exportChats     []int64
	customName      string
	attachmentRoot  string
	skipManifest    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <archive>",
	Short: "Export messages to a sink and transcript files",
	Long: `Render every message of an archive dump and write the resulting records to
a sink in batches, then derive the person/thread graph.

Sinks: embedded (local store, DBPATH selects the directory or "remote"),
http (DBPATH or http://localhost:3000), socket (DBPATH or the socket path),
none (render only).

With --format, one transcript file per conversation is also written to the
output directory (txt, md, json, jsonl, yaml).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := exportSink
		if kind == "" {
			kind = conf.Sink
		}
		applyExportFlags(cmd)

		filter, err := parseFilter(exportStart, exportEnd, exportChats)
		if err != nil {
			return err
		}

		// Validate the format before touching the archive
		var collector *export.TranscriptCollector
		if exportFormat != "" {
			exporter, err := export.NewExporter(exportFormat)
			if err != nil {
				return err
			}
			collector = export.NewTranscriptCollector(exporter, outputDir, conf.CustomName)
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := internal.SetLogFile(filepath.Join(outputDir, "db_export.log")); err != nil {
			internal.LogWarn("Failed to open log file: %v", err)
		}
		defer func() { _ = internal.CloseLogFile() }()

		archive, err := internal.OpenArchive(args[0],
			internal.WithOwnerName(conf.CustomName),
			internal.WithCallerID(conf.UseCallerID))
		if err != nil {
			return err
		}
		directory := archive.Directory()

		attachments := internal.NewDisplayPathManager(conf.AttachmentRoot, filepath.Join(outputDir, "attachments"))
		renderer := internal.NewMessageRenderer(directory, internal.NewJSONPayloadDecoder(), attachments,
			internal.WithCustomName(conf.CustomName))
		builder := internal.NewRecordBuilder(directory, attachments, conf.Platform)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []internal.PipelineOption{
			internal.WithBatchSize(conf.BatchSize),
			internal.WithProgress(internal.NewExportProgress(os.Stderr)),
		}
		if collector != nil {
			opts = append(opts, internal.WithObserver(collector))
		}

		target := ""
		if kind != sinkNone {
			s, err := sink.New(ctx, kind, conf)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil {
					internal.LogWarn("Failed to close sink: %v", err)
				}
			}()
			target = sink.Target(kind, conf)
			opts = append(opts, internal.WithSink(s))
		}

		started := time.Now()
		stats, runErr := internal.NewPipeline(archive, renderer, builder, opts...).Run(ctx, filter)

		if collector != nil && runErr == nil {
			if err := collector.Close(); err != nil {
				runErr = err
			} else if n := len(collector.Files()); n > 0 {
				internal.PrintInfo(fmt.Sprintf("Wrote %d transcript(s) to %s", n, outputDir))
			}
		}

		if !skipManifest {
			recordRun(internal.RunRecord{
				StartedAt: started,
				Source:    archive.Path(),
				Sink:      kind,
				Target:    target,
				Format:    exportFormat,
				Stats:     statsOrEmpty(stats),
				Error:     errString(runErr),
			})
		}

		if runErr != nil {
			return runErr
		}
		internal.PrintSuccess("Export complete: " + internal.FormatStats(stats))
		if stats.RenderFailures > 0 {
			internal.PrintWarning(fmt.Sprintf("%d message(s) could not be rendered; see %s",
				stats.RenderFailures, filepath.Join(outputDir, "db_export.log")))
		}
		return nil
	},
}

// applyExportFlags lets explicitly set flags override the loaded config
func applyExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		conf.BatchSize = exportBatchSize
	}
	if flags.Changed("custom-name") {
		conf.CustomName = customName
	}
	if flags.Changed("attachment-root") {
		conf.AttachmentRoot = attachmentRoot
	}
}

// parseFilter builds a QueryFilter from YYYY-MM-DD bounds. The end date is
// inclusive.
func parseFilter(start, end string, chats []int64) (internal.QueryFilter, error) {
	filter := internal.QueryFilter{ChatIDs: chats}
	if start != "" {
		t, err := time.ParseInLocation(time.DateOnly, start, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --start date %q: %w", start, err)
		}
		filter.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --end date %q: %w", end, err)
		}
		filter.End = t.AddDate(0, 0, 1)
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && !filter.Start.Before(filter.End) {
		return filter, errors.New("--start must be before --end")
	}
	return filter, nil
}

func recordRun(run internal.RunRecord) {
	cacheDir, err := internal.DefaultCacheDir()
	if err != nil {
		internal.LogWarn("Failed to record run: %v", err)
		return
	}
	if err := internal.NewCacheManager(cacheDir).RecordRun(run); err != nil {
		internal.LogWarn("Failed to record run: %v", err)
	}
}

func statsOrEmpty(stats *internal.ExportStats) internal.ExportStats {
	if stats == nil {
		return internal.ExportStats{}
	}
	return *stats
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportSink, "sink", "s", "", "Sink to write to (embedded, http, socket, none); defaults to EXPORT_SINK")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Also write transcripts in this format (txt, md, json, jsonl, yaml)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory for transcripts and the export log")
	exportCmd.Flags().IntVar(&exportBatchSize, "batch-size", internal.DefaultBatchSize, "Records per sink insert")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "Only export messages on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "Only export messages on or before this date (YYYY-MM-DD)")
	exportCmd.Flags().Int64SliceVar(&exportChats, "chat", nil, "Only export these chat ids")
	exportCmd.Flags().StringVar(&customName, "custom-name", "", "Name used for messages you sent")
	exportCmd.Flags().StringVar(&attachmentRoot, "attachment-root", "", "Directory attachment paths are resolved against")
	exportCmd.Flags().BoolVar(&skipManifest, "no-history", false, "Do not record this run in the run history")
}
