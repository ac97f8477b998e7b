package cmd

import (
	"fmt"
	"os"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	conf       *internal.Config
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imessage-exporter",
	Short: "Render and export iMessage conversations",
	Long: `Render iMessage conversations into readable transcripts and export them
into a graph-capable store.

Messages are read from an archive dump, rendered the way the Messages app
shows them (reactions, replies, edits, app balloons, effects), and written
in batches to a sink: the embedded store, an HTTP peer or a Unix socket peer.
After the last batch the sink derives persons, threads and their relations.

Quick Start:
  imessage-exporter list archive.jsonl              # List conversations
  imessage-exporter show archive.jsonl --chat 3     # Render one conversation
  imessage-exporter export archive.jsonl            # Export into the embedded store
  imessage-exporter serve --transport socket        # Run a socket peer

Configuration is read from the environment (and a .env file): DBPATH,
DBUSER, DBPASS, DBREMOTE, TLS_CERT, TLS_KEY, EXPORT_SINK, EXPORT_BATCH_SIZE.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)

		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		conf = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
