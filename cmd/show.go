package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/spf13/cobra"
)

var (
	showChat  int64
	showGUID  string
	showLimit int
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <archive>",
	Short: "Render messages from an archive",
	Long: `Render messages from an archive dump to the terminal, the way they appear
in exported transcripts.

Reactions and replies are shown under the message they belong to, so only
top-level messages are listed. Use --guid to render a single message.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := internal.OpenArchive(args[0],
			internal.WithOwnerName(conf.CustomName),
			internal.WithCallerID(conf.UseCallerID))
		if err != nil {
			return err
		}

		renderer := internal.NewMessageRenderer(archive.Directory(), internal.NewJSONPayloadDecoder(),
			internal.NewDisplayPathManager(conf.AttachmentRoot, ""),
			internal.WithCustomName(conf.CustomName))

		filter := internal.QueryFilter{}
		if showChat != 0 {
			filter.ChatIDs = []int64{showChat}
		}
		return showMessages(cmd.Context(), cmd.OutOrStdout(), archive, renderer, filter)
	},
}

func showMessages(ctx context.Context, w io.Writer, store internal.MessageStore, renderer internal.Renderer, filter internal.QueryFilter) error {
	shown := 0
	for m, err := range store.Stream(ctx, filter) {
		if err != nil {
			return err
		}
		if showGUID != "" {
			if m.GUID != showGUID {
				continue
			}
		} else if m.IsReaction() || m.IsReply() {
			continue
		}

		rendered, err := renderer.Render(m)
		if err != nil {
			internal.LogWarn("Skipping message %s: %v", m.GUID, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\n\n", strings.TrimRight(rendered, "\n"))

		shown++
		if showGUID != "" || (showLimit > 0 && shown >= showLimit) {
			break
		}
	}

	if showGUID != "" && shown == 0 {
		return fmt.Errorf("message not found: %s", showGUID)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Int64Var(&showChat, "chat", 0, "Only show messages from this chat id")
	showCmd.Flags().StringVar(&showGUID, "guid", "", "Render the message with this GUID")
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Show at most this many messages (0 for all)")
}
