package cmd

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iskng/imessage-exporter/internal"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// chatSummary is one row of the list output
type chatSummary struct {
	ID       int64
	Name     string
	Messages int
	Last     time.Time
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List conversations in an archive",
	Long: `List the conversations of an archive dump with their message counts and
the date of their latest message. The id column is accepted by
'show --chat' and 'export --chat'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := internal.OpenArchive(args[0],
			internal.WithOwnerName(conf.CustomName),
			internal.WithCallerID(conf.UseCallerID))
		if err != nil {
			return err
		}

		summaries, err := summarizeChats(cmd.Context(), archive, archive.Directory())
		if err != nil {
			return err
		}
		displayChats(cmd.OutOrStdout(), summaries)
		return nil
	},
}

// summarizeChats counts messages per chat, most recently active first
func summarizeChats(ctx context.Context, store internal.MessageStore, directory *internal.Directory) ([]chatSummary, error) {
	byID := lo.SliceToMap(directory.Chats(), func(c *internal.Chat) (int64, *chatSummary) {
		return c.RowID, &chatSummary{ID: c.RowID, Name: directory.ThreadName(c)}
	})

	for m, err := range store.Stream(ctx, internal.QueryFilter{}) {
		if err != nil {
			return nil, err
		}
		if m.ChatID == nil {
			continue
		}
		s, ok := byID[*m.ChatID]
		if !ok {
			continue
		}
		s.Messages++
		if m.Date.After(s.Last) {
			s.Last = m.Date
		}
	}

	summaries := lo.Map(lo.Values(byID), func(s *chatSummary, _ int) chatSummary { return *s })
	slices.SortFunc(summaries, func(a, b chatSummary) int {
		if c := b.Last.Compare(a.Last); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

func displayChats(out io.Writer, summaries []chatSummary) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No conversations found"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d conversation(s)", len(summaries))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Last Message")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, s := range summaries {
		name := s.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}

		last := dateStyle.Render("—")
		if !s.Last.IsZero() {
			last = dateStyle.Render(s.Last.Local().Format("2006-01-02 15:04"))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(s.ID, 10)), name, countStyle.Render(strconv.Itoa(s.Messages)), last)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
