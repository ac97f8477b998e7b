package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(transcript.Title()))

	if transcript.Name != "" {
		_, _ = fmt.Fprintf(w, "**Chat:** %s  \n", transcript.UniqueChatID)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Entries))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, entry := range transcript.Entries {
		timestamp := ""
		if entry.Date != nil {
			timestamp = fmt.Sprintf(" (%s)", entry.Date.Format("2006-01-02 15:04:05"))
		}

		// Rendered text keeps its indentation, so it goes in a fenced block
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n```\n%s\n```\n\n", escapeMarkdown(entry.Sender), timestamp, fence(entry.Text))

		for _, path := range entry.Attachments {
			_, _ = fmt.Fprintf(w, "- `%s`\n", path)
		}
		if len(entry.Attachments) > 0 {
			_, _ = fmt.Fprintf(w, "\n")
		}

		if i < len(transcript.Entries)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	return strings.ReplaceAll(text, "__", "\\_\\_")
}

// fence keeps message text from closing the surrounding code block
func fence(text string) string {
	return strings.ReplaceAll(text, "```", "` ` `")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
