package export

import (
	"fmt"
	"io"
)

// TextExporter writes the rendered messages as plain text
type TextExporter struct{}

// Export writes the title followed by each rendered message
func (e *TextExporter) Export(transcript *Transcript, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", transcript.Title()); err != nil {
		return err
	}
	for _, entry := range transcript.Entries {
		if _, err := fmt.Fprintf(w, "%s\n\n", entry.Text); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}
