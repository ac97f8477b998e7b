package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlEntry struct {
	UniqueChatID string `json:"unique_chat_id"`
	Entry
}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(transcript *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, entry := range transcript.Entries {
		if err := enc.Encode(jsonlEntry{UniqueChatID: transcript.UniqueChatID, Entry: entry}); err != nil {
			return fmt.Errorf("failed to encode message %s: %w", entry.GUID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
