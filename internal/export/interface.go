package export

import (
	"fmt"
	"io"
)

// Exporter defines the interface for all transcript formats
type Exporter interface {
	Export(transcript *Transcript, w io.Writer) error
	Extension() string
}

// Formats lists the names accepted by NewExporter
var Formats = []string{"txt", "md", "json", "jsonl", "yaml"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "txt", "text":
		return &TextExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, jsonl, yaml)", format)
	}
}
