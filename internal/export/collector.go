package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/samber/lo"
)

// TranscriptCollector gathers the records a pipeline produces and writes one
// transcript file per thread when closed. It implements internal.RecordObserver.
type TranscriptCollector struct {
	exporter Exporter
	outDir   string
	self     string
	records  []*internal.TransportRecord
	files    []string
}

// NewTranscriptCollector creates a collector writing into outDir. self names
// the archive owner in transcripts.
func NewTranscriptCollector(exporter Exporter, outDir, self string) *TranscriptCollector {
	return &TranscriptCollector{exporter: exporter, outDir: outDir, self: self}
}

// Observe records one exported message
func (c *TranscriptCollector) Observe(rec *internal.TransportRecord) {
	c.records = append(c.records, rec)
}

// Transcripts groups the observed records by thread, in first-seen order
func (c *TranscriptCollector) Transcripts() []*Transcript {
	groups := lo.GroupBy(c.records, func(rec *internal.TransportRecord) string {
		return rec.UniqueChatID
	})
	order := lo.Uniq(lo.Map(c.records, func(rec *internal.TransportRecord, _ int) string {
		return rec.UniqueChatID
	}))

	return lo.Map(order, func(chatID string, _ int) *Transcript {
		return NewTranscript(chatID, groups[chatID], c.self)
	})
}

// Close writes every transcript and returns the first failure
func (c *TranscriptCollector) Close() error {
	if len(c.records) == 0 {
		return nil
	}
	if err := os.MkdirAll(c.outDir, 0755); err != nil {
		return &internal.ExportError{Path: c.outDir, Format: c.exporter.Extension(), Err: err}
	}

	taken := make(map[string]bool)
	for _, t := range c.Transcripts() {
		name := uniqueFileName(t.UniqueChatID, c.exporter.Extension(), taken)
		path := filepath.Join(c.outDir, name)
		if err := c.write(t, path); err != nil {
			return err
		}
		c.files = append(c.files, path)
		internal.LogDebug("Wrote %d messages to %s", len(t.Entries), path)
	}
	return nil
}

func (c *TranscriptCollector) write(t *Transcript, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Path: path, Format: c.exporter.Extension(), Err: err}
	}
	if err := c.exporter.Export(t, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Path: path, Format: c.exporter.Extension(), Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Path: path, Format: c.exporter.Extension(), Err: err}
	}
	return nil
}

// Files returns the paths written by Close
func (c *TranscriptCollector) Files() []string {
	return c.files
}

// FileName returns a filesystem-safe name for a thread's transcript
func FileName(uniqueChatID, ext string) string {
	return fmt.Sprintf("%s.%s", internal.SafeFileName(uniqueChatID), ext)
}

// uniqueFileName returns FileName for the thread, adding a numeric suffix
// when another thread of this run already sanitized to the same name
func uniqueFileName(uniqueChatID, ext string, taken map[string]bool) string {
	name := FileName(uniqueChatID, ext)
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s_%d.%s", internal.SafeFileName(uniqueChatID), i, ext)
	}
	taken[name] = true
	return name
}
