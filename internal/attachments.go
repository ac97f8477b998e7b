package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._+@-]`)

// SafeFileName maps an archive-supplied identifier to a single path element.
// Separators and other unsafe characters become "_"; an empty name becomes
// "unknown".
func SafeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// DisplayPathManager resolves attachments to display paths without copying
// them. Paths under Root are shown relative to it.
type DisplayPathManager struct {
	Root string
	// HandwritingDir, when set, receives handwritten notes as text files
	HandwritingDir string
}

// NewDisplayPathManager creates a DisplayPathManager
func NewDisplayPathManager(root, handwritingDir string) *DisplayPathManager {
	return &DisplayPathManager{
		Root:           expandHome(root),
		HandwritingDir: handwritingDir,
	}
}

// Resolve implements AttachmentManager
func (m *DisplayPathManager) Resolve(a *Attachment, msg *RawMessage) (string, error) {
	if a.Filename == "" {
		return "", fmt.Errorf("attachment %d of %s has no filename", a.RowID, msg.GUID)
	}

	path := expandHome(a.Filename)
	if m.Root != "" {
		if rel, err := filepath.Rel(m.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel, nil
		}
	}
	return path, nil
}

// ExportHandwriting implements HandwritingExporter
func (m *DisplayPathManager) ExportHandwriting(b *HandwrittenBalloon, msg *RawMessage) (string, error) {
	if m.HandwritingDir == "" {
		return "", fmt.Errorf("handwriting export disabled")
	}
	if err := os.MkdirAll(m.HandwritingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create handwriting directory: %w", err)
	}

	name := SafeFileName(firstNonEmpty(b.ID, msg.GUID))
	path := filepath.Join(m.HandwritingDir, name+".txt")
	if err := os.WriteFile(path, []byte(b.Preview), 0644); err != nil {
		return "", fmt.Errorf("failed to write handwriting: %w", err)
	}
	return path, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
