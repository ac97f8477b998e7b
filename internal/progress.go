package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const (
	barWidth          = 40
	progressDrawEvery = 99
	progressLogEvery  = 10000
)

// ProgressReporter observes export progress. It never affects the result of a run.
type ProgressReporter interface {
	Start(total int)
	Advance(n int)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)   {}
func (nopProgress) Advance(int) {}
func (nopProgress) Finish()     {}

// ExportProgress draws a progress bar on a terminal and logs periodic
// counts otherwise
type ExportProgress struct {
	w       io.Writer
	tty     bool
	total   int
	current int
	started time.Time
}

// NewExportProgress creates a reporter writing to w
func NewExportProgress(w io.Writer) *ExportProgress {
	return &ExportProgress{w: w, tty: isTerminal(w)}
}

// Start implements ProgressReporter
func (p *ExportProgress) Start(total int) {
	p.total = total
	p.current = 0
	p.started = time.Now()
	LogInfo("Exporting %s messages", humanize.Comma(int64(total)))
	if p.tty {
		p.draw()
	}
}

// Advance implements ProgressReporter
func (p *ExportProgress) Advance(n int) {
	p.current += n
	switch {
	case p.tty && (p.current%progressDrawEvery == 0 || p.current == p.total):
		p.draw()
	case !p.tty && p.current%progressLogEvery == 0:
		LogInfo("Exported %s/%s messages", humanize.Comma(int64(p.current)), humanize.Comma(int64(p.total)))
	}
}

// Finish implements ProgressReporter
func (p *ExportProgress) Finish() {
	if p.tty {
		p.draw()
		_, _ = fmt.Fprintln(p.w)
	}
	LogInfo("Processed %s messages in %s", humanize.Comma(int64(p.current)), time.Since(p.started).Round(time.Millisecond))
}

func (p *ExportProgress) draw() {
	_, _ = fmt.Fprintf(p.w, "\r%s", renderBar(p.current, p.total))
}

func renderBar(current, total int) string {
	ratio := 1.0
	if total > 0 {
		ratio = float64(current) / float64(total)
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * barWidth)
	bar := barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s/%s (%d%%)", bar,
		humanize.Comma(int64(current)), humanize.Comma(int64(total)), int(ratio*100))
}

// ShowProgress runs fn behind a spinner on a terminal, otherwise it logs the message and runs fn
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo("%s", message)
		return fn()
	}
	return showSpinner(ctx, message, fn)
}

// showSpinner draws a text spinner with elapsed time until fn returns
func showSpinner(ctx context.Context, message string, fn func() error) error {
	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})
	start := time.Now()

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				elapsed := time.Since(start).Round(100 * time.Millisecond)
				fmt.Fprintf(os.Stderr, "\r%s %s (%s)", progressStyle.Render(char), message, elapsed)
				i++
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		close(stop)
		<-spinnerDone
		if err != nil {
			fmt.Fprintf(os.Stderr, "\r%s %s\n", errorStyle.Render("✗"), message)
			return err
		}
		fmt.Fprintf(os.Stderr, "\r%s %s (%s)\n", successStyle.Render("✓"), message, time.Since(start).Round(time.Millisecond))
		return nil
	case <-ctx.Done():
		close(stop)
		<-spinnerDone
		return ctx.Err()
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Println(message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}

// FormatStats renders a one-line summary of an export run
func FormatStats(stats *ExportStats) string {
	summary := fmt.Sprintf("%s of %s messages exported in %d batch(es)",
		humanize.Comma(int64(stats.Exported)), humanize.Comma(int64(stats.Total)), stats.Batches)
	if stats.RenderFailures > 0 {
		summary += fmt.Sprintf(", %s failed to render", humanize.Comma(int64(stats.RenderFailures)))
	}
	if g := stats.Graph; g != nil {
		summary += fmt.Sprintf("; graph: %s persons, %s threads created",
			humanize.Comma(int64(g.PersonsCreated)), humanize.Comma(int64(g.ThreadsCreated)))
	}
	return summary
}
