// Package output renders task views for the terminal and as HTML.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"tasker/internal/service"
	"tasker/internal/tasks"
)

// TimeLayout is used for created/completed dates.
const TimeLayout = "2006-01-02 15:04"

// FormatTime formats t in the local time zone.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Text renders views as plain or colored terminal text.
type Text struct {
	r *lipgloss.Renderer

	header    lipgloss.Style
	completed lipgloss.Style
	muted     lipgloss.Style
}

// NewText creates a text renderer for w. Colors are used only when w is a
// terminal that supports them.
func NewText(w io.Writer) *Text {
	return newText(lipgloss.NewRenderer(w))
}

// NewPlainText creates a text renderer that never emits escape sequences.
func NewPlainText(w io.Writer) *Text {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return newText(r)
}

func newText(r *lipgloss.Renderer) *Text {
	muted := lipgloss.AdaptiveColor{Light: "240", Dark: "243"}
	return &Text{
		r:         r,
		header:    r.NewStyle().Bold(true),
		completed: r.NewStyle().Strikethrough(true).Foreground(muted),
		muted:     r.NewStyle().Foreground(muted),
	}
}

// View writes the header line followed by one line per task, or the empty
// placeholder.
func (t *Text) View(w io.Writer, v tasks.View) {
	t.Header(w, v)
	if v.Empty() {
		t.Placeholder(w)
		return
	}
	for _, task := range v.Tasks {
		t.Task(w, task)
	}
}

// Header writes the user, the filter and the task counts on one line.
func (t *Text) Header(w io.Writer, v tasks.View) {
	done, pending := v.Counts()
	who := sanitize(v.Email)
	if who == "" {
		who = "(unknown user)"
	}
	fmt.Fprintln(w, t.header.Render(fmt.Sprintf("%s  [%s]  %d completed, %d pending", who, v.Filter, done, pending)))
}

// Placeholder writes the empty list message.
func (t *Text) Placeholder(w io.Writer) {
	fmt.Fprintln(w, t.muted.Render(tasks.EmptyMessage))
}

// Task formats a task line.
// Format: "{ID:>4}  [x] {TITLE}\n", followed by the description indented by
// ten spaces when present.
func (t *Text) Task(w io.Writer, task service.Task) {
	title := normalizeTitle(task.Title)
	mark := " "
	if task.Completed {
		mark = "x"
		title = t.completed.Render(title)
	}
	fmt.Fprintf(w, "%4d  [%s] %s\n", task.ID, mark, title)
	if desc := strings.TrimSpace(sanitize(task.Description)); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "          %s\n", t.muted.Render(strings.TrimRight(line, "\r")))
		}
	}
}

// Detail writes every field of a task, one per line.
func (t *Text) Detail(w io.Writer, task service.Task) {
	status := "pending"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "id:          %d\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "status:      %s\n", status)
	fmt.Fprintf(w, "created:     %s\n", FormatTime(task.CreatedAt))
	if task.CompletedAt != nil {
		fmt.Fprintf(w, "completed:   %s\n", FormatTime(*task.CompletedAt))
	}
	if desc := strings.TrimSpace(sanitize(task.Description)); desc != "" {
		fmt.Fprintln(w, "description:")
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

// normalizeTitle normalizes a task title for display.
// - Escape sequences and control characters are removed
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	title = sanitize(title)

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// sanitize removes terminal escape sequences and C0 control characters
// from server-provided text. Newlines, carriage returns and tabs are kept
// for the line handling of the callers.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, ansi.Strip(s))
}
