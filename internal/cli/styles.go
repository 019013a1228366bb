package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/docdesk/internal/service"
	"golang.org/x/term"
)

// Theme holds the terminal color scheme.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Speaker lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Speaker: lipgloss.Color("#D7AF5F"), // amber
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) speakerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Speaker).Bold(true)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// notifyFailure writes the single user-facing notification for a failed action.
func notifyFailure(w io.Writer, action string, err error) {
	title := service.FailureTitle(action, err)
	msg := service.UserMessage(err)
	if isTerminal(w) {
		title = defaultTheme.errorStyle().Render(title)
	}
	fmt.Fprintf(w, "%s: %s\n", title, msg)
	if logger != nil {
		logger.Debug("action failed", "action", action, "error", err)
	}
}

// reportedError marks an error whose notification has already been shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail notifies the user and returns an error that exits non-zero without a second message.
func fail(w io.Writer, action string, err error) error {
	notifyFailure(w, action, err)
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
