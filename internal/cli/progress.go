package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/docdesk/internal/service"
)

const tickInterval = 150 * time.Millisecond

// tickMsg advances the indeterminate progress bar.
type tickMsg time.Time

// ingestDoneMsg carries the outcome of the extraction call.
type ingestDoneMsg struct {
	text string
	err  error
}

// ingestModel is the bubbletea model shown while a document is being processed.
type ingestModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	ingest   *service.IngestService
	session  *service.Session
	filename string
	progress progress.Model
	theme    Theme
	pct      float64
	started  time.Time
	done     bool
	quitting bool
	text     string
	err      error
}

func newIngestModel(ctx context.Context, ingest *service.IngestService, session *service.Session) ingestModel {
	ctx, cancel := context.WithCancel(ctx)
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	filename := ""
	if doc := session.Document(); doc != nil {
		filename = doc.Filename
	}
	return ingestModel{
		ctx:      ctx,
		cancel:   cancel,
		ingest:   ingest,
		session:  session,
		filename: filename,
		progress: prog,
		theme:    defaultTheme,
		started:  time.Now(),
	}
}

func (m ingestModel) Init() tea.Cmd {
	return tea.Batch(
		m.runIngest(),
		tickCmd(),
		m.progress.Init(),
	)
}

func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		// The gateway reports no progress; creep towards 90% until it answers.
		m.pct += (0.9 - m.pct) * 0.08
		return m, tickCmd()

	case ingestDoneMsg:
		m.done = true
		m.text = msg.text
		m.err = msg.err
		m.cancel()
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render("[processing]")
	bar := m.progress.ViewAs(m.pct)
	elapsed := time.Since(m.started).Truncate(100 * time.Millisecond)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s (%s)\n%s\n", status, bar, m.filename, elapsed, hint)
}

func (m ingestModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nProcessing cancelled.\n")
	}
	if m.err != nil {
		// Reported by the caller.
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.completedStyle().Render("✓ Document ready"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  File:       %s\n", m.filename)
	fmt.Fprintf(&b, "  Characters: %d\n", len([]rune(m.text)))
	return b.String()
}

func (m ingestModel) runIngest() tea.Cmd {
	return func() tea.Msg {
		text, err := m.ingest.Ingest(m.ctx, m.session)
		return ingestDoneMsg{text: text, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunIngestProgress processes the session's document behind an interactive progress bar.
// Cancelling with Ctrl+C aborts the extraction and returns context.Canceled.
func RunIngestProgress(ctx context.Context, ingest *service.IngestService, session *service.Session) (string, error) {
	model := newIngestModel(ctx, ingest, session)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(ingestModel)
	if !ok {
		return "", nil
	}
	if m.quitting {
		return "", context.Canceled
	}
	return m.text, m.err
}
