package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Chat(ctx context.Context, message, endpoint, model string, selectedPaths []string) domain.Answer
}

// Options configures a chat session.
type Options struct {
	Endpoint string
	Model    string
	Selected []string
	Summary  string
}

type turn struct {
	question string
	answer   domain.Answer
}

type answerMsg struct {
	question string
	answer   domain.Answer
}

// Model is the Bubble Tea model for terminal chat.
type Model struct {
	service  ChatPort
	opts     Options
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	pending  bool
	ready    bool
}

// New creates a chat model bound to the given documents.
func New(ctx context.Context, service ChatPort, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		service:  service,
		opts:     opts,
		ctx:      ctx,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   fmt.Sprintf("%d document(s) selected. Ctrl+C to quit.", len(opts.Selected)),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, resize and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		m.turns = append(m.turns, turn(msg))
		m.status = fmt.Sprintf("%d source(s)", len(msg.answer.Sources))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.input.SetValue("")
			m.pending = true
			m.status = "Thinking..."
			return m, m.ask(q)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	svc, ctx, opts := m.service, m.ctx, m.opts
	return func() tea.Msg {
		answer := svc.Chat(ctx, question, opts.Endpoint, opts.Model, opts.Selected)
		return answerMsg{question: question, answer: answer}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PDF Chat")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.opts.Summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")
		b.WriteString(PlainText(t.answer.Answer))
		if len(t.answer.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(RenderSources(t.answer.Sources))
		}
	}
	return b.String()
}

// RenderSources lists sources one per line, numbered as cited.
func RenderSources(sources []domain.Source) string {
	lines := make([]string, len(sources))
	for i, s := range sources {
		lines[i] = sourceStyle.Render(fmt.Sprintf("[%d] %s  %.2f%%  %d page(s)",
			i+1, s.Name, s.SimilarityPercent, s.PageCount))
	}
	return strings.Join(lines, "\n")
}

// PlainText drops the HTML citation anchors so answers read cleanly in a terminal.
func PlainText(answer string) string {
	return htmlTagRe.ReplaceAllString(answer, "")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	htmlTagRe          = regexp.MustCompile(`<[^>]+>`)
)
