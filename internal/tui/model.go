package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"evolve/internal/domain"
	"evolve/internal/service"
)

// AskPort is the TUI-facing subset of the query pipeline.
type AskPort interface {
	Query(ctx context.Context, req service.QueryRequest) (service.QueryResult, error)
}

type answerMsg struct {
	question string
	result   service.QueryResult
	err      error
}

// Model is the Bubble Tea model for the question/answer browser.
type Model struct {
	port     AskPort
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	level    int
	result   *service.QueryResult
	question string
	status   string
	cursor   int
	busy     bool
	ready    bool
}

// New creates a model that asks port with the given per-question timeout.
func New(port AskPort, programLevel string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	level := 0
	for i, l := range domain.ProgramLevels {
		if l == programLevel {
			level = i
		}
	}
	return Model{
		port:     port,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		level:    level,
		status:   "Ready. Tab changes program level.",
	}
}

// ProgramLevel returns the level questions are asked at.
func (m Model) ProgramLevel() string { return domain.ProgramLevels[m.level] }

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	level := m.ProgramLevel()
	return func() tea.Msg {
		ctx := context.Background()
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		res, err := m.port.Query(ctx, service.QueryRequest{Question: q, ProgramLevel: level})
		return answerMsg{question: q, result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, level, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			res := msg.result
			m.result = &res
			m.question = msg.question
			m.cursor = 0
			m.status = fmt.Sprintf("%d sources for %q", len(res.Sources), msg.question)
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, tea.Batch(m.ask(q), m.spinner.Tick)
			}
			return m, nil
		case "tab":
			m.level = (m.level + 1) % len(domain.ProgramLevels)
			return m, nil
		case "down":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.result.Sources)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.result.Sources)) % len(m.result.Sources)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Evolve Knowledge Engine")
	level := dimStyle.Render("level: " + m.ProgramLevel())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + level + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.result == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(highlightBestSentence(m.result.Answer, m.question))
	if len(m.result.Sources) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Sources (up/down to select)"))
	for i, s := range m.result.Sources {
		line := fmt.Sprintf("%s  [%s]  score=%.3f", s.Title, s.Source, s.Score)
		if len(s.Tags) > 0 {
			line += "  " + strings.Join(s.Tags, ", ")
		}
		if i == m.cursor {
			line = highlightStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the answer sentence sharing the most
// words with the question.
func highlightBestSentence(text, question string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(question)
	if len(qTokens) == 0 {
		return strings.Join(trimAll(sentences), " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences = trimAll(sentences)
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
