package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/service"
)

type fakePort struct {
	reqs []service.QueryRequest
	res  service.QueryResult
	err  error
}

func (f *fakePort) Query(_ context.Context, req service.QueryRequest) (service.QueryResult, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestNew_StartsAtRequestedLevel(t *testing.T) {
	assert.Equal(t, "advanced", New(&fakePort{}, "advanced", 0).ProgramLevel())
	assert.Equal(t, "beginner", New(&fakePort{}, "bogus", 0).ProgramLevel())
}

func TestTabCyclesLevel(t *testing.T) {
	m := New(&fakePort{}, "advanced", 0)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "beginner", next.(Model).ProgramLevel())
}

func TestEnterAsksAndRendersAnswer(t *testing.T) {
	port := &fakePort{res: service.QueryResult{
		Answer: "Ground yourself. Breathe slowly.",
		Sources: []service.Source{
			{Title: "Root", Source: "root.md", Score: 0.9, Tags: []string{"root"}},
			{Title: "Breath", Source: "breath.md", Score: 0.7},
		},
	}}
	m := sized(New(port, "intermediate", 0))
	m = typeText(m, "how do I breathe")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	msg := m.ask("how do I breathe")()
	next, _ = m.Update(msg)
	m = next.(Model)

	require.Len(t, port.reqs, 1)
	assert.Equal(t, service.QueryRequest{Question: "how do I breathe", ProgramLevel: "intermediate"}, port.reqs[0])
	assert.False(t, m.busy)
	require.NotNil(t, m.result)
	out := m.renderAnswer()
	assert.Contains(t, out, "Ground yourself.")
	assert.Contains(t, out, "Root  [root.md]  score=0.900  root")
	assert.Contains(t, out, "Breath  [breath.md]")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, next.(Model).cursor)
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, next.(Model).cursor)
}

func TestAnswerErrorShowsStatus(t *testing.T) {
	m := sized(New(&fakePort{}, "beginner", 0))

	next, _ := m.Update(answerMsg{question: "q", err: errors.New("generation failed")})

	m = next.(Model)
	assert.Nil(t, m.result)
	assert.True(t, strings.HasPrefix(m.status, "Error: generation failed"))
	assert.Equal(t, "No answer yet.", m.renderAnswer())
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Cats sleep. Breathing calms the mind.", "breathing")

	assert.Contains(t, out, "Cats sleep.")
	assert.Contains(t, out, "Breathing calms the mind.")
	assert.Equal(t, "", highlightBestSentence("", "q"))
	assert.Equal(t, "One. Two.", highlightBestSentence("One. Two.", ""))
}
