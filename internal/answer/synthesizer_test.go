package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
	limits  []int
}

func (f *fakeGenerator) Name() string  { return "fake" }
func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.limits = append(f.limits, maxTokens)
	return f.reply, f.err
}

func matches() []domain.Match {
	return []domain.Match{
		{ID: "a_0", Score: 0.9, Metadata: domain.Metadata{Title: "Chakras", Text: "The root chakra grounds."}},
		{ID: "b_0", Score: 0.5, Metadata: domain.Metadata{Text: "Untitled text."}},
	}
}

func TestPersonaFor(t *testing.T) {
	assert.Contains(t, PersonaFor("beginner"), "compassionate guide")
	assert.Contains(t, PersonaFor("intermediate"), "knowledgeable teacher")
	assert.Contains(t, PersonaFor("advanced"), "master philosopher")
	assert.Equal(t, PersonaFor("beginner"), PersonaFor("expert"))
	assert.Equal(t, PersonaFor("beginner"), PersonaFor(""))
}

func TestBuildContext(t *testing.T) {
	got := BuildContext(matches())

	assert.Equal(t, "[Source: Chakras]\nThe root chakra grounds.\n\n[Source: Unknown]\nUntitled text.", got)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("What is grounding?", matches(), "advanced")

	assert.True(t, strings.HasPrefix(p, PersonaFor("advanced")))
	assert.Contains(t, p, "CONTEXT:\n[Source: Chakras]")
	assert.Contains(t, p, "QUESTION:\nWhat is grounding?")
	assert.Contains(t, p, "1. Directly addresses the question")
	assert.Contains(t, p, "4. Maintains the appropriate depth for the advanced level")
	assert.True(t, strings.HasSuffix(p, "ANSWER:"))
	assert.Less(t, strings.Index(p, "Chakras"), strings.Index(p, "Untitled text."))
}

func TestSynthesize_ReturnsGeneratorText(t *testing.T) {
	gen := &fakeGenerator{reply: "Breathe and feel your feet."}
	s := NewSynthesizer(gen, 0, nil)

	got, err := s.Synthesize(context.Background(), "How do I ground?", matches(), "beginner")

	require.NoError(t, err)
	assert.Equal(t, "Breathe and feel your feet.", got)
	require.Len(t, gen.limits, 1)
	assert.Equal(t, DefaultMaxTokens, gen.limits[0])
	assert.Contains(t, gen.prompts[0], "How do I ground?")
}

func TestSynthesize_PropagatesGenerationError(t *testing.T) {
	s := NewSynthesizer(&fakeGenerator{err: errors.New("overloaded")}, 100, nil)

	_, err := s.Synthesize(context.Background(), "q", matches(), "beginner")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeneration))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestSynthesize_RejectsEmptyMatches(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}

	_, err := NewSynthesizer(gen, 0, nil).Synthesize(context.Background(), "q", nil, "beginner")

	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Empty(t, gen.prompts)
}

func TestSynthesize_ExtractsWithoutGenerator(t *testing.T) {
	got, err := NewSynthesizer(nil, 0, nil).Synthesize(context.Background(), "What does the root chakra do?", matches(), "beginner")

	require.NoError(t, err)
	assert.Equal(t, "The root chakra grounds. Untitled text.", got)
}
