// Package answer builds persona-conditioned prompts from retrieved chunks
// and asks the generator for the final answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"evolve/internal/domain"
	"evolve/internal/logging"
)

// DefaultMaxTokens bounds the length of a generated answer.
const DefaultMaxTokens = 2000

// NoMatchesAnswer is returned without calling the generator when retrieval
// finds nothing.
const NoMatchesAnswer = "I couldn't find relevant information in the knowledge base to answer your question. Please try rephrasing or asking about a different topic."

const unknownTitle = "Unknown"

var personas = map[string]string{
	domain.LevelBeginner:     "You are a compassionate guide introducing consciousness and recovery concepts. Use simple language, relatable examples, and emphasize hope and practical steps.",
	domain.LevelIntermediate: "You are a knowledgeable teacher bridging science and spirituality. Integrate neuroscience, quantum concepts, and mystical traditions with clarity and depth.",
	domain.LevelAdvanced:     "You are a master philosopher and mystic. Synthesize esoteric wisdom, quantum physics, and consciousness studies. Speak to the initiated with precision and profound insight.",
}

// PersonaFor returns the persona for level, falling back to beginner.
func PersonaFor(level string) string {
	if p, ok := personas[level]; ok {
		return p
	}
	return personas[domain.LevelBeginner]
}

// BuildContext renders one "[Source: title]" block per match, in order.
func BuildContext(matches []domain.Match) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		title := m.Metadata.Title
		if title == "" {
			title = unknownTitle
		}
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", title, m.Metadata.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the full generation prompt.
func BuildPrompt(question string, matches []domain.Match, level string) string {
	var b strings.Builder
	b.WriteString(PersonaFor(level))
	b.WriteString("\n\nBased on the following knowledge from the Evolve Consciousness database, answer the user's question with wisdom, clarity, and practical guidance.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(BuildContext(matches))
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nProvide a comprehensive answer that:\n")
	b.WriteString("1. Directly addresses the question\n")
	b.WriteString("2. Integrates relevant concepts from the context\n")
	b.WriteString("3. Offers practical application or next steps\n")
	fmt.Fprintf(&b, "4. Maintains the appropriate depth for the %s level\n\n", level)
	b.WriteString("ANSWER:")
	return b.String()
}

// Synthesizer turns retrieved matches into an answer.
type Synthesizer struct {
	gen       domain.Generator
	maxTokens int
	log       *zap.Logger
}

func NewSynthesizer(gen domain.Generator, maxTokens int, log *zap.Logger) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Synthesizer{gen: gen, maxTokens: maxTokens, log: logging.OrNop(log)}
}

// Synthesize returns the generator's text verbatim. Callers handle the
// empty-match case with NoMatchesAnswer; an empty slice here is a
// validation error. Generation failures are returned, never masked.
// Without a generator the answer is extracted from the match texts.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, matches []domain.Match, level string) (string, error) {
	if len(matches) == 0 {
		return "", domain.NewError(domain.KindValidation, "no matches to synthesize from", nil)
	}
	if s.gen == nil {
		texts := make([]string, len(matches))
		for i, m := range matches {
			texts[i] = m.Metadata.Text
		}
		return Extract(strings.Join(texts, "\n\n"), question, 3), nil
	}
	prompt := BuildPrompt(question, matches, level)
	answer, err := s.gen.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return "", domain.NewError(domain.KindGeneration, "answer generation failed", err).
			WithDetail("question", question)
	}
	s.log.Debug("answer generated",
		zap.String("program_level", level),
		zap.Int("matches", len(matches)),
		zap.Int("prompt_chars", len(prompt)))
	return answer, nil
}
