package tagging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"evolve/internal/domain"
	"evolve/internal/logging"
)

// DefaultAIPrefixChars bounds the text sent to the model for tagging.
const DefaultAIPrefixChars = 2000

// DefaultAIMaxTokens bounds the model's tagging response.
const DefaultAIMaxTokens = 500

// Source tells whether an AIResult came from the model or from the keyword fallback.
type Source int

const (
	SourceAI Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceAI {
		return "ai"
	}
	return "fallback"
}

// AIResult is the outcome of an AI tagging attempt. When Source is
// SourceFallback the tags come from the keyword pass, FallbackReason holds
// the failure and the theme/level fields are empty.
type AIResult struct {
	Source             Source
	Tags               []string
	DetectedCategories map[string][]string
	PrimaryTheme       string
	ConsciousnessLevel string
	ProgramLevel       string
	FallbackReason     error
}

// Degraded reports whether the result is keyword-only.
func (r AIResult) Degraded() bool { return r.Source == SourceFallback }

// AITagger asks a Generator for taxonomy tags and falls back to keywords.
type AITagger struct {
	generator   domain.Generator
	keywords    *KeywordTagger
	prefixChars int
	log         *zap.Logger
}

// AITaggerOption customises an AITagger.
type AITaggerOption func(*AITagger)

// WithPrefixChars sets how many leading characters of the text are sent.
func WithPrefixChars(n int) AITaggerOption {
	return func(a *AITagger) {
		if n > 0 {
			a.prefixChars = n
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *zap.Logger) AITaggerOption {
	return func(a *AITagger) { a.log = logging.OrNop(l) }
}

// NewAITagger builds an AI tagger. generator may be nil, in which case Tag
// reports the tagger as unavailable.
func NewAITagger(generator domain.Generator, keywords *KeywordTagger, opts ...AITaggerOption) *AITagger {
	if keywords == nil {
		keywords = NewKeywordTagger(nil)
	}
	a := &AITagger{
		generator:   generator,
		keywords:    keywords,
		prefixChars: DefaultAIPrefixChars,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TagResponse is the JSON object the model is asked to return.
type TagResponse struct {
	Tags               []string `json:"tags"`
	PrimaryTheme       string   `json:"primary_theme"`
	ConsciousnessLevel string   `json:"consciousness_level"`
	ProgramLevel       string   `json:"program_level"`
}

// Tag asks the model for tags. Transport failures and unparseable responses
// never surface: they produce a SourceFallback result built from the keyword
// pass. The only error is an unconfigured generator.
func (a *AITagger) Tag(ctx context.Context, text string, maxTokens int) (AIResult, error) {
	if a.generator == nil {
		return AIResult{}, domain.NewError(domain.KindGeneration, "ai tagging unavailable: no generator configured", nil)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultAIMaxTokens
	}

	out, err := a.generator.Generate(ctx, BuildTagPrompt(truncateRunes(text, a.prefixChars)), maxTokens)
	if err != nil {
		return a.fallback(text, err), nil
	}
	resp, err := ParseTagResponse(out)
	if err != nil {
		return a.fallback(text, err), nil
	}
	return AIResult{
		Source:             SourceAI,
		Tags:               dedupe(resp.Tags),
		PrimaryTheme:       resp.PrimaryTheme,
		ConsciousnessLevel: resp.ConsciousnessLevel,
		ProgramLevel:       resp.ProgramLevel,
	}, nil
}

func (a *AITagger) fallback(text string, reason error) AIResult {
	a.log.Warn("ai tagging failed, using keyword tags", zap.Error(reason))
	ks := a.keywords.Tag(text)
	return AIResult{
		Source:             SourceFallback,
		Tags:               ks.Tags,
		DetectedCategories: ks.DetectedCategories,
		FallbackReason:     reason,
	}
}

// BuildTagPrompt renders the tagging instruction for text.
func BuildTagPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze this text and identify relevant tags from consciousness, recovery, and spiritual domains.\n\n")
	b.WriteString("Text to analyze:\n")
	b.WriteString(text)
	b.WriteString("\n\nIdentify tags in these categories:\n")
	for i, group := range AITagVocabulary {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, group.Label, strings.Join(group.Tags, ", "))
	}
	b.WriteString(`
Return ONLY a JSON object:
{
  "tags": ["tag1", "tag2"],
  "primary_theme": "main theme",
  "consciousness_level": "level",
  "program_level": "beginner|intermediate|advanced"
}`)
	return b.String()
}

// ParseTagResponse extracts the JSON object from a model reply. A reply
// wrapped in a markdown code fence or surrounded by prose is accepted.
func ParseTagResponse(raw string) (TagResponse, error) {
	var resp TagResponse
	body := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(body), &resp); err == nil {
		return resp, nil
	}
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return resp, domain.NewError(domain.KindParse, "no JSON object in tagging response", nil)
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &resp); err != nil {
		return resp, domain.NewError(domain.KindParse, "malformed tagging response", err)
	}
	return resp, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen)
}
