package tagging

import (
	"context"

	"go.uber.org/zap"

	"evolve/internal/domain"
	"evolve/internal/logging"
)

// Tagger combines the keyword pass with an optional AI pass.
type Tagger struct {
	keywords  *KeywordTagger
	ai        *AITagger
	maxTokens int
	log       *zap.Logger
}

// NewTagger builds a unified tagger. ai may be nil; AI requests then return
// keyword-only results.
func NewTagger(keywords *KeywordTagger, ai *AITagger, maxTokens int, log *zap.Logger) *Tagger {
	if keywords == nil {
		keywords = NewKeywordTagger(nil)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultAIMaxTokens
	}
	return &Tagger{keywords: keywords, ai: ai, maxTokens: maxTokens, log: logging.OrNop(log)}
}

// Tag always runs the keyword pass. With useAI it also runs the AI pass and
// merges: Tags is the union, DetectedCategories stays keyword-only, and the
// theme and level fields come from the model with ProgramLevel defaulting to
// beginner. An unavailable AI pass yields the keyword result.
func (t *Tagger) Tag(ctx context.Context, text string, useAI bool) domain.TagResult {
	base := t.keywords.Tag(text)
	if !useAI || t.ai == nil {
		return domain.TagResult{TagSet: base}
	}

	ai, err := t.ai.Tag(ctx, text, t.maxTokens)
	if err != nil {
		t.log.Warn("ai tagging unavailable", zap.Error(err))
		return domain.TagResult{TagSet: base}
	}

	merged := make(map[string]struct{}, len(base.Tags)+len(ai.Tags))
	for _, tag := range base.Tags {
		merged[tag] = struct{}{}
	}
	for _, tag := range ai.Tags {
		merged[tag] = struct{}{}
	}
	level := ai.ProgramLevel
	if level == "" {
		level = domain.LevelBeginner
	}
	return domain.TagResult{
		TagSet:             domain.TagSet{Tags: sortedKeys(merged), DetectedCategories: base.DetectedCategories},
		PrimaryTheme:       ai.PrimaryTheme,
		ConsciousnessLevel: ai.ConsciousnessLevel,
		ProgramLevel:       level,
		AIEnhanced:         !ai.Degraded(),
	}
}
