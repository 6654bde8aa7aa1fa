package answer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// ExtractiveModel names the answer source when no generator is configured.
const ExtractiveModel = "extractive"

var (
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	stopwords       = func() map[string]struct{} {
		words := []string{
			"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
			"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
			"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
			"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
			"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
			"what", "how", "why", "who", "do", "does", "i", "my", "me", "you", "your",
		}
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			m[w] = struct{}{}
		}
		return m
	}()
)

// Extract picks up to maxSentences sentences from text, ranked by word
// frequency across text plus overlap with question, and returns them in
// their original order. Text without sentence punctuation is returned
// trimmed.
func Extract(text, question string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range contentWords(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	asked := map[string]struct{}{}
	for _, tok := range contentWords(question) {
		asked[tok] = struct{}{}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := contentWords(sent)
		s := 0.0
		for _, tok := range toks {
			s += freq[tok]
			if _, ok := asked[tok]; ok {
				s++
			}
		}
		if len(toks) > 0 {
			s /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = scores[i].idx
	}
	sort.Ints(picked)
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = strings.TrimSpace(sentences[idx])
	}
	return strings.Join(out, " ")
}

func contentWords(text string) []string {
	all := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, w := range all {
		if _, ok := stopwords[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}
