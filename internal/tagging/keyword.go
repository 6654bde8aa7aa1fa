// Package tagging attaches taxonomy tags to chunk text, by keyword scan and
// optionally by asking a language model.
//
// Keyword matching is plain case-insensitive substring containment without
// word boundaries: "tao" also matches inside "taoism" and "will" inside
// "willow". This keeps recall high at the price of known false positives.
package tagging

import (
	"sort"
	"strings"

	"evolve/internal/domain"
)

// KeywordTagger scans text against a Taxonomy. It is safe for concurrent use.
type KeywordTagger struct {
	taxonomy Taxonomy
}

// NewKeywordTagger returns a tagger over taxonomy, or DefaultTaxonomy when nil.
func NewKeywordTagger(taxonomy Taxonomy) *KeywordTagger {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &KeywordTagger{taxonomy: taxonomy}
}

// Taxonomy returns the table the tagger scans.
func (k *KeywordTagger) Taxonomy() Taxonomy { return k.taxonomy }

// Tag returns every taxonomy tag whose keywords occur in text. Each category
// is present in DetectedCategories, with an empty list when nothing matched.
// Tags is deduplicated and sorted.
func (k *KeywordTagger) Tag(text string) domain.TagSet {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	detected := make(map[string][]string, len(k.taxonomy))

	for _, cat := range k.taxonomy {
		found := []string{}
		for _, entry := range cat.Entries {
			if entry.IsGroup() {
				for _, sub := range entry.Subtags {
					if containsAny(lower, sub.Keywords) {
						found = append(found, entry.Name+":"+sub.Name)
					}
				}
				continue
			}
			if containsAny(lower, entry.Keywords) {
				found = append(found, entry.Name)
			}
		}
		detected[cat.Name] = found
		for _, tag := range found {
			seen[tag] = struct{}{}
		}
	}

	return domain.TagSet{Tags: sortedKeys(seen), DetectedCategories: detected}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
