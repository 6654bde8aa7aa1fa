package tagging

// Entry is either a Leaf (a flat keyword list) or a Group of named sub-tags,
// each of which is itself a leaf. Only one level of nesting exists.
type Entry struct {
	Name     string
	Keywords []string
	Subtags  []Entry
}

// Leaf builds a tag matched by any of its lowercase keywords.
func Leaf(name string, keywords ...string) Entry {
	return Entry{Name: name, Keywords: keywords}
}

// Group builds a tag whose matches are reported as "group:subtag".
func Group(name string, subtags ...Entry) Entry {
	return Entry{Name: name, Subtags: subtags}
}

// IsGroup reports whether e holds sub-tags rather than keywords.
func (e Entry) IsGroup() bool { return len(e.Subtags) > 0 }

// Category is a named, ordered list of tag entries.
type Category struct {
	Name    string
	Entries []Entry
}

// Taxonomy is the immutable category table the keyword tagger scans.
type Taxonomy []Category

// CategoryNames returns the category names in declaration order.
func (t Taxonomy) CategoryNames() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// DefaultTaxonomy returns the consciousness, recovery and esoteric taxonomy.
// Keywords are matched as lowercase substrings.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: "chakras", Entries: []Entry{
			Leaf("root", "survival", "safety", "grounding", "security", "foundation", "muladhara"),
			Leaf("sacral", "creativity", "sexuality", "emotions", "pleasure", "svadhisthana"),
			Leaf("solar_plexus", "power", "will", "confidence", "manipura", "self-esteem"),
			Leaf("heart", "love", "compassion", "forgiveness", "anahata", "connection"),
			Leaf("throat", "communication", "expression", "truth", "vishuddha", "voice"),
			Leaf("third_eye", "intuition", "vision", "insight", "ajna", "perception"),
			Leaf("crown", "consciousness", "enlightenment", "spiritual", "sahasrara", "divine"),
		}},
		{Name: "recovery", Entries: []Entry{
			Group("addiction_type",
				Leaf("alcohol", "alcohol", "drinking", "sober", "alcoholism"),
				Leaf("drugs", "drugs", "substance", "narcotics", "opioid"),
				Leaf("codependency", "codependent", "relationship addiction", "boundaries"),
			),
			Group("recovery_stage",
				Leaf("early_recovery", "early recovery", "newcomer", "first 90 days"),
				Leaf("sustained_recovery", "long-term recovery", "maintenance"),
				Leaf("spiritual_awakening", "spiritual awakening", "transformation", "rebirth"),
			),
			Group("12_steps",
				Leaf("step_1", "powerlessness", "unmanageable", "surrender"),
				Leaf("step_2", "higher power", "sanity", "restoration"),
				Leaf("step_3", "decision", "turn over", "will"),
				Leaf("step_4", "moral inventory", "fearless", "resentments"),
				Leaf("step_11", "prayer", "meditation", "conscious contact"),
				Leaf("step_12", "spiritual awakening", "carry message"),
			),
		}},
		{Name: "consciousness_level", Entries: []Entry{
			Leaf("shame", "shame", "humiliation", "worthless"),
			Leaf("fear", "fear", "anxiety", "worry"),
			Leaf("courage", "courage", "affirmation", "empowerment"),
			Leaf("acceptance", "acceptance", "forgiveness", "harmony"),
			Leaf("love", "unconditional love", "reverence", "benevolence"),
			Leaf("peace", "peace", "tranquility", "transcendence"),
			Leaf("enlightenment", "enlightenment", "pure consciousness"),
		}},
		{Name: "esoteric_tradition", Entries: []Entry{
			Leaf("hermetic", "hermetic", "hermes", "emerald tablet", "kybalion"),
			Leaf("kabbalah", "kabbalah", "sephiroth", "tree of life", "zohar"),
			Leaf("sufi", "sufi", "rumi", "dhikr", "fana"),
			Leaf("vedic", "vedic", "vedas", "upanishads", "brahman"),
			Leaf("buddhist", "buddhist", "dharma", "noble truths", "nirvana"),
			Leaf("taoist", "tao", "yin yang", "wu wei", "i ching"),
		}},
		{Name: "teachers", Entries: []Entry{
			Leaf("hawkins", "david hawkins", "power vs force", "letting go"),
			Leaf("dispenza", "joe dispenza", "becoming supernatural", "neuroplasticity"),
			Leaf("lipton", "bruce lipton", "biology of belief", "epigenetics"),
			Leaf("goddard", "neville goddard", "imagination creates reality"),
			Leaf("murphy", "joseph murphy", "power of subconscious"),
			Leaf("holmes", "ernest holmes", "science of mind"),
		}},
		{Name: "quantum_science", Entries: []Entry{
			Leaf("quantum_physics", "quantum", "quantum mechanics", "quantum field"),
			Leaf("neuroscience", "neuroplasticity", "neurotransmitter", "dopamine", "serotonin"),
			Leaf("epigenetics", "epigenetic", "gene expression", "methylation"),
			Leaf("biofield", "biofield", "aura", "electromagnetic", "biophoton"),
		}},
		{Name: "universal_laws", Entries: []Entry{
			Leaf("law_of_attraction", "law of attraction", "manifestation", "magnetism"),
			Leaf("law_of_vibration", "vibration", "frequency", "resonance"),
			Leaf("law_of_correspondence", "as above so below", "microcosm", "macrocosm"),
			Leaf("law_of_cause_effect", "karma", "cause and effect", "consequences"),
		}},
	}
}

// AITagVocabulary is the enumerated tag list offered to the language model.
var AITagVocabulary = []struct {
	Label string
	Tags  []string
}{
	{"Chakras", []string{"root", "sacral", "solar_plexus", "heart", "throat", "third_eye", "crown"}},
	{"Recovery", []string{"early_recovery", "sustained_recovery", "spiritual_awakening"}},
	{"12 Steps", []string{"step_1", "step_2", "step_3", "step_4", "step_11", "step_12"}},
	{"Consciousness Level", []string{"shame", "fear", "courage", "acceptance", "love", "peace", "enlightenment"}},
	{"Traditions", []string{"hermetic", "kabbalah", "sufi", "vedic", "buddhist", "taoist"}},
	{"Science", []string{"quantum_physics", "neuroscience", "epigenetics", "biofield"}},
	{"Laws", []string{"law_of_attraction", "law_of_vibration", "law_of_correspondence"}},
	{"Program Level", []string{"beginner", "intermediate", "advanced"}},
}
