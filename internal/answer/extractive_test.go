package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_PrefersSentencesAboutTheQuestion(t *testing.T) {
	text := "Forgiveness releases old pain. The weather was mild that day. " +
		"Forgiveness is a daily practice of release. Lunch was served at noon."

	got := Extract(text, "How does forgiveness work?", 2)

	assert.Equal(t, "Forgiveness releases old pain. Forgiveness is a daily practice of release.", got)
}

func TestExtract_KeepsOriginalOrder(t *testing.T) {
	text := "Alpha note. Breath matters. Breath and breath again."

	got := Extract(text, "breath", 2)

	assert.Equal(t, "Breath matters. Breath and breath again.", got)
}

func TestExtract_NoSentencePunctuation(t *testing.T) {
	assert.Equal(t, "just a fragment", Extract("  just a fragment  ", "q", 3))
}

func TestExtract_DefaultsSentenceCount(t *testing.T) {
	got := Extract("One. Two. Three. Four.", "", 0)
	assert.Len(t, sentencePattern.FindAllString(got, -1), 3)
}
