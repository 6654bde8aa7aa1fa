package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataFromMap_DecodedPayload(t *testing.T) {
	// Shape produced by a JSON-decoding vector store client.
	payload := map[string]any{
		"text":                "chunk",
		"title":               "My Doc",
		"chunk_index":         float64(2),
		"total_chunks":        float64(3),
		"tags":                []any{"root", "heart"},
		"detected_categories": map[string]any{"chakras": []any{"root", "heart"}},
		"program_level":       "advanced",
	}

	got := MetadataFromMap(payload)

	assert.Equal(t, "chunk", got.Text)
	assert.Equal(t, "My Doc", got.Title)
	assert.Equal(t, 2, got.ChunkIndex)
	assert.Equal(t, 3, got.TotalChunks)
	assert.Equal(t, []string{"root", "heart"}, got.Tags)
	assert.Equal(t, map[string][]string{"chakras": {"root", "heart"}}, got.DetectedCategories)
	assert.Equal(t, "advanced", got.ProgramLevel)
}

func TestMetadataFromMap_BadFieldKeepsOthers(t *testing.T) {
	got := MetadataFromMap(map[string]any{"title": "T", "chunk_index": "not a number"})

	assert.Equal(t, "T", got.Title)
	assert.Zero(t, got.ChunkIndex)
	assert.Equal(t, Metadata{}, MetadataFromMap(nil))
}

func TestMetadata_ToMapNeverNil(t *testing.T) {
	m := Metadata{Title: "x"}.ToMap()

	assert.Equal(t, []string{}, m["tags"])
	assert.Equal(t, map[string][]string{}, m["detected_categories"])
}

func TestIngestionStats_Record(t *testing.T) {
	var s IngestionStats
	s.Total = 2
	s.RecordSuccess()
	s.RecordFailure("b.md", errors.New("embedding failed"))

	assert.Equal(t, 1, s.Success)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, []FileError{{File: "b.md", Error: "embedding failed"}}, s.Errors)
}

func TestIsProgramLevel(t *testing.T) {
	assert.True(t, IsProgramLevel("advanced"))
	assert.False(t, IsProgramLevel("expert"))
	assert.False(t, IsProgramLevel(""))
}
