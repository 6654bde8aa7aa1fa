package domain

import "encoding/json"

// Program levels understood by the answer personas and the ingestion CLI.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// ProgramLevels lists the recognised program levels in ascending depth.
var ProgramLevels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

// IsProgramLevel reports whether level is one of ProgramLevels.
func IsProgramLevel(level string) bool {
	for _, l := range ProgramLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Chunk is one token window of a document. Index preserves document order.
type Chunk struct {
	Text  string
	Index int
	Total int
}

// TagSet is the outcome of a keyword pass over a chunk.
// Every keyword tag in Tags also appears in some DetectedCategories list.
type TagSet struct {
	Tags               []string            `json:"tags"`
	DetectedCategories map[string][]string `json:"detected_categories"`
}

// TagResult is a TagSet plus the fields only an AI pass can fill in.
type TagResult struct {
	TagSet
	PrimaryTheme       string `json:"primary_theme"`
	ConsciousnessLevel string `json:"consciousness_level"`
	ProgramLevel       string `json:"program_level"`
	// AIEnhanced is false when AI tagging was not requested or degraded to keywords.
	AIEnhanced bool `json:"-"`
}

// Metadata is the record persisted next to each chunk vector.
type Metadata struct {
	Text               string              `json:"text"`
	Title              string              `json:"title"`
	Source             string              `json:"source"`
	ProgramLevel       string              `json:"program_level"`
	ChunkIndex         int                 `json:"chunk_index"`
	TotalChunks        int                 `json:"total_chunks"`
	Tags               []string            `json:"tags"`
	DetectedCategories map[string][]string `json:"detected_categories"`
	PrimaryTheme       string              `json:"primary_theme"`
	ConsciousnessLevel string              `json:"consciousness_level"`
}

// ToMap renders the record as a generic payload for vector stores.
func (m Metadata) ToMap() map[string]any {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	cats := m.DetectedCategories
	if cats == nil {
		cats = map[string][]string{}
	}
	return map[string]any{
		"text":                m.Text,
		"title":               m.Title,
		"source":              m.Source,
		"program_level":       m.ProgramLevel,
		"chunk_index":         m.ChunkIndex,
		"total_chunks":        m.TotalChunks,
		"tags":                tags,
		"detected_categories": cats,
		"primary_theme":       m.PrimaryTheme,
		"consciousness_level": m.ConsciousnessLevel,
	}
}

// MetadataFromMap rebuilds a record from a decoded payload. Missing or
// mistyped fields are left at their zero value.
func MetadataFromMap(payload map[string]any) Metadata {
	if payload == nil {
		return Metadata{}
	}
	var m Metadata
	data, err := json.Marshal(payload)
	if err != nil {
		return m
	}
	// Field-by-field decode so that one bad field does not drop the rest.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return m
	}
	decode := func(key string, dst any) {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	decode("text", &m.Text)
	decode("title", &m.Title)
	decode("source", &m.Source)
	decode("program_level", &m.ProgramLevel)
	decode("chunk_index", &m.ChunkIndex)
	decode("total_chunks", &m.TotalChunks)
	decode("tags", &m.Tags)
	decode("detected_categories", &m.DetectedCategories)
	decode("primary_theme", &m.PrimaryTheme)
	decode("consciousness_level", &m.ConsciousnessLevel)
	return m
}

// Vector is one upsert unit.
type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is a ranked similarity hit returned by a vector store.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// NamespaceStats holds per-namespace counts reported by a store.
type NamespaceStats struct {
	VectorCount int `json:"vector_count"`
}

// StoreStats describes the contents of a vector store.
type StoreStats struct {
	TotalVectorCount int                       `json:"total_vector_count"`
	Dimension        int                       `json:"dimension"`
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
}

// FileError records one failed file of an ingestion run.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// IngestionStats is owned by a single ingestion run.
type IngestionStats struct {
	Total   int         `json:"total"`
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []FileError `json:"errors"`
}

// RecordSuccess counts a processed file.
func (s *IngestionStats) RecordSuccess() { s.Success++ }

// RecordFailure counts a failed file and keeps its error.
func (s *IngestionStats) RecordFailure(file string, err error) {
	s.Failed++
	s.Errors = append(s.Errors, FileError{File: file, Error: err.Error()})
}
