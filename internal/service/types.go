package service

import "evolve/internal/domain"

type UploadRequest struct {
	Text         string `json:"text" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Source       string `json:"source,omitempty"`
	ProgramLevel string `json:"program_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	UseAITagging bool   `json:"use_ai_tagging,omitempty"`
}

type UploadResult struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	ChunksCreated   int    `json:"chunks_created"`
	VectorsUploaded int    `json:"vectors_uploaded"`
}

type QueryRequest struct {
	Question     string         `json:"question" validate:"required"`
	ProgramLevel string         `json:"program_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Filters      map[string]any `json:"filters,omitempty"`
	TopK         int            `json:"top_k,omitempty" validate:"gte=0,lte=100"`
}

// Source is one cited match in a query answer.
type Source struct {
	Title  string   `json:"title"`
	Source string   `json:"source"`
	Score  float64  `json:"score"`
	Tags   []string `json:"tags"`
}

type QueryResult struct {
	Answer   string         `json:"answer"`
	Sources  []Source       `json:"sources"`
	Metadata map[string]any `json:"metadata"`
}

type StoreHealth struct {
	Connected    bool   `json:"connected"`
	Index        string `json:"index"`
	TotalVectors int    `json:"total_vectors"`
	Dimension    int    `json:"dimension"`
}

type ClientHealth struct {
	Connected bool   `json:"connected"`
	Name      string `json:"name,omitempty"`
	Model     string `json:"model,omitempty"`
}

type HealthReport struct {
	Status      string        `json:"status"`
	VectorStore *StoreHealth  `json:"vector_store,omitempty"`
	Embedder    *ClientHealth `json:"embedder,omitempty"`
	Generator   *ClientHealth `json:"generator,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type StatsReport struct {
	IndexName    string                           `json:"index_name"`
	TotalVectors int                              `json:"total_vectors"`
	Dimension    int                              `json:"dimension"`
	Namespaces   map[string]domain.NamespaceStats `json:"namespaces"`
}
