// Package service wires chunking, tagging, embedding, storage, retrieval
// and answer synthesis into the upload and query pipelines.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"evolve/internal/answer"
	"evolve/internal/domain"
	"evolve/internal/logging"
	"evolve/internal/retrieval"
	"evolve/internal/vectorstore"
)

// Chunker splits a document into ordered chunks.
type Chunker interface {
	Chunk(text string) []domain.Chunk
}

// Tagger labels a chunk. It never fails; AI problems degrade to keywords.
type Tagger interface {
	Tag(ctx context.Context, text string, useAI bool) domain.TagResult
}

// Deps are the collaborators of the pipelines. Generator may be nil, in
// which case queries with matches fail with a generation error.
type Deps struct {
	Chunker   Chunker
	Tagger    Tagger
	Embedder  domain.Embedder
	Store     domain.VectorStore
	Generator domain.Generator
}

// Options holds the tunables of the pipelines.
type Options struct {
	IndexName           string
	DefaultTopK         int
	DefaultProgramLevel string
	AnswerMaxTokens     int
	// Workers bounds concurrent chunk processing during an upload.
	Workers int
}

// Service runs upload and query requests to completion.
type Service struct {
	deps     Deps
	opts     Options
	composer *retrieval.Composer
	synth    *answer.Synthesizer
	log      *zap.Logger
}

func New(deps Deps, opts Options, log *zap.Logger) (*Service, error) {
	if deps.Chunker == nil || deps.Tagger == nil || deps.Embedder == nil || deps.Store == nil {
		return nil, domain.NewError(domain.KindInvalidConfig, "chunker, tagger, embedder and store are required", nil)
	}
	if opts.DefaultProgramLevel == "" {
		opts.DefaultProgramLevel = domain.LevelBeginner
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = retrieval.DefaultTopK
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	log = logging.OrNop(log)
	return &Service{
		deps:     deps,
		opts:     opts,
		composer: retrieval.NewComposer(deps.Store, opts.DefaultTopK, log),
		synth:    answer.NewSynthesizer(deps.Generator, opts.AnswerMaxTokens, log),
		log:      log,
	}, nil
}

// VectorID derives the stored id of a chunk: spaces in the title become
// underscores, then the chunk index is appended.
func VectorID(title string, index int) string {
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(title, " ", "_"), index)
}

// Upload chunks, embeds and tags a document, then upserts all of its
// vectors in one call. Any embedding failure aborts before the upsert.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return UploadResult{}, domain.NewError(domain.KindValidation, "title is required", nil)
	}
	source := req.Source
	if source == "" {
		source = "unknown"
	}
	level := req.ProgramLevel
	if level == "" {
		level = s.opts.DefaultProgramLevel
	}

	chunks := s.deps.Chunker.Chunk(req.Text)
	s.log.Info("processing document",
		zap.String("title", req.Title),
		zap.Int("chunks", len(chunks)),
		zap.Bool("ai_tagging", req.UseAITagging))

	vectors := make([]domain.Vector, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, ch := range chunks {
		g.Go(func() error {
			values, err := s.deps.Embedder.Embed(gctx, ch.Text)
			if err != nil {
				return fmt.Errorf("chunk %d of %q: %w", ch.Index, req.Title, err)
			}
			tags := s.deps.Tagger.Tag(gctx, ch.Text, req.UseAITagging)
			vectors[i] = domain.Vector{
				ID:     VectorID(req.Title, ch.Index),
				Values: values,
				Metadata: domain.Metadata{
					Text:               ch.Text,
					Title:              req.Title,
					Source:             source,
					ProgramLevel:       level,
					ChunkIndex:         ch.Index,
					TotalChunks:        ch.Total,
					Tags:               tags.Tags,
					DetectedCategories: tags.DetectedCategories,
					PrimaryTheme:       tags.PrimaryTheme,
					ConsciousnessLevel: tags.ConsciousnessLevel,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UploadResult{}, err
	}

	if len(vectors) > 0 {
		if err := s.deps.Store.Upsert(ctx, vectors); err != nil {
			return UploadResult{}, err
		}
	}
	s.log.Info("document uploaded", zap.String("title", req.Title), zap.Int("vectors", len(vectors)))
	return UploadResult{
		Status:          "success",
		Message:         fmt.Sprintf("Document '%s' processed successfully", req.Title),
		ChunksCreated:   len(chunks),
		VectorsUploaded: len(vectors),
	}, nil
}

// Query embeds the question, retrieves matches and synthesizes an answer.
// No matches is a successful response carrying answer.NoMatchesAnswer, and
// the generator is not called.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return QueryResult{}, domain.NewError(domain.KindValidation, "question is required", nil)
	}
	if err := vectorstore.ValidateFilter(req.Filters); err != nil {
		return QueryResult{}, domain.NewError(domain.KindValidation, "invalid filters", err)
	}
	s.log.Info("processing query", zap.String("question", req.Question))

	embedding, err := s.deps.Embedder.Embed(ctx, req.Question)
	if err != nil {
		return QueryResult{}, err
	}
	matches, err := s.composer.Retrieve(ctx, embedding, req.TopK, req.ProgramLevel, req.Filters)
	if err != nil {
		return QueryResult{}, err
	}
	if len(matches) == 0 {
		return QueryResult{
			Answer:   answer.NoMatchesAnswer,
			Sources:  []Source{},
			Metadata: map[string]any{"matches_found": 0},
		}, nil
	}

	level := req.ProgramLevel
	if level == "" {
		level = s.opts.DefaultProgramLevel
	}
	text, err := s.synth.Synthesize(ctx, req.Question, matches, level)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{
		Answer:  text,
		Sources: sourcesOf(matches),
		Metadata: map[string]any{
			"matches_found": len(matches),
			"program_level": level,
			"model":         s.modelName(),
		},
	}, nil
}

func (s *Service) modelName() string {
	if s.deps.Generator == nil {
		return answer.ExtractiveModel
	}
	return s.deps.Generator.Model()
}

func sourcesOf(matches []domain.Match) []Source {
	out := make([]Source, len(matches))
	for i, m := range matches {
		src := Source{
			Title:  m.Metadata.Title,
			Source: m.Metadata.Source,
			Score:  m.Score,
			Tags:   m.Metadata.Tags,
		}
		if src.Title == "" {
			src.Title = "Unknown"
		}
		if src.Source == "" {
			src.Source = "Unknown"
		}
		if src.Tags == nil {
			src.Tags = []string{}
		}
		out[i] = src
	}
	return out
}

// Services reports which collaborators are configured.
func (s *Service) Services() map[string]bool {
	return map[string]bool{
		"vector_store": s.deps.Store != nil,
		"embedder":     s.deps.Embedder != nil,
		"generator":    s.deps.Generator != nil,
	}
}

// Health probes the vector store. A store failure yields an unhealthy
// report, not an error.
func (s *Service) Health(ctx context.Context) HealthReport {
	stats, err := s.deps.Store.Stats(ctx)
	if err != nil {
		s.log.Error("health check failed", zap.Error(err))
		return HealthReport{Status: "unhealthy", Error: err.Error()}
	}
	report := HealthReport{
		Status: "healthy",
		VectorStore: &StoreHealth{
			Connected:    true,
			Index:        s.opts.IndexName,
			TotalVectors: stats.TotalVectorCount,
			Dimension:    s.deps.Embedder.Dimension(),
		},
		Embedder: &ClientHealth{Connected: true, Name: s.deps.Embedder.Name()},
	}
	if s.deps.Generator != nil {
		report.Generator = &ClientHealth{Connected: true, Name: s.deps.Generator.Name(), Model: s.deps.Generator.Model()}
	} else {
		report.Generator = &ClientHealth{}
	}
	return report
}

// Stats describes the vector store contents.
func (s *Service) Stats(ctx context.Context) (StatsReport, error) {
	stats, err := s.deps.Store.Stats(ctx)
	if err != nil {
		return StatsReport{}, err
	}
	namespaces := stats.Namespaces
	if namespaces == nil {
		namespaces = map[string]domain.NamespaceStats{}
	}
	return StatsReport{
		IndexName:    s.opts.IndexName,
		TotalVectors: stats.TotalVectorCount,
		Dimension:    s.deps.Embedder.Dimension(),
		Namespaces:   namespaces,
	}, nil
}
