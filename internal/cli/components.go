package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"evolve/internal/chunker"
	"evolve/internal/config"
	"evolve/internal/domain"
	"evolve/internal/embedding"
	"evolve/internal/embedding/hashing"
	"evolve/internal/embedding/openai"
	"evolve/internal/generation"
	"evolve/internal/generation/anthropic"
	"evolve/internal/service"
	"evolve/internal/tagging"
	"evolve/internal/vectorstore"
	"evolve/internal/vectorstore/memory"
	"evolve/internal/vectorstore/pinecone"
	"evolve/internal/vectorstore/qdrant"
	"evolve/internal/vectorstore/sqlite"
)

// app is the assembled pipeline plus whatever must be released on exit.
type app struct {
	svc   *service.Service
	close func()
}

// buildApp is swapped out in tests.
var buildApp = newApp

func newApp(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*app, error) {
	tok, err := buildTokenizer(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.NewTokenChunker(tok, cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	gen, err := buildGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}
	store, indexName, closeStore, err := buildStore(ctx, cfg.VectorStore, cfg.Embedder.Dimension)
	if err != nil {
		return nil, err
	}

	keywords := tagging.NewKeywordTagger(tagging.DefaultTaxonomy())
	var ai *tagging.AITagger
	if gen != nil {
		ai = tagging.NewAITagger(gen, keywords,
			tagging.WithPrefixChars(cfg.Tagging.AIPrefixChars),
			tagging.WithLogger(log))
	}

	svc, err := service.New(service.Deps{
		Chunker:   ch,
		Tagger:    tagging.NewTagger(keywords, ai, cfg.Tagging.AIMaxTokens, log),
		Embedder:  emb,
		Store:     store,
		Generator: gen,
	}, service.Options{
		IndexName:           indexName,
		DefaultTopK:         cfg.Retrieval.TopK,
		DefaultProgramLevel: cfg.Retrieval.DefaultProgramLevel,
		AnswerMaxTokens:     cfg.Retrieval.AnswerMaxTokens,
		Workers:             cfg.Upload.Workers,
	}, log)
	if err != nil {
		closeStore()
		return nil, err
	}
	log.Debug("pipeline assembled",
		zap.String("embedder", emb.Name()),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("index", indexName),
		zap.Bool("generator", gen != nil))
	return &app{svc: svc, close: closeStore}, nil
}

func buildTokenizer(c config.ChunkerConfig) (domain.Tokenizer, error) {
	if c.Model != "" {
		return chunker.NewTiktokenTokenizerForModel(c.Model)
	}
	return chunker.NewTiktokenTokenizer(c.Encoding)
}

func buildEmbedder(c config.EmbedderConfig) (domain.Embedder, error) {
	switch c.Type {
	case "hashing":
		e, err := hashing.NewEmbedder(c.Dimension)
		if err != nil {
			return nil, err
		}
		return embedding.Guard(e, 0), nil
	case "openai", "":
		if c.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		timeout := secs(c.OpenAI.TimeoutSecs)
		client, err := openai.NewClient(openai.Config{
			BaseURL:    c.OpenAI.BaseURL,
			APIKeyEnv:  c.OpenAI.APIKeyEnv,
			Model:      c.OpenAI.Model,
			Dimension:  c.Dimension,
			Timeout:    timeout,
			MaxRetries: c.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return embedding.Guard(client, timeout), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", c.Type)
	}
}

// buildGenerator returns nil for type "none"; answers are then extracted from
// the retrieved chunks and AI tagging degrades to keywords.
func buildGenerator(c config.GeneratorConfig) (domain.Generator, error) {
	switch c.Type {
	case "none":
		return nil, nil
	case "anthropic", "":
		if c.Anthropic == nil {
			return nil, fmt.Errorf("anthropic generator config missing")
		}
		timeout := secs(c.Anthropic.TimeoutSecs)
		client, err := anthropic.NewClient(anthropic.Config{
			BaseURL:   c.Anthropic.BaseURL,
			APIKeyEnv: c.Anthropic.APIKeyEnv,
			Model:     c.Anthropic.Model,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic generator init failed: %w", err)
		}
		return generation.Guard(client, timeout), nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", c.Type)
	}
}

func buildStore(ctx context.Context, c config.VectorStoreConfig, dim int) (domain.VectorStore, string, func(), error) {
	noop := func() {}
	switch c.Type {
	case "memory", "":
		st, err := memory.NewStorage(dim)
		if err != nil {
			return nil, "", noop, err
		}
		return vectorstore.Guard(st, "memory", 0), "memory", noop, nil
	case "qdrant":
		if c.Qdrant == nil {
			return nil, "", noop, fmt.Errorf("qdrant config missing")
		}
		timeout := secs(c.Qdrant.TimeoutSecs)
		st, err := qdrant.NewStorage(qdrant.Config{
			URL:        c.Qdrant.URL,
			APIKey:     c.Qdrant.APIKey,
			Collection: c.Qdrant.Collection,
			Dimension:  dim,
			Timeout:    timeout,
		})
		if err != nil {
			return nil, "", noop, err
		}
		if err := st.Init(ctx); err != nil {
			return nil, "", noop, fmt.Errorf("qdrant init failed: %w", err)
		}
		return vectorstore.Guard(st, "qdrant", timeout), c.Qdrant.Collection, noop, nil
	case "pinecone":
		if c.Pinecone == nil {
			return nil, "", noop, fmt.Errorf("pinecone config missing")
		}
		timeout := secs(c.Pinecone.TimeoutSecs)
		st, err := pinecone.NewStorage(pinecone.Config{
			Host:      c.Pinecone.Host,
			APIKeyEnv: c.Pinecone.APIKeyEnv,
			IndexName: c.Pinecone.IndexName,
			Namespace: c.Pinecone.Namespace,
			Dimension: dim,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, "", noop, err
		}
		if err := st.EnsureIndex(ctx); err != nil {
			return nil, "", noop, fmt.Errorf("pinecone init failed: %w", err)
		}
		return vectorstore.Guard(st, "pinecone", timeout), st.IndexName(), noop, nil
	case "sqlite":
		if c.SQLite == nil {
			return nil, "", noop, fmt.Errorf("sqlite config missing")
		}
		st, err := sqlite.NewStorage(ctx, c.SQLite.Path, dim)
		if err != nil {
			return nil, "", noop, err
		}
		closeFn := func() { _ = st.Close() }
		return vectorstore.Guard(st, "sqlite", 0), st.Path(), closeFn, nil
	default:
		return nil, "", noop, fmt.Errorf("unknown vector store: %s", c.Type)
	}
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
