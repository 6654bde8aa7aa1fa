// Package sqlite keeps vectors in a local SQLite file and answers queries
// with a brute-force cosine scan.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"evolve/internal/domain"
	"evolve/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS vectors (
	id         TEXT PRIMARY KEY,
	embedding  BLOB NOT NULL,
	meta       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS store_info (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Storage is a SQLite-backed vector store.
type Storage struct {
	db        *sql.DB
	path      string
	dimension int
}

// NewStorage opens (or creates) the database at path. A database created
// with another dimension is rejected.
func NewStorage(ctx context.Context, path string, dimension int) (*Storage, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Storage{db: db, path: path, dimension: dimension}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_info WHERE key = 'dimension'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `INSERT INTO store_info (key, value) VALUES ('dimension', ?)`, strconv.Itoa(s.dimension))
		if err != nil {
			return fmt.Errorf("recording dimension: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	default:
		if stored != strconv.Itoa(s.dimension) {
			return fmt.Errorf("database %s holds %s-dimension vectors, want %d", s.path, stored, s.dimension)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Storage) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Storage) Path() string { return s.path }

// Upsert writes the batch in one transaction.
func (s *Storage) Upsert(ctx context.Context, vectors []domain.Vector) error {
	for _, v := range vectors {
		if v.ID == "" {
			return errors.New("vector id is required")
		}
		if len(v.Values) != s.dimension {
			return fmt.Errorf("vector %s: dimension %d, want %d", v.ID, len(v.Values), s.dimension)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, embedding, meta, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			meta = excluded.meta,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, v := range vectors {
		meta, err := json.Marshal(v.Metadata.ToMap())
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", v.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, encodeEmbedding(v.Values), string(meta), now); err != nil {
			return fmt.Errorf("writing %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// Query scans every row, applies filter to the stored metadata and ranks
// the survivors by cosine similarity.
func (s *Storage) Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, errors.New("top_k must be positive")
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d, want %d", len(vector), s.dimension)
	}
	if err := vectorstore.ValidateFilter(filter); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, meta FROM vectors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			id   string
			blob []byte
			meta string
		)
		if err := rows.Scan(&id, &blob, &meta); err != nil {
			return nil, err
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(meta), &payload); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
		}
		if !vectorstore.Matches(payload, filter) {
			continue
		}
		values, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
		m := domain.Match{ID: id, Score: vectorstore.Cosine(vector, values)}
		if includeMetadata {
			m.Metadata = domain.MetadataFromMap(payload)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectorstore.TopK(matches, topK), nil
}

func (s *Storage) Stats(ctx context.Context) (domain.StoreStats, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return domain.StoreStats{}, err
	}
	return domain.StoreStats{
		TotalVectorCount: n,
		Dimension:        s.dimension,
		Namespaces:       map[string]domain.NamespaceStats{"": {VectorCount: n}},
	}, nil
}

// encodeEmbedding stores float32 values little-endian without a length prefix.
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
