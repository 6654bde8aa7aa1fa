// Package ingest uploads a batch of files one at a time, pacing requests
// and recording per-file outcomes.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"evolve/internal/domain"
	"evolve/internal/logging"
	"evolve/internal/service"
)

const (
	DefaultPattern       = "*.md"
	DefaultDelay         = 500 * time.Millisecond
	DefaultUploadTimeout = 120 * time.Second
)

// Uploader runs the upload pipeline for one document, locally or remotely.
type Uploader interface {
	Upload(ctx context.Context, req service.UploadRequest) (service.UploadResult, error)
}

type Options struct {
	ProgramLevel  string
	UseAITagging  bool
	Delay         time.Duration
	UploadTimeout time.Duration
	// Progress receives one line per file when set.
	Progress io.Writer
}

// Orchestrator processes files sequentially. A failed file is recorded and
// skipped; the batch continues.
type Orchestrator struct {
	uploader Uploader
	opts     Options
	log      *zap.Logger
}

func New(uploader Uploader, opts Options, log *zap.Logger) *Orchestrator {
	if opts.ProgramLevel == "" {
		opts.ProgramLevel = domain.LevelBeginner
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Orchestrator{uploader: uploader, opts: opts, log: logging.OrNop(log)}
}

// Run ingests files in order. Files left unprocessed after ctx is done are
// recorded as failures so Success+Failed always equals Total.
func (o *Orchestrator) Run(ctx context.Context, files []string) domain.IngestionStats {
	runID := uuid.NewString()
	log := o.log.With(zap.String("run_id", runID))
	stats := domain.IngestionStats{Total: len(files), Errors: []domain.FileError{}}

	log.Info("ingestion started",
		zap.Int("files", len(files)),
		zap.String("program_level", o.opts.ProgramLevel),
		zap.Bool("ai_tagging", o.opts.UseAITagging))

	for i, path := range files {
		err := ctx.Err()
		if i > 0 {
			err = pause(ctx, o.opts.Delay)
		}
		if err != nil {
			for _, rest := range files[i:] {
				stats.RecordFailure(rest, err)
			}
			log.Warn("ingestion interrupted", zap.Error(err), zap.Int("skipped", len(files)-i))
			break
		}
		fmt.Fprintf(o.opts.Progress, "[%d/%d] Uploading: %s... ", i+1, len(files), filepath.Base(path))
		res, err := o.ingestFile(ctx, path)
		if err != nil {
			fmt.Fprintf(o.opts.Progress, "✗ Error: %v\n", err)
			log.Warn("file failed", zap.String("file", path), zap.Error(err))
			stats.RecordFailure(path, err)
			continue
		}
		fmt.Fprintf(o.opts.Progress, "✓ (%d chunks)\n", res.ChunksCreated)
		log.Info("file ingested", zap.String("file", path), zap.Int("chunks", res.ChunksCreated))
		stats.RecordSuccess()
	}

	log.Info("ingestion finished",
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed))
	return stats
}

// pause blocks for d measured from now, however long the previous upload
// took. A limiter drained of its single token makes Wait sleep a full
// interval while still honouring ctx.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(d), 1)
	limiter.AllowN(time.Now(), 1)
	return limiter.Wait(ctx)
}

func (o *Orchestrator) ingestFile(ctx context.Context, path string) (service.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.UploadResult{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.UploadTimeout)
	defer cancel()
	return o.uploader.Upload(ctx, service.UploadRequest{
		Text:         string(data),
		Title:        Title(path),
		Source:       path,
		ProgramLevel: o.opts.ProgramLevel,
		UseAITagging: o.opts.UseAITagging,
	})
}

// Title is the file name without its extension.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FindFiles lists the regular files in dir matching pattern, sorted.
func FindFiles(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, stats domain.IngestionStats) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n  INGESTION SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total files:     %d\n", stats.Total)
	fmt.Fprintf(w, "✓ Successful:    %d\n", stats.Success)
	fmt.Fprintf(w, "✗ Failed:        %d\n", stats.Failed)
	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range stats.Errors {
			fmt.Fprintf(w, "  - %s: %s\n", e.File, e.Error)
		}
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}
