// Package runner tags every image of the configured folders and appends the
// results to one JSONL file per folder, skipping images already recorded.
package runner

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/krau/tagpipe/record"
	"github.com/krau/tagpipe/service"
	"github.com/krau/tagpipe/tagging"
)

type Options struct {
	BaseDir string
	Folders []string
	// OutputPath maps a folder name to its JSONL file.
	OutputPath func(folder string) string
	BatchSize  int
	Workers    int
	// Progress, when non-nil, receives a progress bar per folder.
	Progress io.Writer
	// Open loads an image from disk. Defaults to service.Open.
	Open func(path string) (image.Image, error)
}

type FolderStats struct {
	Folder   string
	Output   string
	Found    int
	Resumed  int
	Tagged   int
	Failed   int
	Duration time.Duration
}

type Stats struct {
	RunID    string
	Folders  []FolderStats
	Warnings map[string]int
	Duration time.Duration
}

func (s Stats) Tagged() int {
	n := 0
	for _, f := range s.Folders {
		n += f.Tagged
	}
	return n
}

func (s Stats) Failed() int {
	n := 0
	for _, f := range s.Folders {
		n += f.Failed
	}
	return n
}

type Runner struct {
	scorer   service.Scorer
	pipeline *tagging.Pipeline
	opts     Options
	logger   *slog.Logger
}

func New(scorer service.Scorer, pipeline *tagging.Pipeline, opts Options, logger *slog.Logger) *Runner {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Open == nil {
		opts.Open = service.Open
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{scorer: scorer, pipeline: pipeline, opts: opts, logger: logger}
}

// Run processes every folder in order. Per-image failures are logged and
// counted; the image is left unrecorded so a later run retries it.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{RunID: uuid.NewString(), Warnings: map[string]int{}}
	logger := r.logger.With(slog.String("run", stats.RunID))
	logger.Info("Starting tagging run", slog.Int("folders", len(r.opts.Folders)), slog.Int("workers", r.opts.Workers), slog.Int("batch_size", r.opts.BatchSize))

	for _, folder := range r.opts.Folders {
		fs, err := r.runFolder(ctx, logger.With(slog.String("folder", folder)), folder, stats.Warnings)
		stats.Folders = append(stats.Folders, fs)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("folder %s: %w", folder, err)
		}
	}
	stats.Duration = time.Since(start)
	logger.Info("Tagging run finished", slog.Int("tagged", stats.Tagged()), slog.Int("failed", stats.Failed()), slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (r *Runner) runFolder(ctx context.Context, logger *slog.Logger, folder string, warnings map[string]int) (FolderStats, error) {
	start := time.Now()
	fs := FolderStats{Folder: folder, Output: r.opts.OutputPath(folder)}

	seen, bad, err := record.LoadSeen(fs.Output)
	if err != nil {
		return fs, fmt.Errorf("load existing output: %w", err)
	}
	if bad > 0 {
		logger.Warn("Skipped undecodable lines in existing output", slog.String("output", fs.Output), slog.Int("lines", bad))
	}

	all, err := listImages(r.opts.BaseDir, folder)
	if err != nil {
		return fs, fmt.Errorf("list images: %w", err)
	}
	fs.Found = len(all)
	var pending []string
	for _, p := range all {
		if seen.Has(p) {
			fs.Resumed++
			continue
		}
		pending = append(pending, p)
	}
	logger.Info("Folder scanned", slog.Int("images", fs.Found), slog.Int("already_tagged", fs.Resumed), slog.Int("pending", len(pending)))
	if len(pending) == 0 {
		fs.Duration = time.Since(start)
		return fs, nil
	}

	w, err := record.OpenWriter(fs.Output)
	if err != nil {
		return fs, err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("Failed to close output", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Appending records", slog.String("output", w.Path()))

	bar := r.newBar(len(pending), folder)
	defer bar.Finish()

	for i := 0; i < len(pending); i += r.opts.BatchSize {
		batch := pending[i:min(i+r.opts.BatchSize, len(pending))]
		memBefore := allocated()

		results, batchErr := r.processBatch(ctx, logger, batch)
		for j, res := range results {
			if res == nil {
				if batchErr == nil {
					fs.Failed++
				}
				continue
			}
			for _, warn := range res.Warnings {
				warnings[warn.Rule]++
				logger.Debug("Tag rule warning", slog.String("image", batch[j]), slog.String("rule", warn.Rule), slog.String("message", warn.Message), slog.Any("tags", warn.Tags))
			}
			if err := w.Append(record.New(batch[j], res.Tags)); err != nil {
				return fs, err
			}
			seen.Add(batch[j])
			fs.Tagged++
		}
		if batchErr != nil {
			logger.Warn("Run interrupted, finished images were recorded", slog.Int("recorded", fs.Tagged))
			fs.Duration = time.Since(start)
			return fs, batchErr
		}
		_ = bar.Add(len(batch))

		memAfter := allocated()
		logger.Debug("Batch done",
			slog.Int("batch", i/r.opts.BatchSize),
			slog.Int("images", len(batch)),
			slog.String("heap", humanize.Bytes(memAfter)),
			slog.String("heap_delta", signedBytes(memBefore, memAfter)),
		)
	}
	fs.Duration = time.Since(start)
	return fs, nil
}

// processBatch tags a batch with up to Workers goroutines. The result slice is
// in batch order; failed images leave a nil entry. On cancellation the images
// finished so far are still returned along with the context error.
func (r *Runner) processBatch(ctx context.Context, logger *slog.Logger, batch []string) ([]*tagging.Result, error) {
	results := make([]*tagging.Result, len(batch))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(r.opts.Workers, len(batch)) {
		wg.Go(func() {
			for i := range jobs {
				res, err := r.tagOne(ctx, batch[i])
				if err != nil {
					if ctx.Err() == nil {
						logger.Error("Skipping image", slog.String("image", batch[i]), slog.String("error", err.Error()))
					}
					continue
				}
				results[i] = &res
			}
		})
	}

feed:
	for i := range batch {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results, ctx.Err()
}

func (r *Runner) tagOne(ctx context.Context, rel string) (tagging.Result, error) {
	img, err := r.opts.Open(filepath.Join(r.opts.BaseDir, filepath.FromSlash(rel)))
	if err != nil {
		return tagging.Result{}, err
	}
	scores, err := r.scorer.Score(ctx, img)
	if err != nil {
		return tagging.Result{}, fmt.Errorf("score: %w", err)
	}
	return r.pipeline.Run(scores)
}

func (r *Runner) newBar(total int, folder string) *progressbar.ProgressBar {
	if r.opts.Progress == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.opts.Progress),
		progressbar.OptionSetDescription("Processing "+folder),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

func allocated() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

func signedBytes(before, after uint64) string {
	if after >= before {
		return "+" + humanize.Bytes(after-before)
	}
	return "-" + humanize.Bytes(before-after)
}
