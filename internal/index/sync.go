package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docsync/internal/address"
	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/render"
	"github.com/starford/docsync/internal/storage"
	"github.com/starford/docsync/internal/summary"
)

// SyncOptions configures a sync run.
type SyncOptions struct {
	Renderer render.Renderer
	Workers  int // upsert pool size, runtime.NumCPU() when <= 0
	Logger   *slog.Logger
}

// Report summarizes one sync run.
type Report struct {
	Scanned  int           `json:"scanned"`
	Skipped  int           `json:"skipped"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Deleted  int           `json:"deleted"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

type upsertResult int

const (
	upsertFailed upsertResult = iota
	upsertCreated
	upsertUpdated
)

// Sync brings the store in line with the content tree:
//   - every addressable file is resolved before anything is written
//   - stored keys with no file are deleted first
//   - every file is rendered and upserted on a bounded worker pool
//
// Scan failures, duplicate output keys and an unavailable store abort the
// run. Any other per-file failure is logged and counted.
func Sync(ctx context.Context, st Store, src storage.Provider, opts SyncOptions) (Report, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rep Report

	files, err := src.List()
	if err != nil {
		return rep, fmt.Errorf("sync: %w", err)
	}
	rep.Scanned = len(files)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.AbsPath
	}
	sources, skipped, err := address.ResolveAll(paths, src.Root(), logger)
	if err != nil {
		return rep, fmt.Errorf("sync: %w", err)
	}
	rep.Skipped = skipped

	stored, err := st.Keys(ctx)
	if err != nil {
		return rep, fmt.Errorf("sync: list stored keys: %w", err)
	}

	current := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		current[s.Address.OutputKey] = struct{}{}
	}
	for _, key := range stored {
		if _, ok := current[key]; ok {
			continue
		}
		if err := st.Delete(ctx, key); err != nil {
			if errors.Is(err, apperr.ErrStoreUnavailable) {
				return rep, fmt.Errorf("sync: %w", err)
			}
			logger.Warn("sync: delete failed", slog.String("key", key), slog.String("error", err.Error()))
			rep.Failed++
			continue
		}
		logger.Debug("sync: removed orphan", slog.String("key", key))
		rep.Deleted++
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewGoldmark()
	}

	results := make([]upsertResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range sources {
		g.Go(func() error {
			res, err := syncOne(gctx, st, src, renderer, s)
			if err != nil {
				if errors.Is(err, apperr.ErrStoreUnavailable) {
					return err
				}
				logger.Warn("sync: upsert failed", slog.String("path", s.RelPath), slog.String("error", err.Error()))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("sync: %w", err)
	}

	for _, r := range results {
		switch r {
		case upsertCreated:
			rep.Created++
		case upsertUpdated:
			rep.Updated++
		default:
			rep.Failed++
		}
	}
	rep.Duration = time.Since(start)

	logger.Info("sync: completed",
		slog.Int("scanned", rep.Scanned),
		slog.Int("skipped", rep.Skipped),
		slog.Int("created", rep.Created),
		slog.Int("updated", rep.Updated),
		slog.Int("deleted", rep.Deleted),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

func syncOne(ctx context.Context, st Store, src storage.Provider, r render.Renderer, s address.Source) (upsertResult, error) {
	data, err := src.Read(s.RelPath)
	if err != nil {
		return upsertFailed, err
	}
	html, err := r.Render(data)
	if err != nil {
		return upsertFailed, err
	}
	created, err := st.Upsert(ctx, Document{
		Key:         s.Address.OutputKey,
		Title:       s.Address.Title,
		Category:    s.Address.Category,
		Subcategory: s.Address.Subcategory,
		Content:     string(html),
		HasSummary:  summary.Classify(string(data)).HasSummary(),
	})
	if err != nil {
		return upsertFailed, err
	}
	if created {
		return upsertCreated, nil
	}
	return upsertUpdated, nil
}
