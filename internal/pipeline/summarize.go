package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docsync/internal/address"
	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/summary"
)

// SummaryReport summarizes one summary pass.
type SummaryReport struct {
	Scanned   int           `json:"scanned"`
	Skipped   int           `json:"skipped"`
	Generated int           `json:"generated"`
	Relabeled int           `json:"relabeled"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

type summaryResult struct {
	action summary.Action
	failed bool
}

// Summarize adds or normalizes the summary block of every addressable
// document except the root index. With force, existing summaries are
// regenerated. Documents that end up with any recognized summary, including
// a marker-only one that is left alone, get their hasSummary flag set in the
// store.
//
// Summarizer and per-file failures are logged and counted; an unavailable
// store aborts the pass.
func (r *Runner) Summarize(ctx context.Context, force bool) (SummaryReport, error) {
	start := time.Now()
	logger := r.logger()
	var rep SummaryReport

	if r.Summary == nil {
		return rep, fmt.Errorf("summarize: no summarizer configured")
	}

	files, err := r.Source.List()
	if err != nil {
		return rep, fmt.Errorf("summarize: %w", err)
	}
	rep.Scanned = len(files)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.AbsPath
	}
	sources, skipped, err := address.ResolveAll(paths, r.Source.Root(), logger)
	if err != nil {
		return rep, fmt.Errorf("summarize: %w", err)
	}
	rep.Skipped = skipped

	results := make([]summaryResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, s := range sources {
		if s.Address.IsHome() {
			results[i] = summaryResult{action: summary.Skip}
			rep.Skipped++
			continue
		}
		g.Go(func() error {
			res, err := r.summarizeOne(gctx, s, force)
			if err != nil {
				if errors.Is(err, apperr.ErrStoreUnavailable) {
					return err
				}
				logger.Warn("summarize: file failed", slog.String("path", s.RelPath), slog.String("error", err.Error()))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("summarize: %w", err)
	}

	for i, res := range results {
		switch {
		case sources[i].Address.IsHome():
		case res.failed:
			rep.Failed++
		case res.action == summary.Generate:
			rep.Generated++
		case res.action == summary.Relabel:
			rep.Relabeled++
		default:
			rep.Unchanged++
		}
	}
	rep.Duration = time.Since(start)

	logger.Info("summarize: completed",
		slog.Bool("force", force),
		slog.Int("scanned", rep.Scanned),
		slog.Int("skipped", rep.Skipped),
		slog.Int("generated", rep.Generated),
		slog.Int("relabeled", rep.Relabeled),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

func (r *Runner) summarizeOne(ctx context.Context, s address.Source, force bool) (summaryResult, error) {
	data, err := r.Source.Read(s.RelPath)
	if err != nil {
		return summaryResult{failed: true}, err
	}

	out, err := r.Summary.Process(ctx, string(data), s.Address.Title, force)
	if err != nil {
		return summaryResult{failed: true}, err
	}
	if out.Changed {
		if err := r.Source.Write(s.RelPath, []byte(out.Text)); err != nil {
			return summaryResult{failed: true}, err
		}
		r.logger().Debug("summarize: updated",
			slog.String("path", s.RelPath),
			slog.String("action", out.Action.String()),
			slog.String("from", out.From.String()))
	}

	if !out.To.HasSummary() || r.Store == nil {
		return summaryResult{action: out.Action}, nil
	}
	err = r.Store.SetHasSummary(ctx, s.Address.OutputKey, true)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		r.logger().Debug("summarize: document not stored yet", slog.String("key", s.Address.OutputKey))
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return summaryResult{action: out.Action}, err
	default:
		return summaryResult{action: out.Action, failed: true}, err
	}
	return summaryResult{action: out.Action}, nil
}
