// Package pipeline runs the batch passes over a content tree: heading
// anchors, summaries and store synchronization.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/starford/docsync/internal/index"
	"github.com/starford/docsync/internal/render"
	"github.com/starford/docsync/internal/storage"
	"github.com/starford/docsync/internal/summary"
)

// Runner holds the collaborators shared by every pass.
type Runner struct {
	Source   storage.Provider
	Store    index.Store
	Renderer render.Renderer
	Summary  *summary.Service // nil disables the summary pass
	Workers  int
	Logger   *slog.Logger
}

// RunReport aggregates the reports of a full run.
type RunReport struct {
	Anchors   AnchorReport   `json:"anchors"`
	Summaries *SummaryReport `json:"summaries,omitempty"`
	Sync      index.Report   `json:"sync"`
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Sync reconciles the store with the content tree.
func (r *Runner) Sync(ctx context.Context) (index.Report, error) {
	return index.Sync(ctx, r.Store, r.Source, index.SyncOptions{
		Renderer: r.Renderer,
		Workers:  r.workers(),
		Logger:   r.logger(),
	})
}

// All runs anchors, then summaries when summarize is set and a summary
// service is configured, then sync. The first fatal error stops the chain.
func (r *Runner) All(ctx context.Context, summarize, force bool) (RunReport, error) {
	start := time.Now()
	var rep RunReport

	anchors, err := r.Anchors(ctx)
	rep.Anchors = anchors
	if err != nil {
		return rep, err
	}

	if summarize && r.Summary != nil {
		sums, err := r.Summarize(ctx, force)
		rep.Summaries = &sums
		if err != nil {
			return rep, err
		}
	}

	rep.Sync, err = r.Sync(ctx)
	if err != nil {
		return rep, err
	}

	r.logger().Info("run: completed", slog.Duration("duration", time.Since(start)))
	return rep, nil
}
