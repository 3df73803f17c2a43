// Package internal wires the configuration, stores and pipeline together
// and implements the command-line entry points.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/starford/docsync/internal/address"
	"github.com/starford/docsync/internal/index"
	"github.com/starford/docsync/internal/llm"
	"github.com/starford/docsync/internal/mcpserver"
	"github.com/starford/docsync/internal/metrics"
	"github.com/starford/docsync/internal/pipeline"
	"github.com/starford/docsync/internal/render"
	"github.com/starford/docsync/internal/storage"
	"github.com/starford/docsync/internal/summary"
)

// Pass names used for logging and metrics labels.
const (
	PassSync      = "sync"
	PassAnchors   = "anchors"
	PassSummarize = "summarize"
	PassRun       = "run"
	PassWatch     = "watch"
)

const pushTimeout = 10 * time.Second

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.logger == nil {
		app.logger = newLogger(app.config.App, os.Stderr)
		slog.SetDefault(app.logger)
	}
	return app, nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openStore opens the configured document store.
func (a *application) openStore(ctx context.Context) (index.Store, error) {
	cfg := a.config.Store
	switch cfg.Driver {
	case DriverMongo:
		return index.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	default:
		return index.Open(cfg.SQLite.Path)
	}
}

// newSummaryService returns nil when no summarizer endpoint is configured.
func (a *application) newSummaryService() *summary.Service {
	cfg := a.config.Summarizer
	if !cfg.Enabled() {
		return nil
	}
	client := llm.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model,
		llm.WithRateLimit(cfg.RequestsPerSecond),
		llm.WithSampling(cfg.MaxTokens, cfg.Temperature),
	)
	return summary.NewService(client, cfg.Timeout, cfg.CacheTTL)
}

// newRunner builds the pipeline. withStore is false for passes that only
// touch the content tree. The returned close func releases the store.
func (a *application) newRunner(ctx context.Context, withStore bool) (*pipeline.Runner, func(), error) {
	src, err := storage.NewFS(a.config.Content.Root, a.config.Content.Extension)
	if err != nil {
		return nil, nil, fmt.Errorf("init content: %w", err)
	}

	runner := &pipeline.Runner{
		Source:   src,
		Renderer: render.NewGoldmark(),
		Summary:  a.newSummaryService(),
		Workers:  a.config.Workers,
		Logger:   a.logger,
	}
	closeFn := func() {}

	if withStore {
		st, err := a.openStore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init store: %w", err)
		}
		runner.Store = st
		closeFn = func() {
			if err := st.Close(); err != nil {
				a.logger.Warn("store close failed", slog.String("error", err.Error()))
			}
		}
	}

	a.logger.Info("Configuration loaded",
		slog.String("content_root", src.Root()),
		slog.String("store_driver", a.config.Store.Driver),
		slog.Bool("summarizer", runner.Summary != nil),
		slog.Int("workers", a.config.Workers),
		slog.String("log_level", a.config.App.LogLevel.String()))

	return runner, closeFn, nil
}

// execute runs one pass, records it and writes its report.
func (a *application) execute(ctx context.Context, pass string, withStore bool, fn func(context.Context, *pipeline.Runner, *metrics.Metrics) (any, error)) error {
	runner, closeFn, err := a.newRunner(ctx, withStore)
	if err != nil {
		return err
	}
	defer closeFn()

	m := metrics.New()
	rep, err := fn(ctx, runner, m)
	m.ObserveRun(pass, err)
	a.pushMetrics(m)

	if rep != nil {
		if werr := a.writeReport(rep); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		a.logger.Error("pass failed", slog.String("pass", pass), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (a *application) pushMetrics(m *metrics.Metrics) {
	cfg := a.config.Metrics
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := m.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		a.logger.Warn("metrics push failed", slog.String("error", err.Error()))
	}
}

func (a *application) writeReport(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Sync reconciles the document store with the content tree.
func Sync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	return app.execute(ctx, PassSync, true, func(ctx context.Context, r *pipeline.Runner, m *metrics.Metrics) (any, error) {
		rep, err := r.Sync(ctx)
		m.ObserveSync(rep)
		return rep, err
	})
}

// Anchors rewrites heading anchors across the content tree.
func Anchors(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	return app.execute(ctx, PassAnchors, false, func(ctx context.Context, r *pipeline.Runner, m *metrics.Metrics) (any, error) {
		rep, err := r.Anchors(ctx)
		m.ObserveAnchors(rep)
		return rep, err
	})
}

// Summarize adds or normalizes summary blocks. The store is opened so the
// has-summary flag of already synced documents is kept current.
func Summarize(ctx context.Context, force bool, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	if !app.config.Summarizer.Enabled() {
		return errors.New("summarizer is not configured: set summarizer.base_url")
	}
	return app.execute(ctx, PassSummarize, true, func(ctx context.Context, r *pipeline.Runner, m *metrics.Metrics) (any, error) {
		rep, err := r.Summarize(ctx, force)
		m.ObserveSummaries(rep)
		return rep, err
	})
}

// Run runs anchors, optionally summaries, then sync.
func Run(ctx context.Context, summarize, force bool, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	if summarize && !app.config.Summarizer.Enabled() {
		return errors.New("summarizer is not configured: set summarizer.base_url")
	}
	return app.execute(ctx, PassRun, true, func(ctx context.Context, r *pipeline.Runner, m *metrics.Metrics) (any, error) {
		rep, err := r.All(ctx, summarize, force)
		m.ObserveAll(rep)
		return rep, err
	})
}

// Watch performs an initial sync and then re-syncs after each burst of
// content changes until ctx is cancelled.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	runner, closeFn, err := app.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer closeFn()

	syncOnce := func(ctx context.Context) error {
		m := metrics.New()
		rep, err := runner.Sync(ctx)
		m.ObserveSync(rep)
		m.ObserveRun(PassWatch, err)
		app.pushMetrics(m)
		if err == nil {
			app.logger.Info("watch: synced",
				slog.Int("created", rep.Created),
				slog.Int("updated", rep.Updated),
				slog.Int("deleted", rep.Deleted),
				slog.Int("failed", rep.Failed))
		}
		return err
	}

	if err := syncOnce(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	err = index.Watch(ctx, runner.Source.Root(), runner.Source.Extension(),
		app.config.Watch.Debounce, app.logger, syncOnce)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.logger.Info("watch: stopped")
	return nil
}

// Resolve writes the canonical address of a content-relative path.
func Resolve(path string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	addr, err := address.ResolveRel(path)
	if err != nil {
		return err
	}
	return app.writeReport(addr)
}

// ServeMCP serves the pipeline as MCP tools over stdio until the client
// disconnects.
func ServeMCP(_ context.Context, version string, opts ...Option) error {
	// stdout carries the protocol.
	opts = append(opts, WithOutput(io.Discard))
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	runner, closeFn, err := app.newRunner(context.Background(), true)
	if err != nil {
		return err
	}
	defer closeFn()

	app.logger.Info("mcp: serving on stdio")
	return mcpserver.New(runner, version).ServeStdio()
}
