package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docsync/internal/slug"
	"github.com/starford/docsync/internal/storage"
)

// AnchorReport summarizes one anchor pass.
type AnchorReport struct {
	Scanned  int           `json:"scanned"`
	Modified int           `json:"modified"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

type fileResult int

const (
	fileFailed fileResult = iota
	fileUnchanged
	fileModified
)

// AssignFile rewrites the anchors of one file and writes it back only when
// the text changed. It reports whether the file was modified. Paths that do
// not carry the provider's Markdown extension are rejected.
func AssignFile(src storage.Provider, rel string) (bool, error) {
	if !strings.HasSuffix(rel, src.Extension()) {
		return false, fmt.Errorf("anchors: %s is not a %s file", rel, src.Extension())
	}
	data, err := src.Read(rel)
	if err != nil {
		return false, err
	}
	out := slug.Assign(string(data))
	if out == string(data) {
		return false, nil
	}
	if err := src.Write(rel, []byte(out)); err != nil {
		return false, err
	}
	return true, nil
}

// Anchors assigns heading anchors to every Markdown file under the content
// root. A failed scan aborts the pass; per-file failures are logged and
// counted.
func (r *Runner) Anchors(ctx context.Context) (AnchorReport, error) {
	start := time.Now()
	logger := r.logger()
	var rep AnchorReport

	files, err := r.Source.List()
	if err != nil {
		return rep, fmt.Errorf("anchors: %w", err)
	}
	rep.Scanned = len(files)

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			modified, err := AssignFile(r.Source, f.RelPath)
			switch {
			case err != nil:
				logger.Warn("anchors: file failed", slog.String("path", f.RelPath), slog.String("error", err.Error()))
				results[i] = fileFailed
			case modified:
				logger.Debug("anchors: updated", slog.String("path", f.RelPath))
				results[i] = fileModified
			default:
				results[i] = fileUnchanged
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("anchors: %w", err)
	}

	for _, res := range results {
		switch res {
		case fileModified:
			rep.Modified++
		case fileFailed:
			rep.Failed++
		}
	}
	rep.Duration = time.Since(start)

	logger.Info("anchors: completed",
		slog.Int("scanned", rep.Scanned),
		slog.Int("modified", rep.Modified),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}
