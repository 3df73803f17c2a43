package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/checksum"
)

//go:generate mockgen -source=service.go -destination=mocks/summarizer_mock.go -package=mocks

// Summarizer produces summary text for a Markdown document.
type Summarizer interface {
	Summarize(ctx context.Context, markdown, title string) (string, error)
}

// Service applies summary transitions, calling the Summarizer only when a
// fresh block is needed. Generated text is memoized by content checksum.
type Service struct {
	summarizer Summarizer
	cache      *cache.Cache
	timeout    time.Duration
}

// NewService creates a Service. A zero timeout disables the per-call deadline
// and a zero cacheTTL disables memoization.
func NewService(s Summarizer, timeout, cacheTTL time.Duration) *Service {
	svc := &Service{summarizer: s, timeout: timeout}
	if cacheTTL > 0 {
		svc.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return svc
}

// Process plans and applies the transition for one document. title is used
// when the front matter does not name one. Summarizer failures leave the
// text unchanged and return an error wrapping apperr.ErrSummarizer.
func (s *Service) Process(ctx context.Context, text, title string, force bool) (Outcome, error) {
	from, action := Plan(text, force)
	if action != Generate {
		return Apply(text, force, "")
	}

	doc := Split(text)
	if doc.Title != "" {
		title = doc.Title
	}
	body := doc.Body
	if force {
		body = removeBlock(body)
	}

	generated, err := s.generate(ctx, body, title, force)
	if err != nil {
		return Outcome{Text: text, Action: Skip, From: from, To: from}, err
	}
	return Apply(text, force, generated)
}

func (s *Service) generate(ctx context.Context, body, title string, force bool) (string, error) {
	key := checksum.SumParts(body, title)
	if s.cache != nil && !force {
		if v, ok := s.cache.Get(key); ok {
			return v.(string), nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.summarizer.Summarize(ctx, body, title)
	if err != nil {
		return "", fmt.Errorf("summary: summarize %q: %w: %w", title, apperr.ErrSummarizer, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summary: summarize %q: empty response: %w", title, apperr.ErrSummarizer)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, text)
	}
	return text, nil
}
