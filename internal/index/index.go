package index

import (
	"context"
	"time"
)

//go:generate mockgen -source=index.go -destination=mocks/store_mock.go -package=mocks

// Document is one stored, rendered Markdown document keyed by its output key.
type Document struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Content     string    `json:"content"`
	HasSummary  bool      `json:"has_summary"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store defines the persisted document set the sync engine reconciles against.
// Consumers should depend on this interface rather than a concrete backend.
//
// Upsert creates the document when its key is absent and otherwise updates
// title, category, subcategory, content and updated_at in place, reporting
// whether it created. HasSummary is stored on insert and on update can only
// turn the flag on. Errors caused by a lost connection wrap
// apperr.ErrStoreUnavailable.
type Store interface {
	Upsert(ctx context.Context, doc Document) (created bool, err error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) (*Document, error)
	SetHasSummary(ctx context.Context, key string, hasSummary bool) error
	Close() error
}

// Verify backends satisfy Store at compile time.
var (
	_ Store = (*DB)(nil)
	_ Store = (*Mongo)(nil)
)
