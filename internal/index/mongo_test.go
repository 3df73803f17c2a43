package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/starford/docsync/internal/apperr"
)

// testMongo connects to the server named by DOCSYNC_TEST_MONGO_URI and uses a
// throwaway collection. Tests are skipped when the variable is unset.
func testMongo(t *testing.T) *Mongo {
	t.Helper()
	uri := os.Getenv("DOCSYNC_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DOCSYNC_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	coll := fmt.Sprintf("documents_test_%d", time.Now().UnixNano())
	m, err := OpenMongo(ctx, uri, "docsync_test", coll)
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	t.Cleanup(func() {
		_ = m.coll.Drop(context.Background())
		_ = m.Close()
	})
	return m
}

func TestMongo_UpsertGetDelete(t *testing.T) {
	m := testMongo(t)
	ctx := context.Background()

	created, err := m.Upsert(ctx, Document{Key: "docs/intro.html", Title: "intro", Category: "docs"})
	if err != nil || !created {
		t.Fatalf("Upsert = %v, %v", created, err)
	}
	first, err := m.Get(ctx, "docs/intro.html")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	created, err = m.Upsert(ctx, Document{Key: "docs/intro.html", Title: "Intro", Content: "<p>x</p>"})
	if err != nil || created {
		t.Fatalf("second Upsert = %v, %v", created, err)
	}
	second, _ := m.Get(ctx, "docs/intro.html")
	if second.ID != first.ID || second.Title != "Intro" || second.Content != "<p>x</p>" {
		t.Errorf("unexpected document after update: %+v", second)
	}

	if err := m.SetHasSummary(ctx, "docs/intro.html", true); err != nil {
		t.Fatalf("SetHasSummary: %v", err)
	}
	if err := m.SetHasSummary(ctx, "missing.html", true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("SetHasSummary missing: %v", err)
	}

	keys, err := m.Keys(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("Keys = %v, %v", keys, err)
	}
	if err := m.Delete(ctx, "docs/intro.html"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "docs/intro.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestOpenMongo_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for server selection timeout")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_, err := OpenMongo(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "x", "")
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}
