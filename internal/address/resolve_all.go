package address

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/docsync/internal/apperr"
)

// Source pairs a scanned file with its resolved address.
type Source struct {
	AbsPath string
	RelPath string
	Address Address
}

// ResolveAll resolves every path in paths against root. Unaddressable files
// are logged and left out. Two files resolving to the same output key,
// compared case-insensitively, make the whole set unusable and return
// apperr.ErrDuplicateKey.
func ResolveAll(paths []string, root string, logger *slog.Logger) ([]Source, int, error) {
	out := make([]Source, 0, len(paths))
	owners := make(map[string]string, len(paths))
	skipped := 0

	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, skipped, fmt.Errorf("address: %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		addr, err := ResolveRel(rel)
		if errors.Is(err, apperr.ErrUnaddressable) {
			skipped++
			logger.Warn("resolve: file not in expected path structure", slog.String("path", rel))
			continue
		}
		if err != nil {
			return nil, skipped, err
		}

		// Keys differing only in case collide on case-insensitive file systems.
		fold := strings.ToLower(addr.OutputKey)
		if prev, dup := owners[fold]; dup {
			return nil, skipped, fmt.Errorf("address: %s and %s both map to %s: %w",
				prev, rel, addr.OutputKey, apperr.ErrDuplicateKey)
		}
		owners[fold] = rel
		out = append(out, Source{AbsPath: p, RelPath: rel, Address: addr})
	}
	return out, skipped, nil
}
