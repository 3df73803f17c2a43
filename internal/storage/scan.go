package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the file extension selected by Scan when none is given.
const DefaultExtension = ".md"

// Scan walks root recursively and returns the paths of every file whose name
// ends in ext, in directory-entry order. Any unreadable directory fails the
// whole scan: a partial tree would make orphan detection delete live documents.
//
// Symbolic links are followed, including a symlinked root. Returned paths
// keep the link names, so a linked directory contributes files under its
// own name. A link back into one of its own ancestors is not descended into.
// Names starting with "." are skipped.
func Scan(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	var out []string
	err := walkTree(root, func(p string, isDir bool) {
		if !isDir && strings.HasSuffix(filepath.Base(p), ext) {
			out = append(out, p)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan %s: %w", root, err)
	}
	return out, nil
}

// Dirs returns root and every non-hidden directory below it, following
// symbolic links the same way Scan does.
func Dirs(root string) ([]string, error) {
	var out []string
	err := walkTree(root, func(p string, isDir bool) {
		if isDir {
			out = append(out, p)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("storage: dirs %s: %w", root, err)
	}
	return out, nil
}

// walkTree calls visit for root and every non-hidden entry below it.
func walkTree(root string, visit func(p string, isDir bool)) error {
	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(real)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	w := &walker{visit: visit, ancestors: map[string]bool{}}
	return w.walk(root, real)
}

type walker struct {
	visit     func(p string, isDir bool)
	ancestors map[string]bool // resolved paths of the directories being walked
}

// walk lists dir, whose resolved location is real.
func (w *walker) walk(dir, real string) error {
	w.visit(dir, true)
	w.ancestors[real] = true
	defer delete(w.ancestors, real)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		childReal := filepath.Join(real, e.Name())

		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(p)
			if errors.Is(err, fs.ErrNotExist) {
				// Dangling link: the target is gone, so there is nothing to index.
				continue
			}
			if err != nil {
				return err
			}
			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			childReal = target
			isDir = info.IsDir()
			if !isDir && !info.Mode().IsRegular() {
				continue
			}
		}

		if !isDir {
			w.visit(p, false)
			continue
		}
		if w.ancestors[childReal] {
			continue
		}
		if err := w.walk(p, childReal); err != nil {
			return err
		}
	}
	return nil
}
