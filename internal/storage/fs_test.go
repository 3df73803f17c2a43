package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func tempContent(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempContent(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempContent(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWritePreservesMode(t *testing.T) {
	s := tempContent(t)
	p := filepath.Join(s.Root(), "mode.md")
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("mode.md", []byte("y")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestList(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("index.md", []byte("a"))
	_ = s.Write("guides/setup.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".git/HEAD.md", []byte("hidden"))

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var rels []string
	for _, it := range items {
		rels = append(rels, it.RelPath)
		if !filepath.IsAbs(it.AbsPath) {
			t.Errorf("AbsPath %q is not absolute", it.AbsPath)
		}
	}
	sort.Strings(rels)
	if len(rels) != 2 || rels[0] != "guides/setup.md" || rels[1] != "index.md" {
		t.Errorf("rels = %v, want [guides/setup.md index.md]", rels)
	}
}

func TestScan_UnreadableDirIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(locked, "a.md"), []byte("a"), 0o644)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	if _, err := Scan(root, ".md"); err == nil {
		t.Error("expected scan to fail on unreadable directory")
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing"), ".md"); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempContent(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".docsync-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/docsync-does-not-exist-"+t.Name(), "")
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "docsync-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name(), "")
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func relPaths(t *testing.T, s *FS) []string {
	t.Helper()
	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var rels []string
	for _, it := range items {
		rels = append(rels, it.RelPath)
	}
	sort.Strings(rels)
	return rels
}

func TestSymlinkedRoot(t *testing.T) {
	real := t.TempDir()
	if err := os.MkdirAll(filepath.Join(real, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(real, "docs", "a.md"), []byte("# A\n"), 0o644)
	link := filepath.Join(t.TempDir(), "content")
	symlink(t, real, link)

	paths, err := Scan(link, ".md")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("Scan through symlinked root = %v, want one file", paths)
	}

	s, err := NewFS(link, "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	want, _ := filepath.EvalSymlinks(real)
	if s.Root() != want {
		t.Errorf("Root() = %q, want %q", s.Root(), want)
	}
	if rels := relPaths(t, s); len(rels) != 1 || rels[0] != "docs/a.md" {
		t.Errorf("rels = %v, want [docs/a.md]", rels)
	}
}

func TestSymlinkedDirectoryFollowed(t *testing.T) {
	s := tempContent(t)
	outside := t.TempDir()
	_ = os.MkdirAll(filepath.Join(outside, "guides"), 0o755)
	_ = os.WriteFile(filepath.Join(outside, "guides", "setup.md"), []byte("# Setup\n"), 0o644)
	symlink(t, outside, filepath.Join(s.Root(), "docs"))

	if rels := relPaths(t, s); len(rels) != 1 || rels[0] != "docs/guides/setup.md" {
		t.Errorf("rels = %v, want [docs/guides/setup.md]", rels)
	}
}

func TestSymlinkCycleTerminates(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("docs/a.md", []byte("# A\n"))
	symlink(t, filepath.Join(s.Root(), "docs"), filepath.Join(s.Root(), "docs", "loop"))
	symlink(t, filepath.Join(s.Root(), "missing"), filepath.Join(s.Root(), "docs", "dangling.md"))

	if rels := relPaths(t, s); len(rels) != 1 || rels[0] != "docs/a.md" {
		t.Errorf("rels = %v, want [docs/a.md]", rels)
	}
	dirs, err := Dirs(s.Root())
	if err != nil {
		t.Fatalf("Dirs: %v", err)
	}
	if len(dirs) != 2 {
		t.Errorf("dirs = %v, want root and docs", dirs)
	}
}

func TestWriteThroughSymlinkedFile(t *testing.T) {
	s := tempContent(t)
	target := filepath.Join(t.TempDir(), "shared.md")
	_ = os.WriteFile(target, []byte("old"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.Root(), "docs"), 0o755)
	link := filepath.Join(s.Root(), "docs", "shared.md")
	symlink(t, target, link)

	if err := s.Write("docs/shared.md", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("symlink replaced by a regular file")
	}
	if got, _ := os.ReadFile(target); string(got) != "new" {
		t.Errorf("target = %q, want new", got)
	}
}
