// Package storage defines the content-tree file-system abstraction.
package storage

// File describes one Markdown source file found under the content root.
type File struct {
	// RelPath is relative to the content root, always with forward slashes.
	RelPath string
	// AbsPath is the absolute path on disk.
	AbsPath string
}

// Provider is the interface for content file operations.
type Provider interface {
	// Root returns the absolute content root.
	Root() string
	// Extension returns the file extension that marks a Markdown file.
	Extension() string
	// List returns every Markdown file under the content root.
	List() ([]File, error)
	// Read returns the raw bytes of the file at path (relative to the content root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (relative to the content root).
	Write(path string, content []byte) error
}
