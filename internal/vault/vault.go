// Package vault provides access to the user's notes directory.
// Notes are plain files addressed by vault-relative slash paths, so the same
// directory works for Obsidian, Logseq, or any folder of markdown files.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies what a vault path currently points at.
type Kind int

const (
	// Absent means nothing exists at the path.
	Absent Kind = iota
	// Document means the path is a readable, writable note.
	Document
	// Folder means the path is a directory, not a note.
	Folder
)

// String returns the lowercase name of the kind for log output.
func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Document:
		return "document"
	case Folder:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Store is the narrow surface the rest of the daemon uses to touch notes.
// Five operations, nothing else: callers that need richer filesystem access
// are holding the wrong abstraction.
type Store interface {
	// Stat reports what currently exists at the given vault-relative path.
	Stat(name string) Kind

	// Create writes a new note with the given content. It fails if the note
	// already exists or if the parent folder is missing; it never creates
	// intermediate folders.
	Create(name, content string) error

	// Read returns the full content of an existing note.
	Read(name string) (string, error)

	// Modify replaces the full content of a note.
	Modify(name, content string) error

	// Append adds content after the note's existing content, creating the
	// note if it is absent.
	Append(name, content string) error
}

// Dir is a Store rooted at a directory on the local filesystem.
type Dir struct {
	root string
}

// NewDir creates a Store over the given directory. The directory itself must
// already exist; picking the vault location is the user's job, not ours.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("vault: directory not configured")
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory the store is rooted at.
func (d *Dir) Root() string {
	return d.root
}

// resolve maps a vault-relative slash path to an absolute filesystem path.
// Paths that climb out of the vault are rejected.
func (d *Dir) resolve(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", errors.New("vault: empty path")
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("vault: path %q escapes the vault", name)
	}
	return filepath.Join(d.root, filepath.FromSlash(name)), nil
}

func (d *Dir) Stat(name string) Kind {
	path, err := d.resolve(name)
	if err != nil {
		return Absent
	}
	info, err := os.Stat(path)
	if err != nil {
		return Absent
	}
	if info.IsDir() {
		return Folder
	}
	return Document
}

func (d *Dir) Create(name, content string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("vault: create %s: %w", name, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("vault: create %s: %w", name, err)
	}
	return f.Close()
}

func (d *Dir) Read(name string) (string, error) {
	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", name, err)
	}
	return string(data), nil
}

func (d *Dir) Modify(name, content string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("vault: modify %s: %w", name, err)
	}
	return nil
}

func (d *Dir) Append(name, content string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("vault: append %s: %w", name, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("vault: append %s: %w", name, err)
	}
	return f.Close()
}

// IsNotExist reports whether err came from a Read of an absent note.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
