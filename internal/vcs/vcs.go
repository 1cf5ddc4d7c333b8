// Package vcs reads Java sources as they were at a git revision.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrFileNotFound is returned when a path does not exist at a revision.
var ErrFileNotFound = errors.New("file not found at revision")

// Repository resolves revisions of a git repository.
type Repository interface {
	// Root returns the worktree root of the repository.
	Root() string
	// Head returns the commit hash HEAD points at.
	Head() (string, error)
	// Resolve returns the tree of the commit rev names. Any revision git
	// understands is accepted: branches, tags, hashes, HEAD~2.
	Resolve(rev string) (Tree, error)
}

// TreeEntry is a file in a tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree is the file tree of one commit. File paths are relative to the
// repository root and slash separated.
type Tree interface {
	File(path string) ([]byte, error)
	Entries() ([]TreeEntry, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens the repository rooted at path.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens the repository containing path, searching
	// parent directories for .git.
	PlainOpenWithDetect(path string) (Repository, error)
}

// RelPath converts path into a slash separated path relative to root, as
// used inside a Tree.
func RelPath(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}
