// Package source abstracts where Java text is read from: the working tree or
// a git revision.
package source

import (
	"os"
	"sync"

	"github.com/panbanda/focal/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Paths given to Read are working
// tree paths; they are made relative to the repository root first.
// It is safe for concurrent use.
type TreeSource struct {
	tree vcs.Tree
	root string
	mu   sync.Mutex
}

// NewTree creates a source reading tree, whose repository is rooted at root.
// An empty root passes paths through unchanged.
func NewTree(tree vcs.Tree, root string) *TreeSource {
	return &TreeSource{tree: tree, root: root}
}

// Tree returns the underlying git tree.
func (t *TreeSource) Tree() vcs.Tree { return t.tree }

// Root returns the repository's worktree root.
func (t *TreeSource) Root() string { return t.root }

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	if t.root != "" {
		rel, err := vcs.RelPath(t.root, path)
		if err != nil {
			return nil, err
		}
		path = rel
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(path)
}

// AtRevision opens the repository containing dir and returns a source
// reading rev.
func AtRevision(dir, rev string) (*TreeSource, error) {
	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(dir)
	if err != nil {
		return nil, err
	}
	tree, err := repo.Resolve(rev)
	if err != nil {
		return nil, err
	}
	return NewTree(tree, repo.Root()), nil
}
