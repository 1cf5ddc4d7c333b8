package vcs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return newGitRepository(repo, path)
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	return newGitRepository(repo, path)
}

type gitRepository struct {
	repo *git.Repository
	root string
}

func newGitRepository(repo *git.Repository, fallback string) (*gitRepository, error) {
	root := fallback
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

func (r *gitRepository) Root() string {
	return r.root
}

func (r *gitRepository) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

func (r *gitRepository) Resolve(rev string) (Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return &gitTree{tree: tree, rev: rev}, nil
}

type gitTree struct {
	tree *object.Tree
	rev  string
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s@%s: %w", path, t.rev, ErrFileNotFound)
		}
		return nil, err
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(contents), nil
}

func (t *gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := t.tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
