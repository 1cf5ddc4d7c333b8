package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFile(t *testing.T, repo *git.Repository, root, name, content, msg string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatal(err)
	}
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

func initTestRepo(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	first := commitFile(t, repo, root, "src/A.java", "class A { void a() {} }\n", "Initial commit")
	commitFile(t, repo, root, "src/A.java", "class A { void a() { b(); } void b() {} }\n", "Second commit")
	return root, first
}

func TestResolveRevisions(t *testing.T) {
	root, first := initTestRepo(t)

	repo, err := NewGitOpener().PlainOpen(root)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	tests := []struct {
		rev  string
		want string
	}{
		{"HEAD", "class A { void a() { b(); } void b() {} }\n"},
		{first, "class A { void a() {} }\n"},
		{"HEAD~1", "class A { void a() {} }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.rev, func(t *testing.T) {
			tree, err := repo.Resolve(tt.rev)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.rev, err)
			}
			got, err := tree.File("src/A.java")
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("File() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveUnknownRevision(t *testing.T) {
	root, _ := initTestRepo(t)
	repo, err := NewGitOpener().PlainOpen(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Resolve("no-such-branch"); err == nil {
		t.Error("Resolve() should fail for an unknown revision")
	}
}

func TestFileNotFound(t *testing.T) {
	root, _ := initTestRepo(t)
	repo, err := NewGitOpener().PlainOpen(root)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := repo.Resolve("HEAD")
	if err != nil {
		t.Fatal(err)
	}

	_, err = tree.File("src/Missing.java")
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("File() error = %v, want ErrFileNotFound", err)
	}
}

func TestEntries(t *testing.T) {
	root, _ := initTestRepo(t)
	repo, err := NewGitOpener().PlainOpen(root)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := repo.Resolve("HEAD")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := tree.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "src/A.java" || entries[0].Size == 0 {
		t.Errorf("Entries() = %+v", entries)
	}
}

func TestPlainOpenWithDetect(t *testing.T) {
	root, _ := initTestRepo(t)

	repo, err := NewGitOpener().PlainOpenWithDetect(filepath.Join(root, "src"))
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error = %v", err)
	}

	head, err := repo.Head()
	if err != nil || len(head) != 40 {
		t.Errorf("Head() = %q, %v", head, err)
	}

	rel, err := RelPath(repo.Root(), filepath.Join(root, "src", "A.java"))
	if err != nil {
		t.Fatal(err)
	}
	if rel != "src/A.java" {
		t.Errorf("RelPath() = %q, want src/A.java", rel)
	}
}

func TestPlainOpenNotARepo(t *testing.T) {
	if _, err := NewGitOpener().PlainOpen(t.TempDir()); err == nil {
		t.Error("PlainOpen() should fail outside a repository")
	}
}

func TestRelPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"nested", filepath.Join(root, "a", "B.java"), "a/B.java", false},
		{"root file", filepath.Join(root, "C.java"), "C.java", false},
		{"outside", filepath.Join(filepath.Dir(root), "D.java"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelPath(root, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RelPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RelPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
