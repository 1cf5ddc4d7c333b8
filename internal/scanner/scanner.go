// Package scanner expands file and directory arguments into Java sources.
package scanner

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/focal/internal/vcs"
	"github.com/panbanda/focal/pkg/config"
	"github.com/panbanda/focal/pkg/parser"
)

// Scanner finds Java source files.
type Scanner struct {
	config *config.Config
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// Expand resolves paths into Java files. Files are kept as given, even when
// an exclude pattern matches them; directories are walked. The result is
// sorted and free of duplicates.
func (s *Scanner) Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ScanDir recursively scans a directory for Java files. Symlinks that
// resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	ignore := s.gitignore(absRoot)

	var files []string
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, p)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(p)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if rel != "." && (s.excludedDir(d.Name()) || ignore.match(p, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.config.ShouldExclude(rel) || ignore.match(p, false) {
			return nil
		}
		if parser.DetectLanguage(p) == parser.LangJava {
			files = append(files, p)
		}
		return nil
	})

	return files, walkErr
}

// ScanTree lists the Java files under dir in a git tree. root is the
// repository's worktree root; returned paths are joined onto it so they can
// be read back through a source.TreeSource.
func (s *Scanner) ScanTree(tree vcs.Tree, root, dir string) ([]string, error) {
	prefix, err := vcs.RelPath(root, dir)
	if err != nil {
		return nil, err
	}

	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if prefix != "." && !strings.HasPrefix(e.Path, prefix+"/") {
			continue
		}
		if parser.DetectLanguage(e.Path) != parser.LangJava {
			continue
		}
		if s.config.ShouldExclude(filepath.FromSlash(e.Path)) || s.inExcludedDir(e.Path) {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(e.Path)))
	}
	slices.Sort(files)
	return files, nil
}

func (s *Scanner) excludedDir(name string) bool {
	return slices.Contains(s.config.Exclude.Dirs, name)
}

func (s *Scanner) inExcludedDir(slashPath string) bool {
	parts := strings.Split(path.Dir(slashPath), "/")
	return slices.ContainsFunc(parts, s.excludedDir)
}

// ignoreSet holds the .gitignore rules of the repository containing a scan.
type ignoreSet struct {
	root    string
	matcher gitignore.Matcher
}

func (s *Scanner) gitignore(absRoot string) ignoreSet {
	if !s.config.Exclude.Gitignore {
		return ignoreSet{}
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return ignoreSet{}
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return ignoreSet{}
	}
	return ignoreSet{root: gitRoot, matcher: gitignore.NewMatcher(patterns)}
}

func (i ignoreSet) match(p string, isDir bool) bool {
	if i.matcher == nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(i.root, abs)
	if err != nil || rel == "." {
		return false
	}
	return i.matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// findGitRoot returns the closest ancestor of start holding a .git
// directory, or "".
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot reports whether path is root or lies below it.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
