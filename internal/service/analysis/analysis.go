// Package analysis orchestrates slicing and call graph queries for the CLI
// and the MCP server.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/panbanda/focal/internal/cache"
	"github.com/panbanda/focal/internal/fileproc"
	"github.com/panbanda/focal/internal/output"
	"github.com/panbanda/focal/internal/scanner"
	"github.com/panbanda/focal/internal/vcs"
	"github.com/panbanda/focal/pkg/callgraph"
	"github.com/panbanda/focal/pkg/config"
	"github.com/panbanda/focal/pkg/feed"
	"github.com/panbanda/focal/pkg/java"
	"github.com/panbanda/focal/pkg/models"
	"github.com/panbanda/focal/pkg/query"
	"github.com/panbanda/focal/pkg/slicer"
	"github.com/panbanda/focal/pkg/source"
)

// ErrNoMethod is returned when a slice is requested without a focal method.
var ErrNoMethod = errors.New("focal method is required")

// graphCacheSize bounds the number of memoized call graphs.
const graphCacheSize = 8

// Service orchestrates slicing and call graph operations.
type Service struct {
	config *config.Config
	opener vcs.Opener
	cache  *cache.Cache
	logger *slog.Logger
	graphs *lru.Cache[string, *callgraph.Graph]
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener used for revision reads.
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithCache sets the slice result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	graphs, _ := lru.New[string, *callgraph.Graph](graphCacheSize)
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: slog.Default(),
		graphs: graphs,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache, _ = cache.New("", 0, false)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// SliceOptions configures a slice run.
type SliceOptions struct {
	// Method is the focal method, as a bare name or a full declaration.
	Method string
	// Ref reads sources at a git revision instead of the working tree.
	Ref string
	// Repo locates the repository for Ref. Defaults to ".".
	Repo string
	// OnStart receives the number of files about to be sliced.
	OnStart    func(files int)
	OnProgress fileproc.ProgressFunc
}

// FileSlice is the slice of one file.
type FileSlice struct {
	Path   string           `json:"path" toon:"path"`
	Result *slicer.Result   `json:"result" toon:"result"`
	Tokens output.Reduction `json:"tokens" toon:"tokens"`
	Cached bool             `json:"cached,omitempty" toon:"cached,omitempty"`
}

// Slice reduces every Java file named by paths to the focal method and what
// it reaches. Directories are expanded. Files that fail are reported in a
// *fileproc.ProcessingErrors alongside the slices that succeeded.
func (s *Service) Slice(ctx context.Context, paths []string, opts SliceOptions) ([]FileSlice, error) {
	if opts.Method == "" {
		return nil, ErrNoMethod
	}

	files, src, err := s.resolve(paths, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no Java files found")
	}
	if opts.OnStart != nil {
		opts.OnStart(len(files))
	}

	stages := s.config.Slicer
	sliceFile := func(engine *query.Engine, path string, content []byte) (FileSlice, error) {
		key := cache.SliceKey(content, opts.Method, stages)
		var res slicer.Result
		if s.cache.Get(key, &res) {
			return FileSlice{Path: path, Result: &res, Tokens: output.Reduce(string(content), res.Code), Cached: true}, nil
		}

		sl := slicer.New(engine, slicer.WithStages(stages), slicer.WithLogger(s.logger))
		out, err := sl.Slice(string(content), opts.Method)
		if err != nil {
			return FileSlice{}, err
		}
		if err := s.cache.Set(key, out); err != nil {
			s.logger.Warn("failed to cache slice", slog.String("path", path), slog.String("error", err.Error()))
		}
		return FileSlice{Path: path, Result: out, Tokens: output.Reduce(string(content), out.Code)}, nil
	}

	results, errs := fileproc.MapSources(ctx, files, src, sliceFile,
		fileproc.WithWorkers(s.config.Batch.Workers),
		fileproc.WithEngineFactory(s.newEngine),
		fileproc.WithProgress(opts.OnProgress))

	slices := make([]FileSlice, len(results))
	for i, r := range results {
		slices[i] = r.Value
	}
	if errs != nil {
		return slices, errs
	}
	return slices, nil
}

func (s *Service) newEngine() (*query.Engine, error) {
	return query.NewJava(query.WithCacheSize(s.config.Parser.CacheSize))
}

// resolve expands paths into files and picks the source they are read from.
func (s *Service) resolve(paths []string, opts SliceOptions) ([]string, source.ContentSource, error) {
	sc := scanner.NewScanner(s.config)
	if opts.Ref == "" {
		files, err := sc.Expand(paths)
		if err != nil {
			return nil, nil, err
		}
		return files, source.NewFilesystem(), nil
	}

	repoDir := opts.Repo
	if repoDir == "" {
		repoDir = "."
	}
	repo, err := s.opener.PlainOpenWithDetect(repoDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repository: %w", err)
	}
	tree, err := repo.Resolve(opts.Ref)
	if err != nil {
		return nil, nil, err
	}
	src := source.NewTree(tree, repo.Root())

	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, err
		}
		// A path missing from the working tree may still exist at the revision
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			found, err := sc.ScanTree(tree, repo.Root(), abs)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, found...)
			continue
		}
		files = append(files, abs)
	}
	return files, src, nil
}

// LoadGraph builds the call graph of a feed file. Graphs are memoized by
// path, size and modification time, so an edited feed is rebuilt.
func (s *Service) LoadGraph(ctx context.Context, feedPath string) (*callgraph.Graph, error) {
	abs, err := filepath.Abs(feedPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	key := fmt.Sprintf("%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano())
	if g, ok := s.graphs.Get(key); ok {
		return g, nil
	}

	edges, err := feed.Load(abs)
	if err != nil {
		return nil, err
	}

	engine, err := s.newEngine()
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	g, err := callgraph.Build(ctx, edges,
		callgraph.WithEdgeTypes(s.edgeTypes()...),
		callgraph.WithSitter(java.New(engine, java.WithLogger(s.logger))),
		callgraph.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.graphs.Add(key, g)
	return g, nil
}

func (s *Service) edgeTypes() []models.EdgeType {
	types := make([]models.EdgeType, len(s.config.CallGraph.EdgeTypes))
	for i, t := range s.config.CallGraph.EdgeTypes {
		types[i] = models.EdgeType(t)
	}
	return types
}
