// Package fileproc runs per-file work concurrently, one query engine per
// worker.
package fileproc

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/focal/pkg/query"
	"github.com/panbanda/focal/pkg/source"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// Unwrap exposes every file error to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// EngineFactory creates the query engine a worker uses for all its files.
type EngineFactory func() (*query.Engine, error)

// ProgressFunc is called once per file, after it succeeds or fails.
type ProgressFunc func(path string, err error)

type options struct {
	workers    int
	newEngine  EngineFactory
	onProgress ProgressFunc
}

// Option configures MapSources.
type Option func(*options)

// WithWorkers bounds the number of concurrent workers. n <= 0 selects
// 2x NumCPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithEngineFactory sets how worker engines are built.
func WithEngineFactory(f EngineFactory) Option {
	return func(o *options) {
		o.newEngine = f
	}
}

// WithProgress registers a per-file callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.onProgress = fn
	}
}

// Result is the value produced for one file.
type Result[T any] struct {
	Path  string
	Value T
}

// MapSources reads every file from src and calls fn on it in parallel.
// Content is read up front and sequentially, since git trees are not safe
// for concurrent reads. Each worker owns one engine for its lifetime.
// Results and errors are returned in input order. Cancelling ctx stops
// files that have not started; they are reported with the context error.
func MapSources[T any](
	ctx context.Context,
	files []string,
	src source.ContentSource,
	fn func(*query.Engine, string, []byte) (T, error),
	opts ...Option,
) ([]Result[T], *ProcessingErrors) {
	o := options{newEngine: func() (*query.Engine, error) { return query.NewJava() }}
	for _, opt := range opts {
		opt(&o)
	}
	if len(files) == 0 {
		return nil, nil
	}

	workers := o.workers
	if workers <= 0 {
		workers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	workers = min(workers, len(files))

	order := make(map[string]int, len(files))
	errs := &ProcessingErrors{}
	report := func(path string, err error) {
		if err != nil {
			errs.Add(path, err)
		}
		if o.onProgress != nil {
			o.onProgress(path, err)
		}
	}

	type job struct {
		index   int
		path    string
		content []byte
	}
	jobs := make([]job, 0, len(files))
	for i, path := range files {
		order[path] = i
		content, err := src.Read(path)
		if err != nil {
			report(path, err)
			continue
		}
		jobs = append(jobs, job{index: i, path: path, content: content})
	}

	engines := newEnginePool(workers, o.newEngine)
	defer engines.close()

	values := make([]*Result[T], len(files))
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for _, j := range jobs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				report(j.path, err)
				return nil
			}

			engine, err := engines.get()
			if err != nil {
				report(j.path, err)
				return nil
			}
			defer engines.put(engine)

			v, err := fn(engine, j.path, j.content)
			if err != nil {
				report(j.path, err)
				return nil
			}
			values[j.index] = &Result[T]{Path: j.path, Value: v}
			report(j.path, nil)
			return nil
		})
	}
	_ = p.Wait()

	results := make([]Result[T], 0, len(jobs))
	for _, v := range values {
		if v != nil {
			results = append(results, *v)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	slices.SortFunc(errs.Errors, func(a, b ProcessingError) int {
		return cmp.Compare(order[a.Path], order[b.Path])
	})
	return results, errs
}

// enginePool hands out at most n engines, creating them on first use.
type enginePool struct {
	slots     chan *query.Engine
	newEngine EngineFactory
}

func newEnginePool(n int, f EngineFactory) *enginePool {
	slots := make(chan *query.Engine, n)
	for range n {
		slots <- nil
	}
	return &enginePool{slots: slots, newEngine: f}
}

func (p *enginePool) get() (*query.Engine, error) {
	e := <-p.slots
	if e != nil {
		return e, nil
	}
	e, err := p.newEngine()
	if err != nil {
		p.slots <- nil
		return nil, err
	}
	return e, nil
}

func (p *enginePool) put(e *query.Engine) {
	p.slots <- e
}

func (p *enginePool) close() {
	close(p.slots)
	for e := range p.slots {
		if e != nil {
			e.Close()
		}
	}
}
