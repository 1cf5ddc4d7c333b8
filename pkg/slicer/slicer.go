// Package slicer prunes a Java source file down to a focal method and the
// members of its class the method can reach.
package slicer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/panbanda/focal/pkg/config"
	"github.com/panbanda/focal/pkg/java"
	"github.com/panbanda/focal/pkg/query"
)

var (
	// ErrInvariant marks a violated caller contract.
	ErrInvariant = errors.New("slicer: invariant violated")
	// ErrFocalMethodNotFound is returned when the focal method is not
	// declared in the source.
	ErrFocalMethodNotFound = fmt.Errorf("%w: focal method not declared", ErrInvariant)
)

// Result is the outcome of slicing one source file.
type Result struct {
	Code           string   `json:"code" toon:"code"`
	FocalMethod    string   `json:"focal_method" toon:"focal_method"`
	FocalClass     string   `json:"focal_class,omitempty" toon:"focal_class,omitempty"`
	KeptMethods    []string `json:"kept_methods" toon:"kept_methods"`
	RemovedMethods []string `json:"removed_methods" toon:"removed_methods"`
	RemovedFields  []string `json:"removed_fields" toon:"removed_fields"`
	RemovedImports []string `json:"removed_imports" toon:"removed_imports"`
	KeptClasses    []string `json:"kept_classes" toon:"kept_classes"`
	RemovedClasses []string `json:"removed_classes" toon:"removed_classes"`
}

// Slicer runs the pruning pipeline. Comment stripping and method
// reachability always run; the field, import and class stages follow the
// configured toggles.
type Slicer struct {
	sitter *java.Sitter
	stages config.SlicerConfig
	logger *slog.Logger
}

// Option configures a Slicer.
type Option func(*Slicer)

// WithStages toggles the optional pruning stages.
func WithStages(cfg config.SlicerConfig) Option {
	return func(s *Slicer) {
		s.stages = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Slicer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Slicer that parses through engine.
func New(engine *query.Engine, opts ...Option) *Slicer {
	s := &Slicer{
		stages: config.DefaultConfig().Slicer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sitter = java.New(engine, java.WithLogger(s.logger))
	return s
}

// SanitizeFocalClass returns source reduced to the focal method, the methods
// it transitively calls, and the fields, imports and nested classes those
// methods use. focalMethod may be a bare name or a full declaration.
// The result is empty when the source declares no class.
func (s *Slicer) SanitizeFocalClass(source, focalMethod string) (string, error) {
	res, err := s.Slice(source, focalMethod)
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// Slice is SanitizeFocalClass with a report of what each stage kept and
// removed.
func (s *Slicer) Slice(source, focalMethod string) (*Result, error) {
	focal := s.focalName(focalMethod)
	res := &Result{FocalMethod: focal}

	code, err := s.RemoveComments(source)
	if err != nil {
		return nil, err
	}

	code, err = s.keepReachableMethods(code, focal, res)
	if err != nil {
		return nil, err
	}

	if s.stages.PruneFields {
		if code, err = s.removeUnusedFields(code, res); err != nil {
			return nil, err
		}
	}
	if s.stages.PruneImports {
		if code, err = s.removeUnusedImports(code, res); err != nil {
			return nil, err
		}
	}

	class, ok, err := s.focalClass(code)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("no class declaration found", slog.String("focal_method", focal))
		res.Code = ""
		return res, nil
	}
	res.FocalClass = class

	if s.stages.PruneClasses {
		if code, err = s.removeUnusedClasses(code, class, res); err != nil {
			return nil, err
		}
	}

	res.Code = code
	s.logger.Debug("sliced focal class",
		slog.String("focal_method", focal),
		slog.String("focal_class", class),
		slog.Int("kept_methods", len(res.KeptMethods)),
		slog.Int("removed_methods", len(res.RemovedMethods)))
	return res, nil
}

// focalName reduces a full declaration or a signature such as
// "run(String[] args)" to its bare method name.
func (s *Slicer) focalName(focalMethod string) string {
	name := strings.TrimSpace(focalMethod)
	// A signature has nothing but the name before its parameter list
	if before, _, found := strings.Cut(name, "("); found {
		if fields := strings.Fields(before); len(fields) == 1 {
			return fields[0]
		}
	}
	if decl, ok := s.sitter.MethodNameFromDeclaration(name); ok {
		return decl
	}
	return name
}

// RemoveComments deletes every comment and prettifies the result.
func (s *Slicer) RemoveComments(code string) (string, error) {
	return s.sitter.RemoveComments(code)
}

// KeepFocalMethodAndCallees deletes every method not reachable from
// focalMethod through simple-name calls.
func (s *Slicer) KeepFocalMethodAndCallees(code, focalMethod string) (string, error) {
	return s.keepReachableMethods(code, s.focalName(focalMethod), &Result{})
}

// RemoveUnusedFields deletes fields none of whose identifiers appear in a
// method or constructor.
func (s *Slicer) RemoveUnusedFields(code string) (string, error) {
	return s.removeUnusedFields(code, &Result{})
}

// RemoveUnusedImports deletes explicit imports whose simple name is not used
// by any class. Wildcard imports are kept.
func (s *Slicer) RemoveUnusedImports(code string) (string, error) {
	return s.removeUnusedImports(code, &Result{})
}

// RemoveUnusedClasses deletes classes not reachable by type reference from
// the first declared class. It returns an empty string when code declares
// no class.
func (s *Slicer) RemoveUnusedClasses(code string) (string, error) {
	class, ok, err := s.focalClass(code)
	if err != nil || !ok {
		return "", err
	}
	return s.removeUnusedClasses(code, class, &Result{})
}
