// Package loader reads ledger files written in YAML and turns them into a sorted
// directive stream. Files may include other files; included paths are resolved
// from the directory of the including file and every file is loaded at most once.
//
// A ledger file looks like this:
//
//	include:
//	  - prices.yaml
//	options:
//	  booking_method: FIFO
//	plugins:
//	  - module: auto_commodities
//	directives:
//	  - date: 2024-01-01
//	    open: Assets:Broker
//	    currencies: [STOCK, USD]
//	  - date: 2024-01-02
//	    txn: Buy shares
//	    postings:
//	      - account: Assets:Broker
//	        units: 10 STOCK
//	        cost: 100 USD
//	      - account: Assets:Cash
//
// Example usage:
//
//	ldr := loader.New(loader.WithFollowIncludes())
//	result, err := ldr.Load(ctx, "main.yaml")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/beanledger/ast"
	"github.com/robinvdvleuten/beanledger/telemetry"
)

// Loader loads ledger files.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithFollowIncludes())
type Loader struct {
	// FollowIncludes determines whether included files are loaded too. When false
	// the include list is only reported in Result.Includes.
	FollowIncludes bool
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes configures the loader to recursively load all included files
// and merge their directives into one stream.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is the outcome of loading a ledger.
type Result struct {
	// Root is the absolute path of the file passed to Load.
	Root string
	// Files lists the absolute paths of every loaded file in load order. Directive
	// positions use the same paths.
	Files []string
	// Includes holds the include entries that were not followed.
	Includes []string
	// Directives is the merged directive stream, sorted chronologically.
	Directives ast.Directives
}

// Load reads filename and returns its directives.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	timer := telemetry.StartTimer(ctx, "loader.load "+filepath.Base(filename))
	defer timer.End()

	root, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	state := &loaderState{
		follow:  l.FollowIncludes,
		visited: make(map[string]bool),
		result:  &Result{Root: root},
		timer:   timer,
	}
	if err := state.load(ctx, filename); err != nil {
		return nil, err
	}

	ast.SortDirectives(state.result.Directives)
	timer.Count(len(state.result.Directives))
	return state.result, nil
}

// LoadBytes parses a single document without following includes. filename is
// only used for positions.
func LoadBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	result := &Result{Root: filename, Files: []string{filename}}
	doc, err := decode(filename, data)
	if err != nil {
		return nil, err
	}
	result.Includes = doc.Include
	result.Directives = doc.directives
	ast.SortDirectives(result.Directives)
	return result, nil
}

// loaderState tracks state during recursive loading.
type loaderState struct {
	follow  bool
	visited map[string]bool
	result  *Result
	timer   telemetry.Timer
}

func (s *loaderState) load(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}
	// Files included more than once are only loaded the first time.
	if s.visited[absPath] {
		return nil
	}
	s.visited[absPath] = true

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	parseTimer := s.timer.Child("loader.parse " + filepath.Base(filename))
	doc, err := decode(absPath, data)
	if err != nil {
		parseTimer.End()
		return err
	}
	parseTimer.Count(len(doc.directives))
	parseTimer.End()

	s.result.Files = append(s.result.Files, absPath)
	s.result.Directives = append(s.result.Directives, doc.directives...)

	if !s.follow {
		s.result.Includes = append(s.result.Includes, doc.Include...)
		return nil
	}

	baseDir := filepath.Dir(absPath)
	for _, include := range doc.Include {
		path := include
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if err := s.load(ctx, path); err != nil {
			return fmt.Errorf("in file %s: %w", filename, err)
		}
	}
	return nil
}
