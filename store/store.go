// Package store holds execution results and resolves shape addresses.
//
// Results are recorded verbatim, keyed by opaque result id, only after the
// isolated runner has fully completed; a partially built result is never
// visible. An address is a (result id, zero-based shape index) pair; the
// three ways resolution can fail are distinct errors so callers can map
// them to their own taxonomy.
//
// Results live in memory for the process lifetime unless an entry cap is
// set, in which case the oldest insertion is evicted first.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/cadexec/runner"
)

// Errors for address resolution.
var (
	// ErrNotFound indicates an unknown result id.
	ErrNotFound = errors.New("result not found")

	// ErrBuildFailed indicates the stored result is a failed build; its
	// shapes cannot be addressed.
	ErrBuildFailed = errors.New("result is a failed build")

	// ErrIndexOutOfRange indicates a shape index at or past the end of the
	// result's shape list.
	ErrIndexOutOfRange = errors.New("shape index out of range")
)

// Store is a concurrency-safe map from result id to runner output.
type Store struct {
	mu         sync.RWMutex
	results    map[string]runner.Output
	order      []string
	maxEntries int
}

// New creates a Store. maxEntries caps retained results, evicting the
// oldest insertion when exceeded; zero means unbounded.
func New(maxEntries int) *Store {
	return &Store{
		results:    make(map[string]runner.Output),
		maxEntries: maxEntries,
	}
}

// Put records one completed runner output verbatim under id, replacing any
// previous entry with the same id.
func (s *Store) Put(id string, out runner.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[id]; !exists {
		s.order = append(s.order, id)
	}
	s.results[id] = out

	for s.maxEntries > 0 && len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}
}

// Get returns the stored output for id.
func (s *Store) Get(id string) (runner.Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.results[id]
	if !ok {
		return runner.Output{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return out, nil
}

// Remove deletes the entry for id, if any.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return
	}
	delete(s.results, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of retained results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Resolve maps an address to the shape descriptor it names.
func (s *Store) Resolve(id string, index int) (runner.ShapeResult, error) {
	out, err := s.Get(id)
	if err != nil {
		return runner.ShapeResult{}, err
	}
	if !out.Success {
		return runner.ShapeResult{}, fmt.Errorf("%w: %q: %s", ErrBuildFailed, id, out.ExceptionStr)
	}
	if index < 0 || index >= len(out.Results) {
		return runner.ShapeResult{}, fmt.Errorf("%w: index %d of %d shapes in %q", ErrIndexOutOfRange, index, len(out.Results), id)
	}
	return out.Results[index], nil
}
