package engine

import "sync"

// runState is the only shared mutable state in a run: the id→success
// completion map consulted by the dependent phase, and the accumulating
// result list. All access goes through the mutex; workers in the parallel
// phase and the sequential dependent phase both record through it.
type runState struct {
	mu        sync.Mutex
	completed map[string]bool
	results   []TaskResult
}

func newRunState(capacity int) *runState {
	return &runState{
		completed: make(map[string]bool, capacity),
		results:   make([]TaskResult, 0, capacity),
	}
}

// record stores a finished task's outcome in the completion map and
// appends its result.
func (s *runState) record(result TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[result.ID] = result.Success
	s.results = append(s.results, result)
}

// depsSatisfied reports whether every listed dependency has completed
// successfully. A dependency that has not run at all counts as
// unsatisfied.
func (s *runState) depsSatisfied(deps []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range deps {
		if !s.completed[dep] {
			return false
		}
	}
	return true
}

// snapshot returns the accumulated results. Safe to call after all
// workers have been joined; the returned slice is the state's own.
func (s *runState) snapshot() []TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}
