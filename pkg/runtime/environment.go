package runtime

import (
	"fmt"
	"sort"
)

// ScopeStack provides lexical scoping for script values. The first frame is
// the global scope; it is created with the stack and never popped. Each
// runtime instance owns exactly one stack — nothing is shared across runtimes.
type ScopeStack struct {
	frames []map[string]Value
}

// NewScopeStack creates a stack holding only the global scope.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{frames: []map[string]Value{make(map[string]Value)}}
}

// Depth reports the number of live scopes (1 = global only).
func (s *ScopeStack) Depth() int {
	return len(s.frames)
}

// Push enters a nested scope.
func (s *ScopeStack) Push() {
	s.frames = append(s.frames, make(map[string]Value))
}

// Pop leaves the innermost scope. The global scope is never removed.
func (s *ScopeStack) Pop() {
	if len(s.frames) <= 1 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// WithScope runs fn inside a fresh scope, guaranteeing the scope is released
// on every exit path so push/pop stay balanced across failures.
func (s *ScopeStack) WithScope(fn func() error) error {
	s.Push()
	defer s.Pop()
	return fn()
}

// Define inserts or shadows a binding in the innermost scope only.
func (s *ScopeStack) Define(name string, value Value) {
	s.frames[len(s.frames)-1][name] = value
}

// DefinedLocally reports whether the innermost scope binds name.
func (s *ScopeStack) DefinedLocally(name string) bool {
	_, ok := s.frames[len(s.frames)-1][name]
	return ok
}

// DefineGlobal inserts a binding directly into the global scope.
func (s *ScopeStack) DefineGlobal(name string, value Value) {
	s.frames[0][name] = value
}

// Assign updates an existing binding in the innermost scope where it appears,
// after checking that the new value's kind is compatible with the old one.
func (s *ScopeStack) Assign(name string, value Value) (Value, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		old, ok := s.frames[i][name]
		if !ok {
			continue
		}
		if !Compatible(old, value) {
			return nil, fmt.Errorf("%w: %s: cannot replace %s with %s",
				ErrTypeMismatch, name, old.Kind(), value.Kind())
		}
		s.frames[i][name] = value
		return value, nil
	}
	return nil, fmt.Errorf("%w to assign: %s", ErrUnboundVariable, name)
}

// Resolve retrieves a binding, searching innermost to outermost. Accessor
// values are returned as-is; invoking them is the runtime's job since they
// need the live market context.
func (s *ScopeStack) Resolve(name string) (Value, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, name)
}

// GlobalKeys returns the global bindings in sorted order (useful for
// determinism in tests).
func (s *ScopeStack) GlobalKeys() []string {
	keys := make([]string, 0, len(s.frames[0]))
	for k := range s.frames[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
