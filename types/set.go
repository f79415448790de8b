package types

import (
	"sync"

	"github.com/goccy/go-json"
)

// Set is an insertion-ordered set used for schema properties, sync modes and
// cursor fields. Safe for concurrent use; serializes as a JSON array.
type Set[T comparable] struct {
	mu    sync.RWMutex
	index map[T]struct{}
	order []T
}

func NewSet[T comparable](elems ...T) *Set[T] {
	set := &Set[T]{index: make(map[T]struct{})}
	set.Insert(elems...)
	return set
}

func (s *Set[T]) Insert(elems ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, elem := range elems {
		if _, found := s.index[elem]; !found {
			s.index[elem] = struct{}{}
			s.order = append(s.order, elem)
		}
	}
}

func (s *Set[T]) Exists(elem T) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.index[elem]
	return found
}

func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Array returns the elements in insertion order.
func (s *Set[T]) Array() []T {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// SubsetOf reports whether every element of s is present in other.
func (s *Set[T]) SubsetOf(other *Set[T]) bool {
	for _, elem := range s.Array() {
		if !other.Exists(elem) {
			return false
		}
	}
	return true
}

func (s *Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Array())
}

func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var elems []T
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	s.Insert(elems...)
	return nil
}
