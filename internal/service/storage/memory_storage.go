package storage

import "sync"

// MemoryStorage - in-memory object storage that remembers insertion order
// K - key type, V - stored object type
type MemoryStorage[K comparable, V any] struct {
	data  map[K]V
	order []K
	mutex sync.RWMutex
}

var _ Storage[string, int] = (*MemoryStorage[string, int])(nil)

// NewMemoryStorage creates a new storage
func NewMemoryStorage[K comparable, V any]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data: make(map[K]V),
	}
}

// Set adds an object at the end of the order, or updates it in place
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
}

// Get returns an object by key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// Delete removes an object by key
func (s *MemoryStorage[K, V]) Delete(key K) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		return false
	}

	delete(s.data, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Values returns all values in insertion order
func (s *MemoryStorage[K, V]) Values() []V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]V, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, s.data[k])
	}
	return result
}

// ForEach executes a function for each object in insertion order
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy data under lock for subsequent processing
	s.mutex.RLock()
	keys := make([]K, len(s.order))
	copy(keys, s.order)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = s.data[k]
	}
	s.mutex.RUnlock()

	// Process copied data without locking
	for i, k := range keys {
		if !fn(k, values[i]) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes every object and returns how many were removed
func (s *MemoryStorage[K, V]) Clear() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	n := len(s.data)
	s.data = make(map[K]V)
	s.order = nil
	return n
}
