package storage

// Storage defines interface for an insertion-ordered object store
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	Values() []V
	ForEach(fn func(key K, value V) bool)
	Count() int
	Clear() int
}
