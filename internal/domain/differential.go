package domain

// Keyed is implemented by entities identified by their path
type Keyed interface {
	Key() string
}

// OrderedSet keeps entities in insertion order, deduplicated by key.
// The first entity added for a key wins.
type OrderedSet[T Keyed] struct {
	index map[string]int
	items []T
}

// NewOrderedSet creates an empty set
func NewOrderedSet[T Keyed]() *OrderedSet[T] {
	return &OrderedSet[T]{index: make(map[string]int)}
}

// Add inserts an entity, returning false if its key was already present
func (s *OrderedSet[T]) Add(item T) bool {
	if _, ok := s.index[item.Key()]; ok {
		return false
	}
	s.index[item.Key()] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// AddAll inserts every entity and returns how many were new
func (s *OrderedSet[T]) AddAll(items []T) int {
	added := 0
	for _, item := range items {
		if s.Add(item) {
			added++
		}
	}
	return added
}

// Contains reports whether the key is present
func (s *OrderedSet[T]) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of entities
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Items returns the entities in insertion order
func (s *OrderedSet[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// PathDifferential is the result of comparing observed and persisted paths
type PathDifferential struct {
	Added   []string
	Removed []string
}

// Diff computes added = observed - persisted and removed = persisted - observed.
// Duplicates in either input are collapsed; output order follows first
// occurrence in the respective input.
func Diff(observed, persisted []string) PathDifferential {
	observedSet := pathSet(observed)
	persistedSet := pathSet(persisted)

	var diff PathDifferential
	seen := make(map[string]struct{}, len(observed))
	for _, p := range observed {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := persistedSet[p]; !ok {
			diff.Added = append(diff.Added, p)
		}
	}

	clear(seen)
	for _, p := range persisted {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := observedSet[p]; !ok {
			diff.Removed = append(diff.Removed, p)
		}
	}

	return diff
}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// Differential carries full entities for additions and bare paths for removals
type Differential[T Keyed] struct {
	Added   []T
	Removed []string
}

// IsEmpty reports whether nothing was added or removed
func (d Differential[T]) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Keys extracts the keys of a slice of entities
func Keys[T Keyed](items []T) []string {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.Key()
	}
	return keys
}
