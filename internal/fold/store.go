package fold

import (
	"container/list"
	"sync"
)

type storeEntry struct {
	id string
	// users counts callers between acquire and release; guarded by Store.mu.
	users int

	mu    sync.Mutex
	cache *Cache
}

// Store keeps the most recent Cache for each of a bounded number of buffers.
// Compute on one buffer is serialized; different buffers run in parallel.
// Entries in use are never evicted, so the store may briefly hold more than
// its capacity.
type Store struct {
	analyzer Analyzer

	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func NewStore(analyzer Analyzer, capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{
		analyzer: analyzer,
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Compute returns the fold levels for the buffer identified by id.
func (s *Store) Compute(id string, lines []string) ([]int, Stats, error) {
	entry := s.acquire(id)
	defer s.release(entry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	levels, cache, err := s.analyzer.Compute(lines, entry.cache)
	if err != nil {
		return nil, Stats{}, err
	}
	entry.cache = cache
	return levels, cache.Stats(), nil
}

// Lookup returns the cache stored for id, if any.
func (s *Store) Lookup(id string) (*Cache, bool) {
	s.mu.Lock()
	elem, ok := s.items[id]
	if ok {
		s.ll.MoveToFront(elem)
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*storeEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.cache, entry.cache != nil
}

// Seed installs a cache for id, e.g. one restored from disk.
func (s *Store) Seed(id string, cache *Cache) {
	entry := s.acquire(id)
	entry.mu.Lock()
	entry.cache = cache
	entry.mu.Unlock()
	s.release(entry)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

func (s *Store) acquire(id string) *storeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[id]; ok {
		s.ll.MoveToFront(elem)
		entry := elem.Value.(*storeEntry)
		entry.users++
		return entry
	}

	entry := &storeEntry{id: id, users: 1}
	s.items[id] = s.ll.PushFront(entry)
	s.evictLocked()
	return entry
}

func (s *Store) release(entry *storeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.users--
	s.evictLocked()
}

// evictLocked drops idle entries from the back until the store fits.
func (s *Store) evictLocked() {
	for elem := s.ll.Back(); elem != nil && s.ll.Len() > s.capacity; {
		prev := elem.Prev()
		if entry := elem.Value.(*storeEntry); entry.users == 0 {
			delete(s.items, entry.id)
			s.ll.Remove(elem)
		}
		elem = prev
	}
}
