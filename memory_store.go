package courier

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is a stored value with intrusive LRU chain pointers.
type memoryEntry struct {
	key       string
	value     *Response
	expiresAt int64 // unix nanos, 0 = never expires

	prev, next *memoryEntry
}

func (e *memoryEntry) expired(now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

// MemoryStore is an in-memory Store with TTL expiry and LRU eviction. Get and
// Has promote the touched entry to the front of the recency chain; when the
// entry bound is exceeded the tail (least recently used) entry is evicted.
// Safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	store      map[string]*memoryEntry
	head, tail *memoryEntry
	maxEntries int

	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore creates a store bounded to maxEntries. A bound <= 0 means
// unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		store:      make(map[string]*memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get implements Store. Expired entries are lazily deleted.
func (s *MemoryStore) Get(_ context.Context, key string) (*Response, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[key]
	if !ok {
		s.misses++
		return nil, false, nil
	}
	if entry.expired(time.Now().UnixNano()) {
		s.removeEntry(entry)
		s.misses++
		return nil, false, nil
	}
	s.touch(entry)
	s.hits++
	return entry.value, true, nil
}

// Set implements Store. Overflow evicts the least-recently-used entry.
func (s *MemoryStore) Set(_ context.Context, key string, value *Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	if existing, ok := s.store[key]; ok {
		existing.value = value
		existing.expiresAt = expiresAt
		s.touch(existing)
		return nil
	}

	if s.maxEntries > 0 && len(s.store) >= s.maxEntries {
		s.evictLRU()
	}

	entry := &memoryEntry{key: key, value: value, expiresAt: expiresAt}
	s.store[key] = entry
	s.pushFront(entry)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.store[key]; ok {
		s.removeEntry(entry)
	}
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = make(map[string]*memoryEntry)
	s.head = nil
	s.tail = nil
	return nil
}

// Has implements Store. Like Get it touches the entry and lazily deletes
// expired ones.
func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[key]
	if !ok {
		return false, nil
	}
	if entry.expired(time.Now().UnixNano()) {
		s.removeEntry(entry)
		return false, nil
	}
	s.touch(entry)
	return true, nil
}

// Cleanup implements Cleaner: it sweeps every expired entry.
func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano()
	for _, entry := range s.store {
		if entry.expired(now) {
			s.removeEntry(entry)
		}
	}
	return nil
}

// Len returns the current number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.store)
}

// Stats returns hit/miss/eviction counters since construction.
func (s *MemoryStore) Stats() (hits, misses, evictions int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, s.evictions
}

// LRU chain management. Callers hold s.mu.

func (s *MemoryStore) pushFront(entry *memoryEntry) {
	entry.prev = nil
	entry.next = s.head
	if s.head != nil {
		s.head.prev = entry
	}
	s.head = entry
	if s.tail == nil {
		s.tail = entry
	}
}

func (s *MemoryStore) unlink(entry *memoryEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		s.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		s.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (s *MemoryStore) touch(entry *memoryEntry) {
	if s.head == entry {
		return
	}
	s.unlink(entry)
	s.pushFront(entry)
}

func (s *MemoryStore) removeEntry(entry *memoryEntry) {
	delete(s.store, entry.key)
	s.unlink(entry)
}

func (s *MemoryStore) evictLRU() {
	if s.tail == nil {
		return
	}
	s.removeEntry(s.tail)
	s.evictions++
}
