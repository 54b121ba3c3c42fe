// Package dedup provides bounded recent-history windows that suppress
// duplicate notifications for the same external event id.
package dedup

import "sync"

// DefaultCapacity bounds each window when no explicit capacity is given.
const DefaultCapacity = 200

// window is the per-entity bounded set. Membership lives in the map; the
// queue preserves insertion order so eviction is strictly FIFO.
type window struct {
	mu       sync.Mutex
	members  map[string]struct{}
	queue    []string
	capacity int
}

func (w *window) seen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.members[id]
	return ok
}

func (w *window) record(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.members[id]; ok {
		return
	}
	w.members[id] = struct{}{}
	w.queue = append(w.queue, id)
	for len(w.queue) > w.capacity {
		oldest := w.queue[0]
		w.queue = w.queue[1:]
		delete(w.members, oldest)
	}
}

// Windows holds one bounded dedup window per entity key. Unrelated entities
// never contend on a shared lock.
type Windows struct {
	mu       sync.RWMutex
	byEntity map[string]*window
	capacity int
}

// New creates an empty window set. A capacity <= 0 falls back to
// DefaultCapacity.
func New(capacity int) *Windows {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Windows{
		byEntity: make(map[string]*window),
		capacity: capacity,
	}
}

// Seen reports whether id was already recorded for the entity.
func (ws *Windows) Seen(entity, id string) bool {
	ws.mu.RLock()
	w, ok := ws.byEntity[entity]
	ws.mu.RUnlock()
	if !ok {
		return false
	}
	return w.seen(id)
}

// Record inserts id into the entity's window, evicting the oldest id if the
// window exceeds its capacity. Recording an id twice is a no-op.
func (ws *Windows) Record(entity, id string) {
	ws.mu.Lock()
	w, ok := ws.byEntity[entity]
	if !ok {
		w = &window{
			members:  make(map[string]struct{}),
			capacity: ws.capacity,
		}
		ws.byEntity[entity] = w
	}
	ws.mu.Unlock()
	w.record(id)
}
