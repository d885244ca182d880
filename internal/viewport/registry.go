package viewport

import (
	"container/list"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/hyperjump/tfexplorer/internal/camera"
)

// ErrNotFound is returned for unknown or evicted viewport IDs.
var ErrNotFound = errors.New("viewport not found")

// Registry holds guards keyed by viewport ID, evicting the least recently used one
// when capacity is exceeded.
type Registry struct {
	capacity    int
	sanitizer   *camera.Sanitizer
	defaultPose camera.Pose
	entries     map[string]*list.Element
	lru         *list.List
	mu          sync.Mutex
}

type registryEntry struct {
	id    string
	guard *Guard
}

// NewRegistry creates a registry. A non-positive capacity means 256.
func NewRegistry(capacity int, sanitizer *camera.Sanitizer, defaultPose camera.Pose) *Registry {
	if capacity <= 0 {
		capacity = 256
	}
	return &Registry{
		capacity:    capacity,
		sanitizer:   sanitizer,
		defaultPose: defaultPose,
		entries:     make(map[string]*list.Element),
		lru:         list.New(),
	}
}

// Create registers a new viewport and returns its ID.
func (r *Registry) Create() (string, *Guard) {
	id := uuid.New().String()
	g := NewGuard(r.sanitizer, r.defaultPose)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = r.lru.PushFront(&registryEntry{id: id, guard: g})
	if r.lru.Len() > r.capacity {
		if oldest := r.lru.Back(); oldest != nil {
			r.lru.Remove(oldest)
			delete(r.entries, oldest.Value.(*registryEntry).id)
		}
	}
	return id, g
}

// Get returns the guard for id and marks it recently used.
func (r *Registry) Get(id string) (*Guard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	elem, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.lru.MoveToFront(elem)
	return elem.Value.(*registryEntry).guard, nil
}

// Delete removes id. It reports whether the viewport existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	elem, ok := r.entries[id]
	if !ok {
		return false
	}
	r.lru.Remove(elem)
	delete(r.entries, id)
	return true
}

// Len returns the number of live viewports.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}
