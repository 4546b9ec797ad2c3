package plate

import (
	"context"
	"errors"
	"sync"
)

// ErrNotResolved is returned while a session's upstream dependencies are
// still unknown.
var ErrNotResolved = errors.New("plate dependencies not resolved")

// Registry maps stable unique ids to the current entity behind them.
type Registry interface {
	Lookup(uniqueID string) (entityID string, ok bool)
}

// PrintableObjectsID returns the unique id of a printer's object-name feed.
func PrintableObjectsID(serial string) string {
	return serial + "_printable_objects"
}

// PickImageID returns the unique id of a printer's pick image.
func PickImageID(serial string) string {
	return serial + "_pick_image"
}

// MemoryRegistry is an in-process Registry that notifies subscribers on
// every change.
//
// MemoryRegistry is safe for concurrent use.
type MemoryRegistry struct {
	mu       sync.RWMutex
	entities map[string]string
	subs     map[int]chan struct{}
	nextSub  int
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entities: make(map[string]string),
		subs:     make(map[int]chan struct{}),
	}
}

// Lookup implements Registry.
func (r *MemoryRegistry) Lookup(uniqueID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.entities[uniqueID]
	return id, ok
}

// Register binds uniqueID to entityID and notifies subscribers if that
// changed anything.
func (r *MemoryRegistry) Register(uniqueID, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entities[uniqueID]; ok && cur == entityID {
		return
	}
	r.entities[uniqueID] = entityID
	r.notifyLocked()
}

// Unregister removes uniqueID and notifies subscribers if it was present.
func (r *MemoryRegistry) Unregister(uniqueID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[uniqueID]; !ok {
		return
	}
	delete(r.entities, uniqueID)
	r.notifyLocked()
}

// Subscribe returns a channel that receives a value after registry changes,
// and a function that cancels the subscription. Notifications are coalesced:
// a slow reader sees at least one value after any burst of changes.
func (r *MemoryRegistry) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

func (r *MemoryRegistry) notifyLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ResolveState is the state of a Resolver.
type ResolveState int

const (
	// Unresolved means at least one dependency is missing.
	Unresolved ResolveState = iota
	// Resolved means both dependencies were found. It is terminal.
	Resolved
)

func (s ResolveState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Entities are the resolved upstream dependencies of one printer.
type Entities struct {
	PrintableObjects string `json:"printable_objects"`
	PickImage        string `json:"pick_image"`
}

// Resolver finds a printer's dependencies in a Registry.
//
// Dependencies may appear in any order and after the resolver is created, so
// callers drive it with TryResolve or block in Wait on a change feed.
type Resolver struct {
	serial   string
	registry Registry

	mu       sync.Mutex
	state    ResolveState
	entities Entities
}

// NewResolver creates an unresolved Resolver for serial.
func NewResolver(serial string, registry Registry) *Resolver {
	return &Resolver{serial: serial, registry: registry}
}

// State returns the current state.
func (r *Resolver) State() ResolveState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Entities returns the resolved dependencies. ok is false while unresolved.
func (r *Resolver) Entities() (Entities, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities, r.state == Resolved
}

// TryResolve looks up both dependencies and reports whether the resolver is
// now resolved. Once resolved, further calls do not consult the registry.
func (r *Resolver) TryResolve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Resolved {
		return true
	}

	objects, okObjects := r.registry.Lookup(PrintableObjectsID(r.serial))
	image, okImage := r.registry.Lookup(PickImageID(r.serial))
	if !okObjects || !okImage {
		return false
	}

	r.entities = Entities{PrintableObjects: objects, PickImage: image}
	r.state = Resolved
	return true
}

// Wait blocks until the resolver is resolved, re-checking after every value
// received from changes. It returns ctx.Err() if ctx is done first and
// ErrNotResolved if changes is closed while still unresolved.
func (r *Resolver) Wait(ctx context.Context, changes <-chan struct{}) (Entities, error) {
	for {
		if r.TryResolve() {
			e, _ := r.Entities()
			return e, nil
		}
		select {
		case <-ctx.Done():
			return Entities{}, ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return Entities{}, ErrNotResolved
			}
		}
	}
}
