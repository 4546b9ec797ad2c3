package plate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
)

// ErrUnknownPlate is returned for a serial that has no session.
var ErrUnknownPlate = errors.New("unknown plate")

// Options configures a Manager.
type Options struct {
	// Quality is the JPEG quality for every session.
	Quality int

	// Workers bounds concurrent analyses across all sessions.
	Workers int

	// FetchTimeout bounds pick image downloads from URL sources.
	FetchTimeout time.Duration

	Logger *log.Logger
	Debug  bool
}

// Manager owns one Session per printer serial, a shared Registry and the
// shared analysis pool.
//
// Manager is safe for concurrent use.
type Manager struct {
	registry *MemoryRegistry
	cache    *imaging.ImageCache
	client   *http.Client
	pool     *Pool
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. The image cache may be shared with other
// readers of the same files; nil creates a private one.
func NewManager(opts Options, cache *imaging.ImageCache) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if cache == nil {
		cache = imaging.NewImageCache()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		registry: NewMemoryRegistry(),
		cache:    cache,
		client:   &http.Client{Timeout: opts.FetchTimeout},
		pool:     NewPool(opts.Workers),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Registry returns the registry sessions resolve their dependencies from.
func (m *Manager) Registry() *MemoryRegistry {
	return m.registry
}

// Lookup returns the session for serial without creating it.
func (m *Manager) Lookup(serial string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[serial]
	return s, ok
}

// Serials returns the serials of all sessions.
func (m *Manager) Serials() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for serial := range m.sessions {
		out = append(out, serial)
	}
	return out
}

// Session returns the session for serial, creating it and starting its
// dependency watcher on first use.
func (m *Manager) Session(serial string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[serial]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[serial]; ok {
		return s
	}

	s = &Session{
		serial:   serial,
		resolver: NewResolver(serial, m.registry),
		slot:     NewSlot(),
		mgr:      m,
	}
	m.sessions[serial] = s

	changes, unsubscribe := m.registry.Subscribe()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer unsubscribe()
		s.watch(m.ctx, changes)
	}()

	return s
}

// RegisterPickImage records where the pick image for serial lives: a file
// path or an http(s) URL. Once the session is resolved its location is fixed;
// registering a different one fails.
func (m *Manager) RegisterPickImage(serial, location string) error {
	if serial == "" {
		return fmt.Errorf("serial is required")
	}
	if _, err := OpenSource(location, m.cache, m.client); err != nil {
		return err
	}
	s := m.Session(serial)
	if ents, ok := s.resolver.Entities(); ok && ents.PickImage != location {
		return fmt.Errorf("plate %s already resolved with pick image %s", serial, ents.PickImage)
	}
	m.registry.Register(PickImageID(serial), location)
	return nil
}

// UpdateResult is the outcome of Manager.Update.
type UpdateResult struct {
	// Pending is true when the plate's dependencies are not resolved yet.
	// The objects are kept and processed as soon as resolution completes.
	Pending bool  `json:"pending"`
	State   State `json:"state"`
}

// Update delivers a new object-name mapping for serial and runs an analysis
// pass if the session is resolved.
func (m *Manager) Update(ctx context.Context, serial string, names map[string]string) (UpdateResult, error) {
	if serial == "" {
		return UpdateResult{}, fmt.Errorf("serial is required")
	}

	s := m.Session(serial)
	m.registry.Register(PrintableObjectsID(serial), "objects:"+serial)
	s.resolver.TryResolve()

	coord, err := s.claim(names, true)
	if errors.Is(err, ErrNotResolved) {
		m.opts.Logger.Printf("Plate %s: dependencies not found yet, will retry on registry changes", serial)
		return UpdateResult{Pending: true, State: emptyState()}, nil
	}
	if err != nil {
		return UpdateResult{}, err
	}

	st, err := coord.Process(ctx, names)
	return UpdateResult{State: st}, err
}

// Close stops all dependency watchers and waits for them to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// Session is the analysis state of one printer.
type Session struct {
	serial   string
	resolver *Resolver
	slot     *Slot
	mgr      *Manager

	mu      sync.Mutex
	coord   *Coordinator
	pending map[string]string
}

// Serial returns the printer serial.
func (s *Session) Serial() string { return s.serial }

// Slot returns the session's JPEG slot.
func (s *Session) Slot() *Slot { return s.slot }

// ResolveState returns the state of the session's resolver.
func (s *Session) ResolveState() ResolveState { return s.resolver.State() }

// State returns the last published state, or the empty state before the
// first pass.
func (s *Session) State() State {
	s.mu.Lock()
	coord := s.coord
	s.mu.Unlock()
	if coord == nil {
		return emptyState()
	}
	return coord.State()
}

// claim returns the session's coordinator, creating it once the resolver is
// resolved. While unresolved it returns ErrNotResolved and, if park is set,
// keeps names as the pending mapping. With park set and a coordinator
// available, any pending mapping is dropped in favour of names.
func (s *Session) claim(names map[string]string, park bool) (*Coordinator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coord != nil {
		if park {
			s.pending = nil
		}
		return s.coord, nil
	}

	ents, ok := s.resolver.Entities()
	if !ok {
		if park {
			s.pending = copyNames(names)
		}
		return nil, ErrNotResolved
	}

	src, err := OpenSource(ents.PickImage, s.mgr.cache, s.mgr.client)
	if err != nil {
		return nil, fmt.Errorf("open pick image source: %w", err)
	}
	s.coord = NewCoordinator(src, s.slot, CoordinatorConfig{
		Quality: s.mgr.opts.Quality,
		Pool:    s.mgr.pool,
		Logger:  s.mgr.opts.Logger,
		Debug:   s.mgr.opts.Debug,
	})
	if park {
		s.pending = nil
	}
	return s.coord, nil
}

func (s *Session) takePending() (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p, p != nil
}

// watch waits for the session's dependencies and then processes any mapping
// that arrived before resolution.
func (s *Session) watch(ctx context.Context, changes <-chan struct{}) {
	logger := s.mgr.opts.Logger

	ents, err := s.resolver.Wait(ctx, changes)
	if err != nil {
		return
	}
	if s.mgr.opts.Debug {
		logger.Printf("Plate %s resolved: printable_objects=%s, pick_image=%s",
			s.serial, ents.PrintableObjects, ents.PickImage)
	}

	coord, err := s.claim(nil, false)
	if err != nil {
		logger.Printf("Plate %s: %v", s.serial, err)
		return
	}

	names, ok := s.takePending()
	if !ok {
		return
	}
	if _, err := coord.Process(ctx, names); err != nil {
		logger.Printf("Plate %s: pending update failed: %v", s.serial, err)
	}
}

func copyNames(names map[string]string) map[string]string {
	out := make(map[string]string, len(names))
	for k, v := range names {
		out[k] = v
	}
	return out
}
