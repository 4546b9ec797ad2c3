package plate

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
)

// Pool bounds the number of image analyses running at once.
//
// Extraction and JPEG encoding are CPU bound; running them through a Pool
// keeps a burst of plate updates from starving request handling.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool running at most size jobs concurrently.
// A size below 1 is treated as 1.
func NewPool(size int) *Pool {
	return &Pool{slots: make(chan struct{}, max(size, 1))}
}

// offload runs fn on the pool and waits for its result. If ctx is done first
// the caller gets ctx.Err(); fn keeps running to completion and its result is
// discarded.
func offload[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { <-p.slots }()
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// CoordinatorConfig holds the tunables of a Coordinator.
type CoordinatorConfig struct {
	// Quality is the JPEG quality (1-100). Zero means imaging.DefaultJPEGQuality.
	Quality int

	// Pool runs the CPU-bound work. Nil means a private pool of size 1.
	Pool *Pool

	// Logger receives warnings and, when Debug is set, progress messages.
	// Nil means log.Default().
	Logger *log.Logger
	Debug  bool
}

// Coordinator runs analysis passes for one printer and publishes their
// results.
//
// Coordinator is safe for concurrent use. Passes may overlap; a pass that
// finishes after a newer pass has published is discarded.
type Coordinator struct {
	source  ImageSource
	slot    *Slot
	quality int
	pool    *Pool
	logger  *log.Logger
	debug   bool

	mu        sync.Mutex
	started   uint64 // last pass number handed out
	published uint64 // pass that produced state
	state     State
}

// NewCoordinator creates a Coordinator reading pick images from source and
// publishing JPEGs to slot.
func NewCoordinator(source ImageSource, slot *Slot, cfg CoordinatorConfig) *Coordinator {
	if cfg.Quality == 0 {
		cfg.Quality = imaging.DefaultJPEGQuality
	}
	if cfg.Pool == nil {
		cfg.Pool = NewPool(1)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Coordinator{
		source:  source,
		slot:    slot,
		quality: cfg.Quality,
		pool:    cfg.Pool,
		logger:  cfg.Logger,
		debug:   cfg.Debug,
		state:   emptyState(),
	}
}

// State returns the last published state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Process runs one analysis pass for the given object-name mapping.
//
// An empty mapping publishes the zero state without reading the pick image.
// Otherwise the pick image is fetched, analysed and merged with names. Fetch,
// decode and cancellation errors are returned and leave the published state
// untouched. A JPEG conversion failure is logged only: the merged state is
// still published and the slot keeps its previous image.
//
// The returned State is the one this pass produced, or the current state if
// the pass was superseded by a newer one.
func (c *Coordinator) Process(ctx context.Context, names map[string]string) (State, error) {
	pass := c.begin()

	if len(names) == 0 {
		st := emptyState()
		if !c.publish(pass, st, nil) {
			return c.State(), nil
		}
		c.debugf("Plate cleared: no printable objects")
		return st, nil
	}

	data, err := c.source.PickImage(ctx)
	if err != nil {
		c.logger.Printf("Failed to get pick image: %v", err)
		return c.State(), fmt.Errorf("fetch pick image: %w", err)
	}

	result, err := offload(ctx, c.pool, func() (*imaging.AnalysisResult, error) {
		return imaging.ExtractBoundingBoxes(data)
	})
	if err != nil {
		c.logger.Printf("Error processing pick image: %v", err)
		return c.State(), fmt.Errorf("analyse pick image: %w", err)
	}

	merged := Merge(names, result.BBoxes)
	st := newState(merged, result.ImageWidth, result.ImageHeight)

	jpeg, err := offload(ctx, c.pool, func() ([]byte, error) {
		return imaging.ConvertToJPEG(data, c.quality)
	})
	if err != nil {
		if ctx.Err() != nil {
			return c.State(), ctx.Err()
		}
		c.logger.Printf("Error converting pick image to JPEG: %v", err)
		jpeg = nil
	}

	if !c.publish(pass, st, jpeg) {
		c.debugf("Discarding superseded analysis pass %d", pass)
		return c.State(), nil
	}

	c.debugf("Plate analysis complete: %d objects, image %dx%d",
		st.ObjectCount, st.ImageWidth, st.ImageHeight)
	return st, nil
}

func (c *Coordinator) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	return c.started
}

// publish installs st (and jpeg, if non-nil) unless a newer pass already
// published. It reports whether st was installed.
func (c *Coordinator) publish(pass uint64, st State, jpeg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pass < c.published {
		return false
	}
	c.published = pass
	c.state = st
	if jpeg != nil {
		c.slot.Store(jpeg)
	}
	return true
}

func (c *Coordinator) debugf(format string, args ...interface{}) {
	if c.debug {
		c.logger.Printf(format, args...)
	}
}
