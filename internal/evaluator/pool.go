package evaluator

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable means no evaluator could be provided: the pool is exhausted
// for the full acquire timeout, or the engine process failed to start. It is
// fatal to the unit of work that requested the evaluator, never to the run.
var ErrUnavailable = errors.New("evaluator unavailable")

// Factory creates a fresh engine. The pool calls it lazily as demand grows.
type Factory func() (Engine, error)

// Handle is a pooled engine lease. Use the embedded Engine and return the
// handle with Pool.Release when the batch is done.
type Handle struct {
	Engine
	id int
}

// Pool is a bounded set of engine processes. Engines are created on demand
// up to capacity and reused across acquisitions. The pool is the only
// resource shared between analysis workers and serializes its bookkeeping
// under a mutex.
type Pool struct {
	factory Factory
	log     zerolog.Logger

	mu       sync.Mutex
	capacity int
	created  int
	nextID   int
	closed   bool

	idle chan *Handle
}

// NewPool creates a pool that will run at most capacity engines.
func NewPool(capacity int, factory Factory, log zerolog.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		factory:  factory,
		log:      log,
		capacity: capacity,
		idle:     make(chan *Handle, capacity),
	}
}

// Acquire returns an engine handle, waiting up to timeout if the pool is at
// capacity with every engine checked out. Returns ErrUnavailable on timeout,
// on engine spawn failure, and after Shutdown.
func (p *Pool) Acquire(timeout time.Duration) (*Handle, error) {
	// Fast path: an idle engine is ready.
	select {
	case h := <-p.idle:
		return h, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrUnavailable
	}
	if p.created < p.capacity {
		p.created++
		p.nextID++
		id := p.nextID
		p.mu.Unlock()

		eng, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			p.log.Warn().Err(err).Msg("engine spawn failed")
			return nil, ErrUnavailable
		}
		p.log.Debug().Int("engine_id", id).Msg("engine started")
		return &Handle{Engine: eng, id: id}, nil
	}
	p.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case h := <-p.idle:
		return h, nil
	case <-timer.C:
		return nil, ErrUnavailable
	}
}

// Release returns a handle to the idle set. If the idle set is already full
// (a release raced a shutdown or an over-spawn), the engine is closed rather
// than leaked.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	// The closed check and the idle push share one critical section, so a
	// concurrent Shutdown either drains this handle or sees closed first.
	p.mu.Lock()
	if !p.closed {
		select {
		case p.idle <- h:
			p.mu.Unlock()
			return
		default:
		}
	}
	p.mu.Unlock()
	p.discard(h)
}

func (p *Pool) discard(h *Handle) {
	p.mu.Lock()
	p.created--
	p.mu.Unlock()
	if err := h.Close(); err != nil {
		p.log.Warn().Err(err).Int("engine_id", h.id).Msg("engine close failed")
	}
}

// Shutdown closes all idle engines and rejects further acquisitions.
// Engines still checked out are closed when released.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case h := <-p.idle:
			p.discard(h)
		default:
			return
		}
	}
}

// Size returns the number of live engine processes.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
