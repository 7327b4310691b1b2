// Package pool manages a bounded, recyclable set of browser workers: fair
// checkout, recycle-on-release, age- and use-count-based eviction, and a
// graceful drain on shutdown.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/skarab42/pantin-go/internal/browser"
)

// closeConcurrency bounds how many workers are closed in parallel during
// eviction and drain, matching the teacher's browser-pool shutdown limit.
const closeConcurrency = 4

// ErrClosed is returned by Get once the pool has been drained and closed.
var ErrClosed = errors.New("pool: closed")

// Config controls pool sizing and eviction policy.
type Config struct {
	MaxSize         int
	MaxAge          time.Duration
	MaxRecycleCount int64
	BrowserProgram  string
	Trace           bool
}

// entry is the pool's bookkeeping wrapper around a checked-out-or-idle
// worker: recycle_count and last_used_at from spec §3.
type entry struct {
	worker       *browser.Worker
	createdAt    time.Time
	lastUsedAt   time.Time
	recycleCount int64
}

// Handle is returned by Get; it holds the borrowed worker plus the state
// needed to either Release (recycle) or Discard (evict) it.
type Handle struct {
	Worker *browser.Worker

	pool *Pool
	e    *entry
}

// Pool is a bounded set of workers. At most one holder of any worker exists
// at a time, and size never exceeds MaxSize.
type Pool struct {
	mu     sync.Mutex
	cfg    Config
	idle   []*entry
	waitQ  []chan *entry
	total  int
	closed bool

	stopCh  chan struct{}
	closeWg sync.WaitGroup

	stats Stats
}

// Stats tracks cumulative pool counters for observability.
type Stats struct {
	Acquired int64
	Released int64
	Evicted  int64
	Errors   int64
}

// New creates an empty pool. Workers are created lazily on first use, up to
// cfg.MaxSize, rather than pre-warmed — matching spec §4.G's "get()" rule.
func New(cfg Config) *Pool {
	p := &Pool{
		cfg:    cfg,
		idle:   make([]*entry, 0, cfg.MaxSize),
		stopCh: make(chan struct{}),
	}

	p.closeWg.Add(1)
	go p.evictionLoop()

	return p
}

// Get returns an exclusively held worker. If the pool is below capacity and
// no idle worker is available, a new one is spawned (blocking the caller);
// otherwise the caller waits, FIFO, for one to be released.
func (p *Pool) Get(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	if n := len(p.idle); n > 0 {
		e := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		p.stats.Acquired++
		return &Handle{Worker: e.worker, pool: p, e: e}, nil
	}

	if p.total < p.cfg.MaxSize {
		p.total++
		p.mu.Unlock()

		w, err := browser.New(p.cfg.BrowserProgram, p.cfg.Trace)
		if err != nil {
			p.mu.Lock()
			p.total--
			p.stats.Errors++
			p.mu.Unlock()
			return nil, fmt.Errorf("pool: spawning worker: %w", err)
		}

		e := &entry{worker: w, createdAt: time.Now(), lastUsedAt: time.Now()}
		p.mu.Lock()
		p.stats.Acquired++
		p.mu.Unlock()
		return &Handle{Worker: w, pool: p, e: e}, nil
	}

	wait := make(chan *entry, 1)
	p.waitQ = append(p.waitQ, wait)
	p.mu.Unlock()

	select {
	case e, ok := <-wait:
		if !ok {
			return nil, ErrClosed
		}
		p.mu.Lock()
		p.stats.Acquired++
		p.mu.Unlock()
		return &Handle{Worker: e.worker, pool: p, e: e}, nil
	case <-ctx.Done():
		p.removeWaiter(wait)
		return nil, ctx.Err()
	}
}

func (p *Pool) removeWaiter(ch chan *entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waitQ {
		if w == ch {
			p.waitQ = append(p.waitQ[:i], p.waitQ[i+1:]...)
			return
		}
	}
}

// Release bumps recycle_count and last_used_at, then either hands the
// worker directly to the next FIFO waiter or returns it to idle. No health
// probe is performed on release.
func (h *Handle) Release() {
	h.e.recycleCount++
	h.e.lastUsedAt = time.Now()

	p := h.pool
	p.mu.Lock()
	p.stats.Released++

	if len(p.waitQ) > 0 {
		wait := p.waitQ[0]
		p.waitQ = p.waitQ[1:]
		p.mu.Unlock()
		wait <- h.e
		return
	}

	p.idle = append(p.idle, h.e)
	p.mu.Unlock()
}

// Discard forcibly closes the worker rather than recycling it. This is the
// required policy when a checked-out worker may be mid-frame (a cancelled
// request): it is poisoned, not reused.
func (h *Handle) Discard() {
	p := h.pool
	closeWorker(h.e.worker)

	p.mu.Lock()
	p.total--

	var wait chan *entry
	if len(p.waitQ) > 0 && !p.closed {
		wait = p.waitQ[0]
		p.waitQ = p.waitQ[1:]
		p.total++
	}
	p.mu.Unlock()

	if wait == nil {
		return
	}

	// A waiter was queued for the slot this Discard just freed; spawn its
	// replacement inline instead of making it re-enter Get.
	w, err := browser.New(p.cfg.BrowserProgram, p.cfg.Trace)
	if err != nil {
		p.mu.Lock()
		p.total--
		p.stats.Errors++
		p.mu.Unlock()
		close(wait)
		return
	}
	wait <- &entry{worker: w, createdAt: time.Now(), lastUsedAt: time.Now()}
}

func closeWorker(w *browser.Worker) {
	if _, err := w.Close(); err != nil {
		log.Warn().Err(err).Str("worker_id", w.ID).Msg("error closing worker")
	}
}

// retain atomically evaluates keep for every idle worker; those failing are
// removed from the pool and closed. Eviction never touches a checked-out
// worker: it only ever inspects p.idle.
func (p *Pool) retain(keep func(*entry) bool) {
	p.mu.Lock()
	kept := p.idle[:0]
	var evicted []*entry
	for _, e := range p.idle {
		if keep(e) {
			kept = append(kept, e)
		} else {
			evicted = append(evicted, e)
		}
	}
	p.idle = kept
	p.total -= len(evicted)
	p.stats.Evicted += int64(len(evicted))
	p.mu.Unlock()

	if len(evicted) == 0 {
		return
	}

	eg := new(errgroup.Group)
	eg.SetLimit(closeConcurrency)
	for _, e := range evicted {
		e := e
		eg.Go(func() error {
			closeWorker(e.worker)
			return nil
		})
	}
	_ = eg.Wait()
}

func (p *Pool) evictionLoop() {
	defer p.closeWg.Done()

	if p.cfg.MaxAge <= 0 {
		return
	}

	ticker := time.NewTicker(p.cfg.MaxAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			p.retain(func(e *entry) bool {
				return e.recycleCount < p.cfg.MaxRecycleCount && now.Sub(e.lastUsedAt) < p.cfg.MaxAge
			})
		case <-p.stopCh:
			return
		}
	}
}

// Drain removes and closes every idle worker and waits for the eviction
// loop to stop. It does not forcibly close checked-out workers; callers are
// expected to have stopped accepting new requests and let in-flight
// handlers finish (or time out into Discard) before calling Drain.
func (p *Pool) Drain() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	waiters := p.waitQ
	p.waitQ = nil
	p.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}

	close(p.stopCh)
	p.closeWg.Wait()

	eg := new(errgroup.Group)
	eg.SetLimit(closeConcurrency)
	for _, e := range idle {
		e := e
		eg.Go(func() error {
			closeWorker(e.worker)
			return nil
		})
	}
	_ = eg.Wait()
}

// Stats returns a snapshot of cumulative pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Size returns the current total number of workers (idle + checked out).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Available returns the number of idle workers.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
