// Package autosave coalesces rapid successive edits to one resource into a
// single persisted write.
//
// Each resource gets one debounce slot owning its pending buffer and timer, so
// there are no shared mutable timer handles. Per resource, flushes are strictly
// serialized: a schedule arriving while a flush is in flight queues behind it
// and re-arms after completion. A failed flush keeps its buffer for an explicit
// SaveNow retry; the coordinator never retries in a loop on its own.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"podium/internal/content/models"
	"podium/internal/identity"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
)

// DefaultWindow is the debounce quiet period before a buffered edit flushes.
const DefaultWindow = 2 * time.Second

// FlushFunc persists a merged buffer and returns the server-assigned
// last-edited timestamp. The lifecycle service's SaveDraft satisfies this.
type FlushFunc func(ctx context.Context, p identity.Principal, id domain.ResourceID, fields models.Fields) (time.Time, error)

// ErrorFunc observes failed background flushes. The buffer is already preserved
// when it is called.
type ErrorFunc func(id domain.ResourceID, err error)

// Coordinator schedules debounced writes with at most one in-flight write per
// resource.
type Coordinator struct {
	mu     sync.Mutex
	slots  map[domain.ResourceID]*slot
	closed bool
	wg     sync.WaitGroup

	flush     FlushFunc
	window    time.Duration
	logger    *slog.Logger
	onError   ErrorFunc
	onFailure func()
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithWindow overrides the debounce window.
func WithWindow(window time.Duration) Option {
	return func(c *Coordinator) {
		if window > 0 {
			c.window = window
		}
	}
}

// WithErrorFunc installs an observer for background flush failures.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithFailureCounter installs a metrics hook incremented per failed flush.
func WithFailureCounter(fn func()) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.onFailure = fn
		}
	}
}

func New(flush FlushFunc, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		slots:     make(map[domain.ResourceID]*slot),
		flush:     flush,
		window:    DefaultWindow,
		logger:    logger,
		onFailure: func() {},
	}
	c.onError = func(id domain.ResourceID, err error) {
		logger.Error("autosave flush failed", "resource_id", id.String(), "error", err)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// slot is the single debounce owner for one resource id.
type slot struct {
	coord *Coordinator
	id    domain.ResourceID

	mu         sync.Mutex
	principal  identity.Principal
	pending    models.Fields
	hasPending bool
	timer      *time.Timer
	inFlight   bool
	queued     bool
	waiters    int
	flightDone chan struct{}
}

func (c *Coordinator) slotFor(id domain.ResourceID) (*slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, dErrors.New(dErrors.CodeUnavailable, "autosave coordinator is shut down")
	}
	sl, ok := c.slots[id]
	if !ok {
		sl = &slot{coord: c, id: id}
		c.slots[id] = sl
	}
	return sl, nil
}

// Schedule merges the partial update into the resource's pending buffer and
// (re)starts its debounce timer. The newest call always wins the timer.
func (c *Coordinator) Schedule(p identity.Principal, id domain.ResourceID, fields models.Fields) error {
	if p.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "schedule requires a resolved principal")
	}
	if fields.IsEmpty() {
		return dErrors.New(dErrors.CodeBadRequest, "update carries no fields")
	}
	sl, err := c.slotFor(id)
	if err != nil {
		return err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.principal = p
	sl.pending = sl.pending.Merge(fields)
	sl.hasPending = true
	if sl.timer != nil {
		sl.timer.Stop()
	}
	sl.timer = time.AfterFunc(c.window, sl.fire)
	return nil
}

// fire runs when the debounce window elapses with no newer Schedule call.
func (sl *slot) fire() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.timer = nil
	if sl.inFlight {
		// Never two concurrent writes: remember to flush after the current one.
		sl.queued = true
		return
	}
	sl.startFlushLocked()
}

// startFlushLocked hands the buffer to a background flush. Caller holds sl.mu.
func (sl *slot) startFlushLocked() {
	if !sl.hasPending {
		return
	}
	if !sl.coord.registerFlight() {
		// Raced with teardown: the timer fired before Close could stop it.
		// The buffer is dropped like any other pending edit at shutdown.
		return
	}
	fields := sl.pending
	principal := sl.principal
	sl.pending = models.Fields{}
	sl.hasPending = false
	sl.queued = false
	sl.inFlight = true
	sl.flightDone = make(chan struct{})

	go sl.runFlush(principal, fields)
}

// registerFlight reserves a slot on the shutdown WaitGroup. The closed check
// and the Add happen under one lock so no flight can start after Close has
// begun waiting.
func (c *Coordinator) registerFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

func (sl *slot) runFlush(principal identity.Principal, fields models.Fields) {
	defer sl.coord.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_, err := sl.coord.flush(ctx, principal, sl.id, fields)
	cancel()

	sl.finishFlight(fields, err)
	if err != nil {
		sl.coord.onFailure()
		sl.coord.onError(sl.id, err)
	}
}

// finishFlight closes out a flight and decides what happens next. On failure
// the flushed fields fold back under anything scheduled meanwhile, so no edit
// is ever dropped. The timer is re-armed only when newer work exists; a failed
// buffer alone waits for an explicit SaveNow.
func (sl *slot) finishFlight(flushed models.Fields, err error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.inFlight = false
	close(sl.flightDone)
	sl.flightDone = nil

	if err != nil {
		sl.pending = flushed.Merge(sl.pending)
		sl.hasPending = true
		if sl.queued && sl.waiters == 0 {
			sl.queued = false
			sl.rearmLocked()
		}
		return
	}
	// A SaveNow caller waiting on this flight takes the buffer itself; only
	// re-arm when nobody is waiting.
	if sl.waiters == 0 && (sl.queued || sl.hasPending) {
		sl.queued = false
		sl.rearmLocked()
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (sl *slot) rearmLocked() {
	if sl.coord.isClosed() {
		return
	}
	if sl.timer != nil {
		sl.timer.Stop()
	}
	sl.timer = time.AfterFunc(sl.coord.window, sl.fire)
}

// SaveNow merges the update and flushes immediately, waiting out any in-flight
// write first. It is the caller's retry path after a surfaced flush failure;
// an empty fields argument retries whatever the buffer holds.
func (c *Coordinator) SaveNow(ctx context.Context, p identity.Principal, id domain.ResourceID, fields models.Fields) (time.Time, error) {
	if p.IsZero() {
		return time.Time{}, dErrors.New(dErrors.CodeUnauthorized, "save requires a resolved principal")
	}
	sl, err := c.slotFor(id)
	if err != nil {
		return time.Time{}, err
	}

	sl.mu.Lock()
	sl.principal = p
	sl.pending = sl.pending.Merge(fields)
	sl.hasPending = sl.hasPending || !fields.IsEmpty()

	for sl.inFlight {
		done := sl.flightDone
		sl.waiters++
		sl.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			sl.mu.Lock()
			sl.waiters--
			sl.mu.Unlock()
			return time.Time{}, ctx.Err()
		}
		sl.mu.Lock()
		sl.waiters--
	}

	if !sl.hasPending {
		sl.mu.Unlock()
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "nothing to save")
	}
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	buffered := sl.pending
	principal := sl.principal
	sl.pending = models.Fields{}
	sl.hasPending = false
	sl.queued = false
	sl.inFlight = true
	sl.flightDone = make(chan struct{})
	sl.mu.Unlock()

	ts, err := c.flush(ctx, principal, id, buffered)
	sl.finishFlight(buffered, err)
	if err != nil {
		c.onFailure()
		return time.Time{}, err
	}
	return ts, nil
}

// Pending reports whether the resource currently holds unflushed edits.
func (c *Coordinator) Pending(id domain.ResourceID) bool {
	c.mu.Lock()
	sl, ok := c.slots[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.hasPending || sl.inFlight
}

// Close cancels all pending timers and waits for in-flight flushes to finish.
// In-flight writes are never aborted mid-write; pending buffers that never got
// a timer fire are dropped, which teardown callers accept.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	slots := make([]*slot, 0, len(c.slots))
	for _, sl := range c.slots {
		slots = append(slots, sl)
	}
	c.mu.Unlock()

	for _, sl := range slots {
		sl.mu.Lock()
		if sl.timer != nil {
			sl.timer.Stop()
			sl.timer = nil
		}
		sl.queued = false
		sl.mu.Unlock()
	}
	c.wg.Wait()
}
