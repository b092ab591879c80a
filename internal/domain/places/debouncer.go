package places

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrSuperseded is returned to a call whose quiet window was interrupted by a newer call.
	ErrSuperseded = errors.New("superseded by a newer query")
	// ErrStale is returned when a newer call was made while this call's lookup ran.
	ErrStale = errors.New("result superseded while in flight")
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules timer callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (realClock) Now() time.Time                            { return time.Now() }

// Debouncer runs at most one function per quiet window and key. Every call
// restarts the window; only the call that survives the window runs, and its
// result is dropped if another call arrives before it returns.
type Debouncer struct {
	delay time.Duration
	clock Clock
	idle  time.Duration

	mu   sync.Mutex
	keys map[string]*keyState
}

type keyState struct {
	gen        uint64
	timer      Timer
	superseded chan struct{}
	inflight   int
	lastSeen   time.Time
}

// NewDebouncer builds a debouncer with the given quiet window.
func NewDebouncer(delay time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = realClock{}
	}
	return &Debouncer{
		delay: delay,
		clock: clock,
		idle:  10 * time.Minute,
		keys:  make(map[string]*keyState),
	}
}

// Do waits out the quiet window for key and then runs fn.
func Do[T any](ctx context.Context, d *Debouncer, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	st, gen, fired, superseded := d.schedule(key)

	select {
	case <-superseded:
		d.release(st, gen)
		return zero, ErrSuperseded
	case <-ctx.Done():
		d.release(st, gen)
		return zero, ctx.Err()
	case <-fired:
	}

	d.mu.Lock()
	if st.gen != gen {
		st.inflight--
		d.mu.Unlock()
		return zero, ErrSuperseded
	}
	st.superseded = nil
	st.timer = nil
	d.mu.Unlock()

	result, err := fn(ctx)

	d.mu.Lock()
	stale := st.gen != gen
	st.inflight--
	d.mu.Unlock()
	if stale {
		return zero, ErrStale
	}
	return result, err
}

// Cancel drops any pending call for key, as when the input is cleared.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.keys[key]
	if !ok {
		return
	}
	st.gen++
	d.stopLocked(st)
}

func (d *Debouncer) schedule(key string) (*keyState, uint64, <-chan struct{}, <-chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	d.cleanupLocked(now)

	st, ok := d.keys[key]
	if !ok {
		st = &keyState{}
		d.keys[key] = st
	}
	st.gen++
	d.stopLocked(st)

	fired := make(chan struct{})
	superseded := make(chan struct{})
	st.superseded = superseded
	st.timer = d.clock.AfterFunc(d.delay, func() { close(fired) })
	st.inflight++
	st.lastSeen = now
	return st, st.gen, fired, superseded
}

func (d *Debouncer) release(st *keyState, gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st.inflight--
	if st.gen == gen {
		d.stopLocked(st)
	}
}

func (d *Debouncer) stopLocked(st *keyState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if st.superseded != nil {
		close(st.superseded)
		st.superseded = nil
	}
}

func (d *Debouncer) cleanupLocked(now time.Time) {
	for key, st := range d.keys {
		if st.inflight == 0 && now.Sub(st.lastSeen) > d.idle {
			delete(d.keys, key)
		}
	}
}
