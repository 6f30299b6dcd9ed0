package progress

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/objsync/internal/logging"
	"github.com/google/uuid"
)

const unpinned int64 = -1

// Registration identifies one listener added to a Registry.
type Registration struct {
	id        uuid.UUID
	direction Direction
	mode      Mode
}

func (r Registration) ID() uuid.UUID { return r.id }

func (r Registration) Direction() Direction { return r.direction }

func (r Registration) Mode() Mode { return r.mode }

type entry struct {
	reg      Registration
	listener Listener
	pinned   atomic.Int64
	removed  atomic.Bool
}

// Registry holds the listeners of one session and fans snapshots out to them.
//
// Add and Remove may be called from any goroutine, including from inside a
// listener. Deliver works on the set of listeners registered when it starts
// and never holds the lock while calling them; a listener removed before its
// turn is skipped, the others are unaffected.
type Registry struct {
	log logging.Logger

	mu      sync.RWMutex
	entries []*entry // copy-on-write
	last    map[Direction]Progress
}

func NewRegistry(log logging.Logger) *Registry {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Registry{log: log, last: make(map[Direction]Progress)}
}

// Add registers l for snapshots of direction dir. A CurrentChanges listener
// is pinned to the transferable total of the last delivered snapshot, or of
// the next one if nothing has been delivered yet.
func (r *Registry) Add(dir Direction, mode Mode, l Listener) Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := unpinned
	if p, ok := r.last[dir]; ok && mode == CurrentChanges {
		total = p.transferable
	}
	return r.addLocked(dir, mode, l, total)
}

// AddPinned registers a CurrentChanges listener whose outstanding work is the
// given cumulative transferable total. Producers that know their totals
// better than the last delivered snapshot use this instead of Add.
func (r *Registry) AddPinned(dir Direction, total int64, l Listener) Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addLocked(dir, CurrentChanges, l, max(total, 0))
}

func (r *Registry) addLocked(dir Direction, mode Mode, l Listener, total int64) Registration {
	e := &entry{
		reg:      Registration{id: uuid.New(), direction: dir, mode: mode},
		listener: l,
	}
	e.pinned.Store(total)
	r.entries = append(slices.Clip(r.entries), e)
	return e.reg
}

// Remove unregisters reg. It reports whether reg was still registered.
func (r *Registry) Remove(reg Registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.entries, func(e *entry) bool { return e.reg.id == reg.id })
	if i < 0 {
		return false
	}
	r.entries[i].removed.Store(true)

	next := make([]*entry, 0, len(r.entries)-1)
	next = append(next, r.entries[:i]...)
	r.entries = append(next, r.entries[i+1:]...)
	return true
}

// Len returns the number of listeners registered for dir.
func (r *Registry) Len(dir Direction) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.reg.direction == dir {
			n++
		}
	}
	return n
}

// Deliver passes p to every listener of p's direction. Calls to Deliver for
// one registry are expected to be serial; the Dispatcher guarantees that.
func (r *Registry) Deliver(ctx context.Context, p Progress) {
	r.mu.Lock()
	r.last[p.direction] = p
	snapshot := r.entries
	r.mu.Unlock()

	for _, e := range snapshot {
		if e.reg.direction != p.direction || e.removed.Load() {
			continue
		}

		view := p
		if e.reg.mode == CurrentChanges {
			view = e.currentView(p)
		}

		r.call(ctx, e, view)

		if e.reg.mode == CurrentChanges && view.IsTransferComplete() {
			r.Remove(e.reg)
		}
	}
}

// currentView limits p to the work that was outstanding when e was pinned.
// Work abandoned since then lowers the pin with the stream total.
func (e *entry) currentView(p Progress) Progress {
	e.pinned.CompareAndSwap(unpinned, p.transferable)
	for {
		cur := e.pinned.Load()
		if p.transferable >= cur || e.pinned.CompareAndSwap(cur, p.transferable) {
			break
		}
	}
	total := e.pinned.Load()

	v := New(p.direction, min(p.transferred, total), total)
	v.final = total == 0 || p.final
	return v
}

func (r *Registry) call(ctx context.Context, e *entry, p Progress) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(ctx, "progress listener panicked",
				"listener", e.reg.id.String(), "direction", p.direction.String(), "panic", rec)
		}
	}()
	e.listener.OnChange(p)
}
