package progress

import (
	"context"
	"sync"
)

// Dispatcher moves snapshots from a transfer worker to a Registry on its own
// goroutine. Publish never blocks: if the delivery goroutine is behind, only
// the newest snapshot per direction is kept.
type Dispatcher struct {
	registry *Registry

	mu      sync.Mutex
	pending map[Direction]Progress
	order   []Direction
	closed  bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		pending:  make(map[Direction]Progress),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Publish queues p for delivery. Snapshots published after Close are dropped.
func (d *Dispatcher) Publish(p Progress) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if _, ok := d.pending[p.direction]; !ok {
		d.order = append(d.order, p.direction)
	}
	d.pending[p.direction] = p
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run delivers snapshots until Close is called or ctx is done. Snapshots
// pending at Close are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
			d.flush(ctx)
		case <-d.done:
			d.flush(ctx)
			return nil
		}
	}
}

// Close stops accepting snapshots and lets Run return after a final flush.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
	})
}

func (d *Dispatcher) flush(ctx context.Context) {
	d.mu.Lock()
	order := d.order
	batch := make([]Progress, 0, len(order))
	for _, dir := range order {
		batch = append(batch, d.pending[dir])
	}
	d.order = nil
	clear(d.pending)
	d.mu.Unlock()

	for _, p := range batch {
		d.registry.Deliver(ctx, p)
	}
}
