// Package progress models transfer progress of a sync session and delivers it
// to registered listeners.
//
// A Progress value is an immutable snapshot. The transferable total is what
// the server knows about at that moment and may grow (or shrink) between
// snapshots, so completion is judged per snapshot and is not monotonic.
//
// Listeners are called on the session's delivery goroutine, never on the
// goroutine that registered them. Code that must run on a UI or other owner
// goroutine has to hand the snapshot over itself.
package progress

import "fmt"

// Direction of a transfer stream.
type Direction int

const (
	Download Direction = iota
	Upload
)

func (d Direction) String() string {
	switch d {
	case Download:
		return "download"
	case Upload:
		return "upload"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Mode selects what a listener's transferable total covers.
type Mode int

const (
	// CurrentChanges reports only the work outstanding when the listener was
	// registered. The listener is dropped after it has seen completion.
	CurrentChanges Mode = iota
	// IndefinitelyChanges reports all work, including changes made after
	// registration. The listener stays until removed.
	IndefinitelyChanges
)

func (m Mode) String() string {
	switch m {
	case CurrentChanges:
		return "current"
	case IndefinitelyChanges:
		return "indefinitely"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Progress is a point-in-time view of one transfer stream.
type Progress struct {
	direction    Direction
	transferred  int64
	transferable int64
	final        bool
}

// New returns a snapshot. Negative counts are clamped to zero.
func New(dir Direction, transferred, transferable int64) Progress {
	return Progress{
		direction:    dir,
		transferred:  max(transferred, 0),
		transferable: max(transferable, 0),
	}
}

// Final returns a snapshot that is complete regardless of its counts, for
// streams that legitimately finish with nothing to transfer.
func Final(dir Direction, transferred, transferable int64) Progress {
	p := New(dir, transferred, transferable)
	p.final = true
	return p
}

func (p Progress) Direction() Direction { return p.direction }

// Transferred is the number of bytes moved so far.
func (p Progress) Transferred() int64 { return p.transferred }

// Transferable is the number of bytes known to need moving.
func (p Progress) Transferable() int64 { return p.transferable }

func (p Progress) IsTransferComplete() bool {
	return p.final || (p.transferable > 0 && p.transferred >= p.transferable)
}

// Fraction is transferred/transferable in [0, 1].
func (p Progress) Fraction() float64 {
	if p.transferable <= 0 {
		if p.IsTransferComplete() {
			return 1
		}
		return 0
	}
	return min(float64(p.transferred)/float64(p.transferable), 1)
}

func (p Progress) String() string {
	return fmt.Sprintf("%s %d/%d complete=%t", p.direction, p.transferred, p.transferable, p.IsTransferComplete())
}

// Listener receives progress snapshots.
//
// OnChange runs on the delivery goroutine of the session, serially for one
// session. It may call Registry.Remove for its own registration.
type Listener interface {
	OnChange(p Progress)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(p Progress)

func (f ListenerFunc) OnChange(p Progress) { f(p) }
