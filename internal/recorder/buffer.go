package recorder

import "github.com/OCAP2/navalsim/pkg/core"

// eventBuffer sits between the tick and the consumer goroutine.
type eventBuffer interface {
	// offer reports false when the event was not accepted.
	offer(e core.Event) bool
	events() <-chan core.Event
	pending() int
	close()
}

// droppingBuffer refuses events once size are waiting.
type droppingBuffer struct {
	ch chan core.Event
}

func newDroppingBuffer(size int) *droppingBuffer {
	return &droppingBuffer{ch: make(chan core.Event, size)}
}

func (b *droppingBuffer) offer(e core.Event) bool {
	select {
	case b.ch <- e:
		return true
	default:
		return false
	}
}

func (b *droppingBuffer) events() <-chan core.Event { return b.ch }
func (b *droppingBuffer) pending() int              { return len(b.ch) }
func (b *droppingBuffer) close()                    { close(b.ch) }

// lockstepBuffer hands every event straight to the consumer and waits for
// it, so the tick runs at the speed of the backend and nothing is lost.
type lockstepBuffer struct {
	ch chan core.Event
}

func newLockstepBuffer() *lockstepBuffer {
	return &lockstepBuffer{ch: make(chan core.Event)}
}

func (b *lockstepBuffer) offer(e core.Event) bool {
	b.ch <- e
	return true
}

func (b *lockstepBuffer) events() <-chan core.Event { return b.ch }
func (b *lockstepBuffer) pending() int              { return 0 }
func (b *lockstepBuffer) close()                    { close(b.ch) }
