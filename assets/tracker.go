package assets

import (
	"context"
	"errors"
	"sync"
)

// ErrStaleLoad is returned when a load finished after its slot was taken over by a newer one
var ErrStaleLoad = errors.New("asset load superseded by a newer request")

// Ticket identifies one in-flight load of a slot
type Ticket struct {
	Slot       string
	Generation uint64
}

// Tracker hands out generations per image slot so a slow load cannot
// overwrite a newer choice. Starting a load cancels the previous one for the same slot.
type Tracker struct {
	mu          sync.Mutex
	generations map[string]uint64
	cancels     map[string]context.CancelFunc
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		generations: make(map[string]uint64),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Begin starts a new generation for slot and returns a context that is cancelled
// when a newer load for the same slot begins.
func (t *Tracker) Begin(ctx context.Context, slot string) (context.Context, Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cancel, ok := t.cancels[slot]; ok {
		cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	t.generations[slot]++
	t.cancels[slot] = cancel

	return loadCtx, Ticket{Slot: slot, Generation: t.generations[slot]}
}

// Current reports whether ticket is still the latest load of its slot
func (t *Tracker) Current(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generations[ticket.Slot] == ticket.Generation
}

// Finish releases the ticket's context. It returns ErrStaleLoad when the slot
// has moved on, in which case the loaded result must be discarded.
func (t *Tracker) Finish(ticket Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.generations[ticket.Slot] != ticket.Generation {
		return ErrStaleLoad
	}
	if cancel, ok := t.cancels[ticket.Slot]; ok {
		cancel()
		delete(t.cancels, ticket.Slot)
	}
	return nil
}

// CancelAll aborts every in-flight load
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for slot, cancel := range t.cancels {
		cancel()
		delete(t.cancels, slot)
		t.generations[slot]++
	}
}
