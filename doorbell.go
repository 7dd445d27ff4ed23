package sluice

import (
	"context"
	"sync"
)

// doorbell is an unbounded, payload-less notification between the drain flow
// and the consumer: one ring per pushed item plus one final ring when the
// source ends. Ring never blocks the sender; rings are counted, not coalesced,
// so the consumer attempts exactly one shift per ring.
type doorbell struct {
	mu      sync.Mutex
	pending int
	closed  bool
	wake    chan struct{}
}

func newDoorbell() *doorbell {
	return &doorbell{
		wake: make(chan struct{}, 1),
	}
}

// Ring registers one notification.
func (d *doorbell) Ring() {
	d.mu.Lock()
	d.pending += 1
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close marks the sender permanently gone. Rings registered before the close
// are still delivered.
func (d *doorbell) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until a ring is available or the sender is gone. Returns true
// when a ring was consumed, false when the doorbell is closed and drained of
// rings.
func (d *doorbell) Wait(ctx context.Context) (bool, error) {
	for {
		d.mu.Lock()
		if d.pending > 0 {
			d.pending -= 1
			d.mu.Unlock()
			return true, nil
		}
		if d.closed {
			d.mu.Unlock()
			return false, nil
		}
		d.mu.Unlock()

		select {
		case <-d.wake:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
