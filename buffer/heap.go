package buffer

import (
	"context"
	"sync"
)

// Heap is an in-memory priority buffer: a mutex-guarded binary max-heap over
// a caller-supplied total order. Shift always returns an item of maximum order
// among the buffered ones; ties resolve in no particular order.
//
// If the comparator panics while the guard is held the heap may be mid-sift,
// so it is marked poisoned and every later operation returns [ErrPoisoned]
// instead of deadlocking or returning corrupted order.
type Heap[Item any] struct {
	mu       sync.Mutex
	poisoned bool
	cmp      func(a, b Item) int
	items    []Item
}

var _ Buffer[any] = (*Heap[any])(nil)

// NewHeap creates a priority buffer ordered by cmp. cmp reports a negative
// number when a orders before b, zero when equal, positive when after; the
// item ordering last per cmp is shifted first.
func NewHeap[Item any](cmp func(a, b Item) int) *Heap[Item] {
	if cmp == nil {
		panic("cmp can't be nil")
	}
	return &Heap[Item]{
		cmp:   cmp,
		items: make([]Item, 0),
	}
}

func (h *Heap[Item]) Push(_ context.Context, item Item) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.poisoned {
		return ErrPoisoned
	}
	defer h.poison()

	h.items = append(h.items, item)
	h.up(len(h.items) - 1)

	return nil
}

func (h *Heap[Item]) Shift(_ context.Context) (Item, bool, error) {
	var zero Item

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.poisoned {
		return zero, false, ErrPoisoned
	}
	defer h.poison()

	n := len(h.items)
	if n == 0 {
		return zero, false, nil
	}

	top := h.items[0]
	h.items[0] = h.items[n-1]
	h.items[n-1] = zero
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.down(0)
	}

	return top, true, nil
}

// Size returns the number of buffered items.
func (h *Heap[Item]) Size() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.poisoned {
		return 0, ErrPoisoned
	}
	return len(h.items), nil
}

// poison marks the heap unusable when the guarded section exits via panic.
// Must be deferred after the unlock so it runs while the lock is still held.
func (h *Heap[Item]) poison() {
	if r := recover(); r != nil {
		h.poisoned = true
		panic(r)
	}
}

func (h *Heap[Item]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.cmp(h.items[i], h.items[parent]) <= 0 {
			return
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *Heap[Item]) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}

		largest := left
		if right := left + 1; right < n && h.cmp(h.items[right], h.items[left]) > 0 {
			largest = right
		}
		if h.cmp(h.items[largest], h.items[i]) <= 0 {
			return
		}

		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}
