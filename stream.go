// Package sluice decouples a producer of a lazy item sequence from its
// consumer by draining the sequence into a queue in the background. The queue
// backend decides the discipline: an in-memory priority heap, or a persistent
// FIFO that survives process restarts.
package sluice

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mlevan/sluice/buffer"
	"github.com/mlevan/sluice/buffer/bolt"
	"github.com/mlevan/sluice/codec"
)

// Stream is a buffered view over a source sequence.
//
// A background drain flow moves items from the source into the buffer and
// rings a doorbell for each one; [Stream.Next] pulls items back out. The two
// sides share nothing but the buffer, the doorbell and a stop flag, so the
// producer and the consumer run at independent speeds.
//
// The consuming side is a lazy, single-pass, non-restartable sequence and is
// not safe for concurrent use.
type Stream[Item any] struct {
	cfg     *config
	buffer  buffer.Buffer[Item]
	bell    *doorbell
	stopped *atomic.Bool

	// Consumer-side state, touched only by Next.
	pending chan shiftResult[Item]
	drained bool
	done    bool
}

type shiftResult[Item any] struct {
	item Item
	ok   bool
	err  error
}

// New creates a stream draining source into buf and schedules the background
// drain flow.
//
// The drain flow pulls items from source until it ends, pushing each into buf
// and ringing the doorbell. It is not stopped by discarding the stream: the
// source keeps draining into the buffer, which is what makes a persistent
// buffer catch up after the consumer goes away.
func New[Item any](source iter.Seq[Item], buf buffer.Buffer[Item], options ...Option) *Stream[Item] {
	if source == nil {
		panic("source can't be nil")
	}
	if buf == nil {
		panic("buffer can't be nil")
	}

	s := &Stream[Item]{
		cfg:     newConfig(options...),
		buffer:  buf,
		bell:    newDoorbell(),
		stopped: new(atomic.Bool),
	}

	s.cfg.spawner.Spawn(func() {
		s.drain(source)
	})

	return s
}

// NewPersistent creates a stream buffered through a persistent FIFO queue
// rooted at dir. Reopening the same directory resumes the queue left behind
// by a previous process.
func NewPersistent[Item any](
	source iter.Seq[Item],
	dir string,
	c codec.Codec[Item],
	options ...Option,
) (*Stream[Item], error) {
	buf, err := bolt.Open(dir, c)
	if err != nil {
		return nil, fmt.Errorf("open persistent buffer: %w", err)
	}
	return New(source, buf, options...), nil
}

// NewPriority creates a stream buffered through an in-memory max-heap ordered
// by cmp. Items are delivered highest first, not in source order.
func NewPriority[Item any](
	source iter.Seq[Item],
	cmp func(a, b Item) int,
	options ...Option,
) *Stream[Item] {
	return New(source, buffer.NewHeap(cmp), options...)
}

// Next returns the next buffered item.
//
// ok is false when the sequence has terminated: the source ended and the
// buffer is drained, or a shift failed (the failure is logged, not returned).
// A ctx error is returned as-is and does not terminate the sequence; an
// in-flight shift survives the aborted call and resolves on the next one, so
// no item is lost to a deadline.
func (s *Stream[Item]) Next(ctx context.Context) (item Item, ok bool, err error) {
	var zero Item

	for {
		if s.done {
			return zero, false, nil
		}

		if s.pending != nil {
			var res shiftResult[Item]
			select {
			case res = <-s.pending:
			case <-ctx.Done():
				return zero, false, ctx.Err()
			}
			s.pending = nil

			switch {
			case res.err != nil:
				s.cfg.logger.Error("shift from buffer", zap.Error(res.err))
				s.cfg.metrics.shiftErrors.Inc()
				s.done = true
				return zero, false, nil
			case res.ok:
				s.cfg.metrics.itemsDelivered.Inc()
				s.cfg.metrics.depth.Dec()
				s.drained = false
				return res.item, true, nil
			default:
				// The ring may have been the terminal signal rather than an
				// item. Re-check the stop flag, then wait for the next ring.
				s.drained = true
				continue
			}
		}

		// The stop flag alone is not a reason to end: the buffer may still
		// hold items pushed before the source was exhausted, including items
		// left behind by a previous process. Once it is set, no more rings
		// come, so shift directly until a shift confirms the buffer empty.
		if s.stopped.Load() {
			if s.drained {
				s.done = true
				return zero, false, nil
			}
			s.startShift()
			continue
		}

		rung, err := s.bell.Wait(ctx)
		if err != nil {
			return zero, false, err
		}
		if !rung {
			s.done = true
			return zero, false, nil
		}
		s.startShift()
	}
}

// All returns the remaining items as a single-pass sequence. Iteration stops
// at the terminal marker or on a ctx error; breaking out keeps the stream
// usable from where it left off.
func (s *Stream[Item]) All(ctx context.Context) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for {
			item, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Close releases the backing buffer when it owns external resources. Call it
// after the consuming side is finished; the drain flow must have stopped
// pushing by then.
func (s *Stream[Item]) Close() error {
	if c, ok := s.buffer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Stream[Item]) drain(source iter.Seq[Item]) {
	ctx := context.Background()

	defer func() {
		s.stopped.Store(true)
		s.bell.Ring()
		s.bell.Close()
	}()

	for item := range source {
		var err error
		for policy := s.cfg.pushRetry.Derive(); policy.Attempt(ctx); {
			if err = s.buffer.Push(ctx, item); err == nil {
				break
			}
		}
		if err != nil {
			s.cfg.logger.Error("push item to buffer", zap.Error(err))
			s.cfg.metrics.pushErrors.Inc()
			return
		}

		s.cfg.metrics.itemsPushed.Inc()
		s.cfg.metrics.depth.Inc()
		s.bell.Ring()
	}

	s.cfg.logger.Debug("source drained")
}

// startShift runs the shift in the background so an aborted Next can resume
// it. The result channel is buffered: the shift never blocks on a consumer
// that has gone away.
func (s *Stream[Item]) startShift() {
	res := make(chan shiftResult[Item], 1)
	s.pending = res
	s.cfg.spawner.Spawn(func() {
		item, ok, err := s.buffer.Shift(context.Background())
		res <- shiftResult[Item]{item: item, ok: ok, err: err}
	})
}
