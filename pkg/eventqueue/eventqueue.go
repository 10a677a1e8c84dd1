// Package eventqueue implements the ordered holding areas for external and
// internal events: strict FIFO within each queue, delayed release, and the
// internal-before-external selection policy.
package eventqueue

import "github.com/kairoscore/statechart/pkg/model"

// entry is one event sitting in a queue, annotated with the clock value at
// or after which it becomes eligible for consumption.
type entry struct {
	event     model.Event
	releaseAt float64
	seq       uint64
}

// fifo is a strictly ordered, delay-aware event list. Events whose release
// time has not been reached remain in place and are reconsidered on later
// Pop calls; cancellation is not supported.
type fifo struct {
	entries []entry
	nextSeq uint64
}

func (f *fifo) push(e model.Event, queuedAt, delay float64) {
	f.entries = append(f.entries, entry{event: e, releaseAt: queuedAt + delay, seq: f.nextSeq})
	f.nextSeq++
}

// popEligible removes and returns the oldest entry whose release time has
// been reached by now. Oldest is determined by sequence number, which is
// assigned at enqueue time and never reordered, so this is a true FIFO among
// eligible entries regardless of delay.
func (f *fifo) popEligible(now float64) (model.Event, bool) {
	bestIdx := -1
	var bestSeq uint64
	for i, e := range f.entries {
		if e.releaseAt > now {
			continue
		}
		if bestIdx == -1 || e.seq < bestSeq {
			bestIdx = i
			bestSeq = e.seq
		}
	}
	if bestIdx == -1 {
		return model.Event{}, false
	}
	ev := f.entries[bestIdx].event
	f.entries = append(f.entries[:bestIdx], f.entries[bestIdx+1:]...)
	return ev, true
}

func (f *fifo) empty() bool { return len(f.entries) == 0 }

func (f *fifo) len() int { return len(f.entries) }

// Queue holds the internal and external event streams of one interpreter.
type Queue struct {
	internal fifo
	external fifo
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// QueueExternal enqueues an externally supplied event, eligible once now
// reaches queuedAt+delay.
func (q *Queue) QueueExternal(e model.Event, queuedAt, delay float64) {
	q.external.push(e, queuedAt, delay)
}

// QueueInternal enqueues an event produced by a `send` during an action,
// eligible once now reaches queuedAt+delay.
func (q *Queue) QueueInternal(e model.Event, queuedAt, delay float64) {
	q.internal.push(e, queuedAt, delay)
}

// Pop applies the selection policy: the oldest eligible internal event,
// or failing that the oldest eligible external event. Returns false when
// nothing is eligible yet.
func (q *Queue) Pop(now float64) (model.Event, bool) {
	if e, ok := q.internal.popEligible(now); ok {
		return e, true
	}
	return q.external.popEligible(now)
}

// HasEligible reports whether Pop would succeed at the given time, without
// consuming anything.
func (q *Queue) HasEligible(now float64) bool {
	for _, e := range q.internal.entries {
		if e.releaseAt <= now {
			return true
		}
	}
	for _, e := range q.external.entries {
		if e.releaseAt <= now {
			return true
		}
	}
	return false
}

// InternalLen returns the number of pending internal events (eligible or not).
func (q *Queue) InternalLen() int { return q.internal.len() }

// ExternalLen returns the number of pending external events (eligible or not).
func (q *Queue) ExternalLen() int { return q.external.len() }

// Empty reports whether both queues are empty.
func (q *Queue) Empty() bool {
	return q.internal.empty() && q.external.empty()
}
