// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package console

import (
	"sync"
)

// LineQueue is a thread-safe FIFO of pending lines with a single consumer.
//
// Producers may call Submit and PushTermination from any goroutine. Only the
// engine goroutine calls Take.
type LineQueue struct {
	mu    sync.Mutex
	ready *sync.Cond
	lines []Line

	// terminated is set once the sentinel has been queued for this cycle.
	terminated bool
}

// NewLineQueue creates an empty queue.
func NewLineQueue() *LineQueue {
	q := &LineQueue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Submit appends text at the tail and wakes the consumer if it is waiting.
func (q *LineQueue) Submit(text string) {
	q.Append(text)
	q.Wake()
}

// Append queues text without waking the consumer. Callers that need to do
// work between queueing and waking pair it with Wake.
func (q *LineQueue) Append(text string) {
	q.mu.Lock()
	q.lines = append(q.lines, TextLine(text))
	queueDepth.Set(float64(len(q.lines)))
	q.mu.Unlock()

	linesSubmitted.Inc()
}

// Wake releases at most one waiter.
//
// Signalling without the lock cannot lose a wakeup: the consumer checks for
// an empty queue and parks atomically under the same mutex Append takes.
func (q *LineQueue) Wake() {
	q.ready.Signal()
}

// PushTermination queues EndOfInput and wakes the consumer. Only the first
// call in an attach cycle queues anything; it reports whether it did.
func (q *LineQueue) PushTermination() bool {
	q.mu.Lock()
	if q.terminated {
		q.mu.Unlock()
		return false
	}
	q.terminated = true
	q.lines = append(q.lines, EndOfInput)
	q.mu.Unlock()

	terminations.Inc()
	q.ready.Signal()
	return true
}

// Take removes and returns the head of the queue, waiting while it is empty.
// Once the sentinel has been consumed, Take keeps returning EndOfInput rather
// than parking, so a reader that ignores the sentinel cannot hang.
func (q *LineQueue) Take() Line {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.lines) == 0 {
		if q.terminated {
			return EndOfInput
		}
		q.ready.Wait()
	}

	line := q.lines[0]
	q.lines[0] = Line{}
	q.lines = q.lines[1:]
	queueDepth.Set(float64(len(q.lines)))
	if !line.IsEnd() {
		linesDelivered.Inc()
	}
	return line
}

// ResetTermination starts a new attach cycle: stale sentinels are dropped and
// text lines submitted while detached stay queued in order.
func (q *LineQueue) ResetTermination() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.lines[:0]
	for _, line := range q.lines {
		if !line.IsEnd() {
			kept = append(kept, line)
		}
	}
	clear(q.lines[len(kept):])
	q.lines = kept
	q.terminated = false
	queueDepth.Set(float64(len(q.lines)))
}

// Terminated reports whether the sentinel was queued in the current cycle.
func (q *LineQueue) Terminated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.terminated
}

// Len returns the number of queued entries, sentinel included.
func (q *LineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}
