// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package outqueue implements the bounded, many-writer/single-reader output
// queue spec.md §6 describes (post_copy/post_ref/status), as a
// context.Context-driven replacement for the original's polled active bool:
// a canceled context does the job of active=false, and a deadline on the
// post context does the job of SYS_TIMEOUT.
package outqueue

import (
	"context"
	"errors"
)

// Status mirrors spec.md §6's post_copy/post_ref return contract.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusError
)

// ErrClosed is returned by Post once the queue has been closed.
var ErrClosed = errors.New("outqueue: closed")

// Record is one posted payload. An empty Record (Len()==0) is the
// end-of-stream terminator spec.md §6 describes.
type Record struct {
	Bytes []byte
}

func (r Record) Len() int { return len(r.Bytes) }

// Queue is a bounded channel of Records with retry-on-full semantics left
// to the caller (BeamRunner retries while the beam-set context is live, per
// spec.md §4.8's posting rule).
type Queue struct {
	ch     chan Record
	closed chan struct{}
}

// New constructs a Queue with the given buffer depth.
func New(depth int) *Queue {
	return &Queue{
		ch:     make(chan Record, depth),
		closed: make(chan struct{}),
	}
}

// Post attempts a single non-blocking-with-timeout enqueue. It does not
// retry itself — spec.md §4.8 makes retry-while-active the caller's
// responsibility so it can count retries in its stats. Returns StatusOK,
// StatusTimeout (ctx deadline/cancellation hit before the send completed),
// or StatusError (queue closed).
func (q *Queue) Post(ctx context.Context, r Record) Status {
	select {
	case <-q.closed:
		return StatusError
	default:
	}
	select {
	case q.ch <- r:
		return StatusOK
	case <-ctx.Done():
		return StatusTimeout
	case <-q.closed:
		return StatusError
	}
}

// PostCopy copies b before enqueuing, matching the original's post_copy
// (the caller's buffer may be reused immediately after this returns).
func (q *Queue) PostCopy(ctx context.Context, b []byte) Status {
	cp := make([]byte, len(b))
	copy(cp, b)
	return q.Post(ctx, Record{Bytes: cp})
}

// PostRef enqueues b by reference; the caller must not mutate b after this
// call, matching the original's post_ref (zero-copy fast path).
func (q *Queue) PostRef(ctx context.Context, b []byte) Status {
	return q.Post(ctx, Record{Bytes: b})
}

// Terminator posts the empty end-of-stream record.
func (q *Queue) Terminator(ctx context.Context) Status {
	return q.Post(ctx, Record{})
}

// Records returns the receive side, for the single reader.
func (q *Queue) Records() <-chan Record {
	return q.ch
}

// Close closes the queue. Further Post calls return StatusError. Close does
// not drain or close the underlying channel (the reader keeps draining
// records already buffered); it only stops new posts and unblocks any post
// parked waiting on ctx.Done().
func (q *Queue) Close() {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
}
