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

// Package beam implements BeamRunner (C9): one cooperative goroutine per
// active beam, fanning the per-beam pipeline (Region → Atl03Data →
// Atl08Aligner ∥ YapcScorer → Windower → ExtentEmitter) out across up to
// six beams per granule request.
package beam

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/earthdata-lab/icesat2subsetter/internal/beam")

	extentsSentCounter    metric.Int64Counter
	extentsDroppedCounter metric.Int64Counter
	retriesCounter        metric.Int64Counter
)

func init() {
	var err error

	extentsSentCounter, err = meter.Int64Counter(
		"icesat2subsetter.beam.extents_sent",
		metric.WithDescription("Total number of extent records successfully posted"),
	)
	if err != nil {
		panic(err)
	}

	extentsDroppedCounter, err = meter.Int64Counter(
		"icesat2subsetter.beam.extents_dropped",
		metric.WithDescription("Total number of extent records dropped after final post failure"),
	)
	if err != nil {
		panic(err)
	}

	retriesCounter, err = meter.Int64Counter(
		"icesat2subsetter.beam.post_retries",
		metric.WithDescription("Total number of post-queue-full retries across all beams"),
	)
	if err != nil {
		panic(err)
	}
}

// Stats is the per-request aggregate, guarded by one mutex shared across
// every beam in the request (spec.md §5's "stats struct... protected by
// one mutex per granule").
type Stats struct {
	mu             sync.Mutex
	ExtentsSent    int64
	ExtentsDropped int64
	PostRetries    int64
	BeamsCompleted int
	TotalBeams     int
}

// Merge folds a beam-local result into the shared totals and records the
// otel counters; it also increments BeamsCompleted and reports whether this
// call completed the last beam.
func (s *Stats) Merge(local Local) (lastBeam bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ExtentsSent += local.ExtentsSent
	s.ExtentsDropped += local.ExtentsDropped
	s.PostRetries += local.PostRetries
	s.BeamsCompleted++

	if local.ExtentsSent > 0 {
		extentsSentCounter.Add(context.Background(), local.ExtentsSent)
	}
	if local.ExtentsDropped > 0 {
		extentsDroppedCounter.Add(context.Background(), local.ExtentsDropped)
	}
	if local.PostRetries > 0 {
		retriesCounter.Add(context.Background(), local.PostRetries)
	}

	return s.BeamsCompleted >= s.TotalBeams
}

// Totals is a point-in-time copy of Stats, safe to pass by value.
type Totals struct {
	ExtentsSent    int64
	ExtentsDropped int64
	PostRetries    int64
	BeamsCompleted int
	TotalBeams     int
}

// Snapshot returns a copy of the current totals.
func (s *Stats) Snapshot() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		ExtentsSent:    s.ExtentsSent,
		ExtentsDropped: s.ExtentsDropped,
		PostRetries:    s.PostRetries,
		BeamsCompleted: s.BeamsCompleted,
		TotalBeams:     s.TotalBeams,
	}
}

// Local is a single beam's tally, merged into Stats once the beam exits.
type Local struct {
	ExtentsSent    int64
	ExtentsDropped int64
	PostRetries    int64
}
