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

// Package window implements the along-track sliding-window state machine
// (TrackState + Windower, C7): it walks a beam's photons, applies the
// per-photon filter chain, and emits one Extent per window step.
package window

import "github.com/earthdata-lab/icesat2subsetter/internal/atl03"

// SegmentLength is the nominal along-track length of one ATL03 segment,
// in meters.
const SegmentLength = 20.0

// State is the cursor set a Windower carries between extents (spec.md
// §4.6's TrackState).
type State struct {
	PhIn, SegIn, SegPh int

	StartSegment  int
	StartDistance float64
	SegDistance   float64

	StartSegPortion float64
	ExtentSegment   int
	ExtentValid     bool
	TrackComplete   bool

	BckgrdIn int

	extentCounter uint32
}

// NewState initializes a TrackState from the beam's first segment
// distance, as spec.md §4.6 specifies.
func NewState(a *atl03.Data) *State {
	start := 0.0
	if len(a.SegmentDistX) > 0 {
		start = a.SegmentDistX[0]
	}
	return &State{StartDistance: start}
}

// NextExtentCounter returns the next monotonic per-beam extent counter,
// starting at 0, used to build the extent_id composite key.
func (s *State) NextExtentCounter() uint32 {
	c := s.extentCounter
	s.extentCounter++
	return c
}
