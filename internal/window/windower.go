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

package window

import (
	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/atl08"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
	"github.com/earthdata-lab/icesat2subsetter/internal/region"
)

// Photon is one accepted photon within an extent, with x_atc already
// centered on the extent per spec.md §4.7's "on accept" step.
type Photon struct {
	PhotonIndex int // ordinal into the primary photon arrays
	XAtc        float64
	YAtc        float64
}

// Extent is one windower step's output: the photons that passed the
// filter chain, plus the cursor state ExtentEmitter needs to build the
// final record (segment id, background rate, spacecraft velocity all
// still need to be computed from ExtentSegment/StartSegPortion by the
// caller — the windower's job ends at photon selection).
type Extent struct {
	ExtentSegment   int
	StartSegPortion float64
	StartDistance   float64 // along-track distance (m) this extent began at
	EffectiveLength float64 // extent length in meters, regardless of mode
	Photons         []Photon
	Valid           bool
}

// Windower walks one beam's photons via the TrackState cursor, applying
// the ordered filter chain from spec.md §4.7 and yielding one Extent per
// call to Next.
type Windower struct {
	A      *atl03.Data
	Atl08  *atl08.Result // nil if ATL08 disabled
	Yapc   []uint8       // nil if YAPC disabled
	Mask   []bool        // nil if no raster inclusion mask
	P      parms.Parameters
	State  *State
	Chain  []filterFunc

	segStarts, segEnds []int
	segOf              []int
}

// New constructs a Windower over a already-region-trimmed Atl03Data; w
// derives per-photon segment membership once up front.
func New(a *atl03.Data, atl08res *atl08.Result, yapcScores []uint8, win region.Window, p parms.Parameters) *Windower {
	starts, ends := make([]int, len(a.SegmentPhCnt)), make([]int, len(a.SegmentPhCnt))
	cursor := 0
	for i, cnt := range a.SegmentPhCnt {
		starts[i] = cursor
		cursor += int(cnt)
		ends[i] = cursor
	}
	segOf := make([]int, cursor)
	for seg, start := range starts {
		for k := start; k < ends[seg]; k++ {
			segOf[k] = seg
		}
	}

	return &Windower{
		A:         a,
		Atl08:     atl08res,
		Yapc:      yapcScores,
		Mask:      win.InclusionMask,
		P:         p,
		State:     NewState(a),
		Chain:     defaultFilterChain,
		segStarts: starts,
		segEnds:   ends,
		segOf:     segOf,
	}
}

func (w *Windower) numPhotons() int {
	if len(w.segEnds) == 0 {
		return 0
	}
	return w.segEnds[len(w.segEnds)-1]
}

func (w *Windower) effectiveLength() float64 {
	if w.P.DistInSeg {
		return w.P.ExtentLength * SegmentLength
	}
	return w.P.ExtentLength
}

// Next advances the state machine by one extent. It returns (nil, nil)
// once the track is complete (no more extents to emit).
func (w *Windower) Next() (*Extent, error) {
	if w.State.TrackComplete {
		return nil, nil
	}

	s := w.State
	s.ExtentSegment = s.SegIn
	if s.PhIn < w.numPhotons() {
		s.StartSegPortion = w.A.DistPhAlong[s.PhIn] / SegmentLength
	}

	ext := &Extent{
		ExtentSegment:   s.ExtentSegment,
		StartSegPortion: s.StartSegPortion,
		StartDistance:   s.StartDistance,
		EffectiveLength: w.effectiveLength(),
		Valid:           true,
	}

	stepCompleted := false
	numPhotons := w.numPhotons()

	for idx := s.PhIn; ; idx++ {
		if idx >= numPhotons {
			break
		}
		seg := w.segOf[idx]

		xatc := (w.A.SegmentDistX[seg] - s.StartDistance) + w.A.DistPhAlong[idx]

		var stepCond, lengthCond bool
		if w.P.DistInSeg {
			stepCond = float64(seg-s.ExtentSegment) >= w.P.ExtentStep
			lengthCond = float64(seg-s.ExtentSegment) >= w.P.ExtentLength
		} else {
			stepCond = xatc >= w.P.ExtentStep
			lengthCond = xatc >= w.P.ExtentLength
		}

		// The triggering photon itself still belongs to the current
		// extent (it is filtered below like any other); the cursor
		// for the *next* extent starts one photon later so the two
		// windows don't double-count it even when step < length.
		if !stepCompleted && stepCond {
			next := idx + 1
			s.PhIn = next
			if next < numPhotons {
				nextSeg := w.segOf[next]
				s.SegIn = nextSeg
				s.SegPh = next - w.segStarts[nextSeg] + 1
			} else {
				s.SegIn = seg
			}
			stepCompleted = true
		}

		if lengthCond {
			if stepCompleted {
				break
			}
			continue
		}

		fctx := filterCtx{
			conf:    w.A.SignalConfPh[idx],
			quality: w.A.QualityPh[idx],
		}
		if w.Atl08 != nil {
			fctx.atl08Active = true
			fctx.atl08Class = w.Atl08.Classification[idx]
		}
		if w.Yapc != nil {
			fctx.yapcActive = true
			fctx.yapcScore = w.Yapc[idx]
			fctx.yapcMin = w.P.Yapc.Score
		}
		if w.Mask != nil {
			fctx.maskActive = true
			if seg < len(w.Mask) {
				fctx.maskValue = w.Mask[seg]
			}
		}

		accept, err := runFilterChain(w.Chain, fctx, w.P)
		if err != nil {
			return nil, err
		}
		if accept {
			ext.Photons = append(ext.Photons, Photon{
				PhotonIndex: idx,
				XAtc:        xatc - ext.EffectiveLength/2,
				YAtc:        w.A.DistPhAcross[idx],
			})
		}
	}

	if !stepCompleted {
		s.TrackComplete = true
	} else {
		w.advanceStartDistance()
		if s.PhIn >= numPhotons {
			s.TrackComplete = true
		}
	}

	if len(ext.Photons) < w.P.MinimumPhotonCount {
		ext.Valid = false
	}
	if len(ext.Photons) >= 2 {
		spread := ext.Photons[len(ext.Photons)-1].XAtc - ext.Photons[0].XAtc
		if spread < w.P.AlongTrackSpread {
			ext.Valid = false
		}
	}

	return ext, nil
}

// advanceStartDistance implements spec.md §4.7's "Advance start_distance"
// rule for whichever mode is active.
func (w *Windower) advanceStartDistance() {
	s := w.State
	if !w.P.DistInSeg {
		s.StartDistance += w.P.ExtentStep
		for s.StartSegment+1 < len(w.A.SegmentDistX) && s.StartDistance >= w.A.SegmentDistX[s.StartSegment+1] {
			gap := w.A.SegmentDistX[s.StartSegment+1] - w.A.SegmentDistX[s.StartSegment] - SegmentLength
			s.StartDistance += gap
			s.StartSegment++
		}
		return
	}
	target := s.ExtentSegment + int(w.P.ExtentStep)
	if target < len(w.A.SegmentDistX) {
		s.StartDistance = w.A.SegmentDistX[target]
		s.StartSegment = target
	}
}
