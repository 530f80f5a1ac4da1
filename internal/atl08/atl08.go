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

// Package atl08 aligns the ATL08 land-classification granule against the
// primary ATL03 photon enumeration via a sorted-stream merge-join, and
// derives the PhoREAL relief/landcover/snowcover fields and the ABoVE
// reassignment rule (C5).
package atl08

import (
	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
)

// UnclassifiedFlag is the classification value assigned to a primary
// photon with no matching classification-granule entry.
const UnclassifiedFlag = -1

// InvalidIndex marks a derived index with no valid target (ancillary join,
// relief sentinel, etc.).
const InvalidIndex = -1

// InvalidFlag is the PhoREAL sentinel for fields that have no value
// because the photon is unclassified.
const InvalidFlag = -1

// TopOfCanopy is the ABoVE-reassignable classification value.
const TopOfCanopy = 2

// SurfaceHigh mirrors parms.CnfSurfaceHigh, duplicated here to avoid a
// cyclic import between atl08 and parms-derived confidence checks; the
// ABoVE rule only ever compares against this one sentinel.
const SurfaceHigh = 4

// NSegsInATL08Seg is the fixed number of ATL03 segments folded into one
// ATL08 land segment.
const NSegsInATL08Seg = 5

// Classification photon columns (classification granule).
type Columns struct {
	SegmentID []int64
	PcIndx    []int64
	PcFlag    []int64
	PhH       []float64 // optional; empty if not requested

	SegmentIDBeg     []int64
	SegmentLandcover []int64
	SegmentSnowcover []int64

	// Ancillary per-segment fields requested by the caller.
	Ancillary map[string][]float64
}

// Options toggles the two independent ATL08 sub-pipelines.
type Options struct {
	Enabled   bool
	Phoreal   bool
	Ancillary bool

	AboveClassifier bool
	SpotNumber      int // derived via SpotNumber(); ABoVE rule input
}

// Result holds the dense per-primary-photon derived arrays.
type Result struct {
	Classification []int
	Relief         []float64
	Landcover      []int
	Snowcover      []int
	AncSegIndex    []int

	// Ancillary carries Columns.Ancillary through unchanged, so callers
	// building ancillary output records can pair it with AncSegIndex
	// without having to thread Columns itself past Classify.
	Ancillary map[string][]float64
}

// SpotNumber derives the 1..6 ground-spot number from spacecraft
// orientation and beam identity, used by the ABoVE reassignment rule.
// Forward orientation (sc_orient==1) numbers strong beams 1,3,5 on
// track 1,2,3 respectively (pair 0); backward orientation (sc_orient==0)
// reverses the strong/weak assignment.
func SpotNumber(scOrient int, beam granule.Beam) int {
	strongPair := 0 // pair index that is "strong" for this orientation
	if scOrient == 0 {
		strongPair = 1
	}
	base := (beam.Track-1)*2 + 1 // track1->1, track2->3, track3->5
	if beam.Pair == strongPair {
		return base
	}
	return base + 1
}

// Classify runs the merge-join alignment described in spec.md §4.4 over
// primary segments [0, len(segmentPhCnt)) — callers pass the already
// region-trimmed atl03 segment/photon columns so indices line up with
// Result's arrays (length == total photon count implied by segmentPhCnt).
func Classify(a *atl03.Data, c Columns, opt Options) Result {
	numPhotons := 0
	for _, cnt := range a.SegmentPhCnt {
		numPhotons += int(cnt)
	}

	res := Result{
		Classification: make([]int, numPhotons),
		AncSegIndex:    make([]int, numPhotons),
		Ancillary:      c.Ancillary,
	}
	if opt.Phoreal {
		res.Relief = make([]float64, numPhotons)
		res.Landcover = make([]int, numPhotons)
		res.Snowcover = make([]int, numPhotons)
	}
	for i := range res.Classification {
		res.Classification[i] = UnclassifiedFlag
		res.AncSegIndex[i] = InvalidIndex
		if opt.Phoreal {
			res.Relief[i] = InvalidFlag
			res.Landcover[i] = InvalidFlag
			res.Snowcover[i] = InvalidFlag
		}
	}

	j := 0 // cursor into the classification photon stream
	atl08SegIndex := 0
	k := 0 // primary photon ordinal

	for segIdx, segID := range a.SegmentID {
		phCnt := int(a.SegmentPhCnt[segIdx])
		for atl03Count := 1; atl03Count <= phCnt; atl03Count++ {
			for j < len(c.SegmentID) && (c.SegmentID[j] < segID ||
				(c.SegmentID[j] == segID && c.PcIndx[j] < int64(atl03Count))) {
				j++
			}

			if j < len(c.SegmentID) && c.SegmentID[j] == segID && c.PcIndx[j] == int64(atl03Count) {
				res.Classification[k] = int(c.PcFlag[j])
				if opt.Phoreal {
					if len(c.PhH) > j {
						res.Relief[k] = c.PhH[j]
					}
				}
				if opt.Ancillary {
					res.AncSegIndex[k] = atl08SegIndex
				}
				j++
			}

			for atl08SegIndex+1 < len(c.SegmentIDBeg) &&
				c.SegmentIDBeg[atl08SegIndex]+NSegsInATL08Seg <= segID {
				atl08SegIndex++
			}
			if opt.Phoreal && atl08SegIndex < len(c.SegmentLandcover) {
				res.Landcover[k] = int(c.SegmentLandcover[atl08SegIndex])
				res.Snowcover[k] = int(c.SegmentSnowcover[atl08SegIndex])
			}

			k++
		}
	}

	if opt.AboveClassifier {
		applyAboveReassignment(a, res, opt.SpotNumber)
	}

	return res
}

// applyAboveReassignment implements spec.md §4.4's ABoVE rule: when a
// photon is not already TOP_OF_CANOPY, reassign it iff the spot number is
// a strong-beam spot, the segment's solar elevation is low (near-dark),
// the photon's signal confidence is SURFACE_HIGH, and its relief lies in
// [0, 35).
func applyAboveReassignment(a *atl03.Data, res Result, spot int) {
	if spot != 1 && spot != 3 && spot != 5 {
		return
	}
	k := 0
	for segIdx, phCnt := range a.SegmentPhCnt {
		if a.SolarElevation[segIdx] > 5.0 {
			k += int(phCnt)
			continue
		}
		for i := 0; i < int(phCnt); i++ {
			if res.Classification[k] != TopOfCanopy &&
				int(a.SignalConfPh[k]) == SurfaceHigh &&
				res.Relief[k] >= 0 && res.Relief[k] < 35.0 {
				res.Classification[k] = TopOfCanopy
			}
			k++
		}
	}
}
