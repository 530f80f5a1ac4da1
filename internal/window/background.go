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

import "math"

// InterpolateBackground computes the piecewise-linear interpolation of
// (bckgrdDeltaTime, bckgrdRate) at time t, advancing the cursor bckgrdIn
// monotonically (it never looks backward across successive calls within a
// beam, matching the original's single forward-only cursor). Outside the
// table, the nearest endpoint is returned.
//
// bckgrdIn is read and written through the pointer so that repeated calls
// across successive extents share one monotonically advancing cursor.
func InterpolateBackground(bckgrdDeltaTime, bckgrdRate []float64, t float64, bckgrdIn *int) float64 {
	n := len(bckgrdRate)
	if n == 0 {
		return 0
	}
	if n == 1 || t <= bckgrdDeltaTime[0] {
		return bckgrdRate[0]
	}
	if t >= bckgrdDeltaTime[n-1] {
		return bckgrdRate[n-1]
	}

	i := *bckgrdIn
	if i < 0 {
		i = 0
	}
	for i+1 < n && bckgrdDeltaTime[i+1] <= t {
		i++
	}
	*bckgrdIn = i

	if i+1 >= n {
		return bckgrdRate[n-1]
	}
	if bckgrdDeltaTime[i] == 0 && i == 0 {
		// Mirrors the original's "bckgrd_in==0, use bckgrd_rate[0], no
		// interpolation" special case for a degenerate first sample.
		return bckgrdRate[0]
	}

	t0, t1 := bckgrdDeltaTime[i], bckgrdDeltaTime[i+1]
	r0, r1 := bckgrdRate[i], bckgrdRate[i+1]
	if t1 == t0 {
		return r0
	}
	frac := (t - t0) / (t1 - t0)
	return r0 + frac*(r1-r0)
}

// SegmentID computes the extent's reported segment_id (spec.md §4.8),
// rounded half-up.
func SegmentID(segmentID []int64, extentSegment int, startSegPortion, length float64, distInSeg bool) float64 {
	base := float64(segmentID[extentSegment])
	if distInSeg {
		return roundHalfUp(base + length/2)
	}
	return roundHalfUp(base + startSegPortion + (length/SegmentLength)/2)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// SpacecraftVelocity returns the Euclidean norm of the 3-axis velocity
// vector at extentSegment.
func SpacecraftVelocity(velocitySC [][3]float64, extentSegment int) float64 {
	v := velocitySC[extentSegment]
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
