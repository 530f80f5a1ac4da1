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

package atl08

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
)

func TestClassifyAlignmentGap(t *testing.T) {
	// Primary segment S (segment_id=100) has 5 photons; classification
	// granule lists (S,2) and (S,4) with flags 1 and 3.
	a := &atl03.Data{
		SegmentID:    []int64{100},
		SegmentPhCnt: []int64{5},
	}
	c := Columns{
		SegmentID: []int64{100, 100},
		PcIndx:    []int64{2, 4},
		PcFlag:    []int64{1, 3},
	}

	res := Classify(a, c, Options{Enabled: true})
	require.Equal(t, []int{UnclassifiedFlag, 1, UnclassifiedFlag, 3, UnclassifiedFlag}, res.Classification)
}

func TestClassifyMultiSegment(t *testing.T) {
	a := &atl03.Data{
		SegmentID:    []int64{1, 2},
		SegmentPhCnt: []int64{2, 2},
	}
	c := Columns{
		SegmentID: []int64{1, 2},
		PcIndx:    []int64{1, 2},
		PcFlag:    []int64{9, 8},
	}
	res := Classify(a, c, Options{Enabled: true})
	require.Equal(t, []int{9, UnclassifiedFlag, UnclassifiedFlag, 8}, res.Classification)
}

func TestSpotNumberForwardOrientation(t *testing.T) {
	require.Equal(t, 1, SpotNumber(1, granule.Beam{Track: 1, Pair: 0}))
	require.Equal(t, 2, SpotNumber(1, granule.Beam{Track: 1, Pair: 1}))
	require.Equal(t, 5, SpotNumber(1, granule.Beam{Track: 3, Pair: 0}))
}

func TestSpotNumberBackwardOrientation(t *testing.T) {
	require.Equal(t, 2, SpotNumber(0, granule.Beam{Track: 1, Pair: 0}))
	require.Equal(t, 1, SpotNumber(0, granule.Beam{Track: 1, Pair: 1}))
}

func TestAboveReassignment(t *testing.T) {
	a := &atl03.Data{
		SegmentID:      []int64{1},
		SegmentPhCnt:   []int64{1},
		SolarElevation: []float64{1.0},
		SignalConfPh:   []int64{SurfaceHigh},
	}
	c := Columns{} // no classification entries: stays UNCLASSIFIED pre-ABoVE
	res := Classify(a, c, Options{
		Enabled:         true,
		Phoreal:         true,
		AboveClassifier: true,
		SpotNumber:      1,
	})
	res.Relief[0] = 10.0
	applyAboveReassignment(a, res, 1)
	require.Equal(t, TopOfCanopy, res.Classification[0])
}
