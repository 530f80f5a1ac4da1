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

package region

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

func cols(lat, lon, phCnt []float64) Columns {
	return Columns{
		Lat:   archive.NewMemoryColumn(lat),
		Lon:   archive.NewMemoryColumn(lon),
		PhCnt: archive.NewMemoryColumn(phCnt),
	}
}

func TestComputeNoRegionTakesFullExtent(t *testing.T) {
	c := cols([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{5, 0, 7})
	p := parms.Default()
	p.RegionKind = parms.RegionNone

	w, err := Compute(context.Background(), c, time.Second, p)
	require.NoError(t, err)
	require.Equal(t, 0, w.FirstSegment)
	require.Equal(t, 3, w.NumSegments)
	require.Equal(t, 12, w.NumPhotons)
}

type fakeOracle struct {
	included map[int]bool
	call     int
}

func (f *fakeOracle) Project(lon, lat float64, projectionID int) parms.Point2D {
	return parms.Point2D{X: lon, Y: lat}
}

func (f *fakeOracle) PointInPolygon(poly []parms.Point2D, p parms.Point2D) bool {
	in := f.included[f.call]
	f.call++
	return in
}

func (f *fakeOracle) Includes(lon, lat float64) bool {
	in := f.included[f.call]
	f.call++
	return in
}

func TestComputePolygonEnterExit(t *testing.T) {
	// segments: 0 excluded(cnt=3), 1 included(cnt=4), 2 included(cnt=5),
	// 3 excluded(cnt=2) -> enter=1, exit=3, num_segments=2,
	// first_photon=3, num_photons=4+5=9.
	c := cols([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0}, []float64{3, 4, 5, 2})
	oracle := &fakeOracle{included: map[int]bool{0: false, 1: true, 2: true, 3: false}}
	p := parms.Default()
	p.RegionKind = parms.RegionPolygon
	p.Oracle = oracle

	w, err := Compute(context.Background(), c, time.Second, p)
	require.NoError(t, err)
	require.Equal(t, 1, w.FirstSegment)
	require.Equal(t, 2, w.NumSegments)
	require.Equal(t, 3, w.FirstPhoton)
	require.Equal(t, 9, w.NumPhotons)
}

func TestComputeEmptySubset(t *testing.T) {
	c := cols([]float64{0}, []float64{0}, []float64{0})
	p := parms.Default()
	p.RegionKind = parms.RegionNone

	_, err := Compute(context.Background(), c, time.Second, p)
	require.Error(t, err)
	var empty EmptySubset
	require.ErrorAs(t, err, &empty)
}

func TestComputeRasterMask(t *testing.T) {
	// segment 0 has zero photons and is skipped entirely (never queries
	// the oracle); segments 1 and 2 are queried and both included;
	// segment 3 is queried and excluded.
	c := cols([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0}, []float64{0, 4, 5, 2})
	oracle := &fakeOracle{included: map[int]bool{0: true, 1: true, 2: false}}
	p := parms.Default()
	p.RegionKind = parms.RegionRaster
	p.Oracle = oracle

	w, err := Compute(context.Background(), c, time.Second, p)
	require.NoError(t, err)
	require.Equal(t, 1, w.FirstSegment)
	require.Equal(t, 2, w.NumSegments)
	require.Equal(t, []bool{true, true}, w.InclusionMask)
	require.Equal(t, 9, w.NumPhotons)
}
