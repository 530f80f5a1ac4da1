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

// Package region computes the along-track window (segment and photon
// ranges) that a request's region-of-interest predicate selects out of a
// granule's per-segment geolocation columns (C3 in the component table).
package region

import (
	"context"
	"fmt"
	"time"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

// EmptySubset is returned when the region predicate matches zero photons.
// It is non-fatal: the owning beam exits cleanly.
type EmptySubset struct{}

func (EmptySubset) Error() string { return "region: predicate matched zero photons" }

// Window is the along-track segment/photon range selected by the region
// predicate, plus an optional per-segment inclusion mask for raster mode.
type Window struct {
	FirstSegment int
	NumSegments  int
	FirstPhoton  int
	NumPhotons   int

	// InclusionMask, when non-nil, is indexed starting at FirstSegment
	// (i.e. InclusionMask[i] describes segment FirstSegment+i) and is
	// consulted per-photon by the windower (spec.md §4.7 step 5).
	InclusionMask []bool
}

// Columns bundles the three per-segment lazy reads Region needs.
type Columns struct {
	Lat   archive.LazyColumn
	Lon   archive.LazyColumn
	PhCnt archive.LazyColumn
}

// Compute joins the three segment columns and applies the region
// predicate, returning the selected window. The three columns are trimmed
// in place so that index 0 refers to FirstSegment after a successful call
// — callers must not reuse pre-trim indices afterward.
func Compute(ctx context.Context, cols Columns, timeout time.Duration, p parms.Parameters) (Window, error) {
	for name, c := range map[string]archive.LazyColumn{"lat": cols.Lat, "lon": cols.Lon, "ph_cnt": cols.PhCnt} {
		if err := c.Join(ctx, timeout); err != nil {
			return Window{}, fmt.Errorf("region: join %s: %w", name, err)
		}
	}

	numSegmentsFull := cols.PhCnt.Size()

	var w Window
	switch p.RegionKind {
	case parms.RegionNone:
		w = fullWindow(cols.PhCnt, numSegmentsFull)
	case parms.RegionPolygon:
		w = polygonWindow(cols, numSegmentsFull, p)
	case parms.RegionRaster:
		w = rasterWindow(cols, numSegmentsFull, p)
	default:
		w = fullWindow(cols.PhCnt, numSegmentsFull)
	}

	cols.Lat.Trim(w.FirstSegment)
	cols.Lon.Trim(w.FirstSegment)
	cols.PhCnt.Trim(w.FirstSegment)

	if w.NumPhotons == 0 {
		return Window{}, EmptySubset{}
	}
	return w, nil
}

func fullWindow(phCnt archive.LazyColumn, numSegmentsFull int) Window {
	total := 0
	for i := 0; i < numSegmentsFull; i++ {
		total += int(phCnt.Int64(i))
	}
	return Window{FirstSegment: 0, NumSegments: numSegmentsFull, FirstPhoton: 0, NumPhotons: total}
}

func polygonWindow(cols Columns, numSegmentsFull int, p parms.Parameters) Window {
	enter, exit := -1, -1
	firstPhoton := 0
	numPhotons := 0

	for seg := 0; seg < numSegmentsFull; seg++ {
		cnt := int(cols.PhCnt.Int64(seg))
		included := segmentIncludedPolygon(cols, seg, p)

		if enter < 0 {
			if included && cnt > 0 {
				enter = seg
				numPhotons += cnt
			} else {
				firstPhoton += cnt
			}
			continue
		}
		// already entered: keep accumulating until an excluded
		// segment with nonzero count is seen (the "exit").
		if !included && cnt > 0 {
			exit = seg
			break
		}
		numPhotons += cnt
	}

	if enter < 0 {
		return Window{FirstSegment: 0, NumSegments: 0, FirstPhoton: 0, NumPhotons: 0}
	}
	if exit < 0 {
		exit = numSegmentsFull
	}
	return Window{
		FirstSegment: enter,
		NumSegments:  exit - enter,
		FirstPhoton:  firstPhoton,
		NumPhotons:   numPhotons,
	}
}

func segmentIncludedPolygon(cols Columns, seg int, p parms.Parameters) bool {
	lon, lat := cols.Lon.Float64(seg), cols.Lat.Float64(seg)
	pt := p.Oracle.Project(lon, lat, p.Projection)
	return p.Oracle.PointInPolygon(p.ProjectedPoly, pt)
}

func rasterWindow(cols Columns, numSegmentsFull int, p parms.Parameters) Window {
	mask := make([]bool, numSegmentsFull)
	firstSegment, lastSegment := -1, -1

	for seg := 0; seg < numSegmentsFull; seg++ {
		if int(cols.PhCnt.Int64(seg)) == 0 {
			continue
		}
		lon, lat := cols.Lon.Float64(seg), cols.Lat.Float64(seg)
		if p.Oracle.Includes(lon, lat) {
			mask[seg] = true
			if firstSegment < 0 {
				firstSegment = seg
			}
			lastSegment = seg
		}
	}

	if firstSegment < 0 {
		return Window{}
	}

	numPhotons := 0
	for seg := firstSegment; seg <= lastSegment; seg++ {
		numPhotons += int(cols.PhCnt.Int64(seg))
	}

	numSegments := lastSegment - firstSegment + 1
	offsetMask := make([]bool, numSegments)
	copy(offsetMask, mask[firstSegment:lastSegment+1])

	firstPhoton := 0
	for seg := 0; seg < firstSegment; seg++ {
		firstPhoton += int(cols.PhCnt.Int64(seg))
	}

	return Window{
		FirstSegment:  firstSegment,
		NumSegments:   numSegments,
		FirstPhoton:   firstPhoton,
		NumPhotons:    numPhotons,
		InclusionMask: offsetMask,
	}
}
