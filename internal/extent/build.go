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

package extent

import (
	"encoding/binary"
	"math"

	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/atl08"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
	"github.com/earthdata-lab/icesat2subsetter/internal/window"
)

// UnclassifiedClass is the sentinel Atl08Class value for photons with no
// ATL08 alignment (either the stage is disabled or the photon genuinely
// went unclassified).
const UnclassifiedClass = atl08.UnclassifiedFlag

// InvalidIndex mirrors spec.md §4.8's sentinel for an ancillary index with
// no corresponding classification entry.
const InvalidIndex = atl08.InvalidIndex

// Build assembles a Record from one windower Extent, per spec.md §4.8.
// bckgrdIn is the beam's shared forward-only background-interpolation
// cursor, advanced in place.
func Build(a *atl03.Data, atl08res *atl08.Result, yapcScores []uint8, ext *window.Extent, distInSeg bool, desc granule.ResourceDescriptor, beam granule.Beam, counter uint32, bckgrdIn *int) Record {
	seg := ext.ExtentSegment

	segmentID := window.SegmentID(a.SegmentID, seg, ext.StartSegPortion, ext.EffectiveLength, distInSeg)
	segmentDistance := ext.StartDistance + ext.EffectiveLength/2
	backgroundRate := window.InterpolateBackground(a.BckgrdDeltaTime, a.BckgrdRate, a.SegmentDeltaTime[seg], bckgrdIn)
	scVelocity := window.SpacecraftVelocity(a.VelocitySC, seg)

	rec := Record{
		ExtentID:           ComputeID(desc, beam, counter),
		Track:              beam.Track,
		Pair:               beam.Pair,
		ScOrient:           a.ScOrient,
		RGT:                desc.RGT,
		Cycle:              desc.Cycle,
		SegmentID:          segmentID,
		SegmentDistance:    segmentDistance,
		ExtentLength:       ext.EffectiveLength,
		BackgroundRate:     backgroundRate,
		SolarElevation:     a.SolarElevation[seg],
		SpacecraftVelocity: scVelocity,
		Photons:            make([]PhotonRecord, 0, len(ext.Photons)),
	}

	for _, ph := range ext.Photons {
		k := ph.PhotonIndex
		pr := PhotonRecord{
			TimeNS:     int64(a.DeltaTime[k] * 1e9),
			Latitude:   a.LatPh[k],
			Longitude:  a.LonPh[k],
			XAtc:       ph.XAtc,
			YAtc:       ph.YAtc,
			Height:     a.HPh[k],
			Atl08Class: UnclassifiedClass,
			Atl03Cnf:   int(a.SignalConfPh[k]),
			QualityPh:  int(a.QualityPh[k]),
		}
		if atl08res != nil {
			pr.Atl08Class = atl08res.Classification[k]
			if atl08res.Relief != nil {
				pr.Relief = atl08res.Relief[k]
			}
			if atl08res.Landcover != nil {
				pr.Landcover = atl08res.Landcover[k]
			}
			if atl08res.Snowcover != nil {
				pr.Snowcover = atl08res.Snowcover[k]
			}
		}
		if yapcScores != nil {
			pr.YapcScore = yapcScores[k]
		}
		rec.Photons = append(rec.Photons, pr)
	}

	return rec
}

// BuildAncillary produces the AncillaryRecord for one requested field,
// selecting values from col at the given indices. An index of InvalidIndex
// (no alignment) is written as 0xFF-filled bytes of the element width, per
// spec.md §4.8.
func BuildAncillary(extentID uint64, kind AncType, fieldIndex int, dt DataType, col []float64, indices []int) AncillaryRecord {
	const width = 8
	data := make([]byte, 0, len(indices)*width)
	for _, idx := range indices {
		if idx == InvalidIndex || idx < 0 || idx >= len(col) {
			data = append(data, invalidFill(width)...)
			continue
		}
		var buf [width]byte
		switch dt {
		case DataInt64:
			binary.LittleEndian.PutUint64(buf[:], uint64(int64(col[idx])))
		default:
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(col[idx]))
		}
		data = append(data, buf[:]...)
	}
	return AncillaryRecord{
		ExtentID:    extentID,
		Kind:        kind,
		FieldIndex:  fieldIndex,
		DataType:    dt,
		NumElements: len(indices),
		Data:        data,
	}
}

// BuildAncillaryRecords produces the ancillary records for one extent:
// one AncExtent record per requested Atl03 geo field (a single value taken
// from the extent's segment), one AncPhoton record per requested Atl03
// photon field (one value per accepted photon), and one AncAtl08 record
// per requested Atl08 field (one value per accepted photon, looked up via
// atl08res.AncSegIndex), per spec.md §4.8. Fields with no backing column
// (an unrecognized name, or Atl08 fields when the Atl08 stage is disabled)
// are skipped.
func BuildAncillaryRecords(rec Record, ext *window.Extent, a *atl03.Data, atl08res *atl08.Result, geoFields, phFields, atl08Fields []string) []AncillaryRecord {
	var out []AncillaryRecord
	seg := ext.ExtentSegment

	for i, field := range geoFields {
		col, ok := a.AncillaryGeo[field]
		if !ok {
			continue
		}
		out = append(out, BuildAncillary(rec.ExtentID, AncExtent, i, DataFloat64, col, []int{seg}))
	}

	if len(phFields) > 0 {
		indices := make([]int, len(ext.Photons))
		for k, ph := range ext.Photons {
			indices[k] = ph.PhotonIndex
		}
		for i, field := range phFields {
			col, ok := a.AncillaryPh[field]
			if !ok {
				continue
			}
			out = append(out, BuildAncillary(rec.ExtentID, AncPhoton, i, DataFloat64, col, indices))
		}
	}

	if len(atl08Fields) > 0 && atl08res != nil {
		segIndices := make([]int, len(ext.Photons))
		for k, ph := range ext.Photons {
			segIndices[k] = atl08res.AncSegIndex[ph.PhotonIndex]
		}
		for i, field := range atl08Fields {
			col, ok := atl08res.Ancillary[field]
			if !ok {
				continue
			}
			out = append(out, BuildAncillary(rec.ExtentID, AncAtl08, i, DataFloat64, col, segIndices))
		}
	}

	return out
}

func invalidFill(width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}
