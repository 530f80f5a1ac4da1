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

// Package extent builds the extent, photon, and ancillary records the
// ExtentEmitter (C8) posts to the output queue, and the composite
// extent_id key spec.md §3 describes.
package extent

import "github.com/earthdata-lab/icesat2subsetter/internal/granule"

// PhotonRecord is one accepted photon, x_atc already centered on its
// parent extent. Field names and the "atl03rec.photons" tag mirror the
// record schema registry spec.md §6 describes.
type PhotonRecord struct {
	TimeNS     int64   `json:"time_ns"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	XAtc       float64 `json:"x_atc"`
	YAtc       float64 `json:"y_atc"`
	Height     float64 `json:"height"`
	Relief     float64 `json:"relief"`
	Landcover  int     `json:"landcover"`
	Snowcover  int     `json:"snowcover"`
	Atl08Class int     `json:"atl08_class"`
	Atl03Cnf   int     `json:"atl03_cnf"`
	QualityPh  int     `json:"quality_ph"`
	YapcScore  uint8   `json:"yapc_score"`
}

// Record is one extent ("atl03rec"): the geolocation/velocity/background
// summary plus its accepted photons.
type Record struct {
	ExtentID           uint64         `json:"extent_id"`
	Track              int            `json:"track"`
	Pair               int            `json:"pair"`
	ScOrient           int            `json:"sc_orient"`
	RGT                uint16         `json:"rgt"`
	Cycle              uint16         `json:"cycle"`
	SegmentID          float64        `json:"segment_id"`
	SegmentDistance    float64        `json:"segment_distance"`
	ExtentLength       float64        `json:"extent_length"`
	BackgroundRate     float64        `json:"background_rate"`
	SolarElevation     float64        `json:"solar_elevation"`
	SpacecraftVelocity float64        `json:"spacecraft_velocity"`
	Photons            []PhotonRecord `json:"photons"`
}

// AncType distinguishes which parallel index space an AncillaryRecord's
// field_index refers into.
type AncType int

const (
	AncPhoton AncType = iota
	AncExtent
	AncAtl08
)

// DataType is the scalar element type an AncillaryRecord's Data holds.
type DataType int

const (
	DataFloat64 DataType = iota
	DataInt64
)

// AncillaryRecord mirrors spec.md §4.8's ancillary layout: one record per
// requested field, carrying one element per accepted photon (or one per
// extent, for AncExtent fields).
type AncillaryRecord struct {
	ExtentID    uint64   `json:"extent_id"`
	Kind        AncType  `json:"anc_type"`
	FieldIndex  int      `json:"field_index"`
	DataType    DataType `json:"data_type"`
	NumElements int      `json:"num_elements"`
	Data        []byte   `json:"data"`
}

// Container wraps one extent's Record plus its AncillaryRecords for a
// single post, per spec.md §4.8's "multiple records... wrapped in a
// container" rule. A Record with no ancillary output posts standalone
// (Ancillary is nil).
type Container struct {
	Extent    Record            `json:"extent"`
	Ancillary []AncillaryRecord `json:"ancillary,omitempty"`
}

// The bit widths below lay out the 64-bit extent_id composite key: rgt(16) | cycle(8) |
// region(8) | track(4) | pair(4) | counter(24).
const (
	counterBits = 24
	pairBits    = 4
	trackBits   = 4
	regionBits  = 8
	cycleBits   = 8
)

// ComputeID builds the extent_id composite from a granule's descriptor, a
// beam, and the beam-local monotonic extent counter.
func ComputeID(desc granule.ResourceDescriptor, beam granule.Beam, counter uint32) uint64 {
	id := uint64(desc.RGT) << (cycleBits + regionBits + trackBits + pairBits + counterBits)
	id |= uint64(desc.Cycle) << (regionBits + trackBits + pairBits + counterBits)
	id |= uint64(desc.Region) << (trackBits + pairBits + counterBits)
	id |= uint64(beam.Track&0xF) << (pairBits + counterBits)
	id |= uint64(beam.Pair&0xF) << counterBits
	id |= uint64(counter) & (1<<counterBits - 1)
	return id
}
