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

// Package parms defines the per-request subsetting Parameters, the Go form
// of the external parameter contract in spec.md §6.
package parms

// Confidence bitset offsets: signal_conf_ph ranges over [-2, 4], indexed
// into a 7-element bitset with a +2 offset.
const (
	CnfPossibleTEP  = -2
	CnfNotConsidered = -1
	CnfBackground    = 0
	CnfWithinTen     = 1
	CnfSurfaceLow    = 2
	CnfSurfaceMedium = 3
	CnfSurfaceHigh   = 4

	cnfOffset = 2
	cnfCount  = 7
)

// Quality bitset: quality_ph ranges over [0, 3].
const (
	QualityNominal = 0
	QualityAfterglow = 1
	QualityLowBackground = 2
	QualityPossibleTEP = 3

	qualityCount = 4
)

// NumATL08Classes is the size of the ATL08 classification enum bitset.
const NumATL08Classes = 6

// YapcVersion selects the scoring algorithm.
type YapcVersion int

const (
	YapcVersionNone YapcVersion = 0
	YapcVersionV2   YapcVersion = 2
	YapcVersionV3   YapcVersion = 3
)

// Track selects which of the three beam pairs to process, or ALL.
type Track int

const (
	TrackAll Track = 0
	Track1   Track = 1
	Track2   Track = 2
	Track3   Track = 3
)

// YapcParms configures the photon density scorer (C6).
type YapcParms struct {
	Version YapcVersion
	Score   uint8 // minimum accepted score, inclusive
	Knn     int   // user-specified knn; 0 means "derive from data" (V2 only)
	MinKnn  int   // floor on the dynamic knn (V3 only)
	WinH    float64
	WinX    float64
}

// HalfWinH returns the half-window in the height dimension.
func (y YapcParms) HalfWinH() float64 { return y.WinH / 2 }

// HalfWinX returns the half-window in the along-track dimension.
func (y YapcParms) HalfWinX() float64 { return y.WinX / 2 }

// PhorealParms configures the PhoREAL extended classification pipeline.
type PhorealParms struct {
	AboveClassifier bool
	UseAbsH         bool
}

// Stages toggles which optional sub-pipelines run.
type Stages struct {
	Atl08   bool
	Yapc    bool
	Phoreal bool
}

// RegionKind selects the region predicate mode (C3).
type RegionKind int

const (
	RegionNone RegionKind = iota
	RegionPolygon
	RegionRaster
)

// Point2D is a planar point, used for projected polygon vertices.
type Point2D struct {
	X, Y float64
}

// RegionOracle supplies the external geometry callbacks spec.md §6
// describes: a coordinate projector/point-in-polygon pair for polygon
// mode, or an includes() oracle for raster mode.
type RegionOracle interface {
	// Project maps a (lon, lat) geodetic coordinate into the declared
	// projection's planar space.
	Project(lon, lat float64, projectionID int) Point2D
	// PointInPolygon reports whether p lies within the closed polygon.
	PointInPolygon(polygon []Point2D, p Point2D) bool
	// Includes reports whether the raster oracle classifies (lon, lat)
	// as inside the target region. Only used in raster mode.
	Includes(lon, lat float64) bool
}

// Parameters is the full per-request configuration contract (spec.md §6).
type Parameters struct {
	SurfaceType int
	Track       Track

	// Confidence/quality/class acceptance bitsets.
	AcceptConf  [cnfCount]bool
	AcceptQual  [qualityCount]bool
	AcceptClass [NumATL08Classes]bool

	Stages  Stages
	Yapc    YapcParms
	Phoreal PhorealParms

	ExtentLength       float64
	ExtentStep         float64
	MinimumPhotonCount int
	AlongTrackSpread   float64
	DistInSeg          bool
	PassInvalid        bool
	ReadTimeoutMs       int

	RegionKind      RegionKind
	Oracle          RegionOracle
	ProjectedPoly   []Point2D
	Projection      int

	Atl03GeoFields []string
	Atl03PhFields  []string
	Atl08Fields    []string
}

// AcceptsConf reports whether the confidence value (in [-2,4]) is accepted.
func (p Parameters) AcceptsConf(conf int) bool {
	idx := conf + cnfOffset
	if idx < 0 || idx >= cnfCount {
		return false
	}
	return p.AcceptConf[idx]
}

// AcceptsQuality reports whether the quality value (in [0,3]) is accepted.
func (p Parameters) AcceptsQuality(q int) bool {
	if q < 0 || q >= qualityCount {
		return false
	}
	return p.AcceptQual[q]
}

// AcceptsClass reports whether the ATL08 classification value is accepted.
func (p Parameters) AcceptsClass(class int) bool {
	if class < 0 || class >= NumATL08Classes {
		return false
	}
	return p.AcceptClass[class]
}

// Default returns a Parameters value with every confidence/quality/class
// bucket accepted, YAPC and ATL08 disabled, and a conservative windowing
// policy — the baseline a caller narrows down from.
func Default() Parameters {
	p := Parameters{
		ExtentLength:       20.0,
		ExtentStep:         20.0,
		MinimumPhotonCount: 10,
		AlongTrackSpread:   20.0,
		ReadTimeoutMs:      10_000,
		Track:              TrackAll,
	}
	for i := range p.AcceptConf {
		p.AcceptConf[i] = true
	}
	for i := range p.AcceptQual {
		p.AcceptQual[i] = true
	}
	for i := range p.AcceptClass {
		p.AcceptClass[i] = true
	}
	return p
}
