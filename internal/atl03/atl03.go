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

// Package atl03 issues and joins the fixed set of primary-granule (ATL03)
// columns a beam needs, plus any caller-requested ancillary columns,
// scoped to the region window computed by internal/region (C4).
package atl03

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/region"
)

// ReadError wraps the failure of any single column join; it is fatal for
// the owning beam.
type ReadError struct {
	Column string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("atl03: read failed on %s: %v", e.Column, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Data holds the joined primary-granule columns for one beam, scoped to
// the region window.
type Data struct {
	// Per-segment.
	SegmentID        []int64
	SegmentDeltaTime  []float64
	SegmentDistX      []float64
	VelocitySC        [][3]float64
	SolarElevation    []float64
	SegmentLat        []float64
	SegmentLon        []float64
	SegmentPhCnt      []int64

	// Per-photon.
	DistPhAlong  []float64
	DistPhAcross []float64
	HPh          []float64
	SignalConfPh []int64
	QualityPh    []int64
	LatPh        []float64
	LonPh        []float64
	DeltaTime    []float64

	// Per-background-sample.
	BckgrdDeltaTime []float64
	BckgrdRate      []float64

	// Scalar.
	ScOrient int

	// Ancillary columns, keyed by field name, scoped to the same
	// segment/photon window as the fixed columns above.
	AncillaryGeo   map[string][]float64
	AncillaryPh    map[string][]float64
}

// Request bundles everything Load needs to open the fixed and ancillary
// column set for one beam.
type Request struct {
	Opener      archive.Opener
	Ctx         *archive.Context
	Resource    string
	PathPrefix  string // e.g. "/gt1l"
	Window      region.Window
	SurfaceType int
	GeoFields   []string
	PhFields    []string
	Timeout     time.Duration
}

// ancillaryGroup routes an ancillary geolocation-level field name to its
// HDF5 group, mirroring the original driver's convention: fields whose
// name is prefixed tid/geo/dem/dac live under geophys_corr; everything
// else lives under geolocation.
func ancillaryGroup(field string) string {
	for _, prefix := range []string{"tid", "geo", "dem", "dac"} {
		if strings.HasPrefix(field, prefix) {
			return "geophys_corr"
		}
	}
	return "geolocation"
}

// Load issues lazy reads for the fixed column set plus every requested
// ancillary field, joins them all concurrently, and returns the populated
// Data. Any single join failure is fatal and reported as a *ReadError.
func Load(ctx context.Context, req Request) (*Data, error) {
	g, gctx := errgroup.WithContext(ctx)

	d := &Data{
		AncillaryGeo: make(map[string][]float64, len(req.GeoFields)),
		AncillaryPh:  make(map[string][]float64, len(req.PhFields)),
	}

	segN := req.Window.NumSegments
	phN := req.Window.NumPhotons
	firstSeg := req.Window.FirstSegment
	firstPh := req.Window.FirstPhoton

	loadInt64 := func(path string, colIndex, first, num int, dst *[]int64) {
		g.Go(func() error {
			col, err := req.Opener.Column(req.Ctx, req.Resource, path, colIndex, first, num)
			if err != nil {
				return &ReadError{Column: path, Err: err}
			}
			if err := col.Join(gctx, req.Timeout); err != nil {
				return &ReadError{Column: path, Err: err}
			}
			vals := make([]int64, col.Size())
			for i := range vals {
				vals[i] = col.Int64(i)
			}
			*dst = vals
			return nil
		})
	}
	loadFloat64 := func(path string, colIndex, first, num int, dst *[]float64) {
		g.Go(func() error {
			col, err := req.Opener.Column(req.Ctx, req.Resource, path, colIndex, first, num)
			if err != nil {
				return &ReadError{Column: path, Err: err}
			}
			if err := col.Join(gctx, req.Timeout); err != nil {
				return &ReadError{Column: path, Err: err}
			}
			vals := make([]float64, col.Size())
			for i := range vals {
				vals[i] = col.Float64(i)
			}
			*dst = vals
			return nil
		})
	}

	p := req.PathPrefix
	loadInt64(p+"/geolocation/segment_id", -1, firstSeg, segN, &d.SegmentID)
	loadFloat64(p+"/geolocation/segment_delta_time", -1, firstSeg, segN, &d.SegmentDeltaTime)
	loadFloat64(p+"/geolocation/segment_dist_x", -1, firstSeg, segN, &d.SegmentDistX)
	loadFloat64(p+"/geolocation/solar_elevation", -1, firstSeg, segN, &d.SolarElevation)
	loadFloat64(p+"/geolocation/reference_photon_lat", -1, firstSeg, segN, &d.SegmentLat)
	loadFloat64(p+"/geolocation/reference_photon_lon", -1, firstSeg, segN, &d.SegmentLon)
	loadInt64(p+"/geolocation/segment_ph_cnt", -1, firstSeg, segN, &d.SegmentPhCnt)

	for axis := 0; axis < 3; axis++ {
		axis := axis
		g.Go(func() error {
			col, err := req.Opener.Column(req.Ctx, req.Resource, p+"/geolocation/velocity_sc", axis, firstSeg, segN)
			if err != nil {
				return &ReadError{Column: "velocity_sc", Err: err}
			}
			if err := col.Join(gctx, req.Timeout); err != nil {
				return &ReadError{Column: "velocity_sc", Err: err}
			}
			if len(d.VelocitySC) == 0 {
				d.VelocitySC = make([][3]float64, col.Size())
			}
			for i := 0; i < col.Size(); i++ {
				d.VelocitySC[i][axis] = col.Float64(i)
			}
			return nil
		})
	}

	loadFloat64(p+"/heights/dist_ph_along", -1, firstPh, phN, &d.DistPhAlong)
	loadFloat64(p+"/heights/dist_ph_across", -1, firstPh, phN, &d.DistPhAcross)
	loadFloat64(p+"/heights/h_ph", -1, firstPh, phN, &d.HPh)
	loadInt64(p+"/heights/signal_conf_ph", req.SurfaceType, firstPh, phN, &d.SignalConfPh)
	loadInt64(p+"/heights/quality_ph", -1, firstPh, phN, &d.QualityPh)
	loadFloat64(p+"/heights/lat_ph", -1, firstPh, phN, &d.LatPh)
	loadFloat64(p+"/heights/lon_ph", -1, firstPh, phN, &d.LonPh)
	loadFloat64(p+"/heights/delta_time", -1, firstPh, phN, &d.DeltaTime)

	loadFloat64(p+"/bckgrd_atlas/bckgrd_rate", -1, -1, -1, &d.BckgrdRate)
	loadFloat64(p+"/bckgrd_atlas/delta_time", -1, -1, -1, &d.BckgrdDeltaTime)

	g.Go(func() error {
		col, err := req.Opener.Column(req.Ctx, req.Resource, "/orbit_info/sc_orient", -1, 0, 1)
		if err != nil {
			return &ReadError{Column: "sc_orient", Err: err}
		}
		if err := col.Join(gctx, req.Timeout); err != nil {
			return &ReadError{Column: "sc_orient", Err: err}
		}
		d.ScOrient = int(col.Int64(0))
		return nil
	})

	for _, field := range req.GeoFields {
		field := field
		path := fmt.Sprintf("%s/%s/%s", p, ancillaryGroup(field), field)
		dst := make([]float64, 0)
		d.AncillaryGeo[field] = dst
		g.Go(func() error {
			col, err := req.Opener.Column(req.Ctx, req.Resource, path, -1, firstSeg, segN)
			if err != nil {
				return &ReadError{Column: path, Err: err}
			}
			if err := col.Join(gctx, req.Timeout); err != nil {
				return &ReadError{Column: path, Err: err}
			}
			vals := make([]float64, col.Size())
			for i := range vals {
				vals[i] = col.Float64(i)
			}
			d.AncillaryGeo[field] = vals
			return nil
		})
	}
	for _, field := range req.PhFields {
		field := field
		path := fmt.Sprintf("%s/heights/%s", p, field)
		d.AncillaryPh[field] = nil
		g.Go(func() error {
			col, err := req.Opener.Column(req.Ctx, req.Resource, path, -1, firstPh, phN)
			if err != nil {
				return &ReadError{Column: path, Err: err}
			}
			if err := col.Join(gctx, req.Timeout); err != nil {
				return &ReadError{Column: path, Err: err}
			}
			vals := make([]float64, col.Size())
			for i := range vals {
				vals[i] = col.Float64(i)
			}
			d.AncillaryPh[field] = vals
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
