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

package beam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/atl08"
	"github.com/earthdata-lab/icesat2subsetter/internal/extent"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
	"github.com/earthdata-lab/icesat2subsetter/internal/logctx"
	"github.com/earthdata-lab/icesat2subsetter/internal/outqueue"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
	"github.com/earthdata-lab/icesat2subsetter/internal/region"
	"github.com/earthdata-lab/icesat2subsetter/internal/window"
	"github.com/earthdata-lab/icesat2subsetter/internal/yapc"
)

// Request bundles everything one granule's beam fan-out needs.
type Request struct {
	Opener      archive.Opener
	Asset       string
	Resource    string
	Desc        granule.ResourceDescriptor
	Params      parms.Parameters
	Queue       *outqueue.Queue
	PostRetries int
	RetryDelay  time.Duration
	// MaxBeams caps how many of the selected beams actually run, in
	// selection order; 0 or >=6 means no cap (every selected beam runs).
	// A deployment-level throttle, distinct from Params.Track's
	// request-level beam selection.
	MaxBeams int
}

// Run fans out across every beam selected by req.Params.Track (or all six),
// each running the C2–C8 pipeline independently, and merges completion
// through a shared Stats. The last beam to finish posts the end-of-stream
// terminator. A per-beam fatal error is caught at this boundary (spec.md
// §7's "a failure in one beam never aborts the others") and folded into the
// returned multierror; EmptySubset is not an error here — it is logged and
// the beam simply contributes nothing.
func Run(ctx context.Context, req Request) (Totals, error) {
	beams := selectBeams(req.Params.Track)
	if req.MaxBeams > 0 && req.MaxBeams < len(beams) {
		beams = beams[:req.MaxBeams]
	}

	stats := &Stats{TotalBeams: len(beams)}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		combined *multierror.Error
	)
	for _, b := range beams {
		b := b
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each beam runs under the caller's own ctx, not a derived one
			// shared with its siblings: spec.md §5's "a failure in one
			// beam never aborts the others" means a sibling's error must
			// not cancel this beam's in-flight read.
			local, err := runBeam(ctx, req, b)

			lastBeam := stats.Merge(local)
			if lastBeam {
				req.Queue.Terminator(context.Background())
			}
			if err != nil {
				mu.Lock()
				combined = multierror.Append(combined, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if combined != nil {
		return stats.Snapshot(), combined.ErrorOrNil()
	}
	return stats.Snapshot(), nil
}

func selectBeams(track parms.Track) []granule.Beam {
	if track == parms.TrackAll {
		return granule.AllBeams()
	}
	out := make([]granule.Beam, 0, 2)
	for _, b := range granule.AllBeams() {
		if b.Track == int(track) {
			out = append(out, b)
		}
	}
	return out
}

// runBeam implements BeamRunner's lifecycle (spec.md §4.9). EmptySubset is
// logged and the beam exits cleanly without posting anything; a fatal error
// is reported via the output queue as an exception record before the beam
// exits and is returned to the caller (it never aborts sibling beams, since each runs in its own
// goroutine under a context that is not canceled by a sibling's failure —
// that cancellation is reserved for the caller's own ctx).
func runBeam(ctx context.Context, req Request, b granule.Beam) (Local, error) {
	logger := logctx.FromContext(ctx).With("track", b.Track, "pair", b.Pair, "resource", req.Resource)
	local := Local{}

	timeout := time.Duration(req.Params.ReadTimeoutMs) * time.Millisecond
	archiveCtx := archive.NewContext(req.Asset, req.Resource)
	prefix := b.PathPrefix()

	latCol, err := req.Opener.Column(archiveCtx, req.Resource, prefix+"/geolocation/reference_photon_lat", -1, 0, -1)
	if err != nil {
		return local, postException(ctx, req, b, err)
	}
	lonCol, err := req.Opener.Column(archiveCtx, req.Resource, prefix+"/geolocation/reference_photon_lon", -1, 0, -1)
	if err != nil {
		return local, postException(ctx, req, b, err)
	}
	phCntCol, err := req.Opener.Column(archiveCtx, req.Resource, prefix+"/geolocation/segment_ph_cnt", -1, 0, -1)
	if err != nil {
		return local, postException(ctx, req, b, err)
	}

	win, err := region.Compute(ctx, region.Columns{Lat: latCol, Lon: lonCol, PhCnt: phCntCol}, timeout, req.Params)
	if err != nil {
		if _, ok := err.(region.EmptySubset); ok {
			logger.Info("beam matched no photons, exiting cleanly")
			return local, nil
		}
		return local, postException(ctx, req, b, err)
	}

	a, err := atl03.Load(ctx, atl03.Request{
		Opener:      req.Opener,
		Ctx:         archiveCtx,
		Resource:    req.Resource,
		PathPrefix:  prefix,
		Window:      win,
		SurfaceType: req.Params.SurfaceType,
		GeoFields:   req.Params.Atl03GeoFields,
		PhFields:    req.Params.Atl03PhFields,
		Timeout:     timeout,
	})
	if err != nil {
		return local, postException(ctx, req, b, err)
	}

	var atl08Res *atl08.Result
	if req.Params.Stages.Atl08 {
		atl08Res, err = loadAndClassifyAtl08(ctx, req, b, a, timeout)
		if err != nil {
			return local, postException(ctx, req, b, err)
		}
	}

	var yapcScores []uint8
	if req.Params.Stages.Yapc {
		yapcScores, err = yapc.Score(a, req.Params.Yapc)
		if err != nil {
			return local, postException(ctx, req, b, err)
		}
	}

	w := window.New(a, atl08Res, yapcScores, win, req.Params)
	bckgrdIn := 0
	st := w.State

	for {
		select {
		case <-ctx.Done():
			return local, nil
		default:
		}

		ext, err := w.Next()
		if err != nil {
			return local, postException(ctx, req, b, err)
		}
		if ext == nil {
			break
		}
		if !ext.Valid && !req.Params.PassInvalid {
			continue
		}

		rec := extent.Build(a, atl08Res, yapcScores, ext, req.Params.DistInSeg, req.Desc, b, st.NextExtentCounter(), &bckgrdIn)
		cont := extent.Container{
			Extent: rec,
			Ancillary: extent.BuildAncillaryRecords(rec, ext, a, atl08Res,
				req.Params.Atl03GeoFields, req.Params.Atl03PhFields, req.Params.Atl08Fields),
		}
		if err := postExtent(ctx, req, cont, &local); err != nil {
			logger.Warn("extent dropped after final post failure", "error", err)
		}
	}

	return local, nil
}

// loadAndClassifyAtl08 reads the classification granule's columns (spec.md
// §4.4) — unconditionally the photon stream, and the land-segment columns
// only when PhoREAL or ancillary join is requested — then runs Classify.
func loadAndClassifyAtl08(ctx context.Context, req Request, b granule.Beam, a *atl03.Data, timeout time.Duration) (*atl08.Result, error) {
	companion, err := granule.CompanionATL08(req.Desc.Name)
	if err != nil {
		return nil, err
	}
	archiveCtx := archive.NewContext(req.Asset, companion)
	prefix := b.PathPrefix()
	phoreal := req.Params.Stages.Phoreal
	ancillary := len(req.Params.Atl08Fields) > 0

	cols := atl08.Columns{Ancillary: make(map[string][]float64, len(req.Params.Atl08Fields))}

	g, gctx := errgroup.WithContext(ctx)

	loadInt64 := func(path string, dst *[]int64) {
		g.Go(func() error {
			col, err := req.Opener.Column(archiveCtx, companion, path, -1, 0, -1)
			if err != nil {
				return err
			}
			if err := col.Join(gctx, timeout); err != nil {
				return err
			}
			vals := make([]int64, col.Size())
			for i := range vals {
				vals[i] = col.Int64(i)
			}
			*dst = vals
			return nil
		})
	}
	loadFloat64 := func(path string, dst *[]float64) {
		g.Go(func() error {
			col, err := req.Opener.Column(archiveCtx, companion, path, -1, 0, -1)
			if err != nil {
				return err
			}
			if err := col.Join(gctx, timeout); err != nil {
				return err
			}
			vals := make([]float64, col.Size())
			for i := range vals {
				vals[i] = col.Float64(i)
			}
			*dst = vals
			return nil
		})
	}

	loadInt64(prefix+"/signal_photons/ph_segment_id", &cols.SegmentID)
	loadInt64(prefix+"/signal_photons/classed_pc_indx", &cols.PcIndx)
	loadInt64(prefix+"/signal_photons/classed_pc_flag", &cols.PcFlag)

	if phoreal || ancillary {
		loadInt64(prefix+"/land_segments/segment_id_beg", &cols.SegmentIDBeg)
	}
	if phoreal {
		loadFloat64(prefix+"/signal_photons/ph_h", &cols.PhH)
		loadInt64(prefix+"/land_segments/segment_landcover", &cols.SegmentLandcover)
		loadInt64(prefix+"/land_segments/segment_snowcover", &cols.SegmentSnowcover)
	}
	for _, field := range req.Params.Atl08Fields {
		field := field
		path := fmt.Sprintf("%s/land_segments/%s", prefix, field)
		g.Go(func() error {
			col, err := req.Opener.Column(archiveCtx, companion, path, -1, 0, -1)
			if err != nil {
				return err
			}
			if err := col.Join(gctx, timeout); err != nil {
				return err
			}
			vals := make([]float64, col.Size())
			for i := range vals {
				vals[i] = col.Float64(i)
			}
			cols.Ancillary[field] = vals
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	opt := atl08.Options{
		Enabled:         true,
		Phoreal:         phoreal,
		Ancillary:       ancillary,
		AboveClassifier: req.Params.Phoreal.AboveClassifier,
		SpotNumber:      atl08.SpotNumber(a.ScOrient, b),
	}

	res := atl08.Classify(a, cols, opt)
	return &res, nil
}

func postException(ctx context.Context, req Request, b granule.Beam, cause error) error {
	logger := logctx.FromContext(ctx).With("track", b.Track, "pair", b.Pair)
	logger.Error("beam failed", "error", cause)
	payload, err := extent.ExceptionRecord{Track: b.Track, Pair: b.Pair, Message: cause.Error()}.Marshal()
	if err != nil {
		payload = []byte(fmt.Sprintf("beam %d/%d: %v", b.Track, b.Pair, cause))
	}
	req.Queue.PostCopy(ctx, payload)
	return cause
}

func postExtent(ctx context.Context, req Request, cont extent.Container, local *Local) error {
	extentID := cont.Extent.ExtentID
	payload, err := cont.Marshal()
	if err != nil {
		local.ExtentsDropped++
		return fmt.Errorf("marshal extent %d: %w", extentID, err)
	}

	retries := req.PostRetries
	for attempt := 0; ; attempt++ {
		postCtx, cancel := context.WithTimeout(ctx, req.RetryDelay)
		st := req.Queue.PostCopy(postCtx, payload)
		cancel()
		switch st {
		case outqueue.StatusOK:
			local.ExtentsSent++
			return nil
		case outqueue.StatusError:
			local.ExtentsDropped++
			return fmt.Errorf("post error for extent %d", extentID)
		default: // StatusTimeout: queue full, retry while active
			local.PostRetries++
			if attempt >= retries {
				local.ExtentsDropped++
				return fmt.Errorf("post exhausted %d retries for extent %d", retries, extentID)
			}
			select {
			case <-ctx.Done():
				local.ExtentsDropped++
				return ctx.Err()
			case <-time.After(req.RetryDelay):
			}
		}
	}
}
