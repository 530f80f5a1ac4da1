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

package subsetter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

// twoBeamOpener serves columns for /gt1l (complete, one segment/three
// photons) and intentionally omits /gt1r's reference_photon_lat so that
// beam fails while its sibling succeeds.
type twoBeamOpener struct {
	cols map[string][]float64
}

func columnKey(path string, colIndex int) string {
	if colIndex >= 0 {
		return fmt.Sprintf("%s#%d", path, colIndex)
	}
	return path
}

func (f *twoBeamOpener) Column(_ *archive.Context, _, datasetPath string, colIndex, _, _ int) (archive.LazyColumn, error) {
	vals, ok := f.cols[columnKey(datasetPath, colIndex)]
	if !ok {
		return nil, fmt.Errorf("twoBeamOpener: no column for %s", columnKey(datasetPath, colIndex))
	}
	return archive.NewMemoryColumn(vals), nil
}

func newTwoBeamOpener() *twoBeamOpener {
	const prefix = "/gt1l" // only gt1l is fully populated; gt1r is absent
	return &twoBeamOpener{cols: map[string][]float64{
		prefix + "/geolocation/reference_photon_lat":     {10.0},
		prefix + "/geolocation/reference_photon_lon":     {20.0},
		prefix + "/geolocation/segment_ph_cnt":            {3},
		prefix + "/geolocation/segment_id":                {100},
		prefix + "/geolocation/segment_delta_time":        {10},
		prefix + "/geolocation/segment_dist_x":             {0},
		prefix + "/geolocation/solar_elevation":            {30},
		columnKey(prefix+"/geolocation/velocity_sc", 0):    {3},
		columnKey(prefix+"/geolocation/velocity_sc", 1):    {4},
		columnKey(prefix+"/geolocation/velocity_sc", 2):    {0},
		prefix + "/heights/dist_ph_along":                  {1, 2, 3},
		prefix + "/heights/dist_ph_across":                 {0, 0, 0},
		prefix + "/heights/h_ph":                            {5, 6, 7},
		columnKey(prefix+"/heights/signal_conf_ph", 0):     {4, 4, 4},
		prefix + "/heights/quality_ph":                      {0, 0, 0},
		prefix + "/heights/lat_ph":                          {10, 10, 10},
		prefix + "/heights/lon_ph":                          {20, 20, 20},
		prefix + "/heights/delta_time":                      {1.0, 1.1, 1.2},
		prefix + "/bckgrd_atlas/bckgrd_rate":                {1, 2},
		prefix + "/bckgrd_atlas/delta_time":                 {0, 20},
		"/orbit_info/sc_orient":                             {1},
	}}
}

func basicParams() parms.Parameters {
	p := parms.Default()
	p.Track = parms.Track1
	p.ExtentLength = 20
	p.ExtentStep = 20
	p.MinimumPhotonCount = 1
	p.AlongTrackSpread = 0
	return p
}

func TestRunAbortsOnUnparseableResourceName(t *testing.T) {
	res := Run(context.Background(), Request{
		Opener:   newTwoBeamOpener(),
		Asset:    "icesat2",
		Resource: "ATL03_20200101000000_XXXXXXXX",
		Params:   basicParams(),
	})

	require.Error(t, res.Err)
	rec, ok := <-res.Queue.Records()
	require.True(t, ok)
	require.Equal(t, 0, rec.Len(), "an aborted request still posts the terminator")
}

func TestRunOneBeamFailureDoesNotAbortSibling(t *testing.T) {
	res := Run(context.Background(), Request{
		Opener:   newTwoBeamOpener(),
		Asset:    "icesat2",
		Resource: "ATL03_20200101000000_01234506_006_01.h5",
		Params:   basicParams(),
	})

	// gt1r has no backing columns and fails; gt1l succeeds and posts one
	// extent. The aggregate error reflects gt1r's failure, but gt1l's
	// extent still reached the queue and both beams are accounted for in
	// stats — proving the failing sibling did not abort the other.
	require.Error(t, res.Err)
	require.EqualValues(t, 2, res.Stats.BeamsCompleted)
	require.EqualValues(t, 1, res.Stats.ExtentsSent)

	var sawExtent, sawTerminator bool
	for rec := range res.Queue.Records() {
		if rec.Len() == 0 {
			sawTerminator = true
			break
		}
		sawExtent = true
	}
	require.True(t, sawExtent)
	require.True(t, sawTerminator)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // canceled before Run even starts a single read

	res := Run(ctx, Request{
		Opener:   newTwoBeamOpener(),
		Asset:    "icesat2",
		Resource: "ATL03_20200101000000_01234506_006_01.h5",
		Params:   basicParams(),
	})

	// A pre-canceled ctx still lets each beam's in-memory Join observe
	// ctx.Done() (archive.Memory.Join honors it) rather than the
	// request hanging; the terminator is always posted once every beam
	// has exited.
	select {
	case rec, ok := <-res.Queue.Records():
		require.True(t, ok)
		_ = rec
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not drain within the cancellation budget")
	}
}
