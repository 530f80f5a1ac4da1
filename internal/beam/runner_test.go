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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/granule"
	"github.com/earthdata-lab/icesat2subsetter/internal/outqueue"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

type fakeOpener struct {
	cols map[string][]float64
}

func columnKey(path string, colIndex int) string {
	if colIndex >= 0 {
		return fmt.Sprintf("%s#%d", path, colIndex)
	}
	return path
}

func (f *fakeOpener) Column(_ *archive.Context, _, datasetPath string, colIndex, _, _ int) (archive.LazyColumn, error) {
	vals, ok := f.cols[columnKey(datasetPath, colIndex)]
	if !ok {
		return nil, fmt.Errorf("fakeOpener: no column for %s", columnKey(datasetPath, colIndex))
	}
	return archive.NewMemoryColumn(vals), nil
}

func newSingleSegmentOpener() *fakeOpener {
	const prefix = "/gt1l"
	return &fakeOpener{cols: map[string][]float64{
		prefix + "/geolocation/reference_photon_lat": {10.0},
		prefix + "/geolocation/reference_photon_lon": {20.0},
		prefix + "/geolocation/segment_ph_cnt":        {3},
		prefix + "/geolocation/segment_id":            {100},
		prefix + "/geolocation/segment_delta_time":    {10},
		prefix + "/geolocation/segment_dist_x":        {0},
		prefix + "/geolocation/solar_elevation":       {30},
		columnKey(prefix+"/geolocation/velocity_sc", 0): {3},
		columnKey(prefix+"/geolocation/velocity_sc", 1): {4},
		columnKey(prefix+"/geolocation/velocity_sc", 2): {0},
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

func TestRunSingleBeamHappyPath(t *testing.T) {
	opener := newSingleSegmentOpener()
	q := outqueue.New(8)

	p := parms.Default()
	p.Track = parms.Track1
	p.ExtentLength = 20
	p.ExtentStep = 20
	p.MinimumPhotonCount = 1
	p.AlongTrackSpread = 0

	req := Request{
		Opener:      opener,
		Asset:       "icesat2",
		Resource:    "ATL03_20200101000000_01234506_006_01.h5",
		Desc:        granule.ResourceDescriptor{Name: "ATL03_20200101000000_01234506_006_01.h5", RGT: 123, Cycle: 45, Region: 6},
		Params:      p,
		Queue:       q,
		PostRetries: 3,
		RetryDelay:  10 * time.Millisecond,
		MaxBeams:    1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type runResult struct {
		totals Totals
		err    error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		totals, err := Run(ctx, req)
		resultCh <- runResult{totals, err}
	}()

	var records []outqueue.Record
	for rec := range q.Records() {
		records = append(records, rec)
		if rec.Len() == 0 {
			break
		}
	}
	result := <-resultCh
	require.NoError(t, result.err)
	require.EqualValues(t, 1, result.totals.ExtentsSent)
	require.EqualValues(t, 1, result.totals.BeamsCompleted)

	require.Len(t, records, 2, "one extent post plus the terminator")
	require.Greater(t, records[0].Len(), 0)
	require.Equal(t, 0, records[1].Len())
}

func TestRunMaxBeamsCapsSelection(t *testing.T) {
	// Only /gt1l has backing columns; with Track=TrackAll and MaxBeams=1,
	// only the first selected beam (gt1l, track1/pair0 per AllBeams'
	// fixed order) should actually run.
	opener := newSingleSegmentOpener()
	q := outqueue.New(8)

	p := parms.Default()
	p.ExtentLength = 20
	p.ExtentStep = 20
	p.MinimumPhotonCount = 1
	p.AlongTrackSpread = 0

	req := Request{
		Opener:      opener,
		Asset:       "icesat2",
		Resource:    "ATL03_20200101000000_01234506_006_01.h5",
		Desc:        granule.ResourceDescriptor{Name: "ATL03_20200101000000_01234506_006_01.h5", RGT: 123, Cycle: 45, Region: 6},
		Params:      p,
		Queue:       q,
		PostRetries: 1,
		RetryDelay:  time.Millisecond,
		MaxBeams:    1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	totals, err := Run(ctx, req)
	require.NoError(t, err)
	require.EqualValues(t, 1, totals.TotalBeams)
	require.EqualValues(t, 1, totals.BeamsCompleted)
}
