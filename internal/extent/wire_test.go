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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordMarshalRoundTrips(t *testing.T) {
	rec := Record{
		ExtentID:     42,
		Track:        1,
		Pair:         0,
		RGT:          123,
		Cycle:        45,
		SegmentID:    100,
		ExtentLength: 20,
		Photons: []PhotonRecord{
			{TimeNS: 1_500_000_000, XAtc: -5, Atl08Class: UnclassifiedClass},
		},
	}

	b, err := rec.Marshal()
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, rec, decoded)
}

func TestExceptionRecordMarshal(t *testing.T) {
	b, err := ExceptionRecord{Track: 2, Pair: 1, Message: "boom"}.Marshal()
	require.NoError(t, err)

	var decoded ExceptionRecord
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "boom", decoded.Message)
}
