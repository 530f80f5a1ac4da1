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

package granule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWellFormedName(t *testing.T) {
	// Characters [21:25) = "0123" (rgt), [25:27) = "45" (cycle),
	// [27:29) = "06" (region).
	name := "ATL03_20200101000000_01234506_006_01.h5"
	d, err := Parse(name)
	require.NoError(t, err)
	require.Equal(t, uint16(123), d.RGT)
	require.Equal(t, uint16(45), d.Cycle)
	require.Equal(t, uint8(6), d.Region)
}

func TestParseRoundTrip(t *testing.T) {
	name := "ATL03_20200101000000_01234506_006_01.h5"
	d, err := Parse(name)
	require.NoError(t, err)
	require.Equal(t, name, d.Format())
}

func TestParseShortNameIsZeroNotError(t *testing.T) {
	d, err := Parse("short.h5")
	require.NoError(t, err)
	require.Equal(t, ResourceDescriptor{Name: "short.h5"}, d)
}

func TestParseMalformedNameFails(t *testing.T) {
	// Correct length but non-numeric rgt field.
	name := "ATL03_20200101000000_XXXXXX06_006_01.h5"
	_, err := Parse(name)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestCompanionATL08(t *testing.T) {
	name := "ATL03_20200101000000_01234506_006_01.h5"
	companion, err := CompanionATL08(name)
	require.NoError(t, err)
	require.Equal(t, "ATL08_20200101000000_01234506_006_01.h5", companion)
}

func TestBeamPathPrefix(t *testing.T) {
	require.Equal(t, "/gt1l", Beam{Track: 1, Pair: 0}.PathPrefix())
	require.Equal(t, "/gt3r", Beam{Track: 3, Pair: 1}.PathPrefix())
}

func TestAllBeams(t *testing.T) {
	beams := AllBeams()
	require.Len(t, beams, 6)
	require.Equal(t, Beam{Track: 1, Pair: 0}, beams[0])
	require.Equal(t, Beam{Track: 3, Pair: 1}, beams[5])
}
