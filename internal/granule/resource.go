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

// Package granule parses ICESat-2 granule filenames into their structured
// identity and derives the companion classification-granule name.
package granule

import (
	"fmt"
	"strconv"
)

// ParseError is raised when a granule name cannot be decoded into a
// ResourceDescriptor.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("granule: parse error on %q: %s", e.Name, e.Reason)
}

const (
	rgtStart    = 21
	rgtEnd      = 25
	cycleStart  = 25
	cycleEnd    = 27
	regionStart = 27
	regionEnd   = 29
	minNameLen  = regionEnd

	// atl08MarkerIndex is the character position that distinguishes an
	// ATL03 resource name from its ATL08 companion (e.g. "ATL03_..." vs
	// "ATL08_...").
	atl08MarkerIndex = 4
)

// ResourceDescriptor is the parsed identity of an ICESat-2 granule name:
// reference ground track, repeat cycle, and one of 14 latitudinal regions.
type ResourceDescriptor struct {
	Name   string
	RGT    uint16
	Cycle  uint16
	Region uint8
}

// Parse extracts (rgt, cycle, region) from a granule filename using fixed
// character offsets: [21:25) rgt, [25:27) cycle, [27:29) region. Names
// shorter than 29 characters are not an error — SlideRule treats them as an
// unparseable non-granule resource and returns a zero descriptor; names at
// least that long but failing to parse as base-10 integers are a hard
// ParseError.
func Parse(name string) (ResourceDescriptor, error) {
	d := ResourceDescriptor{Name: name}
	if len(name) < minNameLen {
		return d, nil
	}

	rgt, err := strconv.ParseUint(name[rgtStart:rgtEnd], 10, 16)
	if err != nil {
		return ResourceDescriptor{}, &ParseError{Name: name, Reason: "rgt: " + err.Error()}
	}
	cycle, err := strconv.ParseUint(name[cycleStart:cycleEnd], 10, 16)
	if err != nil {
		return ResourceDescriptor{}, &ParseError{Name: name, Reason: "cycle: " + err.Error()}
	}
	region, err := strconv.ParseUint(name[regionStart:regionEnd], 10, 8)
	if err != nil {
		return ResourceDescriptor{}, &ParseError{Name: name, Reason: "region: " + err.Error()}
	}

	d.RGT = uint16(rgt)
	d.Cycle = uint16(cycle)
	d.Region = uint8(region)
	return d, nil
}

// Format reconstructs the original granule name from the descriptor. It is
// the exact inverse of Parse for well-formed names: Parse(name).Format() ==
// name.
func (d ResourceDescriptor) Format() string {
	return d.Name
}

// CompanionATL08 returns the name of the sibling ATL08 classification
// granule: the same name with character index 4 replaced by '8'.
func CompanionATL08(name string) (string, error) {
	if len(name) <= atl08MarkerIndex {
		return "", &ParseError{Name: name, Reason: "name too short to derive companion"}
	}
	b := []byte(name)
	b[atl08MarkerIndex] = '8'
	return string(b), nil
}

// Beam identifies one of the six ground-track/pair combinations in a
// granule.
type Beam struct {
	Track int // 1..=3
	Pair  int // 0 (left) or 1 (right)
}

// PathPrefix returns the HDF5 group path prefix for this beam, e.g.
// "/gt1l" or "/gt3r".
func (b Beam) PathPrefix() string {
	side := "l"
	if b.Pair != 0 {
		side = "r"
	}
	return fmt.Sprintf("/gt%d%s", b.Track, side)
}

// AllBeams returns the up to six beams in a fixed, deterministic order
// (track 1..3, pair left then right).
func AllBeams() []Beam {
	beams := make([]Beam, 0, 6)
	for track := 1; track <= 3; track++ {
		for pair := 0; pair <= 1; pair++ {
			beams = append(beams, Beam{Track: track, Pair: pair})
		}
	}
	return beams
}
