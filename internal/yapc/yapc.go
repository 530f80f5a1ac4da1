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

// Package yapc computes the "Yet Another Photon Classifier" per-photon
// density score in [0,255] using one of two nearest-neighbor algorithms
// (C6): V2's windowed, bin-based kNN, or V3's linear-scan dynamic-k kNN.
package yapc

import (
	"fmt"
	"math"
	"sort"

	"github.com/earthdata-lab/icesat2subsetter/internal/atl03"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

// InvalidVersion is raised when the YAPC configuration names an
// unsupported algorithm version.
type InvalidVersion struct {
	Version parms.YapcVersion
}

func (e *InvalidVersion) Error() string {
	return fmt.Sprintf("yapc: unsupported version %d", e.Version)
}

// Score computes score[k] for every photon in a, using the algorithm
// selected by p.Yapc.Version. Segment boundaries are taken from
// a.SegmentPhCnt (photon k's segment is whichever segment its ordinal
// falls within).
func Score(a *atl03.Data, p parms.YapcParms) ([]uint8, error) {
	switch p.Version {
	case parms.YapcVersionV2:
		return scoreV2(a, p), nil
	case parms.YapcVersionV3:
		return scoreV3(a, p), nil
	default:
		return nil, &InvalidVersion{Version: p.Version}
	}
}

// segmentBounds returns, per segment, the first photon ordinal (starts) and
// one past its last photon ordinal (ends).
func segmentBounds(segPhCnt []int64) (starts []int, ends []int) {
	starts = make([]int, len(segPhCnt))
	ends = make([]int, len(segPhCnt))
	cursor := 0
	for i, cnt := range segPhCnt {
		starts[i] = cursor
		cursor += int(cnt)
		ends[i] = cursor
	}
	return
}

// scoreV3 implements spec.md §4.5's V3 linear-scan dynamic-k kNN scorer.
func scoreV3(a *atl03.Data, p parms.YapcParms) []uint8 {
	n := len(a.HPh)
	score := make([]uint8, n)
	if n == 0 {
		return score
	}

	starts, ends := segmentBounds(a.SegmentPhCnt)

	phDist := make([]float64, n)
	segOfPhoton := make([]int, n)
	for seg, start := range starts {
		for k := start; k < ends[seg]; k++ {
			phDist[k] = a.SegmentDistX[seg] + a.DistPhAlong[k]
			segOfPhoton[k] = seg
		}
	}

	hWx := p.HalfWinX()
	hWh := p.HalfWinH()
	minKnn := p.MinKnn
	if minKnn < 1 {
		minKnn = 1
	}

	weight := make([]float64, n)
	neighborCount := make([]int, n)
	segMaxKnn := make([]int, len(a.SegmentPhCnt))

	for seg, start := range starts {
		end := ends[seg]
		maxKnn := 0
		for k := start; k < end; k++ {
			var prox []float64

			for j := k - 1; j >= start; j-- {
				dx := phDist[k] - phDist[j]
				if dx > hWx+1.0 {
					break
				}
				if math.Abs(dx) <= hWx && math.Abs(a.HPh[j]-a.HPh[k]) <= hWh {
					prox = append(prox, math.Abs(a.HPh[j]-a.HPh[k]))
				}
			}
			for j := k + 1; j < end; j++ {
				dx := phDist[j] - phDist[k]
				if dx > hWx+1.0 {
					break
				}
				if math.Abs(dx) <= hWx && math.Abs(a.HPh[j]-a.HPh[k]) <= hWh {
					prox = append(prox, math.Abs(a.HPh[j]-a.HPh[k]))
				}
			}

			sort.Float64s(prox)

			kDyn := int(math.Floor(math.Sqrt(float64(len(prox)))))
			if kDyn < minKnn {
				kDyn = minKnn
			}
			if kDyn > maxKnn {
				maxKnn = kDyn
			}

			w := 0.0
			limit := kDyn
			if limit > len(prox) {
				limit = len(prox)
			}
			for i := 0; i < limit; i++ {
				w += hWh - prox[i]
			}
			weight[k] = w
			neighborCount[k] = len(prox)
		}
		segMaxKnn[seg] = maxKnn
	}

	for seg, start := range starts {
		end := ends[seg]
		maxKnn := segMaxKnn[seg]
		if maxKnn == 0 {
			continue
		}
		denom := hWh * float64(maxKnn)
		for k := start; k < end; k++ {
			s := weight[k] / denom * 255.0
			score[k] = clampScore(s)
		}
	}

	return score
}

// scoreV2 implements spec.md §4.5's V2 windowed, bin-based kNN scorer.
// Neighbors are drawn from the center segment plus its two immediate
// neighbors; the operation order (bin histogram -> nonzero_bins -> h_span
// -> bounded top-k pass) is preserved exactly per the Open Question
// decision recorded in DESIGN.md.
func scoreV2(a *atl03.Data, p parms.YapcParms) []uint8 {
	n := len(a.HPh)
	score := make([]uint8, n)
	if n == 0 {
		return score
	}

	starts, ends := segmentBounds(a.SegmentPhCnt)
	hWx := p.HalfWinX()

	for seg := range a.SegmentPhCnt {
		centerStart, centerEnd := starts[seg], ends[seg]
		if centerEnd <= centerStart {
			continue
		}

		winStart := centerStart
		if seg > 0 {
			winStart = starts[seg-1]
		}
		winEnd := centerEnd
		if seg+1 < len(ends) {
			winEnd = ends[seg+1]
		}

		hMin, hMax := a.HPh[centerStart], a.HPh[centerStart]
		distMin, distMax := a.DistPhAlong[centerStart], a.DistPhAlong[centerStart]
		for k := centerStart; k < centerEnd; k++ {
			if a.HPh[k] < hMin {
				hMin = a.HPh[k]
			}
			if a.HPh[k] > hMax {
				hMax = a.HPh[k]
			}
			if a.DistPhAlong[k] < distMin {
				distMin = a.DistPhAlong[k]
			}
			if a.DistPhAlong[k] > distMax {
				distMax = a.DistPhAlong[k]
			}
		}
		hspread := hMax - hMin
		xspread := distMax - distMin
		if !(hspread > 0 && hspread <= 15000) || xspread <= 0 {
			continue
		}

		const binWidth = 1.0
		numBins := int(math.Ceil(hspread/binWidth)) + 1
		bins := make(map[int]bool, numBins)
		for k := centerStart; k < centerEnd; k++ {
			bins[int(math.Floor((a.HPh[k]-hMin)/binWidth))] = true
		}
		nonzeroBins := len(bins)
		N := centerEnd - centerStart
		hSpan := float64(nonzeroBins) * binWidth / float64(N)

		var knn int
		if p.Knn > 0 {
			knn = p.Knn
		} else {
			knn = clampInt(int(math.Floor(math.Sqrt(float64(N))/2+0.5)), 1, 25)
		}

		hWh := hSpan / 2
		if p.WinH != 0 {
			hWh = p.WinH / 2
		}

		for k := centerStart; k < centerEnd; k++ {
			top := make([]float64, 0, knn)
			for j := winStart; j < winEnd; j++ {
				if j == k {
					continue
				}
				if math.Abs(a.DistPhAlong[j]-a.DistPhAlong[k]) > hWx {
					continue
				}
				prox := hWh - math.Abs(a.HPh[j]-a.HPh[k])
				top = insertBoundedTopK(top, prox, knn)
			}
			sum := 0.0
			for _, v := range top {
				sum += v
			}
			s := (sum / float64(knn)) / hWh * 255.0
			score[k] = clampScore(s)
		}
	}

	return score
}

// insertBoundedTopK maintains top as the knn largest values seen so far,
// sorted descending.
func insertBoundedTopK(top []float64, v float64, knn int) []float64 {
	if len(top) < knn {
		top = append(top, v)
		sort.Sort(sort.Reverse(sort.Float64Slice(top)))
		return top
	}
	if v <= top[len(top)-1] {
		return top
	}
	top[len(top)-1] = v
	sort.Sort(sort.Reverse(sort.Float64Slice(top)))
	return top
}

func clampScore(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
