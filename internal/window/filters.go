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

package window

import (
	"fmt"

	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
)

// InvalidConf is raised when a photon's signal_conf_ph falls outside
// [-2,4].
type InvalidConf struct{ Value int64 }

func (e *InvalidConf) Error() string {
	return fmt.Sprintf("window: signal_conf_ph %d out of range [-2,4]", e.Value)
}

// InvalidQuality is raised when a photon's quality_ph falls outside
// [0,3].
type InvalidQuality struct{ Value int64 }

func (e *InvalidQuality) Error() string {
	return fmt.Sprintf("window: quality_ph %d out of range [0,3]", e.Value)
}

// InvalidClass is raised when a photon's ATL08 classification falls
// outside [0, NUM_ATL08_CLASSES).
type InvalidClass struct{ Value int }

func (e *InvalidClass) Error() string {
	return fmt.Sprintf("window: atl08_class %d out of range [0,%d)", e.Value, parms.NumATL08Classes)
}

// filterCtx carries the per-photon inputs the ordered filter chain needs.
// Declared as its own type (rather than threading five parameters through
// every predicate) so that spec.md §9's "property-test that reordering the
// independent predicates does not change output" can permute the chain
// without changing call sites.
type filterCtx struct {
	conf        int64
	quality     int64
	atl08Active bool
	atl08Class  int
	yapcActive  bool
	yapcScore   uint8
	yapcMin     uint8
	maskActive  bool
	maskValue   bool
}

// filterFunc is one predicate in the ordered filter chain; it returns
// (accept, error). An error always means reject-with-fatal-condition.
type filterFunc func(ctx filterCtx, p parms.Parameters) (bool, error)

func confFilter(ctx filterCtx, p parms.Parameters) (bool, error) {
	if ctx.conf < parms.CnfPossibleTEP || ctx.conf > parms.CnfSurfaceHigh {
		return false, &InvalidConf{Value: ctx.conf}
	}
	return p.AcceptsConf(int(ctx.conf)), nil
}

func qualityFilter(ctx filterCtx, p parms.Parameters) (bool, error) {
	if ctx.quality < parms.QualityNominal || ctx.quality > parms.QualityPossibleTEP {
		return false, &InvalidQuality{Value: ctx.quality}
	}
	return p.AcceptsQuality(int(ctx.quality)), nil
}

func classFilter(ctx filterCtx, p parms.Parameters) (bool, error) {
	if !ctx.atl08Active {
		return true, nil
	}
	if ctx.atl08Class < 0 || ctx.atl08Class >= parms.NumATL08Classes {
		return false, &InvalidClass{Value: ctx.atl08Class}
	}
	return p.AcceptsClass(ctx.atl08Class), nil
}

func yapcFilter(ctx filterCtx, _ parms.Parameters) (bool, error) {
	if !ctx.yapcActive {
		return true, nil
	}
	return ctx.yapcScore >= ctx.yapcMin, nil
}

func maskFilter(ctx filterCtx, _ parms.Parameters) (bool, error) {
	if !ctx.maskActive {
		return true, nil
	}
	return ctx.maskValue, nil
}

// defaultFilterChain is the ordered predicate list from spec.md §4.7:
// confidence, quality, ATL08 class, YAPC threshold, raster mask.
var defaultFilterChain = []filterFunc{
	confFilter,
	qualityFilter,
	classFilter,
	yapcFilter,
	maskFilter,
}

// runFilterChain evaluates every predicate in order, short-circuiting on
// the first rejection (including an error, which is always a rejection
// too — the photon is dropped and the error is surfaced to the caller).
func runFilterChain(chain []filterFunc, ctx filterCtx, p parms.Parameters) (bool, error) {
	for _, f := range chain {
		ok, err := f(ctx, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
