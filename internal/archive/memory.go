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

package archive

import (
	"context"
	"time"
)

// Memory is an in-memory LazyColumn backed by a plain slice, standing in
// for a materialized H5Coro read in tests. Join is a no-op success unless
// FailJoin is set.
type Memory struct {
	data     []float64
	FailJoin error
}

// NewMemoryColumn wraps vals as an already-available LazyColumn.
func NewMemoryColumn(vals []float64) *Memory {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &Memory{data: cp}
}

// Join satisfies LazyColumn; the in-memory double has no real latency, so
// it only honors FailJoin (for error-path tests) and ctx cancellation.
func (m *Memory) Join(ctx context.Context, _ time.Duration) error {
	if m.FailJoin != nil {
		return m.FailJoin
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (m *Memory) Trim(offset int) {
	if offset <= 0 {
		return
	}
	if offset >= len(m.data) {
		m.data = nil
		return
	}
	m.data = m.data[offset:]
}

func (m *Memory) Size() int { return len(m.data) }

func (m *Memory) Float64(i int) float64 { return m.data[i] }

func (m *Memory) Int64(i int) int64 { return int64(m.data[i]) }
