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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryColumnJoinAndTrim(t *testing.T) {
	col := NewMemoryColumn([]float64{1, 2, 3, 4, 5})
	require.NoError(t, col.Join(context.Background(), time.Second))
	require.Equal(t, 5, col.Size())
	col.Trim(2)
	require.Equal(t, 3, col.Size())
	require.Equal(t, 3.0, col.Float64(0))
}

