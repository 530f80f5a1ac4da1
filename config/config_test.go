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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 6, cfg.Subsetter.MaxBeams)
	require.Equal(t, 600, cfg.Subsetter.ReadTimeoutSeconds)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ICESAT2SUBSETTER_SUBSETTER_MAX_BEAMS", "2")
	t.Setenv("ICESAT2SUBSETTER_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Subsetter.MaxBeams)
	require.Equal(t, "debug", cfg.Log.Level)
}
