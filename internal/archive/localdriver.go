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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalDriver is a debugging/offline Opener (mirroring the teacher's
// test-local-files idiom of driving the real pipeline against files on
// disk instead of the production transport): each granule resource is a
// JSON manifest of dataset_path -> column values, decoded once per
// resource and cached for the life of the driver.
//
// Manifest keys for an innermost-dimension selection (e.g. velocity_sc's
// three axes) carry a "#<colIndex>" suffix, matching the columnKey helper
// in internal/beam's and internal/subsetter's test fixtures.
type LocalDriver struct {
	dir string

	mu        sync.Mutex
	manifests map[string]map[string][]float64
}

// NewLocalDriver roots the driver at dir; resource "X" is read from
// "<dir>/X.json".
func NewLocalDriver(dir string) *LocalDriver {
	return &LocalDriver{dir: dir, manifests: make(map[string]map[string][]float64)}
}

func (d *LocalDriver) manifest(resource string) (map[string][]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := d.manifests[resource]; ok {
		return m, nil
	}

	path := filepath.Join(d.dir, resource+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("localdriver: %w", err)
	}
	var m map[string][]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("localdriver: decode %s: %w", path, err)
	}
	d.manifests[resource] = m
	return m, nil
}

func manifestKey(datasetPath string, colIndex int) string {
	if colIndex >= 0 {
		return fmt.Sprintf("%s#%d", datasetPath, colIndex)
	}
	return datasetPath
}

// Column implements Opener by slicing the manifest's column to
// [firstRow, firstRow+numRows). firstRow<0 or numRows<0 means "from the
// start" / "to the end", matching the fixed-column reads that pass -1 for
// an unscoped join (e.g. the background-rate columns).
func (d *LocalDriver) Column(_ *Context, resource, datasetPath string, colIndex, firstRow, numRows int) (LazyColumn, error) {
	m, err := d.manifest(resource)
	if err != nil {
		return nil, err
	}

	key := manifestKey(datasetPath, colIndex)
	vals, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("localdriver: resource %q has no dataset %q", resource, key)
	}

	start := 0
	if firstRow > 0 {
		start = firstRow
	}
	if start > len(vals) {
		start = len(vals)
	}
	end := len(vals)
	if numRows >= 0 && start+numRows < end {
		end = start + numRows
	}

	return NewMemoryColumn(vals[start:end]), nil
}
