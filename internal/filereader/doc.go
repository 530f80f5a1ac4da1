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

// Package filereader provides composable row-at-a-time readers: sequential
// concatenation, an ordered merge of pre-sorted readers, and a translating
// wrapper that transforms each row.
//
// # Overview
//
// Readers stream rows one at a time behind a common interface. The package
// contains no format-specific readers; callers supply their own Reader
// implementations and combine them with the composite readers below.
//
// # Core Interfaces
//
//	type Row map[string]any
//
//	type Reader interface {
//	    GetRow() (row Row, err error)  // Returns io.EOF when exhausted
//	    Close() error
//	}
//
//	type RowTranslator interface {
//	    TranslateRow(in Row) (Row, error)
//	}
//
// Use translators for data processing and TranslatingReader for composition.
//
// # Data Translation
//
// TranslatingReader applies a RowTranslator to every row of the reader it
// wraps:
//
//	reader, err := NewTranslatingReader(rawReader, translator)
//
// The package provides no built-in translators; implement RowTranslator as
// needed.
//
// # Composite Readers
//
// MultiReader reads each child to exhaustion, in the order given (no sorting):
//
//	reader, err := NewMultiReader([]Reader{r1, r2, r3})
//
// OrderedReader merges children that each already return rows in sorted
// order; a SelectFunc picks which child's current row comes next:
//
//	reader, err := NewOrderedReader([]Reader{r1, r2, r3}, TimeOrderedSelector("timestamp"))
//
// # Usage Patterns
//
//	defer reader.Close()
//	for {
//	    row, err := reader.GetRow()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // process row
//	}
//
// Composite readers nest, e.g. groups merged in timestamp order and then
// combined sequentially:
//
//	group1, _ := NewOrderedReader(readers1, TimeOrderedSelector("timestamp"))
//	group2, _ := NewOrderedReader(readers2, TimeOrderedSelector("timestamp"))
//	final, _ := NewMultiReader([]Reader{group1, group2})
//
// # Resource Management
//
//   - All readers must be closed via Close()
//   - Composite readers automatically close child readers
package filereader
