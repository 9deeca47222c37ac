// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataframe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/portana/calendar"
	"gonum.org/v1/gonum/mat"
)

// New creates a dataframe after checking that every column has one value per
// date. The arrays are copied.
func New(dates []time.Time, colNames []string, vals [][]float64) (*DataFrame, error) {
	if len(colNames) != len(vals) {
		return nil, fmt.Errorf("%w: %d column names for %d columns", ErrShape, len(colNames), len(vals))
	}

	for idx, col := range vals {
		if len(col) != len(dates) {
			return nil, fmt.Errorf("%w: column %s has %d values for %d dates", ErrShape, colNames[idx], len(col), len(dates))
		}
	}

	df := &DataFrame{
		Dates:    dates,
		ColNames: colNames,
		Vals:     vals,
	}

	return df.Copy(), nil
}

// Get index of specified column; returns -1 if column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Column returns a copy of the named column or nil if it does not exist
func (df *DataFrame) Column(colName string) []float64 {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return nil
	}

	col := make([]float64, len(df.Vals[colIdx]))
	copy(col, df.Vals[colIdx])
	return col
}

// Copy creates a copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// End returns the last date in the DataFrame
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// Insert a new column to the end of the dataframe
func (df *DataFrame) Insert(name string, col []float64) *DataFrame {
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// Last returns a new dataframe with only the last item of the current dataframe
func (df *DataFrame) Last() *DataFrame {
	if df.Len() == 0 {
		return df.Copy()
	}
	return df.rows([]int{df.Len() - 1})
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// At returns the row matching date; the result is empty if date is not in the index
func (df *DataFrame) At(date time.Time) *DataFrame {
	return df.Select(date)
}

// Select returns the rows matching any of the listed dates in index order
func (df *DataFrame) Select(dates ...time.Time) *DataFrame {
	want := make(map[time.Time]bool, len(dates))
	for _, dt := range dates {
		want[calendar.Normalize(dt)] = true
	}

	rows := make([]int, 0, len(dates))
	for idx, dt := range df.Dates {
		if want[calendar.Normalize(dt)] {
			rows = append(rows, idx)
		}
	}

	return df.rows(rows)
}

// Range returns every step-th row with start <= date <= stop (inclusive)
func (df *DataFrame) Range(start, stop time.Time, step int) *DataFrame {
	if step < 1 {
		step = 1
	}

	// special case: requested range is invalid
	if stop.Before(start) {
		return df.rows(nil)
	}

	// Use binary search to find the index corresponding to the start and end times
	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(start)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(stop)
	})

	rows := make([]int, 0, len(df.Dates))
	for idx := beginIdx; idx < endIdx; idx += step {
		rows = append(rows, idx)
	}

	return df.rows(rows)
}

func (df *DataFrame) rows(idx []int) *DataFrame {
	res := &DataFrame{
		Dates:    make([]time.Time, len(idx)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(res.ColNames, df.ColNames)

	for ii, row := range idx {
		res.Dates[ii] = df.Dates[row]
	}

	for colIdx, col := range df.Vals {
		res.Vals[colIdx] = make([]float64, len(idx))
		for ii, row := range idx {
			res.Vals[colIdx][ii] = col[row]
		}
	}

	return res
}

// Matrix returns the values as a dense matrix with one row per date and one
// column per series
func (df *DataFrame) Matrix() *mat.Dense {
	if df.Len() == 0 || df.ColCount() == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(df.Len(), df.ColCount(), nil)
	for colIdx, col := range df.Vals {
		m.SetCol(colIdx, col)
	}
	return m
}

// Table prints an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"Date"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = fmt.Sprintf("Num Rows: %d", df.Len())
	table.SetFooter(footer)
	table.SetBorder(false) // Set Border to false

	for idx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, calendar.Format(date))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

func (df *DataFrame) String() string {
	return df.Table()
}
