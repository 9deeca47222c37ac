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
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.Vals {
		floats.AddConst(scalar, df.Vals[colIdx])
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.Vals {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// CumProd computes the running product of each column and returns a new dataframe
func (df *DataFrame) CumProd() *DataFrame {
	res := df.Copy()

	for colIdx, col := range df.Vals {
		if len(col) == 0 {
			continue
		}
		floats.CumProd(res.Vals[colIdx], col)
	}
	return res
}

// PctChange computes the simple return (v[t] - v[t-1]) / v[t-1] of each column.
// The result has one row less than df: its first date is df's second date.
func (df *DataFrame) PctChange() *DataFrame {
	res := &DataFrame{
		Dates:    []time.Time{},
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(res.ColNames, df.ColNames)

	if df.Len() > 1 {
		res.Dates = make([]time.Time, df.Len()-1)
		copy(res.Dates, df.Dates[1:])
	}

	for colIdx, col := range df.Vals {
		res.Vals[colIdx] = make([]float64, len(res.Dates))
		for rowIdx := 1; rowIdx < len(col); rowIdx++ {
			res.Vals[colIdx][rowIdx-1] = (col[rowIdx] - col[rowIdx-1]) / col[rowIdx-1]
		}
	}

	return res
}

// Compound treats df as a frame of periodic returns and builds the index that
// starts at initial on date first and grows by (1 + r) every row. The result has
// one row more than df.
func (df *DataFrame) Compound(first time.Time, initial float64) *DataFrame {
	growth := df.AddScalar(1).CumProd().MulScalar(initial)

	res := &DataFrame{
		Dates:    append([]time.Time{first}, growth.Dates...),
		ColNames: growth.ColNames,
		Vals:     make([][]float64, len(growth.Vals)),
	}

	for colIdx, col := range growth.Vals {
		res.Vals[colIdx] = append([]float64{initial}, col...)
	}

	return res
}

// Drawdown computes value[t] / max(value[0..t]) - 1 for each column. Every
// value is <= 0 and the first row is always 0.
func (df *DataFrame) Drawdown() *DataFrame {
	res := df.Copy()

	for colIdx, col := range df.Vals {
		peak := math.Inf(-1)
		for rowIdx, val := range col {
			peak = math.Max(peak, val)
			res.Vals[colIdx][rowIdx] = val/peak - 1
		}
	}

	return res
}

// ColMin returns the minimum value of each column and the row where it first occurs.
// Empty columns yield NaN and -1.
func (df *DataFrame) ColMin() ([]float64, []int) {
	mins := make([]float64, len(df.Vals))
	rows := make([]int, len(df.Vals))

	for colIdx, col := range df.Vals {
		if len(col) == 0 {
			mins[colIdx] = math.NaN()
			rows[colIdx] = -1
			continue
		}
		rows[colIdx] = floats.MinIdx(col)
		mins[colIdx] = col[rows[colIdx]]
	}

	return mins, rows
}
