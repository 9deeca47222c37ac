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

// Package dataframe holds the labeled matrix outputs of the analytics engine:
// a shared date axis with one named float column per security.
package dataframe

import (
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date. Vals is stored
// column-major, e.g.:
//
//	VFINX  PRIDX
//	1      4
//	2      5
//	3      6
//
// Vals[0][0] = 1
// Vals[0][1] = 2
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

// DateFrame is the date valued companion of DataFrame; it is used for
// statistics whose result is a date rather than a number (e.g. the trough
// of the worst drawdown)
type DateFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]time.Time
}

var (
	ErrDateIndexNotAligned = errors.New("date index does not align")
	ErrShape               = errors.New("column names and values do not match the date index")
)
