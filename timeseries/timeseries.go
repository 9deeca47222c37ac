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

// Package timeseries holds the security level time series: an ordered set of
// calendar dates each carrying a price and a total return index value.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/portana/calendar"
)

var (
	ErrLengthMismatch = errors.New("dates and values must have the same length")
	ErrUnsortedDates  = errors.New("dates must be strictly increasing")
)

// TimeSeries is an immutable date indexed series of prices and total return
// index values. Every accessor and slicing operation returns data that does not
// alias the receiver.
type TimeSeries struct {
	dates       []time.Time
	prices      []float64
	totalReturn []float64
}

// New creates a TimeSeries from the given arrays. Dates are normalized to
// midnight UTC and must be strictly increasing. If totalReturn is nil the price
// series is used as the total return index.
func New(dates []time.Time, prices, totalReturn []float64) (*TimeSeries, error) {
	if totalReturn == nil {
		totalReturn = prices
	}

	if len(dates) != len(prices) || len(dates) != len(totalReturn) {
		return nil, fmt.Errorf("%w: %d dates, %d prices, %d total return values", ErrLengthMismatch, len(dates), len(prices), len(totalReturn))
	}

	ts := &TimeSeries{
		dates:       make([]time.Time, len(dates)),
		prices:      make([]float64, len(prices)),
		totalReturn: make([]float64, len(totalReturn)),
	}

	for idx, dt := range dates {
		ts.dates[idx] = calendar.Normalize(dt)
		if idx > 0 && !ts.dates[idx-1].Before(ts.dates[idx]) {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnsortedDates, calendar.Format(ts.dates[idx]), calendar.Format(ts.dates[idx-1]))
		}
	}

	copy(ts.prices, prices)
	copy(ts.totalReturn, totalReturn)

	return ts, nil
}

// MustNew is like New but panics when the input violates the series invariants
func MustNew(dates []time.Time, prices, totalReturn []float64) *TimeSeries {
	ts, err := New(dates, prices, totalReturn)
	if err != nil {
		panic(err.Error())
	}
	return ts
}

// Len returns the number of rows in the series
func (ts *TimeSeries) Len() int {
	return len(ts.dates)
}

// Dates returns a copy of the date axis
func (ts *TimeSeries) Dates() []time.Time {
	dates := make([]time.Time, len(ts.dates))
	copy(dates, ts.dates)
	return dates
}

// Data returns copies of the price and total return index arrays in date order
func (ts *TimeSeries) Data() (prices []float64, totalReturn []float64) {
	prices = make([]float64, len(ts.prices))
	totalReturn = make([]float64, len(ts.totalReturn))
	copy(prices, ts.prices)
	copy(totalReturn, ts.totalReturn)
	return prices, totalReturn
}

// Start returns the first date in the series or the zero time if it is empty
func (ts *TimeSeries) Start() time.Time {
	if len(ts.dates) == 0 {
		return time.Time{}
	}
	return ts.dates[0]
}

// End returns the last date in the series or the zero time if it is empty
func (ts *TimeSeries) End() time.Time {
	if len(ts.dates) == 0 {
		return time.Time{}
	}
	return ts.dates[len(ts.dates)-1]
}

// At returns a series containing the row for date; it is empty if the date is not present
func (ts *TimeSeries) At(date time.Time) *TimeSeries {
	return ts.Select(date)
}

// Select returns the rows matching any of the listed dates. Rows are kept in
// the order of the series, not the order of the list, and a date listed twice
// yields a single row.
func (ts *TimeSeries) Select(dates ...time.Time) *TimeSeries {
	want := make(map[time.Time]bool, len(dates))
	for _, dt := range dates {
		want[calendar.Normalize(dt)] = true
	}

	rows := make([]int, 0, len(dates))
	for idx, dt := range ts.dates {
		if want[dt] {
			rows = append(rows, idx)
		}
	}

	return ts.rows(rows)
}

// Range returns every step-th row with start <= date <= stop (both ends
// inclusive), beginning with the first matching row. A step less than 1 is
// treated as 1.
func (ts *TimeSeries) Range(start, stop time.Time, step int) *TimeSeries {
	if step < 1 {
		step = 1
	}

	start = calendar.Normalize(start)
	stop = calendar.Normalize(stop)

	if stop.Before(start) {
		return ts.rows(nil)
	}

	beginIdx := sort.Search(len(ts.dates), func(i int) bool {
		return !ts.dates[i].Before(start)
	})

	endIdx := sort.Search(len(ts.dates), func(i int) bool {
		return ts.dates[i].After(stop)
	})

	rows := make([]int, 0, (endIdx-beginIdx)/step+1)
	for idx := beginIdx; idx < endIdx; idx += step {
		rows = append(rows, idx)
	}

	return ts.rows(rows)
}

// Slice returns rows [begin, end) by position
func (ts *TimeSeries) Slice(begin, end int) *TimeSeries {
	rows := make([]int, 0, end-begin)
	for idx := begin; idx < end; idx++ {
		rows = append(rows, idx)
	}
	return ts.rows(rows)
}

func (ts *TimeSeries) rows(idx []int) *TimeSeries {
	res := &TimeSeries{
		dates:       make([]time.Time, len(idx)),
		prices:      make([]float64, len(idx)),
		totalReturn: make([]float64, len(idx)),
	}

	for ii, row := range idx {
		res.dates[ii] = ts.dates[row]
		res.prices[ii] = ts.prices[row]
		res.totalReturn[ii] = ts.totalReturn[row]
	}

	return res
}

// indexOf returns the row of date or -1
func (ts *TimeSeries) indexOf(date time.Time) int {
	idx := sort.Search(len(ts.dates), func(i int) bool {
		return !ts.dates[i].Before(date)
	})
	if idx < len(ts.dates) && ts.dates[idx].Equal(date) {
		return idx
	}
	return -1
}

// Table renders the series as an ASCII table
func (ts *TimeSeries) Table() string {
	if len(ts.dates) == 0 {
		return "<NO DATA>"
	}

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Date", "Price", "Total Return Index"})
	table.SetFooter([]string{"Num Rows", fmt.Sprintf("%d", ts.Len()), ""})
	table.SetBorder(false)

	for idx, dt := range ts.dates {
		table.Append([]string{
			calendar.Format(dt),
			fmt.Sprintf("%.4f", ts.prices[idx]),
			fmt.Sprintf("%.4f", ts.totalReturn[idx]),
		})
	}

	table.Render()
	return s.String()
}

func (ts *TimeSeries) String() string {
	return ts.Table()
}

type timeSeriesJSON struct {
	Dates       []string  `json:"dates"`
	Prices      []float64 `json:"price"`
	TotalReturn []float64 `json:"totalReturn"`
}

// MarshalJSON encodes the series with ISO formatted dates
func (ts *TimeSeries) MarshalJSON() ([]byte, error) {
	out := timeSeriesJSON{
		Dates:       make([]string, len(ts.dates)),
		Prices:      ts.prices,
		TotalReturn: ts.totalReturn,
	}
	for idx, dt := range ts.dates {
		out.Dates[idx] = calendar.Format(dt)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a series produced by MarshalJSON and re-validates its invariants
func (ts *TimeSeries) UnmarshalJSON(b []byte) error {
	var in timeSeriesJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	dates := make([]time.Time, len(in.Dates))
	for idx, s := range in.Dates {
		dt, err := calendar.Parse(s)
		if err != nil {
			return err
		}
		dates[idx] = dt
	}

	decoded, err := New(dates, in.Prices, in.TotalReturn)
	if err != nil {
		return err
	}

	*ts = *decoded
	return nil
}
