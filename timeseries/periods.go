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

package timeseries

import (
	"fmt"
	"sort"
	"time"

	"github.com/penny-vault/portana/calendar"
)

// onOrBefore returns the latest available date on or before dt
func (ts *TimeSeries) onOrBefore(dt time.Time) (time.Time, bool) {
	idx := sort.Search(len(ts.dates), func(i int) bool {
		return ts.dates[i].After(dt)
	})
	if idx == 0 {
		return time.Time{}, false
	}
	return ts.dates[idx-1], true
}

// onOrAfter returns the earliest available date on or after dt
func (ts *TimeSeries) onOrAfter(dt time.Time) (time.Time, bool) {
	idx := sort.Search(len(ts.dates), func(i int) bool {
		return !ts.dates[i].Before(dt)
	})
	if idx == len(ts.dates) {
		return time.Time{}, false
	}
	return ts.dates[idx], true
}

// monthEndDates snaps every calendar month end touched by the series to the
// latest available date on or before it. Months whose end precedes the first
// row are skipped.
func (ts *TimeSeries) monthEndDates() []time.Time {
	if len(ts.dates) == 0 {
		return []time.Time{}
	}

	months := calendar.Months(ts.Start(), ts.End())
	ends := make([]time.Time, 0, len(months))
	for _, month := range months {
		if dt, ok := ts.onOrBefore(calendar.MonthEnd(month.Year(), month.Month())); ok {
			ends = append(ends, dt)
		}
	}
	return ends
}

// monthStartDates snaps every calendar month start touched by the series to
// the earliest available date on or after it.
func (ts *TimeSeries) monthStartDates() []time.Time {
	if len(ts.dates) == 0 {
		return []time.Time{}
	}

	months := calendar.Months(ts.Start(), ts.End())
	starts := make([]time.Time, 0, len(months))
	for _, month := range months {
		if dt, ok := ts.onOrAfter(month); ok {
			starts = append(starts, dt)
		}
	}
	return starts
}

func filterMonths(dates []time.Time, keep func(time.Month) bool) []time.Time {
	res := make([]time.Time, 0, len(dates))
	for _, dt := range dates {
		if keep(dt.Month()) {
			res = append(res, dt)
		}
	}
	return res
}

func isDecember(m time.Month) bool { return m == time.December }
func isJanuary(m time.Month) bool  { return m == time.January }

// MonthEnds returns the rows that are the last available date of each calendar month
func (ts *TimeSeries) MonthEnds() *TimeSeries {
	return ts.Select(ts.monthEndDates()...)
}

// QuarterEnds returns the month ends falling in March, June, September or December
func (ts *TimeSeries) QuarterEnds() *TimeSeries {
	return ts.Select(filterMonths(ts.monthEndDates(), calendar.IsQuarterEndMonth)...)
}

// YearEnds returns the month ends falling in December
func (ts *TimeSeries) YearEnds() *TimeSeries {
	return ts.Select(filterMonths(ts.monthEndDates(), isDecember)...)
}

// MonthStarts returns the rows that are the first available date of each calendar month
func (ts *TimeSeries) MonthStarts() *TimeSeries {
	return ts.Select(ts.monthStartDates()...)
}

// QuarterStarts returns the month starts falling in January, April, July or October
func (ts *TimeSeries) QuarterStarts() *TimeSeries {
	return ts.Select(filterMonths(ts.monthStartDates(), calendar.IsQuarterStartMonth)...)
}

// YearStarts returns the month starts falling in January
func (ts *TimeSeries) YearStarts() *TimeSeries {
	return ts.Select(filterMonths(ts.monthStartDates(), isJanuary)...)
}

// PeriodEnds dispatches to MonthEnds, QuarterEnds or YearEnds
func (ts *TimeSeries) PeriodEnds(freq calendar.Frequency) (*TimeSeries, error) {
	switch freq {
	case calendar.Monthly:
		return ts.MonthEnds(), nil
	case calendar.Quarterly:
		return ts.QuarterEnds(), nil
	case calendar.Yearly:
		return ts.YearEnds(), nil
	}
	return nil, fmt.Errorf("%w: no period ends for %q", calendar.ErrInvalidFrequency, string(freq))
}

// PeriodStarts dispatches to MonthStarts, QuarterStarts or YearStarts
func (ts *TimeSeries) PeriodStarts(freq calendar.Frequency) (*TimeSeries, error) {
	switch freq {
	case calendar.Monthly:
		return ts.MonthStarts(), nil
	case calendar.Quarterly:
		return ts.QuarterStarts(), nil
	case calendar.Yearly:
		return ts.YearStarts(), nil
	}
	return nil, fmt.Errorf("%w: no period starts for %q", calendar.ErrInvalidFrequency, string(freq))
}

// split partitions the series into contiguous chunks that begin at each of the
// boundary dates. The first chunk always begins at row 0 and the last one runs
// through the final row.
func (ts *TimeSeries) split(boundaries []time.Time) []*TimeSeries {
	if len(ts.dates) == 0 {
		return []*TimeSeries{}
	}

	cuts := []int{0}
	for _, dt := range boundaries {
		// an empty month snaps onto the next month's first row
		idx := ts.indexOf(dt)
		if idx > cuts[len(cuts)-1] {
			cuts = append(cuts, idx)
		}
	}
	cuts = append(cuts, len(ts.dates))

	chunks := make([]*TimeSeries, 0, len(cuts)-1)
	for ii := 0; ii < len(cuts)-1; ii++ {
		chunks = append(chunks, ts.Slice(cuts[ii], cuts[ii+1]))
	}
	return chunks
}

// SplitMonth partitions the series by calendar month
func (ts *TimeSeries) SplitMonth() []*TimeSeries {
	return ts.split(ts.monthStartDates())
}

// SplitQuarter partitions the series by calendar quarter
func (ts *TimeSeries) SplitQuarter() []*TimeSeries {
	return ts.split(filterMonths(ts.monthStartDates(), calendar.IsQuarterStartMonth))
}

// SplitYear partitions the series by calendar year
func (ts *TimeSeries) SplitYear() []*TimeSeries {
	return ts.split(filterMonths(ts.monthStartDates(), isJanuary))
}

// Split dispatches to SplitMonth, SplitQuarter or SplitYear
func (ts *TimeSeries) Split(freq calendar.Frequency) ([]*TimeSeries, error) {
	switch freq {
	case calendar.Monthly:
		return ts.SplitMonth(), nil
	case calendar.Quarterly:
		return ts.SplitQuarter(), nil
	case calendar.Yearly:
		return ts.SplitYear(), nil
	}
	return nil, fmt.Errorf("%w: cannot split by %q", calendar.ErrInvalidFrequency, string(freq))
}
