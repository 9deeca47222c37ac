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

package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/dataframe"
	"github.com/penny-vault/portana/timeseries"
	"github.com/rs/zerolog/log"
)

// alignment is the derived state of an Analyzer. It is always rebuilt in
// full from the member list and never modified afterwards.
type alignment struct {
	start    time.Time
	end      time.Time
	dates    []time.Time
	colNames []string

	prices               *dataframe.DataFrame
	totalReturn          *dataframe.DataFrame
	benchmarkPrices      *dataframe.DataFrame
	benchmarkTotalReturn *dataframe.DataFrame

	err error
}

// align computes the common window of the securities and benchmark (latest
// start, earliest end) and slices every history to it. Histories are stacked
// positionally so they must share identical dates inside the window.
func align(securities []data.Security, benchmark data.Security) *alignment {
	res := &alignment{
		dates:    []time.Time{},
		colNames: make([]string, len(securities)),
	}

	for idx, sec := range securities {
		res.colNames[idx] = sec.ID()
	}

	if benchmark == nil {
		res.err = ErrNotConfigured
		return res
	}

	members := append(append([]data.Security{}, securities...), benchmark)

	first := true
	for _, sec := range members {
		ts := sec.TimeSeries()
		if ts.Len() == 0 {
			res.err = fmt.Errorf("%w: %s has no history", ErrEmptyWindow, sec.ID())
			return res
		}

		if first {
			res.start = ts.Start()
			res.end = ts.End()
			first = false
			continue
		}

		res.start = calendar.MaxTime(res.start, ts.Start())
		res.end = calendar.MinTime(res.end, ts.End())
	}

	if res.end.Before(res.start) {
		res.err = fmt.Errorf("%w: latest start %s is after earliest end %s", ErrEmptyWindow, calendar.Format(res.start), calendar.Format(res.end))
		return res
	}

	pxCols := make([]*dataframe.DataFrame, len(securities))
	trCols := make([]*dataframe.DataFrame, len(securities))
	for idx, sec := range securities {
		pxCols[idx], trCols[idx] = columns(sec.ID(), sec.TimeSeries().Range(res.start, res.end, 1))
	}
	benchPx, benchTr := columns(benchmark.ID(), benchmark.TimeSeries().Range(res.start, res.end, 1))

	res.benchmarkPrices = benchPx
	res.benchmarkTotalReturn = benchTr

	// the benchmark leads so its dates are the reference grid
	prices, err := dataframe.Merge(append([]*dataframe.DataFrame{benchPx}, pxCols...)...)
	if err != nil {
		res.err = misaligned(err)
		return res
	}
	totalReturn, err := dataframe.Merge(append([]*dataframe.DataFrame{benchTr}, trCols...)...)
	if err != nil {
		res.err = misaligned(err)
		return res
	}

	res.prices = dropFirstColumn(prices)
	res.totalReturn = dropFirstColumn(totalReturn)
	res.dates = benchPx.Dates

	log.Debug().Time("Start", res.start).Time("End", res.end).Int("NumDates", len(res.dates)).
		Int("NumSecurities", len(securities)).Str("Benchmark", benchmark.ID()).Msg("aligned analyzer securities")

	return res
}

func misaligned(err error) error {
	if errors.Is(err, dataframe.ErrDateIndexNotAligned) {
		return fmt.Errorf("%w: %s", ErrMisalignedSeries, err)
	}
	return err
}

// columns converts a time series into single column price and total return frames
func columns(name string, ts *timeseries.TimeSeries) (*dataframe.DataFrame, *dataframe.DataFrame) {
	prices, totalReturn := ts.Data()
	dates := ts.Dates()
	return &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{name},
			Vals:     [][]float64{prices},
		}, &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{name},
			Vals:     [][]float64{totalReturn},
		}
}

func dropFirstColumn(df *dataframe.DataFrame) *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    df.Dates,
		ColNames: df.ColNames[1:],
		Vals:     df.Vals[1:],
	}
}
