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

package portfolio

import (
	"time"

	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// trajectory is the derived state of a Portfolio. It is rebuilt in full on
// every mutation.
type trajectory struct {
	dates    []time.Time
	colNames []string

	// weights has one row per date and one column per holding
	weights      *mat.Dense
	priceReturns *dataframe.DataFrame
	totalReturns *dataframe.DataFrame

	err error
}

// simulate aligns the holdings and computes the weight of every holding on
// every common date.
//
//   - rebalance at freq calendar.Observation: weights are the targets on every date
//   - rebalance at a period frequency: weights are the targets at the start
//     and at every period end, and drift with price returns in between
//   - no rebalance: weights start at the targets and drift for the whole history
func simulate(securities []data.Security, targets []float64, rebalance bool, freq calendar.Frequency) *trajectory {
	if len(targets) != len(securities) {
		log.Panic().Int("NumSecurities", len(securities)).Int("NumWeights", len(targets)).Msg("weights are out of sync with securities")
	}

	res := &trajectory{
		dates:    []time.Time{},
		colNames: make([]string, len(securities)),
	}
	for idx, sec := range securities {
		res.colNames[idx] = sec.ID()
	}

	if len(securities) == 0 {
		res.err = ErrNotConfigured
		return res
	}

	a := analyzer.New()
	for _, sec := range securities {
		a.AddSecurity(sec)
	}

	px, err := a.Returns(analyzer.Price)
	if err != nil {
		res.err = err
		return res
	}
	tr, err := a.Returns(analyzer.TotalReturn)
	if err != nil {
		res.err = err
		return res
	}

	res.dates = a.Dates()
	res.priceReturns = px.Securities
	res.totalReturns = tr.Securities

	var boundaries map[int]bool
	switch {
	case !rebalance:
		boundaries = map[int]bool{}
	case freq == calendar.Observation:
		boundaries = nil
	default:
		boundaries, err = periodEnds(securities[0], res.dates, freq)
		if err != nil {
			res.err = err
			return res
		}
	}

	res.weights = evolve(targets, px.Securities, len(res.dates), boundaries)

	log.Debug().Int("NumSecurities", len(securities)).Int("NumDates", len(res.dates)).Bool("Rebalance", rebalance).
		Str("Frequency", string(freq)).Int("NumRebalances", len(boundaries)).Msg("computed portfolio weights")

	return res
}

// periodEnds returns the rows of dates that are period ends of sec's full
// history and fall inside the common window. The first row is never a
// rebalance point since the weights start at their targets anyway.
func periodEnds(sec data.Security, dates []time.Time, freq calendar.Frequency) (map[int]bool, error) {
	ends, err := sec.TimeSeries().PeriodEnds(freq)
	if err != nil {
		return nil, err
	}

	rows := make(map[time.Time]int, len(dates))
	for idx, dt := range dates {
		rows[dt] = idx
	}

	boundaries := make(map[int]bool, ends.Len())
	for _, dt := range ends.Dates() {
		if idx, ok := rows[dt]; ok && idx > 0 {
			boundaries[idx] = true
		}
	}

	return boundaries, nil
}

// evolve builds the weight matrix. A nil boundaries map pins every row to the
// targets. Otherwise each drift segment starts at the targets scaled to sum
// to 1 on row 0 and on every boundary row, and all other rows are the
// previous row grown by each holding's price return and renormalized. A
// boundary on the last row closes on the raw targets.
func evolve(targets []float64, rets *dataframe.DataFrame, n int, boundaries map[int]bool) *mat.Dense {
	weights := mat.NewDense(n, len(targets), nil)
	if boundaries == nil {
		for t := 0; t < n; t++ {
			weights.SetRow(t, targets)
		}
		return weights
	}

	seed := make([]float64, len(targets))
	copy(seed, targets)
	normalize(seed)
	weights.SetRow(0, seed)

	row := make([]float64, len(targets))
	for t := 1; t < n; t++ {
		switch {
		case boundaries[t] && t == n-1:
			weights.SetRow(t, targets)
			continue
		case boundaries[t]:
			weights.SetRow(t, seed)
			continue
		}

		copy(row, weights.RawRowView(t-1))
		for colIdx := range row {
			row[colIdx] *= 1 + rets.Vals[colIdx][t-1]
		}
		normalize(row)
		weights.SetRow(t, row)
	}

	return weights
}

// normalize scales row in place so it sums to 1; an all zero row is left alone
func normalize(row []float64) {
	if total := floats.Sum(row); total != 0 {
		floats.Scale(1/total, row)
	}
}

// weightedSum computes sum_i weights[t-1, i] * rets[i][t-1] for every return
// row, i.e. each period is earned with the weights held at its start
func weightedSum(weights *mat.Dense, rets *dataframe.DataFrame) []float64 {
	res := make([]float64, rets.Len())
	if rets.Len() == 0 {
		return res
	}

	_, cols := weights.Dims()
	var earned mat.Dense
	earned.MulElem(weights.Slice(0, rets.Len(), 0, cols), rets.Matrix())

	for t := range res {
		res[t] = floats.Sum(earned.RawRowView(t))
	}
	return res
}
