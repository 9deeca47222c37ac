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
	"math"
	"time"

	"github.com/penny-vault/portana/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// DrawDown is the period in which a series falls from its previous peak.
// Begin is the peak, End is the trough and Recovery is the first date the
// series is back at the peak; Recovery is the zero time if that never happens.
type DrawDown struct {
	Column      string    `json:"column"`
	Benchmark   bool      `json:"benchmark"`
	Begin       time.Time `json:"begin"`
	End         time.Time `json:"end"`
	Recovery    time.Time `json:"recovery"`
	LossPercent float64   `json:"lossPercent"`
}

// Returns computes the simple period-over-period return of every column. The
// result starts one date after the common window.
func (a *Analyzer) Returns(mode Mode) (*Result, error) {
	return a.apply(mode, (*dataframe.DataFrame).PctChange)
}

// RebasedIndex rescales every column to initial on the first common date
// and compounds its returns forward
func (a *Analyzer) RebasedIndex(mode Mode, initial float64) (*Result, error) {
	return a.apply(mode, func(df *dataframe.DataFrame) *dataframe.DataFrame {
		return df.PctChange().Compound(df.Start(), initial)
	})
}

// Betas computes Cov(security, benchmark) / Var(benchmark) of the returns of
// every security using sample statistics. The benchmark's beta is 1 by
// definition. The result is a single row on the last common date.
func (a *Analyzer) Betas(mode Mode) (*Result, error) {
	rets, err := a.Returns(mode)
	if err != nil {
		return nil, err
	}

	bench := rets.Benchmark.Vals[0]
	variance := stat.Variance(bench, nil)

	betas := make([]float64, rets.Securities.ColCount())
	for idx, col := range rets.Securities.Vals {
		betas[idx] = stat.Covariance(col, bench, nil) / variance
	}

	return a.summaryRow(betas, 1.0), nil
}

// Volatilities computes the sample standard deviation of returns scaled by
// the square root of periodsPerYear. The result is a single row on the last
// common date.
func (a *Analyzer) Volatilities(mode Mode, periodsPerYear float64) (*Result, error) {
	rets, err := a.Returns(mode)
	if err != nil {
		return nil, err
	}

	scale := math.Sqrt(periodsPerYear)
	vols := make([]float64, rets.Securities.ColCount())
	for idx, col := range rets.Securities.Vals {
		vols[idx] = stat.StdDev(col, nil) * scale
	}

	return a.summaryRow(vols, stat.StdDev(rets.Benchmark.Vals[0], nil)*scale), nil
}

// Sharpes computes (cumulative return over the window - riskFree) /
// annualized volatility. The result is a single row on the last common date.
func (a *Analyzer) Sharpes(mode Mode, periodsPerYear, riskFree float64) (*Result, error) {
	vals, err := a.values(mode)
	if err != nil {
		return nil, err
	}

	vols, err := a.Volatilities(mode, periodsPerYear)
	if err != nil {
		return nil, err
	}

	sharpe := func(col []float64, vol float64) float64 {
		cumulative := col[len(col)-1]/col[0] - 1
		return (cumulative - riskFree) / vol
	}

	sharpes := make([]float64, vals.Securities.ColCount())
	for idx, col := range vals.Securities.Vals {
		sharpes[idx] = sharpe(col, vols.Securities.Vals[idx][0])
	}

	return a.summaryRow(sharpes, sharpe(vals.Benchmark.Vals[0], vols.Benchmark.Vals[0][0])), nil
}

// Drawdowns computes value / running peak - 1 for every column over the full
// common window
func (a *Analyzer) Drawdowns(mode Mode) (*Result, error) {
	return a.apply(mode, (*dataframe.DataFrame).Drawdown)
}

// MaxDrawdowns is the most negative drawdown of every column as a single row
// on the last common date
func (a *Analyzer) MaxDrawdowns(mode Mode) (*Result, error) {
	dd, err := a.Drawdowns(mode)
	if err != nil {
		return nil, err
	}

	secMins, _ := dd.Securities.ColMin()
	benchMins, _ := dd.Benchmark.ColMin()
	return a.summaryRow(secMins, benchMins[0]), nil
}

// MaxDrawdownDates returns, for every column, the trough date of its maximum
// drawdown. When the minimum is reached more than once the first date is
// used; a column that never draws down reports the first common date.
func (a *Analyzer) MaxDrawdownDates(mode Mode) (*DateResult, error) {
	dd, err := a.Drawdowns(mode)
	if err != nil {
		return nil, err
	}

	troughs := func(df *dataframe.DataFrame) *dataframe.DateFrame {
		_, rows := df.ColMin()
		res := &dataframe.DateFrame{
			Dates:    []time.Time{a.cache.end},
			ColNames: df.ColNames,
			Vals:     make([][]time.Time, len(rows)),
		}
		for idx, row := range rows {
			res.Vals[idx] = []time.Time{df.Dates[row]}
		}
		return res
	}

	return &DateResult{
		Securities: troughs(dd.Securities),
		Benchmark:  troughs(dd.Benchmark),
	}, nil
}

// MaxDrawdownEpisodes returns the peak, trough and recovery of the maximum
// drawdown of every security, in insertion order, followed by the benchmark.
// Columns that never draw down are reported with a zero loss on the first
// common date.
func (a *Analyzer) MaxDrawdownEpisodes(mode Mode) ([]*DrawDown, error) {
	vals, err := a.values(mode)
	if err != nil {
		return nil, err
	}

	episodes := make([]*DrawDown, 0, vals.Securities.ColCount()+1)
	for idx, col := range vals.Securities.Vals {
		dd := maxDrawDown(vals.Securities.Dates, col)
		dd.Column = vals.Securities.ColNames[idx]
		episodes = append(episodes, dd)
	}

	dd := maxDrawDown(vals.Benchmark.Dates, vals.Benchmark.Vals[0])
	dd.Column = vals.Benchmark.ColNames[0]
	dd.Benchmark = true
	episodes = append(episodes, dd)

	for _, dd := range episodes {
		log.Debug().Object("DrawDown", dd).Msg("max drawdown episode")
	}

	return episodes, nil
}

// allDrawDowns lists every episode in which values fall below their running
// peak. An episode still under water at the end has no recovery date.
func allDrawDowns(dates []time.Time, values []float64) []*DrawDown {
	allDrawDowns := []*DrawDown{}
	if len(values) == 0 {
		return allDrawDowns
	}

	peak := values[0]
	var drawDown *DrawDown
	var prev time.Time
	for idx, value := range values {
		peak = math.Max(peak, value)
		diff := value - peak
		if diff < 0 {
			if drawDown == nil {
				drawDown = &DrawDown{
					Begin:       prev,
					End:         dates[idx],
					LossPercent: (value / peak) - 1.0,
				}
			}

			loss := value/peak - 1.0
			if loss < drawDown.LossPercent {
				drawDown.End = dates[idx]
				drawDown.LossPercent = loss
			}
		} else if drawDown != nil {
			drawDown.Recovery = dates[idx]
			allDrawDowns = append(allDrawDowns, drawDown)
			drawDown = nil
		}
		prev = dates[idx]
	}

	if drawDown != nil {
		allDrawDowns = append(allDrawDowns, drawDown)
	}

	return allDrawDowns
}

func maxDrawDown(dates []time.Time, values []float64) *DrawDown {
	var worst *DrawDown
	for _, dd := range allDrawDowns(dates, values) {
		if worst == nil || dd.LossPercent < worst.LossPercent {
			worst = dd
		}
	}

	if worst == nil {
		worst = &DrawDown{}
		if len(dates) > 0 {
			worst.Begin = dates[0]
			worst.End = dates[0]
		}
	}

	return worst
}

// summaryRow builds a single row result keyed on the last common date
func (a *Analyzer) summaryRow(securities []float64, benchmark float64) *Result {
	res := &Result{
		Securities: &dataframe.DataFrame{
			Dates:    []time.Time{a.cache.end},
			ColNames: make([]string, len(a.cache.colNames)),
			Vals:     make([][]float64, len(securities)),
		},
		Benchmark: &dataframe.DataFrame{
			Dates:    []time.Time{a.cache.end},
			ColNames: []string{a.benchmark.ID()},
			Vals:     [][]float64{{benchmark}},
		},
	}

	copy(res.Securities.ColNames, a.cache.colNames)
	for idx, val := range securities {
		res.Securities.Vals[idx] = []float64{val}
	}

	return res
}
