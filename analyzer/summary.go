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
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/portana/calendar"
)

// Summary collects the full-window statistics of every column. The benchmark
// is the last column.
type Summary struct {
	Date            time.Time   `json:"date"`
	Columns         []string    `json:"columns"`
	Beta            []float64   `json:"beta"`
	Volatility      []float64   `json:"volatility"`
	Sharpe          []float64   `json:"sharpe"`
	MaxDrawdown     []float64   `json:"maxDrawdown"`
	MaxDrawdownDate []time.Time `json:"maxDrawdownDate"`
}

// Summary computes beta, volatility, Sharpe ratio, maximum drawdown and its
// trough date for every security and the benchmark
func (a *Analyzer) Summary(mode Mode, periodsPerYear, riskFree float64) (*Summary, error) {
	betas, err := a.Betas(mode)
	if err != nil {
		return nil, err
	}

	vols, err := a.Volatilities(mode, periodsPerYear)
	if err != nil {
		return nil, err
	}

	sharpes, err := a.Sharpes(mode, periodsPerYear, riskFree)
	if err != nil {
		return nil, err
	}

	maxDD, err := a.MaxDrawdowns(mode)
	if err != nil {
		return nil, err
	}

	maxDDDates, err := a.MaxDrawdownDates(mode)
	if err != nil {
		return nil, err
	}

	n := len(a.cache.colNames) + 1
	summary := &Summary{
		Date:            a.cache.end,
		Columns:         append(a.ColNames(), a.benchmark.ID()+" (benchmark)"),
		Beta:            make([]float64, 0, n),
		Volatility:      make([]float64, 0, n),
		Sharpe:          make([]float64, 0, n),
		MaxDrawdown:     make([]float64, 0, n),
		MaxDrawdownDate: make([]time.Time, 0, n),
	}

	for idx := 0; idx < n-1; idx++ {
		summary.Beta = append(summary.Beta, betas.Securities.Vals[idx][0])
		summary.Volatility = append(summary.Volatility, vols.Securities.Vals[idx][0])
		summary.Sharpe = append(summary.Sharpe, sharpes.Securities.Vals[idx][0])
		summary.MaxDrawdown = append(summary.MaxDrawdown, maxDD.Securities.Vals[idx][0])
		summary.MaxDrawdownDate = append(summary.MaxDrawdownDate, maxDDDates.Securities.Vals[idx][0])
	}

	summary.Beta = append(summary.Beta, betas.Benchmark.Vals[0][0])
	summary.Volatility = append(summary.Volatility, vols.Benchmark.Vals[0][0])
	summary.Sharpe = append(summary.Sharpe, sharpes.Benchmark.Vals[0][0])
	summary.MaxDrawdown = append(summary.MaxDrawdown, maxDD.Benchmark.Vals[0][0])
	summary.MaxDrawdownDate = append(summary.MaxDrawdownDate, maxDDDates.Benchmark.Vals[0][0])

	return summary, nil
}

// Table renders the summary with one row per column
func (s *Summary) Table() string {
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{"Security", "Beta", "Volatility", "Sharpe", "Max Drawdown", "Trough"})
	table.SetFooter([]string{"As Of", calendar.Format(s.Date), "", "", "", ""})
	table.SetBorder(false)

	for idx, col := range s.Columns {
		table.Append([]string{
			col,
			fmt.Sprintf("%.4f", s.Beta[idx]),
			fmt.Sprintf("%.4f", s.Volatility[idx]),
			fmt.Sprintf("%.4f", s.Sharpe[idx]),
			fmt.Sprintf("%.2f%%", s.MaxDrawdown[idx]*100),
			calendar.Format(s.MaxDrawdownDate[idx]),
		})
	}

	table.Render()
	return sb.String()
}
