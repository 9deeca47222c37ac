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

// Package analyzer aligns the histories of a set of securities and a
// benchmark on a common calendar and computes comparative statistics:
// returns, beta, volatility, Sharpe ratio and drawdowns.
package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/dataframe"
)

var (
	ErrNotConfigured    = errors.New("analyzer needs a benchmark or at least one security")
	ErrEmptyWindow      = errors.New("securities do not share any dates")
	ErrMisalignedSeries = errors.New("securities do not share an identical date grid")
	ErrInvalidMode      = errors.New("invalid mode")
)

// Mode selects the series statistics are computed on
type Mode string

const (
	Price       Mode = "px"
	TotalReturn Mode = "tr"
)

// ParseMode converts a mode token (px or tr) into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Price:
		return Price, nil
	case TotalReturn:
		return TotalReturn, nil
	}
	return "", fmt.Errorf("%w: %q must be px or tr", ErrInvalidMode, s)
}

// Result holds the output of a statistic: one column per security, in the
// order the securities were added, and a single column for the benchmark
type Result struct {
	Securities *dataframe.DataFrame
	Benchmark  *dataframe.DataFrame
}

// DateResult is the date valued counterpart of Result
type DateResult struct {
	Securities *dataframe.DateFrame
	Benchmark  *dataframe.DateFrame
}

// Analyzer tracks an ordered collection of securities and one benchmark.
// Every mutation synchronously rebuilds the aligned price and total return
// matrices so that statistics always reflect the current members.
//
// An Analyzer is not safe for concurrent use.
type Analyzer struct {
	securities []data.Security
	benchmark  data.Security
	cache      *alignment
}

// New creates an empty analyzer
func New() *Analyzer {
	return &Analyzer{
		securities: []data.Security{},
		cache:      align(nil, nil),
	}
}

// AddSecurity appends sec to the analyzed securities. The first security
// added also becomes the benchmark unless one has been set.
func (a *Analyzer) AddSecurity(sec data.Security) {
	a.securities = append(a.securities, sec)
	if a.benchmark == nil {
		a.benchmark = sec
	}
	a.cache = align(a.securities, a.benchmark)
}

// SetBenchmark replaces the benchmark the securities are compared against
func (a *Analyzer) SetBenchmark(sec data.Security) {
	a.benchmark = sec
	a.cache = align(a.securities, a.benchmark)
}

// Securities returns the analyzed securities in insertion order
func (a *Analyzer) Securities() []data.Security {
	res := make([]data.Security, len(a.securities))
	copy(res, a.securities)
	return res
}

// Benchmark returns the current benchmark or nil if none is set
func (a *Analyzer) Benchmark() data.Security {
	return a.benchmark
}

// ColNames returns the column name of each security in insertion order
func (a *Analyzer) ColNames() []string {
	res := make([]string, len(a.cache.colNames))
	copy(res, a.cache.colNames)
	return res
}

// EarliestCommonDate is the latest first date of any member
func (a *Analyzer) EarliestCommonDate() time.Time {
	return a.cache.start
}

// LatestCommonDate is the earliest last date of any member
func (a *Analyzer) LatestCommonDate() time.Time {
	return a.cache.end
}

// Dates returns the common date axis
func (a *Analyzer) Dates() []time.Time {
	res := make([]time.Time, len(a.cache.dates))
	copy(res, a.cache.dates)
	return res
}

// Err reports why statistics cannot currently be computed, if anything
func (a *Analyzer) Err() error {
	return a.cache.err
}

// Prices returns the aligned price matrices
func (a *Analyzer) Prices() (*Result, error) {
	return a.values(Price)
}

// TotalReturnIndex returns the aligned total return index matrices
func (a *Analyzer) TotalReturnIndex() (*Result, error) {
	return a.values(TotalReturn)
}

// values returns copies of the aligned matrices for mode
func (a *Analyzer) values(mode Mode) (*Result, error) {
	if a.cache.err != nil {
		return nil, a.cache.err
	}

	switch mode {
	case Price:
		return &Result{
			Securities: a.cache.prices.Copy(),
			Benchmark:  a.cache.benchmarkPrices.Copy(),
		}, nil
	case TotalReturn:
		return &Result{
			Securities: a.cache.totalReturn.Copy(),
			Benchmark:  a.cache.benchmarkTotalReturn.Copy(),
		}, nil
	}

	return nil, fmt.Errorf("%w: %q must be px or tr", ErrInvalidMode, string(mode))
}

// apply runs fn on both the securities and benchmark values for mode
func (a *Analyzer) apply(mode Mode, fn func(*dataframe.DataFrame) *dataframe.DataFrame) (*Result, error) {
	vals, err := a.values(mode)
	if err != nil {
		return nil, err
	}
	return &Result{
		Securities: fn(vals.Securities),
		Benchmark:  fn(vals.Benchmark),
	}, nil
}
